package domain

import "errors"

// Sentinel errors for the two fatal failure classes. File-system and
// configuration problems abort a run; data-quality findings never do.
var (
	// ErrNotFound marks a missing or unreadable input table.
	ErrNotFound = errors.New("input table not found")

	// ErrConfig marks an invalid caller-supplied option combination,
	// e.g. a location join without a location table, or an export
	// filename list that does not match the group count.
	ErrConfig = errors.New("invalid configuration")
)
