package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SpatialGroup is the set of unified rows sharing one CoordinateSystem
// label, paired with that label's EPSG code. Ephemeral: built once per
// conversion and consumed by geometrize/reproject/merge.
type SpatialGroup struct {
	Label string
	EPSG  string
	Table *Table
}

// UnmatchedLabel records a CoordinateSystem value that appears in the data
// but not in the registry, with its row count. Reported, never fatal.
type UnmatchedLabel struct {
	Label string
	Rows  int
}

// FilterConvertible drops rows that cannot become a point: blank
// Latitude, Longitude, or CoordinateSystem, or coordinates that do not
// parse as numbers. Returns the kept rows and the dropped count. The
// operation is idempotent; filtering an already-filtered table drops
// nothing.
func FilterConvertible(t *Table) (*Table, int, error) {
	for _, c := range []string{ColLatitude, ColLongitude, ColCoordinateSystem} {
		if !t.HasColumn(c) {
			return nil, 0, fmt.Errorf("filter: missing column %q", c)
		}
	}

	kept := t.Select(func(row int) bool {
		return rowConvertible(t, row)
	})
	return kept, t.NumRows() - kept.NumRows(), nil
}

func rowConvertible(t *Table, row int) bool {
	if strings.TrimSpace(t.Value(row, ColCoordinateSystem)) == "" {
		return false
	}
	for _, c := range []string{ColLatitude, ColLongitude} {
		v := strings.TrimSpace(t.Value(row, c))
		if v == "" {
			return false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
	}
	return true
}

// PartitionByCRS splits a filtered table into one SpatialGroup per
// registry label present in the data, in registry enumeration order. Row
// order within a group follows input order. Labels missing from the
// registry come back as UnmatchedLabels in first-seen order.
func PartitionByCRS(t *Table, registry *CRSRegistry) ([]SpatialGroup, []UnmatchedLabel, error) {
	if !t.HasColumn(ColCoordinateSystem) {
		return nil, nil, fmt.Errorf("partition: missing column %q", ColCoordinateSystem)
	}

	unmatchedCounts := make(map[string]int)
	var unmatchedOrder []string
	for row := 0; row < t.NumRows(); row++ {
		label := t.Value(row, ColCoordinateSystem)
		if _, ok := registry.Lookup(label); !ok {
			if unmatchedCounts[label] == 0 {
				unmatchedOrder = append(unmatchedOrder, label)
			}
			unmatchedCounts[label]++
		}
	}

	var groups []SpatialGroup
	for _, entry := range registry.Entries() {
		sub := t.Select(func(row int) bool {
			return t.Value(row, ColCoordinateSystem) == entry.Label
		})
		if sub.NumRows() == 0 {
			continue
		}
		groups = append(groups, SpatialGroup{Label: entry.Label, EPSG: entry.EPSG, Table: sub})
	}

	unmatched := make([]UnmatchedLabel, 0, len(unmatchedOrder))
	for _, label := range unmatchedOrder {
		unmatched = append(unmatched, UnmatchedLabel{Label: label, Rows: unmatchedCounts[label]})
	}
	return groups, unmatched, nil
}
