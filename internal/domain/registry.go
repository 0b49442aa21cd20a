package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CRSEntry maps one free-text CoordinateSystem label to an EPSG code.
// Geographic marks degree-unit systems; projected systems carry
// coordinates in metres. Several labels may share one EPSG code.
type CRSEntry struct {
	Label      string `yaml:"label"`
	EPSG       string `yaml:"epsg"`
	Geographic bool   `yaml:"geographic,omitempty"`
}

// CRSRegistry is an ordered label→EPSG mapping. Order matters: spatial
// groups and merged output follow registry entry order, so a registry is
// a slice with a derived lookup index rather than a bare map.
type CRSRegistry struct {
	entries    []CRSEntry
	byLabel    map[string]int
	geographic map[string]bool
}

// NewRegistry validates entries and builds the lookup index. Labels must
// be unique and non-empty; EPSG codes must be all digits. An EPSG code
// listed as geographic by any entry is geographic for all of them.
func NewRegistry(entries []CRSEntry) (*CRSRegistry, error) {
	r := &CRSRegistry{
		entries:    make([]CRSEntry, 0, len(entries)),
		byLabel:    make(map[string]int, len(entries)),
		geographic: make(map[string]bool),
	}
	for _, e := range entries {
		if err := r.add(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *CRSRegistry) add(e CRSEntry) error {
	if strings.TrimSpace(e.Label) == "" {
		return fmt.Errorf("crs registry: empty label for epsg %q", e.EPSG)
	}
	if !isDigits(e.EPSG) {
		return fmt.Errorf("crs registry: label %q has non-numeric epsg code %q", e.Label, e.EPSG)
	}
	if i, dup := r.byLabel[e.Label]; dup {
		// Later entries override earlier ones so user files can retarget
		// a default label without duplicating the whole registry.
		r.entries[i] = e
	} else {
		r.byLabel[e.Label] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	if e.Geographic {
		r.geographic[e.EPSG] = true
	}
	return nil
}

// Entries returns the registry entries in enumeration order.
func (r *CRSRegistry) Entries() []CRSEntry { return r.entries }

// Lookup resolves a CoordinateSystem label. Matching is exact: labels are
// case- and whitespace-sensitive, mirroring how contributing institutes
// wrote them.
func (r *CRSRegistry) Lookup(label string) (CRSEntry, bool) {
	i, ok := r.byLabel[label]
	if !ok {
		return CRSEntry{}, false
	}
	return r.entries[i], true
}

// IsGeographic reports whether an EPSG code names a degree-unit system.
func (r *CRSRegistry) IsGeographic(epsg string) bool { return r.geographic[epsg] }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// DefaultRegistry returns the label set observed in GLORICH exports.
func DefaultRegistry() *CRSRegistry {
	r, err := NewRegistry([]CRSEntry{
		{Label: "WGS84", EPSG: "4326", Geographic: true},
		{Label: "WGS 84", EPSG: "4326", Geographic: true},
		{Label: "GCS_WGS_1984", EPSG: "4326", Geographic: true},
		{Label: "NA1983", EPSG: "4269", Geographic: true},
		{Label: "DHDN_3_Degree_Gauss_Zone_4", EPSG: "31468"},
		{Label: "ETRS_1989_UTM_Zone_33N", EPSG: "25833"},
		{Label: "British_National_Grid", EPSG: "27700"},
		{Label: "British National Grid", EPSG: "27700"},
		{Label: "GD_1949_New_Zealand_Map_Grid", EPSG: "27200"},
		{Label: "National_Grid_of_Australia_Zone_55", EPSG: "28355"},
	})
	if err != nil {
		panic(err) // built-in entries are static
	}
	return r
}

// registryFile is the on-disk YAML schema for registry overrides.
type registryFile struct {
	// ExtendDefault prepends the built-in entries, so a file can add or
	// retarget a few labels without restating the defaults.
	ExtendDefault bool       `yaml:"extend_default"`
	Systems       []CRSEntry `yaml:"systems"`
}

// LoadRegistry reads a YAML registry file. With extend_default: true the
// built-in entries come first and file entries append or override by
// label; otherwise the file fully replaces the default registry.
func LoadRegistry(path string) (*CRSRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("crs registry %s: %w", path, ErrNotFound)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("crs registry %s: %w", path, err)
	}
	if len(f.Systems) == 0 && !f.ExtendDefault {
		return nil, fmt.Errorf("crs registry %s: no systems defined", path)
	}

	var r *CRSRegistry
	if f.ExtendDefault {
		r = DefaultRegistry()
	} else {
		r = &CRSRegistry{byLabel: make(map[string]int), geographic: make(map[string]bool)}
	}
	for _, e := range f.Systems {
		if err := r.add(e); err != nil {
			return nil, fmt.Errorf("crs registry %s: %w", path, err)
		}
	}
	return r, nil
}
