// Command validate performs integrity checks on GLORICH input tables
// before a conversion run: required columns, coordinate parseability, and
// registry coverage of every CoordinateSystem label. It reports findings
// per phase and exits non-zero if any phase fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -hydro data/hydrochemistry.csv \
//	  -locations data/sampling_locations.csv \
//	  -registry crs_registry.yaml
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hydrogeo/glorich-etl/internal/domain"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	hydroPath := flag.String("hydro", "", "hydrochemistry CSV to validate")
	locationPath := flag.String("locations", "", "sampling-location CSV to validate")
	registryPath := flag.String("registry", "", "CRS registry YAML (default: built-in registry)")
	flag.Parse()

	if *hydroPath == "" || *locationPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if code := run(*hydroPath, *locationPath, *registryPath); code != 0 {
		os.Exit(code)
	}
}

func run(hydroPath, locationPath, registryPath string) int {
	fmt.Println("=== GLORICH Input Validation ===")
	fmt.Println()

	registry := domain.DefaultRegistry()
	if registryPath != "" {
		var err error
		registry, err = domain.LoadRegistry(registryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load registry: %v\n", err)
			return 1
		}
	}

	hydro, err := readCSV(hydroPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load hydrochemistry: %v\n", err)
		return 1
	}
	locations, err := readCSV(locationPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load locations: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateHeaders(hydro, locations),
		validateCoordinates(locations),
		validateRegistryCoverage(locations, registry),
		validateJoinKeys(hydro, locations),
	}

	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("validation failed")
		return 1
	}
	fmt.Println("all phases passed")
	return 0
}

func validateHeaders(hydro, locations *domain.Table) *phase {
	p := &phase{name: "required columns"}
	if !hydro.HasColumn(domain.ColStationID) {
		p.errorf("hydrochemistry table missing %s", domain.ColStationID)
	}
	for _, c := range domain.LocationColumns {
		if !locations.HasColumn(c) {
			p.errorf("location table missing %s", c)
		}
	}
	return p
}

func validateCoordinates(locations *domain.Table) *phase {
	p := &phase{name: "coordinate parseability"}
	if !locations.HasColumn(domain.ColLatitude) || !locations.HasColumn(domain.ColLongitude) {
		p.errorf("coordinate columns absent, skipping")
		return p
	}
	blank, bad := 0, 0
	for row := 0; row < locations.NumRows(); row++ {
		for _, c := range []string{domain.ColLatitude, domain.ColLongitude} {
			v := strings.TrimSpace(locations.Value(row, c))
			if v == "" {
				blank++
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				bad++
				p.errorf("row %d: %s %q is not numeric", row+1, c, v)
			}
		}
	}
	if blank > 0 {
		// Blank coordinates are filtered at convert time, not an input defect.
		fmt.Printf("note: %d blank coordinate cells will be dropped by the converter\n", blank)
	}
	return p
}

func validateRegistryCoverage(locations *domain.Table, registry *domain.CRSRegistry) *phase {
	p := &phase{name: "registry coverage"}
	if !locations.HasColumn(domain.ColCoordinateSystem) {
		p.errorf("%s column absent, skipping", domain.ColCoordinateSystem)
		return p
	}
	counts := make(map[string]int)
	for row := 0; row < locations.NumRows(); row++ {
		label := locations.Value(row, domain.ColCoordinateSystem)
		if strings.TrimSpace(label) == "" {
			continue
		}
		if _, ok := registry.Lookup(label); !ok {
			counts[label]++
		}
	}
	for label, n := range counts {
		p.errorf("coordinate system %q (%d rows) not in registry", label, n)
	}
	return p
}

func validateJoinKeys(hydro, locations *domain.Table) *phase {
	p := &phase{name: "station join coverage"}
	if !hydro.HasColumn(domain.ColStationID) || !locations.HasColumn(domain.ColStationID) {
		p.errorf("%s column absent, skipping", domain.ColStationID)
		return p
	}
	known := make(map[string]bool, locations.NumRows())
	for row := 0; row < locations.NumRows(); row++ {
		known[strings.TrimSpace(locations.Value(row, domain.ColStationID))] = true
	}
	missing := make(map[string]bool)
	for row := 0; row < hydro.NumRows(); row++ {
		id := strings.TrimSpace(hydro.Value(row, domain.ColStationID))
		if !known[id] {
			missing[id] = true
		}
	}
	if len(missing) > 0 {
		p.errorf("%d station ids have samples but no location and will be dropped by the join", len(missing))
	}
	return p
}

func readCSV(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	return domain.NewTable(records[0], records[1:])
}
