// Command genmock generates mock GLORICH hydrochemistry and
// sampling-location CSV fixtures for local runs and demos. Values are
// deterministic (seeded generator, fixed clock) so regenerated fixtures
// diff clean.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -stations 12 -samples 3
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hydrogeo/glorich-etl/internal/domain"
)

// siteTemplate fixes the per-CRS value ranges so generated coordinates
// are plausible for the system they claim.
type siteTemplate struct {
	crsLabel       string
	country        string
	state          string
	latMin, latMax float64
	lonMin, lonMax float64
}

var templates = []siteTemplate{
	{crsLabel: "WGS84", country: "Germany", state: "Bavaria", latMin: 47.5, latMax: 50.5, lonMin: 9.0, lonMax: 13.0},
	{crsLabel: "NA1983", country: "United States", state: "Texas", latMin: 26.0, latMax: 36.0, lonMin: -106.0, lonMax: -94.0},
	{crsLabel: "British_National_Grid", country: "United Kingdom", state: "Scotland", latMin: 650000, latMax: 950000, lonMin: 150000, lonMax: 400000},
	{crsLabel: "GD_1949_New_Zealand_Map_Grid", country: "New Zealand", state: "Otago", latMin: 4900000, latMax: 5100000, lonMin: 2150000, lonMax: 2350000},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "output directory for CSV fixtures")
	stations := flag.Int("stations", 12, "number of sampling stations")
	samples := flag.Int("samples", 3, "water samples per station")
	flag.Parse()

	if *stations <= 0 || *samples <= 0 {
		return fmt.Errorf("-stations and -samples must be positive")
	}

	// Fixed clock and seed keep fixture output reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2009, time.June, 15, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)
	rng := rand.New(rand.NewSource(1))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	locPath := filepath.Join(*outDir, "sampling_locations.csv")
	if err := writeLocations(locPath, *stations, rng); err != nil {
		return fmt.Errorf("writing %s: %w", locPath, err)
	}
	log.Printf("wrote %s: %d stations", locPath, *stations)

	hydroPath := filepath.Join(*outDir, "hydrochemistry.csv")
	rows, err := writeHydrochemistry(hydroPath, *stations, *samples, rng)
	if err != nil {
		return fmt.Errorf("writing %s: %w", hydroPath, err)
	}
	log.Printf("wrote %s: %d samples", hydroPath, rows)
	return nil
}

func writeLocations(path string, stations int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(domain.LocationColumns); err != nil {
		return err
	}
	for i := 1; i <= stations; i++ {
		t := templates[(i-1)%len(templates)]
		lat := t.latMin + rng.Float64()*(t.latMax-t.latMin)
		lon := t.lonMin + rng.Float64()*(t.lonMax-t.lonMin)
		row := []string{
			fmt.Sprintf("%d", 100000+i),
			t.country,
			t.state,
			fmt.Sprintf("%.6f", lat),
			fmt.Sprintf("%.6f", lon),
			t.crsLabel,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeHydrochemistry(path string, stations, samples int, rng *rand.Rand) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{domain.ColStationID, "SAMPLE_DATE", "Temp_water", "pH", "Alkalinity", "Ca", "Mg", "NO3"}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	base := domain.Now()
	rows := 0
	for i := 1; i <= stations; i++ {
		for s := 0; s < samples; s++ {
			date := base.AddDate(0, -s, 0).Format("2006-01-02")
			row := []string{
				fmt.Sprintf("%d", 100000+i),
				date,
				fmt.Sprintf("%.1f", 4+rng.Float64()*20),
				fmt.Sprintf("%.2f", 6.2+rng.Float64()*2.4),
				fmt.Sprintf("%.3f", rng.Float64()*5),
				fmt.Sprintf("%.3f", rng.Float64()*3),
				fmt.Sprintf("%.3f", rng.Float64()*1.5),
				fmt.Sprintf("%.3f", rng.Float64()*0.8),
			}
			if err := w.Write(row); err != nil {
				return rows, err
			}
			rows++
		}
	}
	w.Flush()
	return rows, w.Error()
}
