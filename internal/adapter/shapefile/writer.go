// Package shapefile persists spatial datasets as ESRI point shapefiles
// with a DBF attribute table. It implements pipeline.DatasetWriter.
package shapefile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	shp "github.com/jonas-p/go-shp"

	"github.com/hydrogeo/glorich-etl/internal/domain"
)

// DBF character fields hold at most 254 bytes; field names at most 10.
const (
	maxFieldWidth   = 254
	maxFieldNameLen = 10
)

// Writer writes point shapefiles, silently overwriting existing files.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a shapefile writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteDataset writes ds to path (.shp plus the .shx/.dbf sidecars the
// format requires). Every attribute column becomes a DBF character field
// sized to its widest value.
func (w *Writer) WriteDataset(_ context.Context, path string, ds *domain.SpatialDataset) error {
	if len(ds.Points) != ds.Attributes.NumRows() {
		return fmt.Errorf("dataset %q: %d points for %d attribute rows", ds.Label, len(ds.Points), ds.Attributes.NumRows())
	}

	out, err := shp.Create(path, shp.POINT)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	columns := ds.Attributes.Columns()
	out.SetFields(dbfFields(ds.Attributes))

	for i, pt := range ds.Points {
		out.Write(&shp.Point{X: pt.X(), Y: pt.Y()})
		for j, col := range columns {
			value := truncate(ds.Attributes.Value(i, col), maxFieldWidth)
			if err := out.WriteAttribute(i, j, value); err != nil {
				return fmt.Errorf("write %s row %d field %s: %w", path, i, col, err)
			}
		}
	}

	w.logger.Debug("shapefile written", "path", path, "points", len(ds.Points), "epsg", ds.EPSG)
	return nil
}

// dbfFields derives one character field per attribute column, each sized
// to the widest value it will hold.
func dbfFields(t *domain.Table) []shp.Field {
	columns := t.Columns()
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
		for row := 0; row < t.NumRows(); row++ {
			if l := len(t.Value(row, col)); l > widths[i] {
				widths[i] = l
			}
		}
		if widths[i] > maxFieldWidth {
			widths[i] = maxFieldWidth
		}
		if widths[i] == 0 {
			widths[i] = 1
		}
	}

	names := fieldNames(columns)
	fields := make([]shp.Field, len(columns))
	for i := range columns {
		fields[i] = shp.StringField(names[i], uint8(widths[i]))
	}
	return fields
}

// fieldNames truncates column names to the DBF limit and disambiguates
// collisions with a numeric suffix.
func fieldNames(columns []string) []string {
	names := make([]string, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		name := truncate(col, maxFieldNameLen)
		for n := 2; seen[name]; n++ {
			suffix := strconv.Itoa(n)
			name = truncate(col, maxFieldNameLen-len(suffix)) + suffix
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
