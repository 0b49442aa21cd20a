package shapefile_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrogeo/glorich-etl/internal/adapter/shapefile"
	"github.com/hydrogeo/glorich-etl/internal/domain"
)

func testDataset(t *testing.T) *domain.SpatialDataset {
	t.Helper()
	table, err := domain.NewTable(
		[]string{"STAT_ID", "Country", "Latitude", "Longitude", "CoordinateSystem"},
		[][]string{
			{"100001", "Germany", "48.1375", "11.5755", "WGS84"},
			{"100002", "Germany", "51.0504", "13.7373", "WGS84"},
		},
	)
	require.NoError(t, err)

	ds, err := domain.Geometrize(domain.SpatialGroup{Label: "WGS84", EPSG: "4326", Table: table})
	require.NoError(t, err)
	return ds
}

func TestWriteDataset_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.shp")
	w := shapefile.NewWriter(slog.Default())

	require.NoError(t, w.WriteDataset(context.Background(), path, testDataset(t)))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var rows int
	for r.Next() {
		n, shape := r.Shape()
		pt, ok := shape.(*shp.Point)
		require.True(t, ok, "expected point geometry")

		switch n {
		case 0:
			assert.InDelta(t, 11.5755, pt.X, 1e-9)
			assert.InDelta(t, 48.1375, pt.Y, 1e-9)
			assert.Equal(t, "100001", r.ReadAttribute(n, 0))
		case 1:
			assert.InDelta(t, 13.7373, pt.X, 1e-9)
			assert.InDelta(t, 51.0504, pt.Y, 1e-9)
			assert.Equal(t, "100002", r.ReadAttribute(n, 0))
		}
		rows++
	}
	assert.Equal(t, 2, rows)
}

func TestWriteDataset_TruncatesFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.shp")
	w := shapefile.NewWriter(slog.Default())

	require.NoError(t, w.WriteDataset(context.Background(), path, testDataset(t)))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	fields := r.Fields()
	require.Len(t, fields, 5)
	// "CoordinateSystem" exceeds the 10-byte DBF limit.
	assert.Equal(t, "Coordinate", fields[4].String())
	for _, f := range fields {
		assert.LessOrEqual(t, len(f.String()), 10)
	}
}

func TestWriteDataset_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.shp")
	w := shapefile.NewWriter(slog.Default())

	require.NoError(t, w.WriteDataset(context.Background(), path, testDataset(t)))

	// Second write with a single-row dataset must fully replace the file.
	table, err := domain.NewTable(
		[]string{"STAT_ID", "Country", "Latitude", "Longitude", "CoordinateSystem"},
		[][]string{{"200001", "France", "45.75", "4.85", "WGS84"}},
	)
	require.NoError(t, err)
	ds, err := domain.Geometrize(domain.SpatialGroup{Label: "WGS84", EPSG: "4326", Table: table})
	require.NoError(t, err)
	require.NoError(t, w.WriteDataset(context.Background(), path, ds))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var rows int
	for r.Next() {
		n, _ := r.Shape()
		assert.Equal(t, "200001", r.ReadAttribute(n, 0))
		rows++
	}
	assert.Equal(t, 1, rows)
}

func TestWriteDataset_PointAttributeMismatch(t *testing.T) {
	ds := testDataset(t)
	ds.Points = ds.Points[:1]

	w := shapefile.NewWriter(slog.Default())
	err := w.WriteDataset(context.Background(), filepath.Join(t.TempDir(), "bad.shp"), ds)
	require.Error(t, err)
}
