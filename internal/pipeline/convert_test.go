package pipeline_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrogeo/glorich-etl/internal/domain"
	"github.com/hydrogeo/glorich-etl/internal/pipeline"
)

var unifiedColumns = []string{"STAT_ID", "pH", "Country", "State", "Latitude", "Longitude", "CoordinateSystem"}

func row(id, lat, lon, crs string) []string {
	return []string{id, "7.0", "Germany", "Bavaria", lat, lon, crs}
}

// unifiedTable builds a WGS84(3 rows) + British_National_Grid(2 rows)
// table, interleaved so grouping has to reorder.
func unifiedTable(t *testing.T) *domain.Table {
	return table(t, unifiedColumns, [][]string{
		row("b1", "651000", "151000", "British_National_Grid"),
		row("w1", "48.1", "11.5", "WGS84"),
		row("w2", "48.2", "11.6", "WGS84"),
		row("b2", "652000", "152000", "British_National_Grid"),
		row("w3", "48.3", "11.7", "WGS84"),
	})
}

func TestConvert_MergePreservesRegistryOrder(t *testing.T) {
	reproj := &fakeReprojector{}
	p := newTestPipeline(&fakeReader{}, reproj, &fakeWriter{})

	report, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{Merge: true})
	require.NoError(t, err)

	merged := report.Merged()
	require.NotNil(t, merged)
	assert.Equal(t, "4326", merged.EPSG)
	require.Len(t, merged.Points, 5)

	// WGS84 rows first (registry order), then the grid rows; input
	// order inside each group.
	var ids []string
	for i := 0; i < merged.Attributes.NumRows(); i++ {
		ids = append(ids, merged.Attributes.Value(i, "STAT_ID"))
	}
	assert.Equal(t, []string{"w1", "w2", "w3", "b1", "b2"}, ids)

	// Both groups were routed through the reprojector.
	assert.Equal(t, []string{"4326->4326", "27700->4326"}, reproj.calls)

	require.Len(t, report.Groups, 2)
	assert.Equal(t, pipeline.GroupSummary{Label: "WGS84", EPSG: "4326", Rows: 3}, report.Groups[0])
	assert.Equal(t, pipeline.GroupSummary{Label: "British_National_Grid", EPSG: "27700", Rows: 2}, report.Groups[1])
}

func TestConvert_MergeIsDeterministic(t *testing.T) {
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, &fakeWriter{})

	first, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{Merge: true})
	require.NoError(t, err)
	second, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{Merge: true})
	require.NoError(t, err)

	coords := func(r *pipeline.ConvertReport) [][2]float64 {
		var out [][2]float64
		for _, pt := range r.Merged().Points {
			out = append(out, [2]float64{pt.X(), pt.Y()})
		}
		return out
	}
	if diff := cmp.Diff(coords(first), coords(second)); diff != "" {
		t.Errorf("repeat conversion differs (-first +second):\n%s", diff)
	}
}

func TestConvert_UnmatchedLabelExcludedAndReported(t *testing.T) {
	tbl := table(t, unifiedColumns, [][]string{
		row("w1", "48.1", "11.5", "WGS84"),
		row("m1", "0.0", "0.0", "Mars2020"),
		row("w2", "48.2", "11.6", "WGS84"),
		row("m2", "0.1", "0.1", "Mars2020"),
	})
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, &fakeWriter{})

	report, err := p.Convert(context.Background(), tbl, pipeline.ConvertOptions{Merge: true})
	require.NoError(t, err)

	// Merged output shrinks by exactly the unmatched row count.
	assert.Len(t, report.Merged().Points, 2)
	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, domain.UnmatchedLabel{Label: "Mars2020", Rows: 2}, report.Unmatched[0])
}

func TestConvert_IncompleteRowsDroppedAndCounted(t *testing.T) {
	tbl := table(t, unifiedColumns, [][]string{
		row("w1", "48.1", "11.5", "WGS84"),
		row("w2", "", "11.6", "WGS84"),
		row("w3", "48.3", "", "WGS84"),
	})
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, &fakeWriter{})

	report, err := p.Convert(context.Background(), tbl, pipeline.ConvertOptions{Merge: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.DroppedRows)
	assert.Len(t, report.Merged().Points, 1)
}

func TestConvert_UnmergedKeepsNativeCRS(t *testing.T) {
	reproj := &fakeReprojector{}
	p := newTestPipeline(&fakeReader{}, reproj, &fakeWriter{})

	report, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{Merge: false})
	require.NoError(t, err)

	require.Len(t, report.Datasets, 2)
	assert.Equal(t, "4326", report.Datasets[0].EPSG)
	assert.Equal(t, "27700", report.Datasets[1].EPSG)
	// Ungrouped conversion never reprojects.
	assert.Empty(t, reproj.calls)

	// Native coordinates survive untouched.
	assert.Equal(t, 151000.0, report.Datasets[1].Points[0].X())
	assert.Equal(t, 651000.0, report.Datasets[1].Points[0].Y())
}

func TestConvert_ExportMergedDefaultName(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, writer)

	report, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{
		Merge:     true,
		Export:    true,
		ExportDir: "/tmp/out",
	})
	require.NoError(t, err)

	require.Len(t, writer.written, 1)
	assert.Equal(t, "/tmp/out/GLORICHshpExport.shp", writer.written[0])
	assert.Equal(t, writer.written, report.Written)
}

func TestConvert_ExportUnmergedUsesSuppliedNames(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, writer)

	report, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{
		Merge:       false,
		Export:      true,
		ExportDir:   "/tmp/out",
		ExportNames: []string{"wgs84_sites", "bng_sites.shp"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/tmp/out/wgs84_sites.shp", "/tmp/out/bng_sites.shp"}, report.Written)
}

func TestConvert_ExportNameCountMismatchWritesNothing(t *testing.T) {
	tbl := table(t, unifiedColumns, [][]string{
		row("w1", "48.1", "11.5", "WGS84"),
		row("n1", "47.0", "15.0", "NA1983"),
		row("b1", "651000", "151000", "British_National_Grid"),
	})
	writer := &fakeWriter{}
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, writer)

	_, err := p.Convert(context.Background(), tbl, pipeline.ConvertOptions{
		Merge:       false,
		Export:      true,
		ExportNames: []string{"one", "two"}, // three groups
	})
	require.ErrorIs(t, err, domain.ErrConfig)
	assert.Empty(t, writer.written)
}

func TestConvert_WriteFailurePropagates(t *testing.T) {
	writer := &fakeWriter{err: assert.AnError}
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, writer)

	_, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{
		Merge:  true,
		Export: true,
	})
	require.ErrorIs(t, err, assert.AnError)
}

func TestConvert_NoConvertibleRowsOnMerge(t *testing.T) {
	tbl := table(t, unifiedColumns, [][]string{
		row("m1", "0.0", "0.0", "Mars2020"),
	})
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, &fakeWriter{})

	_, err := p.Convert(context.Background(), tbl, pipeline.ConvertOptions{Merge: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no convertible rows")
}

func TestConvert_CancelledContext(t *testing.T) {
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, &fakeWriter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Convert(ctx, unifiedTable(t), pipeline.ConvertOptions{Merge: true})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConvert_CustomTargetEPSG(t *testing.T) {
	p := newTestPipeline(&fakeReader{}, &fakeReprojector{}, &fakeWriter{})

	report, err := p.Convert(context.Background(), unifiedTable(t), pipeline.ConvertOptions{
		Merge:      true,
		TargetEPSG: "25833",
	})
	require.NoError(t, err)
	assert.Equal(t, "25833", report.Merged().EPSG)
}
