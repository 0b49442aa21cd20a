package pipeline_test

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twpayne/go-geom"

	"github.com/hydrogeo/glorich-etl/internal/domain"
	"github.com/hydrogeo/glorich-etl/internal/observability"
	"github.com/hydrogeo/glorich-etl/internal/pipeline"
)

// --- fakes ---

type fakeReader struct {
	tables map[string]*domain.Table
	errs   map[string]error
}

func (f *fakeReader) ReadTable(_ context.Context, path string) (*domain.Table, error) {
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	t, ok := f.tables[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return t, nil
}

// fakeReprojector retags datasets with the target EPSG, shifting every
// coordinate by a fixed per-source offset so tests can tell a reprojected
// point from a copied one. Deterministic by construction.
type fakeReprojector struct {
	calls []string // "src->dst" per invocation
}

func (f *fakeReprojector) Reproject(_ context.Context, ds *domain.SpatialDataset, targetEPSG string) (*domain.SpatialDataset, error) {
	f.calls = append(f.calls, ds.EPSG+"->"+targetEPSG)
	if ds.EPSG == targetEPSG {
		return ds, nil
	}

	src, err := strconv.Atoi(ds.EPSG)
	if err != nil {
		return nil, err
	}
	dst, err := strconv.Atoi(targetEPSG)
	if err != nil {
		return nil, err
	}
	offset := float64(src-dst) / 1000.0

	points := make([]*geom.Point, len(ds.Points))
	for i, pt := range ds.Points {
		points[i] = geom.NewPoint(geom.XY).
			MustSetCoords(geom.Coord{pt.X() + offset, pt.Y() + offset}).
			SetSRID(dst)
	}
	return &domain.SpatialDataset{
		Label:      ds.Label,
		EPSG:       targetEPSG,
		Points:     points,
		Attributes: ds.Attributes,
	}, nil
}

type fakeWriter struct {
	written []string
	err     error
}

func (f *fakeWriter) WriteDataset(_ context.Context, path string, _ *domain.SpatialDataset) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, path)
	return nil
}

// --- helpers ---

func newTestPipeline(reader *fakeReader, reproj *fakeReprojector, writer *fakeWriter) *pipeline.Pipeline {
	return pipeline.New(reader, reproj, writer, slog.Default(), observability.NewMetricsForTesting())
}
