// Package pipeline orchestrates the two-stage GLORICH transformation:
// Load reads and joins the input tables, Convert turns the joined table
// into georeferenced point datasets and optionally exports them. Stages
// are pure batch transforms wired to the outside world through the three
// small interfaces below.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/hydrogeo/glorich-etl/internal/domain"
	"github.com/hydrogeo/glorich-etl/internal/observability"
)

// TableReader reads one delimited table from a path.
type TableReader interface {
	ReadTable(ctx context.Context, path string) (*domain.Table, error)
}

// Reprojector transforms a dataset's geometry into a target EPSG code.
// Implementations must be deterministic: the same dataset and target
// always produce identical coordinates.
type Reprojector interface {
	Reproject(ctx context.Context, ds *domain.SpatialDataset, targetEPSG string) (*domain.SpatialDataset, error)
}

// DatasetWriter persists one dataset as a GIS vector file, overwriting
// any existing file at the path.
type DatasetWriter interface {
	WriteDataset(ctx context.Context, path string, ds *domain.SpatialDataset) error
}

// Pipeline holds the stage collaborators and observability.
type Pipeline struct {
	reader      TableReader
	reprojector Reprojector
	writer      DatasetWriter
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline with the given adapters and observability.
func New(reader TableReader, reprojector Reprojector, writer DatasetWriter, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		reader:      reader,
		reprojector: reprojector,
		writer:      writer,
		logger:      logger,
		metrics:     metrics,
	}
}
