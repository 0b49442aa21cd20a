package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hydrogeo/glorich-etl/internal/domain"
)

// Defaults for the merged-export path.
const (
	DefaultExportName = "GLORICHshpExport"
	DefaultTargetEPSG = "4326"
)

// ConvertOptions steer the spatial conversion of a unified table.
type ConvertOptions struct {
	// Registry maps CoordinateSystem labels to EPSG codes; nil selects
	// the built-in GLORICH registry.
	Registry *domain.CRSRegistry

	// Merge reprojects every group into TargetEPSG and concatenates
	// them. Without Merge each group keeps its native system.
	Merge      bool
	TargetEPSG string // defaults to DefaultTargetEPSG

	Export    bool
	ExportDir string // defaults to the working directory

	// ExportName names the single merged shapefile; defaults to
	// DefaultExportName. Only used with Merge.
	ExportName string

	// ExportNames names the per-group shapefiles and must match the
	// non-empty group count exactly. Only used without Merge.
	ExportNames []string
}

// GroupSummary describes one non-empty spatial group of a conversion.
type GroupSummary struct {
	Label string
	EPSG  string
	Rows  int
}

// ConvertReport is the outcome of one conversion: the resulting datasets
// plus every data-quality finding, so nothing is silently absorbed.
type ConvertReport struct {
	// Datasets holds the single merged dataset, or the ordered
	// per-group datasets when Merge is off.
	Datasets []*domain.SpatialDataset

	Groups      []GroupSummary
	DroppedRows int // rows without usable coordinates
	Unmatched   []domain.UnmatchedLabel
	Written     []string // paths of exported shapefiles

	StartedAt  time.Time
	FinishedAt time.Time
}

// Merged returns the merged dataset of a Merge conversion.
func (r *ConvertReport) Merged() *domain.SpatialDataset {
	if len(r.Datasets) == 0 {
		return nil
	}
	return r.Datasets[0]
}

// Convert runs the spatial pipeline over a unified table: filter rows
// without usable coordinates, partition by CoordinateSystem, geometrize,
// then either reproject-and-merge into the target system or keep the
// groups separate, and optionally export shapefiles.
func (p *Pipeline) Convert(ctx context.Context, table *domain.Table, opts ConvertOptions) (*ConvertReport, error) {
	start := time.Now()
	report := &ConvertReport{StartedAt: domain.Now()}

	registry := opts.Registry
	if registry == nil {
		registry = domain.DefaultRegistry()
	}
	targetEPSG := opts.TargetEPSG
	if targetEPSG == "" {
		targetEPSG = DefaultTargetEPSG
	}

	filtered, dropped, err := domain.FilterConvertible(table)
	if err != nil {
		return nil, err
	}
	report.DroppedRows = dropped
	p.metrics.RowsDroppedIncomplete.Add(float64(dropped))
	if dropped > 0 {
		p.logger.Warn("dropped rows without usable coordinates", "rows", dropped)
	}

	groups, unmatched, err := domain.PartitionByCRS(filtered, registry)
	if err != nil {
		return nil, err
	}
	report.Unmatched = unmatched
	for _, u := range unmatched {
		p.logger.Warn("coordinate system label not in registry, rows excluded",
			"crs_label", u.Label, "rows", u.Rows)
		p.metrics.RowsDroppedUnmatched.Add(float64(u.Rows))
		p.metrics.UnmatchedLabels.WithLabelValues(u.Label).Add(float64(u.Rows))
	}

	p.metrics.GroupsFormed.Add(float64(len(groups)))
	datasets := make([]*domain.SpatialDataset, 0, len(groups))
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := domain.Geometrize(g)
		if err != nil {
			return nil, err
		}
		report.Groups = append(report.Groups, GroupSummary{Label: g.Label, EPSG: g.EPSG, Rows: g.Table.NumRows()})
		p.logger.Debug("geometrized group", "crs_label", g.Label, "epsg", g.EPSG, "rows", g.Table.NumRows())
		datasets = append(datasets, ds)
	}

	if opts.Merge {
		merged, err := p.reprojectAndMerge(ctx, datasets, targetEPSG)
		if err != nil {
			return nil, err
		}
		report.Datasets = []*domain.SpatialDataset{merged}
	} else {
		report.Datasets = datasets
	}

	if opts.Export {
		written, err := p.export(ctx, report.Datasets, opts)
		if err != nil {
			return nil, err
		}
		report.Written = written
	}

	p.metrics.ConvertDuration.Observe(time.Since(start).Seconds())
	report.FinishedAt = domain.Now()
	return report, nil
}

func (p *Pipeline) reprojectAndMerge(ctx context.Context, datasets []*domain.SpatialDataset, targetEPSG string) (*domain.SpatialDataset, error) {
	if len(datasets) == 0 {
		return nil, fmt.Errorf("no convertible rows remain after filtering and grouping")
	}

	reprojected := make([]*domain.SpatialDataset, len(datasets))
	for i, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		out, err := p.reprojector.Reproject(ctx, ds, targetEPSG)
		if err != nil {
			return nil, fmt.Errorf("reproject %q (epsg %s -> %s): %w", ds.Label, ds.EPSG, targetEPSG, err)
		}
		p.metrics.ReprojectDuration.Observe(time.Since(start).Seconds())
		reprojected[i] = out
	}

	merged, err := domain.MergeDatasets(targetEPSG, reprojected)
	if err != nil {
		return nil, err
	}
	p.logger.Info("merged groups", "groups", len(reprojected), "rows", merged.Attributes.NumRows(), "epsg", targetEPSG)
	return merged, nil
}

// export writes the datasets as shapefiles. For unmerged conversions the
// filename list is validated against the group count before anything
// touches the disk, so a mismatch writes no partial output.
func (p *Pipeline) export(ctx context.Context, datasets []*domain.SpatialDataset, opts ConvertOptions) ([]string, error) {
	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}

	var names []string
	if opts.Merge {
		name := opts.ExportName
		if name == "" {
			name = DefaultExportName
		}
		names = []string{name}
	} else {
		if len(opts.ExportNames) != len(datasets) {
			return nil, fmt.Errorf("export needs %d filenames for %d groups, got %d: %w",
				len(datasets), len(datasets), len(opts.ExportNames), domain.ErrConfig)
		}
		names = opts.ExportNames
	}

	written := make([]string, 0, len(datasets))
	for i, ds := range datasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, ensureShpExt(names[i]))
		if err := p.writer.WriteDataset(ctx, path, ds); err != nil {
			return nil, fmt.Errorf("export %s: %w", path, err)
		}
		p.metrics.DatasetsWritten.Inc()
		p.logger.Info("wrote shapefile", "path", path, "rows", ds.Attributes.NumRows(), "epsg", ds.EPSG)
		written = append(written, path)
	}
	return written, nil
}

func ensureShpExt(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".shp") {
		return name
	}
	return name + ".shp"
}
