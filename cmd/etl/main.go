// Command etl converts GLORICH hydrochemistry and sampling-location CSV
// tables into georeferenced point shapefiles.
//
// Usage:
//
//	etl -hydro hydrochemistry.csv -locations sampling_locations.csv \
//	  -merge -target-epsg 4326 -export -out-dir ./out
//
// Ambient settings (LOG_LEVEL, LOG_FORMAT, REGISTRY_PATH, METRICS_ADDR)
// come from the environment or a .env file; operation inputs are flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/hydrogeo/glorich-etl/internal/adapter/csvfile"
	httpadapter "github.com/hydrogeo/glorich-etl/internal/adapter/http"
	"github.com/hydrogeo/glorich-etl/internal/adapter/projcrs"
	"github.com/hydrogeo/glorich-etl/internal/adapter/shapefile"
	"github.com/hydrogeo/glorich-etl/internal/config"
	"github.com/hydrogeo/glorich-etl/internal/domain"
	"github.com/hydrogeo/glorich-etl/internal/observability"
	"github.com/hydrogeo/glorich-etl/internal/pipeline"
)

func main() {
	hydroPath := flag.String("hydro", "", "hydrochemistry CSV (required)")
	locationPath := flag.String("locations", "", "sampling-location CSV; enables the station join")
	registryPath := flag.String("registry", "", "CRS registry YAML (overrides REGISTRY_PATH)")
	merge := flag.Bool("merge", true, "reproject all groups into the target EPSG and merge them")
	targetEPSG := flag.String("target-epsg", pipeline.DefaultTargetEPSG, "target EPSG code for merged output")
	export := flag.Bool("export", false, "write shapefile output")
	outDir := flag.String("out-dir", ".", "output directory for shapefiles")
	outName := flag.String("name", pipeline.DefaultExportName, "merged shapefile name")
	outNames := flag.String("names", "", "comma-separated per-group shapefile names (unmerged export)")
	flag.Parse()

	if *hydroPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	registry, err := loadRegistry(*registryPath, cfg.RegistryPath)
	if err != nil {
		logger.Error("failed to load CRS registry", "error", err)
		os.Exit(1)
	}

	reprojector := projcrs.New(registry, logger)
	defer reprojector.Close()

	p := pipeline.New(csvfile.NewReader(logger), reprojector, shapefile.NewWriter(logger), logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional metrics listener, off unless METRICS_ADDR is set.
	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	code := run(ctx, p, logger, runOptions{
		hydroPath:    *hydroPath,
		locationPath: *locationPath,
		registry:     registry,
		merge:        *merge,
		targetEPSG:   *targetEPSG,
		export:       *export,
		outDir:       *outDir,
		outName:      *outName,
		outNames:     splitNames(*outNames),
	})

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	os.Exit(code)
}

type runOptions struct {
	hydroPath    string
	locationPath string
	registry     *domain.CRSRegistry
	merge        bool
	targetEPSG   string
	export       bool
	outDir       string
	outName      string
	outNames     []string
}

func run(ctx context.Context, p *pipeline.Pipeline, logger *slog.Logger, opts runOptions) int {
	loaded, err := p.Load(ctx, pipeline.LoadOptions{
		HydroPath:       opts.hydroPath,
		IncludeLocation: opts.locationPath != "",
		LocationPath:    opts.locationPath,
	})
	if err != nil {
		logger.Error("load failed", "error", err)
		return exitCode(err)
	}

	report, err := p.Convert(ctx, loaded.Table, pipeline.ConvertOptions{
		Registry:    opts.registry,
		Merge:       opts.merge,
		TargetEPSG:  opts.targetEPSG,
		Export:      opts.export,
		ExportDir:   opts.outDir,
		ExportName:  opts.outName,
		ExportNames: opts.outNames,
	})
	if err != nil {
		logger.Error("convert failed", "error", err)
		return exitCode(err)
	}

	logger.Info("conversion complete",
		"joined_rows", loaded.JoinedRows,
		"dropped_join", loaded.DroppedHydro+loaded.DroppedLocation,
		"dropped_incomplete", report.DroppedRows,
		"unmatched_labels", len(report.Unmatched),
		"groups", len(report.Groups),
		"datasets", len(report.Datasets),
		"written", len(report.Written),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	for _, g := range report.Groups {
		logger.Info("group", "crs_label", g.Label, "epsg", g.EPSG, "rows", g.Rows)
	}
	for _, u := range report.Unmatched {
		fmt.Fprintf(os.Stderr, "warning: %d rows with unknown coordinate system %q were excluded\n", u.Rows, u.Label)
	}
	return 0
}

func loadRegistry(flagPath, envPath string) (*domain.CRSRegistry, error) {
	path := flagPath
	if path == "" {
		path = envPath
	}
	if path == "" {
		return domain.DefaultRegistry(), nil
	}
	return domain.LoadRegistry(path)
}

func splitNames(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func exitCode(err error) int {
	if errors.Is(err, domain.ErrConfig) {
		return 2
	}
	return 1
}
