// Package projcrs reprojects spatial datasets between EPSG coordinate
// systems using the PROJ library. It implements pipeline.Reprojector; all
// geodetic math is PROJ's, none is defined here.
package projcrs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	proj "github.com/pebbe/proj/v5"
	"github.com/twpayne/go-geom"

	"github.com/hydrogeo/glorich-etl/internal/domain"
)

// Reprojector builds one PROJ transformation pipeline per (source,
// target) EPSG pair and caches it, since a run reprojects many groups
// between few systems.
type Reprojector struct {
	registry *domain.CRSRegistry
	logger   *slog.Logger

	mu    sync.Mutex
	ctx   *proj.Context
	cache map[pairKey]*proj.PJ
}

type pairKey struct {
	src, dst string
}

// New creates a Reprojector. The registry supplies the geographic flag
// per EPSG code, which decides where degree/radian conversions go in the
// PROJ pipeline.
func New(registry *domain.CRSRegistry, logger *slog.Logger) *Reprojector {
	return &Reprojector{
		registry: registry,
		logger:   logger,
		ctx:      proj.NewContext(),
		cache:    make(map[pairKey]*proj.PJ),
	}
}

// Close releases the PROJ context and every cached transformation.
func (r *Reprojector) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx.Close()
	r.cache = nil
}

// Reproject returns a copy of ds with every point transformed into
// targetEPSG. Attribute columns are untouched; only geometry moves. A
// dataset already in the target system is returned coordinate-identical.
func (r *Reprojector) Reproject(_ context.Context, ds *domain.SpatialDataset, targetEPSG string) (*domain.SpatialDataset, error) {
	if ds.EPSG == targetEPSG {
		return &domain.SpatialDataset{
			Label:      ds.Label,
			EPSG:       ds.EPSG,
			Points:     ds.Points,
			Attributes: ds.Attributes,
		}, nil
	}

	pj, err := r.transformation(ds.EPSG, targetEPSG)
	if err != nil {
		return nil, err
	}

	xs := make([]float64, len(ds.Points))
	ys := make([]float64, len(ds.Points))
	for i, pt := range ds.Points {
		xs[i] = pt.X()
		ys[i] = pt.Y()
	}

	r.mu.Lock()
	tx, ty, _, _, err := pj.TransSlice(proj.Fwd, xs, ys, nil, nil)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("proj transform epsg %s -> %s: %w", ds.EPSG, targetEPSG, err)
	}

	srid, err := sridOf(targetEPSG)
	if err != nil {
		return nil, err
	}
	points := make([]*geom.Point, len(ds.Points))
	for i := range points {
		points[i] = geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{tx[i], ty[i]}).SetSRID(srid)
	}

	return &domain.SpatialDataset{
		Label:      ds.Label,
		EPSG:       targetEPSG,
		Points:     points,
		Attributes: ds.Attributes,
	}, nil
}

// transformation returns the cached PROJ pipeline for the pair, creating
// it on first use.
func (r *Reprojector) transformation(src, dst string) (*proj.PJ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{src: src, dst: dst}
	if pj, ok := r.cache[key]; ok {
		return pj, nil
	}

	def := pipelineDef(src, dst, r.registry.IsGeographic(src), r.registry.IsGeographic(dst))
	pj, err := r.ctx.Create(def)
	if err != nil {
		return nil, fmt.Errorf("proj pipeline epsg %s -> %s: %w", src, dst, err)
	}
	r.logger.Debug("created proj pipeline", "src_epsg", src, "dst_epsg", dst, "definition", def)
	r.cache[key] = pj
	return pj, nil
}

// pipelineDef builds a PROJ pipeline definition for src -> dst. PROJ
// pipeline steps operate on radians for angular systems, so geographic
// endpoints get an explicit degree conversion on their side.
func pipelineDef(src, dst string, srcGeographic, dstGeographic bool) string {
	var b strings.Builder
	b.WriteString("+proj=pipeline")
	if srcGeographic {
		b.WriteString(" +step +proj=unitconvert +xy_in=deg +xy_out=rad")
	}
	fmt.Fprintf(&b, " +step +inv +init=epsg:%s", src)
	fmt.Fprintf(&b, " +step +init=epsg:%s", dst)
	if dstGeographic {
		b.WriteString(" +step +proj=unitconvert +xy_in=rad +xy_out=deg")
	}
	return b.String()
}

func sridOf(epsg string) (int, error) {
	var srid int
	if _, err := fmt.Sscanf(epsg, "%d", &srid); err != nil {
		return 0, fmt.Errorf("bad epsg code %q", epsg)
	}
	return srid, nil
}
