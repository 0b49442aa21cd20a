package domain

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
)

// SpatialDataset is a spatial group with geometric semantics attached: one
// XY point per attribute row, every point tagged with the dataset's EPSG
// code as its SRID. Label is the source CoordinateSystem label, or "" for
// a merged dataset.
type SpatialDataset struct {
	Label      string
	EPSG       string
	Points     []*geom.Point
	Attributes *Table
}

// Geometrize attaches point geometry to a spatial group: the point for
// each row sits at (Longitude, Latitude) in the group's declared system.
// Pure reinterpretation of existing columns; no coordinate math happens
// here, so coordinates round-trip exactly.
func Geometrize(g SpatialGroup) (*SpatialDataset, error) {
	srid, err := strconv.Atoi(g.EPSG)
	if err != nil {
		return nil, fmt.Errorf("geometrize %q: bad epsg code %q", g.Label, g.EPSG)
	}

	points := make([]*geom.Point, g.Table.NumRows())
	for row := 0; row < g.Table.NumRows(); row++ {
		x, err := strconv.ParseFloat(g.Table.Value(row, ColLongitude), 64)
		if err != nil {
			return nil, fmt.Errorf("geometrize %q row %d: longitude: %w", g.Label, row, err)
		}
		y, err := strconv.ParseFloat(g.Table.Value(row, ColLatitude), 64)
		if err != nil {
			return nil, fmt.Errorf("geometrize %q row %d: latitude: %w", g.Label, row, err)
		}
		points[row] = geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{x, y}).SetSRID(srid)
	}

	return &SpatialDataset{
		Label:      g.Label,
		EPSG:       g.EPSG,
		Points:     points,
		Attributes: g.Table,
	}, nil
}

// MergeDatasets concatenates datasets that already share the target EPSG
// code into one combined dataset. Point order is preserved dataset by
// dataset in the given order.
func MergeDatasets(targetEPSG string, datasets []*SpatialDataset) (*SpatialDataset, error) {
	if len(datasets) == 0 {
		return nil, fmt.Errorf("merge: no datasets")
	}

	var points []*geom.Point
	attrs := datasets[0].Attributes
	for i, ds := range datasets {
		if ds.EPSG != targetEPSG {
			return nil, fmt.Errorf("merge: dataset %q is in epsg %s, want %s", ds.Label, ds.EPSG, targetEPSG)
		}
		points = append(points, ds.Points...)
		if i == 0 {
			continue
		}
		var err error
		attrs, err = attrs.Concat(ds.Attributes)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
	}

	return &SpatialDataset{EPSG: targetEPSG, Points: points, Attributes: attrs}, nil
}
