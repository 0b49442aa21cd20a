package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for one ETL run.
type Metrics struct {
	RowsLoaded            prometheus.Counter
	RowsJoined            prometheus.Counter
	RowsDroppedJoin       prometheus.Counter
	RowsDroppedIncomplete prometheus.Counter
	RowsDroppedUnmatched  prometheus.Counter

	GroupsFormed    prometheus.Counter
	DatasetsWritten prometheus.Counter

	UnmatchedLabels *prometheus.CounterVec // label: crs_label

	ReprojectDuration prometheus.Histogram
	ConvertDuration   prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "rows_loaded_total",
			Help:      "Hydrochemistry rows read from the source table.",
		}),
		RowsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "rows_joined_total",
			Help:      "Rows surviving the station inner join.",
		}),
		RowsDroppedJoin: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "rows_dropped_join_total",
			Help:      "Rows dropped on either side of the station join.",
		}),
		RowsDroppedIncomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "rows_dropped_incomplete_total",
			Help:      "Rows dropped for blank or unparseable coordinates.",
		}),
		RowsDroppedUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "rows_dropped_unmatched_crs_total",
			Help:      "Rows dropped because their CRS label is not in the registry.",
		}),
		GroupsFormed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "groups_formed_total",
			Help:      "Non-empty per-CRS groups formed.",
		}),
		DatasetsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "datasets_written_total",
			Help:      "Shapefiles written.",
		}),
		UnmatchedLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glorich_etl",
			Name:      "unmatched_crs_labels_total",
			Help:      "Rows per CoordinateSystem label missing from the registry.",
		}, []string{"crs_label"}),
		ReprojectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glorich_etl",
			Name:      "reproject_duration_seconds",
			Help:      "Duration of one per-group reprojection.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ConvertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glorich_etl",
			Name:      "convert_duration_seconds",
			Help:      "Duration of a complete filter-group-geometrize-merge-export pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsJoined,
		m.RowsDroppedJoin,
		m.RowsDroppedIncomplete,
		m.RowsDroppedUnmatched,
		m.GroupsFormed,
		m.DatasetsWritten,
		m.UnmatchedLabels,
		m.ReprojectDuration,
		m.ConvertDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsLoaded:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "rows_loaded_total"}),
		RowsJoined:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "rows_joined_total"}),
		RowsDroppedJoin:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "rows_dropped_join_total"}),
		RowsDroppedIncomplete: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "rows_dropped_incomplete_total"}),
		RowsDroppedUnmatched:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "rows_dropped_unmatched_crs_total"}),
		GroupsFormed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "groups_formed_total"}),
		DatasetsWritten:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "datasets_written_total"}),
		UnmatchedLabels:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "glorich_etl", Name: "unmatched_crs_labels_total"}, []string{"crs_label"}),
		ReprojectDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "glorich_etl", Name: "reproject_duration_seconds"}),
		ConvertDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "glorich_etl", Name: "convert_duration_seconds"}),
	}
}
