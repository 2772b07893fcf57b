// Package metric provides Prometheus metrics for docmirror.
//
// It exposes metrics in Prometheus format for monitoring dump and
// restore runs: document mutation counts, run durations, and snapshot
// sizes.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics backed by a dedicated
// Prometheus registry, so tests and embedders never collide on the
// global default registry.
type Registry struct {
	reg *prometheus.Registry

	// Reconciliation metrics, labelled per collection.
	DocumentsInserted *prometheus.CounterVec
	DocumentsUpdated  *prometheus.CounterVec
	DocumentsDeleted  *prometheus.CounterVec

	// CollectionsUpToDate counts collections whose diff was empty.
	CollectionsUpToDate prometheus.Counter

	// Run metrics.
	DumpDuration    prometheus.Histogram
	RestoreDuration prometheus.Histogram
	RunsFailed      *prometheus.CounterVec

	// Snapshot metrics.
	SnapshotSizeBytes prometheus.Gauge
	SnapshotsWritten  prometheus.Counter
	SnapshotDocuments *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all application
// metrics registered, plus the standard Go runtime and process
// collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		DocumentsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docmirror",
			Name:      "documents_inserted_total",
			Help:      "Documents inserted into live collections during restore.",
		}, []string{"collection"}),
		DocumentsUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docmirror",
			Name:      "documents_updated_total",
			Help:      "Documents whose fields were replaced during restore.",
		}, []string{"collection"}),
		DocumentsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docmirror",
			Name:      "documents_deleted_total",
			Help:      "Documents deleted from live collections during restore.",
		}, []string{"collection"}),
		CollectionsUpToDate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docmirror",
			Name:      "collections_up_to_date_total",
			Help:      "Collections found identical to the snapshot during restore.",
		}),
		DumpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docmirror",
			Name:      "dump_duration_seconds",
			Help:      "Wall-clock duration of snapshot dump runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		RestoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docmirror",
			Name:      "restore_duration_seconds",
			Help:      "Wall-clock duration of restore runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		RunsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docmirror",
			Name:      "runs_failed_total",
			Help:      "Dump or restore runs that aborted with an error.",
		}, []string{"operation"}),
		SnapshotSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docmirror",
			Name:      "snapshot_size_bytes",
			Help:      "Total size of the most recently written snapshot.",
		}),
		SnapshotsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docmirror",
			Name:      "snapshots_written_total",
			Help:      "Snapshot directories written since process start.",
		}),
		SnapshotDocuments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "docmirror",
			Name:      "snapshot_documents",
			Help:      "Documents per collection in the most recent snapshot.",
		}, []string{"collection"}),
	}

	reg.MustRegister(
		r.DocumentsInserted,
		r.DocumentsUpdated,
		r.DocumentsDeleted,
		r.CollectionsUpToDate,
		r.DumpDuration,
		r.RestoreDuration,
		r.RunsFailed,
		r.SnapshotSizeBytes,
		r.SnapshotsWritten,
		r.SnapshotDocuments,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Prometheus returns the underlying registry for registering extra
// collectors, such as the storage engine's size gauges.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// Handler returns an HTTP handler serving the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
