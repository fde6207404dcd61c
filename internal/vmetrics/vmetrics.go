// Package vmetrics exposes Prometheus counters and gauges for store,
// cache, archive and pipeline activity, grounded on the teacher's
// arx-backend/gateway/metrics.go (promauto-registered CounterVec/
// GaugeVec families, one struct holding every metric).
package vmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/gauge this module emits. Callers pass
// their own prometheus.Registerer (a fresh prometheus.NewRegistry() in
// tests and in cmd/vistle-module) so repeated New calls in the same
// process never collide on duplicate registration.
type Metrics struct {
	ArraysAllocated  prometheus.Counter
	ObjectsAllocated prometheus.Counter
	Decrements       prometheus.Counter
	StoreUsedBytes   prometheus.Gauge
	StoreEntryCount  prometheus.Gauge

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	ArchiveBytesWritten prometheus.Counter
	ArchiveBytesRead    prometheus.Counter

	PortObjectsPublished *prometheus.CounterVec
	PortObjectsDropped   *prometheus.CounterVec
}

// New registers and returns a fresh metric set against reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ArraysAllocated: f.NewCounter(prometheus.CounterOpts{
			Name: "vistle_shmem_arrays_allocated_total",
			Help: "Total number of arrays allocated in the shared object store.",
		}),
		ObjectsAllocated: f.NewCounter(prometheus.CounterOpts{
			Name: "vistle_shmem_objects_allocated_total",
			Help: "Total number of objects allocated in the shared object store.",
		}),
		Decrements: f.NewCounter(prometheus.CounterOpts{
			Name: "vistle_shmem_decrements_total",
			Help: "Total number of refcount decrements processed by the store.",
		}),
		StoreUsedBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "vistle_shmem_used_bytes",
			Help: "Current bytes occupied by arrays in the shared object store.",
		}),
		StoreEntryCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "vistle_shmem_entry_count",
			Help: "Current number of live array/object entries in the store.",
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "vistle_resultcache_hits_total",
			Help: "Total number of result-cache lookups that found a cached value.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "vistle_resultcache_misses_total",
			Help: "Total number of result-cache lookups that required computation.",
		}),
		ArchiveBytesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "vistle_archive_bytes_written_total",
			Help: "Total compressed bytes written to archive directory entries.",
		}),
		ArchiveBytesRead: f.NewCounter(prometheus.CounterOpts{
			Name: "vistle_archive_bytes_read_total",
			Help: "Total compressed bytes read from archive directory entries.",
		}),
		PortObjectsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vistle_port_objects_published_total",
			Help: "Total number of objects published to a port.",
		}, []string{"port"}),
		PortObjectsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vistle_port_objects_dropped_total",
			Help: "Total number of objects dropped by a port as stale or superseded.",
		}, []string{"port", "reason"}),
	}
}
