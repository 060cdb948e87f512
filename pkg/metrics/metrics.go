package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapcore_tile_cache_hits_total",
		Help: "Total number of tile cache hits by tier",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapcore_tile_cache_misses_total",
		Help: "Total number of tile lookups that missed both tiers",
	})

	CacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapcore_tile_cache_stores_total",
		Help: "Total number of write-through tile stores",
	})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapcore_tile_cache_evictions_total",
		Help: "Total number of tiles evicted from the memory tier",
	})

	DiskErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapcore_disk_cache_errors_total",
		Help: "Total number of disk tier errors",
	}, []string{"operation"})

	// Fetcher metrics
	FetchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapcore_fetch_requests_total",
		Help: "Total number of upstream tile fetches issued",
	})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapcore_fetch_failures_total",
		Help: "Total number of failed tile fetches by reason",
	}, []string{"reason"})

	FetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapcore_fetch_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	PendingFetches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mapcore_pending_fetches",
		Help: "Number of tracked in-flight tile fetches",
	})

	// Filter metrics
	FilterJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapcore_filter_jobs_total",
		Help: "Total number of filter jobs submitted by filter",
	}, []string{"filter"})

	FilterFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapcore_filter_failures_total",
		Help: "Total number of filter jobs that failed by filter",
	}, []string{"filter"})

	FilterDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapcore_filter_discarded_total",
		Help: "Total number of filter results discarded after a filter switch",
	})

	FilterDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapcore_filter_duration_seconds",
		Help:    "Duration of filter transforms in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// Spatial index metrics
	SpatialFilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapcore_spatial_files_scanned_total",
		Help: "Total number of files whose points were scanned by a bounds query",
	})

	SpatialFilesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapcore_spatial_files_rejected_total",
		Help: "Total number of files rejected by the bounding box test",
	})

	LoadedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mapcore_loaded_files",
		Help: "Number of track files held by the spatial index",
	})
)
