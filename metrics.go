package gqlselect

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// promFragmentCacheHits is a counter of cache lookups served from a live entry
	promFragmentCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fragment_cache_hits_total",
		Help: "A counter of fragment cache lookups served from a live entry",
	})

	// promFragmentCacheMisses is a counter of cache lookups that found no live entry
	promFragmentCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fragment_cache_misses_total",
		Help: "A counter of fragment cache lookups that found no live entry",
	})

	// promFragmentCacheEvictions is a counter of entries removed by eviction or staleness
	promFragmentCacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fragment_cache_evictions_total",
		Help: "A counter of cache entries removed by eviction or staleness",
	})

	promRegistryLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragment_registry_lookups_total",
			Help: "A counter of fragment registry lookups",
		},
		[]string{
			"result",
		},
	)
)

// RegisterMetrics register the prometheus metrics.
func RegisterMetrics() {
	prometheus.MustRegister(promFragmentCacheHits)
	prometheus.MustRegister(promFragmentCacheMisses)
	prometheus.MustRegister(promFragmentCacheEvictions)
	prometheus.MustRegister(promRegistryLookups)
}
