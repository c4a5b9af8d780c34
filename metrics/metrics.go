package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crousx_listing_fetch_failures_total",
		Help: "Listing collection loads that ended with an empty store",
	})

	ListingsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crousx_listings_dropped_total",
		Help: "Listing records dropped by validation",
	})

	ListingsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crousx_listings_loaded",
		Help: "Listings held by the most recent load",
	})

	Renders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crousx_renders_total",
			Help: "View recomputations by triggering event",
		},
		[]string{"trigger"},
	)

	RenderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crousx_render_failures_total",
		Help: "Render passes aborted and rolled back to the previous view",
	})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crousx_render_duration_seconds",
		Help:    "Time spent recomputing one view",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	MapInitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crousx_map_init_failures_total",
		Help: "Sessions whose map pane was disabled",
	})

	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crousx_listing_cache_total",
			Help: "Listing cache lookups by result",
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crousx_active_sessions",
		Help: "Page sessions holding a controller",
	})
)
