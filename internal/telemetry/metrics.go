package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CartMetrics holds Prometheus metrics for cart-level observability.
type CartMetrics struct {
	// Mutations
	ItemsAdded   *prometheus.CounterVec // accepted add-to-cart actions
	AddsRejected *prometheus.CounterVec // rejected mutations by reason
	ItemsRemoved prometheus.Counter
	CartCleared  prometheus.Counter

	// Synchronization
	Fetches        prometheus.Counter
	FetchFailures  prometheus.Counter
	StaleDiscarded prometheus.Counter // fetch results dropped by a newer request

	// Value
	CartValue prometheus.Histogram
}

// NewCartMetrics creates and registers all cart metrics on reg.
func NewCartMetrics(reg prometheus.Registerer, namespace string) *CartMetrics {
	if namespace == "" {
		namespace = "storefront"
	}

	subsystem := "cart"

	return &CartMetrics{
		ItemsAdded: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "items_added_total",
				Help:      "Total accepted add to cart actions",
			},
			[]string{"product_id"},
		),
		AddsRejected: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "mutations_rejected_total",
				Help:      "Total cart mutations rejected by validation",
			},
			[]string{"reason"}, // reason: stock, minimum_order, not_fetched, not_found
		),
		ItemsRemoved: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "items_removed_total",
				Help:      "Total cart line removals",
			},
		),
		CartCleared: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cleared_total",
				Help:      "Total cart clears",
			},
		),
		Fetches: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fetches_total",
				Help:      "Total cart synchronizations against the catalog",
			},
		),
		FetchFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fetch_failures_total",
				Help:      "Total failed cart synchronizations",
			},
		),
		StaleDiscarded: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stale_fetches_discarded_total",
				Help:      "Fetch results discarded because a newer fetch superseded them",
			},
		),
		CartValue: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "subtotal",
				Help:      "Cart subtotal observed after each synchronization",
				Buckets:   prometheus.ExponentialBuckets(10000, 4, 10),
			},
		),
	}
}
