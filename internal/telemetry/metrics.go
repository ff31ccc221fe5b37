// Package telemetry holds Prometheus metrics for business-level observability
// of the checkout pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics counts the checkout funnel and its external dependencies.
type CheckoutMetrics struct {
	// Checkout funnel
	PreviewsTotal   *prometheus.CounterVec
	OrdersCreated   prometheus.Counter
	OrdersConfirmed *prometheus.CounterVec
	OrdersCancelled prometheus.Counter
	OrderValue      prometheus.Histogram
	OrderItemCount  prometheus.Histogram

	// Promotions
	PromotionsApplied  prometheus.Counter
	PromotionsRejected *prometheus.CounterVec

	// Shipping
	FeeQuotes          *prometheus.CounterVec
	ShipmentsCreated   *prometheus.CounterVec
	ShipmentSyncRuns   prometheus.Counter
	ShipmentsRefreshed prometheus.Counter

	// Region resolution
	RegionLookups  *prometheus.CounterVec
	RegionSyncRows prometheus.Gauge

	// Carrier API
	CarrierRequests *prometheus.CounterVec
	CarrierLatency  *prometheus.HistogramVec
}

// NewCheckoutMetrics creates checkout metrics registered on the default
// Prometheus registry.
func NewCheckoutMetrics(namespace string) *CheckoutMetrics {
	return newCheckoutMetrics(prometheus.DefaultRegisterer, namespace)
}

func newCheckoutMetrics(reg prometheus.Registerer, namespace string) *CheckoutMetrics {
	if namespace == "" {
		namespace = "cuestore"
	}
	subsystem := "checkout"
	factory := promauto.With(reg)

	return &CheckoutMetrics{
		PreviewsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "previews_total",
				Help:      "Total order previews by outcome",
			},
			[]string{"outcome"}, // outcome: ok, invalid, unmapped_location, error
		),
		OrdersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
		),
		OrdersConfirmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_confirmed_total",
				Help:      "Total orders confirmed by payment method",
			},
			[]string{"payment_method"},
		),
		OrdersCancelled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_cancelled_total",
				Help:      "Total orders cancelled",
			},
		),
		OrderValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_vnd",
				Help:      "Order value distribution in VND",
				Buckets:   []float64{100000, 250000, 500000, 1000000, 2500000, 5000000, 10000000, 25000000},
			},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of items per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),

		PromotionsApplied: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "promotions_applied_total",
				Help:      "Total promotion codes applied to orders",
			},
		),
		PromotionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "promotions_rejected_total",
				Help:      "Total promotion codes rejected",
			},
			[]string{"reason"}, // reason: not_found, inactive, not_started, expired, exhausted, below_minimum, not_applicable
		),

		FeeQuotes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fee_quotes_total",
				Help:      "Total shipping fee quotes by outcome",
			},
			[]string{"outcome"}, // outcome: ok, carrier_failed, unmapped_location, error
		),
		ShipmentsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shipments_created_total",
				Help:      "Total shipments created by outcome",
			},
			[]string{"outcome"}, // outcome: ok, pending_location, pending_carrier
		),
		ShipmentSyncRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shipment_sync_runs_total",
				Help:      "Total shipment status sync runs",
			},
		),
		ShipmentsRefreshed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shipments_refreshed_total",
				Help:      "Total shipments refreshed from the carrier",
			},
		),

		RegionLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "region_lookups_total",
				Help:      "Total region resolutions by matching strategy",
			},
			[]string{"strategy"}, // strategy: exact, ignoring_city, empty_city, raw, partial, unmapped
		),
		RegionSyncRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "region_mappings_loaded",
				Help:      "Number of carrier region mappings currently loaded",
			},
		),

		CarrierRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carrier_requests_total",
				Help:      "Total carrier API requests",
			},
			[]string{"operation", "outcome"}, // operation: fee, create, cancel, detail, master_data; outcome: ok, error
		),
		CarrierLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carrier_request_duration_seconds",
				Help:      "Carrier API call duration",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
	}
}

// Checkout is the process-wide metrics instance recorded by packages that sit
// below dependency injection (carrier client, region mapper, fee calculator).
// The default registers on a throwaway registry so nothing is exported until
// InitCheckoutMetrics runs; recording against it is always safe, tests
// included.
var Checkout = newCheckoutMetrics(prometheus.NewRegistry(), "cuestore")

// InitCheckoutMetrics replaces the global instance with one registered on the
// default Prometheus registry and returns it.
func InitCheckoutMetrics(namespace string) *CheckoutMetrics {
	Checkout = NewCheckoutMetrics(namespace)
	return Checkout
}
