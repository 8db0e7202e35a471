package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Availability metrics
	WindowsPublished   prometheus.Counter
	WindowsDeactivated prometheus.Counter
	WindowsReactivated prometheus.Counter
	PublishFailures    *prometheus.CounterVec

	// Booking metrics
	BookingChecks     *prometheus.CounterVec
	BookingsCommitted prometheus.Counter
	SlotListings      prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// New creates the application metrics. Collectors are not registered here so
// tests can build them freely; call Register once at startup.
func New(namespace string) *Metrics {
	return &Metrics{
		WindowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_published_total",
			Help:      "Total number of availability windows published",
		}),
		WindowsDeactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_deactivated_total",
			Help:      "Total number of availability windows soft-deleted",
		}),
		WindowsReactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_reactivated_total",
			Help:      "Total number of availability windows reactivated",
		}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Total number of rejected window publications",
		}, []string{"reason"}),
		BookingChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_checks_total",
			Help:      "Total number of bookability checks",
		}, []string{"result"}),
		BookingsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_committed_total",
			Help:      "Total number of appointments booked",
		}),
		SlotListings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_listings_total",
			Help:      "Total number of bookable slot listings served",
		}),
		DatabaseOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}

// Register attaches every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.WindowsPublished,
		m.WindowsDeactivated,
		m.WindowsReactivated,
		m.PublishFailures,
		m.BookingChecks,
		m.BookingsCommitted,
		m.SlotListings,
		m.DatabaseOperations,
		m.DatabaseLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
