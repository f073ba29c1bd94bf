package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the daemon's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	dueToday       prometheus.Gauge
	overdue        prometheus.Gauge
	lowStock       *prometheus.GaugeVec
	monthsOfSupply *prometheus.GaugeVec
	polls          prometheus.Counter
	pollErrors     prometheus.Counter
	events         *prometheus.CounterVec
}

// NewMetrics creates and registers the daemon collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dueToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nexus_doses_due_today",
			Help: "Uncompleted scheduled doses dated today",
		}),
		overdue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nexus_doses_overdue",
			Help: "Doses due today whose time has passed",
		}),
		lowStock: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nexus_low_stock_products",
				Help: "Products below a low-stock threshold",
			},
			[]string{"threshold"},
		),
		monthsOfSupply: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nexus_months_of_supply",
				Help: "Projected months of supply per product",
			},
			[]string{"product"},
		),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexus_daemon_polls_total",
			Help: "Completed store polls",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexus_daemon_poll_errors_total",
			Help: "Store polls that failed",
		}),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_daemon_events_total",
				Help: "Published events by type",
			},
			[]string{"type"},
		),
	}

	m.registry.MustRegister(
		m.dueToday,
		m.overdue,
		m.lowStock,
		m.monthsOfSupply,
		m.polls,
		m.pollErrors,
		m.events,
	)
	return m
}

func (m *Metrics) observe(snap Snapshot, stock []StockRef) {
	m.dueToday.Set(float64(snap.DueToday))
	m.overdue.Set(float64(snap.Overdue))
	m.lowStock.WithLabelValues("dashboard").Set(float64(snap.LowStock))
	m.lowStock.WithLabelValues("inventory").Set(float64(snap.InventoryWarnings))

	// Deleted products must not linger as stale series.
	m.monthsOfSupply.Reset()
	for _, item := range stock {
		if item.MonthlyConsumption > 0 {
			m.monthsOfSupply.WithLabelValues(item.ProductName).Set(item.MonthsOfSupply)
		}
	}
}
