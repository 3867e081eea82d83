package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"payment-service/cart"
	"payment-service/models"
)

var (
	unitBuckets  = []float64{1, 2, 5, 10, 100}
	valueBuckets = []float64{100, 200, 500, 1000, 2000, 5000, 10000}
)

// SalesMetrics accumulates per-sale counters for the lifetime of the process.
// Prometheus collectors are atomic, so Record is safe from concurrent requests.
type SalesMetrics struct {
	sold       prometheus.Counter
	unitsSold  prometheus.Histogram
	cartValues prometheus.Histogram
}

// NewSalesMetrics creates the sales collectors and registers them with reg.
func NewSalesMetrics(reg prometheus.Registerer) (*SalesMetrics, error) {
	m := &SalesMetrics{
		sold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sold_count",
			Help: "Running count of items sold",
		}),
		unitsSold: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "units_sold",
			Help:    "Average Unit Sale",
			Buckets: unitBuckets,
		}),
		cartValues: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cart_value",
			Help:    "Average Value Sale",
			Buckets: valueBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.sold, m.unitsSold, m.cartValues} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Record observes one successful sale. There is no way to undo it.
func (m *SalesMetrics) Record(c models.Cart) {
	count := float64(cart.ItemCount(c))
	// prometheus counters panic on negative deltas
	if count > 0 {
		m.sold.Add(count)
	}
	m.unitsSold.Observe(count)
	m.cartValues.Observe(c.Total.InexactFloat64())
}
