package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	labelOutcome   = "outcome"
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type Metrics struct {
	FetchAttempts *prometheus.CounterVec
	FetchRetries  prometheus.Counter
	Products      prometheus.Gauge
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_attempts_total",
				Help: "Catalog fetch attempts by outcome",
			},
			[]string{labelOutcome},
		),
		FetchRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_fetch_retries_total",
				Help: "Catalog fetches that needed the retry attempt",
			},
		),
		Products: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_snapshot_products",
				Help: "Products in the current catalog snapshot",
			},
		),
	}

	reg.MustRegister(m.FetchAttempts, m.FetchRetries, m.Products)
	return m
}

func (m *Metrics) attempt(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.FetchAttempts.WithLabelValues(outcomeSuccess).Inc()
		return
	}
	m.FetchAttempts.WithLabelValues(outcomeFailure).Inc()
}

func (m *Metrics) retry() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

func (m *Metrics) snapshotSize(n int) {
	if m == nil {
		return
	}
	m.Products.Set(float64(n))
}
