package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Parse outcomes used as the "result" label.
const (
	ResultOK          = "ok"
	ResultFetch       = "fetch_error"
	ResultDecode      = "decode_error"
	ResultConsistency = "consistency_error"
	ResultInvalid     = "invalid_request"
	ResultOther       = "error"
)

// Metrics holds the Prometheus instruments of the ingest pipeline.
type Metrics struct {
	DocumentsParsed  *prometheus.CounterVec // labels: provider, result
	CandlesPersisted prometheus.Counter
	PersistFailures  prometheus.Counter
	PersistDuration  prometheus.Histogram
	LastRun          prometheus.Gauge
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "candlekeeper_documents_parsed_total",
			Help: "Chart documents fetched and parsed, by provider and outcome",
		}, []string{"provider", "result"}),
		CandlesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "candlekeeper_candles_persisted_total",
			Help: "Candlesticks written in committed batches",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "candlekeeper_persist_failures_total",
			Help: "Batches rejected or rolled back",
		}),
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "candlekeeper_persist_duration_seconds",
			Help:    "Batch persist latency including commit or rollback",
			Buckets: prometheus.DefBuckets,
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "candlekeeper_last_run_timestamp_seconds",
			Help: "Unix time at which the last ingest run finished",
		}),
	}

	reg.MustRegister(
		m.DocumentsParsed,
		m.CandlesPersisted,
		m.PersistFailures,
		m.PersistDuration,
		m.LastRun,
	)
	return m
}

// ObserveParse counts one collected document.
func (m *Metrics) ObserveParse(provider, result string) {
	m.DocumentsParsed.WithLabelValues(provider, result).Inc()
}

// ObservePersist records one AddRows call of n candlesticks.
func (m *Metrics) ObservePersist(n int, d time.Duration, err error) {
	m.PersistDuration.Observe(d.Seconds())
	if err != nil {
		m.PersistFailures.Inc()
		return
	}
	m.CandlesPersisted.Add(float64(n))
}

// MarkRun records the end of an ingest run.
func (m *Metrics) MarkRun(t time.Time) {
	m.LastRun.Set(float64(t.Unix()))
}
