package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	SearchLatency   *prometheus.HistogramVec
	SearchResults   *prometheus.HistogramVec
	DecodeWarnings  *prometheus.CounterVec
	Published       *prometheus.CounterVec
	CheckOutcomes   *prometheus.CounterVec
	Verdicts        *prometheus.CounterVec
	VerifyLatency   prometheus.Histogram
	DelegateFailure *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recordhub_search_duration_seconds",
			Help:    "Duration of search store round trips by entity",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"entity"}),

		SearchResults: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recordhub_search_results",
			Help:    "Number of root records returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}, []string{"entity"}),

		DecodeWarnings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordhub_payload_decode_warnings_total",
			Help: "Stored JSON payloads that could not be decoded during assembly",
		}, []string{"entity", "column"}),

		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordhub_bus_published_total",
			Help: "Messages handed to the persister bus by topic and result",
		}, []string{"topic", "result"}),

		CheckOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordhub_verification_checks_total",
			Help: "Certificate verification check outcomes",
		}, []string{"check", "result"}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordhub_verification_verdicts_total",
			Help: "Overall certificate verification verdicts",
		}, []string{"valid"}),

		VerifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recordhub_verification_duration_seconds",
			Help:    "Duration of the verification engine including delegate calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		DelegateFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordhub_verification_delegate_failures_total",
			Help: "Signature verifier or trust registry calls that could not complete",
		}, []string{"delegate"}),
	}
}

func (m *Metrics) ObserveSearch(entity string, d time.Duration, results int) {
	if m != nil {
		m.SearchLatency.WithLabelValues(entity).Observe(d.Seconds())
		m.SearchResults.WithLabelValues(entity).Observe(float64(results))
	}
}

func (m *Metrics) IncrementDecodeWarning(entity, column string) {
	if m != nil {
		m.DecodeWarnings.WithLabelValues(entity, column).Inc()
	}
}

func (m *Metrics) IncrementPublished(topic string, err error) {
	if m != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.Published.WithLabelValues(topic, result).Inc()
	}
}

func (m *Metrics) IncrementCheck(check string, passed bool) {
	if m != nil {
		result := "fail"
		if passed {
			result = "pass"
		}
		m.CheckOutcomes.WithLabelValues(check, result).Inc()
	}
}

func (m *Metrics) ObserveVerdict(valid bool, d time.Duration) {
	if m != nil {
		label := "false"
		if valid {
			label = "true"
		}
		m.Verdicts.WithLabelValues(label).Inc()
		m.VerifyLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementDelegateFailure(delegate string) {
	if m != nil {
		m.DelegateFailure.WithLabelValues(delegate).Inc()
	}
}
