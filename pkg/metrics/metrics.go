package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects operational counters for the watcher and the reply path.
type Recorder interface {
	RecordCycle()
	RecordFetchError(symbol string)
	RecordAlert(symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordReply(kind string)
}

type prometheusRecorder struct {
	cycles      prometheus.Counter
	fetchErrors *prometheus.CounterVec
	alerts      *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	replies     *prometheus.CounterVec
}

// New creates a Prometheus-backed recorder.
func New() Recorder {
	return &prometheusRecorder{
		cycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "belexwatch_cycles_total",
			Help: "Total number of completed poll cycles",
		}),
		fetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "belexwatch_fetch_errors_total",
			Help: "Total number of symbols whose fetch exhausted all retries",
		}, []string{"symbol"}),
		alerts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "belexwatch_alerts_total",
			Help: "Total number of alert dispatch attempts",
		}, []string{"symbol"}),
		lastPrice: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "belexwatch_last_price",
			Help: "Last observed price for a symbol",
		}, []string{"symbol"}),
		replies: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "belexwatch_replies_total",
			Help: "Total number of auto-reply outcomes by kind",
		}, []string{"kind"}),
	}
}

func (r *prometheusRecorder) RecordCycle() { r.cycles.Inc() }

func (r *prometheusRecorder) RecordFetchError(symbol string) {
	r.fetchErrors.WithLabelValues(symbol).Inc()
}

func (r *prometheusRecorder) RecordAlert(symbol string) {
	r.alerts.WithLabelValues(symbol).Inc()
}

func (r *prometheusRecorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *prometheusRecorder) RecordReply(kind string) {
	r.replies.WithLabelValues(kind).Inc()
}

type nopRecorder struct{}

// NewNop returns a recorder that discards everything. Used in tests.
func NewNop() Recorder { return nopRecorder{} }

func (nopRecorder) RecordCycle()                      {}
func (nopRecorder) RecordFetchError(string)           {}
func (nopRecorder) RecordAlert(string)                {}
func (nopRecorder) RecordLastPrice(string, float64)   {}
func (nopRecorder) RecordReply(string)                {}
