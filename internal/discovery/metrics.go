package discovery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "lanprobe"

// Metrics counts discovery traffic. All methods are safe on a nil receiver
// so sessions without metrics need no special casing.
type Metrics struct {
	ProbesSent      prometheus.Counter
	Datagrams       prometheus.Counter
	DatagramBytes   prometheus.Counter
	Records         prometheus.Counter
	ParseFailures   *prometheus.CounterVec
	ReadErrors      prometheus.Counter
	SessionDuration prometheus.Gauge
}

// NewMetrics creates the discovery metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProbesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "probes_sent_total",
			Help:      "Number of discovery probes broadcast.",
		}),
		Datagrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "datagrams_received_total",
			Help:      "Number of reply datagrams received.",
		}),
		DatagramBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "datagram_bytes_total",
			Help:      "Bytes received in reply datagrams, after truncation to the buffer size.",
		}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "records_total",
			Help:      "Number of well-formed device records decoded.",
		}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "parse_failures_total",
			Help:      "Number of reply datagrams dropped as malformed.",
		}, []string{"reason"}),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "read_errors_total",
			Help:      "Number of receive errors other than timeouts.",
		}),
		SessionDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of the last discovery session.",
		}),
	}

	reg.MustRegister(
		m.ProbesSent,
		m.Datagrams,
		m.DatagramBytes,
		m.Records,
		m.ParseFailures,
		m.ReadErrors,
		m.SessionDuration,
	)

	return m
}

func (m *Metrics) probeSent() {
	if m == nil {
		return
	}
	m.ProbesSent.Inc()
}

func (m *Metrics) datagram(n int) {
	if m == nil {
		return
	}
	m.Datagrams.Inc()
	m.DatagramBytes.Add(float64(n))
}

func (m *Metrics) record() {
	if m == nil {
		return
	}
	m.Records.Inc()
}

func (m *Metrics) parseFailure(reason ParseFailure) {
	if m == nil {
		return
	}
	m.ParseFailures.WithLabelValues(reason.String()).Inc()
}

func (m *Metrics) readError() {
	if m == nil {
		return
	}
	m.ReadErrors.Inc()
}

func (m *Metrics) sessionDone(d time.Duration) {
	if m == nil {
		return
	}
	m.SessionDuration.Set(d.Seconds())
}
