// Package metrics exports provider activity as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ghettovoice/sipstack/sip"
)

const (
	DefaultNamespace = "sip"
	DefaultSubsystem = "provider"
)

// Options are options of a [Recorder].
type Options struct {
	// Namespace of the metrics. Defaults to [DefaultNamespace].
	Namespace string
	// Subsystem of the metrics. Defaults to [DefaultSubsystem].
	Subsystem string
	// Registerer registers the metrics. Defaults to [prometheus.DefaultRegisterer].
	Registerer prometheus.Registerer
}

func (o *Options) namespace() string {
	if o == nil || o.Namespace == "" {
		return DefaultNamespace
	}
	return o.Namespace
}

func (o *Options) subsystem() string {
	if o == nil || o.Subsystem == "" {
		return DefaultSubsystem
	}
	return o.Subsystem
}

func (o *Options) registerer() prometheus.Registerer {
	if o == nil || o.Registerer == nil {
		return prometheus.DefaultRegisterer
	}
	return o.Registerer
}

// Recorder is a [sip.MetricsRecorder] backed by Prometheus collectors.
type Recorder struct {
	requests  *prometheus.CounterVec
	responses *prometheus.CounterVec
	events    *prometheus.CounterVec
	listeners prometheus.Histogram
	failures  *prometheus.CounterVec
}

var _ sip.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them.
// It panics if the collectors are already registered, as [promauto] does.
func NewRecorder(opts *Options) *Recorder {
	ns, sub := opts.namespace(), opts.subsystem()
	factory := promauto.With(opts.registerer())
	return &Recorder{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "requests_sent_total",
			Help:      "Total number of SIP requests handed to the transaction stack.",
		}, []string{"method"}),
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "responses_sent_total",
			Help:      "Total number of SIP responses sent.",
		}, []string{"status"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "events_dispatched_total",
			Help:      "Total number of events dispatched to listeners.",
		}, []string{"kind"}),
		listeners: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "event_listeners",
			Help:      "Number of listeners an event was dispatched to.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "send_failures_total",
			Help:      "Total number of failed send operations.",
		}, []string{"op"}),
	}
}

func (r *Recorder) RequestSent(method sip.RequestMethod) {
	r.requests.WithLabelValues(string(method.ToUpper())).Inc()
}

func (r *Recorder) ResponseSent(status sip.ResponseStatus) {
	r.responses.WithLabelValues(strconv.Itoa(int(status))).Inc()
}

func (r *Recorder) EventDispatched(kind sip.EventKind, listeners int) {
	r.events.WithLabelValues(string(kind)).Inc()
	r.listeners.Observe(float64(listeners))
}

func (r *Recorder) SendFailed(op string) {
	r.failures.WithLabelValues(op).Inc()
}
