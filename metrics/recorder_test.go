package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ghettovoice/sipstack/metrics"
	"github.com/ghettovoice/sipstack/sip"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(&metrics.Options{Registerer: reg})

	rec.RequestSent("invite")
	rec.RequestSent(sip.RequestMethodInvite)
	rec.RequestSent(sip.RequestMethodBye)
	rec.ResponseSent(sip.ResponseStatusRinging)
	rec.EventDispatched(sip.EventKindRequest, 2)
	rec.EventDispatched(sip.EventKindTimeout, 0)
	rec.SendFailed("ack")

	const want = `
# HELP sip_provider_requests_sent_total Total number of SIP requests handed to the transaction stack.
# TYPE sip_provider_requests_sent_total counter
sip_provider_requests_sent_total{method="BYE"} 1
sip_provider_requests_sent_total{method="INVITE"} 2
# HELP sip_provider_responses_sent_total Total number of SIP responses sent.
# TYPE sip_provider_responses_sent_total counter
sip_provider_responses_sent_total{status="180"} 1
# HELP sip_provider_events_dispatched_total Total number of events dispatched to listeners.
# TYPE sip_provider_events_dispatched_total counter
sip_provider_events_dispatched_total{kind="request"} 1
sip_provider_events_dispatched_total{kind="timeout"} 1
# HELP sip_provider_send_failures_total Total number of failed send operations.
# TYPE sip_provider_send_failures_total counter
sip_provider_send_failures_total{op="ack"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(want),
		"sip_provider_requests_sent_total",
		"sip_provider_responses_sent_total",
		"sip_provider_events_dispatched_total",
		"sip_provider_send_failures_total",
	)
	if err != nil {
		t.Errorf("testutil.GatherAndCompare() error = %v, want nil", err)
	}

	if got, want := testutil.CollectAndCount(reg, "sip_provider_event_listeners"), 1; got != want {
		t.Errorf("testutil.CollectAndCount(event_listeners) = %d, want %d", got, want)
	}
}

func TestRecorder_Namespace(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(&metrics.Options{Namespace: "pbx", Subsystem: "edge", Registerer: reg})
	rec.SendFailed("response")

	if got, want := testutil.CollectAndCount(reg, "pbx_edge_send_failures_total"), 1; got != want {
		t.Errorf("testutil.CollectAndCount() = %d, want %d", got, want)
	}
}
