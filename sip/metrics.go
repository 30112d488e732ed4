package sip

// MetricsRecorder observes provider activity.
// Implementations must be safe for concurrent use and must not block.
type MetricsRecorder interface {
	RequestSent(method RequestMethod)
	ResponseSent(status ResponseStatus)
	EventDispatched(kind EventKind, listeners int)
	SendFailed(op string)
}

type noopMetrics struct{}

func (noopMetrics) RequestSent(RequestMethod) {}

func (noopMetrics) ResponseSent(ResponseStatus) {}

func (noopMetrics) EventDispatched(EventKind, int) {}

func (noopMetrics) SendFailed(string) {}
