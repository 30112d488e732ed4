package sip

import (
	"context"
	"log/slog"
)

// EventKind identifies the kind of an inbound [Event].
type EventKind string

const (
	EventKindRequest  EventKind = "request"
	EventKindResponse EventKind = "response"
	EventKindTimeout  EventKind = "timeout"
)

// Event is an inbound event dispatched by a [Provider] to its listeners.
// It is one of [*RequestEvent], [*ResponseEvent] or [*TimeoutEvent].
type Event interface {
	Kind() EventKind
	isEvent()
}

// RequestEvent is dispatched when a request is received within a server transaction.
type RequestEvent struct {
	Source        *Provider
	TransactionID TransactionID
	Request       *Request
}

func (*RequestEvent) Kind() EventKind { return EventKindRequest }

func (*RequestEvent) isEvent() {}

func (e *RequestEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transaction_id", string(e.TransactionID)),
		slog.Any("request", e.Request),
	)
}

// ResponseEvent is dispatched when a response is received within a client transaction.
type ResponseEvent struct {
	Source        *Provider
	TransactionID TransactionID
	Response      *Response
}

func (*ResponseEvent) Kind() EventKind { return EventKindResponse }

func (*ResponseEvent) isEvent() {}

func (e *ResponseEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transaction_id", string(e.TransactionID)),
		slog.Any("response", e.Response),
	)
}

// TimeoutKind is the kind of a transaction timer that fired.
type TimeoutKind string

const (
	TimeoutTransaction    TimeoutKind = "transaction"
	TimeoutRetransmission TimeoutKind = "retransmission"
)

// TimeoutEvent is dispatched when a transaction timer fires.
type TimeoutEvent struct {
	Source        *Provider
	TransactionID TransactionID
	Timeout       TimeoutKind
	IsServer      bool
}

func (*TimeoutEvent) Kind() EventKind { return EventKindTimeout }

func (*TimeoutEvent) isEvent() {}

func (e *TimeoutEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transaction_id", string(e.TransactionID)),
		slog.String("timeout", string(e.Timeout)),
		slog.Bool("server", e.IsServer),
	)
}

// Listener receives events of a [Provider].
// Methods are called synchronously on the goroutine that delivered the event,
// a blocking listener delays the listeners registered after it.
type Listener interface {
	OnRequest(ctx context.Context, ev *RequestEvent)
	OnResponse(ctx context.Context, ev *ResponseEvent)
	OnTimeout(ctx context.Context, ev *TimeoutEvent)
}

// ListenerFuncs adapts functions to the [Listener] interface, nil functions are skipped.
// Register it by pointer, listeners are compared by identity.
type ListenerFuncs struct {
	Request  func(ctx context.Context, ev *RequestEvent)
	Response func(ctx context.Context, ev *ResponseEvent)
	Timeout  func(ctx context.Context, ev *TimeoutEvent)
}

func (l *ListenerFuncs) OnRequest(ctx context.Context, ev *RequestEvent) {
	if l.Request != nil {
		l.Request(ctx, ev)
	}
}

func (l *ListenerFuncs) OnResponse(ctx context.Context, ev *ResponseEvent) {
	if l.Response != nil {
		l.Response(ctx, ev)
	}
}

func (l *ListenerFuncs) OnTimeout(ctx context.Context, ev *TimeoutEvent) {
	if l.Timeout != nil {
		l.Timeout(ctx, ev)
	}
}
