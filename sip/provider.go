package sip

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"braces.dev/errtrace"
	"github.com/google/uuid"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/syncutil"
)

// ProviderState is a lifecycle state of a [Provider].
type ProviderState string

const (
	ProviderStateCreated ProviderState = "created"
	ProviderStateRunning ProviderState = "running"
	ProviderStateStopped ProviderState = "stopped"
	// ProviderStateDeleted is the terminal state entered by [Stack.DeleteProvider].
	ProviderStateDeleted ProviderState = "deleted"
)

type providerTrigger string

const (
	providerStart  providerTrigger = "start"
	providerStop   providerTrigger = "stop"
	providerDelete providerTrigger = "delete"
)

// ProviderOptions are per-provider overrides of the stack options.
type ProviderOptions struct {
	// Log is the provider logger. Defaults to the stack logger.
	Log *slog.Logger
	// Metrics observes sends and dispatches. Defaults to the stack recorder.
	Metrics MetricsRecorder
}

// Provider is bound to exactly one [ListeningEndpoint]. It dispatches inbound events to the
// registered listeners and builds outbound requests and responses from transaction state.
//
// Provider is created by [Stack.CreateProvider] and is safe for concurrent use.
// Send operations fail with [ErrProviderStopped] until [Provider.Start] is called.
type Provider struct {
	ep      ListeningEndpoint
	stack   *Stack
	log     *slog.Logger
	metrics MetricsRecorder

	listeners syncutil.COWList[Listener]
	running   atomic.Bool

	fsmMu sync.Mutex
	fsm   *stateless.StateMachine
}

func newProvider(stack *Stack, ep ListeningEndpoint, opts *ProviderOptions) *Provider {
	p := &Provider{
		ep:      ep,
		stack:   stack,
		log:     stack.log(),
		metrics: stack.metrics(),
	}
	if opts != nil && opts.Log != nil {
		p.log = opts.Log
	}
	if opts != nil && opts.Metrics != nil {
		p.metrics = opts.Metrics
	}
	p.log = p.log.With(slog.Any("endpoint", ep))
	p.initFSM()
	return p
}

func (p *Provider) initFSM() {
	p.fsm = stateless.NewStateMachine(ProviderStateCreated)
	p.fsm.Configure(ProviderStateCreated).
		Permit(providerStart, ProviderStateRunning).
		Permit(providerStop, ProviderStateStopped).
		Permit(providerDelete, ProviderStateDeleted)
	p.fsm.Configure(ProviderStateRunning).
		OnEntry(func(context.Context, ...any) error {
			p.running.Store(true)
			return nil
		}).
		OnExit(func(context.Context, ...any) error {
			p.running.Store(false)
			return nil
		}).
		Ignore(providerStart).
		Permit(providerStop, ProviderStateStopped).
		Permit(providerDelete, ProviderStateDeleted)
	p.fsm.Configure(ProviderStateStopped).
		Permit(providerStart, ProviderStateRunning).
		Ignore(providerStop).
		Permit(providerDelete, ProviderStateDeleted)
	p.fsm.Configure(ProviderStateDeleted).
		Ignore(providerStop).
		Ignore(providerDelete)
	p.fsm.OnTransitioned(func(ctx context.Context, t stateless.Transition) {
		p.log.LogAttrs(ctx, slog.LevelDebug, "provider state changed",
			slog.Any("from", t.Source),
			slog.Any("to", t.Destination),
		)
	})
}

func (p *Provider) fire(ctx context.Context, trigger providerTrigger) error {
	p.fsmMu.Lock()
	defer p.fsmMu.Unlock()
	if trigger == providerStart && p.fsm.MustState() == ProviderStateDeleted {
		return errtrace.Wrap(errorutil.NewWrapperError(ErrProviderStopped, "provider deleted"))
	}
	return errtrace.Wrap(p.fsm.FireCtx(ctx, trigger))
}

// Start makes the provider accept sends and dispatch events.
// Starting a running provider is a no-op, a deleted provider can not be started.
func (p *Provider) Start(ctx context.Context) error {
	return errtrace.Wrap(p.fire(ctx, providerStart))
}

// Stop makes the provider reject new sends and drop inbound events.
// Sends already handed to the transaction stack are not cancelled.
func (p *Provider) Stop(ctx context.Context) error {
	return errtrace.Wrap(p.fire(ctx, providerStop))
}

func (p *Provider) delete(ctx context.Context) error {
	return errtrace.Wrap(p.fire(ctx, providerDelete))
}

// State returns the current lifecycle state.
func (p *Provider) State() ProviderState {
	p.fsmMu.Lock()
	defer p.fsmMu.Unlock()
	return p.fsm.MustState().(ProviderState) //nolint:forcetypeassert
}

// IsRunning reports whether the provider is started.
func (p *Provider) IsRunning() bool { return p.running.Load() }

// Endpoint returns the endpoint the provider is bound to.
func (p *Provider) Endpoint() ListeningEndpoint { return p.ep }

// Stack returns the stack that created the provider.
func (p *Provider) Stack() *Stack { return p.stack }

// AddListener registers the listener.
// Listeners are compared by identity, a listener of a non-comparable type, e.g. a struct
// with a slice field, is rejected with an invalid argument error.
func (p *Provider) AddListener(l Listener) error {
	if err := checkListener(l); err != nil {
		return errtrace.Wrap(err)
	}
	if !p.listeners.Add(l) {
		return errtrace.Wrap(ErrListenerAlreadyRegistered)
	}
	return nil
}

// RemoveListener unregisters the listener.
func (p *Provider) RemoveListener(l Listener) error {
	if err := checkListener(l); err != nil {
		return errtrace.Wrap(err)
	}
	if !p.listeners.Remove(l) {
		return errtrace.Wrap(ErrListenerNotRegistered)
	}
	return nil
}

func checkListener(l Listener) error {
	if l == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil listener"))
	}
	if !reflect.TypeOf(l).Comparable() {
		return errtrace.Wrap(NewInvalidArgumentError("listener of non-comparable type %T", l))
	}
	return nil
}

// Listeners returns a snapshot of the registered listeners in registration order.
func (p *Provider) Listeners() []Listener { return p.listeners.Load() }

// HandleEvent dispatches the event to a snapshot of the registered listeners
// on the calling goroutine. Registration changes made during the dispatch
// take effect from the next event. Events received by a stopped provider are
// dropped with [ErrProviderStopped].
func (p *Provider) HandleEvent(ctx context.Context, ev Event) error {
	if ev == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil event"))
	}
	if !p.IsRunning() {
		p.log.LogAttrs(ctx, slog.LevelDebug, "drop event on stopped provider", slog.Any("event", ev))
		return errtrace.Wrap(ErrProviderStopped)
	}

	ls := p.listeners.Load()
	switch ev := ev.(type) {
	case *RequestEvent:
		if ev.Source == nil {
			ev.Source = p
		}
		for _, l := range ls {
			l.OnRequest(ctx, ev)
		}
	case *ResponseEvent:
		if ev.Source == nil {
			ev.Source = p
		}
		for _, l := range ls {
			l.OnResponse(ctx, ev)
		}
	case *TimeoutEvent:
		if ev.Source == nil {
			ev.Source = p
		}
		for _, l := range ls {
			l.OnTimeout(ctx, ev)
		}
	default:
		return errtrace.Wrap(NewInvalidArgumentError("unexpected event %T", ev))
	}
	p.metrics.EventDispatched(ev.Kind(), len(ls))
	return nil
}

// NewCallID returns a new Call-ID seeded with the endpoint dialog seed,
// so wildcard endpoints never put the resolved local address into Call-IDs.
func (p *Provider) NewCallID() string {
	return uuid.NewString() + "@" + p.ep.DialogSeed()
}

// AllocateTransactionID reserves a transaction identifier for a later [Provider.SendRequestWithID].
func (p *Provider) AllocateTransactionID(ctx context.Context) TransactionID {
	return p.stack.txs.AllocateTransactionID(ctx)
}

func (p *Provider) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("endpoint", p.ep),
		slog.String("state", string(p.State())),
	)
}
