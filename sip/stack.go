package sip

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/syncutil"
	"github.com/ghettovoice/sipstack/log"
)

// DefaultStackName is the name of a stack created without explicit name.
const DefaultStackName = "sipstack"

// StackOptions are options of a [Stack].
type StackOptions struct {
	// Name of the stack. Defaults to [DefaultStackName].
	Name string
	// TransactionStack is the transaction layer collaborator. Required.
	TransactionStack TransactionStack
	// Transport binds endpoints and sends stateless messages. Required.
	Transport Transport
	// MessageFactory builds messages. Defaults to [DefaultMessageFactory].
	MessageFactory MessageFactory
	// Resolver resolves hosts of endpoints built by [Stack.NewListeningEndpoint].
	Resolver Resolver
	// SentBy overrides the Via sent-by host of all endpoints built by the stack.
	SentBy string
	// DialogSeed overrides the Call-ID seed of all endpoints built by the stack.
	DialogSeed string
	// Metrics observes provider activity. Defaults to a no-op recorder.
	Metrics MetricsRecorder
	// Log is the stack logger. Defaults to [log.Default].
	Log *slog.Logger
}

func (o *StackOptions) name() string {
	if o == nil || o.Name == "" {
		return DefaultStackName
	}
	return o.Name
}

func (o *StackOptions) factory() MessageFactory {
	if o == nil || o.MessageFactory == nil {
		return DefaultMessageFactory{}
	}
	return o.MessageFactory
}

func (o *StackOptions) metrics() MetricsRecorder {
	if o == nil || o.Metrics == nil {
		return noopMetrics{}
	}
	return o.Metrics
}

func (o *StackOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// Stack is the registry of listening endpoints and providers.
// At most one provider exists per distinct endpoint, network bindings are shared
// by equal endpoints and live until [Stack.Close].
type Stack struct {
	opts    StackOptions
	txs     TransactionStack
	transp  Transport
	factory MessageFactory

	nameMu sync.RWMutex
	name   string

	mu        sync.Mutex
	providers []*Provider
	closed    bool
	bindings  syncutil.RWMap[EndpointKey, ListeningEndpoint]
}

// NewStack creates a new stack. TransactionStack and Transport are required.
func NewStack(opts *StackOptions) (*Stack, error) {
	if opts == nil || opts.TransactionStack == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("missing transaction stack"))
	}
	if opts.Transport == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("missing transport"))
	}
	return &Stack{
		opts:    *opts,
		txs:     opts.TransactionStack,
		transp:  opts.Transport,
		factory: opts.factory(),
		name:    opts.name(),
	}, nil
}

func (s *Stack) log() *slog.Logger { return s.opts.log() }

func (s *Stack) metrics() MetricsRecorder { return s.opts.metrics() }

// Name returns the stack name.
func (s *Stack) Name() string {
	s.nameMu.RLock()
	defer s.nameMu.RUnlock()
	return s.name
}

// SetName renames the stack, empty name is rejected.
func (s *Stack) SetName(name string) error {
	if name == "" {
		return errtrace.Wrap(NewInvalidArgumentError("empty stack name"))
	}
	s.nameMu.Lock()
	s.name = name
	s.nameMu.Unlock()
	return nil
}

// TransactionStack returns the transaction layer collaborator.
func (s *Stack) TransactionStack() TransactionStack { return s.txs }

// MessageFactory returns the message factory shared by all providers.
func (s *Stack) MessageFactory() MessageFactory { return s.factory }

// NewListeningEndpoint builds an endpoint applying the stack resolver and overrides.
// Explicit SentBy and DialogSeed of cfg take precedence over the stack ones.
func (s *Stack) NewListeningEndpoint(ctx context.Context, cfg *EndpointConfig) ListeningEndpoint {
	var c EndpointConfig
	if cfg != nil {
		c = *cfg
	}
	if c.Resolver == nil {
		c.Resolver = s.opts.Resolver
	}
	if c.SentBy == "" {
		c.SentBy = s.opts.SentBy
	}
	if c.DialogSeed == "" {
		c.DialogSeed = s.opts.DialogSeed
	}
	return NewListeningEndpoint(ctx, &c)
}

// CreateProvider creates a provider bound to the endpoint.
// The endpoint is bound through the transport unless an equal endpoint is already bound.
// Errors match [ErrEndpointUnavailable] when the bind fails or another provider uses an equal endpoint.
func (s *Stack) CreateProvider(ctx context.Context, ep ListeningEndpoint, opts *ProviderOptions) (*Provider, error) {
	if ep.IsZero() {
		return nil, errtrace.Wrap(NewInvalidArgumentError("zero endpoint"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errtrace.Wrap(ErrStackClosed)
	}
	key := ep.Key()
	if slices.ContainsFunc(s.providers, func(p *Provider) bool { return p.ep.Key() == key }) {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrEndpointUnavailable, "endpoint %s is in use", ep))
	}
	if !s.bindings.Has(key) {
		if err := s.transp.Bind(ctx, ep); err != nil {
			s.log().LogAttrs(ctx, slog.LevelWarn, "failed to bind endpoint",
				slog.Any("endpoint", ep),
				slog.Any("error", err),
			)
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrEndpointUnavailable, err))
		}
		s.bindings.Set(key, ep)
		s.log().LogAttrs(ctx, slog.LevelDebug, "endpoint bound", slog.Any("endpoint", ep))
	}

	p := newProvider(s, ep, opts)
	s.providers = append(s.providers, p)
	s.log().LogAttrs(ctx, slog.LevelDebug, "provider created", slog.Any("endpoint", ep))
	return p, nil
}

// DeleteProvider stops the provider and removes it from the stack.
// The endpoint binding is kept, a new provider for an equal endpoint reuses it.
func (s *Stack) DeleteProvider(ctx context.Context, p *Provider) error {
	if p == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil provider"))
	}

	s.mu.Lock()
	i := slices.Index(s.providers, p)
	if i >= 0 {
		s.providers = slices.Delete(s.providers, i, i+1)
	}
	s.mu.Unlock()

	if i < 0 {
		return errtrace.Wrap(NewInvalidArgumentError("provider is not registered in the stack"))
	}
	if err := p.delete(ctx); err != nil {
		return errtrace.Wrap(err)
	}
	s.log().LogAttrs(ctx, slog.LevelDebug, "provider deleted", slog.Any("endpoint", p.ep))
	return nil
}

// Endpoints returns a snapshot of the bound endpoints.
func (s *Stack) Endpoints() []ListeningEndpoint {
	eps := make([]ListeningEndpoint, 0, s.bindings.Len())
	for _, ep := range s.bindings.All() {
		eps = append(eps, ep)
	}
	slices.SortFunc(eps, func(a, b ListeningEndpoint) int { return cmp.Compare(a.String(), b.String()) })
	return eps
}

// Providers returns a snapshot of the providers in creation order.
func (s *Stack) Providers() []*Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.providers)
}

// LookupEndpoint returns a bound endpoint of the transport, preferring one with the host and port
// of near. It is used to move a request to a reliable transport.
func (s *Stack) LookupEndpoint(proto TransportProto, near ListeningEndpoint) (ListeningEndpoint, bool) {
	var (
		found ListeningEndpoint
		ok    bool
	)
	for _, ep := range s.Endpoints() {
		if !ep.Transport().Equal(proto) {
			continue
		}
		if ep.Host() == near.Host() && ep.Port() == near.Port() {
			return ep, true
		}
		if !ok {
			found, ok = ep, true
		}
	}
	return found, ok
}

// Close deletes all providers and unbinds all endpoints.
// The stack can not be used after Close.
func (s *Stack) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	provs := s.providers
	s.providers = nil
	s.mu.Unlock()

	var errs []error
	for _, p := range provs {
		errs = append(errs, p.delete(ctx))
	}
	for key, ep := range s.bindings.All() {
		if err := s.transp.Unbind(ctx, ep); err != nil {
			errs = append(errs, errorutil.NewWrapperError(ErrEndpointUnavailable, err))
		}
		s.bindings.Del(key)
	}
	return errtrace.Wrap(errorutil.JoinPrefix("close stack:", errs...))
}

func (s *Stack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", s.Name()),
		slog.Int("endpoints", s.bindings.Len()),
	)
}
