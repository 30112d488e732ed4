// Package transport provides a [sip.Transport] over UDP, TCP and TLS sockets.
//
// [Net] listens on the bound endpoints, delivers raw inbound data to the configured
// [InboundHandler] and sends rendered messages to their destination.
// Message framing and parsing of inbound data are left to the handler.
package transport

//go:generate errtrace -w .

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/netip"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/dns"
	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/syncutil"
	"github.com/ghettovoice/sipstack/log"
	"github.com/ghettovoice/sipstack/sip"
)

// ErrTransportClosed is returned on use of a closed binding or transport.
const ErrTransportClosed sip.Error = "transport closed"

const (
	udpNetwork = "udp"
	tcpNetwork = "tcp"

	defaultReadBufferSize = 65535
)

// Inbound is a chunk of data received on a bound endpoint.
type Inbound struct {
	Endpoint sip.ListeningEndpoint
	Local    net.Addr
	Remote   net.Addr
	Data     []byte
}

func (in *Inbound) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("endpoint", in.Endpoint),
		slog.Any("local_addr", in.Local),
		slog.Any("remote_addr", in.Remote),
		slog.Int("size", len(in.Data)),
	)
}

// InboundHandler receives inbound data.
// It is called on the reading goroutine of the socket, a slow handler delays further reads.
type InboundHandler func(ctx context.Context, in *Inbound)

type (
	NetListenFunc       = func(ctx context.Context, network, addr string) (net.Listener, error)
	NetListenPacketFunc = func(ctx context.Context, network, addr string) (net.PacketConn, error)
	NetDialFunc         = func(ctx context.Context, network, addr string) (net.Conn, error)
)

// NetOptions are options of a [Net] transport.
// The zero value is a valid configuration for UDP and TCP.
type NetOptions struct {
	// Handler receives inbound data. Inbound data is discarded when nil.
	Handler InboundHandler
	// TLSConfigSrv is a server-side TLS configuration, required to bind TLS endpoints.
	TLSConfigSrv *tls.Config
	// TLSConfigCln is a client-side TLS configuration, required to send over TLS
	// to a peer without an established connection.
	TLSConfigCln *tls.Config
	// Resolver resolves destination host names. Defaults to [dns.DefaultResolver].
	Resolver sip.Resolver
	// ReadBufferSize is the size of the socket read buffer. Defaults to 65535.
	ReadBufferSize int

	NetListen       NetListenFunc
	NetListenPacket NetListenPacketFunc
	NetDial         NetDialFunc

	// Log is the transport logger. Defaults to [log.Default].
	Log *slog.Logger
}

var (
	dfltNetLsCfg net.ListenConfig
	dfltNetDial  net.Dialer
)

func (o *NetOptions) netListen(ctx context.Context, network, addr string) (net.Listener, error) {
	if o.NetListen != nil {
		return errtrace.Wrap2(o.NetListen(ctx, network, addr))
	}
	return errtrace.Wrap2(dfltNetLsCfg.Listen(ctx, network, addr))
}

func (o *NetOptions) netListenPacket(ctx context.Context, network, addr string) (net.PacketConn, error) {
	if o.NetListenPacket != nil {
		return errtrace.Wrap2(o.NetListenPacket(ctx, network, addr))
	}
	return errtrace.Wrap2(dfltNetLsCfg.ListenPacket(ctx, network, addr))
}

func (o *NetOptions) netDial(ctx context.Context, network, addr string) (net.Conn, error) {
	if o.NetDial != nil {
		return errtrace.Wrap2(o.NetDial(ctx, network, addr))
	}
	return errtrace.Wrap2(dfltNetDial.DialContext(ctx, network, addr))
}

func (o *NetOptions) resolver() sip.Resolver {
	if o.Resolver == nil {
		return dns.DefaultResolver()
	}
	return o.Resolver
}

func (o *NetOptions) readBufferSize() int {
	if o.ReadBufferSize <= 0 {
		return defaultReadBufferSize
	}
	return o.ReadBufferSize
}

func (o *NetOptions) log() *slog.Logger {
	if o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// Net is a socket based [sip.Transport].
// Each bound endpoint owns one listening socket, UDP requests and responses are
// sent from that socket, TCP and TLS messages reuse an inbound or a previously
// dialed connection to the destination.
type Net struct {
	opts     NetOptions
	log      *slog.Logger
	bindings syncutil.RWMap[sip.EndpointKey, *binding]
}

var _ sip.Transport = (*Net)(nil)

// NewNet creates a new transport.
func NewNet(opts *NetOptions) *Net {
	tp := new(Net)
	if opts != nil {
		tp.opts = *opts
	}
	tp.log = tp.opts.log()
	return tp
}

// Bind starts listening on the endpoint bind address.
// Wildcard endpoints listen on the any-address.
func (tp *Net) Bind(ctx context.Context, ep sip.ListeningEndpoint) error {
	if ep.IsZero() {
		return errtrace.Wrap(sip.NewInvalidArgumentError("zero endpoint"))
	}
	key := ep.Key()
	if tp.bindings.Has(key) {
		return errtrace.Wrap(errorutil.NewWrapperError(sip.ErrEndpointUnavailable, "endpoint %v already bound", ep))
	}

	b := newBinding(ep, tp)
	if ep.IsReliable() {
		ls, err := tp.listen(ctx, ep)
		if err != nil {
			return errtrace.Wrap(err)
		}
		b.ls = ls
	} else {
		pc, err := tp.opts.netListenPacket(ctx, udpNetwork, ep.BindAddr())
		if err != nil {
			return errtrace.Wrap(err)
		}
		b.pc = pc
	}

	if _, loaded := tp.bindings.GetOrSet(key, b); loaded {
		b.close() //nolint:errcheck
		return errtrace.Wrap(errorutil.NewWrapperError(sip.ErrEndpointUnavailable, "endpoint %v already bound", ep))
	}
	b.serve(context.WithoutCancel(ctx))

	tp.log.LogAttrs(ctx, slog.LevelDebug, "endpoint bound",
		slog.Any("endpoint", ep),
		slog.Any("local_addr", b.localAddr()),
	)
	return nil
}

func (tp *Net) listen(ctx context.Context, ep sip.ListeningEndpoint) (net.Listener, error) {
	if ep.IsSecure() && tp.opts.TLSConfigSrv == nil {
		return nil, errtrace.Wrap(sip.NewInvalidArgumentError("missing server TLS config"))
	}
	ls, err := tp.opts.netListen(ctx, tcpNetwork, ep.BindAddr())
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if ep.IsSecure() {
		ls = tls.NewListener(ls, tp.opts.TLSConfigSrv)
	}
	return ls, nil
}

// Unbind closes the endpoint socket and all its connections.
func (tp *Net) Unbind(ctx context.Context, ep sip.ListeningEndpoint) error {
	b, ok := tp.bindings.GetAndDel(ep.Key())
	if !ok {
		return errtrace.Wrap(errorutil.NewWrapperError(sip.ErrEndpointUnavailable, "endpoint %v not bound", ep))
	}
	err := b.close()
	tp.log.LogAttrs(ctx, slog.LevelDebug, "endpoint unbound", slog.Any("endpoint", ep))
	return errtrace.Wrap(err)
}

// LocalAddr returns the address of the socket bound for the endpoint.
func (tp *Net) LocalAddr(ep sip.ListeningEndpoint) (net.Addr, bool) {
	b, ok := tp.bindings.Get(ep.Key())
	if !ok {
		return nil, false
	}
	return b.localAddr(), true
}

// Send renders the message and writes it to the destination from the endpoint socket.
func (tp *Net) Send(ctx context.Context, msg *sip.MessageContext) error {
	if msg == nil || msg.Message == nil {
		return errtrace.Wrap(sip.NewInvalidArgumentError("nil message"))
	}
	b, ok := tp.bindings.Get(msg.Endpoint.Key())
	if !ok {
		return errtrace.Wrap(errorutil.NewWrapperError(sip.ErrEndpointUnavailable, "endpoint %v not bound", msg.Endpoint))
	}

	raddr, err := tp.resolve(ctx, msg.Destination)
	if err != nil {
		return errtrace.Wrap(err)
	}
	data := []byte(msg.Message.Render(nil))
	if err := b.write(ctx, raddr, data); err != nil {
		return errtrace.Wrap(err)
	}

	tp.log.LogAttrs(ctx, slog.LevelDebug, "message sent",
		slog.Any("endpoint", msg.Endpoint),
		slog.String("remote_addr", raddr.String()),
		slog.Any("message", msg.Message),
	)
	return nil
}

func (tp *Net) resolve(ctx context.Context, dst sip.Addr) (netip.AddrPort, error) {
	port, ok := dst.Port()
	if !ok {
		return netip.AddrPort{}, errtrace.Wrap(sip.NewInvalidArgumentError("destination %v has no port", dst))
	}
	if ip, err := netip.ParseAddr(dst.Host()); err == nil {
		return netip.AddrPortFrom(ip.Unmap(), port), nil
	}

	ips, err := tp.opts.resolver().LookupIP(ctx, "ip", dst.Host())
	if err != nil {
		return netip.AddrPort{}, errtrace.Wrap(err)
	}
	for _, ip := range ips {
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return netip.AddrPortFrom(addr.Unmap(), port), nil
		}
	}
	return netip.AddrPort{}, errtrace.Wrap(sip.NewInvalidArgumentError("no address of %q", dst.Host()))
}

// Close unbinds all endpoints.
func (tp *Net) Close() error {
	var errs []error
	for key, b := range tp.bindings.All() {
		if _, ok := tp.bindings.GetAndDel(key); !ok {
			continue
		}
		errs = append(errs, b.close())
	}
	return errtrace.Wrap(errorutil.JoinPrefix("close transport:", errs...))
}

func (tp *Net) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("bindings", tp.bindings.Len()))
}
