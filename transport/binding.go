package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/sip"
)

// binding is the socket set of one bound endpoint.
type binding struct {
	ep  sip.ListeningEndpoint
	tp  *Net
	log *slog.Logger

	pc net.PacketConn // unreliable endpoints
	ls net.Listener   // reliable endpoints

	mu     sync.Mutex
	conns  map[string]net.Conn // by remote address
	closed bool
	wg     sync.WaitGroup
}

func newBinding(ep sip.ListeningEndpoint, tp *Net) *binding {
	return &binding{
		ep:    ep,
		tp:    tp,
		log:   tp.log.With("endpoint", ep),
		conns: make(map[string]net.Conn),
	}
}

func (b *binding) localAddr() net.Addr {
	if b.pc != nil {
		return b.pc.LocalAddr()
	}
	return b.ls.Addr()
}

func (b *binding) serve(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pc != nil {
		b.wg.Go(func() { b.servePacket(ctx) })
		return
	}
	b.wg.Go(func() { b.serveStream(ctx) })
}

func (b *binding) servePacket(ctx context.Context) {
	buf := make([]byte, b.tp.opts.readBufferSize())
	for {
		n, raddr, err := b.pc.ReadFrom(buf)
		if err != nil {
			if b.isClosed() || errorutil.IsClosedErr(err) {
				return
			}
			if errorutil.IsTimeoutErr(err) {
				continue
			}
			b.log.LogAttrs(ctx, slog.LevelWarn, "stop reading packet connection", slog.Any("error", err))
			return
		}
		b.deliver(ctx, b.pc.LocalAddr(), raddr, bytes.Clone(buf[:n]))
	}
}

func (b *binding) serveStream(ctx context.Context) {
	var tempDelay time.Duration
	for {
		c, err := b.ls.Accept()
		if err != nil {
			if b.isClosed() || errorutil.IsClosedErr(err) {
				return
			}
			if errorutil.IsTimeoutErr(err) {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				tempDelay = min(tempDelay, time.Second)
				b.log.LogAttrs(ctx, slog.LevelWarn, "failed to accept inbound connection, retry",
					slog.Any("error", err),
					slog.Duration("retry_after", tempDelay),
				)
				time.Sleep(tempDelay)
				continue
			}
			b.log.LogAttrs(ctx, slog.LevelWarn, "stop accepting connections", slog.Any("error", err))
			return
		}
		tempDelay = 0

		b.log.LogAttrs(ctx, slog.LevelDebug, "inbound connection accepted", slog.Any("conn", c))
		if !b.track(ctx, c) {
			c.Close()
			return
		}
	}
}

// track registers the connection and starts reading it.
// It returns false if the binding is closed.
func (b *binding) track(ctx context.Context, c net.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.conns[c.RemoteAddr().String()] = c
	b.wg.Go(func() { b.serveConn(ctx, c) })
	return true
}

func (b *binding) untrack(c net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := c.RemoteAddr().String()
	if b.conns[key] == c {
		delete(b.conns, key)
	}
}

func (b *binding) serveConn(ctx context.Context, c net.Conn) {
	defer func() {
		b.untrack(c)
		c.Close()
	}()

	buf := make([]byte, b.tp.opts.readBufferSize())
	for {
		n, err := c.Read(buf)
		if n > 0 {
			b.deliver(ctx, c.LocalAddr(), c.RemoteAddr(), bytes.Clone(buf[:n]))
		}
		if err != nil {
			if !b.isClosed() && !errorutil.IsClosedErr(err) {
				b.log.LogAttrs(ctx, slog.LevelDebug, "connection closed", slog.Any("conn", c), slog.Any("error", err))
			}
			return
		}
	}
}

func (b *binding) deliver(ctx context.Context, laddr, raddr net.Addr, data []byte) {
	if b.tp.opts.Handler == nil {
		return
	}
	b.tp.opts.Handler(ctx, &Inbound{
		Endpoint: b.ep,
		Local:    laddr,
		Remote:   raddr,
		Data:     data,
	})
}

func (b *binding) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *binding) write(ctx context.Context, raddr netip.AddrPort, data []byte) error {
	if b.isClosed() {
		return errtrace.Wrap(ErrTransportClosed)
	}

	if b.pc != nil {
		if dl, ok := ctx.Deadline(); ok {
			b.pc.SetWriteDeadline(dl)                //nolint:errcheck
			defer b.pc.SetWriteDeadline(time.Time{}) //nolint:errcheck
		}
		_, err := b.pc.WriteTo(data, net.UDPAddrFromAddrPort(raddr))
		return errtrace.Wrap(err)
	}

	c, err := b.conn(ctx, raddr)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if dl, ok := ctx.Deadline(); ok {
		c.SetWriteDeadline(dl)                //nolint:errcheck
		defer c.SetWriteDeadline(time.Time{}) //nolint:errcheck
	}
	_, err = c.Write(data)
	return errtrace.Wrap(err)
}

// conn returns a connection to the remote address, dialing a new one when needed.
func (b *binding) conn(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	key := raddr.String()
	b.mu.Lock()
	c, ok := b.conns[key]
	b.mu.Unlock()
	if ok {
		return c, nil
	}

	c, err := b.dial(ctx, raddr)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		c.Close()
		return nil, errtrace.Wrap(ErrTransportClosed)
	}
	if prev, ok := b.conns[key]; ok {
		c.Close()
		return prev, nil
	}
	b.conns[key] = c
	b.wg.Go(func() { b.serveConn(context.WithoutCancel(ctx), c) })

	b.log.LogAttrs(ctx, slog.LevelDebug, "outbound connection established", slog.Any("conn", c))
	return c, nil
}

func (b *binding) dial(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	if !b.ep.IsSecure() {
		return errtrace.Wrap2(b.tp.opts.netDial(ctx, tcpNetwork, raddr.String()))
	}

	cfg := b.tp.opts.TLSConfigCln
	if cfg == nil {
		return nil, errtrace.Wrap(sip.NewInvalidArgumentError("missing client TLS config"))
	}
	c, err := b.tp.opts.netDial(ctx, tcpNetwork, raddr.String())
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	tc := tls.Client(c, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		c.Close()
		return nil, errtrace.Wrap(err)
	}
	return tc, nil
}

// close closes the sockets and waits for the reading goroutines.
func (b *binding) close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	var errs []error
	if b.pc != nil {
		errs = append(errs, b.pc.Close())
	}
	if b.ls != nil {
		errs = append(errs, b.ls.Close())
	}
	for _, c := range b.conns {
		c.Close()
	}
	b.mu.Unlock()

	b.wg.Wait()
	return errtrace.Wrap(errorutil.JoinPrefix("close "+b.ep.String()+":", errs...))
}
