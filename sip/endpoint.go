package sip

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/ghettovoice/sipstack/dns"
	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/types"
	"github.com/ghettovoice/sipstack/internal/util"
	"github.com/ghettovoice/sipstack/uri"
)

// Resolver resolves configured hosts of listening endpoints.
// It is implemented by [dns.Resolver].
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupPTR(ctx context.Context, ip net.IP) ([]string, error)
}

// EndpointConfig is the configuration of a [ListeningEndpoint].
type EndpointConfig struct {
	// Host is a hostname or an IP address to listen on.
	// Empty host, "0.0.0.0" and "::" request a wildcard bind.
	Host string
	// Port to listen on. Zero or negative selects 5060 or 5061 for secure transports.
	Port int
	// Transport is a transport token, e.g. "udp", "tcp", "tls".
	// Empty value selects UDP, unknown tokens are kept as reliable insecure extension transports.
	Transport string
	// SentBy overrides the host used in Via headers of outbound requests.
	SentBy string
	// DialogSeed overrides the seed of generated Call-IDs.
	DialogSeed string
	// ChannelName is an opaque transport channel identifier.
	ChannelName string
	// Resolver resolves Host. Defaults to [dns.DefaultResolver].
	Resolver Resolver
	// Hostname returns the local machine name used for wildcard binds. Defaults to [os.Hostname].
	Hostname func() (string, error)
}

func (c *EndpointConfig) resolver() Resolver {
	if c == nil || c.Resolver == nil {
		return dns.DefaultResolver()
	}
	return c.Resolver
}

func (c *EndpointConfig) hostname() string {
	fn := os.Hostname
	if c != nil && c.Hostname != nil {
		fn = c.Hostname
	}
	if name, err := fn(); err == nil && name != "" {
		return name
	}
	return "localhost"
}

// ListeningEndpoint is an immutable description of a local network binding.
// Equality is defined over host, port, transport and the secure flag only, see [ListeningEndpoint.Key].
type ListeningEndpoint struct {
	host, sentBy, dialogSeed, chanName string

	port      uint16
	transport TransportProto
	secure    bool
	reliable  bool
	wildcard  bool
}

// NewListeningEndpoint resolves the configured host and builds an endpoint.
// Resolution failures are never returned, the configured host is used verbatim instead.
func NewListeningEndpoint(ctx context.Context, cfg *EndpointConfig) ListeningEndpoint {
	var c EndpointConfig
	if cfg != nil {
		c = *cfg
	}

	var ep ListeningEndpoint
	ep.transport, ep.secure, ep.reliable = normTransport(c.Transport)
	ep.host, ep.wildcard = resolveHost(ctx, &c)

	if c.Port > 0 && c.Port <= 0xffff {
		ep.port = uint16(c.Port)
	} else {
		ep.port = defaultPort(ep.secure)
	}

	ep.sentBy = util.Coalesce(c.SentBy, ep.host)
	ep.dialogSeed = util.Coalesce(c.DialogSeed, ep.host)
	ep.chanName = c.ChannelName
	return ep
}

// ListeningEndpointFromVia builds an endpoint from a Via hop.
// Only resolution and override fields of cfg are used, cfg may be nil.
func ListeningEndpointFromVia(ctx context.Context, hop header.ViaHop, cfg *EndpointConfig) ListeningEndpoint {
	c := endpointOverrides(cfg)
	c.Host = hop.Addr.Host()
	if p, ok := hop.Addr.Port(); ok {
		c.Port = int(p)
	}
	c.Transport = string(hop.Transport)
	return NewListeningEndpoint(ctx, &c)
}

// ListeningEndpointFromURI builds an endpoint from a SIP URI.
// A SIPS URI always yields a TLS endpoint.
func ListeningEndpointFromURI(ctx context.Context, u uri.SIP, cfg *EndpointConfig) ListeningEndpoint {
	c := endpointOverrides(cfg)
	c.Host = u.Addr.Host()
	if p, ok := u.Addr.Port(); ok {
		c.Port = int(p)
	}
	c.Transport = u.Transport()
	if u.Secured {
		c.Transport = "tls"
	}
	return NewListeningEndpoint(ctx, &c)
}

func endpointOverrides(cfg *EndpointConfig) EndpointConfig {
	if cfg == nil {
		return EndpointConfig{}
	}
	return EndpointConfig{
		SentBy:     cfg.SentBy,
		DialogSeed: cfg.DialogSeed,
		Resolver:   cfg.Resolver,
		Hostname:   cfg.Hostname,
	}
}

func normTransport(s string) (proto TransportProto, secure, reliable bool) {
	switch tp := util.LCase(util.TrimSP(s)); tp {
	case "", "udp":
		return TransportUDP, false, false
	case "tcp":
		return TransportTCP, false, true
	case "tls":
		return TransportTLS, true, true
	default:
		return TransportProto(tp), false, true
	}
}

func resolveHost(ctx context.Context, cfg *EndpointConfig) (host string, wildcard bool) {
	host = util.TrimSP(cfg.Host)
	if host == "" {
		return localHost(ctx, cfg), true
	}

	if ip, ok := grammar.ParseIP(host); ok {
		if ip.IsUnspecified() {
			return localHost(ctx, cfg), true
		}
		return ip.Unmap().String(), false
	}

	ips, err := cfg.resolver().LookupIP(ctx, "ip", host)
	if err != nil || len(ips) == 0 {
		return host, false
	}
	if allUnspecified(ips) {
		return localHost(ctx, cfg), true
	}
	if len(ips) == 1 {
		return ipString(ips[0]), false
	}
	return host, false
}

// localHost returns the canonical name of the local machine or its single address.
func localHost(ctx context.Context, cfg *EndpointConfig) string {
	name := cfg.hostname()
	res := cfg.resolver()
	if ips, err := res.LookupIP(ctx, "ip", name); err == nil && len(ips) > 0 && !ips[0].IsUnspecified() {
		if names, err := res.LookupPTR(ctx, ips[0]); err == nil && len(names) > 0 && names[0] != "" {
			name = names[0]
		}
	}
	return hostOrSingleAddr(ctx, res, name)
}

// hostOrSingleAddr returns the only address of host if it resolves to exactly one address,
// otherwise host is returned unchanged.
func hostOrSingleAddr(ctx context.Context, res Resolver, host string) string {
	ips, err := res.LookupIP(ctx, "ip", host)
	if err != nil || len(ips) != 1 || ips[0].IsUnspecified() {
		return host
	}
	return ipString(ips[0])
}

func allUnspecified(ips []net.IP) bool {
	for _, ip := range ips {
		if !ip.IsUnspecified() {
			return false
		}
	}
	return true
}

func ipString(ip net.IP) string {
	if a, ok := netip.AddrFromSlice(ip); ok {
		return a.Unmap().String()
	}
	return ip.String()
}

// Host returns the resolved host: an IP address or a hostname, never the any-address.
func (ep ListeningEndpoint) Host() string { return ep.host }

// Port returns the port, never zero for constructed endpoints.
func (ep ListeningEndpoint) Port() uint16 { return ep.port }

// Transport returns UDP, TCP, TLS or the lower-cased extension transport token.
func (ep ListeningEndpoint) Transport() TransportProto { return ep.transport }

func (ep ListeningEndpoint) IsSecure() bool { return ep.secure }

// IsReliable reports whether the transport is stream based. Secure endpoints are always reliable.
func (ep ListeningEndpoint) IsReliable() bool { return ep.reliable }

// IsWildcardBind reports whether the any-address was requested and the local host was substituted.
func (ep ListeningEndpoint) IsWildcardBind() bool { return ep.wildcard }

// SentBy returns the host used in Via headers of outbound requests.
func (ep ListeningEndpoint) SentBy() string { return ep.sentBy }

// DialogSeed returns the seed of generated Call-IDs.
func (ep ListeningEndpoint) DialogSeed() string { return ep.dialogSeed }

// ChannelName returns the transport channel name, e.g. "udp-10.0.0.5:5060" by default.
func (ep ListeningEndpoint) ChannelName() string {
	if ep.chanName != "" {
		return ep.chanName
	}
	return string(ep.transport.ToLower()) + "-" + ep.Addr().String()
}

// Scheme returns "sips" for secure endpoints and "sip" otherwise.
func (ep ListeningEndpoint) Scheme() string {
	if ep.secure {
		return "sips"
	}
	return "sip"
}

// Addr returns the host and port.
func (ep ListeningEndpoint) Addr() Addr { return types.HostPort(ep.host, ep.port) }

// BindAddr returns the local address to listen on, the any-address for wildcard endpoints.
func (ep ListeningEndpoint) BindAddr() string {
	if ep.wildcard {
		return net.JoinHostPort("", strconv.Itoa(int(ep.port)))
	}
	return ep.Addr().String()
}

// WithPort returns a copy of the endpoint rebound to the port.
// It is used before activation when the port was selected by the transport.
func (ep ListeningEndpoint) WithPort(port uint16) ListeningEndpoint {
	if port == 0 {
		port = defaultPort(ep.secure)
	}
	ep.port = port
	return ep
}

// ViaHop returns a Via hop with the endpoint sent-by and a new branch.
func (ep ListeningEndpoint) ViaHop() header.ViaHop {
	addr, err := types.ParseAddr(ep.sentBy)
	if err != nil {
		addr = types.Host(ep.sentBy)
	}
	if _, ok := addr.Port(); !ok {
		addr = addr.WithPort(ep.port)
	}
	return header.ViaHop{
		Proto:     ProtoVer20,
		Transport: ep.transport,
		Addr:      addr,
		Params:    types.NewParams("branch", GenerateBranch()),
	}
}

// URI returns a SIP URI addressing the endpoint.
func (ep ListeningEndpoint) URI() uri.SIP {
	u := uri.SIP{Addr: ep.Addr(), Secured: ep.secure}
	if !ep.secure && ep.transport != TransportUDP {
		u.Params = u.Params.With("transport", string(ep.transport.ToLower()))
	}
	return u
}

// EndpointKey is the comparable identity of a [ListeningEndpoint].
type EndpointKey struct {
	Host      string
	Port      uint16
	Transport TransportProto // lower case
	Secure    bool
}

// Key returns the endpoint identity, suitable as a map key.
func (ep ListeningEndpoint) Key() EndpointKey {
	return EndpointKey{
		Host:      strings.ToLower(ep.host),
		Port:      ep.port,
		Transport: ep.transport.ToLower(),
		Secure:    ep.secure,
	}
}

// Equal reports whether val is an endpoint with the same key.
func (ep ListeningEndpoint) Equal(val any) bool {
	return types.Equal(val, func(other ListeningEndpoint) bool { return ep.Key() == other.Key() })
}

// IsZero reports whether ep is the zero value.
func (ep ListeningEndpoint) IsZero() bool { return ep == ListeningEndpoint{} }

// String renders the endpoint as "sip:host:port;transport=udp".
func (ep ListeningEndpoint) String() string {
	return ep.Scheme() + ":" + ep.Addr().String() + ";transport=" + string(ep.transport.ToLower())
}

func (ep ListeningEndpoint) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", ep.host),
		slog.Int("port", int(ep.port)),
		slog.String("transport", string(ep.transport)),
		slog.Bool("wildcard", ep.wildcard),
	)
}
