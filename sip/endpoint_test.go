package sip_test

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/sip"
	"github.com/ghettovoice/sipstack/uri"
)

type fakeResolver struct {
	ips map[string][]net.IP
	ptr map[string][]string
}

func (r fakeResolver) LookupIP(_ context.Context, _, host string) ([]net.IP, error) {
	if ips, ok := r.ips[host]; ok {
		return ips, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func (r fakeResolver) LookupPTR(_ context.Context, ip net.IP) ([]string, error) {
	if names, ok := r.ptr[ip.String()]; ok {
		return names, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: ip.String(), IsNotFound: true}
}

var testResolver = fakeResolver{
	ips: map[string][]net.IP{
		"pc1":             {net.ParseIP("192.168.1.10").To4()},
		"pc1.lan":         {net.ParseIP("192.168.1.10").To4()},
		"pc3":             {net.ParseIP("192.168.1.30").To4(), net.ParseIP("fd00::30")},
		"sip.example.com": {net.ParseIP("203.0.113.7").To4()},
		"multi.example.com": {
			net.ParseIP("203.0.113.8").To4(),
			net.ParseIP("203.0.113.9").To4(),
		},
		"any.example.com": {net.IPv4zero.To4()},
	},
	ptr: map[string][]string{
		"192.168.1.10": {"pc1.lan"},
		"192.168.1.30": {"pc3.lan"},
	},
}

func hostname(name string) func() (string, error) {
	return func() (string, error) { return name, nil }
}

func TestNewListeningEndpoint(t *testing.T) {
	t.Parallel()

	type want struct {
		host      string
		port      uint16
		transport sip.TransportProto
		secure    bool
		reliable  bool
		wildcard  bool
	}

	cases := []struct {
		name string
		cfg  *sip.EndpointConfig
		want want
	}{
		{
			name: "ipv4 tcp default port",
			cfg:  &sip.EndpointConfig{Host: "10.0.0.5", Port: 0, Transport: "tcp"},
			want: want{host: "10.0.0.5", port: 5060, transport: sip.TransportTCP, reliable: true},
		},
		{
			name: "ipv4 tls default port",
			cfg:  &sip.EndpointConfig{Host: "10.0.0.5", Transport: "TLS"},
			want: want{host: "10.0.0.5", port: 5061, transport: sip.TransportTLS, secure: true, reliable: true},
		},
		{
			name: "explicit port",
			cfg:  &sip.EndpointConfig{Host: "10.0.0.5", Port: 5080, Transport: "udp"},
			want: want{host: "10.0.0.5", port: 5080, transport: sip.TransportUDP},
		},
		{
			name: "negative port",
			cfg:  &sip.EndpointConfig{Host: "10.0.0.5", Port: -1},
			want: want{host: "10.0.0.5", port: 5060, transport: sip.TransportUDP},
		},
		{
			name: "bracketed ipv6",
			cfg:  &sip.EndpointConfig{Host: "[fd00::5]", Transport: "udp"},
			want: want{host: "fd00::5", port: 5060, transport: sip.TransportUDP},
		},
		{
			name: "extension transport",
			cfg:  &sip.EndpointConfig{Host: "10.0.0.5", Transport: "SCTP"},
			want: want{host: "10.0.0.5", port: 5060, transport: "sctp", reliable: true},
		},
		{
			name: "hostname with single address",
			cfg:  &sip.EndpointConfig{Host: "sip.example.com", Resolver: testResolver},
			want: want{host: "203.0.113.7", port: 5060, transport: sip.TransportUDP},
		},
		{
			name: "hostname with many addresses",
			cfg:  &sip.EndpointConfig{Host: "multi.example.com", Resolver: testResolver},
			want: want{host: "multi.example.com", port: 5060, transport: sip.TransportUDP},
		},
		{
			name: "unresolvable hostname",
			cfg:  &sip.EndpointConfig{Host: "unknown.example.com", Resolver: testResolver},
			want: want{host: "unknown.example.com", port: 5060, transport: sip.TransportUDP},
		},
		{
			name: "hostname resolved to any address",
			cfg: &sip.EndpointConfig{
				Host:     "any.example.com",
				Resolver: testResolver,
				Hostname: hostname("pc1"),
			},
			want: want{host: "192.168.1.10", port: 5060, transport: sip.TransportUDP, wildcard: true},
		},
		{
			name: "ipv4 any address",
			cfg: &sip.EndpointConfig{
				Host:      "0.0.0.0",
				Transport: "tcp",
				Resolver:  testResolver,
				Hostname:  hostname("pc1"),
			},
			want: want{host: "192.168.1.10", port: 5060, transport: sip.TransportTCP, reliable: true, wildcard: true},
		},
		{
			name: "ipv6 any address with canonical name",
			cfg: &sip.EndpointConfig{
				Host:     "::",
				Resolver: testResolver,
				Hostname: hostname("pc3"),
			},
			want: want{host: "pc3.lan", port: 5060, transport: sip.TransportUDP, wildcard: true},
		},
		{
			name: "empty host with unresolvable hostname",
			cfg: &sip.EndpointConfig{
				Resolver: testResolver,
				Hostname: hostname("pc2"),
			},
			want: want{host: "pc2", port: 5060, transport: sip.TransportUDP, wildcard: true},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ep := sip.NewListeningEndpoint(t.Context(), c.cfg)
			got := want{
				host:      ep.Host(),
				port:      ep.Port(),
				transport: ep.Transport(),
				secure:    ep.IsSecure(),
				reliable:  ep.IsReliable(),
				wildcard:  ep.IsWildcardBind(),
			}
			if diff := cmp.Diff(got, c.want, cmp.AllowUnexported(want{})); diff != "" {
				t.Errorf("sip.NewListeningEndpoint() = %+v, want %+v\ndiff (-got +want):\n%v", got, c.want, diff)
			}
		})
	}
}

func TestNewListeningEndpoint_Invariants(t *testing.T) {
	t.Parallel()

	for _, host := range []string{"", "0.0.0.0", "::", "[::]", "10.0.0.5", "sip.example.com", "unknown.example.com"} {
		for _, tp := range []string{"", "udp", "tcp", "tls", "ws", "sctp"} {
			for _, port := range []int{-5, 0, 5060, 5061, 40000} {
				ep := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{
					Host:      host,
					Port:      port,
					Transport: tp,
					Resolver:  testResolver,
					Hostname:  hostname("pc1"),
				})
				if ep.IsSecure() && !ep.IsReliable() {
					t.Errorf("endpoint %v: secure but not reliable", ep)
				}
				if ep.Port() == 0 {
					t.Errorf("endpoint %v: zero port", ep)
				}
				switch ep.Host() {
				case "", "0.0.0.0", "::":
					t.Errorf("endpoint %v: host = %q, want concrete host", ep, ep.Host())
				}
				wantWildcard := host == "" || host == "0.0.0.0" || host == "::" || host == "[::]"
				if got := ep.IsWildcardBind(); got != wantWildcard {
					t.Errorf("endpoint %v: IsWildcardBind() = %v, want %v", ep, got, wantWildcard)
				}
			}
		}
	}
}

func TestListeningEndpoint_Equal(t *testing.T) {
	t.Parallel()

	ep1 := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{
		Host:        "10.0.0.5",
		Transport:   "udp",
		SentBy:      "a.example.com",
		ChannelName: "chan-a",
	})
	ep2 := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{
		Host:        "10.0.0.5",
		Port:        5060,
		Transport:   "UDP",
		SentBy:      "b.example.com",
		ChannelName: "chan-b",
	})
	ep3 := ep1.WithPort(5070)
	ep4 := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{Host: "10.0.0.5", Transport: "tcp"})

	if !ep1.Equal(ep2) {
		t.Errorf("ep1.Equal(ep2) = false, want true")
	}
	if !ep1.Equal(&ep2) {
		t.Errorf("ep1.Equal(&ep2) = false, want true")
	}
	if ep1.Key() != ep2.Key() {
		t.Errorf("ep1.Key() = %+v, want %+v", ep1.Key(), ep2.Key())
	}
	if ep1.Equal(ep3) {
		t.Errorf("ep1.Equal(ep3) = true, want false")
	}
	if ep1.Equal(ep4) {
		t.Errorf("ep1.Equal(ep4) = true, want false")
	}
	if ep1.Equal("sip:10.0.0.5:5060;transport=udp") {
		t.Errorf("ep1.Equal(string) = true, want false")
	}

	m := map[sip.EndpointKey]int{ep1.Key(): 1}
	m[ep2.Key()]++
	if got := m[ep1.Key()]; got != 2 {
		t.Errorf("m[ep1.Key()] = %d, want 2", got)
	}
}

func TestListeningEndpoint_Accessors(t *testing.T) {
	t.Parallel()

	ep := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{Host: "10.0.0.5", Transport: "tcp"})
	if got, want := ep.String(), "sip:10.0.0.5:5060;transport=tcp"; got != want {
		t.Errorf("ep.String() = %q, want %q", got, want)
	}
	if got, want := ep.ChannelName(), "tcp-10.0.0.5:5060"; got != want {
		t.Errorf("ep.ChannelName() = %q, want %q", got, want)
	}
	if got, want := ep.SentBy(), "10.0.0.5"; got != want {
		t.Errorf("ep.SentBy() = %q, want %q", got, want)
	}
	if got, want := ep.DialogSeed(), "10.0.0.5"; got != want {
		t.Errorf("ep.DialogSeed() = %q, want %q", got, want)
	}
	if got, want := ep.BindAddr(), "10.0.0.5:5060"; got != want {
		t.Errorf("ep.BindAddr() = %q, want %q", got, want)
	}
	if got, want := ep.URI().String(), "sip:10.0.0.5:5060;transport=tcp"; got != want {
		t.Errorf("ep.URI() = %q, want %q", got, want)
	}

	tls := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{Host: "fd00::5", Transport: "tls"})
	if got, want := tls.String(), "sips:[fd00::5]:5061;transport=tls"; got != want {
		t.Errorf("tls.String() = %q, want %q", got, want)
	}
	if got, want := tls.Scheme(), "sips"; got != want {
		t.Errorf("tls.Scheme() = %q, want %q", got, want)
	}

	wc := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{
		Host:       "0.0.0.0",
		SentBy:     "pbx.example.com",
		DialogSeed: "seed",
		Resolver:   testResolver,
		Hostname:   hostname("pc1"),
	})
	if got, want := wc.BindAddr(), ":5060"; got != want {
		t.Errorf("wc.BindAddr() = %q, want %q", got, want)
	}
	if got, want := wc.SentBy(), "pbx.example.com"; got != want {
		t.Errorf("wc.SentBy() = %q, want %q", got, want)
	}
	if got, want := wc.DialogSeed(), "seed"; got != want {
		t.Errorf("wc.DialogSeed() = %q, want %q", got, want)
	}
}

func TestListeningEndpoint_ViaHop(t *testing.T) {
	t.Parallel()

	ep := sip.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{
		Host:      "10.0.0.5",
		Transport: "tcp",
		SentBy:    "pbx.example.com",
	})
	hop1, hop2 := ep.ViaHop(), ep.ViaHop()
	if !strings.HasPrefix(hop1.Branch(), sip.RFC3261BranchMagicCookie) {
		t.Errorf("hop.Branch() = %q, want prefix %q", hop1.Branch(), sip.RFC3261BranchMagicCookie)
	}
	if hop1.Branch() == hop2.Branch() {
		t.Errorf("hop1.Branch() = hop2.Branch() = %q, want distinct branches", hop1.Branch())
	}
	if got, want := hop1.Addr.String(), "pbx.example.com:5060"; got != want {
		t.Errorf("hop.Addr = %q, want %q", got, want)
	}
	if got, want := hop1.Transport, sip.TransportTCP; got != want {
		t.Errorf("hop.Transport = %q, want %q", got, want)
	}
}

func TestListeningEndpointFrom(t *testing.T) {
	t.Parallel()

	hop := header.ViaHop{Proto: sip.ProtoVer20, Transport: "TLS", Addr: uri.HostPort("10.0.0.9", 5071)}
	ep := sip.ListeningEndpointFromVia(t.Context(), hop, &sip.EndpointConfig{SentBy: "pbx.example.com", Host: "ignored"})
	if got, want := ep.String(), "sips:10.0.0.9:5071;transport=tls"; got != want {
		t.Errorf("sip.ListeningEndpointFromVia() = %q, want %q", got, want)
	}
	if got, want := ep.SentBy(), "pbx.example.com"; got != want {
		t.Errorf("ep.SentBy() = %q, want %q", got, want)
	}

	ep = sip.ListeningEndpointFromURI(t.Context(), uri.MustParseSIP("sip:10.0.0.9;transport=tcp"), nil)
	if got, want := ep.String(), "sip:10.0.0.9:5060;transport=tcp"; got != want {
		t.Errorf("sip.ListeningEndpointFromURI() = %q, want %q", got, want)
	}

	ep = sip.ListeningEndpointFromURI(t.Context(), uri.MustParseSIP("sips:10.0.0.9"), nil)
	if got, want := ep.String(), "sips:10.0.0.9:5061;transport=tls"; got != want {
		t.Errorf("sip.ListeningEndpointFromURI() = %q, want %q", got, want)
	}
}
