package types

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/util"
)

// Addr is a host with an optional port, as used in Via sent-by and SIP URI host parts.
// The host is either a hostname or an IP address stored without IPv6 brackets.
type Addr struct {
	host    string
	port    uint16
	hasPort bool
}

// Host returns an address without port.
func Host(host string) Addr {
	return Addr{host: trimBrackets(host)}
}

// HostPort returns an address with port.
func HostPort(host string, port uint16) Addr {
	return Addr{host: trimBrackets(host), port: port, hasPort: true}
}

// ParseAddr parses "host", "host:port" or "[ipv6]:port".
func ParseAddr(s string) (Addr, error) {
	if s == "" {
		return Addr{}, errtrace.Wrap(errorutil.NewInvalidArgumentError("empty address"))
	}

	if host, port, err := net.SplitHostPort(s); err == nil {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return Addr{}, errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid port %q", port))
		}
		a := HostPort(host, uint16(p))
		if !a.IsValid() {
			return Addr{}, errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid host %q", host))
		}
		return a, nil
	}

	a := Host(s)
	if !a.IsValid() {
		return Addr{}, errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid host %q", s))
	}
	return a, nil
}

func trimBrackets(host string) string {
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host[1 : len(host)-1]
	}
	return host
}

func (a Addr) Host() string { return a.host }

// IP returns the host as IP address if it is an IP literal.
func (a Addr) IP() (netip.Addr, bool) {
	ip, err := netip.ParseAddr(a.host)
	return ip, err == nil
}

func (a Addr) Port() (uint16, bool) { return a.port, a.hasPort }

func (a Addr) WithPort(port uint16) Addr {
	a.port = port
	a.hasPort = true
	return a
}

func (a Addr) WithoutPort() Addr {
	a.port = 0
	a.hasPort = false
	return a
}

// HostString returns the host with IPv6 addresses enclosed in brackets.
func (a Addr) HostString() string {
	if strings.Contains(a.host, ":") {
		return "[" + a.host + "]"
	}
	return a.host
}

func (a Addr) String() string {
	if a.hasPort {
		return net.JoinHostPort(a.host, strconv.Itoa(int(a.port)))
	}
	return a.HostString()
}

func (a Addr) Format(f fmt.State, verb rune) {
	switch verb {
	case 's', 'v':
		fmt.Fprint(f, a.String())
	case 'q':
		fmt.Fprint(f, strconv.Quote(a.String()))
	default:
		fmt.Fprintf(f, "%%!%c(types.Addr=%s)", verb, a.String())
	}
}

func (a Addr) LogValue() slog.Value { return slog.StringValue(a.String()) }

func (a Addr) IsValid() bool { return grammar.IsHost(a.host) }

func (a Addr) IsZero() bool { return a.host == "" && !a.hasPort }

func (a Addr) Equal(val any) bool {
	return Equal(val, func(other Addr) bool {
		return util.EqFold(a.host, other.host) && a.port == other.port && a.hasPort == other.hasPort
	})
}
