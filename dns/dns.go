// Package dns provides the resolver used to turn configured host names into bindable values.
package dns

//go:generate errtrace -w .

import (
	"context"
	"net"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/miekg/dns"
)

// Resolver wraps net.Resolver with reverse lookups against an explicit name server.
type Resolver struct {
	net.Resolver

	// NameServer specifies the DNS server address (e.g., "8.8.8.8:53") used for PTR queries.
	// If empty, the first server from /etc/resolv.conf is used.
	NameServer string
	// Timeout specifies the timeout for DNS queries.
	// If zero, defaults to 5 seconds.
	Timeout time.Duration
}

// LookupIP looks up host addresses, IPv4 addresses are returned in 4-byte form.
func (r *Resolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	ips, err := r.Resolver.LookupIP(ctx, network, host)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	for i, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			ips[i] = ip4
		}
	}
	return ips, nil
}

// LookupPTR returns the names pointing to ip, without the trailing dot.
func (r *Resolver) LookupPTR(ctx context.Context, ip net.IP) ([]string, error) {
	arpa, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	m := new(dns.Msg)
	m.SetQuestion(arpa, dns.TypePTR)
	m.RecursionDesired = true

	nameserver, err := r.nameserver()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	client := &dns.Client{Timeout: r.timeout()}
	resp, _, err := client.ExchangeContext(ctx, m, nameserver)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:        dns.RcodeToString[resp.Rcode],
			Name:       ip.String(),
			IsNotFound: resp.Rcode == dns.RcodeNameError,
		})
	}

	names := make([]string, 0, len(resp.Answer))
	for _, ans := range resp.Answer {
		if rr, ok := ans.(*dns.PTR); ok {
			names = append(names, strings.TrimSuffix(rr.Ptr, "."))
		}
	}
	if len(names) == 0 {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:        "no PTR records",
			Name:       ip.String(),
			IsNotFound: true,
		})
	}
	return names, nil
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 5 * time.Second
}

func (r *Resolver) nameserver() (string, error) {
	if r.NameServer != "" {
		if _, _, err := net.SplitHostPort(r.NameServer); err != nil {
			return net.JoinHostPort(r.NameServer, "53"), nil //nolint:nilerr
		}
		return r.NameServer, nil
	}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	if len(conf.Servers) == 0 {
		return "", errtrace.Wrap(&net.DNSError{
			Err:  "no DNS servers configured",
			Name: "resolv.conf",
		})
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}

var defResolver = &Resolver{}

// DefaultResolver returns the resolver backed by the system configuration.
func DefaultResolver() *Resolver { return defResolver }

func LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return errtrace.Wrap2(defResolver.LookupIP(ctx, "ip", host))
}

func LookupPTR(ctx context.Context, ip net.IP) ([]string, error) {
	return errtrace.Wrap2(defResolver.LookupPTR(ctx, ip))
}
