// Package grammar validates protocol elements against RFC 3261 ABNF rules.
package grammar

//go:generate errtrace -w .

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/ghettovoice/abnf"
)

func matchAll(op abnf.Operator, s []byte) bool {
	if len(s) == 0 {
		return false
	}

	ns := abnf.NewNodes()
	defer ns.Free()

	if err := op(s, 0, ns); err != nil {
		return false
	}
	return ns.Best().Len() == len(s)
}

// IsToken reports whether s is an RFC 3261 token.
func IsToken[T ~string | ~[]byte](s T) bool { return matchAll(token, []byte(s)) }

// IsHostname reports whether s is an RFC 3261 hostname.
func IsHostname[T ~string | ~[]byte](s T) bool {
	if !matchAll(hostname, []byte(s)) {
		return false
	}

	labels := strings.Split(strings.TrimSuffix(string(s), "."), ".")
	for _, l := range labels {
		if strings.HasSuffix(l, "-") {
			return false
		}
	}
	// toplabel starts with ALPHA, otherwise it is an IPv4 look-alike
	top := labels[len(labels)-1][0]
	return top >= 'a' && top <= 'z' || top >= 'A' && top <= 'Z'
}

// IsHost reports whether s is a hostname, an IPv4 address or an IPv6 address
// with or without brackets.
func IsHost[T ~string | ~[]byte](s T) bool {
	if _, ok := ParseIP(string(s)); ok {
		return true
	}
	return IsHostname(s)
}

// ParseIP parses IP literal, the brackets around IPv6 are optional.
func ParseIP(s string) (netip.Addr, bool) {
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
		ip, err := netip.ParseAddr(s)
		return ip, err == nil && ip.Is6()
	}
	ip, err := netip.ParseAddr(s)
	if err != nil || ip.Zone() != "" {
		return netip.Addr{}, false
	}
	return ip, true
}

func Quote(s string) string {
	return strconv.Quote(s)
}

func Unquote(s string) string {
	qs, err := strconv.Unquote(s)
	if err != nil {
		qs = s
	}
	return qs
}
