package uri

import (
	"io"
	"log/slog"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/util"
)

// SIP represents a SIP or SIPS URI.
type SIP struct {
	User    string // user part, may be empty
	Addr    Addr   // host and port
	Params  Params // URI parameters
	Headers Params // URI headers
	Secured bool   // sips scheme
}

// ParseSIP parses a SIP or SIPS URI.
// It handles the "sip:[user@]host[:port][;params][?headers]" form without escaping and password.
func ParseSIP(s string) (SIP, error) {
	var u SIP
	switch {
	case len(s) > 4 && util.EqFold(s[:4], "sip:"):
		s = s[4:]
	case len(s) > 5 && util.EqFold(s[:5], "sips:"):
		u.Secured = true
		s = s[5:]
	default:
		return SIP{}, errtrace.Wrap(errorutil.NewInvalidArgumentError("unsupported URI %q", s))
	}

	if i := strings.IndexByte(s, '?'); i >= 0 {
		for _, kv := range strings.Split(s[i+1:], "&") {
			name, val, _ := strings.Cut(kv, "=")
			u.Headers = u.Headers.With(name, val)
		}
		s = s[:i]
	}
	parts := strings.Split(s, ";")
	for _, kv := range parts[1:] {
		name, val, _ := strings.Cut(kv, "=")
		u.Params = u.Params.With(name, val)
	}
	s = parts[0]
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		u.User = s[:i]
		s = s[i+1:]
	}

	addr, err := ParseAddr(s)
	if err != nil {
		return SIP{}, errtrace.Wrap(err)
	}
	u.Addr = addr
	if !u.IsValid() {
		return SIP{}, errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid URI %q", s))
	}
	return u, nil
}

// MustParseSIP is like [ParseSIP] but panics on error.
func MustParseSIP(s string) SIP { return util.Must2(ParseSIP(s)) }

// Scheme returns the URI scheme.
func (u SIP) Scheme() string {
	if u.Secured {
		return "sips"
	}
	return "sip"
}

// Transport returns value of the transport parameter.
func (u SIP) Transport() string {
	v, _ := u.Params.Get("transport")
	return v
}

// RenderTo writes the URI to w.
func (u SIP) RenderTo(w io.Writer, _ *RenderOptions) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	cw.WriteString(u.Scheme())
	cw.WriteString(":")
	if u.User != "" {
		cw.WriteString(u.User)
		cw.WriteString("@")
	}
	cw.WriteString(u.Addr.String())
	cw.Call(func(w io.Writer) (int, error) { return u.Params.RenderTo(w, ";") })
	sep := "?"
	for name, val := range u.Headers.All() {
		cw.WriteString(sep)
		cw.WriteString(name)
		cw.WriteString("=")
		cw.WriteString(val)
		sep = "&"
	}
	return errtrace.Wrap2(cw.Result())
}

// Render renders the URI to a string.
func (u SIP) Render(opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	u.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

func (u SIP) String() string { return u.Render(nil) }

func (u SIP) LogValue() slog.Value { return slog.StringValue(u.String()) }

// Equal compares URIs following RFC 3261 §19.1.4: user part is case-sensitive,
// host is case-insensitive, parameters present in both URIs must match,
// and transport, user, method, ttl, maddr parameters must match when present in either one.
func (u SIP) Equal(val any) bool {
	var other SIP
	switch v := val.(type) {
	case SIP:
		other = v
	case *SIP:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	if u.Secured != other.Secured || u.User != other.User || !u.Addr.Equal(other.Addr) {
		return false
	}
	for name, val := range u.Params.All() {
		if ov, ok := other.Params.Get(name); ok && !util.EqFold(val, ov) {
			return false
		}
	}
	for _, name := range []string{"transport", "user", "method", "ttl", "maddr"} {
		if u.Params.Has(name) != other.Params.Has(name) {
			return false
		}
	}
	return u.Headers.Equal(other.Headers)
}

func (u SIP) IsValid() bool {
	return grammar.IsHost(u.Addr.Host()) && u.Params.IsValid() && u.Headers.IsValid()
}
