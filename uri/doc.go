// Package uri provides immutable values of SIP and SIPS URIs (RFC 3261 §19.1).
//
// A [SIP] is a plain struct whose parameters and headers are immutable
// [types.Params], so copying a SIP value never aliases the original:
//
//	u := uri.SIP{
//	    User:   "bob",
//	    Addr:   uri.HostPort("example.com", 5060),
//	    Params: uri.NewParams("transport", "tcp"),
//	}
//	u2 := u
//	u2.Params = u2.Params.With("lr", "") // u is unchanged
//
// [ParseSIP] builds a value from its textual form, it is intended for configuration
// and tests, not for parsing of network messages.
package uri

//go:generate errtrace -w .
