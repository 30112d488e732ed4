// Package header provides immutable values of the SIP headers used by the provider layer:
// Via, From, To, Call-ID, CSeq, Route, Record-Route, Contact, Content-Type, Content-Length,
// Max-Forwards and a generic [Any] header for everything else.
//
// Headers are plain values. Single-valued headers are structs or named strings;
// multi-valued headers (Via, Route, Record-Route, Contact) are slices whose methods never
// modify the receiver. Parameters are immutable [types.Params], so a header copied
// from one message into another never aliases the source:
//
//	from := orig
//	from = from.WithTag("8d3f") // the original header is unchanged
//
// All header types implement the [Header] interface and render in RFC 3261 wire form.
package header

//go:generate errtrace -w .
