package sip

import (
	"context"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/internal/types"
	"github.com/ghettovoice/sipstack/uri"
)

// TransactionState is a snapshot of the messages of a transaction.
type TransactionState struct {
	OriginalRequest    *Request
	MostRecentResponse *Response // nil until the first response
	FinalResponse      *Response // nil until a final response
}

// TransactionStack performs request and response routing and owns the transaction state.
//
// Implementations must be safe for concurrent use.
type TransactionStack interface {
	// ProcessRequest starts a client transaction for the request sent by the provider.
	// The transaction is identified by txID when it is not empty,
	// otherwise a new identifier is allocated. The identifier in use is returned.
	ProcessRequest(ctx context.Context, req *Request, prov *Provider, txID TransactionID) (TransactionID, error)
	// ProcessResponse sends the response within the server transaction.
	ProcessResponse(ctx context.Context, res *Response, txID TransactionID) error
	// ProcessAckForTransaction sends the ACK within the INVITE client transaction.
	ProcessAckForTransaction(ctx context.Context, txID TransactionID, ack *Request) error
	// SendStatelessRequest sends the request once, without creating a transaction.
	SendStatelessRequest(ctx context.Context, req *Request, prov *Provider) error
	// ClientTransaction returns the state of the client transaction
	// or an error matching [ErrTransactionNotFound].
	ClientTransaction(ctx context.Context, txID TransactionID) (TransactionState, error)
	// ServerTransaction returns the state of the server transaction
	// or an error matching [ErrTransactionNotFound].
	ServerTransaction(ctx context.Context, txID TransactionID) (TransactionState, error)
	// AllocateTransactionID reserves a new transaction identifier.
	AllocateTransactionID(ctx context.Context) TransactionID
}

// MessageContext is an outbound message with its routing information.
type MessageContext struct {
	Message     Message
	Endpoint    ListeningEndpoint // local endpoint the message is sent from
	Destination Addr              // remote address, always with port
}

// Transport binds listening endpoints and sends messages without transaction state.
//
// Implementations must be safe for concurrent use.
type Transport interface {
	Bind(ctx context.Context, ep ListeningEndpoint) error
	Unbind(ctx context.Context, ep ListeningEndpoint) error
	Send(ctx context.Context, msg *MessageContext) error
}

// RequestDestination returns the address the request is sent to:
// the first Route hop if any, otherwise the request-URI.
// The maddr parameter overrides the host, absent port defaults by the URI scheme.
func RequestDestination(req *Request) (Addr, error) {
	if req == nil {
		return Addr{}, errtrace.Wrap(NewInvalidArgumentError("nil request"))
	}

	target := req.URI
	if route, ok := req.Headers.Route(); ok && len(route) > 0 {
		target = route[0].URI
	}
	u, ok := asSIPURI(target)
	if !ok {
		return Addr{}, errtrace.Wrap(NewInvalidArgumentError("unsupported target URI %v", target))
	}

	addr := u.Addr
	if maddr, ok := u.Params.Get("maddr"); ok && maddr != "" {
		addr = types.Host(maddr)
		if p, ok := u.Addr.Port(); ok {
			addr = addr.WithPort(p)
		}
	}
	if _, ok := addr.Port(); !ok {
		addr = addr.WithPort(defaultPort(u.Secured || strings.EqualFold(u.Transport(), "tls")))
	}
	return addr, nil
}

// ResponseDestination returns the address the response is sent to following RFC 3261 §18.2.2
// and RFC 3581: maddr of the top Via, then received and rport, then sent-by.
func ResponseDestination(res *Response) (Addr, error) {
	if res == nil {
		return Addr{}, errtrace.Wrap(NewInvalidArgumentError("nil response"))
	}

	via, ok := res.Headers.Via()
	if !ok {
		return Addr{}, errtrace.Wrap(newMalformedRequestError("response has no Via"))
	}
	hop, _ := via.Top()

	port, ok := hop.Addr.Port()
	if !ok {
		port = defaultPort(hop.Transport.Equal(TransportTLS))
	}
	if maddr := hop.MAddr(); maddr != "" {
		return types.HostPort(maddr, port), nil
	}

	host := hop.Addr.Host()
	if rcvd := hop.Received(); rcvd != "" {
		host = rcvd
	}
	if rport, ok := hop.RPort(); ok {
		port = rport
	}
	return types.HostPort(host, port), nil
}

func defaultPort(secure bool) uint16 {
	if secure {
		return DefaultTLSPort
	}
	return DefaultPort
}

func asSIPURI(u URI) (uri.SIP, bool) {
	switch v := u.(type) {
	case uri.SIP:
		return v, true
	case *uri.SIP:
		if v != nil {
			return *v, true
		}
	}
	return uri.SIP{}, false
}

// reverseRoute builds Route hops from Record-Route in reverse order.
func reverseRoute(rr header.RecordRoute) []header.NameAddr {
	hops := make([]header.NameAddr, len(rr))
	for i, na := range rr {
		hops[len(rr)-1-i] = na
	}
	return hops
}
