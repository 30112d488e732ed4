package sip_test

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/log"
	"github.com/ghettovoice/sipstack/sip"
	"github.com/ghettovoice/sipstack/sip/sipmock"
	"github.com/ghettovoice/sipstack/uri"
)

var (
	aliceURI = uri.MustParseSIP("sip:alice@atlanta.example.com")
	bobURI   = uri.MustParseSIP("sip:bob@biloxi.example.com")
	bobHost  = uri.MustParseSIP("sip:bob@host:5060")
	proxyA   = header.NameAddr{URI: uri.MustParseSIP("sip:p1.example.com;lr")}
	proxyB   = header.NameAddr{URI: uri.MustParseSIP("sip:p2.example.com;lr")}
)

type fixture struct {
	txs   *sipmock.MockTransactionStack
	tp    *sipmock.MockTransport
	stack *sip.Stack
	prov  *sip.Provider
}

// newFixture creates a stack with mocked collaborators and a running provider
// bound to 10.0.0.5:5060 over TCP.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		txs: sipmock.NewMockTransactionStack(ctrl),
		tp:  sipmock.NewMockTransport(ctrl),
	}

	var err error
	f.stack, err = sip.NewStack(&sip.StackOptions{
		TransactionStack: f.txs,
		Transport:        f.tp,
		Log:              log.Noop,
	})
	if err != nil {
		t.Fatalf("sip.NewStack() error = %v, want nil", err)
	}

	ep := f.stack.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{Host: "10.0.0.5", Transport: "tcp"})
	f.tp.EXPECT().Bind(gomock.Any(), ep).Return(nil)
	f.prov, err = f.stack.CreateProvider(t.Context(), ep, nil)
	if err != nil {
		t.Fatalf("stack.CreateProvider() error = %v, want nil", err)
	}
	if err := f.prov.Start(t.Context()); err != nil {
		t.Fatalf("prov.Start() error = %v, want nil", err)
	}
	return f
}

func newInvite(t *testing.T) *sip.Request {
	t.Helper()

	req, err := sip.DefaultMessageFactory{}.NewRequest(&sip.RequestFields{
		Method: sip.RequestMethodInvite,
		URI:    bobURI,
		CallID: "a84b4c76e66710@pc33.atlanta.example.com",
		CSeq:   header.CSeq{SeqNum: 314159, Method: sip.RequestMethodInvite},
		From: header.From{
			DisplayName: "Alice",
			URI:         aliceURI,
			Params:      uri.NewParams("tag", "1928301774"),
		},
		To: header.To{URI: bobURI},
		Via: header.Via{
			{
				Proto:     sip.ProtoVer20,
				Transport: "UDP",
				Addr:      uri.HostPort("pc33.atlanta.example.com", 5060),
				Params:    uri.NewParams("branch", "z9hG4bK776asdhds"),
			},
		},
		MaxForwards: 70,
	})
	if err != nil {
		t.Fatalf("factory.NewRequest() error = %v, want nil", err)
	}
	return req
}

type responseOpts struct {
	toTag       string
	contact     *header.NameAddr
	recordRoute header.RecordRoute
}

func newResponse(t *testing.T, req *sip.Request, status sip.ResponseStatus, opts responseOpts) *sip.Response {
	t.Helper()

	fields := &sip.ResponseFields{Status: status}
	fields.CallID, _ = req.Headers.CallID()
	fields.CSeq, _ = req.Headers.CSeq()
	fields.From, _ = req.Headers.From()
	fields.To, _ = req.Headers.To()
	fields.Via, _ = req.Headers.Via()
	if opts.toTag != "" {
		fields.To = fields.To.WithTag(opts.toTag)
	}
	res, err := sip.DefaultMessageFactory{}.NewResponse(fields)
	if err != nil {
		t.Fatalf("factory.NewResponse() error = %v, want nil", err)
	}
	if opts.contact != nil {
		res.Headers.Append(header.Contact{*opts.contact})
	}
	if len(opts.recordRoute) > 0 {
		res.Headers.Append(opts.recordRoute)
	}
	return res
}
