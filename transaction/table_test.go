package transaction_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/log"
	"github.com/ghettovoice/sipstack/sip"
	"github.com/ghettovoice/sipstack/sip/sipmock"
	"github.com/ghettovoice/sipstack/transaction"
	"github.com/ghettovoice/sipstack/uri"
)

var (
	aliceURI = uri.MustParseSIP("sip:alice@atlanta.example.com")
	bobURI   = uri.MustParseSIP("sip:bob@biloxi.example.com")
)

type fixture struct {
	tp    *sipmock.MockTransport
	lis   *sipmock.MockListener
	table *transaction.Table
	stack *sip.Stack
	prov  *sip.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithTimeout(t, 0)
}

func newFixtureWithTimeout(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		tp:  sipmock.NewMockTransport(ctrl),
		lis: sipmock.NewMockListener(ctrl),
	}

	var err error
	f.table, err = transaction.NewTable(&transaction.TableOptions{Transport: f.tp, Timeout: timeout, Log: log.Noop})
	if err != nil {
		t.Fatalf("transaction.NewTable() error = %v, want nil", err)
	}
	t.Cleanup(func() { f.table.Close() })
	f.stack, err = sip.NewStack(&sip.StackOptions{
		TransactionStack: f.table,
		Transport:        f.tp,
		Log:              log.Noop,
	})
	if err != nil {
		t.Fatalf("sip.NewStack() error = %v, want nil", err)
	}

	ep := f.stack.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{Host: "192.0.2.4", Transport: "udp"})
	f.tp.EXPECT().Bind(gomock.Any(), ep).Return(nil)
	f.prov, err = f.stack.CreateProvider(t.Context(), ep, nil)
	if err != nil {
		t.Fatalf("stack.CreateProvider() error = %v, want nil", err)
	}
	if err := f.prov.AddListener(f.lis); err != nil {
		t.Fatalf("prov.AddListener() error = %v, want nil", err)
	}
	if err := f.prov.Start(t.Context()); err != nil {
		t.Fatalf("prov.Start() error = %v, want nil", err)
	}
	return f
}

// expectSend expects one message sent to dst and stores it into got.
func (f *fixture) expectSend(dst string, got *sip.Message) *gomock.Call {
	return f.tp.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *sip.MessageContext) error {
			if msg.Destination.String() != dst {
				return errors.New("unexpected destination " + msg.Destination.String())
			}
			if got != nil {
				*got = msg.Message
			}
			return nil
		})
}

func newRequest(t *testing.T, method sip.RequestMethod, branch string) *sip.Request {
	t.Helper()

	req, err := sip.DefaultMessageFactory{}.NewRequest(&sip.RequestFields{
		Method: method,
		URI:    bobURI,
		CallID: "a84b4c76e66710@pc33.atlanta.example.com",
		CSeq:   header.CSeq{SeqNum: 1, Method: method},
		From: header.From{
			URI:    aliceURI,
			Params: uri.NewParams("tag", "1928301774"),
		},
		To: header.To{URI: bobURI},
		Via: header.Via{
			{
				Proto:     sip.ProtoVer20,
				Transport: "UDP",
				Addr:      uri.HostPort("pc33.atlanta.example.com", 5060),
				Params:    uri.NewParams("branch", branch),
			},
		},
		MaxForwards: 70,
	})
	if err != nil {
		t.Fatalf("factory.NewRequest() error = %v, want nil", err)
	}
	return req
}

func newResponse(t *testing.T, req *sip.Request, status sip.ResponseStatus) *sip.Response {
	t.Helper()

	fields := &sip.ResponseFields{Status: status}
	fields.CallID, _ = req.Headers.CallID()
	fields.CSeq, _ = req.Headers.CSeq()
	fields.From, _ = req.Headers.From()
	fields.To, _ = req.Headers.To()
	fields.Via, _ = req.Headers.Via()
	res, err := sip.DefaultMessageFactory{}.NewResponse(fields)
	if err != nil {
		t.Fatalf("factory.NewResponse() error = %v, want nil", err)
	}
	return res
}

func TestNewTable(t *testing.T) {
	t.Parallel()

	if _, err := transaction.NewTable(nil); !errors.Is(err, sip.ErrInvalidArgument) {
		t.Errorf("transaction.NewTable(nil) error = %v, want %v", err, sip.ErrInvalidArgument)
	}
}

func TestTable_ProcessRequest(t *testing.T) {
	t.Parallel()

	t.Run("send", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		req := newRequest(t, sip.RequestMethodInvite, "z9hG4bKnashds8")

		var sent sip.Message
		f.expectSend("biloxi.example.com:5060", &sent)

		txID, err := f.prov.SendRequest(t.Context(), req)
		if err != nil {
			t.Fatalf("prov.SendRequest() error = %v, want nil", err)
		}
		if txID == "" {
			t.Fatal("prov.SendRequest() = empty id, want allocated id")
		}
		if sent == nil || sent.Render(nil) != req.Render(nil) {
			t.Errorf("sent message = %v, want %v", sent, req)
		}

		st, err := f.table.ClientTransaction(t.Context(), txID)
		if err != nil {
			t.Fatalf("table.ClientTransaction() error = %v, want nil", err)
		}
		if st.OriginalRequest != sent || st.MostRecentResponse != nil || st.FinalResponse != nil {
			t.Errorf("table.ClientTransaction() = %+v, want original request only", st)
		}
		if c, s := f.table.Len(); c != 1 || s != 0 {
			t.Errorf("table.Len() = (%d, %d), want (1, 0)", c, s)
		}
	})

	t.Run("allocated id", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.expectSend("biloxi.example.com:5060", nil)

		want := f.prov.AllocateTransactionID(t.Context())
		got, err := f.prov.SendRequestWithID(t.Context(), want, newRequest(t, sip.RequestMethodOptions, "z9hG4bKopt1"))
		if err != nil {
			t.Fatalf("prov.SendRequestWithID() error = %v, want nil", err)
		}
		if got != want {
			t.Errorf("prov.SendRequestWithID() = %q, want %q", got, want)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.expectSend("biloxi.example.com:5060", nil)

		req := newRequest(t, sip.RequestMethodInvite, "z9hG4bKdup")
		if _, err := f.table.ProcessRequest(t.Context(), req, f.prov, ""); err != nil {
			t.Fatalf("table.ProcessRequest() error = %v, want nil", err)
		}
		if _, err := f.table.ProcessRequest(t.Context(), req, f.prov, ""); !errors.Is(err, sip.ErrInvalidArgument) {
			t.Errorf("table.ProcessRequest() error = %v, want %v", err, sip.ErrInvalidArgument)
		}
	})

	t.Run("concurrent duplicate id", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.expectSend("biloxi.example.com:5060", nil)

		txID := f.prov.AllocateTransactionID(t.Context())
		var (
			wg sync.WaitGroup
			ok atomic.Int32
		)
		for _, branch := range []string{"z9hG4bKrace1", "z9hG4bKrace2", "z9hG4bKrace3", "z9hG4bKrace4"} {
			req := newRequest(t, sip.RequestMethodInvite, branch)
			wg.Go(func() {
				if _, err := f.table.ProcessRequest(t.Context(), req, f.prov, txID); err == nil {
					ok.Add(1)
				} else if !errors.Is(err, sip.ErrInvalidArgument) {
					t.Errorf("table.ProcessRequest() error = %v, want %v", err, sip.ErrInvalidArgument)
				}
			})
		}
		wg.Wait()

		if got := ok.Load(); got != 1 {
			t.Errorf("succeeded sends = %d, want 1", got)
		}
		if c, _ := f.table.Len(); c != 1 {
			t.Errorf("table client transactions = %d, want 1", c)
		}
	})

	t.Run("ack", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		req := newRequest(t, sip.RequestMethodAck, "z9hG4bKack")
		if _, err := f.table.ProcessRequest(t.Context(), req, f.prov, ""); !errors.Is(err, sip.ErrInvalidArgument) {
			t.Errorf("table.ProcessRequest() error = %v, want %v", err, sip.ErrInvalidArgument)
		}
	})

	t.Run("send error", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		errSend := errors.New("network unreachable")
		f.tp.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errSend)

		txID := f.prov.AllocateTransactionID(t.Context())
		_, err := f.table.ProcessRequest(t.Context(), newRequest(t, sip.RequestMethodInvite, "z9hG4bKerr"), f.prov, txID)
		if !errors.Is(err, errSend) {
			t.Fatalf("table.ProcessRequest() error = %v, want %v", err, errSend)
		}
		if _, err := f.table.ClientTransaction(t.Context(), txID); !errors.Is(err, sip.ErrTransactionNotFound) {
			t.Errorf("table.ClientTransaction() error = %v, want %v", err, sip.ErrTransactionNotFound)
		}
	})
}

func TestTable_ReceiveResponse(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.expectSend("biloxi.example.com:5060", nil)

	req := newRequest(t, sip.RequestMethodInvite, "z9hG4bK74bf9")
	txID, err := f.prov.SendRequest(t.Context(), req)
	if err != nil {
		t.Fatalf("prov.SendRequest() error = %v, want nil", err)
	}

	var events []*sip.ResponseEvent
	f.lis.EXPECT().OnResponse(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev *sip.ResponseEvent) { events = append(events, ev) }).
		Times(2)

	ringing := newResponse(t, req, sip.ResponseStatusRinging)
	if got, err := f.table.ReceiveResponse(t.Context(), ringing); err != nil || got != txID {
		t.Fatalf("table.ReceiveResponse(180) = (%q, %v), want (%q, nil)", got, err, txID)
	}
	st, _ := f.table.ClientTransaction(t.Context(), txID)
	if st.MostRecentResponse != ringing || st.FinalResponse != nil {
		t.Errorf("table.ClientTransaction() = %+v, want provisional response only", st)
	}

	ok := newResponse(t, req, sip.ResponseStatusOK)
	if _, err := f.table.ReceiveResponse(t.Context(), ok); err != nil {
		t.Fatalf("table.ReceiveResponse(200) error = %v, want nil", err)
	}
	st, _ = f.table.ClientTransaction(t.Context(), txID)
	if st.MostRecentResponse != ok || st.FinalResponse != ok {
		t.Errorf("table.ClientTransaction() = %+v, want final response", st)
	}

	if len(events) != 2 {
		t.Fatalf("dispatched %d events, want 2", len(events))
	}
	for i, ev := range events {
		if ev.Source != f.prov || ev.TransactionID != txID {
			t.Errorf("event[%d] = {%v, %q}, want {%v, %q}", i, ev.Source, ev.TransactionID, f.prov, txID)
		}
	}

	t.Run("stray", func(t *testing.T) {
		t.Parallel()

		stray := newResponse(t, newRequest(t, sip.RequestMethodInvite, "z9hG4bKstray"), sip.ResponseStatusOK)
		if _, err := f.table.ReceiveResponse(t.Context(), stray); !errors.Is(err, sip.ErrTransactionNotFound) {
			t.Errorf("table.ReceiveResponse() error = %v, want %v", err, sip.ErrTransactionNotFound)
		}
	})

	t.Run("method mismatch", func(t *testing.T) {
		t.Parallel()

		other := newResponse(t, newRequest(t, sip.RequestMethodCancel, "z9hG4bK74bf9"), sip.ResponseStatusOK)
		if _, err := f.table.ReceiveResponse(t.Context(), other); !errors.Is(err, sip.ErrTransactionNotFound) {
			t.Errorf("table.ReceiveResponse() error = %v, want %v", err, sip.ErrTransactionNotFound)
		}
	})
}

func TestTable_ReceiveRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	req := newRequest(t, sip.RequestMethodInvite, "z9hG4bKsrv1")

	var got *sip.RequestEvent
	f.lis.EXPECT().OnRequest(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev *sip.RequestEvent) { got = ev })

	txID, err := f.table.ReceiveRequest(t.Context(), f.prov, req)
	if err != nil {
		t.Fatalf("table.ReceiveRequest() error = %v, want nil", err)
	}
	if got == nil || got.TransactionID != txID || got.Request != req {
		t.Fatalf("dispatched event = %v, want request of transaction %q", got, txID)
	}

	// retransmission before any response is absorbed
	if again, err := f.table.ReceiveRequest(t.Context(), f.prov, req.Clone()); err != nil || again != txID {
		t.Fatalf("table.ReceiveRequest(retransmission) = (%q, %v), want (%q, nil)", again, err, txID)
	}

	var sent sip.Message
	f.expectSend("pc33.atlanta.example.com:5060", &sent).Times(2)
	if err := f.prov.Respond(t.Context(), txID, sip.ResponseStatusRinging, &sip.ResponseOptions{ToTag: "a6c85cf"}); err != nil {
		t.Fatalf("prov.Respond() error = %v, want nil", err)
	}
	st, err := f.table.ServerTransaction(t.Context(), txID)
	if err != nil {
		t.Fatalf("table.ServerTransaction() error = %v, want nil", err)
	}
	if st.MostRecentResponse == nil || st.MostRecentResponse != sent {
		t.Errorf("table.ServerTransaction().MostRecentResponse = %v, want %v", st.MostRecentResponse, sent)
	}

	// retransmission after a response is answered with it
	if _, err := f.table.ReceiveRequest(t.Context(), f.prov, req.Clone()); err != nil {
		t.Fatalf("table.ReceiveRequest(retransmission) error = %v, want nil", err)
	}

	f.lis.EXPECT().OnRequest(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev *sip.RequestEvent) { got = ev })
	ack := newRequest(t, sip.RequestMethodAck, "z9hG4bKsrv1")
	if ackID, err := f.table.ReceiveRequest(t.Context(), f.prov, ack); err != nil || ackID != txID {
		t.Fatalf("table.ReceiveRequest(ACK) = (%q, %v), want (%q, nil)", ackID, err, txID)
	}
	if got.Request != ack {
		t.Errorf("dispatched request = %v, want %v", got.Request, ack)
	}
}

func TestTable_ReceiveRequest_StoppedProvider(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.prov.Stop(t.Context()); err != nil {
		t.Fatalf("prov.Stop() error = %v, want nil", err)
	}

	_, err := f.table.ReceiveRequest(t.Context(), f.prov, newRequest(t, sip.RequestMethodOptions, "z9hG4bKstop"))
	if !errors.Is(err, sip.ErrProviderStopped) {
		t.Errorf("table.ReceiveRequest() error = %v, want %v", err, sip.ErrProviderStopped)
	}
	if c, s := f.table.Len(); c != 0 || s != 0 {
		t.Errorf("table.Len() = (%d, %d), want (0, 0)", c, s)
	}
}

func TestTable_Expire(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.expectSend("biloxi.example.com:5060", nil)

	txID, err := f.prov.SendRequest(t.Context(), newRequest(t, sip.RequestMethodOptions, "z9hG4bKexp"))
	if err != nil {
		t.Fatalf("prov.SendRequest() error = %v, want nil", err)
	}

	var got *sip.TimeoutEvent
	f.lis.EXPECT().OnTimeout(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev *sip.TimeoutEvent) { got = ev })

	if err := f.table.Expire(t.Context(), txID, false); err != nil {
		t.Fatalf("table.Expire() error = %v, want nil", err)
	}
	want := sip.TimeoutEvent{Source: f.prov, TransactionID: txID, Timeout: sip.TimeoutTransaction}
	if got == nil || *got != want {
		t.Errorf("dispatched event = %+v, want %+v", got, want)
	}

	if _, err := f.table.ClientTransaction(t.Context(), txID); !errors.Is(err, sip.ErrTransactionNotFound) {
		t.Errorf("table.ClientTransaction() error = %v, want %v", err, sip.ErrTransactionNotFound)
	}
	if err := f.table.Expire(t.Context(), txID, false); !errors.Is(err, sip.ErrTransactionNotFound) {
		t.Errorf("table.Expire() error = %v, want %v", err, sip.ErrTransactionNotFound)
	}
	if _, err := f.prov.SendCancel(t.Context(), txID); !errors.Is(err, sip.ErrTransactionNotFound) {
		t.Errorf("prov.SendCancel() error = %v, want %v", err, sip.ErrTransactionNotFound)
	}
}

func TestTable_Timeout(t *testing.T) {
	t.Parallel()

	f := newFixtureWithTimeout(t, 20*time.Millisecond)
	f.expectSend("biloxi.example.com:5060", nil)

	fired := make(chan *sip.TimeoutEvent, 1)
	f.lis.EXPECT().OnTimeout(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev *sip.TimeoutEvent) { fired <- ev })

	txID, err := f.prov.SendRequest(t.Context(), newRequest(t, sip.RequestMethodInvite, "z9hG4bKtmr"))
	if err != nil {
		t.Fatalf("prov.SendRequest() error = %v, want nil", err)
	}

	select {
	case ev := <-fired:
		if ev.TransactionID != txID || ev.IsServer || ev.Timeout != sip.TimeoutTransaction {
			t.Errorf("dispatched event = %+v, want client transaction timeout of %q", ev, txID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transaction did not time out")
	}
	if _, err := f.table.ClientTransaction(t.Context(), txID); !errors.Is(err, sip.ErrTransactionNotFound) {
		t.Errorf("table.ClientTransaction() error = %v, want %v", err, sip.ErrTransactionNotFound)
	}
}

func TestTable_Terminate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.lis.EXPECT().OnRequest(gomock.Any(), gomock.Any())

	txID, err := f.table.ReceiveRequest(t.Context(), f.prov, newRequest(t, sip.RequestMethodOptions, "z9hG4bKterm"))
	if err != nil {
		t.Fatalf("table.ReceiveRequest() error = %v, want nil", err)
	}
	if !f.table.Terminate(txID, true) {
		t.Fatalf("table.Terminate(%q) = false, want true", txID)
	}
	if _, err := f.table.ServerTransaction(t.Context(), txID); !errors.Is(err, sip.ErrTransactionNotFound) {
		t.Errorf("table.ServerTransaction() error = %v, want %v", err, sip.ErrTransactionNotFound)
	}
	if f.table.Terminate(txID, true) {
		t.Errorf("table.Terminate(%q) = true, want false", txID)
	}
}

func TestTable_Close(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.expectSend("biloxi.example.com:5060", nil)
	if _, err := f.prov.SendRequest(t.Context(), newRequest(t, sip.RequestMethodInvite, "z9hG4bKcls")); err != nil {
		t.Fatalf("prov.SendRequest() error = %v, want nil", err)
	}

	if err := f.table.Close(); err != nil {
		t.Fatalf("table.Close() error = %v, want nil", err)
	}
	if c, s := f.table.Len(); c != 0 || s != 0 {
		t.Errorf("table.Len() = (%d, %d), want (0, 0)", c, s)
	}
	req := newRequest(t, sip.RequestMethodInvite, "z9hG4bKcls2")
	if _, err := f.table.ProcessRequest(t.Context(), req, f.prov, ""); !errors.Is(err, transaction.ErrTableClosed) {
		t.Errorf("table.ProcessRequest() error = %v, want %v", err, transaction.ErrTableClosed)
	}
}

func TestTable_LargeRequest(t *testing.T) {
	t.Parallel()

	newLargeRequest := func(t *testing.T, branch string) *sip.Request {
		t.Helper()
		req := newRequest(t, sip.RequestMethodInvite, branch)
		req.Body = []byte(strings.Repeat("a", 3000))
		return req
	}
	bindTCP := func(t *testing.T, f *fixture) sip.ListeningEndpoint {
		t.Helper()
		ep := f.stack.NewListeningEndpoint(t.Context(), &sip.EndpointConfig{Host: "192.0.2.4", Transport: "tcp"})
		f.tp.EXPECT().Bind(gomock.Any(), ep).Return(nil)
		if _, err := f.stack.CreateProvider(t.Context(), ep, nil); err != nil {
			t.Fatalf("stack.CreateProvider() error = %v, want nil", err)
		}
		return ep
	}
	type sent struct {
		ep        sip.ListeningEndpoint
		transport sip.TransportProto
		branch    string
	}
	capture := func(got *[]sent, err error) func(context.Context, *sip.MessageContext) error {
		return func(_ context.Context, msg *sip.MessageContext) error {
			req := msg.Message.(*sip.Request) //nolint:forcetypeassert
			via, _ := req.Headers.Via()
			*got = append(*got, sent{ep: msg.Endpoint, transport: via[0].Transport, branch: via[0].Branch()})
			return err
		}
	}

	t.Run("moved to tcp", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tcpEp := bindTCP(t, f)
		req := newLargeRequest(t, "z9hG4bKbig1")

		var got []sent
		f.tp.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&got, nil))

		txID, err := f.table.ProcessRequest(t.Context(), req, f.prov, "")
		if err != nil {
			t.Fatalf("table.ProcessRequest() error = %v, want nil", err)
		}
		if len(got) != 1 || !got[0].ep.Equal(tcpEp) || got[0].transport != sip.TransportTCP || got[0].branch != "z9hG4bKbig1" {
			t.Errorf("sent = %+v, want one TCP request from %v", got, tcpEp)
		}
		// the caller request is not changed
		if via, _ := req.Headers.Via(); via[0].Transport != "UDP" {
			t.Errorf("request Via transport = %q, want %q", via[0].Transport, "UDP")
		}

		// the response to the TCP request still matches the transaction
		f.lis.EXPECT().OnResponse(gomock.Any(), gomock.Any())
		if got, err := f.table.ReceiveResponse(t.Context(), newResponse(t, req, 180)); err != nil || got != txID {
			t.Errorf("table.ReceiveResponse() = (%q, %v), want (%q, nil)", got, err, txID)
		}
	})

	t.Run("revert to udp", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		tcpEp := bindTCP(t, f)

		var got []sent
		gomock.InOrder(
			f.tp.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&got, errors.New("connection refused"))),
			f.tp.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&got, nil)),
		)

		if _, err := f.table.ProcessRequest(t.Context(), newLargeRequest(t, "z9hG4bKbig2"), f.prov, ""); err != nil {
			t.Fatalf("table.ProcessRequest() error = %v, want nil", err)
		}
		if len(got) != 2 || !got[0].ep.Equal(tcpEp) || !got[1].ep.Equal(f.prov.Endpoint()) || got[1].transport != "UDP" {
			t.Errorf("sent = %+v, want TCP attempt then UDP", got)
		}
	})

	t.Run("small request", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		bindTCP(t, f)

		var got []sent
		f.tp.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&got, nil))

		if _, err := f.table.ProcessRequest(t.Context(), newRequest(t, sip.RequestMethodInvite, "z9hG4bKsmall"), f.prov, ""); err != nil {
			t.Fatalf("table.ProcessRequest() error = %v, want nil", err)
		}
		if len(got) != 1 || !got[0].ep.Equal(f.prov.Endpoint()) {
			t.Errorf("sent = %+v, want one request from %v", got, f.prov.Endpoint())
		}
	})

	t.Run("no tcp endpoint", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		var got []sent
		f.tp.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&got, nil))

		if _, err := f.table.ProcessRequest(t.Context(), newLargeRequest(t, "z9hG4bKbig3"), f.prov, ""); err != nil {
			t.Fatalf("table.ProcessRequest() error = %v, want nil", err)
		}
		if len(got) != 1 || !got[0].ep.Equal(f.prov.Endpoint()) || got[0].transport != "UDP" {
			t.Errorf("sent = %+v, want one UDP request from %v", got, f.prov.Endpoint())
		}
	})
}

func TestTable_Dialog(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var invite sip.Message
	f.expectSend("biloxi.example.com:5060", &invite)
	txID, err := f.prov.SendRequest(t.Context(), newRequest(t, sip.RequestMethodInvite, "z9hG4bKdlg"))
	if err != nil {
		t.Fatalf("prov.SendRequest() error = %v, want nil", err)
	}

	res := newResponse(t, invite.(*sip.Request), sip.ResponseStatusOK) //nolint:forcetypeassert
	to, _ := res.Headers.To()
	res.Headers.Set(to.WithTag("a6c85cf"))
	res.Headers.Append(header.Contact{{URI: uri.MustParseSIP("sip:bob@192.0.2.10:5060")}})

	f.lis.EXPECT().OnResponse(gomock.Any(), gomock.Any())
	if got, err := f.table.ReceiveResponse(t.Context(), res); err != nil || got != txID {
		t.Fatalf("table.ReceiveResponse() = (%q, %v), want (%q, nil)", got, err, txID)
	}

	var ack sip.Message
	f.expectSend("192.0.2.10:5060", &ack)
	if _, err := f.prov.SendAck(t.Context(), txID, nil); err != nil {
		t.Fatalf("prov.SendAck() error = %v, want nil", err)
	}
	ackReq := ack.(*sip.Request) //nolint:forcetypeassert
	if got, want := ackReq.URI.String(), "sip:bob@192.0.2.10:5060"; got != want {
		t.Errorf("ACK request-URI = %q, want %q", got, want)
	}
	if cseq, _ := ackReq.Headers.CSeq(); cseq.SeqNum != 1 || !cseq.Method.Equal(sip.RequestMethodAck) {
		t.Errorf("ACK CSeq = %v, want 1 ACK", cseq)
	}
	if via, _ := ackReq.Headers.Via(); via[0].Branch() != "z9hG4bKdlg" {
		t.Errorf("ACK branch = %q, want %q", via[0].Branch(), "z9hG4bKdlg")
	}

	var bye sip.Message
	f.expectSend("192.0.2.10:5060", &bye)
	byeID, err := f.prov.SendBye(t.Context(), txID, false)
	if err != nil {
		t.Fatalf("prov.SendBye() error = %v, want nil", err)
	}
	if byeID == txID {
		t.Errorf("prov.SendBye() = %q, want new transaction", byeID)
	}
	byeReq := bye.(*sip.Request) //nolint:forcetypeassert
	if cseq, _ := byeReq.Headers.CSeq(); cseq.SeqNum != 2 || !cseq.Method.Equal(sip.RequestMethodBye) {
		t.Errorf("BYE CSeq = %v, want 2 BYE", cseq)
	}
	if to, _ := byeReq.Headers.To(); to.Tag() != "a6c85cf" {
		t.Errorf("BYE To tag = %q, want %q", to.Tag(), "a6c85cf")
	}
	if via, _ := byeReq.Headers.Via(); via[0].Branch() == "z9hG4bKdlg" || via[0].Branch() == "" {
		t.Errorf("BYE branch = %q, want a new branch", via[0].Branch())
	}
	if c, _ := f.table.Len(); c != 2 {
		t.Errorf("table client transactions = %d, want 2", c)
	}
}
