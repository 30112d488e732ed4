package sip

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/internal/errorutil"
)

// AckOptions are optional parts of an ACK built by [Provider.SendAck].
// Content-Type is added only when both ContentType and ContentSubtype are set.
type AckOptions struct {
	Body           []byte
	ContentType    string
	ContentSubtype string
}

// ResponseOptions are optional parts of a response built by [Provider.Respond].
type ResponseOptions struct {
	// Reason overrides the standard reason phrase.
	Reason ResponseReason
	// ToTag sets the To tag when the request has none.
	ToTag string
	// Body and content type, Content-Type is added only when both ContentType and ContentSubtype are set.
	Body           []byte
	ContentType    string
	ContentSubtype string
}

func (p *Provider) checkRunning() error {
	if !p.IsRunning() {
		return errtrace.Wrap(ErrProviderStopped)
	}
	return nil
}

func (p *Provider) sendFailed(ctx context.Context, op string, txID TransactionID, err error) error {
	p.metrics.SendFailed(op)
	p.log.LogAttrs(ctx, slog.LevelDebug, "send failed",
		slog.String("op", op),
		slog.String("transaction_id", string(txID)),
		slog.Any("error", err),
	)
	return err //errtrace:skip
}

// finalize assigns the From tag and the top Via branch when they are absent.
// The request is updated in place.
func (p *Provider) finalize(req *Request) error {
	via, ok := req.Headers.Via()
	if !ok || len(via) == 0 {
		return errtrace.Wrap(newMalformedRequestError("missing Via header"))
	}
	from, ok := req.Headers.From()
	if !ok {
		return errtrace.Wrap(newMalformedRequestError("missing From header"))
	}

	if from.Tag() == "" {
		req.Headers.Set(from.WithTag(GenerateTag()))
	}
	if top := via[0]; top.Branch() == "" {
		req.Headers.Set(via.WithTop(top.WithBranch(GenerateBranch())))
	}
	return nil
}

// NewRequest builds an out-of-dialog request from the provider endpoint:
// a Via hop with a new branch, a new Call-ID, CSeq 1 and a From tag.
func (p *Provider) NewRequest(method RequestMethod, target URI, from header.From, to header.To) (*Request, error) {
	if from.Tag() == "" {
		from = from.WithTag(GenerateTag())
	}
	req, err := p.stack.factory.NewRequest(&RequestFields{
		Method:      method,
		URI:         target,
		CallID:      header.CallID(p.NewCallID()),
		CSeq:        header.CSeq{SeqNum: 1, Method: method},
		From:        from,
		To:          to,
		Via:         header.Via{p.ep.ViaHop()},
		MaxForwards: DefaultMaxForwards,
	})
	return req, errtrace.Wrap(err)
}

// SendRequest sends the request in a new client transaction and returns its identifier.
// The From tag and the top Via branch are generated when absent.
func (p *Provider) SendRequest(ctx context.Context, req *Request) (TransactionID, error) {
	return errtrace.Wrap2(p.SendRequestWithID(ctx, "", req))
}

// SendRequestWithID is like [Provider.SendRequest], but uses the identifier reserved with
// [Provider.AllocateTransactionID]. Empty txID allocates a new one.
// The generated From tag and Via branch are written to req only when the send succeeds.
func (p *Provider) SendRequestWithID(ctx context.Context, txID TransactionID, req *Request) (TransactionID, error) {
	if req == nil {
		return "", errtrace.Wrap(NewInvalidArgumentError("nil request"))
	}
	if err := p.checkRunning(); err != nil {
		return "", errtrace.Wrap(err)
	}
	out := req.Clone()
	if err := p.finalize(out); err != nil {
		return "", errtrace.Wrap(p.sendFailed(ctx, "request", txID, err))
	}
	if txID == "" {
		txID = p.AllocateTransactionID(ctx)
	}

	id, err := p.stack.txs.ProcessRequest(ctx, out, p, txID)
	if err != nil {
		return "", errtrace.Wrap(p.sendFailed(ctx, "request", txID, err))
	}
	// the caller sees the generated tag and branch only after a successful send
	from, _ := out.Headers.From()
	via, _ := out.Headers.Via()
	req.Headers.Set(from, via)

	p.metrics.RequestSent(out.Method)
	p.log.LogAttrs(ctx, slog.LevelDebug, "request sent",
		slog.String("transaction_id", string(id)),
		slog.Any("request", out),
	)
	return id, nil
}

// SendAck builds an ACK for the final response of the client transaction and sends it once,
// outside of any transaction. It returns txID unchanged.
//
// The ACK reuses Call-ID, CSeq number and Via of the original request and From/To of the response.
// The request-URI is the response Contact, Route is the reversed Record-Route of the response.
func (p *Provider) SendAck(ctx context.Context, txID TransactionID, opts *AckOptions) (TransactionID, error) {
	if err := p.checkRunning(); err != nil {
		return "", errtrace.Wrap(err)
	}

	ack, err := p.buildAck(ctx, txID, opts)
	if err != nil {
		return "", errtrace.Wrap(p.sendFailed(ctx, "ack", txID, err))
	}
	if err := p.stack.txs.SendStatelessRequest(ctx, ack, p); err != nil {
		return "", errtrace.Wrap(p.sendFailed(ctx, "ack", txID, err))
	}
	p.metrics.RequestSent(RequestMethodAck)
	p.log.LogAttrs(ctx, slog.LevelDebug, "ACK sent",
		slog.String("transaction_id", string(txID)),
		slog.Any("request", ack),
	)
	return txID, nil
}

func (p *Provider) buildAck(ctx context.Context, txID TransactionID, opts *AckOptions) (*Request, error) {
	st, err := p.stack.txs.ClientTransaction(ctx, txID)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if st.FinalResponse == nil {
		return nil, errtrace.Wrap(newNoDialogError("transaction %q has no final response", txID))
	}
	orig, res := st.OriginalRequest, st.FinalResponse
	if orig == nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrTransactionNotFound, "transaction %q has no request", txID))
	}

	var target URI
	if contact, ok := res.Headers.Contact(); ok && len(contact) > 0 {
		target = contact[0].URI
	} else if orig.Method.Equal(RequestMethodInvite) {
		return nil, errtrace.Wrap(ErrMissingContact)
	} else {
		target = orig.URI
	}

	fields, err := p.inDialogFields(orig, res)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	fields.Method = RequestMethodAck
	fields.URI = target
	fields.CSeq.Method = RequestMethodAck
	if opts != nil {
		fields.Body = opts.Body
		if fields.ContentType, err = p.contentType(opts.ContentType, opts.ContentSubtype); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	return errtrace.Wrap2(p.stack.factory.NewRequest(fields))
}

// inDialogFields fills fields shared by ACK and BYE.
func (p *Provider) inDialogFields(orig *Request, res *Response) (*RequestFields, error) {
	fields := &RequestFields{MaxForwards: DefaultMaxForwards}
	fields.CallID, _ = orig.Headers.CallID()
	fields.CSeq, _ = orig.Headers.CSeq()
	fields.Via, _ = orig.Headers.Via()
	fields.From, _ = res.Headers.From()
	fields.To, _ = res.Headers.To()
	if rr, ok := res.Headers.RecordRoute(); ok && len(rr) > 0 {
		route, err := p.stack.factory.NewRoute(reverseRoute(rr)...)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		fields.Route = route
	}
	return fields, nil
}

func (p *Provider) contentType(typ, subtype string) (*header.ContentType, error) {
	if typ == "" || subtype == "" {
		return nil, nil
	}
	ct, err := p.stack.factory.NewContentType(typ, subtype)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &ct, nil
}

// SendAckRequest sends the caller-built ACK within the INVITE client transaction.
// The From tag and the top Via branch are generated when absent.
func (p *Provider) SendAckRequest(ctx context.Context, txID TransactionID, ack *Request) error {
	if ack == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil request"))
	}
	if err := p.checkRunning(); err != nil {
		return errtrace.Wrap(err)
	}
	if err := p.finalize(ack); err != nil {
		return errtrace.Wrap(p.sendFailed(ctx, "ack", txID, err))
	}
	if err := p.stack.txs.ProcessAckForTransaction(ctx, txID, ack); err != nil {
		return errtrace.Wrap(p.sendFailed(ctx, "ack", txID, err))
	}
	p.metrics.RequestSent(RequestMethodAck)
	return nil
}

// SendBye builds a BYE for the dialog established by the transaction and sends it
// in a new client transaction. serverSide selects a server transaction lookup.
//
// The dialog is established when the most recent response has a To tag, otherwise
// the error matches [ErrNoDialog] and nothing is sent. The BYE reuses Call-ID and Via
// of the original request with CSeq number incremented by one, and From/To of the response.
// Unlike the other headers, the top Via branch is not copied: it is always regenerated,
// since BYE starts a new transaction (RFC 3261 §8.1.1.7).
func (p *Provider) SendBye(ctx context.Context, txID TransactionID, serverSide bool) (TransactionID, error) {
	if err := p.checkRunning(); err != nil {
		return "", errtrace.Wrap(err)
	}

	bye, err := p.buildBye(ctx, txID, serverSide)
	if err != nil {
		return "", errtrace.Wrap(p.sendFailed(ctx, "bye", txID, err))
	}
	return errtrace.Wrap2(p.SendRequest(ctx, bye))
}

func (p *Provider) buildBye(ctx context.Context, txID TransactionID, serverSide bool) (*Request, error) {
	lookup := p.stack.txs.ClientTransaction
	if serverSide {
		lookup = p.stack.txs.ServerTransaction
	}
	st, err := lookup(ctx, txID)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	res, orig := st.MostRecentResponse, st.OriginalRequest
	if res == nil {
		return nil, errtrace.Wrap(newNoDialogError("transaction %q has no response", txID))
	}
	if to, ok := res.Headers.To(); !ok || to.Tag() == "" {
		return nil, errtrace.Wrap(newNoDialogError("response of transaction %q has no To tag", txID))
	}
	if orig == nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrTransactionNotFound, "transaction %q has no request", txID))
	}

	fields, err := p.inDialogFields(orig, res)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	fields.Method = RequestMethodBye
	fields.CSeq = header.CSeq{SeqNum: fields.CSeq.SeqNum + 1, Method: RequestMethodBye}
	if top, ok := fields.Via.Top(); ok {
		top.Params = top.Params.Without("branch")
		fields.Via = fields.Via.WithTop(top)
	}
	fields.URI = orig.URI
	if contact, ok := res.Headers.Contact(); ok && len(contact) > 0 {
		fields.URI = contact[0].URI
	}
	bye, err := p.stack.factory.NewRequest(fields)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return bye, nil
}

// SendCancel builds a CANCEL for the original request of the client transaction and sends
// it through [Provider.SendRequest] as an independent transaction.
// Call-ID, CSeq number, From, To, Via and Route are copied from the original request.
func (p *Provider) SendCancel(ctx context.Context, txID TransactionID) (TransactionID, error) {
	if err := p.checkRunning(); err != nil {
		return "", errtrace.Wrap(err)
	}

	cancel, err := p.buildCancel(ctx, txID)
	if err != nil {
		return "", errtrace.Wrap(p.sendFailed(ctx, "cancel", txID, err))
	}
	return errtrace.Wrap2(p.SendRequest(ctx, cancel))
}

func (p *Provider) buildCancel(ctx context.Context, txID TransactionID) (*Request, error) {
	st, err := p.stack.txs.ClientTransaction(ctx, txID)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	orig := st.OriginalRequest
	if orig == nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrTransactionNotFound, "transaction %q has no request", txID))
	}
	if orig.Method.Equal(RequestMethodAck) || orig.Method.Equal(RequestMethodCancel) {
		return nil, errtrace.Wrap(NewInvalidArgumentError("can not cancel %s request", orig.Method))
	}

	fields := &RequestFields{
		Method:      RequestMethodCancel,
		URI:         orig.URI,
		MaxForwards: DefaultMaxForwards,
	}
	fields.CallID, _ = orig.Headers.CallID()
	fields.CSeq, _ = orig.Headers.CSeq()
	fields.CSeq.Method = RequestMethodCancel
	fields.From, _ = orig.Headers.From()
	fields.To, _ = orig.Headers.To()
	fields.Via, _ = orig.Headers.Via()
	fields.Route, _ = orig.Headers.Route()
	return errtrace.Wrap2(p.stack.factory.NewRequest(fields))
}

// Respond builds a response to the original request of the server transaction and sends it
// with [Provider.SendResponse]. Call-ID, CSeq, From, To and Via are reused as is.
func (p *Provider) Respond(ctx context.Context, txID TransactionID, status ResponseStatus, opts *ResponseOptions) error {
	if err := p.checkRunning(); err != nil {
		return errtrace.Wrap(err)
	}

	res, err := p.buildResponse(ctx, txID, status, opts)
	if err != nil {
		return errtrace.Wrap(p.sendFailed(ctx, "response", txID, err))
	}
	return errtrace.Wrap(p.SendResponse(ctx, txID, res))
}

func (p *Provider) buildResponse(
	ctx context.Context,
	txID TransactionID,
	status ResponseStatus,
	opts *ResponseOptions,
) (*Response, error) {
	st, err := p.stack.txs.ServerTransaction(ctx, txID)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	orig := st.OriginalRequest
	if orig == nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrTransactionNotFound, "transaction %q has no request", txID))
	}

	fields := &ResponseFields{Status: status}
	fields.CallID, _ = orig.Headers.CallID()
	fields.CSeq, _ = orig.Headers.CSeq()
	fields.From, _ = orig.Headers.From()
	fields.To, _ = orig.Headers.To()
	fields.Via, _ = orig.Headers.Via()
	if opts != nil {
		fields.Reason = opts.Reason
		fields.Body = opts.Body
		if opts.ToTag != "" && fields.To.Tag() == "" {
			fields.To = fields.To.WithTag(opts.ToTag)
		}
		if fields.ContentType, err = p.contentType(opts.ContentType, opts.ContentSubtype); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	return errtrace.Wrap2(p.stack.factory.NewResponse(fields))
}

// SendResponse sends the response within the server transaction.
func (p *Provider) SendResponse(ctx context.Context, txID TransactionID, res *Response) error {
	if res == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil response"))
	}
	if err := p.checkRunning(); err != nil {
		return errtrace.Wrap(err)
	}
	if err := p.stack.txs.ProcessResponse(ctx, res, txID); err != nil {
		return errtrace.Wrap(p.sendFailed(ctx, "response", txID, err))
	}
	p.metrics.ResponseSent(res.Status)
	p.log.LogAttrs(ctx, slog.LevelDebug, "response sent",
		slog.String("transaction_id", string(txID)),
		slog.Any("response", res),
	)
	return nil
}

// SendStatelessResponse sends the response directly through the transport,
// bypassing the transaction stack. Failures are not returned, they are reported
// on the [Response.Errors] channel.
func (p *Provider) SendStatelessResponse(ctx context.Context, res *Response) {
	if res == nil {
		return
	}

	report := func(err error) {
		p.sendFailed(ctx, "stateless_response", "", err) //nolint:errcheck
		if !res.reportError(err) {
			p.log.LogAttrs(ctx, slog.LevelWarn, "stateless response error dropped", slog.Any("error", err))
		}
	}

	if err := p.checkRunning(); err != nil {
		report(err)
		return
	}
	dst, err := ResponseDestination(res)
	if err != nil {
		report(err)
		return
	}
	msg := &MessageContext{Message: res, Endpoint: p.ep, Destination: dst}
	if err := p.stack.transp.Send(ctx, msg); err != nil {
		report(err)
		return
	}
	p.metrics.ResponseSent(res.Status)
}
