package sip

import (
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/util"
)

// Message is a SIP request or response.
type Message interface {
	Render(opts *RenderOptions) string
	RenderTo(w io.Writer, opts *RenderOptions) (int, error)
	String() string
	LogValue() slog.Value
	// Validate checks that the message carries all mandatory headers.
	Validate() error
	message()
}

// Request is a SIP request message.
type Request struct {
	Method  RequestMethod
	URI     URI
	Proto   ProtoInfo
	Headers Headers
	Body    []byte
}

func (*Request) message() {}

// Clone returns a deep copy of the request.
func (req *Request) Clone() *Request {
	if req == nil {
		return nil
	}
	return &Request{
		Method:  req.Method,
		URI:     req.URI,
		Proto:   req.Proto,
		Headers: req.Headers.Clone(),
		Body:    cloneBody(req.Body),
	}
}

// Validate checks the request line and the mandatory headers of RFC 3261 §8.1.1.
func (req *Request) Validate() error {
	if req == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil request"))
	}

	var errs []error
	if !req.Method.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid method %q", req.Method))
	}
	if req.URI == nil || !req.URI.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid request URI"))
	}
	if !req.Proto.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid protocol %q", req.Proto))
	}
	errs = append(errs, req.Headers.validate()...)
	if cseq, ok := req.Headers.CSeq(); ok && !cseq.Method.Equal(req.Method) {
		errs = append(errs, NewInvalidArgumentError("CSeq method %q does not match %q", cseq.Method, req.Method))
	}
	if _, ok := req.Headers.MaxForwards(); !ok {
		errs = append(errs, NewInvalidArgumentError("missing Max-Forwards header"))
	}
	return errtrace.Wrap(errorutil.JoinPrefix("invalid request:", errs...))
}

// RenderTo writes the request in wire form.
func (req *Request) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	cw.WriteString(string(req.Method))
	cw.WriteString(" ")
	if req.URI != nil {
		cw.Call(func(w io.Writer) (int, error) { return req.URI.RenderTo(w, opts) })
	}
	cw.WriteString(" ")
	cw.WriteString(req.Proto.String())
	cw.WriteString("\r\n")
	cw.Call(func(w io.Writer) (int, error) { return renderBody(w, req.Headers, req.Body, opts) })
	return errtrace.Wrap2(cw.Result())
}

func (req *Request) Render(opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	req.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

func (req *Request) String() string {
	if req == nil {
		return "<nil>"
	}
	var target string
	if req.URI != nil {
		target = req.URI.String()
	}
	return string(req.Method) + " " + target
}

func (req *Request) LogValue() slog.Value {
	if req == nil {
		return slog.Value{}
	}
	attrs := make([]slog.Attr, 0, 7)
	attrs = append(attrs, slog.String("method", string(req.Method)))
	if req.URI != nil {
		attrs = append(attrs, slog.String("uri", req.URI.String()))
	}
	return slog.GroupValue(req.Headers.logAttrs(attrs)...)
}

// Response is a SIP response message.
//
// Errors that occur while a response is sent statelessly have no caller to be returned to,
// they are reported on the channel returned by [Response.Errors].
type Response struct {
	Status  ResponseStatus
	Reason  ResponseReason
	Proto   ProtoInfo
	Headers Headers
	Body    []byte

	errs atomic.Pointer[chan error]
}

func (*Response) message() {}

const responseErrsSize = 4

// Errors returns the channel that receives errors of stateless response delivery.
// The channel is buffered, errors are dropped when nobody drains it.
func (res *Response) Errors() <-chan error {
	return res.errsChan()
}

func (res *Response) errsChan() chan error {
	if ch := res.errs.Load(); ch != nil {
		return *ch
	}
	ch := make(chan error, responseErrsSize)
	if res.errs.CompareAndSwap(nil, &ch) {
		return ch
	}
	return *res.errs.Load()
}

func (res *Response) reportError(err error) bool {
	select {
	case res.errsChan() <- err:
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of the response. The error channel is not copied.
func (res *Response) Clone() *Response {
	if res == nil {
		return nil
	}
	return &Response{
		Status:  res.Status,
		Reason:  res.Reason,
		Proto:   res.Proto,
		Headers: res.Headers.Clone(),
		Body:    cloneBody(res.Body),
	}
}

// Validate checks the status line and the mandatory headers.
func (res *Response) Validate() error {
	if res == nil {
		return errtrace.Wrap(NewInvalidArgumentError("nil response"))
	}

	var errs []error
	if !res.Status.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid status %d", res.Status))
	}
	if !res.Proto.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid protocol %q", res.Proto))
	}
	errs = append(errs, res.Headers.validate()...)
	return errtrace.Wrap(errorutil.JoinPrefix("invalid response:", errs...))
}

// RenderTo writes the response in wire form.
func (res *Response) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	reason := res.Reason
	if reason == "" {
		reason = res.Status.Reason()
	}
	cw.WriteString(res.Proto.String())
	cw.WriteString(" ")
	cw.WriteString(strconv.Itoa(int(res.Status)))
	cw.WriteString(" ")
	cw.WriteString(string(reason))
	cw.WriteString("\r\n")
	cw.Call(func(w io.Writer) (int, error) { return renderBody(w, res.Headers, res.Body, opts) })
	return errtrace.Wrap2(cw.Result())
}

func (res *Response) Render(opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	res.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

func (res *Response) String() string {
	if res == nil {
		return "<nil>"
	}
	reason := res.Reason
	if reason == "" {
		reason = res.Status.Reason()
	}
	return strconv.Itoa(int(res.Status)) + " " + string(reason)
}

func (res *Response) LogValue() slog.Value {
	if res == nil {
		return slog.Value{}
	}
	attrs := make([]slog.Attr, 0, 6)
	attrs = append(attrs, slog.Int("status", int(res.Status)))
	return slog.GroupValue(res.Headers.logAttrs(attrs)...)
}

func (hs Headers) validate() []error {
	var errs []error
	for _, n := range []header.Name{"Via", "From", "To", "Call-ID", "CSeq"} {
		if !hs.Has(n) {
			errs = append(errs, NewInvalidArgumentError("missing %s header", n))
		}
	}
	for n, hdrs := range hs {
		for _, h := range hdrs {
			if !h.IsValid() {
				errs = append(errs, NewInvalidArgumentError("invalid %s header", n))
			}
		}
	}
	return errs
}

func renderBody(w io.Writer, hs Headers, body []byte, opts *RenderOptions) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	cw.Call(func(w io.Writer) (int, error) { return hs.renderTo(w, opts) })
	cw.Call(func(w io.Writer) (int, error) {
		return header.ContentLength(len(body)).RenderTo(w, opts)
	})
	cw.WriteString("\r\n\r\n")
	cw.Write(body)
	return errtrace.Wrap2(cw.Result())
}

func cloneBody(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
