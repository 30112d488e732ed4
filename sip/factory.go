package sip

import (
	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/grammar"
)

// MessageFactory builds messages and headers from explicit field values.
// It never applies implicit defaults and never parses wire bytes.
type MessageFactory interface {
	NewRequest(fields *RequestFields) (*Request, error)
	NewResponse(fields *ResponseFields) (*Response, error)
	NewContentType(typ, subtype string) (header.ContentType, error)
	// NewRoute builds a Route header from the given hops in the given order.
	NewRoute(hops ...header.NameAddr) (header.Route, error)
}

// RequestFields are the field values of a new request.
type RequestFields struct {
	Method      RequestMethod
	URI         URI
	CallID      header.CallID
	CSeq        header.CSeq
	From        header.From
	To          header.To
	Via         header.Via
	MaxForwards header.MaxForwards
	Route       header.Route        // optional
	ContentType *header.ContentType // optional
	Body        []byte              // optional
}

// ResponseFields are the field values of a new response.
type ResponseFields struct {
	Status      ResponseStatus
	Reason      ResponseReason // optional, defaults to the standard reason phrase
	CallID      header.CallID
	CSeq        header.CSeq
	From        header.From
	To          header.To
	Via         header.Via
	ContentType *header.ContentType // optional
	Body        []byte              // optional
}

// DefaultMessageFactory is the [MessageFactory] used when none is configured.
type DefaultMessageFactory struct{}

// NewRequest validates the fields and builds a SIP/2.0 request.
func (DefaultMessageFactory) NewRequest(fields *RequestFields) (*Request, error) {
	if fields == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil request fields"))
	}

	var errs []error
	if !fields.Method.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid method %q", fields.Method))
	}
	if fields.URI == nil || !fields.URI.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid request URI"))
	}
	if !fields.CSeq.Method.Equal(fields.Method) {
		errs = append(errs, NewInvalidArgumentError("CSeq method %q does not match %q", fields.CSeq.Method, fields.Method))
	}
	errs = append(errs, validateCommon(fields.CallID, fields.CSeq, fields.From, fields.To, fields.Via)...)
	if err := errorutil.JoinPrefix("invalid request fields:", errs...); err != nil {
		return nil, errtrace.Wrap(err)
	}

	req := &Request{
		Method: fields.Method,
		URI:    fields.URI,
		Proto:  ProtoVer20,
		Body:   cloneBody(fields.Body),
	}
	req.Headers.Append(fields.Via, fields.MaxForwards)
	if len(fields.Route) > 0 {
		req.Headers.Append(fields.Route)
	}
	req.Headers.Append(fields.From, fields.To, fields.CallID, fields.CSeq)
	if fields.ContentType != nil {
		req.Headers.Append(*fields.ContentType)
	}
	return req, nil
}

// NewResponse validates the fields and builds a SIP/2.0 response.
func (DefaultMessageFactory) NewResponse(fields *ResponseFields) (*Response, error) {
	if fields == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("nil response fields"))
	}

	var errs []error
	if !fields.Status.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid status %d", fields.Status))
	}
	errs = append(errs, validateCommon(fields.CallID, fields.CSeq, fields.From, fields.To, fields.Via)...)
	if err := errorutil.JoinPrefix("invalid response fields:", errs...); err != nil {
		return nil, errtrace.Wrap(err)
	}

	res := &Response{
		Status: fields.Status,
		Reason: fields.Reason,
		Proto:  ProtoVer20,
		Body:   cloneBody(fields.Body),
	}
	if res.Reason == "" {
		res.Reason = fields.Status.Reason()
	}
	res.Headers.Append(fields.Via, fields.From, fields.To, fields.CallID, fields.CSeq)
	if fields.ContentType != nil {
		res.Headers.Append(*fields.ContentType)
	}
	return res, nil
}

// NewContentType builds a Content-Type header, both parts must be tokens.
func (DefaultMessageFactory) NewContentType(typ, subtype string) (header.ContentType, error) {
	if !grammar.IsToken(typ) || !grammar.IsToken(subtype) {
		return header.ContentType{}, errtrace.Wrap(NewInvalidArgumentError("invalid content type %q/%q", typ, subtype))
	}
	return header.ContentType{Type: typ, Subtype: subtype}, nil
}

// NewRoute builds a Route header from the hops.
func (DefaultMessageFactory) NewRoute(hops ...header.NameAddr) (header.Route, error) {
	route := make(header.Route, 0, len(hops))
	for i, hop := range hops {
		if !hop.IsValid() {
			return nil, errtrace.Wrap(NewInvalidArgumentError("invalid route hop #%d", i))
		}
		route = append(route, hop)
	}
	return route, nil
}

func validateCommon(callID header.CallID, cseq header.CSeq, from header.From, to header.To, via header.Via) []error {
	var errs []error
	if !callID.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid Call-ID"))
	}
	if !cseq.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid CSeq"))
	}
	if !from.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid From"))
	}
	if !to.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid To"))
	}
	if len(via) == 0 {
		errs = append(errs, newMalformedRequestError("missing Via"))
	} else if !via.IsValid() {
		errs = append(errs, NewInvalidArgumentError("invalid Via"))
	}
	return errs
}
