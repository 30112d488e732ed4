package sip

import (
	"cmp"
	"io"
	"log/slog"
	"maps"
	"slices"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/header"
	"github.com/ghettovoice/sipstack/internal/ioutil"
)

// Headers is a set of message headers grouped by canonical header name.
// Every header stored or returned is a copy, so headers taken from one message
// and put into another never share memory.
type Headers map[header.Name][]header.Header

// Append appends headers after the existing headers with the same name.
func (hs *Headers) Append(hdrs ...header.Header) *Headers {
	if *hs == nil {
		*hs = make(Headers, len(hdrs))
	}
	for _, h := range hdrs {
		if h == nil {
			continue
		}
		n := h.CanonicName()
		(*hs)[n] = append((*hs)[n], h.Clone())
	}
	return hs
}

// Set replaces all headers with the names of given headers.
func (hs *Headers) Set(hdrs ...header.Header) *Headers {
	for _, h := range hdrs {
		if h != nil {
			hs.Del(h.CanonicName())
		}
	}
	return hs.Append(hdrs...)
}

// Del removes all headers with the given name.
func (hs *Headers) Del(name header.Name) *Headers {
	delete(*hs, header.CanonicName(name))
	return hs
}

// Get returns copies of all headers with the given name.
func (hs Headers) Get(name header.Name) []header.Header {
	src := hs[header.CanonicName(name)]
	if len(src) == 0 {
		return nil
	}
	out := make([]header.Header, len(src))
	for i, h := range src {
		out[i] = h.Clone()
	}
	return out
}

func (hs Headers) Has(name header.Name) bool { return len(hs[header.CanonicName(name)]) > 0 }

// Clone returns a deep copy.
func (hs Headers) Clone() Headers {
	if hs == nil {
		return nil
	}
	out := make(Headers, len(hs))
	for n := range hs {
		out[n] = hs.Get(n)
	}
	return out
}

func first[T header.Header](hs Headers, name header.Name) (T, bool) {
	for _, h := range hs[name] {
		if v, ok := h.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// flatten joins all list headers with the given name into one list, keeping header order.
func flatten[S ~[]E, E any](hs Headers, name header.Name) (S, bool) {
	var (
		out   S
		found bool
	)
	for _, h := range hs[name] {
		if v, ok := h.(S); ok {
			out = append(out, v...)
			found = true
		}
	}
	return out, found
}

// Via returns all Via hops, the topmost first.
func (hs Headers) Via() (header.Via, bool) { return flatten[header.Via](hs, "Via") }

func (hs Headers) From() (header.From, bool) { return first[header.From](hs, "From") }

func (hs Headers) To() (header.To, bool) { return first[header.To](hs, "To") }

func (hs Headers) CallID() (header.CallID, bool) { return first[header.CallID](hs, "Call-ID") }

func (hs Headers) CSeq() (header.CSeq, bool) { return first[header.CSeq](hs, "CSeq") }

func (hs Headers) MaxForwards() (header.MaxForwards, bool) {
	return first[header.MaxForwards](hs, "Max-Forwards")
}

func (hs Headers) ContentType() (header.ContentType, bool) {
	return first[header.ContentType](hs, "Content-Type")
}

// Contact returns all Contact addresses in header order.
func (hs Headers) Contact() (header.Contact, bool) { return flatten[header.Contact](hs, "Contact") }

// Route returns all Route hops in header order.
func (hs Headers) Route() (header.Route, bool) { return flatten[header.Route](hs, "Route") }

// RecordRoute returns all Record-Route hops in header order.
func (hs Headers) RecordRoute() (header.RecordRoute, bool) {
	return flatten[header.RecordRoute](hs, "Record-Route")
}

var hdrsOrder = map[header.Name]int{
	"Via":          1,
	"Max-Forwards": 2,
	"Route":        3,
	"Record-Route": 4,
	"From":         5,
	"To":           6,
	"Call-ID":      7,
	"CSeq":         8,
	"Contact":      9,
	"Content-Type": 100,
}

// names returns header names in rendering order: well-known headers first, then the rest
// alphabetically, Content-Type last.
func (hs Headers) names() []header.Name {
	return slices.SortedFunc(maps.Keys(hs), func(a, b header.Name) int {
		oa, ok1 := hdrsOrder[a]
		ob, ok2 := hdrsOrder[b]
		if !ok1 {
			oa = 50
		}
		if !ok2 {
			ob = 50
		}
		if c := cmp.Compare(oa, ob); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}

// renderTo writes one header per line, Content-Length is left to the message.
func (hs Headers) renderTo(w io.Writer, opts *RenderOptions) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for _, n := range hs.names() {
		if n == "Content-Length" {
			continue
		}
		for _, h := range hs[n] {
			cw.Call(func(w io.Writer) (int, error) { return h.RenderTo(w, opts) })
			cw.WriteString("\r\n")
		}
	}
	return errtrace.Wrap2(cw.Result())
}

func (hs Headers) logAttrs(attrs []slog.Attr) []slog.Attr {
	if via, ok := hs.Via(); ok && len(via) > 0 {
		attrs = append(attrs, slog.String("Via", via[0].String()))
	}
	if from, ok := hs.From(); ok {
		attrs = append(attrs, slog.String("From", from.String()))
	}
	if to, ok := hs.To(); ok {
		attrs = append(attrs, slog.String("To", to.String()))
	}
	if callID, ok := hs.CallID(); ok {
		attrs = append(attrs, slog.String("Call-ID", string(callID)))
	}
	if cseq, ok := hs.CSeq(); ok {
		attrs = append(attrs, slog.String("CSeq", cseq.String()))
	}
	return attrs
}
