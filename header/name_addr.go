package header

import (
	"io"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/types"
	"github.com/ghettovoice/sipstack/uri"
)

// NameAddr is the name-addr form shared by From, To, Contact, Route and Record-Route.
type NameAddr struct {
	DisplayName string
	URI         uri.URI
	Params      Params
}

// Tag returns value of the tag parameter.
func (na NameAddr) Tag() string {
	v, _ := na.Params.Get("tag")
	return v
}

// WithTag returns a copy with the tag parameter set.
func (na NameAddr) WithTag(tag string) NameAddr {
	na.Params = na.Params.With("tag", tag)
	return na
}

func (na NameAddr) renderTo(w io.Writer) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	if na.DisplayName != "" {
		cw.WriteString(grammar.Quote(na.DisplayName))
		cw.WriteString(" ")
	}
	cw.WriteString("<")
	if na.URI != nil {
		cw.Call(func(w io.Writer) (int, error) { return na.URI.RenderTo(w, nil) })
	}
	cw.WriteString(">")
	cw.Call(func(w io.Writer) (int, error) { return na.Params.RenderTo(w, ";") })
	return errtrace.Wrap2(cw.Result())
}

func (na NameAddr) String() string {
	return renderValue(Contact{na})
}

func (na NameAddr) LogValue() slog.Value { return slog.StringValue(na.String()) }

// Equal compares URIs and parameters, the display name is ignored.
func (na NameAddr) Equal(val any) bool {
	return types.Equal(val, func(other NameAddr) bool {
		if na.URI == nil || other.URI == nil {
			return na.URI == nil && other.URI == nil && na.Params.Equal(other.Params)
		}
		return na.URI.Equal(other.URI) && na.Params.Equal(other.Params)
	})
}

func (na NameAddr) IsValid() bool {
	return na.URI != nil && na.URI.IsValid() && na.Params.IsValid()
}

// From represents the From header field.
type From NameAddr

func (From) CanonicName() Name { return "From" }

func (From) CompactName() Name { return "f" }

func (f From) Tag() string { return NameAddr(f).Tag() }

// WithTag returns a copy of the header with the tag parameter set.
func (f From) WithTag(tag string) From { return From(NameAddr(f).WithTag(tag)) }

func (f From) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, f, opts))
}

func (f From) Render(opts *RenderOptions) string { return render(f, opts) }

func (f From) RenderValue() string { return renderValue(f) }

func (f From) String() string { return f.RenderValue() }

func (f From) renderValue(w io.Writer) (int, error) { return errtrace.Wrap2(NameAddr(f).renderTo(w)) }

func (f From) Clone() Header { return f }

func (f From) Equal(val any) bool {
	return types.Equal(val, func(other From) bool { return NameAddr(f).Equal(NameAddr(other)) })
}

func (f From) IsValid() bool { return NameAddr(f).IsValid() }

// To represents the To header field.
type To NameAddr

func (To) CanonicName() Name { return "To" }

func (To) CompactName() Name { return "t" }

func (t To) Tag() string { return NameAddr(t).Tag() }

// WithTag returns a copy of the header with the tag parameter set.
func (t To) WithTag(tag string) To { return To(NameAddr(t).WithTag(tag)) }

func (t To) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, t, opts))
}

func (t To) Render(opts *RenderOptions) string { return render(t, opts) }

func (t To) RenderValue() string { return renderValue(t) }

func (t To) String() string { return t.RenderValue() }

func (t To) renderValue(w io.Writer) (int, error) { return errtrace.Wrap2(NameAddr(t).renderTo(w)) }

func (t To) Clone() Header { return t }

func (t To) Equal(val any) bool {
	return types.Equal(val, func(other To) bool { return NameAddr(t).Equal(NameAddr(other)) })
}

func (t To) IsValid() bool { return NameAddr(t).IsValid() }
