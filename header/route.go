package header

import (
	"io"
	"slices"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/types"
)

func renderNameAddrs(w io.Writer, addrs []NameAddr) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for i, na := range addrs {
		if i > 0 {
			cw.WriteString(", ")
		}
		cw.Call(na.renderTo)
	}
	return errtrace.Wrap2(cw.Result())
}

func eqNameAddrs(a, b []NameAddr) bool {
	return slices.EqualFunc(a, b, func(x, y NameAddr) bool { return x.Equal(y) })
}

func validNameAddrs(addrs []NameAddr) bool {
	return len(addrs) > 0 && !slices.ContainsFunc(addrs, func(na NameAddr) bool { return !na.IsValid() })
}

// Route represents the Route header field.
type Route []NameAddr

func (Route) CanonicName() Name { return "Route" }

func (Route) CompactName() Name { return "" }

func (r Route) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, r, opts))
}

func (r Route) Render(opts *RenderOptions) string { return render(r, opts) }

func (r Route) RenderValue() string { return renderValue(r) }

func (r Route) String() string { return r.RenderValue() }

func (r Route) renderValue(w io.Writer) (int, error) { return errtrace.Wrap2(renderNameAddrs(w, r)) }

func (r Route) Clone() Header { return slices.Clone(r) }

func (r Route) Equal(val any) bool {
	return types.Equal(val, func(other Route) bool { return eqNameAddrs(r, other) })
}

func (r Route) IsValid() bool { return validNameAddrs(r) }

// RecordRoute represents the Record-Route header field.
type RecordRoute []NameAddr

func (RecordRoute) CanonicName() Name { return "Record-Route" }

func (RecordRoute) CompactName() Name { return "" }

func (r RecordRoute) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, r, opts))
}

func (r RecordRoute) Render(opts *RenderOptions) string { return render(r, opts) }

func (r RecordRoute) RenderValue() string { return renderValue(r) }

func (r RecordRoute) String() string { return r.RenderValue() }

func (r RecordRoute) renderValue(w io.Writer) (int, error) {
	return errtrace.Wrap2(renderNameAddrs(w, r))
}

func (r RecordRoute) Clone() Header { return slices.Clone(r) }

func (r RecordRoute) Equal(val any) bool {
	return types.Equal(val, func(other RecordRoute) bool { return eqNameAddrs(r, other) })
}

func (r RecordRoute) IsValid() bool { return validNameAddrs(r) }

// Contact represents the Contact header field.
// The wildcard form "*" is not supported.
type Contact []NameAddr

func (Contact) CanonicName() Name { return "Contact" }

func (Contact) CompactName() Name { return "m" }

func (c Contact) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, c, opts))
}

func (c Contact) Render(opts *RenderOptions) string { return render(c, opts) }

func (c Contact) RenderValue() string { return renderValue(c) }

func (c Contact) String() string { return c.RenderValue() }

func (c Contact) renderValue(w io.Writer) (int, error) { return errtrace.Wrap2(renderNameAddrs(w, c)) }

func (c Contact) Clone() Header { return slices.Clone(c) }

func (c Contact) Equal(val any) bool {
	return types.Equal(val, func(other Contact) bool { return eqNameAddrs(c, other) })
}

func (c Contact) IsValid() bool { return validNameAddrs(c) }
