package header

import (
	"io"
	"slices"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/types"
)

// Via represents the Via header field. The first hop is the topmost one.
type Via []ViaHop

func (Via) CanonicName() Name { return "Via" }

func (Via) CompactName() Name { return "v" }

func (via Via) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, via, opts))
}

func (via Via) Render(opts *RenderOptions) string { return render(via, opts) }

func (via Via) RenderValue() string { return renderValue(via) }

func (via Via) String() string { return via.RenderValue() }

func (via Via) renderValue(w io.Writer) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for i, hop := range via {
		if i > 0 {
			cw.WriteString(", ")
		}
		cw.Call(hop.renderTo)
	}
	return errtrace.Wrap2(cw.Result())
}

func (via Via) Clone() Header { return slices.Clone(via) }

// Top returns the topmost hop.
func (via Via) Top() (ViaHop, bool) {
	if len(via) == 0 {
		return ViaHop{}, false
	}
	return via[0], true
}

// WithTop returns a copy of via with the topmost hop replaced.
func (via Via) WithTop(hop ViaHop) Via {
	if len(via) == 0 {
		return Via{hop}
	}
	out := slices.Clone(via)
	out[0] = hop
	return out
}

func (via Via) Equal(val any) bool {
	return types.Equal(val, func(other Via) bool {
		return slices.EqualFunc(via, other, func(a, b ViaHop) bool { return a.Equal(b) })
	})
}

func (via Via) IsValid() bool {
	return len(via) > 0 && !slices.ContainsFunc(via, func(hop ViaHop) bool { return !hop.IsValid() })
}

// ViaHop is a single Via entry.
type ViaHop struct {
	Proto     ProtoInfo
	Transport TransportProto
	Addr      Addr // sent-by
	Params    Params
}

// Branch returns value of the branch parameter.
func (hop ViaHop) Branch() string {
	v, _ := hop.Params.Get("branch")
	return v
}

// WithBranch returns a copy of hop with the branch parameter set.
func (hop ViaHop) WithBranch(branch string) ViaHop {
	hop.Params = hop.Params.With("branch", branch)
	return hop
}

// Received returns value of the received parameter.
func (hop ViaHop) Received() string {
	v, _ := hop.Params.Get("received")
	return v
}

// MAddr returns value of the maddr parameter.
func (hop ViaHop) MAddr() string {
	v, _ := hop.Params.Get("maddr")
	return v
}

// RPort returns value of the rport parameter (RFC 3581).
// The second result is false when the parameter is absent or has no value.
func (hop ViaHop) RPort() (uint16, bool) {
	v, ok := hop.Params.Get("rport")
	if !ok || v == "" {
		return 0, false
	}
	p, err := strconv.ParseUint(v, 10, 16)
	return uint16(p), err == nil
}

func (hop ViaHop) renderTo(w io.Writer) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(hop.Proto.String())
	cw.WriteString("/")
	cw.WriteString(string(hop.Transport.ToUpper()))
	cw.WriteString(" ")
	cw.WriteString(hop.Addr.String())
	cw.Call(func(w io.Writer) (int, error) { return hop.Params.RenderTo(w, ";") })
	return errtrace.Wrap2(cw.Result())
}

func (hop ViaHop) String() string {
	return renderValue(Via{hop})
}

func (hop ViaHop) Equal(val any) bool {
	return types.Equal(val, func(other ViaHop) bool {
		return hop.Proto.Equal(other.Proto) &&
			hop.Transport.Equal(other.Transport) &&
			hop.Addr.Equal(other.Addr) &&
			hop.Params.Equal(other.Params)
	})
}

func (hop ViaHop) IsValid() bool {
	return hop.Proto.IsValid() && hop.Transport.IsValid() && hop.Addr.IsValid() && hop.Params.IsValid()
}
