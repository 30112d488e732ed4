package header

import (
	"io"
	"net/textproto"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/types"
	"github.com/ghettovoice/sipstack/internal/util"
)

type (
	Addr           = types.Addr
	Params         = types.Params
	ProtoInfo      = types.ProtoInfo
	TransportProto = types.TransportProto
	RequestMethod  = types.RequestMethod
	RenderOptions  = types.RenderOptions
)

// Header represents a generic SIP header.
type Header interface {
	types.Renderer
	types.ValidFlag
	types.Equalable
	CanonicName() Name
	CompactName() Name
	RenderValue() string
	// Clone returns a copy of the header that shares no mutable memory with the receiver.
	Clone() Header
}

// Name represents a SIP header name.
type Name string

// ToCanonic converts the Name to its canonical form.
func (n Name) ToCanonic() Name { return CanonicName(n) }

// IsValid checks whether the Name is syntactically valid.
func (n Name) IsValid() bool { return grammar.IsToken(n) }

func (n Name) Equal(val any) bool {
	return types.Equal(val, func(other Name) bool { return CanonicName(n) == CanonicName(other) })
}

var hdrNames = map[string]Name{
	"c":       "Content-Type",
	"f":       "From",
	"i":       "Call-ID",
	"l":       "Content-Length",
	"m":       "Contact",
	"t":       "To",
	"v":       "Via",
	"Call-Id": "Call-ID",
	"Cseq":    "CSeq",
}

// CanonicName converts name to the canonical form.
// The first letter and any letter following a hyphen are converted to upper case,
// the rest are converted to lower case. Compact names are expanded, so "v" converts to "Via".
func CanonicName[T ~string](name T) Name {
	s := util.TrimSP(string(name))
	if n, ok := hdrNames[s]; ok {
		return n
	}
	s = textproto.CanonicalMIMEHeaderKey(s)
	if n, ok := hdrNames[s]; ok {
		return n
	}
	return Name(s)
}

type valueRenderer interface {
	Header
	renderValue(w io.Writer) (int, error)
}

func renderTo(w io.Writer, h valueRenderer, opts *RenderOptions) (int, error) {
	name := h.CanonicName()
	if cn := h.CompactName(); opts.IsCompact() && cn != "" {
		name = cn
	}

	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	cw.WriteString(string(name))
	cw.WriteString(": ")
	cw.Call(h.renderValue)
	return errtrace.Wrap2(cw.Result())
}

func render(h valueRenderer, opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	renderTo(sb, h, opts) //nolint:errcheck
	return sb.String()
}

func renderValue(h valueRenderer) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	h.renderValue(sb) //nolint:errcheck
	return sb.String()
}
