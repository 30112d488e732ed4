package header

import (
	"io"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/types"
	"github.com/ghettovoice/sipstack/internal/util"
)

// CallID represents the Call-ID header field.
type CallID string

func (CallID) CanonicName() Name { return "Call-ID" }

func (CallID) CompactName() Name { return "i" }

func (id CallID) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, id, opts))
}

func (id CallID) Render(opts *RenderOptions) string { return render(id, opts) }

func (id CallID) RenderValue() string { return string(id) }

func (id CallID) renderValue(w io.Writer) (int, error) {
	return errtrace.Wrap2(io.WriteString(w, string(id)))
}

func (id CallID) Clone() Header { return id }

// Equal compares Call-IDs byte by byte, they are case-sensitive.
func (id CallID) Equal(val any) bool {
	return types.Equal(val, func(other CallID) bool { return id == other })
}

func (id CallID) IsValid() bool { return id != "" }

// CSeq represents the CSeq header field.
type CSeq struct {
	SeqNum uint32
	Method RequestMethod
}

func (CSeq) CanonicName() Name { return "CSeq" }

func (CSeq) CompactName() Name { return "" }

func (cseq CSeq) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, cseq, opts))
}

func (cseq CSeq) Render(opts *RenderOptions) string { return render(cseq, opts) }

func (cseq CSeq) RenderValue() string { return renderValue(cseq) }

func (cseq CSeq) String() string { return cseq.RenderValue() }

func (cseq CSeq) renderValue(w io.Writer) (int, error) {
	return errtrace.Wrap2(io.WriteString(w, strconv.FormatUint(uint64(cseq.SeqNum), 10)+" "+string(cseq.Method)))
}

func (cseq CSeq) Clone() Header { return cseq }

func (cseq CSeq) Equal(val any) bool {
	return types.Equal(val, func(other CSeq) bool {
		return cseq.SeqNum == other.SeqNum && cseq.Method.Equal(other.Method)
	})
}

// IsValid checks the sequence number limit of RFC 3261 §8.1.1.5.
func (cseq CSeq) IsValid() bool { return cseq.SeqNum < 1<<31 && cseq.Method.IsValid() }

// ContentType represents the Content-Type header field.
type ContentType struct {
	Type    string
	Subtype string
	Params  Params
}

func (ContentType) CanonicName() Name { return "Content-Type" }

func (ContentType) CompactName() Name { return "c" }

func (ct ContentType) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, ct, opts))
}

func (ct ContentType) Render(opts *RenderOptions) string { return render(ct, opts) }

func (ct ContentType) RenderValue() string { return renderValue(ct) }

func (ct ContentType) String() string { return ct.RenderValue() }

func (ct ContentType) renderValue(w io.Writer) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(ct.Type)
	cw.WriteString("/")
	cw.WriteString(ct.Subtype)
	cw.Call(func(w io.Writer) (int, error) { return ct.Params.RenderTo(w, ";") })
	return errtrace.Wrap2(cw.Result())
}

func (ct ContentType) Clone() Header { return ct }

func (ct ContentType) Equal(val any) bool {
	return types.Equal(val, func(other ContentType) bool {
		return util.EqFold(ct.Type, other.Type) && util.EqFold(ct.Subtype, other.Subtype) &&
			ct.Params.Equal(other.Params)
	})
}

func (ct ContentType) IsValid() bool {
	return grammar.IsToken(ct.Type) && grammar.IsToken(ct.Subtype) && ct.Params.IsValid()
}

// ContentLength represents the Content-Length header field.
type ContentLength uint

func (ContentLength) CanonicName() Name { return "Content-Length" }

func (ContentLength) CompactName() Name { return "l" }

func (cl ContentLength) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, cl, opts))
}

func (cl ContentLength) Render(opts *RenderOptions) string { return render(cl, opts) }

func (cl ContentLength) RenderValue() string { return strconv.FormatUint(uint64(cl), 10) }

func (cl ContentLength) renderValue(w io.Writer) (int, error) {
	return errtrace.Wrap2(io.WriteString(w, cl.RenderValue()))
}

func (cl ContentLength) Clone() Header { return cl }

func (cl ContentLength) Equal(val any) bool {
	return types.Equal(val, func(other ContentLength) bool { return cl == other })
}

func (ContentLength) IsValid() bool { return true }

// MaxForwards represents the Max-Forwards header field.
type MaxForwards uint

func (MaxForwards) CanonicName() Name { return "Max-Forwards" }

func (MaxForwards) CompactName() Name { return "" }

func (mf MaxForwards) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, mf, opts))
}

func (mf MaxForwards) Render(opts *RenderOptions) string { return render(mf, opts) }

func (mf MaxForwards) RenderValue() string { return strconv.FormatUint(uint64(mf), 10) }

func (mf MaxForwards) renderValue(w io.Writer) (int, error) {
	return errtrace.Wrap2(io.WriteString(w, mf.RenderValue()))
}

func (mf MaxForwards) Clone() Header { return mf }

func (mf MaxForwards) Equal(val any) bool {
	return types.Equal(val, func(other MaxForwards) bool { return mf == other })
}

func (mf MaxForwards) IsValid() bool { return mf <= 255 }

// Any is a header without a dedicated type.
type Any struct {
	Name  Name
	Value string
}

func (h Any) CanonicName() Name { return CanonicName(h.Name) }

func (Any) CompactName() Name { return "" }

func (h Any) RenderTo(w io.Writer, opts *RenderOptions) (int, error) {
	return errtrace.Wrap2(renderTo(w, h, opts))
}

func (h Any) Render(opts *RenderOptions) string { return render(h, opts) }

func (h Any) RenderValue() string { return h.Value }

func (h Any) renderValue(w io.Writer) (int, error) {
	return errtrace.Wrap2(io.WriteString(w, h.Value))
}

func (h Any) Clone() Header { return h }

func (h Any) Equal(val any) bool {
	return types.Equal(val, func(other Any) bool {
		return h.Name.Equal(other.Name) && h.Value == other.Value
	})
}

func (h Any) IsValid() bool { return h.Name.IsValid() }
