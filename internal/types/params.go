package types

import (
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/ioutil"
	"github.com/ghettovoice/sipstack/internal/util"
)

type param struct {
	name, val string
}

// Params is an immutable ordered list of header or URI parameters.
// Names are case-insensitive. A parameter with an empty value is a flag (e.g. ";lr").
// All modifying methods return a new Params, so a Params value can be freely copied.
type Params struct {
	kvs []param
}

// NewParams builds parameters from name/value pairs.
// A trailing name without value is added as a flag.
func NewParams(pairs ...string) Params {
	var p Params
	for i := 0; i < len(pairs); i += 2 {
		var val string
		if i+1 < len(pairs) {
			val = pairs[i+1]
		}
		p = p.With(pairs[i], val)
	}
	return p
}

func (p Params) index(name string) int {
	return slices.IndexFunc(p.kvs, func(kv param) bool { return util.EqFold(kv.name, name) })
}

// Get returns value of the parameter.
func (p Params) Get(name string) (string, bool) {
	if i := p.index(name); i >= 0 {
		return p.kvs[i].val, true
	}
	return "", false
}

func (p Params) Has(name string) bool { return p.index(name) >= 0 }

// With returns a copy of p with the parameter set.
// An existing parameter keeps its position.
func (p Params) With(name, val string) Params {
	kvs := slices.Clone(p.kvs)
	if i := p.index(name); i >= 0 {
		kvs[i].val = val
	} else {
		kvs = append(kvs, param{name, val})
	}
	return Params{kvs}
}

// Without returns a copy of p without the parameter.
func (p Params) Without(name string) Params {
	i := p.index(name)
	if i < 0 {
		return p
	}
	return Params{slices.Concat(p.kvs[:i], p.kvs[i+1:])}
}

func (p Params) Len() int { return len(p.kvs) }

func (p Params) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, kv := range p.kvs {
			if !yield(kv.name, kv.val) {
				return
			}
		}
	}
}

// Equal reports whether both lists have the same parameters regardless of order.
// Names and values are compared case-insensitively.
func (p Params) Equal(val any) bool {
	return Equal(val, func(other Params) bool {
		if len(p.kvs) != len(other.kvs) {
			return false
		}
		for _, kv := range p.kvs {
			v, ok := other.Get(kv.name)
			if !ok || !util.EqFold(v, kv.val) {
				return false
			}
		}
		return true
	})
}

func (p Params) IsValid() bool {
	for _, kv := range p.kvs {
		if !grammar.IsToken(kv.name) {
			return false
		}
	}
	return true
}

// RenderTo writes parameters, each one prefixed with sep.
func (p Params) RenderTo(w io.Writer, sep string) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	for _, kv := range p.kvs {
		cw.WriteString(sep)
		cw.WriteString(kv.name)
		if kv.val != "" {
			cw.WriteString("=")
			cw.WriteString(kv.val)
		}
	}
	return cw.Result()
}

func (p Params) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(p.kvs))
	for _, kv := range p.kvs {
		attrs = append(attrs, slog.String(kv.name, kv.val))
	}
	return slog.GroupValue(attrs...)
}
