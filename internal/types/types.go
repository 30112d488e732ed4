// Package types contains value types shared by the header, uri and sip packages.
package types

//go:generate errtrace -w .

import "io"

// Renderer is an interface that is used to render a type to a string or a writer.
type Renderer interface {
	// Render renders the type to a string with the given options.
	Render(opts *RenderOptions) string
	// RenderTo renders the type to a writer with the given options.
	RenderTo(w io.Writer, opts *RenderOptions) (int, error)
}

// RenderOptions is a struct that is used to pass options to rendering methods.
type RenderOptions struct {
	// Compact is a boolean flag that is used to render a type in compact form.
	Compact bool `json:"compact,omitempty"`
}

func (o *RenderOptions) IsCompact() bool { return o != nil && o.Compact }

type ValidFlag interface {
	IsValid() bool
}

// IsValid returns true if the value has method `IsValid() bool` and it returns true.
func IsValid(v any) bool {
	vv, ok := v.(ValidFlag)
	return ok && vv.IsValid()
}

type Equalable interface {
	Equal(val any) bool
}

// IsEqual returns true if v1 has method `Equal(any) bool` and it reports equality with v2.
func IsEqual(v1, v2 any) bool {
	if e, ok := v1.(Equalable); ok {
		return e.Equal(v2)
	}
	return v1 == nil && v2 == nil
}

// Equal is a helper for Equal(any) methods of value types:
// it accepts both value and non-nil pointer forms.
func Equal[T any](val any, eq func(T) bool) bool {
	switch v := val.(type) {
	case T:
		return eq(v)
	case *T:
		return v != nil && eq(*v)
	default:
		return false
	}
}
