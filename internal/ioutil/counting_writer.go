// Package ioutil provides I/O helpers for message rendering.
package ioutil

//go:generate errtrace -w .

import (
	"fmt"
	"io"
	"sync"

	"braces.dev/errtrace"
)

// CountingWriter wraps an io.Writer and tracks the total number of bytes written.
// After the first failed write all further writes are skipped, so RenderTo implementations
// can chain calls and check the error once with [CountingWriter.Result].
type CountingWriter struct {
	w   io.Writer
	num int
	err error
}

// NewCountingWriter creates a new CountingWriter wrapping the given writer.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (cw *CountingWriter) track(n int, err error) (int, error) {
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
	}
	return n, cw.err
}

// Write implements io.Writer.
func (cw *CountingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	return cw.track(cw.w.Write(p))
}

// WriteString implements io.StringWriter.
func (cw *CountingWriter) WriteString(s string) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	return cw.track(io.WriteString(cw.w, s))
}

// Fprint writes args using fmt.Fprint.
func (cw *CountingWriter) Fprint(args ...any) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	return cw.track(fmt.Fprint(cw.w, args...))
}

// Fprintf writes args using fmt.Fprintf.
func (cw *CountingWriter) Fprintf(format string, args ...any) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	return cw.track(fmt.Fprintf(cw.w, format, args...))
}

// Call executes a RenderTo-style function.
func (cw *CountingWriter) Call(fn func(io.Writer) (int, error)) *CountingWriter {
	if cw.err == nil {
		cw.track(fn(cw.w)) //nolint:errcheck
	}
	return cw
}

// Result returns the total number of bytes written and the first error encountered.
func (cw *CountingWriter) Result() (int, error) {
	return cw.num, cw.err
}

var cntWrtPool = &sync.Pool{
	New: func() any { return &CountingWriter{} },
}

func GetCountingWriter(w io.Writer) *CountingWriter {
	cw := cntWrtPool.Get().(*CountingWriter) //nolint:forcetypeassert
	cw.w = w
	return cw
}

func FreeCountingWriter(cw *CountingWriter) {
	cw.w = nil
	cw.num = 0
	cw.err = nil
	cntWrtPool.Put(cw)
}
