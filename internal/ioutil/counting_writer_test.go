package ioutil_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ghettovoice/sipstack/internal/ioutil"
)

var errWrite = errors.New("write failed")

type limitWriter struct{ left int }

func (w *limitWriter) Write(p []byte) (int, error) {
	if len(p) > w.left {
		n := w.left
		w.left = 0
		return n, errWrite
	}
	w.left -= len(p)
	return len(p), nil
}

func TestCountingWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cw := ioutil.NewCountingWriter(&buf)
	cw.WriteString("INVITE ")
	cw.Fprint("sip:", "bob@example.com")
	cw.Fprintf(" SIP/%d.%d", 2, 0)
	cw.Call(func(w io.Writer) (int, error) { return io.WriteString(w, "\r\n") })

	num, err := cw.Result()
	if err != nil {
		t.Fatalf("CountingWriter.Result() error = %v, want nil", err)
	}
	if want := "INVITE sip:bob@example.com SIP/2.0\r\n"; buf.String() != want || num != len(want) {
		t.Errorf("CountingWriter wrote (%q, %d), want (%q, %d)", buf.String(), num, want, len(want))
	}
}

func TestCountingWriter_Error(t *testing.T) {
	t.Parallel()

	cw := ioutil.GetCountingWriter(&limitWriter{left: 5})
	defer ioutil.FreeCountingWriter(cw)

	cw.WriteString("abc")
	cw.WriteString("def")
	cw.WriteString("ghi")

	num, err := cw.Result()
	if !errors.Is(err, errWrite) {
		t.Errorf("CountingWriter.Result() error = %v, want %v", err, errWrite)
	}
	if num != 5 {
		t.Errorf("CountingWriter.Result() num = %d, want 5", num)
	}
}
