// Package log provides slog handler presets and the process default logger
// used by components that were not given their own logger.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/golang-cz/devslog"
	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"
)

var newHandler = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
	slogformatter.FormatByType(func(ls net.Listener) slog.Value {
		return slog.GroupValue(
			slog.String("type", fmt.Sprintf("%T", ls)),
			slog.Any("local_addr", ls.Addr()),
		)
	}),
	slogformatter.FormatByType(func(c net.PacketConn) slog.Value {
		return slog.GroupValue(
			slog.String("type", fmt.Sprintf("%T", c)),
			slog.Any("local_addr", c.LocalAddr()),
		)
	}),
	slogformatter.FormatByType(func(c net.Conn) slog.Value {
		return slog.GroupValue(
			slog.String("type", fmt.Sprintf("%T", c)),
			slog.Any("local_addr", c.LocalAddr()),
			slog.Any("remote_addr", c.RemoteAddr()),
		)
	}),
)

// Console is a human readable logger writing to stdout.
var Console = slog.New(newHandler(
	console.NewHandler(os.Stdout, &console.HandlerOptions{
		AddSource:  true,
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339Nano,
	}),
))

// Dev is a developer logger with colored, sorted and expanded attributes.
var Dev = slog.New(newHandler(
	devslog.NewHandler(os.Stdout, &devslog.Options{
		HandlerOptions: &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		},
		SortKeys:   true,
		TimeFormat: time.RFC3339Nano,
	}),
))

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h noopHandler) WithGroup(string) slog.Handler { return h }

// Noop is a logger that discards everything.
var Noop = slog.New(noopHandler{})

var def atomic.Pointer[slog.Logger]

func init() { def.Store(Console) }

// Default returns the process default logger.
func Default() *slog.Logger { return def.Load() }

// SetDefault replaces the process default logger, nil resets it to [Console].
func SetDefault(l *slog.Logger) {
	if l == nil {
		l = Console
	}
	def.Store(l)
}

// WithFormatters wraps h with the error and network connection formatters
// used by the presets.
func WithFormatters(h slog.Handler) slog.Handler { return newHandler(h) }

type calcValue struct{ fn func() any }

func (v calcValue) LogValue() slog.Value {
	switch cv := v.fn().(type) {
	case slog.Value:
		return cv
	default:
		return slog.AnyValue(cv)
	}
}

// CalcValue returns a value that is computed by fn only when the record is handled.
func CalcValue(fn func() any) slog.LogValuer { return calcValue{fn} }
