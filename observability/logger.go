// Package observability provides the ambient logging, metrics, and
// tracing stack shared by every beanwire package: a small injectable
// Logger interface (grounded on commbus.BusLogger), Prometheus metrics
// (grounded on coreengine/observability/metrics.go), and OpenTelemetry
// tracing (grounded on coreengine/observability/tracing.go, adapted to
// the HTTP OTLP exporter since this module's transport is HTTP
// end-to-end — see SPEC_FULL.md §2.4).
package observability

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured-logging protocol every beanwire package
// accepts via constructor injection — never a package-level global.
// Shape mirrors commbus.BusLogger / coreengine/grpc.Logger.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// noopLogger discards everything; used in tests where log output would
// only be noise (mirrors commbus.NoopBusLogger).
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger returns a Logger that discards all output.
func NoopLogger() Logger { return noopLogger{} }

// zerologLogger backs the Logger protocol with github.com/rs/zerolog,
// replacing the teacher's bare log.Printf wrapper with structured,
// leveled, field-based output (SPEC_FULL.md §2.1).
type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger returns the default production Logger: structured
// JSON to stderr via zerolog.
func NewZerologLogger(component string) Logger {
	l := zerolog.New(os.Stderr).With().Timestamp().Str("component", component).Logger()
	return &zerologLogger{l: l}
}

func (z *zerologLogger) Debug(msg string, kv ...any) { z.emit(z.l.Debug(), msg, kv) }
func (z *zerologLogger) Info(msg string, kv ...any)  { z.emit(z.l.Info(), msg, kv) }
func (z *zerologLogger) Warn(msg string, kv ...any)  { z.emit(z.l.Warn(), msg, kv) }
func (z *zerologLogger) Error(msg string, kv ...any) { z.emit(z.l.Error(), msg, kv) }

func (z *zerologLogger) emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
