package utilities

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/antonio-alexander/go-employee-booking/internal"
)

type logger struct {
	*log.Logger
	config struct {
		Level  Level
		Output string
	}
}

type Level int

const (
	Error Level = 1
	Info  Level = 2
	Debug Level = 3
	Trace Level = 4
)

func (l Level) String() string {
	switch l {
	default:
		return ""
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	}
}

type Logger interface {
	Error(ctx context.Context, format string, v ...any)
	Info(ctx context.Context, format string, v ...any)
	Debug(ctx context.Context, format string, v ...any)
	Trace(ctx context.Context, format string, v ...any)
}

func atoLogLevel(a string) Level {
	switch strings.ToLower(a) {
	default:
		return Error
	case "info":
		return Info
	case "debug":
		return Debug
	case "trace":
		return Trace
	}
}

func atoOutput(a string) io.Writer {
	switch strings.ToLower(a) {
	default:
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
}

func NewLogger() interface {
	internal.Configurer
	Logger
} {
	l := &logger{
		Logger: log.New(os.Stderr, "", log.Ltime|log.Ldate|log.Lmsgprefix),
	}
	l.config.Level = Error
	return l
}

func (l *logger) Configure(envs map[string]string) error {
	l.config.Level = Error
	if logLevel, ok := envs["LOG_LEVEL"]; ok {
		l.config.Level = atoLogLevel(logLevel)
	}
	if output, ok := envs["LOG_OUTPUT"]; ok {
		l.config.Output = output
		l.SetOutput(atoOutput(output))
	}
	return nil
}

func (l *logger) printf(ctx context.Context, level Level, format string, v ...any) {
	if l.config.Level < level {
		return
	}
	prefix := "[" + level.String() + "] "
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		prefix = fmt.Sprintf("[%s] (%s) ", level, correlationId)
	}
	l.Printf(prefix+format, v...)
}

func (l *logger) Error(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Error, format, v...)
}

func (l *logger) Info(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Info, format, v...)
}

func (l *logger) Debug(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Debug, format, v...)
}

func (l *logger) Trace(ctx context.Context, format string, v ...any) {
	l.printf(ctx, Trace, format, v...)
}

type nopLogger struct{}

// NewNopLogger returns a logger that drops everything, components fall
// back to it when no logger is provided
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Trace(context.Context, string, ...any) {}
