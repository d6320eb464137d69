package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/masq"
)

type contextKey struct{}

var loggerKey = contextKey{}

// Options controls how the CLI logger is built.
type Options struct {
	Debug   bool
	Verbose bool
	JSON    bool
	Output  io.Writer
}

// Initialize installs the process-wide default logger. Warnings and errors are always shown,
// --verbose adds info and --debug adds debug records with their source location.
func Initialize(debug, verbose bool) {
	slog.SetDefault(New(Options{Debug: debug, Verbose: verbose}))
}

// New builds a logger that redacts credentials before they reach the output.
func New(o Options) *slog.Logger {
	level := slog.LevelWarn
	if o.Debug {
		level = slog.LevelDebug
	} else if o.Verbose {
		level = slog.LevelInfo
	}

	w := o.Output
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   o.Debug,
		ReplaceAttr: Redactor(),
	}

	var handler slog.Handler
	if o.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewPrettyHandler(w, opts)
	}
	return slog.New(handler)
}

// Redactor masks credential-looking fields anywhere in a logged value.
func Redactor() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithFieldName("APIKey"),
		masq.WithFieldName("APIToken"),
		masq.WithFieldName("Token"),
		masq.WithFieldName("Credential"),
		masq.WithTag("secret"),
	)
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func With(ctx context.Context, args ...any) context.Context {
	l := FromContext(ctx).With(args...)
	return WithLogger(ctx, l)
}

func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	FromContext(ctx).Error(msg, args...)
}
