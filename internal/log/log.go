package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type cascadeKey struct{}

var (
	levelVar = new(slog.LevelVar)
	loggerMu sync.RWMutex
	logger   = newLogger()
)

func init() {
	levelVar.Set(slog.LevelInfo)
}

func newLogger() *slog.Logger {
	return slog.New(newHandler(os.Stdout))
}

func newHandler(w io.Writer) slog.Handler {
	opts := slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Key = "level"
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	}
	return cascadeHandler{Handler: slog.NewTextHandler(w, &opts)}
}

// cascadeHandler stamps every record with the cascade id found on the context.
type cascadeHandler struct {
	slog.Handler
}

func (h cascadeHandler) Handle(ctx context.Context, record slog.Record) error {
	if id, ok := CascadeID(ctx); ok {
		record.AddAttrs(slog.String("cascade", id))
	}
	return h.Handler.Handle(ctx, record)
}

func (h cascadeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return cascadeHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h cascadeHandler) WithGroup(name string) slog.Handler {
	return cascadeHandler{Handler: h.Handler.WithGroup(name)}
}

// WithCascade returns a context carrying a fresh cascade id, or ctx unchanged
// when it already has one. Nested dispatches therefore share the outer id.
func WithCascade(ctx context.Context) context.Context {
	ctx = withContext(ctx)
	if _, ok := CascadeID(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, cascadeKey{}, uuid.NewString())
}

// CascadeID returns the cascade id attached by WithCascade.
func CascadeID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(cascadeKey{}).(string)
	return id, ok && id != ""
}

// SetLevel updates the minimum logging level accepted by the global logger.
// Supported levels are "debug", "info", "warn" and "error". Values are case-insensitive.
func SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		levelVar.Set(slog.LevelInfo)
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}

// Logger returns the underlying slog.Logger instance.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// ReplaceLogger installs a custom slog.Logger.
func ReplaceLogger(l *slog.Logger) {
	if l == nil {
		panic("log: nil logger provided")
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// NewLogger builds a logger with the package formatting writing to w.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(newHandler(w))
}

func Info(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(withContext(ctx), msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	Logger().DebugContext(withContext(ctx), msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(withContext(ctx), msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(withContext(ctx), msg, args...)
}

func withContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
