// Package logging настраивает глобальный zerolog-логгер и добавляет request id из контекста.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config параметры логирования.
type Config struct {
	Level  string    // trace, debug, info, warn, error, disabled
	Format string    // json или console
	Output io.Writer // по умолчанию os.Stderr
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(Config{})
}

// Init переинициализирует глобальный логгер.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	log = zerolog.New(output).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// Logger возвращает копию глобального логгера.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug начинает сообщение уровня debug.
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info начинает сообщение уровня info.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn начинает сообщение уровня warn.
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error начинает сообщение уровня error.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Fatal начинает сообщение уровня fatal; после отправки процесс завершается.
func Fatal() *zerolog.Event {
	l := Logger()
	return l.Fatal()
}

type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID генерирует идентификатор запроса.
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID кладет идентификатор запроса в контекст.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID извлекает идентификатор запроса из контекста.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx возвращает логгер с request_id из контекста, если он есть.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if id := RequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}
