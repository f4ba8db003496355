package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config — настройки логгера. Переменные: ACACALC_LOG_LEVEL, ACACALC_LOG_FILE, ACACALC_LOG_FORMAT.
type Config struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	File   string `envconfig:"FILE" default:"app.log"` // пусто — только stderr
	Format string `envconfig:"FORMAT" default:"text"`  // text или json
}

// logWriter открывает файл лога и возвращает writer в файл + stderr (и в файл, и в консоль).
// При ошибке открытия файла возвращает только stderr.
func logWriter(file string) io.Writer {
	if file == "" {
		return os.Stderr
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return os.Stderr
	}
	return io.MultiWriter(f, os.Stderr)
}

// New возвращает логгер по конфигу.
func New(cfg Config) *slog.Logger {
	return NewWithWriter(cfg, logWriter(cfg.File))
}

// NewWithWriter — логгер с заданным writer (тесты, CLI).
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel переводит строку уровня (debug, info, warn, error) в slog.Level. Неизвестное значение — info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
