package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02 15:04:05"

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}).
		With().Timestamp().Logger()
)

// InitLogger sends log lines to the console and appends them to the file at
// path. Call it once at startup; the returned file must be closed on exit.
func InitLogger(path, level string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	out := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat},
		zerolog.ConsoleWriter{Out: file, TimeFormat: timeFormat, NoColor: true},
	)

	mu.Lock()
	logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()

	Debug("Logger initialized | level=%s file=%s", lvl, path)
	return file, nil
}

// SetLogOutput replaces the log destination with w, keeping every level.
func SetLogOutput(w io.Writer) {
	mu.Lock()
	logger = zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	mu.Unlock()
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func Debug(format string, a ...interface{}) {
	current().Debug().Msgf(format, a...)
}

func Info(format string, a ...interface{}) {
	current().Info().Msgf(format, a...)
}

// Success is an INFO line flagged ok=true, used when a step completes.
func Success(format string, a ...interface{}) {
	current().Info().Bool("ok", true).Msgf(format, a...)
}

func Warn(format string, a ...interface{}) {
	current().Warn().Msgf(format, a...)
}

func Error(format string, a ...interface{}) {
	current().Error().Msgf(format, a...)
}

func Section(title string) {
	current().Info().Msgf("══════════ %s ══════════", title)
}
