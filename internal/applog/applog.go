package applog

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	fileName    = "attention-cleaner.log"
	maxFileSize = 5 << 20 // 5 MB
	maxValueLen = 200
	truncSuffix = "…"
)

var (
	mu     sync.Mutex
	file   *os.File
	logger = zap.NewNop().Sugar()
)

// Init opens the log file for appending. Call once at startup.
// If the file exceeds 5 MB, it is rotated (renamed to .log.1) before opening.
// Safe to skip: all log calls are no-ops until Init succeeds.
// level is a zap level name; empty means info.
func Init(dir, level string) error {
	path := filepath.Join(dir, fileName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Rotate if too large.
	if info, err := os.Stat(path); err == nil && info.Size() > maxFileSize {
		os.Rename(path, path+".1")
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.Lock(f), lvl)

	mu.Lock()
	file = f
	logger = zap.New(core).Sugar()
	mu.Unlock()
	return nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	logger.Sync()
	logger = zap.NewNop().Sugar()
	if file != nil {
		file.Close()
		file = nil
	}
}

// Info logs a structured event line.
//
//	applog.Info("ws.connected", "remote", addr)
//	applog.Info("cleaner.apply", "origin", origin, "hidden", 3)
func Info(event string, kv ...any) {
	current().Infow(event, trim(kv)...)
}

// Warn logs a recoverable problem.
//
//	applog.Warn("cleaner.selector", "selector", sel, "err", err)
func Warn(event string, kv ...any) {
	current().Warnw(event, trim(kv)...)
}

// Error logs an event with an error.
//
//	applog.Error("ws.send", err, "action", "badge")
func Error(event string, err error, kv ...any) {
	current().Errorw(event, append(trim(kv), "err", err)...)
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// trim shortens long string values.
func trim(kv []any) []any {
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 1; i < len(out); i += 2 {
		if s, ok := out[i].(string); ok && len(s) > maxValueLen {
			out[i] = s[:maxValueLen] + truncSuffix
		}
	}
	return out
}
