package logger

import (
	"log/slog"
	"os"
	"path/filepath"
)

var (
	Logger *slog.Logger
	level  = new(slog.LevelVar)
)

func init() {
	level.Set(slog.LevelInfo)

	// Structured logger writing to logs/textcards.log, or stderr if that is unavailable
	Logger = slog.New(slog.NewTextHandler(openLogFile(), &slog.HandlerOptions{
		Level: level,
	}))
}

func openLogFile() *os.File {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return os.Stderr
	}

	logFile, err := os.OpenFile(filepath.Join("logs", "textcards.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return os.Stderr
	}
	return logFile
}

// SetLevel changes the minimum level written to the log
func SetLevel(l slog.Level) {
	level.Set(l)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
