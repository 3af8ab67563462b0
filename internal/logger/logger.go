package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Level is the logging level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = map[Level]string{
	Debug: "DEBUG",
	Info:  "INFO",
	Warn:  "WARN",
	Error: "ERROR",
}

// Config controls logger initialization.
type Config struct {
	Enabled bool
	Level   string
	File    string
	Console bool
}

// Logger is a basic leveled logger.
type Logger struct {
	level   Level
	logger  *log.Logger
	closer  io.Closer
	enabled bool
}

var global atomic.Pointer[Logger]

// Init initializes the process-wide logger.
func Init(cfg Config) error {
	if !cfg.Enabled {
		swap(&Logger{enabled: false})
		return nil
	}

	var writers []io.Writer
	var closer io.Closer

	if cfg.File != "" {
		dir := filepath.Dir(cfg.File)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}

	if cfg.Console || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	swap(&Logger{
		level:   ParseLevel(cfg.Level),
		logger:  log.New(io.MultiWriter(writers...), "", 0),
		closer:  closer,
		enabled: true,
	})
	return nil
}

// SetOutput routes all log lines at or above level to w.
func SetOutput(w io.Writer, level Level) {
	swap(&Logger{level: level, logger: log.New(w, "", 0), enabled: true})
}

// Close releases the log file, if any.
func Close() error {
	l := global.Load()
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func swap(l *Logger) {
	if old := global.Swap(l); old != nil && old.closer != nil {
		old.closer.Close()
	}
}

// ParseLevel maps a level name to a Level; unknown names map to Info.
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return Debug
	case "info":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func logf(level Level, format string, args ...interface{}) {
	l := global.Load()
	if l == nil || !l.enabled || l.level > level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] [%s] %s", ts, levelNames[level], fmt.Sprintf(format, args...))
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) { logf(Debug, format, args...) }

// Infof logs an info message.
func Infof(format string, args ...interface{}) { logf(Info, format, args...) }

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) { logf(Warn, format, args...) }

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) { logf(Error, format, args...) }
