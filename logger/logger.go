package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

type logger struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	level  slog.Level
}

type logMessage struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"additional_info,omitempty"`
}

// Output is discarded until Setup or SetOutput is called.
var logInstance = &logger{out: io.Discard, level: slog.LevelInfo}

// Setup routes log lines to dir/app.<date>.log, rotated daily and kept for a week
func Setup(dir string, level slog.Level) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	writer, err := rotatelogs.New(
		filepath.Join(dir, "app.%Y-%m-%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, "app.log")),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize rotatelogs: %w", err)
	}

	logInstance.setOutput(writer, writer)
	logInstance.SetLevel(level)
	return nil
}

// SetOutput sends log lines to w
func SetOutput(w io.Writer) {
	logInstance.setOutput(w, nil)
}

// Close flushes and releases the rotating log file, if any
func Close() error {
	logInstance.mu.Lock()
	defer logInstance.mu.Unlock()

	var err error
	if logInstance.closer != nil {
		err = logInstance.closer.Close()
		logInstance.closer = nil
	}
	logInstance.out = io.Discard
	return err
}

func (l *logger) setOutput(w io.Writer, c io.Closer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer != nil {
		l.closer.Close()
	}
	if w == nil {
		w = io.Discard
	}
	l.out = w
	l.closer = c
}

func (l *logger) log(level slog.Level, msg string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	line, err := json.Marshal(logMessage{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Data:      normalize(data),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error marshaling log message:", err)
		return
	}

	l.out.Write(append(line, '\n'))
}

func (l *logger) SetLevel(level slog.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level = level
}

// normalize turns error values into strings; encoding/json renders them as {}
func normalize(data map[string]any) map[string]any {
	for key, value := range data {
		if err, ok := value.(error); ok {
			data[key] = err.Error()
		}
	}
	return data
}

func SetLevel(level slog.Level) {
	logInstance.SetLevel(level)
}

func Debug(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelDebug, msg, first(data))
}

func Info(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelInfo, msg, first(data))
}

func Warn(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelWarn, msg, first(data))
}

func Error(msg string, data ...map[string]any) {
	logInstance.log(slog.LevelError, msg, first(data))
}

func first(data []map[string]any) map[string]any {
	if len(data) > 0 {
		return data[0]
	}
	return nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
