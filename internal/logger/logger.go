package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"motiontracker/internal/config"

	"github.com/pkg/errors"
)

// Level names a log stream. Each level has its own file in the log directory.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Levels lists every level in increasing severity.
var Levels = []Level{LevelInfo, LevelWarning, LevelError}

// ErrUnknownLevel is returned for a level name that has no log stream.
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel maps a level name to a Level.
func ParseLevel(name string) (Level, error) {
	for _, level := range Levels {
		if string(level) == name {
			return level, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownLevel, "%q", name)
}

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	loggers map[Level]*log.Logger
	files   map[Level]*os.File
	logDir  string
	mu      sync.Mutex
}

// NewLogger creates a Logger writing into the configured log directory.
func NewLogger(cfg *config.Config) *Logger {
	l, err := New(cfg.LogDirectory)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	return l
}

// New creates a Logger and ensures dir exists.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}

	l := &Logger{
		loggers: make(map[Level]*log.Logger, len(Levels)),
		files:   make(map[Level]*os.File, len(Levels)),
		logDir:  dir,
	}

	prefixes := map[Level]string{
		LevelInfo:    "INFO    ",
		LevelWarning: "WARNING ",
		LevelError:   "ERROR   ",
	}

	for _, level := range Levels {
		file, err := os.OpenFile(l.Path(level), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			l.Close()
			return nil, errors.Wrapf(err, "open %s log", level)
		}
		l.files[level] = file

		var console io.Writer = os.Stdout
		if level == LevelError {
			console = os.Stderr
		}
		l.loggers[level] = log.New(io.MultiWriter(console, file), prefixes[level], log.Ldate|log.Ltime|log.Lshortfile)
	}

	return l, nil
}

// Path returns the file backing a level.
func (l *Logger) Path(level Level) string {
	return filepath.Join(l.logDir, string(level)+".log")
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.output(LevelInfo, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.output(LevelWarning, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.output(LevelError, format, v...)
}

// Printf lets the logger stand in wherever a Printf-style sink is expected.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.output(LevelInfo, format, v...)
}

func (l *Logger) output(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// 3 = caller of Info/Warning/Error
	l.loggers[level].Output(3, fmt.Sprintf(format, v...))
}

// Clean truncates the file of a level.
func (l *Logger) Clean(level Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, ok := l.files[level]
	if !ok {
		return errors.Wrapf(ErrUnknownLevel, "%q", level)
	}
	if err := file.Truncate(0); err != nil {
		return errors.Wrapf(err, "truncate %s log", level)
	}
	return nil
}

// Close releases the log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var first error
	for _, file := range l.files {
		if err := file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
