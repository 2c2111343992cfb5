// Package logger provides the leveled logger shared by the lobby server and client.
//
// A Logger is constructed explicitly and handed to every component that needs
// it. Loggers derived with Named share level, outputs and lock with their parent.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents the severity of a log line
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

const timeLayout = "2006-01-02 15:04:05.000"

// String returns the upper-case level name
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name into a LogLevel. ERR is accepted as ERROR.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR", "ERR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// sink is the state shared by a logger and everything derived from it
type sink struct {
	mu      sync.Mutex
	level   LogLevel
	console io.Writer
	file    *os.File
	colors  map[LogLevel]*color.Color
	exit    func(int)
	now     func() time.Time
}

// Logger writes leveled, timestamped lines tagged with a component name
type Logger struct {
	name string
	core *sink
}

// Option configures a Logger at construction time
type Option func(*sink)

// WithLevel sets the minimum level that gets written
func WithLevel(level LogLevel) Option {
	return func(s *sink) {
		s.level = level
	}
}

// WithOutput replaces the console writer. A nil writer disables console output.
func WithOutput(w io.Writer) Option {
	return func(s *sink) {
		s.console = w
	}
}

// WithoutColor disables level coloring on the console writer
func WithoutColor() Option {
	return func(s *sink) {
		for _, c := range s.colors {
			c.DisableColor()
		}
	}
}

// New creates a logger for the named component. Console output goes to a
// colorable stdout unless WithOutput says otherwise.
func New(name string, opts ...Option) *Logger {
	s := &sink{
		level:   INFO,
		console: color.Output,
		colors: map[LogLevel]*color.Color{
			DEBUG: color.New(color.FgCyan),
			INFO:  color.New(color.FgGreen),
			WARN:  color.New(color.FgYellow),
			ERROR: color.New(color.FgRed),
			FATAL: color.New(color.FgRed, color.Bold, color.BgBlack),
		},
		exit: os.Exit,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return &Logger{name: name, core: s}
}

// Named returns a logger for a sub-component sharing this logger's outputs
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, core: l.core}
}

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// SetLevel changes the minimum level for this logger and all its relatives
func (l *Logger) SetLevel(level LogLevel) {
	l.core.mu.Lock()
	l.core.level = level
	l.core.mu.Unlock()
}

// Level returns the current minimum level
func (l *Logger) Level() LogLevel {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return l.core.level
}

// SetFile appends all subsequent lines to the given file, creating parent
// directories as needed. A previously configured file is closed.
func (l *Logger) SetFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	if l.core.file != nil {
		l.core.file.Close()
	}
	l.core.file = f
	return nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	if l.core.file == nil {
		return nil
	}
	err := l.core.file.Close()
	l.core.file = nil
	return err
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Fatal logs the message and terminates the process with status 1
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
	l.core.exit(1)
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	s := l.core
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level {
		return
	}

	prefix := fmt.Sprintf("[%s] [%-5s]", s.now().Format(timeLayout), level)
	var line strings.Builder
	if l.name != "" {
		line.WriteString(" [")
		line.WriteString(l.name)
		line.WriteString("]")
	}
	line.WriteString(" ")
	line.WriteString(fmt.Sprintf(format, args...))
	line.WriteString("\n")

	if s.console != nil {
		s.colors[level].Fprint(s.console, prefix)
		io.WriteString(s.console, line.String())
	}
	if s.file != nil {
		io.WriteString(s.file, prefix+line.String())
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return New("", WithOutput(nil), WithoutColor())
}
