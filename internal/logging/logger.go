package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ansiColor returns the ANSI color code used for a level on a terminal.
func (l LogLevel) ansiColor() string {
	switch l {
	case DebugLevel:
		return "\x1b[90m" // gray
	case InfoLevel:
		return "\x1b[36m" // cyan
	case WarnLevel:
		return "\x1b[33m" // yellow
	case ErrorLevel:
		return "\x1b[31m" // red
	default:
		return ""
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// StructuredLogger implements the Logger interface with structured logging
type StructuredLogger struct {
	level  LogLevel
	logger *log.Logger
	writer io.Writer
	color  bool
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(level LogLevel, writer io.Writer) *StructuredLogger {
	return &StructuredLogger{
		level:  level,
		logger: log.New(writer, "", 0), // We'll format timestamps ourselves
		writer: writer,
		color:  isTerminal(writer),
	}
}

// isTerminal reports whether writer is a terminal that can render ANSI
// color codes; only *os.File values are ever terminals.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(level LogLevel, filename string) (*StructuredLogger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}

	return NewStructuredLogger(level, file), nil
}

// NewConsoleLogger creates a logger that writes to stdout
func NewConsoleLogger(level LogLevel) *StructuredLogger {
	return NewStructuredLogger(level, os.Stdout)
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(level LogLevel, writers ...io.Writer) *StructuredLogger {
	multiWriter := io.MultiWriter(writers...)
	return NewStructuredLogger(level, multiWriter)
}

// Debug logs a debug message with optional fields
func (l *StructuredLogger) Debug(msg string, fields ...Field) {
	if l.level <= DebugLevel {
		l.log(DebugLevel, msg, fields...)
	}
}

// Info logs an info message with optional fields
func (l *StructuredLogger) Info(msg string, fields ...Field) {
	if l.level <= InfoLevel {
		l.log(InfoLevel, msg, fields...)
	}
}

// Warn logs a warning message with optional fields
func (l *StructuredLogger) Warn(msg string, fields ...Field) {
	if l.level <= WarnLevel {
		l.log(WarnLevel, msg, fields...)
	}
}

// Error logs an error message with optional fields
func (l *StructuredLogger) Error(msg string, fields ...Field) {
	if l.level <= ErrorLevel {
		l.log(ErrorLevel, msg, fields...)
	}
}

// log formats and writes the log message
func (l *StructuredLogger) log(level LogLevel, msg string, fields ...Field) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	levelStr := level.String()
	if l.color {
		levelStr = level.ansiColor() + levelStr + "\x1b[0m"
	}

	logMsg := fmt.Sprintf("[%s] %s: %s", timestamp, levelStr, msg)

	if len(fields) > 0 {
		fieldStrs := make([]string, len(fields))
		for i, field := range fields {
			fieldStrs[i] = fmt.Sprintf("%s=%v", field.Key, field.Value)
		}
		logMsg += " | " + strings.Join(fieldStrs, " ")
	}

	l.logger.Println(logMsg)
}

// SetLevel changes the logging level
func (l *StructuredLogger) SetLevel(level LogLevel) {
	l.level = level
}

// GetLevel returns the current logging level
func (l *StructuredLogger) GetLevel() LogLevel {
	return l.level
}

// Close closes the logger if it's writing to a file
func (l *StructuredLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Helper functions for creating common fields

// StringField creates a string field
func StringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

// IntField creates an integer field
func IntField(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// ErrorField creates an error field
func ErrorField(err error) Field {
	return Field{Key: "error", Value: err.Error()}
}

// AddressField creates an address field
func AddressField(key, address string) Field {
	return Field{Key: key, Value: address}
}

// UsernameField creates a username field
func UsernameField(username string) Field {
	return Field{Key: "username", Value: username}
}

// RealmField creates a realm field
func RealmField(realm string) Field {
	return Field{Key: "realm", Value: realm}
}

// VerdictField creates a verdict field
func VerdictField(verdict fmt.Stringer) Field {
	return Field{Key: "verdict", Value: verdict.String()}
}

// NonceField creates a truncated nonce field, safe to log without leaking
// the full self-authenticating token.
func NonceField(nonce string) Field {
	if len(nonce) > 12 {
		nonce = nonce[:12] + "..."
	}
	return Field{Key: "nonce", Value: nonce}
}

// LoggerConfig represents logger configuration
type LoggerConfig struct {
	Level string
	File  string
}

// NewLoggerFromConfig creates a logger based on configuration
func NewLoggerFromConfig(config LoggerConfig) (Logger, error) {
	level, err := ParseLogLevel(config.Level)
	if err != nil {
		return nil, err
	}

	if config.File == "" || config.File == "stdout" {
		// Log to console only
		return NewConsoleLogger(level), nil
	}

	// Create file logger
	fileLogger, err := NewFileLogger(level, config.File)
	if err != nil {
		return nil, err
	}

	// Below error level, mirror every logged message to the console as
	// well; at error level the file is the only output.
	if level <= WarnLevel {
		consoleWriter := os.Stdout
		return NewMultiLogger(level, fileLogger.writer, consoleWriter), nil
	}

	return fileLogger, nil
}
