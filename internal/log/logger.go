// Package log is the logging facade used across xdgdesk. It keeps a small
// printf-style API on top of logrus so call sites never import logrus.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"xdgdesk/internal/errors"
)

var logger = NewLogger()

// Field is a single structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger wraps a logrus logger.
type Logger struct {
	base *logrus.Logger
	file *os.File
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput sends log output to w.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.base.SetOutput(w)
	}
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(l *Logger) {
		l.base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	}
}

// WithFile appends log output to path in addition to stderr.
func WithFile(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			l.base.WithError(err).Warn("unable to open log file")
			return
		}
		l.file = f
		l.base.SetOutput(io.MultiWriter(os.Stderr, f))
	}
}

// NewLogger creates a logger writing text lines to stderr.
func NewLogger(opts ...Option) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l := &Logger{base: base}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Configure replaces the package logger and closes the previous one. The
// debug setting is carried over.
func Configure(opts ...Option) {
	old := logger
	logger = NewLogger(opts...)
	logger.base.SetLevel(old.base.GetLevel())
	if err := old.Close(); err != nil {
		logger.base.WithError(err).Warn("unable to close previous log file")
	}
}

// SetDebug toggles debug output on the package logger.
func SetDebug(debug bool) {
	if debug {
		logger.base.SetLevel(logrus.DebugLevel)
	} else {
		logger.base.SetLevel(logrus.InfoLevel)
	}
}

// Close releases the log file opened by WithFile, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Entry is a log line under construction with attached fields.
type Entry struct {
	e *logrus.Entry
}

func (l *Logger) entry() *Entry {
	return &Entry{e: logrus.NewEntry(l.base)}
}

// With attaches fields to a new entry.
func (l *Logger) With(fields ...Field) *Entry {
	return l.entry().With(fields...)
}

func (l *Logger) Debug(msg string)                          { l.entry().Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry().Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.entry().Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry().Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.entry().Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry().Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.entry().Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry().Errorf(format, args...) }

// With attaches more fields.
func (e *Entry) With(fields ...Field) *Entry {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Entry{e: e.e.WithFields(data)}
}

func (e *Entry) Debug(msg string)                          { e.e.Debug(msg) }
func (e *Entry) Debugf(format string, args ...interface{}) { e.e.Debugf(format, args...) }
func (e *Entry) Info(msg string)                           { e.e.Info(msg) }
func (e *Entry) Infof(format string, args ...interface{})  { e.e.Infof(format, args...) }
func (e *Entry) Warn(msg string)                           { e.e.Warn(msg) }
func (e *Entry) Warnf(format string, args ...interface{})  { e.e.Warnf(format, args...) }
func (e *Entry) Error(msg string)                          { e.e.Error(msg) }
func (e *Entry) Errorf(format string, args ...interface{}) { e.e.Errorf(format, args...) }

// LogWithFields starts an entry on the package logger.
func LogWithFields(fields ...Field) *Entry {
	return logger.With(fields...)
}

// LogWithError starts an entry describing err, including its kind and any
// path or parameter it carries.
func LogWithError(err error) *Entry {
	if err == nil {
		return logger.With(F("error", "<nil>"))
	}
	fields := []Field{F("error", err.Error()), F("error_kind", int(errors.KindOf(err)))}
	var fileErr *errors.FileError
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	return logger.With(fields...)
}

// Info logs a formatted message at info level.
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Debug logs a formatted message at debug level.
func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Warn logs a formatted message at warn level.
func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs a formatted message at error level.
func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
