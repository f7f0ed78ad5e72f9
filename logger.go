package strata

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel controls how much diagnostic detail the machine emits.
type LogLevel int

const (
	// LogError logs only errors
	LogError LogLevel = iota
	// LogWarning logs errors and warnings
	LogWarning
	// LogInfo logs errors, warnings, and info
	LogInfo
	// LogDebug logs errors, warnings, info, and debug
	LogDebug
)

// Logger is the injectable diagnostic sink. The machine reports
// construction, dispatch, and transition steps through it; a logger is
// purely observational and must never influence control flow or event
// ordering.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// NopLogger returns a logger that discards everything. It is the
// default sink of a new machine.
func NopLogger() Logger {
	return nopLogger{}
}

// ZapLogger adapts a zap logger to the Logger interface.
type ZapLogger struct {
	s  *zap.SugaredLogger
	al *zap.AtomicLevel
}

// NewZapLogger creates a console-encoded zap logger writing to out. A
// nil out defaults to stderr.
func NewZapLogger(out io.Writer, level LogLevel, opts ...zap.Option) *ZapLogger {
	if out == nil {
		out = os.Stderr
	}

	al := zap.NewAtomicLevelAt(zapLevel(level))
	core := zapcore.NewCore(
		traceEncoder(),
		zapcore.AddSync(out),
		al,
	)
	return &ZapLogger{s: zap.New(core, opts...).Sugar(), al: &al}
}

// SetLevel adjusts the logger's level at runtime.
func (l *ZapLogger) SetLevel(level LogLevel) {
	l.al.SetLevel(zapLevel(level))
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.s.Sync()
}

// Debugf logs at debug level.
func (l *ZapLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }

// Infof logs at info level.
func (l *ZapLogger) Infof(format string, args ...any) { l.s.Infof(format, args...) }

// Warnf logs at warn level.
func (l *ZapLogger) Warnf(format string, args ...any) { l.s.Warnf(format, args...) }

// Errorf logs at error level.
func (l *ZapLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogDebug:
		return zapcore.DebugLevel
	case LogInfo:
		return zapcore.InfoLevel
	case LogWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func traceEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeLevel,
		EncodeTime:     encodeTime,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	})
}

func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

const logTimeFormat = "2006-01-02 15:04:05"

func encodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format(logTimeFormat) + "]")
}
