// Package logger builds the logr.Logger used across apiprobe. Output goes
// through zap cores; callers only see the logr front end.
package logger

import (
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globalLevel controls sinks that don't set their own level
var globalLevel = zap.NewAtomicLevel()

type sinkConfig struct {
	core zapcore.Core
}

// SetLevel sets the verbosity for sinks using the global level.
// SetLevel(2) enables logger.V(2).
func SetLevel(level int8) {
	// zap levels get more verbose as the number gets smaller
	globalLevel.SetLevel(zapcore.Level(-level))
}

// New creates a logger named service writing to the given sinks. With no sinks
// the logger discards everything. The returned func flushes buffered output.
func New(service string, sinks ...sinkConfig) (logr.Logger, func() error) {
	cores := make([]zapcore.Core, 0, len(sinks))
	for _, s := range sinks {
		cores = append(cores, s.core)
	}
	zapLogger := zap.New(zapcore.NewTee(cores...))
	return zapr.NewLogger(zapLogger).WithName(service), zapLogger.Sync
}

// WithConsoleSink adds human-readable output, typically os.Stderr
func WithConsoleSink(w io.Writer) sinkConfig {
	return sinkConfig{core: zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		globalLevel,
	)}
}

// WithJSONSink adds JSON lines output
func WithJSONSink(w io.Writer) sinkConfig {
	return sinkConfig{core: zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		globalLevel,
	)}
}

func encoderConfig() zapcore.EncoderConfig {
	conf := zap.NewProductionEncoderConfig()
	conf.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	conf.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		if level >= zapcore.ErrorLevel {
			enc.AppendString("error")
			return
		}
		enc.AppendString(fmt.Sprintf("info-%d", -int8(level)))
	}
	return conf
}
