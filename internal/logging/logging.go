// Package logging builds the zap loggers used by aicommit.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a supported logging granularity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format is a supported log encoding.
type Format string

const (
	// FormatConsole prints "LEVEL - message" lines without timestamps.
	FormatConsole Format = "console"
	// FormatStructured prints one JSON object per line.
	FormatStructured Format = "structured"
)

var levels = map[Level]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

// Options configures New.
type Options struct {
	Level  Level
	Format Format
	// Writer receives log output; defaults to os.Stderr.
	Writer io.Writer
}

// New returns a logger honoring the requested level and format.
func New(opts Options) (*zap.Logger, error) {
	level, ok := levels[Level(strings.ToLower(string(opts.Level)))]
	if !ok {
		return nil, fmt.Errorf("unsupported log level: %s", opts.Level)
	}

	var encoder zapcore.Encoder
	switch Format(strings.ToLower(string(opts.Format))) {
	case FormatConsole:
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.TimeKey = ""
		encoderConfig.CallerKey = ""
		encoderConfig.NameKey = ""
		encoderConfig.StacktraceKey = ""
		encoderConfig.ConsoleSeparator = " - "
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case FormatStructured:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("unsupported log format: %s", opts.Format)
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}
