package logging

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// dumpLimit caps hex/ascii dumps; it matches the discovery receive buffer
const dumpLimit = 256

// Initialize creates the package logger at the given level.
// An empty level keeps logging silent so the inventory output stays clean.
// Output goes to stderr.
func Initialize(level string) error {
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	zapLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// ParseLevel maps a --log-level value to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", level)
	}
}

// GetLogger returns the package logger, silent if Initialize was never called
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// SetLogger replaces the package logger
func SetLogger(l *zap.Logger) {
	logger = l
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogProbe logs the probe that opened a discovery session
func LogProbe(l *zap.Logger, target, local string, size int) {
	l.Info("Probe sent",
		zap.String("target", target),
		zap.String("local_addr", local),
		zap.Int("length", size),
	)
}

// LogDatagram logs a received reply with hex and ascii dumps.
// Dumps are only built when debug output is enabled.
func LogDatagram(l *zap.Logger, source string, data []byte) {
	if !l.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	l.Debug("Datagram received",
		zap.String("source", source),
		zap.Int("length", len(data)),
		zap.String("hex", HexDump(data)),
		zap.String("ascii", ASCIIDump(data)),
	)
}

// HexDump encodes data as hex, truncated after 256 bytes
func HexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > dumpLimit {
		return hex.EncodeToString(data[:dumpLimit]) + "..."
	}
	return hex.EncodeToString(data)
}

// ASCIIDump renders printable bytes and replaces the rest (CR LF included)
// with '.'
func ASCIIDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > dumpLimit {
		data = data[:dumpLimit]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
