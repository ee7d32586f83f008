// Package logging builds the process-wide zap logger. Registry timestamps
// are UTC everywhere else in the system, so log timestamps are UTC too.
package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levelsByName = map[string]zapcore.Level{
	"":        zapcore.InfoLevel,
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// NewLogger returns a structured production logger at the named level.
// Unknown level names are rejected rather than silently downgraded.
func NewLogger(level string) (*zap.Logger, error) {
	parsed, ok := levelsByName[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return nil, fmt.Errorf("logging: unknown log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339Nano))
	}
	return cfg.Build()
}
