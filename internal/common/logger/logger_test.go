package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "credit-card/evaluate-application"})

	log.WithError(errors.New("boom")).Warn("lookup failed", map[string]interface{}{
		"applicationId": "APP-1",
		"cause":         errors.New("timeout"),
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "lookup failed", entries[0].Message)
		assert.Equal(t, "credit-card/evaluate-application", ctx["taskType"])
		assert.Equal(t, "APP-1", ctx["applicationId"])
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "timeout", ctx["cause"])
	}
}

func TestNew_FallsBackOnFormat(t *testing.T) {
	assert.NotNil(t, New("debug", "json"))
	assert.NotNil(t, New("info", "console"))
	assert.NotNil(t, NewNoOpLogger())
}
