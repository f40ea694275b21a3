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
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapWrapper_FieldsAndChildren(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := log.With(map[string]interface{}{"handler": "chat"})
	child.Info("request handled", map[string]interface{}{"status": 200})
	child.WithError(errors.New("boom")).Error("request failed", map[string]interface{}{
		"cause": errors.New("upstream"),
	})

	entries := logs.AllUntimed()
	assert.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "chat", first["handler"])
	assert.EqualValues(t, 200, first["status"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "upstream", second["cause"])
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.Debug("quiet", nil)
		log.WithFields(map[string]interface{}{"a": 1}).Warn("still quiet", nil)
	})
}
