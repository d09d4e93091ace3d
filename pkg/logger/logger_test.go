package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	for level, want := range map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"nonsuch": zapcore.InfoLevel,
	} {
		l := newZapLogger("test", level)
		assert.True(t, l.Core().Enabled(want), level)
		if want > zapcore.DebugLevel {
			assert.False(t, l.Core().Enabled(want-1), level)
		}
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored", String("k", "v"), Int64("n", 1))
	assert.NoError(t, l.Sync())
}
