package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/japb1998/contacts/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"INFO":  zapcore.InfoLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNew_WithFileSink(t *testing.T) {
	cfg := &config.Config{
		ServiceName: "contacts",
		LogLevel:    "DEBUG",
		LogFormat:   "json",
		Environment: config.EnvProduction,
		LogFile:     filepath.Join(t.TempDir(), "app.log"),
	}

	l := New(cfg)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	l.Info("hello")
	_ = l.Sync()
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
