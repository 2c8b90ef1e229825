package log

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitTestLogger(t *testing.T) {
	logger, props, err := InitTestLogger(t, &Config{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, props)
	logger.Info("hello", zap.String("k", "v"))
	assert.Equal(t, zapcore.DebugLevel, props.Level.Level())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	_, _, err := InitLogger(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInitLoggerFile(t *testing.T) {
	dir := t.TempDir()
	logger, props, err := InitLogger(&Config{
		Level:  "warn",
		Format: FormatJSON,
		File:   FileLogConfig{RootPath: dir, Filename: "capture.log"},
	})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, props.Level.Level())

	logger.Warn("written")
	require.NoError(t, logger.Sync())
	data, err := os.ReadFile(filepath.Join(dir, "capture.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written"`)
}

func TestInitLoggerDirectoryAsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	_, _, err := InitLogger(&Config{File: FileLogConfig{RootPath: dir, Filename: "sub"}})
	assert.Error(t, err)
}

func TestCtxLogger(t *testing.T) {
	ctx := WithModule(context.Background(), "serializer")
	l := Ctx(ctx)
	assert.NotNil(t, l)
	assert.Same(t, l, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}

func TestBinder(t *testing.T) {
	var b Binder
	assert.NotNil(t, b.Logger())

	core, logs := observer.New(zapcore.DebugLevel)
	bound := &MLogger{Logger: zap.New(core)}
	b.SetLogger(bound)
	b.Logger().Info("bound")
	assert.Equal(t, 1, logs.FilterMessage("bound").Len())
}

func TestRatedWarn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := (&MLogger{Logger: zap.New(core)}).WithRateGroup("test-rated-warn", 0.0001, 1)

	assert.True(t, l.RatedWarn(1, "first"))
	assert.False(t, l.RatedWarn(1, "second"))
	assert.Equal(t, 1, logs.Len())
}

func TestLazyWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &MLogger{Logger: zap.New(core)}
	l.With(FieldComponent("walker")).Info("lazy")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "walker", entries[0].ContextMap()[FieldNameComponent])
}
