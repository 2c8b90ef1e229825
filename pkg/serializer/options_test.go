package serializer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/capture-go/pkg/util/merr"
	"github.com/lk2023060901/capture-go/pkg/util/viper"
)

func loadConfig(t *testing.T, content string) *viper.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	cfg := viper.New()
	require.NoError(t, cfg.LoadFile(path))
	return cfg
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.NoError(t, opts.Validate())
	assert.Equal(t, DefaultMaxDepth, opts.MaxDepth)
	assert.Equal(t, DefaultMaxBreadth, opts.MaxBreadth)
	assert.Equal(t, DefaultMaxStringLength, opts.MaxStringLength)
	assert.Equal(t, DefaultMaxSize, opts.MaxSize)
	assert.Equal(t, DefaultReprMethod, opts.ReprMethod)
	assert.False(t, opts.ShouldReprStrings)
}

func TestLoadOptions(t *testing.T) {
	cfg := loadConfig(t, `
serializer:
  max_depth: 3
  should_repr_strings: true
  max_string_length: 64
`)
	opts, err := LoadOptions(cfg, "serializer")
	require.NoError(t, err)
	assert.Equal(t, 3, opts.MaxDepth)
	assert.True(t, opts.ShouldReprStrings)
	assert.Equal(t, 64, opts.MaxStringLength)
	assert.Equal(t, DefaultMaxBreadth, opts.MaxBreadth)
	assert.Equal(t, DefaultReprMethod, opts.ReprMethod)

	s, err := NewWithOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, opts, s.Options())
}

func TestLoadOptionsMissingSection(t *testing.T) {
	cfg := loadConfig(t, "log:\n  level: info\n")
	opts, err := LoadOptions(cfg, "serializer")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)

	opts, err = LoadOptions(nil, "serializer")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestLoadOptionsInvalid(t *testing.T) {
	cfg := loadConfig(t, "serializer:\n  max_breadth: -5\n")
	_, err := LoadOptions(cfg, "serializer")
	assert.True(t, errors.Is(err, merr.ErrParameterInvalid))
	assert.Contains(t, err.Error(), "-5 out of range 0 <= value")
}

func TestWithOptions(t *testing.T) {
	base := DefaultOptions()
	base.MaxDepth = 2
	s, err := New(WithOptions(base), WithMaxBreadth(1))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Options().MaxDepth)
	assert.Equal(t, 1, s.Options().MaxBreadth)
}
