package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type section struct {
	MaxDepth int    `mapstructure:"max_depth"`
	Name     string `mapstructure:"name"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "serializer:\n  max_depth: 4\n  name: yaml\n")

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))
	assert.True(t, cfg.IsSet("serializer.max_depth"))

	var s section
	require.NoError(t, cfg.UnmarshalKey("serializer", &s))
	assert.Equal(t, section{MaxDepth: 4, Name: "yaml"}, s)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_depth": 7, "name": "json"}`)

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))

	var s section
	require.NoError(t, cfg.Unmarshal(&s))
	assert.Equal(t, section{MaxDepth: 7, Name: "json"}, s)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := New()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestBindFlagOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "max_depth: 4\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("max-depth", 10, "")
	require.NoError(t, fs.Parse([]string{"--max-depth=2"}))

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))
	require.NoError(t, cfg.BindFlag("max_depth", fs.Lookup("max-depth")))

	var s section
	require.NoError(t, cfg.Unmarshal(&s))
	assert.Equal(t, 2, s.MaxDepth)
}

func TestBindFlagMergedIntoSection(t *testing.T) {
	path := writeFile(t, "config.yaml", "serializer:\n  name: file\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("max-depth", 10, "")
	require.NoError(t, fs.Parse([]string{"--max-depth=3"}))

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))
	require.NoError(t, cfg.BindFlag("serializer.max_depth", fs.Lookup("max-depth")))

	var s section
	require.NoError(t, cfg.UnmarshalKey("serializer", &s))
	assert.Equal(t, section{MaxDepth: 3, Name: "file"}, s)

	s = section{Name: "kept"}
	require.NoError(t, cfg.UnmarshalKey("absent", &s))
	assert.Equal(t, "kept", s.Name)
}

func TestZeroValueConfig(t *testing.T) {
	var cfg Config
	var s section
	assert.NoError(t, cfg.Unmarshal(&s))
	assert.NoError(t, cfg.UnmarshalKey("x", &s))
	assert.False(t, cfg.IsSet("x"))
	assert.Nil(t, cfg.Get("x"))

	cfg.SetDefault("name", "default")
	require.NoError(t, cfg.Unmarshal(&s))
	assert.Equal(t, "default", s.Name)
}
