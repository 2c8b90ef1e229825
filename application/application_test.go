package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/capture-go/pkg/serializer"
	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunWithConfigFlag(t *testing.T) {
	path := writeConfig(t, `
serializer:
  max_depth: 4
  max_string_length: 32
logging:
  serializer:
    level: debug
`)
	app := New([]string{"--config", path})
	require.NoError(t, app.Run())

	opts := app.Serializer().Options()
	assert.Equal(t, 4, opts.MaxDepth)
	assert.Equal(t, 32, opts.MaxStringLength)
	assert.Equal(t, serializer.DefaultMaxBreadth, opts.MaxBreadth)
	assert.NotNil(t, app.Registry())
	assert.NotNil(t, app.Config())
	assert.Same(t, app.Logger(SerializerLoggerName), app.Serializer().Logger())
	assert.NotNil(t, app.Logger("unknown"))
}

func TestRunWithEnvPath(t *testing.T) {
	path := writeConfig(t, "serializer:\n  should_repr_strings: true\n")
	t.Setenv(envConfigPath, path)

	app := New([]string{"--config=" + path})
	require.NoError(t, app.Run())
	assert.True(t, app.Serializer().Options().ShouldReprStrings)
}

func TestFlagOverridesConfig(t *testing.T) {
	path := writeConfig(t, "serializer:\n  max_depth: 4\n  max_breadth: 50\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("max-depth", serializer.DefaultMaxDepth, "")
	fs.String("config", "", "")
	args := []string{"--config", path, "--max-depth", "2"}
	require.NoError(t, fs.Parse(args))

	app := New(args)
	app.BindFlag("serializer.max_depth", fs.Lookup("max-depth"))
	app.BindFlag("serializer.ignored", nil)
	require.NoError(t, app.Run())

	opts := app.Serializer().Options()
	assert.Equal(t, 2, opts.MaxDepth)
	assert.Equal(t, 50, opts.MaxBreadth)
}

func TestMissingConfigValue(t *testing.T) {
	err := New([]string{"--config"}).Run()
	assert.True(t, errors.Is(err, merr.ErrParameterMissing))
}

func TestExplicitConfigMissing(t *testing.T) {
	err := New([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}).Run()
	assert.True(t, errors.Is(err, merr.ErrIoFailed))
}

func TestDefaultConfigAbsent(t *testing.T) {
	chdirForTest(t, t.TempDir())
	app := New(nil)
	require.NoError(t, app.Run())
	assert.Equal(t, serializer.DefaultOptions(), app.Serializer().Options())
}

func TestInvalidSerializerConfig(t *testing.T) {
	path := writeConfig(t, "serializer:\n  max_depth: -1\n")
	err := New([]string{"--config", path}).Run()
	assert.True(t, errors.Is(err, merr.ErrParameterInvalid))
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("CAPTURE_TEST_BOOL", "yes")
	assert.True(t, getenvBool("CAPTURE_TEST_BOOL", false))
	t.Setenv("CAPTURE_TEST_BOOL", "off")
	assert.False(t, getenvBool("CAPTURE_TEST_BOOL", true))
	t.Setenv("CAPTURE_TEST_BOOL", "maybe")
	assert.True(t, getenvBool("CAPTURE_TEST_BOOL", true))
	assert.Equal(t, "def", getenvDefault("CAPTURE_TEST_UNSET", "def"))
}
