package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/capture-go/internal/codec"
	"github.com/lk2023060901/capture-go/internal/compressor"
	"github.com/lk2023060901/capture-go/internal/framer"
	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunJSON(t *testing.T) {
	chdirForTest(t, t.TempDir())
	var out bytes.Buffer
	err := run(nil, strings.NewReader(`{"b": 1, "a": {"y": 2, "x": [1, "s"]}}`), &out)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":{"y":2,"x":[1,"s"]}}`, out.String())
}

func TestRunJSONKeepsNestedOrder(t *testing.T) {
	chdirForTest(t, t.TempDir())
	var out bytes.Buffer
	input := `{"z": {"b": 1, "a": {"d": null, "c": "x\u00e9"}}, "y": [{"f": true, "e": 2.5}]}`
	err := run(nil, strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, `{"z":{"b":1,"a":{"d":null,"c":"xé"}},"y":[{"f":true,"e":2.5}]}`, out.String())
}

func TestRunYAMLWithLimits(t *testing.T) {
	chdirForTest(t, t.TempDir())
	path := writeInput(t, "event.yaml", "extra:\n  list: [1, 2, 3, 4]\n")

	var out bytes.Buffer
	err := run([]string{"--input", path, "--max-breadth", "2"}, nil, &out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"extra":{"list":[1,2]},"_meta":{"extra":{"list":{"":{"len":4}}}}}`, out.String())
}

func TestRunReprStrings(t *testing.T) {
	chdirForTest(t, t.TempDir())
	var out bytes.Buffer
	err := run([]string{"--repr-strings"}, strings.NewReader(`["a", true]`), &out)
	require.NoError(t, err)
	assert.Equal(t, `["\"a\"","true"]`, out.String())
}

func TestRunCBORZstd(t *testing.T) {
	chdirForTest(t, t.TempDir())
	var out bytes.Buffer
	err := run([]string{"--format", "cbor", "--compress", "zstd"}, strings.NewReader(`{"k": "v"}`), &out)
	require.NoError(t, err)

	zc, err := compressor.NewZstdCompressor()
	require.NoError(t, err)
	defer zc.Close()
	plain, err := zc.Decompress(nil, out.Bytes())
	require.NoError(t, err)

	cc, err := codec.NewCBORCodec()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, cc.Unmarshal(plain, &decoded))
	assert.Equal(t, map[string]any{"k": "v"}, decoded)
}

func TestRunBatch(t *testing.T) {
	chdirForTest(t, t.TempDir())
	var out bytes.Buffer
	err := run([]string{"--batch", "--workers", "2"}, strings.NewReader(`[{"a": 1}, "text", [1, 2]]`), &out)
	require.NoError(t, err)

	f := framer.NewLengthPrefixedFramer(0)
	var frames []string
	for {
		payload, err := f.ReadFrame(&out)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		frames = append(frames, string(payload))
	}
	assert.Equal(t, []string{`{"a":1}`, `"text"`, `[1,2]`}, frames)

	err = run([]string{"--batch"}, strings.NewReader(`{"a": 1}`), &bytes.Buffer{})
	assert.True(t, errors.Is(err, merr.ErrParameterInvalid))
}

func TestRunErrors(t *testing.T) {
	chdirForTest(t, t.TempDir())

	err := run([]string{"--format", "xml"}, strings.NewReader(`1`), &bytes.Buffer{})
	assert.True(t, errors.Is(err, merr.ErrOperationNotSupported))

	err = run(nil, strings.NewReader(`   `), &bytes.Buffer{})
	assert.True(t, errors.Is(err, merr.ErrDecodeFailed))

	err = run(nil, strings.NewReader(`{"a": [1,}`), &bytes.Buffer{})
	assert.True(t, errors.Is(err, merr.ErrDecodeFailed))

	err = run([]string{"--input", filepath.Join(t.TempDir(), "absent.json")}, nil, &bytes.Buffer{})
	assert.True(t, errors.Is(err, merr.ErrIoFailed))

	err = run([]string{"--max-depth=-1"}, strings.NewReader(`1`), &bytes.Buffer{})
	assert.True(t, errors.Is(err, merr.ErrParameterInvalid))

	assert.Error(t, run([]string{"--unknown"}, nil, &bytes.Buffer{}))
}
