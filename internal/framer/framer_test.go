package framer

import (
	"bytes"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

func TestRoundTrip(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer
	payloads := [][]byte{[]byte(`{"a":1}`), {}, []byte("third")}
	for _, p := range payloads {
		require.NoError(t, f.WriteFrame(&buf, p))
	}
	assert.Equal(t, []byte{0, 0, 0, 7}, buf.Bytes()[:4])

	for _, want := range payloads {
		got, err := f.ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := f.ReadFrame(&buf)
	assert.Equal(t, io.EOF, err)
}

func TestFrameTooLarge(t *testing.T) {
	f := NewLengthPrefixedFramer(4)
	err := f.WriteFrame(&bytes.Buffer{}, []byte("too long"))
	assert.True(t, errors.Is(err, merr.ErrParameterTooLarge))

	_, err = f.ReadFrame(bytes.NewReader([]byte{0, 0, 1, 0}))
	assert.True(t, errors.Is(err, merr.ErrParameterTooLarge))
}

func TestTruncatedFrame(t *testing.T) {
	f := &LengthPrefixedFramer{}
	_, err := f.ReadFrame(bytes.NewReader([]byte{0, 0}))
	assert.True(t, errors.Is(err, merr.ErrIoUnexpectEOF))

	_, err = f.ReadFrame(bytes.NewReader([]byte{0, 0, 0, 5, 'a'}))
	assert.True(t, errors.Is(err, merr.ErrIoUnexpectEOF))
	assert.True(t, merr.IsRetryableErr(err))
}
