package compressor

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, NameNone, c.Name())

	c, err = New(NameZstd)
	require.NoError(t, err)
	assert.Equal(t, NameZstd, c.Name())
	c.(*ZstdCompressor).Close()

	_, err = New("lz4")
	assert.True(t, errors.Is(err, merr.ErrOperationNotSupported))
}

func TestNopCompressor(t *testing.T) {
	src := []byte("payload")
	out, err := NopCompressor{}.Compress(nil, src)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	out, err = NopCompressor{}.Decompress(nil, out)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestZstdRoundTrip(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()

	src := bytes.Repeat([]byte(`{"message":"abc","count":1}`), 100)
	packet, err := c.Compress(nil, src)
	require.NoError(t, err)
	assert.Less(t, len(packet), len(src))

	plain, err := c.Decompress(make([]byte, 0, len(src)), packet)
	require.NoError(t, err)
	assert.Equal(t, src, plain)

	_, err = c.Decompress(nil, []byte("not zstd"))
	assert.True(t, errors.Is(err, merr.ErrCompressFailed))
}

func TestZstdClosed(t *testing.T) {
	c, err := NewZstdCompressorWithLevel(zstd.SpeedFastest, 1)
	require.NoError(t, err)
	c.Close()

	_, err = c.Compress(nil, []byte("x"))
	assert.ErrorIs(t, err, zstd.ErrEncoderClosed)
	_, err = c.Decompress(nil, []byte("x"))
	assert.ErrorIs(t, err, zstd.ErrDecoderClosed)
}
