package compressor

import (
	"runtime"

	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

// ZstdCompressor 基于 klauspost/compress/zstd，持有独立的 encoder/decoder 实例。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Compressor = (*ZstdCompressor)(nil)

// NewZstdCompressor 创建并发度为 CPU 核心数的 ZstdCompressor。
func NewZstdCompressor() (*ZstdCompressor, error) {
	return NewZstdCompressorWithLevel(zstd.SpeedDefault, 0)
}

// NewZstdCompressorWithLevel 使用指定压缩级别与并发度创建 ZstdCompressor。
// concurrency <= 0 时使用 CPU 核心数。
func NewZstdCompressorWithLevel(level zstd.EncoderLevel, concurrency int) (*ZstdCompressor, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(concurrency),
	)
	if err != nil {
		return nil, merr.WrapErrCompressFailed(NameZstd, err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(concurrency))
	if err != nil {
		enc.Close()
		return nil, merr.WrapErrCompressFailed(NameZstd, err)
	}
	return &ZstdCompressor{
		enc: enc,
		dec: dec,
	}, nil
}

func (*ZstdCompressor) Name() string {
	return NameZstd
}

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	out, err := c.dec.DecodeAll(src, dst[:0])
	if err != nil {
		return nil, merr.WrapErrCompressFailed(NameZstd, err)
	}
	return out, nil
}

// Close 释放 encoder/decoder，之后的调用返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
