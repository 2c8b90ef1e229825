// Package compressor 对编码后的负载做整块压缩。
package compressor

import (
	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

// 支持的压缩算法。
const (
	NameNone = "none"
	NameZstd = "zstd"
)

// Compressor 抽象了单块压缩/解压能力。
type Compressor interface {
	// Name 返回算法名称。
	Name() string

	// Compress 将 src 压缩到 dst。dst 可以是可复用的缓冲区（长度可为 0）。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将 Compress 的输出 src 解压到 dst。
	Decompress(dst, src []byte) (plain []byte, err error)
}

// New 按名称创建 Compressor。
func New(name string) (Compressor, error) {
	switch name {
	case NameNone, "":
		return NopCompressor{}, nil
	case NameZstd:
		return NewZstdCompressor()
	default:
		return nil, merr.WrapErrOperationNotSupported("compressor", name)
	}
}

// NopCompressor 原样返回输入，用于关闭压缩。
type NopCompressor struct{}

var _ Compressor = NopCompressor{}

func (NopCompressor) Name() string {
	return NameNone
}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}
