// Package codec 将规范化结果编码为传输格式。
package codec

import (
	"github.com/lk2023060901/capture-go/pkg/metrics"
	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

// 支持的编码格式。
const (
	FormatJSON  = "json"
	FormatCBOR  = "cbor"
	FormatProto = "proto"
)

// Codec 抽象了“规范化结果 <-> 字节流”的编解码能力。
type Codec interface {
	// Name 返回编码格式名称。
	Name() string

	// Marshal 将规范化结果编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到 v，v 通常为指针。
	Unmarshal(data []byte, v any) error
}

// New 按格式名称创建 Codec。
func New(format string) (Codec, error) {
	switch format {
	case FormatJSON, "":
		return JSONCodec{}, nil
	case FormatCBOR:
		return NewCBORCodec()
	case FormatProto:
		return ProtoCodec{}, nil
	default:
		return nil, merr.WrapErrOperationNotSupported("codec", format)
	}
}

// Encode 使用 c 编码 v，并记录编码后的大小。
func Encode(c Codec, v any) ([]byte, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return nil, merr.WrapErrEncodeFailed(c.Name(), err)
	}
	metrics.EncodedBytes.WithLabelValues(c.Name()).Observe(float64(len(data)))
	return data, nil
}

// Decode 使用 c 将 data 解码到 v。
func Decode(c Codec, data []byte, v any) error {
	return merr.WrapErrDecodeFailed(c.Name(), c.Unmarshal(data, v))
}
