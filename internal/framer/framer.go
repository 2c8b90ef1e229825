// Package framer 为批量输出的多个负载加上长度前缀，使其可以在同一个字节流中连续写入。
package framer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

const (
	headerSize = 4

	defaultMaxFrameSize uint32 = 16 * 1024 * 1024 // 16MB
)

// Framer 抽象了负载的打包/解包能力。
//
// 一帧的格式为：4 字节大端无符号整型（负载长度）+ 负载。
type Framer interface {
	// WriteFrame 将 payload 打包为一帧并写入 w。
	WriteFrame(w io.Writer, payload []byte) error

	// ReadFrame 从 r 读取一帧并返回其负载。流在帧边界处结束时返回 io.EOF。
	ReadFrame(r io.Reader) ([]byte, error)
}

// LengthPrefixedFramer 使用 4 字节大端长度前缀作为帧边界。
type LengthPrefixedFramer struct {
	// MaxFrameSize 为允许的最大负载长度，为 0 时使用 16MB。
	MaxFrameSize uint32
}

var _ Framer = (*LengthPrefixedFramer)(nil)

// NewLengthPrefixedFramer 创建一个长度前缀帧编码器，maxFrameSize 为 0 时使用默认值。
func NewLengthPrefixedFramer(maxFrameSize uint32) *LengthPrefixedFramer {
	if maxFrameSize == 0 {
		maxFrameSize = defaultMaxFrameSize
	}
	return &LengthPrefixedFramer{
		MaxFrameSize: maxFrameSize,
	}
}

func (f *LengthPrefixedFramer) WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > uint64(f.effectiveMaxSize()) {
		return merr.WrapErrParameterTooLarge("frame",
			fmt.Sprintf("frame size %d exceeds max %d", len(payload), f.effectiveMaxSize()))
	}

	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return merr.WrapErrIoFailed("frame header", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return merr.WrapErrIoFailed("frame body", err)
	}
	return nil
}

func (f *LengthPrefixedFramer) ReadFrame(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, merr.WrapErrIoUnexpectEOF("frame header", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > f.effectiveMaxSize() {
		return nil, merr.WrapErrParameterTooLarge("frame",
			fmt.Sprintf("frame size %d exceeds max %d", length, f.effectiveMaxSize()))
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, merr.WrapErrIoUnexpectEOF("frame body", err)
	}
	return payload, nil
}

func (f *LengthPrefixedFramer) effectiveMaxSize() uint32 {
	if f == nil || f.MaxFrameSize == 0 {
		return defaultMaxFrameSize
	}
	return f.MaxFrameSize
}
