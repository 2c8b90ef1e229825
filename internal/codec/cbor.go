package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/lk2023060901/capture-go/pkg/serializer"
)

var mapStringAnyType = reflect.TypeOf(map[string]any(nil))

// CBORCodec 使用 Core Deterministic 编码，相同的规范化结果总是得到相同的字节。
// *serializer.Map 在编码前转换为普通 map，键按 CBOR 规则排序。
type CBORCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec = (*CBORCodec)(nil)

func NewCBORCodec() (*CBORCodec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: mapStringAnyType,
	}.DecMode()
	if err != nil {
		return nil, err
	}
	return &CBORCodec{enc: enc, dec: dec}, nil
}

func (*CBORCodec) Name() string {
	return FormatCBOR
}

func (c *CBORCodec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(serializer.ToPlain(v))
}

func (c *CBORCodec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}
