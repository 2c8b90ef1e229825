package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/capture-go/pkg/serializer"
)

// ProtoCodec 将规范化结果编码为 google.protobuf.Value。
//
// 数字在 Value 中统一为 double，超过 2^53 的整数会损失精度。
// 已经是 proto.Message 的值按原样编码。
type ProtoCodec struct{}

var _ Codec = ProtoCodec{}

func (ProtoCodec) Name() string {
	return FormatProto
}

func (ProtoCodec) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}
	value, err := structpb.NewValue(serializer.ToPlain(v))
	if err != nil {
		return nil, err
	}
	return proto.Marshal(value)
}

// Unmarshal 支持 proto.Message 与 *any 两种目标，后者得到普通的 map/slice 结构。
func (ProtoCodec) Unmarshal(data []byte, v any) error {
	switch dst := v.(type) {
	case proto.Message:
		return proto.Unmarshal(data, dst)
	case *any:
		value := &structpb.Value{}
		if err := proto.Unmarshal(data, value); err != nil {
			return err
		}
		*dst = value.AsInterface()
		return nil
	default:
		return fmt.Errorf("codec: ProtoCodec requires proto.Message or *any, got %T", v)
	}
}
