package codec

import (
	"github.com/lk2023060901/capture-go/internal/json"
)

// JSONCodec 使用 internal/json 编解码，*serializer.Map 按插入顺序输出键。
type JSONCodec struct{}

var _ Codec = JSONCodec{}

func (JSONCodec) Name() string {
	return FormatJSON
}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
