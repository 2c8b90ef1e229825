// Package json 提供项目统一的 JSON 编解码入口。
// amd64/arm64 下使用 bytedance/sonic，其它平台回退到 json-iterator。
package json

import "io"

// Marshal 将 v 编码为 JSON。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent 与 Marshal 相同，但输出带缩进。
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal 将 JSON 数据解码到 v。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid 判断 data 是否为合法的 JSON。
func Valid(data []byte) bool {
	return api.Valid(data)
}

// NewDecoder 返回一个从 r 读取的流式解码器，数字解码为 json.Number。
func NewDecoder(r io.Reader) Decoder {
	dec := api.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// NewEncoder 返回一个写入 w 的流式编码器。
func NewEncoder(w io.Writer) Encoder {
	return api.NewEncoder(w)
}

// Decoder 是流式解码器的最小接口。
type Decoder interface {
	Decode(v any) error
	More() bool
	UseNumber()
}

// Encoder 是流式编码器的最小接口。
type Encoder interface {
	Encode(v any) error
	SetIndent(prefix, indent string)
	SetEscapeHTML(on bool)
}
