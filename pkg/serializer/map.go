package serializer

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map 是规范化输出中的有序字符串键映射，按插入顺序编码为 JSON 对象。
type Map = orderedmap.OrderedMap[string, any]

// NewMap 创建一个空的 Map。
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// ToPlain 将规范化结果转换为只包含 map[string]any 与 []any 的普通结构，
// 供不识别 *Map 的编码器使用。键顺序在转换后丢失。
func ToPlain(v any) any {
	switch x := v.(type) {
	case *Map:
		if x == nil {
			return nil
		}
		out := make(map[string]any, x.Len())
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToPlain(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = ToPlain(x[i])
		}
		return out
	default:
		return v
	}
}
