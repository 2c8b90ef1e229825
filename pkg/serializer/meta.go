package serializer

// MetaKey 是根映射上附加标注树时使用的键。
const MetaKey = "_meta"

const (
	metaAnnotationKey = ""
	metaLenKey        = "len"
	metaRemKey        = "rem"
	metaRuleLimit     = "!limit"
	metaRemarkCut     = "x"
)

// metaTree 记录一次规范化中被截断的位置，结构与输出树的路径一致：
//
//	{"extra": {"foo": {"": {"len": 2048, "rem": [["!limit", "x", 1021, 1024]]}}}}
type metaTree struct {
	root *Map
}

func (m *metaTree) node(path []string) *Map {
	if m.root == nil {
		m.root = NewMap()
	}
	cur := m.root
	for _, seg := range path {
		next, ok := cur.Get(seg)
		child, isMap := next.(*Map)
		if !ok || !isMap {
			child = NewMap()
			cur.Set(seg, child)
		}
		cur = child
	}
	return cur
}

func (m *metaTree) annotation(path []string) *Map {
	node := m.node(path)
	if v, ok := node.Get(metaAnnotationKey); ok {
		if ann, ok := v.(*Map); ok {
			return ann
		}
	}
	ann := NewMap()
	node.Set(metaAnnotationKey, ann)
	return ann
}

// markLength 标注 path 处的值原本有 length 个元素或字符。
func (m *metaTree) markLength(path []string, length int) {
	m.annotation(path).Set(metaLenKey, int64(length))
}

// markStringCut 标注 path 处的文本被截断到 maxLength 个字符。
func (m *metaTree) markStringCut(path []string, length, maxLength int) {
	ann := m.annotation(path)
	ann.Set(metaLenKey, int64(length))
	ann.Set(metaRemKey, []any{
		[]any{metaRuleLimit, metaRemarkCut, int64(maxLength - minStringLength), int64(maxLength)},
	})
}

// markReprCut 标注 path 处的文本表示在生成时被截断为 length 个字符，原始长度未知。
func (m *metaTree) markReprCut(path []string, length int) {
	m.annotation(path).Set(metaRemKey, []any{
		[]any{metaRuleLimit, metaRemarkCut, int64(length - minStringLength), int64(length)},
	})
}

func (m *metaTree) empty() bool {
	return m.root == nil || m.root.Len() == 0
}
