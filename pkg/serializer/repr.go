package serializer

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/lk2023060901/capture-go/pkg/metrics"
)

const hexDigits = "0123456789abcdef"

// reprConfig 只通过反射读取值，不调用值上的任何方法（包括 Error/String）。
var reprConfig = spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                DefaultMaxDepth,
	DisableMethods:          true,
	DisablePointerMethods:   true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Repr 返回 v 的调试文本表示，等价于调试器中查看该值时看到的内容。
//
// 字符串输出 Go 引号字面量，字节序列输出 b'...' 形式的字节字面量，
// 其它非标量值由反射生成，不会调用值自身的方法。
// 生成过程中出现 panic 时返回 FailedMarker。
func Repr(v any) string {
	out, _ := reprBounded(reflect.ValueOf(v), 0)
	return out
}

// reprBounded 生成 v 的文本表示，最多 limit 个字节，limit 为 0 时不限制。
// 输出达到上限时立即停止生成并返回 capped=true。
func reprBounded(v reflect.Value, limit int) (out string, capped bool) {
	st := &reprState{limit: limit}
	defer func() {
		if r := recover(); r != nil {
			out, capped = st.recovered(r)
		}
	}()

	out, capped = reprValue(v, limit, st)
	if capped && len(out) > limit {
		out = out[:limit]
	}
	return out, capped
}

func reprValue(v reflect.Value, limit int, st *reprState) (string, bool) {
	switch v.Kind() {
	case reflect.Invalid:
		return "<nil>", false
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), false
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), false
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), false
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), false
	case reflect.Complex64:
		return strconv.FormatComplex(v.Complex(), 'g', -1, 64), false
	case reflect.Complex128:
		return strconv.FormatComplex(v.Complex(), 'g', -1, 128), false
	case reflect.String:
		s := v.String()
		if limit > 0 && len(s) > limit {
			return strconv.Quote(s[:limit]), true
		}
		return strconv.Quote(s), false
	case reflect.Slice, reflect.Array:
		if b, ok := bytesOf(v); ok {
			if limit > 0 && len(b) > limit {
				return bytesRepr(b[:limit]), true
			}
			return bytesRepr(b), false
		}
	}
	reprConfig.NewFormatter(v.Interface()).Format(st, 'v')
	return string(st.buf), false
}

// reprLimitReached 在输出达到上限时由 reprState.Write 抛出，用于中止 spew 的遍历。
type reprLimitReached struct{}

// reprState 实现 fmt.State，以 %#v 的语义接收 spew 的输出并在达到 limit 时中止。
type reprState struct {
	buf   []byte
	limit int
}

func (st *reprState) Write(p []byte) (int, error) {
	if st.limit > 0 && len(st.buf)+len(p) > st.limit {
		st.buf = append(st.buf, p[:st.limit-len(st.buf)]...)
		panic(reprLimitReached{})
	}
	st.buf = append(st.buf, p...)
	return len(p), nil
}

func (*reprState) Width() (int, bool) {
	return 0, false
}

func (*reprState) Precision() (int, bool) {
	return 0, false
}

func (*reprState) Flag(c int) bool {
	return c == '#'
}

func (st *reprState) recovered(r any) (string, bool) {
	if _, ok := r.(reprLimitReached); ok {
		return string(st.buf), true
	}
	metrics.FallbacksTotal.WithLabelValues(metrics.FallbackReasonReprPanic).Inc()
	return FailedMarker, false
}

// bytesRepr 生成字节字面量：可打印 ASCII 原样输出，其余字节输出 \xNN。
// 数据中含单引号且不含双引号时使用双引号包裹。
func bytesRepr(b []byte) string {
	quote := byte('\'')
	if strings.IndexByte(string(b), '\'') >= 0 && strings.IndexByte(string(b), '"') < 0 {
		quote = '"'
	}

	var sb strings.Builder
	sb.Grow(len(b) + 3)
	sb.WriteByte('b')
	sb.WriteByte(quote)
	for _, c := range b {
		switch {
		case c == quote || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c < ' ' || c >= 0x7f:
			sb.WriteString(`\x`)
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0x0f])
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

var byteType = reflect.TypeOf(byte(0))

// bytesOf 识别 []byte 与 [N]byte（包括以它们为底层类型的命名类型）。
func bytesOf(v reflect.Value) ([]byte, bool) {
	if v.Type().Elem() != byteType {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Slice:
		return v.Bytes(), true
	case reflect.Array:
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		return b, true
	}
	return nil, false
}
