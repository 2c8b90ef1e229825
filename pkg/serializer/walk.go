package serializer

import (
	"cmp"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/lk2023060901/capture-go/pkg/log"
	"github.com/lk2023060901/capture-go/pkg/metrics"
	"github.com/lk2023060901/capture-go/pkg/util/typeutil"
)

// TimeLayout 是 time.Time 的输出格式，统一转换为 UTC。
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// 各类节点编码后的近似字节数。
const (
	costNull      = 4
	costNumber    = 8
	costContainer = 2
	costQuotes    = 2
	costKeyExtra  = 3
)

var (
	mapPtrType = reflect.TypeOf((*Map)(nil))
	timeType   = reflect.TypeOf(time.Time{})
)

// identity 标识一个引用：切片还需要长度区分同一底层数组上的不同视图。
type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// walker 是一次规范化的遍历状态，只在一次顶层调用内有效。
type walker struct {
	opts   *Options
	logger *log.MLogger

	seen typeutil.Set[identity]
	path []string
	meta metaTree
	size int

	truncations int
	cycles      int
}

func newWalker(opts *Options, logger *log.MLogger) *walker {
	return &walker{
		opts:   opts,
		logger: logger.WithRateGroup("serializer.fallback", 1, 60),
		seen:   typeutil.NewSet[identity](),
	}
}

func (w *walker) walk(v reflect.Value, depth int) any {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return w.null()
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return w.null()
	}

	id, tracked := identityOf(v)
	if tracked && w.seen.Contain(id) {
		w.cycles++
		metrics.CyclesTotal.Inc()
		w.size += len(CyclicMarker) + costQuotes
		return CyclicMarker
	}
	if depth >= w.opts.MaxDepth && isContainer(v) {
		w.truncate(metrics.TruncateReasonDepth)
		w.meta.markLength(w.path, containerLen(v))
		w.size += len(MaxDepthMarker) + costQuotes
		return MaxDepthMarker
	}
	if text, ok := w.callHook(v); ok {
		return w.text(text)
	}

	if tracked {
		w.seen.Insert(id)
		defer w.seen.Remove(id)
	}
	return w.dispatch(v, depth)
}

func (w *walker) dispatch(v reflect.Value, depth int) any {
	if w.opts.ShouldReprStrings && isScalar(v) {
		return w.text(w.reprText(v))
	}

	switch v.Kind() {
	case reflect.Bool:
		w.size += costNull
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.size += costNumber
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		w.size += costNumber
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return w.text(w.reprText(v))
		}
		w.size += costNumber
		if v.Kind() == reflect.Float32 {
			// 以 float32 的最短十进制形式转换，避免 0.1 变成 0.10000000149011612。
			f, _ = strconv.ParseFloat(strconv.FormatFloat(f, 'g', -1, 32), 64)
		}
		return f
	case reflect.String:
		return w.text(v.String())
	case reflect.Pointer:
		if v.IsNil() {
			return w.null()
		}
		if v.Type() == mapPtrType {
			return w.orderedMap(v.Interface().(*Map), depth)
		}
		return w.walk(v.Elem(), depth)
	case reflect.Slice, reflect.Array:
		if b, ok := bytesOf(v); ok {
			return w.text(decodeReplace(b))
		}
		return w.sequence(v.Len(), v.Index, depth)
	case reflect.Map:
		if isSet(v.Type()) {
			keys := sortedKeys(v)
			return w.sequence(len(keys), func(i int) reflect.Value { return keys[i].value }, depth)
		}
		return w.mapping(v, depth)
	case reflect.Struct:
		if v.Type() == timeType {
			return w.text(v.Interface().(time.Time).UTC().Format(TimeLayout))
		}
	}
	return w.text(w.reprText(v))
}

func (w *walker) null() any {
	if w.opts.ShouldReprStrings {
		return w.text(Repr(nil))
	}
	w.size += costNull
	return nil
}

// text 按 MaxStringLength 截断 s，保留 MaxStringLength-3 个字符并追加 TruncationSuffix。
func (w *walker) text(s string) string {
	if limit := w.opts.MaxStringLength; limit > 0 && len(s) > limit {
		if n := utf8.RuneCountInString(s); n > limit {
			s = prefixRunes(s, limit-minStringLength) + TruncationSuffix
			w.meta.markStringCut(w.path, n, limit)
			w.truncate(metrics.TruncateReasonString)
		}
	}
	w.size += len(s) + costQuotes
	return s
}

func (w *walker) sequence(n int, elem func(int) reflect.Value, depth int) []any {
	out := make([]any, 0, min(n, w.opts.MaxBreadth))
	w.size += costContainer
	for i := 0; i < n; i++ {
		if w.stop(i, n) {
			break
		}
		out = append(out, w.child(strconv.Itoa(i), elem(i), depth+1))
	}
	return out
}

func (w *walker) mapping(v reflect.Value, depth int) *Map {
	keys := sortedKeys(v)
	out := NewMap()
	w.size += costContainer
	for i := range keys {
		if w.stop(i, len(keys)) {
			break
		}
		key := w.keyText(keys[i].value)
		w.size += len(key) + costKeyExtra
		out.Set(key, w.child(key, keys[i].elem, depth+1))
	}
	return out
}

func (w *walker) orderedMap(m *Map, depth int) *Map {
	out := NewMap()
	w.size += costContainer
	i, n := 0, m.Len()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if w.stop(i, n) {
			break
		}
		w.size += len(pair.Key) + costKeyExtra
		out.Set(pair.Key, w.child(pair.Key, reflect.ValueOf(pair.Value), depth+1))
		i++
	}
	return out
}

// stop 判断容器是否应在第 i 个条目之前停止，停止时在当前路径上标注原始长度。
func (w *walker) stop(i, n int) bool {
	switch {
	case i >= w.opts.MaxBreadth:
		w.truncate(metrics.TruncateReasonBreadth)
	case w.opts.MaxSize > 0 && w.size >= w.opts.MaxSize:
		w.truncate(metrics.TruncateReasonSize)
	default:
		return false
	}
	w.meta.markLength(w.path, n)
	return true
}

// child 在 path 上压入 seg 后遍历 v。遍历中的 panic 只影响这一个子节点。
func (w *walker) child(seg string, v reflect.Value, depth int) (out any) {
	w.path = append(w.path, seg)
	n := len(w.path)
	defer func() {
		if r := recover(); r != nil {
			metrics.FallbacksTotal.WithLabelValues(metrics.FallbackReasonWalkPanic).Inc()
			w.logger.RatedWarn(1, "normalize child value panicked",
				log.FieldPath(w.path[:n]), zap.Any("panic", r))
			w.size += len(FailedMarker) + costQuotes
			out = FailedMarker
		}
		w.path = w.path[:n-1]
	}()
	return w.walk(v, depth)
}

// callHook 调用值上的自定义表示方法。方法 panic 时退化为默认文本表示。
func (w *walker) callHook(v reflect.Value) (text string, ok bool) {
	if w.opts.ReprMethod == "" {
		return "", false
	}
	method := hookMethod(v, w.opts.ReprMethod)
	if !method.IsValid() {
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.FallbacksTotal.WithLabelValues(metrics.FallbackReasonHookPanic).Inc()
			w.logger.RatedWarn(1, "custom representation hook panicked",
				log.FieldPath(w.path),
				log.FieldValueType(v.Type().String()),
				zap.Any("panic", r))
			text, ok = w.reprText(v), true
		}
	}()
	return method.Call(nil)[0].String(), true
}

// reprText 生成 v 的文本表示，生成的字节数受 MaxStringLength 或剩余的 MaxSize 预算约束。
// 超出 MaxStringLength 的部分由 text 截断并标注，只受 MaxSize 约束时在这里追加 TruncationSuffix。
func (w *walker) reprText(v reflect.Value) string {
	s, capped := reprBounded(v, w.reprLimit())
	if !capped || w.opts.MaxStringLength > 0 {
		return s
	}
	s = trimPartialRune(s[:max(len(s)-minStringLength, 0)]) + TruncationSuffix
	w.meta.markReprCut(w.path, utf8.RuneCountInString(s))
	w.truncate(metrics.TruncateReasonSize)
	return s
}

// reprLimit 返回生成文本表示时最多写入的字节数，0 表示不限制。
// 有 MaxStringLength 时多取到足以超过 MaxStringLength 个字符，保证 text 能识别截断。
func (w *walker) reprLimit() int {
	if n := w.opts.MaxStringLength; n > 0 {
		return n*utf8.UTFMax + 1
	}
	if w.opts.MaxSize > 0 {
		return max(w.opts.MaxSize-w.size-costQuotes, minStringLength+1)
	}
	return 0
}

func (w *walker) keyText(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.Kind() == reflect.Interface {
		return Repr(nil)
	}
	s, _ := reprBounded(k, w.reprLimit())
	return s
}

func (w *walker) truncate(reason string) {
	w.truncations++
	metrics.TruncationsTotal.WithLabelValues(reason).Inc()
}

func hookMethod(v reflect.Value, name string) reflect.Value {
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return reflect.Value{}
	}
	method := v.MethodByName(name)
	if !method.IsValid() && v.CanAddr() {
		method = v.Addr().MethodByName(name)
	}
	if !method.IsValid() {
		return method
	}
	t := method.Type()
	if t.NumIn() != 0 || t.NumOut() != 1 || t.Out(0).Kind() != reflect.String {
		return reflect.Value{}
	}
	return method
}

func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Map, reflect.Pointer:
		if v.IsNil() {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.Pointer(), len: v.Len()}, true
	}
	return identity{}, false
}

func isContainer(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Type().Elem() != byteType
	case reflect.Map:
		return true
	case reflect.Pointer:
		return v.Type() == mapPtrType && !v.IsNil()
	}
	return false
}

func containerLen(v reflect.Value) int {
	if v.Kind() == reflect.Pointer {
		return v.Interface().(*Map).Len()
	}
	return v.Len()
}

func isScalar(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	case reflect.Slice, reflect.Array:
		return v.Type().Elem() == byteType
	}
	return false
}

// isSet 识别以 struct{} 为值类型的 map，例如 typeutil.Set。
func isSet(t reflect.Type) bool {
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && elem.NumField() == 0
}

// trimPartialRune 去掉 s 末尾被截断的不完整 UTF-8 编码。
func trimPartialRune(s string) string {
	for i := 1; i < utf8.UTFMax && len(s) > 0; i++ {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func prefixRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// 排序时的类别顺序：nil < bool < 数字 < 文本 < 其它。
const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rankOf(v reflect.Value) int {
	switch v.Kind() {
	case reflect.Invalid:
		return rankNil
	case reflect.Interface:
		if v.IsNil() {
			return rankNil
		}
		return rankOf(v.Elem())
	case reflect.Bool:
		return rankBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return rankNumber
	case reflect.String:
		return rankString
	}
	return rankOther
}

// orderReprLimit 是非标量键参与排序时文本表示的最大字节数。
const orderReprLimit = 256

// orderKey 是 map 键的排序依据，在排序前计算一次。
type orderKey struct {
	value reflect.Value
	elem  reflect.Value
	rank  int
	text  string
}

func newOrderKey(k reflect.Value) orderKey {
	v := k
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	o := orderKey{value: v, rank: rankOf(v)}
	switch o.rank {
	case rankString:
		o.text = v.String()
	case rankOther:
		o.text, _ = reprBounded(v, orderReprLimit)
	}
	return o
}

// sortedKeys 返回 map 的键，按确定的顺序排列：nil < bool < 数字 < 文本 < 其它。
// 数字按数值、文本按字典序，其它值按截断后的文本表示排序。
func sortedKeys(m reflect.Value) []orderKey {
	keys := make([]orderKey, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		o := newOrderKey(iter.Key())
		o.elem = iter.Value()
		keys = append(keys, o)
	}
	slices.SortStableFunc(keys, compareOrderKeys)
	return keys
}

func compareOrderKeys(a, b orderKey) int {
	if a.rank != b.rank {
		return cmp.Compare(a.rank, b.rank)
	}
	switch a.rank {
	case rankBool:
		return cmp.Compare(boolInt(a.value.Bool()), boolInt(b.value.Bool()))
	case rankNumber:
		return compareNumbers(a.value, b.value)
	case rankString, rankOther:
		return strings.Compare(a.text, b.text)
	}
	return 0
}

func compareNumbers(a, b reflect.Value) int {
	ka, kb := numberClass(a.Kind()), numberClass(b.Kind())
	switch {
	case ka == 'i' && kb == 'i':
		return cmp.Compare(a.Int(), b.Int())
	case ka == 'u' && kb == 'u':
		return cmp.Compare(a.Uint(), b.Uint())
	case ka == 'i' && kb == 'u':
		if a.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.Int()), b.Uint())
	case ka == 'u' && kb == 'i':
		return -compareNumbers(b, a)
	}
	return cmp.Compare(toFloat(a), toFloat(b))
}

func numberClass(k reflect.Kind) byte {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return 'i'
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 'u'
	}
	return 'f'
}

func toFloat(v reflect.Value) float64 {
	switch numberClass(v.Kind()) {
	case 'i':
		return float64(v.Int())
	case 'u':
		return float64(v.Uint())
	}
	return v.Float()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
