// Package serializer 将任意 Go 值规范化为有界、可直接编码为 JSON 的树。
//
// 输出只包含 nil、bool、int64、uint64、float64、string、[]any 与 *Map。
// 遍历能够识别引用环，并受深度、宽度、文本长度与总大小约束；
// 无法结构化表示的值退化为文本表示，规范化本身从不返回错误（非法配置除外）。
package serializer

import (
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/capture-go/pkg/log"
	"github.com/lk2023060901/capture-go/pkg/metrics"
)

// 输出中使用的标记。
const (
	// CyclicMarker 替换当前路径上已访问过的引用。
	CyclicMarker = "<cyclic>"
	// MaxDepthMarker 替换深度达到 MaxDepth 的容器。
	MaxDepthMarker = "<max depth exceeded>"
	// FailedMarker 替换无法规范化的值。
	FailedMarker = "<failed to serialize>"
	// TruncationSuffix 附加在被截断的文本末尾。
	TruncationSuffix = "..."
)

// CustomRepresentable 由希望自行控制其输出形式的类型实现。
// 方法名可以通过 WithReprMethod 更换，签名必须保持 func() string。
type CustomRepresentable interface {
	SentryRepr() string
}

// Serializer 持有一组校验过的 Options，构造后只读，可以被多个 goroutine 并发使用。
type Serializer struct {
	log.Binder

	opts Options
}

// New 以默认配置为基础应用 opts 创建 Serializer。
func New(opts ...Option) (*Serializer, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions(o)
}

// NewWithOptions 使用完整的 Options 创建 Serializer。
func NewWithOptions(o Options) (*Serializer, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Serializer{opts: o}, nil
}

// Options 返回 Serializer 使用的配置。
func (s *Serializer) Options() Options {
	return s.opts
}

// Serialize 是一次性的入口：按 opts 构造 Serializer 并规范化 value。
// 只有在 opts 非法时返回错误。
func Serialize(value any, opts ...Option) (any, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return s.Serialize(value), nil
}

// Serialize 规范化 value。当结果根节点是 *Map 且未禁用标注时，
// 截断信息附加在 MetaKey 下。
func (s *Serializer) Serialize(value any) any {
	out, meta := s.SerializeWithMeta(value)
	if meta == nil || s.opts.DisableMeta {
		return out
	}
	if m, ok := out.(*Map); ok {
		m.Set(MetaKey, meta)
	}
	return out
}

// SerializeWithMeta 规范化 value，并单独返回截断标注树。没有任何截断时标注树为 nil。
func (s *Serializer) SerializeWithMeta(value any) (out any, meta *Map) {
	start := time.Now()
	w := newWalker(&s.opts, s.Logger())
	defer func() {
		if r := recover(); r != nil {
			metrics.FallbacksTotal.WithLabelValues(metrics.FallbackReasonWalkPanic).Inc()
			w.logger.RatedWarn(1, "normalize value panicked",
				log.FieldValueType(typeName(value)), zap.Any("panic", r))
			out, meta = FailedMarker, nil
		}
		metrics.SerializeTotal.Inc()
		metrics.SerializeLatency.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	out = w.walk(reflect.ValueOf(value), 0)
	if w.truncations > 0 || w.cycles > 0 {
		w.logger.Debug("value normalized with truncation",
			log.FieldValueType(typeName(value)),
			zap.Int("truncations", w.truncations),
			zap.Int("cycles", w.cycles),
			zap.Int("size", w.size))
	}
	if !w.meta.empty() {
		meta = w.meta.root
	}
	return out, meta
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
