package serializer

import (
	"math"

	"github.com/lk2023060901/capture-go/pkg/util/merr"
	"github.com/lk2023060901/capture-go/pkg/util/viper"
)

// 默认边界。
const (
	DefaultMaxDepth        = 10
	DefaultMaxBreadth      = 1000
	DefaultMaxStringLength = 1024
	DefaultMaxSize         = 1 << 20
	DefaultReprMethod      = "SentryRepr"
)

// minStringLength 是截断后仍能容纳 TruncationSuffix 的最小长度。
const minStringLength = len(TruncationSuffix)

// Options 控制一次规范化的边界与策略。
//
// 字段带有 mapstructure 标签，可以直接从 YAML/JSON 配置中解码，见 LoadOptions。
type Options struct {
	// MaxDepth 为最多下降的嵌套层数，深度达到该值的容器被替换为 MaxDepthMarker。
	MaxDepth int `mapstructure:"max_depth"`
	// MaxBreadth 为单个序列/映射/集合最多保留的条目数。
	MaxBreadth int `mapstructure:"max_breadth"`
	// ShouldReprStrings 为 true 时所有标量（文本、字节、数字、布尔、nil）都输出其文本表示。
	ShouldReprStrings bool `mapstructure:"should_repr_strings"`
	// MaxStringLength 为文本的最大字符数，0 表示不限制。
	MaxStringLength int `mapstructure:"max_string_length"`
	// MaxSize 为输出的近似编码大小上限（字节），0 表示不限制。
	MaxSize int `mapstructure:"max_size"`
	// ReprMethod 为自定义表示钩子的方法名，方法签名必须是 func() string。为空时禁用钩子。
	ReprMethod string `mapstructure:"repr_method"`
	// DisableMeta 为 true 时不在根映射上附加 _meta 标注。
	DisableMeta bool `mapstructure:"disable_meta"`
}

// DefaultOptions 返回默认配置。
func DefaultOptions() Options {
	return Options{
		MaxDepth:        DefaultMaxDepth,
		MaxBreadth:      DefaultMaxBreadth,
		MaxStringLength: DefaultMaxStringLength,
		MaxSize:         DefaultMaxSize,
		ReprMethod:      DefaultReprMethod,
	}
}

// Validate 校验配置，非法时返回 merr.ErrParameterInvalid。
func (o Options) Validate() error {
	if o.MaxDepth < 0 {
		return merr.WrapErrParameterInvalidRange(0, math.MaxInt, o.MaxDepth, "max_depth")
	}
	if o.MaxBreadth < 0 {
		return merr.WrapErrParameterInvalidRange(0, math.MaxInt, o.MaxBreadth, "max_breadth")
	}
	if o.MaxSize < 0 {
		return merr.WrapErrParameterInvalidRange(0, math.MaxInt, o.MaxSize, "max_size")
	}
	if o.MaxStringLength < 0 {
		return merr.WrapErrParameterInvalidRange(0, math.MaxInt, o.MaxStringLength, "max_string_length")
	}
	if o.MaxStringLength > 0 && o.MaxStringLength < minStringLength {
		return merr.WrapErrParameterInvalidMsg("max_string_length must be 0 or at least %d, got %d",
			minStringLength, o.MaxStringLength)
	}
	return nil
}

// Option 用于修改 Options 的选项函数。
type Option func(o *Options)

// WithMaxDepth 设置最多下降的嵌套层数。
func WithMaxDepth(n int) Option {
	return func(o *Options) {
		o.MaxDepth = n
	}
}

// WithMaxBreadth 设置单个容器最多保留的条目数。
func WithMaxBreadth(n int) Option {
	return func(o *Options) {
		o.MaxBreadth = n
	}
}

// WithReprStrings 设置是否将所有标量输出为文本表示。
func WithReprStrings(v bool) Option {
	return func(o *Options) {
		o.ShouldReprStrings = v
	}
}

// WithMaxStringLength 设置文本的最大字符数，0 表示不限制。
func WithMaxStringLength(n int) Option {
	return func(o *Options) {
		o.MaxStringLength = n
	}
}

// WithMaxSize 设置输出的近似大小上限，0 表示不限制。
func WithMaxSize(n int) Option {
	return func(o *Options) {
		o.MaxSize = n
	}
}

// WithReprMethod 设置自定义表示钩子的方法名，为空时禁用钩子。
func WithReprMethod(name string) Option {
	return func(o *Options) {
		o.ReprMethod = name
	}
}

// WithDisableMeta 设置是否省略根映射上的 _meta 标注。
func WithDisableMeta(v bool) Option {
	return func(o *Options) {
		o.DisableMeta = v
	}
}

// WithOptions 整体替换当前配置，通常用于在配置文件结果之上叠加其它选项。
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

// LoadOptions 从 cfg 的 key 节点解码配置，未出现的字段保留默认值。
// key 为空时解码整个配置。
func LoadOptions(cfg *viper.Config, key string) (Options, error) {
	opts := DefaultOptions()
	if cfg == nil {
		return opts, nil
	}

	var err error
	if key == "" {
		err = cfg.Unmarshal(&opts)
	} else {
		err = cfg.UnmarshalKey(key, &opts)
	}
	if err != nil {
		return opts, merr.WrapErrParameterInvalidMsg("decode serializer options: %s", err.Error())
	}
	return opts, opts.Validate()
}
