package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	zlog "github.com/lk2023060901/capture-go/pkg/log"
	"github.com/lk2023060901/capture-go/pkg/metrics"
	"github.com/lk2023060901/capture-go/pkg/serializer"
	"github.com/lk2023060901/capture-go/pkg/util/merr"
	zviper "github.com/lk2023060901/capture-go/pkg/util/viper"
)

const (
	defaultConfigPath = "./config.yaml"

	envConfigPath = "CAPTURE_CONFIG_FILE_PATH"

	// SerializerConfigKey 是配置文件中规范化参数所在的节点。
	SerializerConfigKey = "serializer"
	// LoggingConfigKey 是配置文件中模块日志配置所在的节点。
	LoggingConfigKey = "logging"
	// SerializerLoggerName 是 Serializer 使用的模块日志名称。
	SerializerLoggerName = "serializer"
)

// Application 是 capture 进程的运行时容器，持有配置、日志、指标与 Serializer。
type Application struct {
	args  []string
	flags map[string]*pflag.Flag

	cfg        *zviper.Config
	loggers    map[string]*zlog.MLogger
	registry   *prometheus.Registry
	serializer *serializer.Serializer
}

// New 创建 Application，args 为不含程序名的命令行参数。
func New(args []string) *Application {
	return &Application{
		args:  args,
		flags: make(map[string]*pflag.Flag),
	}
}

// BindFlag 将命令行参数绑定到配置 key，需在 Run 之前调用。
func (a *Application) BindFlag(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	a.flags[key] = flag
}

// Run 加载配置并初始化日志、指标与 Serializer。
//
// 配置文件路径优先级（由低到高）：
//  1. 默认 ./config.yaml（不存在时视为空配置）
//  2. 环境变量 CAPTURE_CONFIG_FILE_PATH
//  3. 命令行 --config <path> 或 --config=<path>
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	a.initMetrics()
	return a.initSerializer()
}

// Config 返回已加载的配置。
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Logger 返回按名称配置的模块日志，未配置时返回全局日志。
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return zlog.With(zlog.FieldModule(name))
}

// Registry 返回注册了 capture 指标的 Prometheus Registry。
func (a *Application) Registry() *prometheus.Registry {
	return a.registry
}

// Serializer 返回按配置构造的 Serializer。
func (a *Application) Serializer() *serializer.Serializer {
	return a.serializer
}

func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath := defaultConfigPath
	explicit := false

	if envPath := os.Getenv(envConfigPath); envPath != "" {
		configPath = envPath
		explicit = true
	}

	for i := 0; i < len(a.args); i++ {
		arg := a.args[i]
		if arg == "--config" {
			if i+1 >= len(a.args) {
				return nil, merr.WrapErrParameterMissing("--config", "missing value after --config")
			}
			configPath = a.args[i+1]
			explicit = true
			i++
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--config="); ok && val != "" {
			configPath = val
			explicit = true
		}
	}

	cfg := zviper.New()
	if _, err := os.Stat(configPath); os.IsNotExist(err) && !explicit {
		zlog.Debug("default config file absent, using built-in defaults", zap.String("path", configPath))
	} else if err := cfg.LoadFile(configPath); err != nil {
		return nil, merr.WrapErrIoFailed(configPath, err)
	}

	for key, flag := range a.flags {
		if err := cfg.BindFlag(key, flag); err != nil {
			return nil, errors.Wrapf(err, "bind flag %s", flag.Name)
		}
	}
	return cfg, nil
}

func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	return a.initModuleLoggersFromConfig()
}

// initGlobalLoggerFromEnv 根据 CAPTURE_LOG_* 环境变量配置全局日志：
//   - CAPTURE_LOG_ENABLE: "1"/"true" 开启输出，其它值视为关闭。
//   - CAPTURE_LOG_LEVEL: 日志级别，默认 info。
//   - CAPTURE_LOG_STDOUT: 是否输出到标准输出。
//   - CAPTURE_LOG_FILE_DIR / CAPTURE_LOG_FILE: 日志文件目录与文件名。
//   - CAPTURE_LOG_FORMAT: text 或 json。
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("CAPTURE_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:  getenvDefault("CAPTURE_LOG_LEVEL", "info"),
		Format: getenvDefault("CAPTURE_LOG_FORMAT", zlog.FormatText),
		Stdout: getenvBool("CAPTURE_LOG_STDOUT", false),
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("CAPTURE_LOG_FILE_DIR", ""),
			Filename: getenvDefault("CAPTURE_LOG_FILE", ""),
		},
	}
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig 按 logging 节点创建模块日志：
//
//	logging:
//	  serializer:
//	    level: debug
//	    stdout: true
func (a *Application) initModuleLoggersFromConfig() error {
	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey(LoggingConfigKey, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}
	return nil
}

func (a *Application) initMetrics() {
	a.registry = prometheus.NewRegistry()
	metrics.Register(a.registry)
}

func (a *Application) initSerializer() error {
	opts, err := serializer.LoadOptions(a.cfg, SerializerConfigKey)
	if err != nil {
		return err
	}
	s, err := serializer.NewWithOptions(opts)
	if err != nil {
		return err
	}
	s.SetLogger(a.Logger(SerializerLoggerName))
	a.serializer = s
	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
