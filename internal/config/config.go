package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/devdems/evse-plc/internal/api/middleware"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Pprof        HTTPPprof     `mapstructure:"pprof"`
}

// HTTPPprof HTTP pprof 配置
type HTTPPprof struct {
	Enable bool   `mapstructure:"enable"`
	Prefix string `mapstructure:"prefix"`
}

// APIConfig 控制接口配置
type APIConfig struct {
	Auth middleware.AuthConfig `mapstructure:"auth"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// ModemConfig QCA7000 调制解调器与轮询配置
type ModemConfig struct {
	Driver       string        `mapstructure:"driver"` // spidev | sim
	Device       string        `mapstructure:"device"` // 例如 /dev/spidev0.0
	SpeedHz      int64         `mapstructure:"speedHz"`
	TickInterval time.Duration `mapstructure:"tickInterval"`
	// LocalMAC 留空时取 Interface 网卡的硬件地址
	LocalMAC     string        `mapstructure:"localMac"`
	Interface    string        `mapstructure:"interface"`
	// SimPeers sim 驱动下对 GET_SW.REQ 额外应答的车辆侧调制解调器
	SimPeers     []string      `mapstructure:"simPeers"`
}

// SLACConfig 配对参数
type SLACConfig struct {
	NID              string        `mapstructure:"nid"` // 14 位十六进制或 "derive"
	SoundTimeout     time.Duration `mapstructure:"soundTimeout"`
	DiscoveryTimeout time.Duration `mapstructure:"discoveryTimeout"`
	MinModems        int           `mapstructure:"minModems"`
}

// CallbackConfig SOC 回调配置
type CallbackConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	RatePerSec float64       `mapstructure:"ratePerSec"`
	QueueSize  int           `mapstructure:"queueSize"`
	// 连续失败 BreakerThreshold 次后暂停 BreakerCooldown
	BreakerThreshold int           `mapstructure:"breakerThreshold"`
	BreakerCooldown  time.Duration `mapstructure:"breakerCooldown"`
}

// RedisConfig 配对历史存储
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	HistorySize  int           `mapstructure:"historySize"`
	SessionTTL   time.Duration `mapstructure:"sessionTTL"` // 0 表示不过期
}

// Config 顶层配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	API      APIConfig      `mapstructure:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Modem    ModemConfig    `mapstructure:"modem"`
	SLAC     SLACConfig     `mapstructure:"slac"`
	Callback CallbackConfig `mapstructure:"callback"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 EVSE_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	// 默认值
	setDefaults(v)

	// 环境变量覆盖：前缀 EVSE_，并将点号替换为下划线
	v.SetEnvPrefix("EVSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	switch c.Modem.Driver {
	case "spidev", "sim":
	default:
		return fmt.Errorf("config: modem.driver %q must be spidev or sim", c.Modem.Driver)
	}
	if c.Modem.Driver == "spidev" && c.Modem.Device == "" {
		return errors.New("config: modem.device is required for spidev")
	}
	if c.Modem.TickInterval <= 0 {
		return errors.New("config: modem.tickInterval must be positive")
	}
	if c.SLAC.SoundTimeout <= 0 || c.SLAC.DiscoveryTimeout <= 0 {
		return errors.New("config: slac timeouts must be positive")
	}
	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("config: api.auth.apiKeys is required when auth is enabled")
	}
	if c.Redis.Enabled && c.Redis.HistorySize <= 0 {
		return errors.New("config: redis.historySize must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "evse-plc")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")
	v.SetDefault("http.pprof.enable", false)
	v.SetDefault("http.pprof.prefix", "/debug/pprof")

	v.SetDefault("api.auth.enabled", false)
	v.SetDefault("api.auth.apiKeys", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/evse-plc.log")
	v.SetDefault("logging.file.maxSize", 20)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 14)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("modem.driver", "spidev")
	v.SetDefault("modem.device", "/dev/spidev0.0")
	v.SetDefault("modem.speedHz", 8000000)
	v.SetDefault("modem.tickInterval", "20ms")
	v.SetDefault("modem.localMac", "")
	v.SetDefault("modem.interface", "eth0")
	v.SetDefault("modem.simPeers", []string{})

	v.SetDefault("slac.nid", "01020304050607")
	v.SetDefault("slac.soundTimeout", "600ms")
	v.SetDefault("slac.discoveryTimeout", "1000ms")
	v.SetDefault("slac.minModems", 2)

	v.SetDefault("callback.url", "")
	v.SetDefault("callback.timeout", "5s")
	v.SetDefault("callback.retries", 3)
	v.SetDefault("callback.ratePerSec", 1.0)
	v.SetDefault("callback.queueSize", 16)
	v.SetDefault("callback.breakerThreshold", 5)
	v.SetDefault("callback.breakerCooldown", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 4)
	v.SetDefault("redis.dialTimeout", "2s")
	v.SetDefault("redis.readTimeout", "1s")
	v.SetDefault("redis.writeTimeout", "1s")
	v.SetDefault("redis.historySize", 100)
	v.SetDefault("redis.sessionTTL", "168h")
}
