package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	UpstreamURL string `mapstructure:"upstream_url"`
	SecretKey   string `mapstructure:"secret_key"`
	// TrustIdentityHeaders lets an authenticating proxy in front of the
	// gateway pass X-User-ID / X-User-Tier directly.
	TrustIdentityHeaders bool          `mapstructure:"trust_identity_headers"`
	ExemptPaths          []string      `mapstructure:"exempt_paths"`
	ProxyTimeout         time.Duration `mapstructure:"proxy_timeout"`
}

type MetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	EnableProcess bool `mapstructure:"enable_process"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
	PoolSize int    `mapstructure:"pool_size"`
}

type RateLimitConfig struct {
	Enabled        bool               `mapstructure:"enabled"`
	SecurityEvents bool               `mapstructure:"security_events"`
	TrustedProxies []string           `mapstructure:"trusted_proxies"`
	Default        PolicyConfig       `mapstructure:"default"`
	Endpoints      []EndpointConfig   `mapstructure:"endpoints"`
	Tiers          map[string]float64 `mapstructure:"tiers"`
	Adaptive       AdaptiveConfig     `mapstructure:"adaptive"`
	Cleanup        CleanupConfig      `mapstructure:"cleanup"`
	Distributed    DistributedConfig  `mapstructure:"distributed"`
}

type PolicyConfig struct {
	Name                   string              `mapstructure:"name"`
	Algorithm              ratelimit.Algorithm `mapstructure:"algorithm"`
	Window                 time.Duration       `mapstructure:"window"`
	MaxRequests            int                 `mapstructure:"max_requests"`
	Capacity               float64             `mapstructure:"capacity"`
	RefillRate             float64             `mapstructure:"refill_rate"`
	KeyStrategy            string              `mapstructure:"key_strategy"`
	SkipSuccessfulRequests bool                `mapstructure:"skip_successful_requests"`
	SkipFailedRequests     bool                `mapstructure:"skip_failed_requests"`
	Adaptive               bool                `mapstructure:"adaptive"`
}

type EndpointConfig struct {
	Pattern      string   `mapstructure:"pattern"`
	Methods      []string `mapstructure:"methods"`
	PolicyConfig `mapstructure:",squash"`
}

type AdaptiveConfig struct {
	// Enabled sheds load on every policy; policies can also opt in one by one.
	Enabled     bool `mapstructure:"enabled"`
	MinLimit    int  `mapstructure:"min_limit"`
	MaxInflight int  `mapstructure:"max_inflight"`
}

type CleanupConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	BucketRetention time.Duration `mapstructure:"bucket_retention"`
}

type DistributedConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Timeout            time.Duration `mapstructure:"timeout"`
	KeyPrefix          string        `mapstructure:"key_prefix"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.upstream_url", "http://localhost:3000")
	v.SetDefault("server.secret_key", "")
	v.SetDefault("server.trust_identity_headers", false)
	v.SetDefault("server.exempt_paths", []string{"/health", "/__/ping"})
	v.SetDefault("server.proxy_timeout", "30s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_process", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)
	v.SetDefault("redis.pool_size", 0)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.security_events", true)
	v.SetDefault("rate_limit.trusted_proxies", []string{})
	v.SetDefault("rate_limit.default.name", "default")
	v.SetDefault("rate_limit.default.algorithm", "fixed")
	v.SetDefault("rate_limit.default.window", "1m")
	v.SetDefault("rate_limit.default.max_requests", 100)
	v.SetDefault("rate_limit.default.key_strategy", string(ratelimit.KeyByIP))
	v.SetDefault("rate_limit.adaptive.enabled", false)
	v.SetDefault("rate_limit.adaptive.min_limit", 1)
	v.SetDefault("rate_limit.adaptive.max_inflight", 1000)
	v.SetDefault("rate_limit.cleanup.interval", "1m")
	v.SetDefault("rate_limit.cleanup.bucket_retention", "1h")
	v.SetDefault("rate_limit.distributed.enabled", false)
	v.SetDefault("rate_limit.distributed.timeout", "50ms")
	v.SetDefault("rate_limit.distributed.key_prefix", "gate:")
	v.SetDefault("rate_limit.distributed.breaker_max_failures", 5)
	v.SetDefault("rate_limit.distributed.breaker_timeout", "10s")
}

// Load reads config.yaml from configPath, ./config or the working directory.
// Every key can be overridden from the environment, e.g.
// RATE_LIMIT_DISTRIBUTED_ENABLED=true. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file config.yaml: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("server.metrics_port out of range: %d", c.Server.MetricsPort)
	}
	if c.Server.UpstreamURL != "" {
		u, err := url.Parse(c.Server.UpstreamURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server.upstream_url must be an absolute url: %q", c.Server.UpstreamURL)
		}
	}
	if c.RateLimit.Distributed.Enabled && c.Redis.Host == "" {
		return errors.New("rate_limit.distributed requires redis.host")
	}
	if _, err := c.RateLimit.PolicyTable(); err != nil {
		return err
	}
	return nil
}
