package config

import "time"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Routing    RoutingConfig    `yaml:"routing"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsPort int    `yaml:"metrics_port"`
}

// PricingConfig controls credit normalization: credits = usd * CreditsPerUSD.
// DailyLimitCredits caps per-wallet daily spend; <= 0 means unlimited.
type PricingConfig struct {
	CreditsPerUSD     float64 `yaml:"credits_per_usd"`
	DailyLimitCredits float64 `yaml:"daily_limit_credits"`
}

type RoutingConfig struct {
	DefaultStrategy string               `yaml:"default_strategy"`
	FallbackDepth   int                  `yaml:"fallback_depth"`
	Balanced        BalancedWeights      `yaml:"balanced"`
	CircuitBreaker  CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// BalancedWeights are the score weights for the balanced strategy. The exact
// split is configurable, not contractual; defaults are 0.4/0.3/0.3.
type BalancedWeights struct {
	Cost    float64 `yaml:"cost"`
	Latency float64 `yaml:"latency"`
	Quality float64 `yaml:"quality"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

type ResilienceConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			DB:        0,
			PoolSize:  50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: 9090,
		},
		Pricing: PricingConfig{
			CreditsPerUSD: 100,
		},
		Routing: RoutingConfig{
			DefaultStrategy: "balanced",
			FallbackDepth:   2,
			Balanced: BalancedWeights{
				Cost:    0.4,
				Latency: 0.3,
				Quality: 0.3,
			},
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				RecoveryTimeout:  60 * time.Second,
			},
		},
		Resilience: ResilienceConfig{
			MaxRetries:     3,
			BaseDelay:      250 * time.Millisecond,
			ConnectTimeout: 10 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
	}
}
