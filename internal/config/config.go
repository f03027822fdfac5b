// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// ExchangeConfig controls the DEX adapters.
type ExchangeConfig struct {
	Environment     string        `mapstructure:"environment"`
	RPCPerMinute    int           `mapstructure:"rpc_per_minute"`
	ReserveCacheTTL time.Duration `mapstructure:"reserve_cache_ttl"`
	WETHAddress     string        `mapstructure:"weth_address"`
}

// Env returns the parsed exchange environment.
func (c *ExchangeConfig) Env() asset.Environment {
	return asset.ParseEnvironment(c.Environment)
}

// WETH returns the address the zero address resolves to.
func (c *ExchangeConfig) WETH() common.Address {
	if c.WETHAddress == "" {
		return asset.AddrWETHEthereum
	}
	return common.HexToAddress(c.WETHAddress)
}

// ArbitrageConfig holds cycle evaluation settings.
type ArbitrageConfig struct {
	LowerBound   float64 `mapstructure:"lower_bound"`
	UpperBound   float64 `mapstructure:"upper_bound"`
	MaxIter      int     `mapstructure:"max_iter"`
	ForwardStale bool    `mapstructure:"forward_stale"`
	GasLimit     uint64  `mapstructure:"gas_limit"`
	MaxCycles    int     `mapstructure:"max_cycles"`
	TUIMode      bool    `mapstructure:"-"` // Set at runtime, not from config file
}

// ServerConfig holds the pub/sub server settings.
type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	SessionBuffer int           `mapstructure:"session_buffer"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	HealthPort    int           `mapstructure:"health_port"`
}

// RedisConfig configures the optional decision bus.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
	Stream   string `mapstructure:"stream"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"` // zipkin, otlp-grpc, otlp-http, stdout, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.websocket_url", "ARB_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "ARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Exchange
	v.BindEnv("exchange.environment", "ARB_EXCHANGE_ENV", "EXCHANGE_ENVIRONMENT")
	v.BindEnv("exchange.rpc_per_minute", "ARB_RPC_PER_MINUTE")
	v.BindEnv("exchange.weth_address", "ARB_WETH_ADDRESS", "WETH_CONTRACT_ADDRESS")

	// Arbitrage
	v.BindEnv("arbitrage.forward_stale", "ARB_FORWARD_STALE")
	v.BindEnv("arbitrage.gas_limit", "ARB_GAS_LIMIT")

	// Server
	v.BindEnv("server.addr", "ARB_SERVER_ADDR", "SERVER_ADDR")
	v.BindEnv("server.health_port", "ARB_HEALTH_PORT")

	// Redis
	v.BindEnv("redis.enabled", "ARB_REDIS_ENABLED")
	v.BindEnv("redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "ARB_REDIS_DB")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.exporter", "ARB_OTEL_EXPORTER", "OTEL_TRACES_EXPORTER")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cycle-arbitrage")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.max_reconnects", 0) // infinite
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")

	v.SetDefault("exchange.environment", string(asset.Production))
	v.SetDefault("exchange.rpc_per_minute", 600)
	v.SetDefault("exchange.reserve_cache_ttl", "12s") // one block

	v.SetDefault("arbitrage.lower_bound", 0)
	v.SetDefault("arbitrage.upper_bound", 10000)
	v.SetDefault("arbitrage.max_iter", 100)
	v.SetDefault("arbitrage.forward_stale", false)
	v.SetDefault("arbitrage.gas_limit", 300000)
	v.SetDefault("arbitrage.max_cycles", 8)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.session_buffer", 64)
	v.SetDefault("server.write_timeout", "5s")
	v.SetDefault("server.health_port", 8081)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "arbitrage:decision")
	v.SetDefault("redis.stream", "arbitrage:decisions")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "cycle-arbitrage")
	v.SetDefault("telemetry.exporter", "none")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.WebSocketURL == "" {
		return fmt.Errorf("ethereum.websocket_url is required")
	}
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if c.Exchange.WETHAddress != "" && !common.IsHexAddress(c.Exchange.WETHAddress) {
		return fmt.Errorf("invalid exchange.weth_address: %s", c.Exchange.WETHAddress)
	}
	if c.Arbitrage.UpperBound <= c.Arbitrage.LowerBound {
		return fmt.Errorf("arbitrage.upper_bound must exceed lower_bound")
	}
	if c.Arbitrage.MaxIter <= 0 {
		return fmt.Errorf("arbitrage.max_iter must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	switch c.Telemetry.Exporter {
	case "", "none", "zipkin", "otlp-grpc", "otlp-http", "stdout":
	default:
		return fmt.Errorf("unknown telemetry.exporter: %s", c.Telemetry.Exporter)
	}
	return nil
}
