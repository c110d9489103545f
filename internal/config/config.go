// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fd1az/amm-quoter/internal/apperror"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime by the watch command
}

// EthereumConfig holds node connection settings.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"` // optional; polling over HTTP is used without it
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	RPCPerMinute   int           `mapstructure:"rpc_per_minute"`
	RPCTimeout     time.Duration `mapstructure:"rpc_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	MetadataTTL    time.Duration `mapstructure:"metadata_ttl"`
	GasPriceTTL    time.Duration `mapstructure:"gas_price_ttl"`
}

// PoolConfig identifies the pool and its fee.
type PoolConfig struct {
	Address        string `mapstructure:"address"`
	RouterAddress  string `mapstructure:"router_address"`
	FeeNumerator   int64  `mapstructure:"fee_numerator"`
	FeeDenominator int64  `mapstructure:"fee_denominator"`
}

// AddressHex returns the pool address as common.Address.
func (c *PoolConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// RouterAddressHex returns the router address, zero when unset.
func (c *PoolConfig) RouterAddressHex() common.Address {
	if c.RouterAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.RouterAddress)
}

// FeeBig returns the fee fraction as big integers.
func (c *PoolConfig) FeeBig() (num, den *big.Int) {
	return big.NewInt(c.FeeNumerator), big.NewInt(c.FeeDenominator)
}

// SafetyConfig holds the trade safety thresholds.
type SafetyConfig struct {
	WarnImpactPct      float64       `mapstructure:"warn_impact_pct"`
	BlockImpactPct     float64       `mapstructure:"block_impact_pct"`
	DeadlineWindow     time.Duration `mapstructure:"deadline_window"`
	DefaultSlippagePct float64       `mapstructure:"default_slippage_pct"`
}

// WarnImpactDecimal returns the warn threshold as decimal.Decimal.
func (c *SafetyConfig) WarnImpactDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.WarnImpactPct)
}

// BlockImpactDecimal returns the block threshold as decimal.Decimal.
func (c *SafetyConfig) BlockImpactDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.BlockImpactPct)
}

// DefaultSlippageDecimal returns the default slippage tolerance as decimal.Decimal.
func (c *SafetyConfig) DefaultSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultSlippagePct)
}

// WatchConfig drives block-by-block recomputation.
type WatchConfig struct {
	ProbeSizes []string `mapstructure:"probe_sizes"` // whole-token amounts quoted in both directions
	Owner      string   `mapstructure:"owner"`       // optional LP holder to track
}

// OwnerHex returns the tracked owner, zero when unset.
func (c *WatchConfig) OwnerHex() common.Address {
	if c.Owner == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Owner)
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	HealthPort   int           `mapstructure:"health_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load reads configuration from file, environment and, when non-nil, command-line flags.
// Flags win over env, env over file, file over defaults.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err), apperror.WithContext("read config"))
		}
	}

	if err := checkAddressTypes(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err), apperror.WithContext("unmarshal config"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// addressKeys hold 0x addresses. Unquoted in YAML, a short one such as
// 0x00...aa parses as a hex integer and would reach Validate as "170".
var addressKeys = []string{"pool.address", "pool.router_address", "watch.owner"}

func checkAddressTypes(v *viper.Viper) error {
	for _, key := range addressKeys {
		switch val := v.Get(key); val.(type) {
		case nil, string:
		default:
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithContextf("%s was read as %T %v; quote the address in the config file", key, val, val))
		}
	}
	return nil
}

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"rpc":       "ethereum.http_url",
	"ws":        "ethereum.websocket_url",
	"pool":      "pool.address",
	"router":    "pool.router_address",
	"log-level": "app.log_level",
	"addr":      "server.addr",
	"owner":     "watch.owner",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err), apperror.WithContextf("bind flag %s", name))
		}
	}
	return nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	_ = v.BindEnv("app.name", "AMM_APP_NAME", "SERVICE_NAME")
	_ = v.BindEnv("app.environment", "AMM_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("app.log_level", "AMM_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	_ = v.BindEnv("ethereum.websocket_url", "AMM_ETH_WS_URL", "ETH_WS_URL")
	_ = v.BindEnv("ethereum.http_url", "AMM_ETH_HTTP_URL", "ETH_HTTP_URL", "SEPOLIA_RPC_URL")
	_ = v.BindEnv("ethereum.chain_id", "AMM_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Pool
	_ = v.BindEnv("pool.address", "AMM_POOL_ADDRESS", "POOL_ADDRESS")
	_ = v.BindEnv("pool.router_address", "AMM_ROUTER_ADDRESS", "ROUTER_ADDRESS")

	// Watch
	_ = v.BindEnv("watch.owner", "AMM_WATCH_OWNER")

	// Server
	_ = v.BindEnv("server.addr", "AMM_SERVER_ADDR")

	// Telemetry
	_ = v.BindEnv("telemetry.enabled", "AMM_OTEL_ENABLED", "OTEL_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "AMM_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.otlp_endpoint", "AMM_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "amm-quoter")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Sepolia
	v.SetDefault("ethereum.chain_id", 11155111)
	v.SetDefault("ethereum.rpc_per_minute", 600)
	v.SetDefault("ethereum.rpc_timeout", "10s")
	v.SetDefault("ethereum.poll_interval", "12s")
	v.SetDefault("ethereum.max_reconnects", 0) // infinite
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")
	v.SetDefault("ethereum.metadata_ttl", "1h")
	v.SetDefault("ethereum.gas_price_ttl", "15s")

	// 0.3% fee
	v.SetDefault("pool.fee_numerator", 997)
	v.SetDefault("pool.fee_denominator", 1000)

	v.SetDefault("safety.warn_impact_pct", 5)
	v.SetDefault("safety.block_impact_pct", 15)
	v.SetDefault("safety.deadline_window", "60s")
	v.SetDefault("safety.default_slippage_pct", 1)

	v.SetDefault("watch.probe_sizes", []string{"1", "10"})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "amm-quoter")
	v.SetDefault("telemetry.trace_provider", "EMPTY_PROVIDER")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return apperror.New(apperror.CodeConfigurationError, apperror.WithContextf(format, args...))
	}

	if c.Ethereum.HTTPURL == "" {
		return invalid("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Pool.Address) {
		return invalid("invalid pool.address: %q", c.Pool.Address)
	}
	if c.Pool.RouterAddress != "" && !common.IsHexAddress(c.Pool.RouterAddress) {
		return invalid("invalid pool.router_address: %q", c.Pool.RouterAddress)
	}
	if c.Pool.FeeDenominator <= 0 || c.Pool.FeeNumerator < 0 || c.Pool.FeeNumerator > c.Pool.FeeDenominator {
		return invalid("pool fee %d/%d must satisfy 0 <= num <= den, den > 0", c.Pool.FeeNumerator, c.Pool.FeeDenominator)
	}
	if c.Safety.WarnImpactPct < 0 || c.Safety.WarnImpactPct > c.Safety.BlockImpactPct {
		return invalid("safety thresholds must satisfy 0 <= warn (%v) <= block (%v)", c.Safety.WarnImpactPct, c.Safety.BlockImpactPct)
	}
	if c.Safety.DeadlineWindow <= 0 {
		return invalid("safety.deadline_window must be positive")
	}
	if c.Safety.DefaultSlippagePct < 0 || c.Safety.DefaultSlippagePct >= 100 {
		return invalid("safety.default_slippage_pct must be in [0, 100)")
	}
	for _, s := range c.Watch.ProbeSizes {
		if d, err := decimal.NewFromString(s); err != nil || !d.IsPositive() {
			return invalid("watch.probe_sizes entry %q is not a positive decimal", s)
		}
	}
	if c.Watch.Owner != "" && !common.IsHexAddress(c.Watch.Owner) {
		return invalid("invalid watch.owner: %q", c.Watch.Owner)
	}
	return nil
}
