// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Provider names accepted in routing.on_chain_providers / routing.cross_chain_providers.
const (
	ProviderUniswap  = "uniswap"
	ProviderZeroX    = "zerox"
	ProviderLiFi     = "lifi"
	ProviderOneClick = "oneclick"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	ZeroX     ZeroXConfig     `mapstructure:"zerox"`
	LiFi      LiFiConfig      `mapstructure:"lifi"`
	OneClick  OneClickConfig  `mapstructure:"oneclick"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	AutoConfirm bool   `mapstructure:"auto_confirm"` // Accept rate changes without asking
	TUIMode     bool   `mapstructure:"-"`            // Set at runtime, not from config file
}

// EthereumConfig holds the read node and the external signer endpoint.
type EthereumConfig struct {
	RPCURL              string        `mapstructure:"rpc_url"`
	WalletURL           string        `mapstructure:"wallet_url"` // JSON-RPC endpoint that signs eth_sendTransaction
	ChainID             uint64        `mapstructure:"chain_id"`
	Blockchain          string        `mapstructure:"blockchain"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
}

// RoutingConfig tunes the calculation pipeline.
type RoutingConfig struct {
	Debounce            time.Duration `mapstructure:"debounce"`
	TradeStateDebounce  time.Duration `mapstructure:"trade_state_debounce"`
	ProviderTimeout     time.Duration `mapstructure:"provider_timeout"`
	RefreshInterval     time.Duration `mapstructure:"refresh_interval"`
	OnChainProviders    []string      `mapstructure:"on_chain_providers"`
	CrossChainProviders []string      `mapstructure:"cross_chain_providers"`
	SlippageBps         int           `mapstructure:"slippage_bps"`
}

// SlippageDecimal returns slippage as a fraction (50 bps = 0.005).
func (c *RoutingConfig) SlippageDecimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c.SlippageBps)).Div(decimal.NewFromInt(10000))
}

// UniswapConfig holds Uniswap V3 contract addresses.
type UniswapConfig struct {
	QuoterAddress        string `mapstructure:"quoter_address"`
	RouterAddress        string `mapstructure:"router_address"`
	WrappedNativeAddress string `mapstructure:"wrapped_native_address"`
	DefaultFeeTier       int    `mapstructure:"default_fee_tier"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *UniswapConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// RouterAddressHex returns the router address as common.Address.
func (c *UniswapConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// ZeroXConfig holds 0x Swap API settings.
type ZeroXConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// LiFiConfig holds LI.FI API settings.
type LiFiConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Integrator        string        `mapstructure:"integrator"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// OneClickConfig holds 1Click intents API settings.
type OneClickConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	JWT               string        `mapstructure:"jwt"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Deadline          time.Duration `mapstructure:"deadline"`
	TokenCacheTTL     time.Duration `mapstructure:"token_cache_ttl"`
}

// ServerConfig holds listener ports.
type ServerConfig struct {
	WSPort     int `mapstructure:"ws_port"`
	HealthPort int `mapstructure:"health_port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Provider       string `mapstructure:"provider"` // zipkin, otlp or console
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	OTLPProtocol   string `mapstructure:"otlp_protocol"` // grpc or http/protobuf
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

	// Environment variables
	v.SetEnvPrefix("SWAP")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
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
	v.BindEnv("app.name", "SWAP_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SWAP_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SWAP_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.auto_confirm", "SWAP_AUTO_CONFIRM")

	// Ethereum
	v.BindEnv("ethereum.rpc_url", "SWAP_ETH_RPC_URL", "ETH_RPC_URL")
	v.BindEnv("ethereum.wallet_url", "SWAP_WALLET_URL", "WALLET_RPC_URL")
	v.BindEnv("ethereum.chain_id", "SWAP_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Routing
	v.BindEnv("routing.provider_timeout", "SWAP_PROVIDER_TIMEOUT")
	v.BindEnv("routing.slippage_bps", "SWAP_SLIPPAGE_BPS")

	// Providers
	v.BindEnv("zerox.api_key", "SWAP_ZEROX_API_KEY", "ZEROX_API_KEY")
	v.BindEnv("lifi.integrator", "SWAP_LIFI_INTEGRATOR", "LIFI_INTEGRATOR")
	v.BindEnv("oneclick.jwt", "SWAP_ONECLICK_JWT", "ONECLICK_JWT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SWAP_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.provider", "SWAP_OTEL_PROVIDER")
	v.BindEnv("telemetry.service_name", "SWAP_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SWAP_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.otlp_protocol", "OTEL_EXPORTER_OTLP_PROTOCOL")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "swap-router")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.blockchain", "ETH")
	v.SetDefault("ethereum.receipt_poll_interval", "2s")
	v.SetDefault("ethereum.receipt_timeout", "5m")

	// Routing defaults
	v.SetDefault("routing.debounce", "200ms")
	v.SetDefault("routing.trade_state_debounce", "10ms")
	v.SetDefault("routing.provider_timeout", "30s")
	v.SetDefault("routing.refresh_interval", "30s")
	v.SetDefault("routing.on_chain_providers", []string{ProviderUniswap, ProviderZeroX})
	v.SetDefault("routing.cross_chain_providers", []string{ProviderLiFi, ProviderOneClick})
	v.SetDefault("routing.slippage_bps", 100)

	// Uniswap V3 Mainnet defaults
	v.SetDefault("uniswap.quoter_address", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	v.SetDefault("uniswap.router_address", "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45")
	v.SetDefault("uniswap.wrapped_native_address", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("uniswap.default_fee_tier", 3000) // 0.3%

	// Provider API defaults
	v.SetDefault("zerox.base_url", "https://api.0x.org")
	v.SetDefault("zerox.requests_per_minute", 60)
	v.SetDefault("zerox.timeout", "10s")
	v.SetDefault("lifi.base_url", "https://li.quest/v1")
	v.SetDefault("lifi.integrator", "swap-router")
	v.SetDefault("lifi.requests_per_minute", 100)
	v.SetDefault("lifi.timeout", "15s")
	v.SetDefault("oneclick.base_url", "https://1click.chaindefuser.com")
	v.SetDefault("oneclick.requests_per_minute", 60)
	v.SetDefault("oneclick.deadline", "10m")
	v.SetDefault("oneclick.token_cache_ttl", "10m")

	// Server defaults
	v.SetDefault("server.ws_port", 8090)
	v.SetDefault("server.health_port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.provider", "zipkin")
	v.SetDefault("telemetry.service_name", "swap-router")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.RPCURL == "" {
		return fmt.Errorf("ethereum.rpc_url is required")
	}
	if c.Routing.Debounce <= 0 {
		return fmt.Errorf("routing.debounce must be positive")
	}
	if c.Routing.ProviderTimeout <= 0 {
		return fmt.Errorf("routing.provider_timeout must be positive")
	}
	if len(c.Routing.OnChainProviders)+len(c.Routing.CrossChainProviders) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}
	for _, p := range c.Routing.OnChainProviders {
		if p != ProviderUniswap && p != ProviderZeroX {
			return fmt.Errorf("unknown on-chain provider: %s", p)
		}
	}
	for _, p := range c.Routing.CrossChainProviders {
		if p != ProviderLiFi && p != ProviderOneClick {
			return fmt.Errorf("unknown cross-chain provider: %s", p)
		}
	}
	if c.Enabled(ProviderUniswap) {
		if !common.IsHexAddress(c.Uniswap.QuoterAddress) {
			return fmt.Errorf("invalid uniswap.quoter_address: %s", c.Uniswap.QuoterAddress)
		}
		if !common.IsHexAddress(c.Uniswap.RouterAddress) {
			return fmt.Errorf("invalid uniswap.router_address: %s", c.Uniswap.RouterAddress)
		}
	}
	if c.Routing.SlippageBps < 0 || c.Routing.SlippageBps > 5000 {
		return fmt.Errorf("routing.slippage_bps out of range: %d", c.Routing.SlippageBps)
	}
	return nil
}

// Enabled reports whether the named provider is in either provider list.
func (c *Config) Enabled(provider string) bool {
	return slices.Contains(c.Routing.OnChainProviders, provider) ||
		slices.Contains(c.Routing.CrossChainProviders, provider)
}
