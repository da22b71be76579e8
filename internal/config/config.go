// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/fd1az/bridge-status/internal/apperror"
)

// Config holds all application configuration.
type Config struct {
	App                 AppConfig       `mapstructure:"app"`
	Telemetry           TelemetryConfig `mapstructure:"telemetry"`
	Health              HealthConfig    `mapstructure:"health"`
	Dashboard           DashboardConfig `mapstructure:"dashboard"`
	Chains              ChainsConfig    `mapstructure:"chains"`
	Layers              LayersConfig    `mapstructure:"layers"`
	Indexer             IndexerConfig   `mapstructure:"indexer"`
	FeeTokenSymbol      string          `mapstructure:"fee_token_symbol"`
	FeeTokenDecimals    int32           `mapstructure:"fee_token_decimals"`
	OracleProverAddress string          `mapstructure:"oracle_prover_address"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, otlp-grpc, otlp-http, console
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DashboardConfig holds dashboard session settings.
type DashboardConfig struct {
	DefaultLayer     string `mapstructure:"default_layer"`
	SubscriberBuffer int    `mapstructure:"subscriber_buffer"`
}

// ChainsConfig holds one endpoint per network. The L2 network is the rollup
// of layer two and the base chain of layer three.
type ChainsConfig struct {
	L1 ChainEndpoint `mapstructure:"l1"`
	L2 ChainEndpoint `mapstructure:"l2"`
	L3 ChainEndpoint `mapstructure:"l3"`
}

// ChainEndpoint holds connection settings and bridge contracts for one network.
type ChainEndpoint struct {
	RPCURL                string `mapstructure:"rpc_url"`
	WSURL                 string `mapstructure:"ws_url"`
	ChainID               uint64 `mapstructure:"chain_id"`
	ChainName             string `mapstructure:"chain_name"`
	ExplorerURL           string `mapstructure:"explorer_url"`
	BridgeAddress         string `mapstructure:"bridge_address"`
	TokenVaultAddress     string `mapstructure:"token_vault_address"`
	SignalServiceAddress  string `mapstructure:"signal_service_address"`
	CrossChainSyncAddress string `mapstructure:"cross_chain_sync_address"`
}

// Configured reports whether any connection setting is present.
func (c ChainEndpoint) Configured() bool {
	return c.RPCURL != "" || c.WSURL != ""
}

// LayersConfig holds the rollup deployment per layer.
type LayersConfig struct {
	Two   LayerConfig `mapstructure:"two"`
	Three LayerConfig `mapstructure:"three"`
}

// LayerConfig holds the rollup contracts and indexer of one layer.
type LayerConfig struct {
	TaikoL1Address  string `mapstructure:"taiko_l1_address"`
	TaikoL2Address  string `mapstructure:"taiko_l2_address"`
	EventIndexerURL string `mapstructure:"event_indexer_url"`
}

// Configured reports whether any field of the layer is set.
func (c LayerConfig) Configured() bool {
	return c.TaikoL1Address != "" || c.TaikoL2Address != "" || c.EventIndexerURL != ""
}

// TaikoL1 returns the base-side rollup contract, or the zero address when unset.
func (c LayerConfig) TaikoL1() common.Address {
	return common.HexToAddress(c.TaikoL1Address)
}

// TaikoL2 returns the rollup-side contract, or the zero address when unset.
func (c LayerConfig) TaikoL2() common.Address {
	return common.HexToAddress(c.TaikoL2Address)
}

// IndexerConfig holds event indexer client settings.
type IndexerConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext("read config"))
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("unmarshal config"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "BRIDGE_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "BRIDGE_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "BRIDGE_LOG_LEVEL", "LOG_LEVEL")

	// Networks
	for _, n := range []string{"l1", "l2", "l3"} {
		up := strings.ToUpper(n)
		v.BindEnv("chains."+n+".rpc_url", "BRIDGE_"+up+"_RPC_URL", "VITE_"+up+"_RPC_URL")
		v.BindEnv("chains."+n+".ws_url", "BRIDGE_"+up+"_WS_URL", "VITE_"+up+"_WS_URL")
		v.BindEnv("chains."+n+".chain_id", "BRIDGE_"+up+"_CHAIN_ID", "VITE_"+up+"_CHAIN_ID")
		v.BindEnv("chains."+n+".chain_name", "BRIDGE_"+up+"_CHAIN_NAME", "VITE_"+up+"_CHAIN_NAME")
		v.BindEnv("chains."+n+".explorer_url", "BRIDGE_"+up+"_EXPLORER_URL", "VITE_"+up+"_EXPLORER_URL")
		v.BindEnv("chains."+n+".bridge_address", "BRIDGE_"+up+"_BRIDGE_ADDRESS", "VITE_"+up+"_BRIDGE_ADDRESS")
		v.BindEnv("chains."+n+".token_vault_address", "BRIDGE_"+up+"_TOKEN_VAULT_ADDRESS", "VITE_"+up+"_TOKEN_VAULT_ADDRESS")
		v.BindEnv("chains."+n+".signal_service_address", "BRIDGE_"+up+"_SIGNAL_SERVICE_ADDRESS", "VITE_"+up+"_SIGNAL_SERVICE_ADDRESS")
		v.BindEnv("chains."+n+".cross_chain_sync_address", "BRIDGE_"+up+"_CROSS_CHAIN_SYNC_ADDRESS", "VITE_"+up+"_CROSS_CHAIN_SYNC_ADDRESS")
	}

	// Rollup deployments, keyed by the layer they belong to
	for key, prefix := range map[string]string{"two": "L2", "three": "L3"} {
		v.BindEnv("layers."+key+".taiko_l1_address", "BRIDGE_"+prefix+"_TAIKO_L1_ADDRESS", "VITE_"+prefix+"_TAIKO_L1_ADDRESS")
		v.BindEnv("layers."+key+".taiko_l2_address", "BRIDGE_"+prefix+"_TAIKO_L2_ADDRESS", "VITE_"+prefix+"_TAIKO_L2_ADDRESS")
		v.BindEnv("layers."+key+".event_indexer_url", "BRIDGE_"+prefix+"_EVENT_INDEXER_API_URL", "VITE_"+prefix+"_EVENT_INDEXER_API_URL")
	}

	v.BindEnv("fee_token_symbol", "BRIDGE_FEE_TOKEN_SYMBOL", "VITE_FEE_TOKEN_SYMBOL")
	v.BindEnv("fee_token_decimals", "BRIDGE_FEE_TOKEN_DECIMALS")
	v.BindEnv("oracle_prover_address", "BRIDGE_ORACLE_PROVER_ADDRESS", "ORACLE_PROVER_ADDRESS")

	v.BindEnv("dashboard.default_layer", "BRIDGE_LAYER")

	// Health
	v.BindEnv("health.enabled", "BRIDGE_HEALTH_ENABLED")
	v.BindEnv("health.port", "BRIDGE_HEALTH_PORT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "BRIDGE_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "BRIDGE_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "BRIDGE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.trace_provider", "BRIDGE_OTEL_TRACE_PROVIDER")
	v.BindEnv("telemetry.otlp_headers", "BRIDGE_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bridge-status")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("dashboard.default_layer", "two")
	v.SetDefault("dashboard.subscriber_buffer", 64)

	v.SetDefault("fee_token_symbol", "TKO")
	v.SetDefault("fee_token_decimals", 8)
	v.SetDefault("oracle_prover_address", "0x1567CDAb5F7a69154e61A16D8Ff5eE6A3e991b39")

	v.SetDefault("indexer.requests_per_minute", 60)
	v.SetDefault("indexer.timeout", "10s")
	v.SetDefault("indexer.cache_ttl", "30s")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "bridge-status")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration. The default layer must be complete;
// the other layer is only checked when any of its fields are set.
func (c *Config) Validate() error {
	var problems []string

	if c.FeeTokenSymbol == "" {
		problems = append(problems, "fee_token_symbol is required")
	}
	if !common.IsHexAddress(c.OracleProverAddress) {
		problems = append(problems, fmt.Sprintf("invalid oracle_prover_address: %q", c.OracleProverAddress))
	}

	defaultLayer := strings.ToLower(strings.TrimSpace(c.Dashboard.DefaultLayer))
	if defaultLayer != "two" && defaultLayer != "three" {
		problems = append(problems, fmt.Sprintf("dashboard.default_layer must be two or three, got %q", c.Dashboard.DefaultLayer))
	}

	for _, name := range []string{"two", "three"} {
		if name != defaultLayer && !c.layer(name).Configured() {
			continue
		}
		problems = append(problems, c.validateLayer(name)...)
	}

	if len(problems) > 0 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("invalid config: "+strings.Join(problems, "; ")))
	}
	return nil
}

// ValidateLayer checks that a layer can be resolved into a chain configuration.
func (c *Config) ValidateLayer(name string) error {
	if problems := c.validateLayer(name); len(problems) > 0 {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("invalid config: "+strings.Join(problems, "; ")),
			apperror.WithContext("layer "+name))
	}
	return nil
}

// Endpoints returns the base and rollup networks of a layer.
func (c *Config) Endpoints(name string) (base, rollup ChainEndpoint) {
	if name == "three" {
		return c.Chains.L2, c.Chains.L3
	}
	return c.Chains.L1, c.Chains.L2
}

// Layer returns the rollup deployment of a layer.
func (c *Config) Layer(name string) LayerConfig {
	return c.layer(name)
}

func (c *Config) layer(name string) LayerConfig {
	if name == "three" {
		return c.Layers.Three
	}
	return c.Layers.Two
}

func (c *Config) validateLayer(name string) []string {
	var problems []string
	base, rollup := c.Endpoints(name)
	baseKey, rollupKey := "chains.l1", "chains.l2"
	if name == "three" {
		baseKey, rollupKey = "chains.l2", "chains.l3"
	}

	if !base.Configured() {
		problems = append(problems, baseKey+".rpc_url is required for layer "+name)
	}
	if !rollup.Configured() {
		problems = append(problems, rollupKey+".rpc_url is required for layer "+name)
	}

	lc := c.layer(name)
	if lc.TaikoL1Address != "" && !common.IsHexAddress(lc.TaikoL1Address) {
		problems = append(problems, fmt.Sprintf("invalid layers.%s.taiko_l1_address: %q", name, lc.TaikoL1Address))
	}
	if lc.TaikoL2Address != "" && !common.IsHexAddress(lc.TaikoL2Address) {
		problems = append(problems, fmt.Sprintf("invalid layers.%s.taiko_l2_address: %q", name, lc.TaikoL2Address))
	}
	return problems
}
