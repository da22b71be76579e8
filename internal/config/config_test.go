package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fd1az/bridge-status/internal/apperror"
)

func validConfig() *Config {
	return &Config{
		Dashboard:           DashboardConfig{DefaultLayer: "two"},
		FeeTokenSymbol:      "TKO",
		OracleProverAddress: "0x1567CDAb5F7a69154e61A16D8Ff5eE6A3e991b39",
		Chains: ChainsConfig{
			L1: ChainEndpoint{RPCURL: "http://l1:8545"},
			L2: ChainEndpoint{RPCURL: "http://l2:8545"},
		},
		Layers: LayersConfig{
			Two: LayerConfig{TaikoL1Address: "0x0000000000000000000000000000000000000001"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid layer two",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing base rpc",
			mutate:  func(c *Config) { c.Chains.L1.RPCURL = "" },
			wantErr: "chains.l1.rpc_url",
		},
		{
			name:    "bad oracle prover",
			mutate:  func(c *Config) { c.OracleProverAddress = "nope" },
			wantErr: "oracle_prover_address",
		},
		{
			name:    "bad default layer",
			mutate:  func(c *Config) { c.Dashboard.DefaultLayer = "four" },
			wantErr: "default_layer",
		},
		{
			name:    "bad taiko address",
			mutate:  func(c *Config) { c.Layers.Two.TaikoL1Address = "0x12" },
			wantErr: "taiko_l1_address",
		},
		{
			name:   "unconfigured layer three is ignored",
			mutate: func(c *Config) { c.Layers.Three = LayerConfig{} },
		},
		{
			name:    "partially configured layer three is validated",
			mutate:  func(c *Config) { c.Layers.Three.EventIndexerURL = "http://indexer" },
			wantErr: "chains.l3.rpc_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
			if !apperror.IsConfiguration(err) {
				t.Errorf("expected configuration error, got %s", apperror.GetCode(err))
			}
		})
	}
}

func TestEndpoints(t *testing.T) {
	cfg := validConfig()
	cfg.Chains.L3 = ChainEndpoint{RPCURL: "http://l3:8545"}

	base, rollup := cfg.Endpoints("two")
	if base.RPCURL != "http://l1:8545" || rollup.RPCURL != "http://l2:8545" {
		t.Errorf("layer two endpoints = %s, %s", base.RPCURL, rollup.RPCURL)
	}

	base, rollup = cfg.Endpoints("three")
	if base.RPCURL != "http://l2:8545" || rollup.RPCURL != "http://l3:8545" {
		t.Errorf("layer three endpoints = %s, %s", base.RPCURL, rollup.RPCURL)
	}
}

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
chains:
  l1:
    rpc_url: http://l1:8545
    explorer_url: https://l1.explorer
  l2:
    rpc_url: http://l2:8545
layers:
  two:
    taiko_l1_address: "0x0000000000000000000000000000000000000001"
    event_indexer_url: http://indexer
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.FeeTokenSymbol != "TKO" {
		t.Errorf("fee token = %q, want TKO", cfg.FeeTokenSymbol)
	}
	if cfg.Dashboard.DefaultLayer != "two" {
		t.Errorf("default layer = %q", cfg.Dashboard.DefaultLayer)
	}
	if cfg.Chains.L1.ExplorerURL != "https://l1.explorer" {
		t.Errorf("explorer = %q", cfg.Chains.L1.ExplorerURL)
	}
	if cfg.Layers.Two.EventIndexerURL != "http://indexer" {
		t.Errorf("indexer = %q", cfg.Layers.Two.EventIndexerURL)
	}
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("VITE_L1_RPC_URL", "http://legacy-l1:8545")
	t.Setenv("VITE_L2_RPC_URL", "http://legacy-l2:8545")
	t.Setenv("VITE_L2_TAIKO_L1_ADDRESS", "0x0000000000000000000000000000000000000002")
	t.Setenv("VITE_FEE_TOKEN_SYMBOL", "TTKO")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: bridge-status-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chains.L1.RPCURL != "http://legacy-l1:8545" {
		t.Errorf("l1 rpc = %q", cfg.Chains.L1.RPCURL)
	}
	if cfg.Layers.Two.TaikoL1Address != "0x0000000000000000000000000000000000000002" {
		t.Errorf("taiko l1 = %q", cfg.Layers.Two.TaikoL1Address)
	}
	if cfg.FeeTokenSymbol != "TTKO" {
		t.Errorf("fee token = %q", cfg.FeeTokenSymbol)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: bridge-status-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !apperror.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
