package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	PoolAPIKey       string
	PoolBaseURL      string
	SolanaRPCURL     string
	WalletPrivateKey string
	SlippageBps      int
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".wave-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("pool_base_url", "https://api.wavepool.io")
	viper.SetDefault("solana_rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("slippage_bps", 50)

	// Read from environment variables
	viper.SetEnvPrefix("WAVE_SWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		PoolAPIKey:       viper.GetString("pool_api_key"),
		PoolBaseURL:      viper.GetString("pool_base_url"),
		SolanaRPCURL:     viper.GetString("solana_rpc_url"),
		WalletPrivateKey: viper.GetString("wallet_private_key"),
		SlippageBps:      viper.GetInt("slippage_bps"),
	}

	if cfg.PoolAPIKey == "" {
		return nil, fmt.Errorf("pool API key not found. Please set WAVE_SWAP_POOL_API_KEY environment variable or create a .wave-swap.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
