// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	RPCURL     string `mapstructure:"rpc_url"`
	PrivateKey string `mapstructure:"private_key"`
	Network    string `mapstructure:"network"`

	// JitoRegion picks the block-engine region for atomic bundles.
	JitoRegion string `mapstructure:"jito_region"`
	// TipFallbackSOL is used when the tip-quote fetch fails.
	TipFallbackSOL float64 `mapstructure:"tip_fallback_sol"`
	// TipFloorURL overrides the tip-quote endpoint (mainly for tests).
	TipFloorURL string `mapstructure:"tip_floor_url"`

	Retries           uint `mapstructure:"retries"`
	RetryIntervalMs   int  `mapstructure:"retry_interval_ms"`
	ConfirmTimeoutSec int  `mapstructure:"confirm_timeout_sec"`

	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

const (
	DefaultNetwork        = "mainnet"
	DefaultTipFallbackSOL = 0.001
	DefaultRetries        = 3
	DefaultRetryInterval  = 500
	DefaultConfirmTimeout = 60
	DefaultLogFile        = "launchpad.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"network":             DefaultNetwork,
		"tip_fallback_sol":    DefaultTipFallbackSOL,
		"retries":             DefaultRetries,
		"retry_interval_ms":   DefaultRetryInterval,
		"confirm_timeout_sec": DefaultConfirmTimeout,
		"log_file":            DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.PrivateKey == "" {
		return errors.New("missing private_key in configuration")
	}
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.TipFloorURL != "" {
		if err := validateURLWithCache(cfg.TipFloorURL, "http"); err != nil {
			return errors.New("invalid tip floor URL protocol")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.TipFallbackSOL < 0 {
		return errors.New("invalid tip_fallback_sol")
	}
	if cfg.RetryIntervalMs <= 0 {
		return errors.New("invalid retry_interval_ms")
	}
	if cfg.ConfirmTimeoutSec <= 0 {
		return errors.New("invalid confirm_timeout_sec")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The private key should not have to live in a file on disk.
	if envKey := v.GetString("PRIVATE_KEY"); envKey != "" {
		cfg.PrivateKey = envKey
	}
	if envRPC := v.GetString("RPC_URL"); envRPC != "" {
		cfg.RPCURL = envRPC
	}
	return nil
}
