package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"
)

// FileConfig mirrors Config but uses strings for durations and pointers for
// values whose zero is meaningful.
type FileConfig struct {
	Recipients          string   `toml:"recipients" yaml:"recipients"`
	ChunkSize           *int     `toml:"chunk_size" yaml:"chunk_size"`
	MaxDuration         string   `toml:"max_duration" yaml:"max_duration"`
	MinSubmitDelay      string   `toml:"min_submit_delay" yaml:"min_submit_delay"`
	Amount              *uint64  `toml:"amount" yaml:"amount"`
	Decimals            *int     `toml:"decimals" yaml:"decimals"`
	Mint                string   `toml:"mint" yaml:"mint"`
	SourceAccount       string   `toml:"source_account" yaml:"source_account"`
	Keypair             string   `toml:"keypair" yaml:"keypair"`
	PrivateKey          string   `toml:"private_key" yaml:"private_key"`
	Endpoint            string   `toml:"endpoint" yaml:"endpoint"`
	Commitment          string   `toml:"commitment" yaml:"commitment"`
	RPCRate             *float64 `toml:"rpc_rate" yaml:"rpc_rate"`
	SkipPreflight       *bool    `toml:"skip_preflight" yaml:"skip_preflight"`
	MaxInFlight         *int     `toml:"max_in_flight" yaml:"max_in_flight"`
	ConfirmTimeout      string   `toml:"confirm_timeout" yaml:"confirm_timeout"`
	WindowMaxAge        string   `toml:"window_max_age" yaml:"window_max_age"`
	Report              string   `toml:"report" yaml:"report"`
	RetryOut            string   `toml:"retry_out" yaml:"retry_out"`
	Journal             string   `toml:"journal" yaml:"journal"`
	ReportURL           string   `toml:"report_url" yaml:"report_url"`
	ReportAuthKey       string   `toml:"report_auth_key" yaml:"report_auth_key"`
	Dedupe              *bool    `toml:"dedupe" yaml:"dedupe"`
	DeriveTokenAccounts *bool    `toml:"derive_token_accounts" yaml:"derive_token_accounts"`
	LogLevel            string   `toml:"log_level" yaml:"log_level"`
	LogJSON             *bool    `toml:"log_json" yaml:"log_json"`
}

// LoadFileConfig reads a config file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.dropship/config.toml if the user home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dropship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("recipients", fc.Recipients, &cfg.Recipients)
	s.setString("mint", fc.Mint, &cfg.Mint)
	s.setString("source-account", fc.SourceAccount, &cfg.SourceAccount)
	s.setString("keypair", fc.Keypair, &cfg.Keypair)
	s.setString("private-key", fc.PrivateKey, &cfg.PrivateKey)
	s.setString("endpoint", fc.Endpoint, &cfg.Endpoint)
	s.setString("commitment", fc.Commitment, &cfg.Commitment)
	s.setString("report", fc.Report, &cfg.Report)
	s.setString("retry-out", fc.RetryOut, &cfg.RetryOut)
	s.setString("journal", fc.Journal, &cfg.Journal)
	s.setString("report-url", fc.ReportURL, &cfg.ReportURL)
	s.setString("report-auth-key", fc.ReportAuthKey, &cfg.ReportAuthKey)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("max-duration", fc.MaxDuration, &cfg.MaxDuration); err != nil {
		return err
	}
	if err := s.setDuration("min-submit-delay", fc.MinSubmitDelay, &cfg.MinSubmitDelay); err != nil {
		return err
	}
	if err := s.setDuration("confirm-timeout", fc.ConfirmTimeout, &cfg.ConfirmTimeout); err != nil {
		return err
	}
	if err := s.setDuration("window-max-age", fc.WindowMaxAge, &cfg.WindowMaxAge); err != nil {
		return err
	}

	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)
	s.setInt("decimals", fc.Decimals, &cfg.Decimals)
	s.setInt("max-in-flight", fc.MaxInFlight, &cfg.MaxInFlight)
	s.setUint64("amount", fc.Amount, &cfg.Amount)
	s.setFloat("rpc-rate", fc.RPCRate, &cfg.RPCRate)

	s.setBool("skip-preflight", fc.SkipPreflight, &cfg.SkipPreflight)
	s.setBool("dedupe", fc.Dedupe, &cfg.Dedupe)
	s.setBool("derive-token-accounts", fc.DeriveTokenAccounts, &cfg.DeriveTokenAccounts)
	s.setBool("log-json", fc.LogJSON, &cfg.LogJSON)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
