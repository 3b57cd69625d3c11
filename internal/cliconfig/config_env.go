package cliconfig

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// firstEnv returns the first non-empty environment variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// ApplyEnvConfig applies configuration from environment variables (DROPSHIP_*).
// RPC_ENDPOINT, Solana_Cluster and privateKey are honored as fallbacks.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("recipients", os.Getenv("DROPSHIP_RECIPIENTS"), &cfg.Recipients)
	s.setString("mint", os.Getenv("DROPSHIP_MINT"), &cfg.Mint)
	s.setString("source-account", os.Getenv("DROPSHIP_SOURCE_ACCOUNT"), &cfg.SourceAccount)
	s.setString("keypair", os.Getenv("DROPSHIP_KEYPAIR"), &cfg.Keypair)
	s.setString("private-key", firstEnv("DROPSHIP_PRIVATE_KEY", "privateKey"), &cfg.PrivateKey)
	s.setString("endpoint", firstEnv("DROPSHIP_ENDPOINT", "RPC_ENDPOINT", "Solana_Cluster"), &cfg.Endpoint)
	s.setString("commitment", os.Getenv("DROPSHIP_COMMITMENT"), &cfg.Commitment)
	s.setString("report", os.Getenv("DROPSHIP_REPORT"), &cfg.Report)
	s.setString("retry-out", os.Getenv("DROPSHIP_RETRY_OUT"), &cfg.RetryOut)
	s.setString("journal", os.Getenv("DROPSHIP_JOURNAL"), &cfg.Journal)
	s.setString("report-url", os.Getenv("DROPSHIP_REPORT_URL"), &cfg.ReportURL)
	s.setString("report-auth-key", os.Getenv("DROPSHIP_REPORT_AUTH_KEY"), &cfg.ReportAuthKey)
	s.setString("log-level", os.Getenv("DROPSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("max-duration", os.Getenv("DROPSHIP_MAX_DURATION"), &cfg.MaxDuration); err != nil {
		return err
	}
	if err := s.setDuration("min-submit-delay", os.Getenv("DROPSHIP_MIN_SUBMIT_DELAY"), &cfg.MinSubmitDelay); err != nil {
		return err
	}
	if err := s.setDuration("confirm-timeout", os.Getenv("DROPSHIP_CONFIRM_TIMEOUT"), &cfg.ConfirmTimeout); err != nil {
		return err
	}
	if err := s.setDuration("window-max-age", os.Getenv("DROPSHIP_WINDOW_MAX_AGE"), &cfg.WindowMaxAge); err != nil {
		return err
	}

	if err := s.setIntFromString("chunk-size", os.Getenv("DROPSHIP_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}
	if err := s.setIntFromString("decimals", os.Getenv("DROPSHIP_DECIMALS"), &cfg.Decimals); err != nil {
		return err
	}
	if err := s.setIntFromString("max-in-flight", os.Getenv("DROPSHIP_MAX_IN_FLIGHT"), &cfg.MaxInFlight); err != nil {
		return err
	}
	if err := s.setUint64FromString("amount", os.Getenv("DROPSHIP_AMOUNT"), &cfg.Amount); err != nil {
		return err
	}
	if err := s.setFloatFromString("rpc-rate", os.Getenv("DROPSHIP_RPC_RATE"), &cfg.RPCRate); err != nil {
		return err
	}

	s.setBoolFromString("skip-preflight", os.Getenv("DROPSHIP_SKIP_PREFLIGHT"), &cfg.SkipPreflight)
	s.setBoolFromString("dedupe", os.Getenv("DROPSHIP_DEDUPE"), &cfg.Dedupe)
	s.setBoolFromString("derive-token-accounts", os.Getenv("DROPSHIP_DERIVE_TOKEN_ACCOUNTS"), &cfg.DeriveTokenAccounts)
	s.setBoolFromString("log-json", os.Getenv("DROPSHIP_LOG_JSON"), &cfg.LogJSON)

	return nil
}
