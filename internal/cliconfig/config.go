package cliconfig

import (
	"fmt"
	"math/bits"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
)

// Config holds CLI configuration for dropship.
type Config struct {
	Recipients string

	ChunkSize      int
	MaxDuration    time.Duration
	MinSubmitDelay time.Duration

	Amount   uint64
	Decimals int

	Mint          string
	SourceAccount string
	Keypair       string
	PrivateKey    string

	Endpoint      string
	Commitment    string
	RPCRate       float64
	SkipPreflight bool

	MaxInFlight    int
	ConfirmTimeout time.Duration
	WindowMaxAge   time.Duration

	Report   string
	RetryOut string
	Journal  string

	ReportURL     string
	ReportAuthKey string

	Dedupe              bool
	DeriveTokenAccounts bool

	LogLevel string
	LogJSON  bool
}

// MaxDecimals bounds the decimals option; 10^19 overflows uint64.
const MaxDecimals = 18

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      22,
		MaxDuration:    10 * time.Second,
		MinSubmitDelay: 100 * time.Millisecond,
		Amount:         1,
		Decimals:       8,
		Endpoint:       "devnet",
		Commitment:     "confirmed",
		MaxInFlight:    64,
		ConfirmTimeout: 60 * time.Second,
		WindowMaxAge:   60 * time.Second,
		LogLevel:       "info",
	}
}

// ValidateSource checks the options needed to load and chunk recipients.
func (c *Config) ValidateSource() error {
	c.Recipients = strings.TrimSpace(c.Recipients)
	if c.Recipients == "" {
		return fmt.Errorf("%w: recipients file is required", domain.ErrInvalidConfig)
	}
	if c.ChunkSize < 1 || c.ChunkSize > domain.MaxChunkSize {
		return fmt.Errorf("%w: chunk-size %d not in [1, %d]", domain.ErrInvalidChunkSize, c.ChunkSize, domain.MaxChunkSize)
	}
	return nil
}

// Validate checks the configuration of a full run.
// Signer presence is checked when the key is loaded.
func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("%w: max-duration must not be negative", domain.ErrInvalidConfig)
	}
	if c.MinSubmitDelay < 0 {
		return fmt.Errorf("%w: min-submit-delay must not be negative", domain.ErrInvalidConfig)
	}
	if c.Amount == 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidConfig)
	}
	if _, err := c.MinorUnits(); err != nil {
		return err
	}
	if c.Mint == "" && (c.SourceAccount == "" || c.DeriveTokenAccounts) {
		return fmt.Errorf("%w: mint is required unless source-account is set and token accounts are not derived", domain.ErrInvalidConfig)
	}
	for name, v := range map[string]string{"mint": c.Mint, "source-account": c.SourceAccount} {
		if v == "" {
			continue
		}
		if _, err := domain.ParseAddress(v); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, name, err)
		}
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: commitment %q must be processed, confirmed or finalized", domain.ErrInvalidConfig, c.Commitment)
	}
	if c.RPCRate < 0 {
		return fmt.Errorf("%w: rpc-rate must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("%w: max-in-flight must be at least 1", domain.ErrInvalidConfig)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("%w: confirm-timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.ReportURL != "" {
		u, err := url.Parse(c.ReportURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: report-url %q must be an http(s) URL", domain.ErrInvalidConfig, c.ReportURL)
		}
	}
	return nil
}

// MinorUnits returns Amount scaled by 10^Decimals.
func (c Config) MinorUnits() (uint64, error) {
	if c.Decimals < 0 || c.Decimals > MaxDecimals {
		return 0, fmt.Errorf("%w: decimals %d not in [0, %d]", domain.ErrInvalidConfig, c.Decimals, MaxDecimals)
	}
	scale := uint64(1)
	for i := 0; i < c.Decimals; i++ {
		scale *= 10
	}
	hi, lo := bits.Mul64(c.Amount, scale)
	if hi != 0 {
		return 0, fmt.Errorf("%w: amount %d with %d decimals overflows", domain.ErrInvalidConfig, c.Amount, c.Decimals)
	}
	return lo, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setUint64 sets a uint64 value from a pointer if not nil and flag not changed.
func (s *configSetter) setUint64(flag string, value *uint64, dst *uint64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloat sets a float64 value from a pointer if not nil and flag not changed.
func (s *configSetter) setFloat(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setUint64FromString parses a string to uint64 and sets the destination if valid.
func (s *configSetter) setUint64FromString(flag, value string, dst *uint64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	u, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = u
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
