// Package config loads and validates the harness configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete harness configuration.
type Config struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Broker    BrokerConfig    `json:"broker" yaml:"broker"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Report    ReportConfig    `json:"report" yaml:"report"`
	Monitor   MonitorConfig   `json:"monitor" yaml:"monitor"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

type BrokerConfig struct {
	Type      string  `json:"type" yaml:"type"` // "alpaca" or "paper"
	APIKey    string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret string  `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	BaseURL   string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Cash      float64 `json:"cash,omitempty" yaml:"cash,omitempty"` // paper starting cash
	Currency  string  `json:"currency" yaml:"currency"`
}

type JournalConfig struct {
	Type     string `json:"type" yaml:"type"` // "sqlite" or "json"
	DBPath   string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	JSONPath string `json:"json_path,omitempty" yaml:"json_path,omitempty"`
}

type RiskConfig struct {
	// FundLimit caps capital committed across all symbols; 0 = unlimited.
	FundLimit float64 `json:"fund_limit" yaml:"fund_limit"`
	// MaxPositionValue caps the cost basis per symbol; 0 = unlimited.
	MaxPositionValue float64 `json:"max_position_value" yaml:"max_position_value"`
}

type ExecutionConfig struct {
	FallbackToSimulated bool   `json:"fallback_to_simulated" yaml:"fallback_to_simulated"`
	MaxRetries          int    `json:"max_retries" yaml:"max_retries"`
	BaseDelay           string `json:"base_delay" yaml:"base_delay"` // e.g. "500ms"
}

// ParseBaseDelay converts the retry base delay to a duration.
func (e ExecutionConfig) ParseBaseDelay() (time.Duration, error) {
	if e.BaseDelay == "" {
		return 500 * time.Millisecond, nil
	}
	return time.ParseDuration(e.BaseDelay)
}

type ReportConfig struct {
	// IncludeSimulated folds simulated-fill profit into realized totals.
	IncludeSimulated bool `json:"include_simulated" yaml:"include_simulated"`
}

type StockConfig struct {
	Symbol   string  `json:"symbol" yaml:"symbol"`
	Quantity float64 `json:"quantity" yaml:"quantity"` // default order size
}

type MonitorConfig struct {
	Interval string        `json:"interval" yaml:"interval"` // e.g. "60s"
	Stocks   []StockConfig `json:"stocks" yaml:"stocks"`
}

// ParseInterval converts the monitor interval to a duration.
func (m MonitorConfig) ParseInterval() (time.Duration, error) {
	if m.Interval == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(m.Interval)
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // empty disables the endpoint
}

// Default returns the configuration used as the base before a file is
// applied on top.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Broker:  BrokerConfig{Type: "paper", Cash: 100_000, Currency: "USD"},
		Journal: JournalConfig{Type: "sqlite", DBPath: "./ledger.sqlite"},
		Execution: ExecutionConfig{
			FallbackToSimulated: true,
			MaxRetries:          3,
			BaseDelay:           "500ms",
		},
		Report:  ReportConfig{IncludeSimulated: true},
		Monitor: MonitorConfig{Interval: "60s"},
	}
}

// LoadFromFile loads configuration from a YAML (or JSON) file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions and missing fields.
func (c *Config) Validate() error {
	switch c.Broker.Type {
	case "alpaca":
		if c.Broker.APIKey == "" || c.Broker.APISecret == "" {
			return fmt.Errorf("broker.api_key and broker.api_secret required for alpaca")
		}
	case "paper":
		if c.Broker.Cash <= 0 {
			return fmt.Errorf("broker.cash must be positive for paper broker")
		}
	default:
		return fmt.Errorf("broker.type must be 'alpaca' or 'paper'")
	}
	if c.Broker.Currency == "" {
		return fmt.Errorf("broker.currency is required")
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "json":
		if c.Journal.JSONPath == "" {
			return fmt.Errorf("journal.json_path required for json journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'sqlite' or 'json'")
	}

	if c.Risk.FundLimit < 0 {
		return fmt.Errorf("risk.fund_limit must not be negative")
	}
	if c.Risk.MaxPositionValue < 0 {
		return fmt.Errorf("risk.max_position_value must not be negative")
	}

	if c.Execution.MaxRetries < 1 {
		return fmt.Errorf("execution.max_retries must be at least 1")
	}
	if _, err := c.Execution.ParseBaseDelay(); err != nil {
		return fmt.Errorf("execution.base_delay: %w", err)
	}

	if _, err := c.Monitor.ParseInterval(); err != nil {
		return fmt.Errorf("monitor.interval: %w", err)
	}
	for i, s := range c.Monitor.Stocks {
		if s.Symbol == "" {
			return fmt.Errorf("monitor.stocks[%d].symbol is required", i)
		}
		if s.Quantity <= 0 {
			return fmt.Errorf("monitor.stocks[%d].quantity must be positive", i)
		}
	}
	return nil
}
