// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	Broker    BrokerConfig    `yaml:"broker"`
	Sources   SourcesConfig   `yaml:"sources"`
	Trading   TradingConfig   `yaml:"trading"`
	Risk      RiskConfig      `yaml:"risk"`
	System    SystemConfig    `yaml:"system"`
	Timing    TimingConfig    `yaml:"timing"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// BrokerConfig contains brokerage API settings
type BrokerConfig struct {
	APIKey         Secret `yaml:"api_key"`
	APISecret      Secret `yaml:"api_secret"`
	TradingBaseURL string `yaml:"trading_base_url"` // default paper endpoint
	DataBaseURL    string `yaml:"data_base_url"`
	RatePerMinute  int    `yaml:"rate_per_minute"` // API request budget
}

// SourcesConfig contains sentiment source settings
type SourcesConfig struct {
	ApeWisdomEnabled  bool   `yaml:"apewisdom_enabled"`
	ApeWisdomURL      string `yaml:"apewisdom_url"`
	StocktwitsEnabled bool   `yaml:"stocktwits_enabled"`
	StocktwitsURL     string `yaml:"stocktwits_url"`
	ListLimit         int    `yaml:"list_limit"` // ranks 1..N per source, absent = N+1
}

// TradingConfig contains entry and portfolio parameters
type TradingConfig struct {
	BasePositionPct  float64 `yaml:"base_position_pct"`  // 0.08 = 8% of equity per position
	MaxTotalExposure float64 `yaml:"max_total_exposure"` // 1.6 = 160% aggregate
	MinEntryScore    float64 `yaml:"min_entry_score"`    // reject candidates below this
	TopCandidates    int     `yaml:"top_candidates"`     // entries considered per cycle
	MaxRotations     int     `yaml:"max_rotations"`      // worst positions closed to free capital
	LookbackDays     int     `yaml:"lookback_days"`      // bar history for indicators
	AnalysisWorkers  int     `yaml:"analysis_workers"`   // candidate analysis pool size
	EntryTimePath    string  `yaml:"entry_time_path"`    // persisted symbol,unix_timestamp map
	JournalPath      string  `yaml:"journal_path"`       // sqlite decision journal, empty = disabled
}

// RiskConfig contains exit-rule thresholds. Percent values are in percent
// units (e.g. -10 means -10%).
type RiskConfig struct {
	GraceWindowMinutes   int     `yaml:"grace_window_minutes"`
	HardStopPct          float64 `yaml:"hard_stop_pct"`
	ProfitLockTriggerPct float64 `yaml:"profit_lock_trigger_pct"`
	ProfitLockDrawdown   float64 `yaml:"profit_lock_drawdown_pct"`
	TightTrailingPct     float64 `yaml:"tight_trailing_pct"`
	TightTriggerPct      float64 `yaml:"tight_trigger_pct"`
	LooseTrailingPct     float64 `yaml:"loose_trailing_pct"`
	MomentumReversalPct  float64 `yaml:"momentum_reversal_pct"`
	MomentumProfitPct    float64 `yaml:"momentum_profit_pct"`
	WeakMomentumPct      float64 `yaml:"weak_momentum_pct"`
	AddLossThresholdPct  float64 `yaml:"add_loss_threshold_pct"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel string `yaml:"log_level"`
}

// TimingConfig contains timing-related settings
type TimingConfig struct {
	CycleIntervalSeconds   int `yaml:"cycle_interval_seconds"`
	ErrorCooldownSeconds   int `yaml:"error_cooldown_seconds"`
	MarketOpenGuardMinutes int `yaml:"market_open_guard_minutes"`
	SessionLengthMinutes   int `yaml:"session_length_minutes"` // regular session, for open-guard anchoring
	HTTPTimeoutSeconds     int `yaml:"http_timeout_seconds"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	EnableMetrics bool   `yaml:"enable_metrics"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// AlertsConfig contains trade notification settings. All channels are
// optional; unset channels are silently skipped.
type AlertsConfig struct {
	SlackWebhookURL  Secret `yaml:"slack_webhook_url"`
	TelegramBotToken Secret `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	config := Default()
	if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns a configuration pre-filled with the documented defaults
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			TradingBaseURL: "https://paper-api.alpaca.markets",
			DataBaseURL:    "https://data.alpaca.markets",
			RatePerMinute:  200,
		},
		Sources: SourcesConfig{
			ApeWisdomEnabled:  true,
			ApeWisdomURL:      "https://apewisdom.io",
			StocktwitsEnabled: true,
			StocktwitsURL:     "https://api.stocktwits.com",
			ListLimit:         20,
		},
		Trading: TradingConfig{
			BasePositionPct:  0.08,
			MaxTotalExposure: 1.6,
			MinEntryScore:    0.4,
			TopCandidates:    10,
			MaxRotations:     3,
			LookbackDays:     100,
			AnalysisWorkers:  4,
			EntryTimePath:    "entry_times.txt",
			JournalPath:      "decisions.db",
		},
		Risk: RiskConfig{
			GraceWindowMinutes:   30,
			HardStopPct:          -10,
			ProfitLockTriggerPct: 7.5,
			ProfitLockDrawdown:   -5,
			TightTrailingPct:     5,
			TightTriggerPct:      10,
			LooseTrailingPct:     7.5,
			MomentumReversalPct:  -5,
			MomentumProfitPct:    5,
			WeakMomentumPct:      -3,
			AddLossThresholdPct:  -2,
		},
		System: SystemConfig{
			LogLevel: "INFO",
		},
		Timing: TimingConfig{
			CycleIntervalSeconds:   300,
			ErrorCooldownSeconds:   60,
			MarketOpenGuardMinutes: 30,
			SessionLengthMinutes:   390,
			HTTPTimeoutSeconds:     15,
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: false,
			MetricsAddr:   ":9464",
		},
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateBroker(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateSources(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateTrading(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateRisk(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateSystem(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateTiming(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

func (c *Config) validateBroker() error {
	if c.Broker.APIKey == "" {
		return ValidationError{Field: "broker.api_key", Value: "", Message: "is required"}
	}
	if c.Broker.APISecret == "" {
		return ValidationError{Field: "broker.api_secret", Value: "", Message: "is required"}
	}
	if c.Broker.TradingBaseURL == "" {
		return ValidationError{Field: "broker.trading_base_url", Value: "", Message: "is required"}
	}
	if c.Broker.RatePerMinute < 1 {
		return ValidationError{Field: "broker.rate_per_minute", Value: c.Broker.RatePerMinute, Message: "must be at least 1"}
	}
	return nil
}

func (c *Config) validateSources() error {
	if !c.Sources.ApeWisdomEnabled && !c.Sources.StocktwitsEnabled {
		return ValidationError{Field: "sources", Value: nil, Message: "at least one sentiment source must be enabled"}
	}
	if c.Sources.ListLimit < 1 || c.Sources.ListLimit > 100 {
		return ValidationError{Field: "sources.list_limit", Value: c.Sources.ListLimit, Message: "must be between 1 and 100"}
	}
	return nil
}

func (c *Config) validateTrading() error {
	if c.Trading.BasePositionPct <= 0 || c.Trading.BasePositionPct > 1 {
		return ValidationError{Field: "trading.base_position_pct", Value: c.Trading.BasePositionPct, Message: "must be in (0, 1]"}
	}
	if c.Trading.MaxTotalExposure <= 0 || c.Trading.MaxTotalExposure > 4 {
		return ValidationError{Field: "trading.max_total_exposure", Value: c.Trading.MaxTotalExposure, Message: "must be in (0, 4]"}
	}
	if c.Trading.TopCandidates < 1 || c.Trading.TopCandidates > 50 {
		return ValidationError{Field: "trading.top_candidates", Value: c.Trading.TopCandidates, Message: "must be between 1 and 50"}
	}
	if c.Trading.MaxRotations < 0 || c.Trading.MaxRotations > 10 {
		return ValidationError{Field: "trading.max_rotations", Value: c.Trading.MaxRotations, Message: "must be between 0 and 10"}
	}
	if c.Trading.LookbackDays < 60 {
		return ValidationError{Field: "trading.lookback_days", Value: c.Trading.LookbackDays, Message: "must be at least 60 (long moving average needs history)"}
	}
	if c.Trading.AnalysisWorkers < 1 || c.Trading.AnalysisWorkers > 32 {
		return ValidationError{Field: "trading.analysis_workers", Value: c.Trading.AnalysisWorkers, Message: "must be between 1 and 32"}
	}
	if c.Trading.EntryTimePath == "" {
		return ValidationError{Field: "trading.entry_time_path", Value: "", Message: "is required"}
	}
	return nil
}

func (c *Config) validateRisk() error {
	if c.Risk.GraceWindowMinutes < 0 {
		return ValidationError{Field: "risk.grace_window_minutes", Value: c.Risk.GraceWindowMinutes, Message: "must not be negative"}
	}
	if c.Risk.HardStopPct >= 0 {
		return ValidationError{Field: "risk.hard_stop_pct", Value: c.Risk.HardStopPct, Message: "must be negative"}
	}
	if c.Risk.TightTrailingPct <= 0 || c.Risk.LooseTrailingPct <= 0 {
		return ValidationError{Field: "risk.trailing", Value: nil, Message: "trailing stop percents must be positive"}
	}
	if c.Risk.TightTrailingPct > c.Risk.LooseTrailingPct {
		return ValidationError{Field: "risk.tight_trailing_pct", Value: c.Risk.TightTrailingPct, Message: "tight trailing stop must not be looser than the loose one"}
	}
	return nil
}

func (c *Config) validateSystem() error {
	switch strings.ToUpper(c.System.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR", "FATAL":
		return nil
	}
	return ValidationError{Field: "system.log_level", Value: c.System.LogLevel, Message: "must be one of DEBUG INFO WARN ERROR FATAL"}
}

func (c *Config) validateTiming() error {
	if c.Timing.CycleIntervalSeconds < 10 || c.Timing.CycleIntervalSeconds > 3600 {
		return ValidationError{Field: "timing.cycle_interval_seconds", Value: c.Timing.CycleIntervalSeconds, Message: "must be between 10 and 3600"}
	}
	if c.Timing.ErrorCooldownSeconds < 1 || c.Timing.ErrorCooldownSeconds > 3600 {
		return ValidationError{Field: "timing.error_cooldown_seconds", Value: c.Timing.ErrorCooldownSeconds, Message: "must be between 1 and 3600"}
	}
	if c.Timing.HTTPTimeoutSeconds < 1 || c.Timing.HTTPTimeoutSeconds > 120 {
		return ValidationError{Field: "timing.http_timeout_seconds", Value: c.Timing.HTTPTimeoutSeconds, Message: "must be between 1 and 120"}
	}
	return nil
}

// CycleInterval returns the cycle interval as a duration
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Timing.CycleIntervalSeconds) * time.Second
}

// ErrorCooldown returns the error cooldown as a duration
func (c *Config) ErrorCooldown() time.Duration {
	return time.Duration(c.Timing.ErrorCooldownSeconds) * time.Second
}

// envVarPattern matches ${VAR} and ${VAR:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandEnvVars expands ${VAR} and ${VAR:-default} references in the raw YAML
func expandEnvVars(data string) string {
	return envVarPattern.ReplaceAllStringFunc(data, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, def := groups[1], groups[3]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return def
	})
}
