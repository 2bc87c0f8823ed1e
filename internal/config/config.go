// Package config defines the configuration of the dashboard and loads it with
// viper from a YAML file, the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/iwvelando/finance-dashboard/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for finance-dashboard.
type Configuration struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server,omitempty"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging,omitempty"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output,omitempty"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard,omitempty"`
	Upload    UploadConfig    `mapstructure:"upload" yaml:"upload,omitempty"`
	Assistant AssistantConfig `mapstructure:"assistant" yaml:"assistant,omitempty"`
}

// ServerConfig holds the HTTP server options.
type ServerConfig struct {
	Address       string `mapstructure:"address" yaml:"address,omitempty"`
	MaxUploadSize string `mapstructure:"maxUploadSize" yaml:"maxUploadSize,omitempty"` // e.g. 256K, 10M

	// SessionIdleTimeout expires untouched upload sessions and conversations; 0 keeps them.
	SessionIdleTimeout time.Duration `mapstructure:"sessionIdleTimeout" yaml:"sessionIdleTimeout,omitempty"`

	uploadSizeBytes int64
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json, svg
}

// DashboardConfig holds the presentation options.
type DashboardConfig struct {
	Currency string `mapstructure:"currency" yaml:"currency,omitempty"` // ISO 4217 code
}

// UploadConfig holds the simulated upload delays.
type UploadConfig struct {
	ProgressInterval time.Duration `mapstructure:"progressInterval" yaml:"progressInterval,omitempty"`
	ProgressStep     int           `mapstructure:"progressStep" yaml:"progressStep,omitempty"`
	AnalysisDelay    time.Duration `mapstructure:"analysisDelay" yaml:"analysisDelay,omitempty"`
}

// AssistantConfig holds the assistant options.
type AssistantConfig struct {
	TypingDelay time.Duration `mapstructure:"typingDelay" yaml:"typingDelay,omitempty"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Configuration {
	return &Configuration{
		Server: ServerConfig{
			Address:            constants.DefaultServerAddress,
			MaxUploadSize:      strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10),
			SessionIdleTimeout: constants.DefaultSessionIdleTimeout,
			uploadSizeBytes:    constants.DefaultMaxUploadSizeBytes,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Output:  OutputConfig{Format: constants.OutputFormatPretty},
		Dashboard: DashboardConfig{
			Currency: constants.DefaultCurrency,
		},
		Upload: UploadConfig{
			ProgressInterval: constants.DefaultProgressInterval,
			ProgressStep:     constants.DefaultProgressStep,
			AnalysisDelay:    constants.DefaultAnalysisDelay,
		},
		Assistant: AssistantConfig{TypingDelay: constants.DefaultTypingDelay},
	}
}

// LoadConfiguration loads the YAML configuration at configPath, applying
// FDASH_* environment overrides (e.g. FDASH_SERVER_ADDRESS). A .env file in
// the working directory is loaded first when present. An empty path loads
// defaults and environment only.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := configuration.normalize(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.maxUploadSize", d.Server.MaxUploadSize)
	v.SetDefault("server.sessionIdleTimeout", d.Server.SessionIdleTimeout)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("dashboard.currency", d.Dashboard.Currency)
	v.SetDefault("upload.progressInterval", d.Upload.ProgressInterval)
	v.SetDefault("upload.progressStep", d.Upload.ProgressStep)
	v.SetDefault("upload.analysisDelay", d.Upload.AnalysisDelay)
	v.SetDefault("assistant.typingDelay", d.Assistant.TypingDelay)
}

func (c *Configuration) normalize() error {
	if err := c.Server.normalize(); err != nil {
		return err
	}

	c.Dashboard.Currency = strings.ToUpper(strings.TrimSpace(c.Dashboard.Currency))
	if c.Dashboard.Currency == "" {
		c.Dashboard.Currency = constants.DefaultCurrency
	}
	if _, err := format.Glyph(c.Dashboard.Currency); err != nil {
		return fmt.Errorf("invalid dashboard currency: %w", err)
	}

	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}

	if c.Upload.ProgressInterval <= 0 {
		c.Upload.ProgressInterval = constants.DefaultProgressInterval
	}
	if c.Upload.ProgressStep <= 0 || c.Upload.ProgressStep > constants.CompleteProgress {
		return fmt.Errorf("upload progress step must be within 1..%d, got %d",
			constants.CompleteProgress, c.Upload.ProgressStep)
	}
	if c.Upload.AnalysisDelay < 0 {
		return fmt.Errorf("upload analysis delay must not be negative, got %s", c.Upload.AnalysisDelay)
	}
	if c.Assistant.TypingDelay < 0 {
		return fmt.Errorf("assistant typing delay must not be negative, got %s", c.Assistant.TypingDelay)
	}
	return nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *ServerConfig) UploadSizeBytes() int64 {
	if c.uploadSizeBytes <= 0 {
		return constants.DefaultMaxUploadSizeBytes
	}
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *ServerConfig) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = strconv.FormatInt(size, 10)
	}
}

func (c *ServerConfig) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.SessionIdleTimeout < 0 {
		return fmt.Errorf("server session idle timeout must not be negative, got %s", c.SessionIdleTimeout)
	}

	sizeStr := strings.TrimSpace(c.MaxUploadSize)
	if sizeStr == "" {
		c.uploadSizeBytes = constants.DefaultMaxUploadSizeBytes
		c.MaxUploadSize = strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 || (n != 0 && result/multiplier != n) {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
