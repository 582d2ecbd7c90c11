// Package config provides configuration management using the Singleton pattern.
// It loads configuration from config.yaml and environment variables using Viper.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
)

// Configuration holds all application configuration values.
// The OpenAI key is deliberately absent: it is read through Store on every
// Forward call so it is never copied into long-lived structs.
type Configuration struct {
	// Server configuration for the HTTP host surface
	Server ServerConfig `json:"server" mapstructure:"server"`

	// UDF setup and retry configuration
	UDF UDFConfig `json:"udf" mapstructure:"udf"`

	// ThirdParty holds non-secret provider settings
	ThirdParty ThirdPartyConfig `json:"third_party" mapstructure:"third_party"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	store *Store
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeoutSeconds is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeoutSeconds bounds writing the response. Zero disables the limit,
	// which is the default because a batch may wait on several retry delays.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeoutSeconds is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// UDFConfig holds the values passed to Setup and the retry policy.
type UDFConfig struct {
	// Model is one of the supported chat-completion models.
	Model string `json:"model" mapstructure:"model"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// RequestTimeoutSeconds bounds a single remote attempt.
	RequestTimeoutSeconds int `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`

	// Retry is the per-row retry policy.
	Retry RetryConfig `json:"retry" mapstructure:"retry"`
}

// RetryConfig holds the fixed-delay retry policy.
type RetryConfig struct {
	// Attempts is the maximum number of remote calls per row.
	Attempts int `json:"attempts" mapstructure:"attempts"`

	// DelaySeconds is the fixed pause between attempts.
	DelaySeconds int `json:"delay_seconds" mapstructure:"delay_seconds"`
}

// ThirdPartyConfig holds provider endpoint settings.
type ThirdPartyConfig struct {
	// OpenAIBaseURL overrides the OpenAI API endpoint (for proxies and tests).
	OpenAIBaseURL string `json:"openai_base_url" mapstructure:"openai_base_url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stdout).
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfigWithPath returns the singleton Configuration instance, loading it
// from configPath on first call. Later calls ignore configPath.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = Load(configPath)
	})
	return configInstance, configErr
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Store returns the layered (section, key) store backing this configuration.
func (c *Configuration) Store() *Store {
	return c.store
}

// RetryDelay returns the configured delay between attempts.
func (c *Configuration) RetryDelay() time.Duration {
	return time.Duration(c.UDF.Retry.DelaySeconds) * time.Second
}

// RequestTimeout returns the configured per-attempt timeout.
func (c *Configuration) RequestTimeout() time.Duration {
	return time.Duration(c.UDF.RequestTimeoutSeconds) * time.Second
}

// Validate validates the configuration and returns an error if required fields are missing.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 || c.Server.ShutdownTimeoutSeconds < 0 {
		validationErrors = append(validationErrors, "server timeouts cannot be negative")
	}

	if err := domain.ValidateModel(c.UDF.Model); err != nil {
		validationErrors = append(validationErrors, (&InvalidValueError{
			Key:           "udf.model",
			Value:         c.UDF.Model,
			AllowedValues: domain.SupportedModelNames(),
		}).Error())
	}

	if c.UDF.Temperature < 0 || c.UDF.Temperature > 2 {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"udf.temperature %v is out of range [0, 2]", c.UDF.Temperature))
	}

	if c.UDF.Retry.Attempts < 1 {
		validationErrors = append(validationErrors, "udf.retry.attempts must be at least 1")
	}
	if c.UDF.Retry.DelaySeconds < 0 {
		validationErrors = append(validationErrors, "udf.retry.delay_seconds cannot be negative")
	}
	if c.UDF.RequestTimeoutSeconds < 0 {
		validationErrors = append(validationErrors, "udf.request_timeout_seconds cannot be negative")
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, (&InvalidValueError{
			Key:           "logging.level",
			Value:         c.Logging.Level,
			AllowedValues: []string{"debug", "info", "warn", "error"},
		}).Error())
	}

	if c.Logging.Format != "" && !isValidLogFormat(c.Logging.Format) {
		validationErrors = append(validationErrors, (&InvalidValueError{
			Key:           "logging.format",
			Value:         c.Logging.Format,
			AllowedValues: []string{"json", "text"},
		}).Error())
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLogFormat(format string) bool {
	switch strings.ToLower(format) {
	case "json", "text":
		return true
	default:
		return false
	}
}
