// Package config provides configuration management using the Singleton pattern.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "CHATGPT_UDF"
)

// Load loads the configuration from files and environment variables.
// Priority order (highest to lowest):
// 1. Environment variables (prefixed with CHATGPT_UDF_, dots become underscores)
// 2. config.yaml (explicit path, or ., ./configs, /etc/chatgpt-udf, $HOME/.chatgpt-udf)
// 3. Default values
func Load(configPath string) (*Configuration, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/chatgpt-udf")
		v.AddConfigPath("$HOME/.chatgpt-udf")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "[CONFIG] Config file not found, using defaults and environment variables\n")
		} else {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}
	cfg.store = NewStore(v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 0)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// UDF defaults mirror Setup's defaults
	v.SetDefault("udf.model", "gpt-3.5-turbo")
	v.SetDefault("udf.temperature", 0)
	v.SetDefault("udf.request_timeout_seconds", 60)
	v.SetDefault("udf.retry.attempts", 6)
	v.SetDefault("udf.retry.delay_seconds", 20)

	// Third-party defaults; registering the key lets env overrides resolve it
	v.SetDefault(SectionThirdParty+"."+KeyOpenAIKey, "")
	v.SetDefault("third_party.openai_base_url", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "")
}
