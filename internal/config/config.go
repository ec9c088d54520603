package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when the environment does not set a value.
const (
	DefaultProvider       = "openai"
	DefaultModel          = "gpt-4.1"
	DefaultTimeoutSeconds = 60
	DefaultEnvFile        = ".env"
)

// PricingInfo holds cost details per token for a specific model.
type PricingInfo struct {
	InputPerToken  float64 `mapstructure:"input_per_token"`
	OutputPerToken float64 `mapstructure:"output_per_token"`
}

// Config is the process-wide, read-only configuration. It is loaded once and
// passed explicitly to the components that need it.
type Config struct {
	Provider         string `mapstructure:"provider"`
	OpenaiApiKey     string `mapstructure:"openai_api_key"`
	OpenaiBaseURL    string `mapstructure:"openai_base_url"`
	GeminiApiKey     string `mapstructure:"gemini_api_key"`
	Model            string `mapstructure:"model"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	SystemPromptFile string `mapstructure:"system_prompt_file"`
	LogLevel         string `mapstructure:"log_level"`

	// Pricing: map[model] = struct{input_per_token, output_per_token}
	Pricing map[string]PricingInfo `mapstructure:"pricing"`
}

// Timeout is the per-request budget for the model call.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.Provider == "gemini" {
		return c.GeminiApiKey
	}
	return c.OpenaiApiKey
}

// LoadConfig reads, in increasing precedence: built-in defaults, an optional
// config.yaml in the working directory, the optional env file (".env" when
// envFile is empty) and the process environment.
func LoadConfig(envFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("log_level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the config file doesn't exist; pricing is optional.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("error reading env file %s: %w", envFile, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("env file %s: %w", envFile, err)
	}

	// Environment variables win over both files. Keys are bound explicitly so
	// the plain names (OPENAI_API_KEY, MODEL, ...) work without a prefix.
	for key, env := range map[string]string{
		"provider":           "PROVIDER",
		"openai_api_key":     "OPENAI_API_KEY",
		"openai_base_url":    "OPENAI_BASE_URL",
		"gemini_api_key":     "GEMINI_API_KEY",
		"model":              "MODEL",
		"timeout_seconds":    "TIMEOUT_SECONDS",
		"system_prompt_file": "SYSTEM_PROMPT_FILE",
		"log_level":          "LOG_LEVEL",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.OpenaiApiKey = strings.TrimSpace(cfg.OpenaiApiKey)
	cfg.GeminiApiKey = strings.TrimSpace(cfg.GeminiApiKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	return &cfg, nil
}
