// Package config holds the process configuration of the schoolmesh server
// and CLI. Values are resolved by viper from flags, the environment and
// defaults, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Providers accepted by Config.Provider.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the complete process configuration.
type Config struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ServiceName     string        `mapstructure:"service_name" validate:"required"`
	Provider        string        `mapstructure:"provider" validate:"oneof=mock openai anthropic"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key" validate:"required_unless=Provider mock"`
	BaseURL         string        `mapstructure:"base_url" validate:"omitempty,url"`
	DataFile        string        `mapstructure:"data_file"`
	Streaming       bool          `mapstructure:"streaming"`
	StickyRouting   bool          `mapstructure:"sticky_routing"`
	MaxTurns        int           `mapstructure:"max_turns" validate:"min=0"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=json console"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:            3000,
		ServiceName:     "schoolmesh",
		Provider:        ProviderMock,
		Streaming:       true,
		StickyRouting:   true,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
	}
}

// envNames maps configuration keys to the environment variables they are
// read from.
var envNames = map[string]string{
	"port":             "PORT",
	"service_name":     "SERVICE_NAME",
	"provider":         "MODEL_PROVIDER",
	"model":            "MODEL",
	"api_key":          "API_KEY",
	"base_url":         "MODEL_BASE_URL",
	"data_file":        "DATA_FILE",
	"streaming":        "STREAMING",
	"sticky_routing":   "STICKY_ROUTING",
	"max_turns":        "MAX_CONCURRENT_TURNS",
	"log_level":        "LOG_LEVEL",
	"log_format":       "LOG_FORMAT",
	"shutdown_timeout": "SHUTDOWN_TIMEOUT",
}

// providerKeyEnv names the provider specific API key variables, used when
// no explicit API key is set.
var providerKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// EnvNames returns every environment variable the configuration reads.
func EnvNames() []string {
	out := make([]string, 0, len(envNames)+len(providerKeyEnv))
	for _, name := range envNames {
		out = append(out, name)
	}
	for _, name := range providerKeyEnv {
		out = append(out, name)
	}
	return out
}

// NewViper returns a viper instance with defaults and environment bindings
// registered. Callers bind flags onto it with BindPFlag.
func NewViper() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("service_name", d.ServiceName)
	v.SetDefault("provider", d.Provider)
	v.SetDefault("streaming", d.Streaming)
	v.SetDefault("sticky_routing", d.StickyRouting)
	v.SetDefault("max_turns", d.MaxTurns)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)

	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}
	for provider, env := range providerKeyEnv {
		_ = v.BindEnv(provider+"_api_key", env)
	}
	return v
}

// Load resolves a Config from v. Malformed numbers, booleans and durations
// are reported.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("invalid configuration values: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		if _, ok := providerKeyEnv[cfg.Provider]; ok {
			cfg.APIKey = strings.TrimSpace(v.GetString(cfg.Provider + "_api_key"))
		}
	}
	return cfg, nil
}

// FromEnv loads the configuration from the environment and defaults only.
func FromEnv() (Config, error) {
	return Load(NewViper())
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
