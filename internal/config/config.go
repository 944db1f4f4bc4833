// Package config loads application configuration with viper.
//
// Configuration is environment-first: every setting has a default and can be
// overridden by an environment variable. An optional config.yaml in the
// working directory is read when present, but the server starts fine without
// one. The env names mirror what operators expect for this kind of service
// (OPENAI_API_KEY, JWT_SECRET_KEY, DATABASE_PATH, ...).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// LLMConfig configures the chat-completions client.
// Temperature is the provider's sampling randomness in [0,2].
type LLMConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type GitHubConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	LLM      LLMConfig      `mapstructure:"llm"`
	GitHub   GitHubConfig   `mapstructure:"github"`
}

// TokenTTL returns the configured JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpireHours) * time.Hour
}

// LLMTimeout returns the transport timeout for the LLM client.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml (if present) and the environment.
// Env vars win over file values, file values win over defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env + defaults carry the config.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.path", "data/optimizer.db")
	v.SetDefault("jwt.expire_hours", 1)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout_seconds", 120)
}

// bindEnv maps each key to an explicit env var name instead of relying on a
// prefix, so the service honours the conventional names its operators already
// set (OPENAI_API_KEY rather than OPTIMIZER_LLM_API_KEY).
func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.allowed_origins", "CORS_ALLOWED_ORIGINS")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET_KEY")
	_ = v.BindEnv("jwt.expire_hours", "JWT_EXPIRE_HOURS")
	_ = v.BindEnv("llm.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("llm.model", "OPENAI_MODEL")
	_ = v.BindEnv("llm.temperature", "OPENAI_TEMPERATURE")
	_ = v.BindEnv("llm.max_tokens", "OPENAI_MAX_TOKENS")
	_ = v.BindEnv("github.client_id", "GITHUB_CLIENT_ID")
	_ = v.BindEnv("github.client_secret", "GITHUB_CLIENT_SECRET")
	_ = v.BindEnv("github.callback_url", "GITHUB_CALLBACK_URL")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.JWT.ExpireHours <= 0 {
		return fmt.Errorf("config: jwt.expire_hours must be positive, got %d", c.JWT.ExpireHours)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config: llm.temperature must be in [0,2], got %g", c.LLM.Temperature)
	}
	return nil
}
