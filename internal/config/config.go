// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken  string `mapstructure:"telegram_token"`
	OwnerID        int64  `mapstructure:"owner_id"`
	APIKey         string `mapstructure:"api_key"`
	SecretKey      string `mapstructure:"secret_key"`
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	LogLevel       string `mapstructure:"log_level"`
	LogFile        string `mapstructure:"log_file"`
}

const (
	DefaultBaseURL        = "https://indodax.com"
	DefaultRequestTimeout = 30
	DefaultLogLevel       = "info"
	DefaultLogFile        = "logs/bot.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"base_url":        DefaultBaseURL,
		"request_timeout": DefaultRequestTimeout,
		"log_level":       DefaultLogLevel,
		"log_file":        DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// The config file is optional: everything can come from the
	// environment.
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.TelegramToken == "" {
		return errors.New("missing telegram_token in configuration")
	}
	if cfg.OwnerID == 0 {
		return errors.New("missing owner_id in configuration")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return errors.New("missing indodax api credentials in configuration")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("invalid request_timeout")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()

	if token := v.GetString("BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if owner := v.GetInt64("OWNER_ID"); owner != 0 {
		cfg.OwnerID = owner
	}
	if key := v.GetString("INDODAX_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if secret := v.GetString("INDODAX_SECRET_KEY"); secret != "" {
		cfg.SecretKey = secret
	}
	if level := v.GetString("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}
