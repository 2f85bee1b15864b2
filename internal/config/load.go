package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional YAML file; absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// SAMSARA_SERVER_PORT overrides server.port, and so on.
	v.SetEnvPrefix("SAMSARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	// Registering the keys lets AutomaticEnv bind them during Unmarshal
	// even when no config file supplies them.
	v.SetDefault("database.url", "")
	v.SetDefault("governance.url", "")
	v.SetDefault("lifecycle.rebirth_policy", string(RebirthResetInPlace))
	v.SetDefault("governance.timeout_seconds", 10)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.stuck_task_age_minutes", 30)
}
