package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SPLITLEDGER_SERVER_PORT.
const EnvPrefix = "SPLITLEDGER"

// ConfigFileEnv names a config file (yaml, toml or json) to read before
// applying environment variables.
const ConfigFileEnv = EnvPrefix + "_CONFIG"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.static_path", "")
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/ledger.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_duration", "24h")
	v.SetDefault("auth.cookie_name", "session")
	v.SetDefault("auth.secure_cookie", false)
}

// Load configuration from defaults, an optional config file and environment
// variables. Environment variables take precedence over the config file.
// Returns a validated Config or an error.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.Server.LogLevel = strings.ToLower(cfg.Server.LogLevel)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
