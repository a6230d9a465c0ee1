// Package config loads server configuration from defaults, an optional
// config file and SPLITLEDGER_* environment variables.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// StaticPath is an optional directory of frontend files served at /.
	StaticPath string `mapstructure:"static_path"`

	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `mapstructure:"allowed_origin"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`

	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string `mapstructure:"dsn" validate:"required"`
}

// AuthConfig contains all authentication settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenDuration time.Duration `mapstructure:"token_duration" validate:"gt=0"`
	CookieName    string        `mapstructure:"cookie_name" validate:"required"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
}
