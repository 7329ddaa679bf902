package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Messaging MessagingConfig `mapstructure:"messaging"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens. Required outside the local env.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTLHours bounds both the token expiry claim and the server-side
	// session entry. Default 168 (7 days).
	TokenTTLHours int `mapstructure:"token_ttl_hours"`
	// SessionStore selects the session backend: "memory" or "database".
	SessionStore string `mapstructure:"session_store"`
}

type MessagingConfig struct {
	// Driver selects the audit event broker: "nats" or "kafka".
	Driver  string   `mapstructure:"driver"`
	URL     string   `mapstructure:"url"`
	Subject string   `mapstructure:"subject"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func Load() (*Config, error) {
	// Get environment from ENV, default to "local"
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/configs")   // Kubernetes mount
	viper.AddConfigPath("./configs")  // IDE from root
	viper.AddConfigPath("../configs") // IDE from cmd/

	// Config file is optional - ENV variables can carry everything
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("No config file found (will use ENV variables): %v\n", err)
	}

	// Environment variable overrides take precedence over the config file
	viper.AutomaticEnv()

	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Env = env

	if config.Auth.TokenTTLHours <= 0 {
		config.Auth.TokenTTLHours = 168
	}
	if config.Auth.SessionStore == "" {
		config.Auth.SessionStore = "memory"
	}

	// A signing secret baked into source is not acceptable outside local dev
	if config.Auth.JWTSecret == "" {
		if env != "local" {
			return nil, fmt.Errorf("auth.jwt_secret is required in env %q", env)
		}
		config.Auth.JWTSecret = "local-dev-secret"
	}

	return &config, nil
}
