// Package config provides application configuration management using Viper.
// It supports loading from environment variables, config files, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Automation   AutomationConfig
	Consultation ConsultationConfig
	Log          LogConfig
	RateLimit    RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string
	Port        int
	Environment string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	Name                  string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// ConnectionString returns a PostgreSQL connection string.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AutomationConfig holds email automation settings.
type AutomationConfig struct {
	// Enabled turns the whole follow-up engine on or off. When false,
	// sequence initialization fails fast without touching storage.
	Enabled bool

	// Storage selects the sequence store: "postgres" or "memory".
	Storage string

	// Transport selects the mail transport: "log" or "recorder".
	// The recorder keeps messages in memory for the debug surface.
	Transport string

	// Dispatcher tuning
	PollInterval    time.Duration
	BatchSize       int
	WorkerCount     int
	StuckSendWindow time.Duration
}

// ConsultationConfig holds consultation booking settings.
type ConsultationConfig struct {
	Enabled     bool
	SettleDelay time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables and config files.
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	v := viper.New()

	// Set config file options
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stageside")

	// Enable environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	setDefaults(v)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFoundErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Build config struct
	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("server.host"),
			Port:        v.GetInt("server.port"),
			Environment: v.GetString("server.env"),
		},
		Database: DatabaseConfig{
			Host:                  v.GetString("database.host"),
			Port:                  v.GetInt("database.port"),
			User:                  v.GetString("database.user"),
			Password:              v.GetString("database.password"),
			Name:                  v.GetString("database.name"),
			SSLMode:               v.GetString("database.sslmode"),
			MaxConnections:        v.GetInt("database.max_connections"),
			MaxIdleConnections:    v.GetInt("database.max_idle_connections"),
			ConnectionMaxLifetime: v.GetDuration("database.connection_max_lifetime"),
		},
		Automation: AutomationConfig{
			Enabled:         v.GetBool("automation.enabled"),
			Storage:         v.GetString("automation.storage"),
			Transport:       v.GetString("automation.transport"),
			PollInterval:    v.GetDuration("automation.poll_interval"),
			BatchSize:       v.GetInt("automation.batch_size"),
			WorkerCount:     v.GetInt("automation.worker_count"),
			StuckSendWindow: v.GetDuration("automation.stuck_send_window"),
		},
		Consultation: ConsultationConfig{
			Enabled:     v.GetBool("consultation.enabled"),
			SettleDelay: v.GetDuration("consultation.settle_delay"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "stageside")
	v.SetDefault("database.name", "stageside")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_connections", 5)
	v.SetDefault("database.connection_max_lifetime", "5m")

	// Automation defaults
	v.SetDefault("automation.enabled", true)
	v.SetDefault("automation.storage", "postgres")
	v.SetDefault("automation.transport", "log")
	v.SetDefault("automation.poll_interval", "15s")
	v.SetDefault("automation.batch_size", 25)
	v.SetDefault("automation.worker_count", 3)
	v.SetDefault("automation.stuck_send_window", "5m")

	// Consultation defaults
	v.SetDefault("consultation.enabled", true)
	v.SetDefault("consultation.settle_delay", "2s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Rate limit defaults
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")
}

// Validate checks that all required configuration values are present.
func (c *Config) Validate() error {
	var missing []string

	if c.Automation.Storage == "postgres" && c.Database.Password == "" {
		missing = append(missing, "DATABASE_PASSWORD")
	}

	switch c.Automation.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid automation.storage %q (expected postgres or memory)", c.Automation.Storage)
	}

	switch c.Automation.Transport {
	case "log", "recorder":
	default:
		return fmt.Errorf("invalid automation.transport %q (expected log or recorder)", c.Automation.Transport)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
