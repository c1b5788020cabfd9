package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	App       AppConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"quest_market"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"quest_market.db"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string `env:"SERVER_PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret      string `env:"JWT_SECRET"`
	InitialBalance string `env:"INITIAL_BALANCE" envDefault:"450"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// RateLimitConfig throttles OTP completion attempts per quest
type RateLimitConfig struct {
	CompletePerMinute int `env:"COMPLETE_RATE_PER_MINUTE" envDefault:"6"`
	CompleteBurst     int `env:"COMPLETE_RATE_BURST" envDefault:"3"`
}

// JobsConfig holds settings for the out-of-process reconciler
type JobsConfig struct {
	ReconcileSchedule    string `env:"RECONCILE_SCHEDULE" envDefault:"@every 15m"`
	ReconcileMetricsAddr string `env:"RECONCILE_METRICS_ADDR" envDefault:":9091"`
}

// Load loads the full server configuration from environment variables
func Load() (*Config, error) {
	config, err := Parse()
	if err != nil {
		return nil, err
	}

	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := config.InitialBalance(); err != nil {
		return nil, err
	}

	return config, nil
}

// Parse reads the environment without the server-only checks, for the
// migrate and reconcile tools which never issue tokens.
func Parse() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	return config, nil
}

// InitialBalance returns the starting balance granted to new users
func (c *Config) InitialBalance() (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(c.App.InitialBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid INITIAL_BALANCE %q: %w", c.App.InitialBalance, err)
	}
	if balance.IsNegative() {
		return decimal.Zero, fmt.Errorf("INITIAL_BALANCE must not be negative")
	}
	return balance, nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// ConfigureLogging applies LOG_LEVEL to the process-wide logrus logger
func (c *Config) ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level, err := log.ParseLevel(c.App.LogLevel)
	if err != nil {
		log.WithField("log_level", c.App.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
