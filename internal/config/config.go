// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tournament-ledger/internal/model"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig          `mapstructure:"app"`
	Database DatabaseConfig     `mapstructure:"database"`
	Redis    RedisConfig        `mapstructure:"redis"`
	Auth     AuthConfig         `mapstructure:"auth"`
	Ledger   LedgerConfig       `mapstructure:"ledger"`
	Admin    AdminConfig        `mapstructure:"admin"`
	Bot      BotConfig          `mapstructure:"bot"`
	Settings model.AppSettings `mapstructure:"settings"`
}

// AppConfig holds HTTP server configuration.
type AppConfig struct {
	Env             string        `mapstructure:"env"`
	Port            int           `mapstructure:"port"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds the session revocation store configuration.
// An empty Addr keeps revocations in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds session and password hashing configuration.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

// LedgerConfig holds concurrency limits for balance operations.
type LedgerConfig struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// AdminConfig holds the seeded admin account and the Telegram admins.
type AdminConfig struct {
	Username       string  `mapstructure:"username"`
	Email          string  `mapstructure:"email"`
	Password       string  `mapstructure:"password"`
	Phone          string  `mapstructure:"phone"`
	InitialBalance int64   `mapstructure:"initial_balance"`
	TelegramIDs    []int64 `mapstructure:"telegram_ids"`
}

// BotConfig holds Telegram admin console configuration.
type BotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// IsProduction reports whether the app runs in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// Load reads configuration from .env, config.yaml and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. DATABASE_HOST, AUTH_JWT_SECRET, BOT_TOKEN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Bot.Enabled && c.Bot.Token == "" {
		return errors.New("bot.token is required when the bot is enabled")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.trusted_proxies", []string{"127.0.0.1"})
	v.SetDefault("app.shutdown_timeout", "10s")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tourna")
	v.SetDefault("database.name", "tourna")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("ledger.lock_timeout", "5s")

	v.SetDefault("admin.username", "daddyji")
	v.SetDefault("admin.email", "admin@tournanp.com")
	v.SetDefault("admin.password", "daddyjii")
	v.SetDefault("admin.phone", "9800000000")
	v.SetDefault("admin.initial_balance", 999999)

	v.SetDefault("bot.enabled", false)

	defaults := model.DefaultSettings()
	v.SetDefault("settings.app_name", defaults.AppName)
	v.SetDefault("settings.support_email", defaults.SupportEmail)
	v.SetDefault("settings.admin_upi_id", "")
	v.SetDefault("settings.admin_qr_code_url", "")
	v.SetDefault("settings.app_logo_url", "")
	v.SetDefault("settings.banner_ads", []string{})
	v.SetDefault("settings.socials.facebook", "")
	v.SetDefault("settings.socials.youtube", "")
	v.SetDefault("settings.socials.tiktok", "")
	v.SetDefault("settings.socials.instagram", "")
}

// IsTelegramAdmin checks if a Telegram user ID is in the admin list.
func (c *Config) IsTelegramAdmin(telegramID int64) bool {
	return slices.Contains(c.Admin.TelegramIDs, telegramID)
}
