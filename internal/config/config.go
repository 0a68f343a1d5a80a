package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application runtime configuration.
type Config struct {
	Env                  string        `mapstructure:"APP_ENV"`
	HTTPPort             string        `mapstructure:"HTTP_PORT"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL       time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL      time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	ReadTimeout          time.Duration `mapstructure:"HTTP_READ_TIMEOUT"`
	WriteTimeout         time.Duration `mapstructure:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout          time.Duration `mapstructure:"HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout      time.Duration `mapstructure:"HTTP_SHUTDOWN_TIMEOUT"`
	RateLimitPerMinute   int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	Timezone             string        `mapstructure:"TIMEZONE"`
	TenantID             string        `mapstructure:"TENANT_ID"`
	CentralPaymentURL    string        `mapstructure:"CENTRAL_PAYMENT_SERVICE_URL"`
	CentralPaymentSecret string        `mapstructure:"CENTRAL_PAYMENT_SERVICE_SECRET"`
	WebhookSecret        string        `mapstructure:"WEBHOOK_SECRET_KEY"`
	ClickTenantsFile     string        `mapstructure:"CLICK_TENANTS_FILE"`
	ClickForwardTimeout  time.Duration `mapstructure:"CLICK_FORWARD_TIMEOUT"`
	LeaseExpirySchedule  string        `mapstructure:"LEASE_EXPIRY_SCHEDULE"`
	DebtWorkers          int           `mapstructure:"DEBT_WORKERS"`

	Location     *time.Location `mapstructure:"-"`
	ClickTenants ClickTenants   `mapstructure:"-"`
}

var keys = []string{
	"APP_ENV", "HTTP_PORT", "DATABASE_URL", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
	"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT",
	"RATE_LIMIT_PER_MINUTE", "TIMEZONE", "TENANT_ID", "CENTRAL_PAYMENT_SERVICE_URL",
	"CENTRAL_PAYMENT_SERVICE_SECRET", "WEBHOOK_SECRET_KEY", "CLICK_TENANTS_FILE",
	"CLICK_FORWARD_TIMEOUT", "LEASE_EXPIRY_SCHEDULE", "DEBT_WORKERS",
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("ACCESS_TOKEN_TTL", 24*time.Hour)
	v.SetDefault("REFRESH_TOKEN_TTL", 30*24*time.Hour)
	v.SetDefault("HTTP_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("HTTP_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 300)
	v.SetDefault("TIMEZONE", "Asia/Tashkent")
	v.SetDefault("CLICK_FORWARD_TIMEOUT", 15*time.Second)
	v.SetDefault("LEASE_EXPIRY_SCHEDULE", "5 0 * * *") // 00:05 every day
	v.SetDefault("DEBT_WORKERS", 8)
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	if loc == time.Local {
		return cfg, fmt.Errorf("TIMEZONE must be an IANA name such as Asia/Tashkent, got %q", cfg.Timezone)
	}
	cfg.Location = loc

	if strings.TrimSpace(cfg.ClickTenantsFile) != "" {
		tenants, err := LoadClickTenants(cfg.ClickTenantsFile)
		if err != nil {
			return cfg, err
		}
		cfg.ClickTenants = tenants
	}
	return cfg, nil
}
