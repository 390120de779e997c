package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig is the process-wide configuration, loaded once in main and
// passed by reference to the components that need it.
type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Storage   StorageSettings   `mapstructure:"storage"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Cookie    CookieSettings    `mapstructure:"cookie"`
	Mail      MailSettings      `mapstructure:"mail"`
	Security  SecuritySettings  `mapstructure:"security"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Lockout   LockoutSettings   `mapstructure:"lockout"`
	OAuth     OAuthSettings     `mapstructure:"oauth"`
	Janitor   JanitorSettings   `mapstructure:"janitor"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// StorageSettings selects the blob store backend. The in-memory backend is a
// development fallback chosen by configuration, never by probing.
type StorageSettings struct {
	Backend string `mapstructure:"backend"` // memory | redis | postgres
	Prefix  string `mapstructure:"prefix"`
}

type PostgresSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN renders the pgx connection string.
func (p PostgresSettings) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	Secret      string        `mapstructure:"secret"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	RememberTTL time.Duration `mapstructure:"remember_ttl"`
}

type CookieSettings struct {
	Name   string `mapstructure:"name"`
	Domain string `mapstructure:"domain"`
}

// MailSettings configures the outbound email capability.
type MailSettings struct {
	Provider   string        `mapstructure:"provider"` // brevo | log
	APIKey     string        `mapstructure:"api_key"`
	SenderName string        `mapstructure:"sender_name"`
	SenderAddr string        `mapstructure:"sender_addr"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	Strict     bool          `mapstructure:"strict"`
}

type SecuritySettings struct {
	BcryptCost      int `mapstructure:"bcrypt_cost"`
	MinPasswordBits int `mapstructure:"min_password_strength"` // zxcvbn score 0-4; 0 disables
}

// RateLimitSettings holds the per-flow fixed-window thresholds.
type RateLimitSettings struct {
	SignupAttempts       int           `mapstructure:"signup_attempts"`
	SignupWindow         time.Duration `mapstructure:"signup_window"`
	VerifyAttempts       int           `mapstructure:"verify_attempts"`
	VerifyWindow         time.Duration `mapstructure:"verify_window"`
	ResetRequestAttempts int           `mapstructure:"reset_request_attempts"`
	ResetRequestWindow   time.Duration `mapstructure:"reset_request_window"`
	ResetRedeemAttempts  int           `mapstructure:"reset_redeem_attempts"`
	ResetRedeemWindow    time.Duration `mapstructure:"reset_redeem_window"`
}

type LockoutSettings struct {
	Threshold int           `mapstructure:"threshold"`
	Duration  time.Duration `mapstructure:"duration"`
}

type OAuthSettings struct {
	GitHub OAuthProviderSettings `mapstructure:"github"`
	Google OAuthProviderSettings `mapstructure:"google"`
}

type OAuthProviderSettings struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type JanitorSettings struct {
	Interval time.Duration `mapstructure:"interval"`
}

type TelemetrySettings struct {
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

// Load reads configuration from ACCOUNTS_-prefixed environment variables
// with sensible development defaults.
func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("ACCOUNTS")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.base_url",
		"storage.backend",
		"storage.prefix",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.session_ttl",
		"jwt.remember_ttl",
		"cookie.name",
		"cookie.domain",
		"mail.provider",
		"mail.api_key",
		"mail.sender_name",
		"mail.sender_addr",
		"mail.timeout",
		"mail.retries",
		"mail.retry_delay",
		"mail.strict",
		"security.bcrypt_cost",
		"security.min_password_strength",
		"rate_limit.signup_attempts",
		"rate_limit.signup_window",
		"rate_limit.verify_attempts",
		"rate_limit.verify_window",
		"rate_limit.reset_request_attempts",
		"rate_limit.reset_request_window",
		"rate_limit.reset_redeem_attempts",
		"rate_limit.reset_redeem_window",
		"lockout.threshold",
		"lockout.duration",
		"oauth.github.client_id",
		"oauth.github.client_secret",
		"oauth.google.client_id",
		"oauth.google.client_secret",
		"janitor.interval",
		"telemetry.metrics_namespace",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Production reports whether the service runs with production hardening
// (Secure cookies, JSON logs).
func (c *AppConfig) Production() bool {
	return c.App.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "urlsclickearn-accounts")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.base_url", "http://localhost:8080")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.prefix", "accounts")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "accounts")
	v.SetDefault("postgres.password", "accounts_password")
	v.SetDefault("postgres.database", "accounts")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.rate_limit_prefix", "accounts:rate-limit")

	v.SetDefault("kafka.topic_prefix", "accounts")

	v.SetDefault("jwt.secret", "dev-jwt-secret-change-in-production")
	v.SetDefault("jwt.session_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.remember_ttl", 30*24*time.Hour)

	v.SetDefault("cookie.name", "urlsclickearn_token")

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.sender_name", "Urlsclickearn")
	v.SetDefault("mail.sender_addr", "no-reply@urlsclickearn.xyz")
	v.SetDefault("mail.timeout", 5*time.Second)
	v.SetDefault("mail.retries", 3)
	v.SetDefault("mail.retry_delay", time.Second)
	v.SetDefault("mail.strict", false)

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.min_password_strength", 0)

	v.SetDefault("rate_limit.signup_attempts", 3)
	v.SetDefault("rate_limit.signup_window", 15*time.Minute)
	v.SetDefault("rate_limit.verify_attempts", 5)
	v.SetDefault("rate_limit.verify_window", time.Hour)
	v.SetDefault("rate_limit.reset_request_attempts", 3)
	v.SetDefault("rate_limit.reset_request_window", time.Hour)
	v.SetDefault("rate_limit.reset_redeem_attempts", 5)
	v.SetDefault("rate_limit.reset_redeem_window", time.Hour)

	v.SetDefault("lockout.threshold", 5)
	v.SetDefault("lockout.duration", 30*time.Minute)

	v.SetDefault("janitor.interval", time.Hour)

	v.SetDefault("telemetry.metrics_namespace", "accounts")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}
