package config

import (
	"errors"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	MailBridge MailBridgeConfig `mapstructure:"mailbridge"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type AppConfig struct {
	Name           string   `mapstructure:"name"`
	Environment    string   `mapstructure:"environment"`
	Port           string   `mapstructure:"port"`
	PublicBaseURL  string   `mapstructure:"public_base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AdminEmail     string   `mapstructure:"admin_email"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	DraftTTL time.Duration `mapstructure:"draft_ttl"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MailBridgeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PaymentConfig struct {
	Provider            string `mapstructure:"provider"` // stripe, hosted
	HostedBaseURL       string `mapstructure:"hosted_base_url"`
	HostedWebhookSecret string `mapstructure:"hosted_webhook_secret"`
	Stripe              struct {
		SecretKey     string `mapstructure:"secret_key"`
		WebhookSecret string `mapstructure:"webhook_secret"`
		SuccessURL    string `mapstructure:"success_url"`
		CancelURL     string `mapstructure:"cancel_url"`
	} `mapstructure:"stripe"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type RateLimitConfig struct {
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
	TrustProxy        bool `mapstructure:"trust_proxy"`
}

type WorkersConfig struct {
	DraftReminder struct {
		Interval  time.Duration `mapstructure:"interval"`
		IdleAfter time.Duration `mapstructure:"idle_after"`
		BatchSize int           `mapstructure:"batch_size"`
	} `mapstructure:"draft_reminder"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must have at least 32 characters in production")
	}
	switch c.Payment.Provider {
	case "stripe":
		if c.Payment.Stripe.SecretKey == "" {
			return errors.New("payment.stripe.secret_key is required for the stripe provider")
		}
	case "hosted":
		if c.Payment.HostedBaseURL == "" {
			return errors.New("payment.hosted_base_url is required for the hosted provider")
		}
	default:
		return errors.New("payment.provider must be stripe or hosted")
	}
	return nil
}
