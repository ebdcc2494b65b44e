package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT" yaml:"port"`
	GinMode                          string `mapstructure:"GIN_MODE" yaml:"ginMode"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID" yaml:"firebaseProjectId"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS" yaml:"googleApplicationCredentials,omitempty"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64" yaml:"firebaseServiceAccountJsonBase64,omitempty"`
	ClientURL                        string `mapstructure:"CLIENT_URL" yaml:"clientUrl"`

	StripeSecretKey         string `mapstructure:"STRIPE_SECRET_KEY" yaml:"stripeSecretKey"`
	StripeWebhookSecret     string `mapstructure:"STRIPE_WEBHOOK_SECRET" yaml:"stripeWebhookSecret"`
	StripeBasicPriceID      string `mapstructure:"STRIPE_BASIC_PRICE_ID" yaml:"stripeBasicPriceId,omitempty"`
	StripeProPriceID        string `mapstructure:"STRIPE_PRO_PRICE_ID" yaml:"stripeProPriceId,omitempty"`
	StripeEnterprisePriceID string `mapstructure:"STRIPE_ENTERPRISE_PRICE_ID" yaml:"stripeEnterprisePriceId,omitempty"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR" yaml:"redisAddr,omitempty"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD" yaml:"redisPassword,omitempty"`
	RedisDB         int           `mapstructure:"REDIS_DB" yaml:"redisDb"`
	WebhookEventTTL time.Duration `mapstructure:"WEBHOOK_EVENT_TTL" yaml:"webhookEventTtl"`

	AMQPURL      string `mapstructure:"AMQP_URL" yaml:"amqpUrl,omitempty"`
	RenewalQueue string `mapstructure:"RENEWAL_QUEUE" yaml:"renewalQueue"`

	RenewalSchedule string        `mapstructure:"RENEWAL_SCHEDULE" yaml:"renewalSchedule"`
	RenewalWindow   time.Duration `mapstructure:"RENEWAL_WINDOW" yaml:"renewalWindow"`
}

var envKeys = []string{
	"PORT",
	"GIN_MODE",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"STRIPE_BASIC_PRICE_ID",
	"STRIPE_PRO_PRICE_ID",
	"STRIPE_ENTERPRISE_PRICE_ID",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"WEBHOOK_EVENT_TTL",
	"AMQP_URL",
	"RENEWAL_QUEUE",
	"RENEWAL_SCHEDULE",
	"RENEWAL_WINDOW",
}

// LoadConfig loads configuration from environment variables using Viper.
// When configFile is not empty it is read first and environment variables
// override its values.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WEBHOOK_EVENT_TTL", "72h")
	v.SetDefault("RENEWAL_QUEUE", "renewal_reminders")
	v.SetDefault("RENEWAL_SCHEDULE", "0 0 * * *")
	v.SetDefault("RENEWAL_WINDOW", "168h")

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.GoogleApplicationCredentials == "" && c.FirebaseServiceAccountJSONBase64 == "" {
		return errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if c.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.ClientURL == "" {
		return errors.New("CLIENT_URL is required")
	}
	if c.RenewalWindow <= 0 {
		return errors.New("RENEWAL_WINDOW must be positive")
	}
	if c.RenewalSchedule == "" {
		return errors.New("RENEWAL_SCHEDULE is required")
	}
	return nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// Redacted returns a copy with secrets masked.
func (c Config) Redacted() Config {
	for _, s := range []*string{
		&c.FirebaseServiceAccountJSONBase64,
		&c.StripeSecretKey,
		&c.StripeWebhookSecret,
		&c.RedisPassword,
		&c.AMQPURL,
	} {
		if *s != "" {
			*s = "********"
		}
	}
	return c
}

// YAML renders the configuration with secrets masked.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
