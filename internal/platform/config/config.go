package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for a migration run.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Parent account credentials, read from the unprefixed TWILIO_* variables.
	AccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`

	ProviderAPIURL         string        `mapstructure:"PROVIDER_API_URL"`
	ProviderMessagingURL   string        `mapstructure:"PROVIDER_MESSAGING_URL"`
	ProviderTrustHubURL    string        `mapstructure:"PROVIDER_TRUSTHUB_URL"`
	ProviderNumbersURL     string        `mapstructure:"PROVIDER_NUMBERS_URL"`
	ProviderRequestTimeout time.Duration `mapstructure:"PROVIDER_REQUEST_TIMEOUT"`

	// Operator input.
	OnlyPending          bool   `mapstructure:"ONLY_PENDING"`
	MaxTollFreeNumbers   string `mapstructure:"MAX_TOLLFREE_NUMBERS"`
	ExclusionFile        string `mapstructure:"EXCLUSION_FILE"`
	MonthlyMessageVolume string `mapstructure:"MESSAGE_VOLUME"`
	OptInType            string `mapstructure:"OPT_IN_TYPE"`
	UseCaseCategory      string `mapstructure:"USE_CASE_CATEGORY"`
	OptInImageURL        string `mapstructure:"OPT_IN_IMAGE_URL"`

	TollFreeCountry         string `mapstructure:"TOLLFREE_COUNTRY"`
	ErrorWindowDays         int    `mapstructure:"ERROR_WINDOW_DAYS"`
	VerificationConcurrency int    `mapstructure:"VERIFICATION_CONCURRENCY"`

	// Optional operational surfaces; empty disables them.
	MetricsAddr     string `mapstructure:"METRICS_ADDR"`
	NATSUrl         string `mapstructure:"NATS_URL"`
	NATSSwapSubject string `mapstructure:"NATS_SWAP_SUBJECT"`
}

// New returns a viper instance with defaults, config paths and environment
// bindings set up. Callers may bind flags before calling Read.
func New(configPath, configName string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP") // APP_LOG_LEVEL, APP_MAX_TOLLFREE_NUMBERS etc.

	// Credentials keep the provider's conventional variable names.
	_ = v.BindEnv("TWILIO_ACCOUNT_SID", "TWILIO_ACCOUNT_SID", "APP_TWILIO_ACCOUNT_SID")
	_ = v.BindEnv("TWILIO_AUTH_TOKEN", "TWILIO_AUTH_TOKEN", "APP_TWILIO_AUTH_TOKEN")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("PROVIDER_API_URL", "https://api.twilio.com")
	v.SetDefault("PROVIDER_MESSAGING_URL", "https://messaging.twilio.com")
	v.SetDefault("PROVIDER_TRUSTHUB_URL", "https://trusthub.twilio.com")
	v.SetDefault("PROVIDER_NUMBERS_URL", "https://numbers.twilio.com")
	v.SetDefault("PROVIDER_REQUEST_TIMEOUT", 30*time.Second)

	v.SetDefault("ONLY_PENDING", false)
	v.SetDefault("MAX_TOLLFREE_NUMBERS", "")
	v.SetDefault("EXCLUSION_FILE", "")
	v.SetDefault("MESSAGE_VOLUME", "")
	v.SetDefault("OPT_IN_TYPE", "")
	v.SetDefault("USE_CASE_CATEGORY", "")
	v.SetDefault("OPT_IN_IMAGE_URL", "")

	v.SetDefault("TOLLFREE_COUNTRY", "US")
	v.SetDefault("ERROR_WINDOW_DAYS", 7)
	v.SetDefault("VERIFICATION_CONCURRENCY", 4)

	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SWAP_SUBJECT", "tollfree.migration.swapped")
	return v
}

// Read loads the optional config file into v and unmarshals the result.
func Read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Printf("Configuration file not found; using defaults, environment variables and flags.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
