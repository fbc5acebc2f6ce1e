// Package config loads and validates facebank configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// DefaultVerifyInterval is how often a live session re-proves liveness.
const DefaultVerifyInterval = 15 * time.Second

const devSigningKey = "dev-secret-key-change-in-production"

// Config holds client and fake bank configuration.
type Config struct {
	// BankURL is the base URL of the remote banking service.
	BankURL string `mapstructure:"FACEBANK_BANK_URL"`
	// ListenAddr is where the local UI bridge listens (e.g. 127.0.0.1:8080).
	ListenAddr string `mapstructure:"FACEBANK_LISTEN_ADDR"`
	// VerifyInterval is the continuous verification period (e.g. "15s").
	VerifyInterval time.Duration `mapstructure:"FACEBANK_VERIFY_INTERVAL"`
	// RequestTimeout bounds each outbound bank request.
	RequestTimeout time.Duration `mapstructure:"FACEBANK_REQUEST_TIMEOUT"`
	// CapturePath is the frame file an external camera tool keeps refreshed.
	CapturePath string `mapstructure:"FACEBANK_CAPTURE_PATH"`
	LogLevel    string `mapstructure:"FACEBANK_LOG_LEVEL"`
	// TracingEnabled switches the client tracer from no-op to the global OpenTelemetry provider.
	TracingEnabled bool `mapstructure:"FACEBANK_TRACING_ENABLED"`
	// DeviceBinding rejects dashboard calls from a UI device other than the one that logged in.
	DeviceBinding bool `mapstructure:"FACEBANK_DEVICE_BINDING"`
	// BreakerFailures is how many consecutive dashboard read failures open the circuit.
	BreakerFailures int `mapstructure:"FACEBANK_BREAKER_FAILURES"`

	// Fake bank (development double of the remote service).
	FakeBankAddr       string `mapstructure:"FAKEBANK_ADDR"`
	FakeBankSigningKey string `mapstructure:"FAKEBANK_SIGNING_KEY"`
	FakeBankBcryptCost int    `mapstructure:"FAKEBANK_BCRYPT_COST"`
	FakeBankDevOTP     bool   `mapstructure:"FAKEBANK_DEV_OTP"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("FACEBANK_BANK_URL", "http://localhost:8081")
	v.SetDefault("FACEBANK_LISTEN_ADDR", "127.0.0.1:8080")
	v.SetDefault("FACEBANK_VERIFY_INTERVAL", DefaultVerifyInterval.String())
	v.SetDefault("FACEBANK_REQUEST_TIMEOUT", "10s")
	v.SetDefault("FACEBANK_CAPTURE_PATH", "")
	v.SetDefault("FACEBANK_LOG_LEVEL", "info")
	v.SetDefault("FACEBANK_TRACING_ENABLED", false)
	v.SetDefault("FACEBANK_DEVICE_BINDING", true)
	v.SetDefault("FACEBANK_BREAKER_FAILURES", 3)
	v.SetDefault("FAKEBANK_ADDR", ":8081")
	v.SetDefault("FAKEBANK_SIGNING_KEY", devSigningKey)
	v.SetDefault("FAKEBANK_BCRYPT_COST", 10)
	v.SetDefault("FAKEBANK_DEV_OTP", true)
	v.SetDefault("APP_ENV", "development")
}

// Validate checks invariants Load cannot express as defaults.
func (c *Config) Validate() error {
	if c.BankURL == "" {
		return errors.New("config: FACEBANK_BANK_URL must be set")
	}
	u, err := url.Parse(c.BankURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("config: FACEBANK_BANK_URL must be an absolute URL")
	}
	if c.VerifyInterval < time.Second {
		return errors.New("config: FACEBANK_VERIFY_INTERVAL must be at least 1s")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: FACEBANK_REQUEST_TIMEOUT must be positive")
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = 3
	}
	if c.FakeBankBcryptCost < 4 || c.FakeBankBcryptCost > 31 {
		return errors.New("config: FAKEBANK_BCRYPT_COST must be between 4 and 31")
	}
	if c.Env == "production" {
		if c.FakeBankSigningKey == devSigningKey {
			return errors.New("config: FAKEBANK_SIGNING_KEY must be overridden when APP_ENV=production")
		}
		if c.FakeBankDevOTP {
			return errors.New("config: FAKEBANK_DEV_OTP must not be true when APP_ENV=production")
		}
	}
	return nil
}
