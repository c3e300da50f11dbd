// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the dictionary service reads from its
// environment. It is parsed once in main and handed down explicitly.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL selects the hosted store. When empty, reads fall back to
	// the built-in dictionary and mutations are disabled.
	DatabaseURL string `env:"DATABASE_URL"`

	// StoreDriver selects "postgres" or "local" (file-backed demo variant).
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	// LocalDataFile is the storage path for the local driver.
	LocalDataFile string `env:"DICTIONARY_DATA_FILE" envDefault:"medical-dictionary-terms.json"`

	AllowedEmailDomain string `env:"ALLOWED_EMAIL_DOMAIN" envDefault:"trendingvenues.com"`
	JWTSecret          string `env:"JWT_SECRET"`

	// Brokers enables the cross-instance invalidation stream when set.
	Brokers    []string `env:"KAFKA_BROKERS"`
	InstanceID string   `env:"INSTANCE_ID"`

	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
