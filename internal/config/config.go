// Package config loads and validates the search service configuration.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/bazario/search-service/pkg/config"
	"github.com/bazario/search-service/pkg/database"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	// Elasticsearch
	ElasticsearchURL      string        `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex    string        `env:"ELASTICSEARCH_INDEX" envDefault:"products_index"`
	ElasticsearchUsername string        `env:"ELASTICSEARCH_USERNAME" envDefault:""`
	ElasticsearchPassword string        `env:"ELASTICSEARCH_PASSWORD" envDefault:""`
	ElasticsearchTimeout  time.Duration `env:"ELASTICSEARCH_TIMEOUT" envDefault:"30s"`

	// Product database (read-only source for index rebuilds)
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"bazario"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"bazario_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"bazario"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"search-service"`

	// Scoring policy overrides
	MinScore      float64 `env:"SEARCH_MIN_SCORE" envDefault:"4.7"`
	SearchDecay   float64 `env:"SEARCH_RECENCY_DECAY" envDefault:"0.7"`
	SearchWeight  float64 `env:"SEARCH_RECENCY_WEIGHT" envDefault:"0.8"`
	SuggestDecay  float64 `env:"SUGGEST_RECENCY_DECAY" envDefault:"0.5"`
	RecencyOffset string  `env:"SEARCH_RECENCY_OFFSET" envDefault:"30d"`
	RecencyScale  string  `env:"SEARCH_RECENCY_SCALE" envDefault:"90d"`

	// Price inference policy overrides
	PriceInferenceFloor float64 `env:"PRICE_INFERENCE_FLOOR" envDefault:"50"`
	PriceInferenceBand  float64 `env:"PRICE_INFERENCE_BAND" envDefault:"0.2"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SearchEngine != "elasticsearch" && c.SearchEngine != "memory" {
		return fmt.Errorf("invalid search engine: %q", c.SearchEngine)
	}
	if c.PriceInferenceBand < 0 || c.PriceInferenceBand >= 1 {
		return fmt.Errorf("price inference band must be in [0,1): %g", c.PriceInferenceBand)
	}
	return nil
}

// Postgres returns the pool configuration for the product database.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return pg
}
