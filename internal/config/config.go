package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config is the storefront sync process configuration, read from the
// environment.
type Config struct {
	MongoURI      string   `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName   string   `env:"MONGO_DB_NAME" envDefault:"minimart"`
	RedisAddr     string   `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string   `env:"REDIS_PASSWORD"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	SessionSecret string   `env:"SESSION_SECRET,required"`
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses environment variables into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
