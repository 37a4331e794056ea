package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,        default=8080"`
	Env       string        `env:"ENV,         default=development"`
	JWTSecret string        `env:"JWT_SECRET,  required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,   default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,   default=info"`

	// AdminEmails is the configured administrative identity set. A token
	// claiming the admin role is only honored when its email appears here.
	AdminEmails []string `env:"ADMIN_EMAILS"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
// A missing JWT secret is a startup failure, never a silent fallback: with
// no verification key every request would resolve to anonymous and the
// service would be useless rather than insecure, but failing fast is clearer.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
