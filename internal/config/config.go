package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port              int    `envconfig:"PORT" default:"8080"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL       string `envconfig:"DATABASE_URL" required:"true"`
	MigrationsPath    string `envconfig:"MIGRATIONS_PATH" default:"migrations"`
	Version           string `envconfig:"VERSION" default:"dev"`
	SchedulerInterval int    `envconfig:"SCHEDULER_INTERVAL" default:"15"`
	BcryptCost        int    `envconfig:"BCRYPT_COST" default:"12"`
	CORSOrigins       string `envconfig:"CORS_ORIGINS" default:"*"`
	EventBufferSize   int    `envconfig:"EVENT_BUFFER_SIZE" default:"64"`
}

// Load reads configuration from environment variables into a Config struct.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
