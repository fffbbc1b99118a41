package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsAMQP  = "amqp"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" env-default:"fintrack"`
	ServerAddr  string `env:"SERVER_ADDR" env-default:":4000"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	DatabaseURL string `env:"DATABASE_URL" env-default:"data/fintrack.db"`

	JWTSecret        string        `env:"JWT_SECRET"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"2h"`
	RefreshTokenDays int           `env:"REFRESH_TOKEN_DAYS" env-default:"7"`
	PasswordMinLen   int           `env:"PASSWORD_MIN_LENGTH" env-default:"4"`
	BcryptCost       int           `env:"BCRYPT_COST" env-default:"10"`

	CORSOrigins   []string `env:"CORS_ORIGIN" env-separator:"," env-default:"*"`
	AuthRateLimit float64  `env:"AUTH_RATE_LIMIT" env-default:"10"`

	EventsBackend string   `env:"EVENTS_BACKEND" env-default:"none"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic    string   `env:"KAFKA_TOPIC" env-default:"fintrack_events"`
	AMQPURL       string   `env:"AMQP_URL"`
	AMQPExchange  string   `env:"AMQP_EXCHANGE" env-default:"fintrack"`

	ESURL      string `env:"ES_URL"`
	ESUser     string `env:"ES_USER"`
	ESPassword string `env:"ES_PASSWORD"`
	ESIndex    string `env:"ES_INDEX" env-default:"transactions"`
}

// Load reads envFile (if present) into the process environment and then
// parses the environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("Notice: %s file not found: %v. Using system environment variables", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.KafkaBrokers = CSV(strings.Join(cfg.KafkaBrokers, ","))
	cfg.CORSOrigins = CSV(strings.Join(cfg.CORSOrigins, ","))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	cfg.EventsBackend = strings.ToLower(strings.TrimSpace(cfg.EventsBackend))

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("missing required env JWT_SECRET"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL))
	}
	if c.RefreshTokenDays <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_TOKEN_DAYS must be positive, got %d", c.RefreshTokenDays))
	}
	if c.PasswordMinLen < 1 {
		errs = append(errs, fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 1, got %d", c.PasswordMinLen))
	}
	if c.AuthRateLimit < 0 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_LIMIT must not be negative, got %v", c.AuthRateLimit))
	}

	switch c.EventsBackend {
	case EventsNone, "":
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("EVENTS_BACKEND=kafka requires KAFKA_BROKERS"))
		}
	case EventsAMQP:
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("EVENTS_BACKEND=amqp requires AMQP_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_BACKEND %q: must be one of none, kafka, amqp", c.EventsBackend))
	}

	return errors.Join(errs...)
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}

// IsPostgres reports whether DatabaseURL points at Postgres rather than a sqlite file.
func (c *Config) IsPostgres() bool {
	u := strings.ToLower(c.DatabaseURL)
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
