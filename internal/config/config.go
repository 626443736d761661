package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the whole process configuration, read from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	GoEnv       string `envconfig:"GO_ENV" default:"dev"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"bookstore"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	FEURL       string `envconfig:"FE_URL" default:"http://localhost:3000"`
	ShopName    string `envconfig:"SHOP_NAME" default:"Dream Books Library"`

	// forward-only order status changes for admins
	StrictStatusTransitions bool `envconfig:"ORDER_STRICT_TRANSITIONS" default:"false"`

	Postgres     PostgresConfig     `envconfig:"POSTGRES"`
	Kafka        KafkaConfig        `envconfig:"KAFKA"`
	Redis        RedisConfig        `envconfig:"REDIS"`
	Stripe       StripeConfig       `envconfig:"STRIPE"`
	Notification NotificationConfig `envconfig:"NOTIFY"`
	Outbox       OutboxConfig       `envconfig:"OUTBOX"`
}

type PostgresConfig struct {
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	Host         string `split_words:"true" default:"localhost"`
	Port         int    `split_words:"true" default:"5432"`
	User         string `split_words:"true" default:"postgres"`
	Password     string `split_words:"true" default:"postgres"`
	DB           string `split_words:"true" default:"bookstore"`
	SSLMode      string `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns int    `split_words:"true" default:"20"`
	MaxIdleConns int    `split_words:"true" default:"5"`
}

type KafkaConfig struct {
	Enabled         bool          `split_words:"true" default:"true"`
	Brokers         []string      `split_words:"true" default:"localhost:9092"`
	ClientID        string        `split_words:"true" default:"bookstore"`
	ConsumerGroup   string        `split_words:"true" default:"notification-consumer-group"`
	Concurrency     int           `split_words:"true" default:"3"`
	MaxRetries      int           `split_words:"true" default:"3"`
	RetryBackoff    time.Duration `split_words:"true" default:"1s"`
	ProducerQueue   int           `split_words:"true" default:"1024"`
	ProvisionTopics bool          `split_words:"true" default:"true"`
}

type RedisConfig struct {
	Addr     string `split_words:"true" default:"localhost:6379"`
	Password string `split_words:"true"`
	DB       int    `split_words:"true" default:"0"`
}

type StripeConfig struct {
	SecretKey string `split_words:"true"`
	Currency  string `split_words:"true" default:"gbp"`
}

type NotificationConfig struct {
	EmailEnabled bool   `split_words:"true" default:"true"`
	FromAddress  string `split_words:"true" default:"orders@dreambooks.example"`
	// empty: emails are written to the log instead of sent
	SMTPAddr     string `envconfig:"SMTP_ADDR"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
}

type OutboxConfig struct {
	Interval    time.Duration `split_words:"true" default:"5s"`
	BatchSize   int           `split_words:"true" default:"50"`
	MaxAttempts int           `split_words:"true" default:"10"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Postgres.DatabaseURL == "" && cfg.Postgres.Host == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST or DATABASE_URL is required")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if cfg.Kafka.Concurrency < 1 {
		return Config{}, fmt.Errorf("KAFKA_CONCURRENCY must be >= 1")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// DSN returns a postgres:// URL usable by both gorm and the migrator.
func (p PostgresConfig) DSN() string {
	if p.DatabaseURL != "" {
		return p.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DB,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}
