// Package config loads process configuration from the environment. A .env
// file in the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Email    EmailConfig
	Matching MatchingConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	ShutdownTimeout time.Duration
	// SideEffectTimeout bounds the detached context used for post-commit work.
	SideEffectTimeout time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	TokenTTL      time.Duration
}

// DatabaseConfig selects Postgres when URL is set; otherwise in-memory stores are used.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional. View counting and the email queue need it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is optional. Without brokers deal activities are not fanned out.
type KafkaConfig struct {
	Brokers       []string
	ActivityTopic string
	ClientID      string
}

type EmailConfig struct {
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	From        string
	Queue       string
	Concurrency int
	MaxRetry    int
}

type MatchingConfig struct {
	// Threshold is exclusive: a pair must score above it to be listed.
	Threshold int
}

// IsProduction reports whether the process runs with production defaults disabled.
func (c Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads .env (if any) and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:              getEnv("DEALROOM_ADDR", ":8080"),
			Environment:       getEnv("DEALROOM_ENV", "development"),
			ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			SideEffectTimeout: getDuration("SIDE_EFFECT_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     getEnv("JWT_ISSUER", "dealroom"),
			JWTAudience:   getEnv("JWT_AUDIENCE", "dealroom-api"),
			TokenTTL:      getDuration("JWT_TTL", 15*time.Minute),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			ActivityTopic: getEnv("KAFKA_ACTIVITY_TOPIC", "deal.activities"),
			ClientID:      getEnv("KAFKA_CLIENT_ID", "dealroom"),
		},
		Email: EmailConfig{
			SMTPHost:    os.Getenv("SMTP_HOST"),
			SMTPPort:    getInt("SMTP_PORT", 587),
			SMTPUser:    os.Getenv("SMTP_USER"),
			SMTPPass:    os.Getenv("SMTP_PASS"),
			From:        getEnv("EMAIL_FROM", "no-reply@dealroom.local"),
			Queue:       getEnv("EMAIL_QUEUE", "emails"),
			Concurrency: getInt("EMAIL_WORKER_CONCURRENCY", 5),
			MaxRetry:    getInt("EMAIL_MAX_RETRY", 5),
		},
		Matching: MatchingConfig{
			Threshold: getInt("MATCH_THRESHOLD", 50),
		},
	}

	if cfg.IsProduction() && cfg.Auth.JWTSigningKey == "dev-secret-key-change-in-production" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}
	if cfg.Matching.Threshold < 0 || cfg.Matching.Threshold > 100 {
		return Config{}, fmt.Errorf("MATCH_THRESHOLD must be within 0..100, got %d", cfg.Matching.Threshold)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
