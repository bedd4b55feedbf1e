package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr         string
	LogLevel     string
	RulebookPath string
	Concurrency  int
	Narrative    NarrativeConfig
	OCR          OCRConfig
	Redis        RedisConfig
	Postgres     PostgresConfig
	Kafka        KafkaConfig
}

// NarrativeConfig points at the OpenAI-compatible narrative collaborator.
type NarrativeConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// OCRConfig points at the OCR collaborator. An empty URL disables OCR.
type OCRConfig struct {
	URL     string
	Timeout time.Duration
}

// RedisConfig enables the cross-claim fingerprint registry when URL is set.
type RedisConfig struct {
	URL            string
	PoolSize       int
	MinIdleConns   int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	FingerprintTTL time.Duration
}

// PostgresConfig enables the postgres assessment store when URL is set.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig enables assessment publication when Brokers is set.
type KafkaConfig struct {
	Brokers         string
	Topic           string
	DeliveryTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	apiKey := os.Getenv("NARRATIVE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return Server{
		Addr:         envString("CLAIMAUDIT_ADDR", ":8080"),
		LogLevel:     envString("CLAIMAUDIT_LOG_LEVEL", "INFO"),
		RulebookPath: os.Getenv("CLAIMAUDIT_RULEBOOK"),
		Concurrency:  envInt("NORMALIZE_CONCURRENCY", 4),
		Narrative: NarrativeConfig{
			BaseURL: envString("NARRATIVE_BASE_URL", "https://api.openai.com/v1"),
			Model:   envString("NARRATIVE_MODEL", "gpt-4o"),
			APIKey:  apiKey,
			Timeout: envDuration("NARRATIVE_TIMEOUT", 60*time.Second),
		},
		OCR: OCRConfig{
			URL:     os.Getenv("OCR_URL"),
			Timeout: envDuration("OCR_TIMEOUT", 20*time.Second),
		},
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			PoolSize:       envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:   envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:    envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			FingerprintTTL: envDuration("FINGERPRINT_TTL", 720*time.Hour),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Topic:           envString("KAFKA_TOPIC", "claim-assessments"),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 10*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// envDuration accepts Go durations ("90s") or plain seconds ("90").
func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
