package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr        string
	PostgresURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	QuorumRatio float64
}

// RedisConfig configures the optional Redis-backed reviewer registry.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("CONCORD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ratio := 0.0
	if raw := os.Getenv("CONCORD_QUORUM_RATIO"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 && parsed <= 1 {
			ratio = parsed
		}
	}

	var brokers []string
	if raw := os.Getenv("CONCORD_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("CONCORD_KAFKA_TOPIC")
	if topic == "" {
		topic = "concord.review.audit"
	}

	return Server{
		Addr:        addr,
		PostgresURL: os.Getenv("CONCORD_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CONCORD_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		QuorumRatio: ratio,
	}
}
