package pubsub

import (
	"fmt"
	"time"
)

// Drivers accepted by NewPublisher.
const (
	DriverNone  = "none"
	DriverRedis = "redis"
	DriverKafka = "kafka"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	Topic      string `mapstructure:"topic"`
	Partitions int    `mapstructure:"partitions"`
}

// Config holds the configuration for the pub/sub system.
type Config struct {
	Driver  string      `mapstructure:"driver"` // "none", "redis", "kafka"
	Channel string      `mapstructure:"channel"`
	Redis   RedisConfig `mapstructure:"redis"`
	Kafka   KafkaConfig `mapstructure:"kafka"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NewPublisher creates a Publisher based on the configuration.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case DriverKafka:
		p, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverRedis:
		p, err := NewRedisPubSub(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverNone, "":
		return Noop(), nil
	default:
		return nil, fmt.Errorf("unsupported pubsub driver: %s", cfg.Driver)
	}
}
