package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	pkgconfig "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/config"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/database"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/pubsub"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	Database database.Config
	Presence PresenceConfig
	Chat     ChatConfig
	HTTP     HTTPConfig
	Events   pubsub.Config
	Log      LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver string
}

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string `mapstructure:"key_prefix"`
}

type PresenceConfig struct {
	ReapInterval     time.Duration `mapstructure:"reap_interval"`
	InactivityWindow time.Duration `mapstructure:"inactivity_window"`
}

type ChatConfig struct {
	Timezone string
}

type HTTPConfig struct {
	IdentityHeader string   `mapstructure:"identity_header"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads ./config/config.yaml (optional), applies defaults and env
// overrides, and validates the result.
func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir string) (*Config, error) {
	v, err := pkgconfig.Load(dir, "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "batepapo")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "America/Sao_Paulo")
	v.SetDefault("database.file_path", "batepapo.db")
	v.SetDefault("presence.reap_interval", "15s")
	v.SetDefault("presence.inactivity_window", "10s")
	v.SetDefault("chat.timezone", "America/Sao_Paulo")
	v.SetDefault("http.identity_header", "identity")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("events.driver", pubsub.DriverNone)
	v.SetDefault("events.channel", pubsub.ChannelChatMessages)
	v.SetDefault("events.redis.address", "localhost:6379")
	v.SetDefault("events.redis.pool_size", 10)
	v.SetDefault("events.redis.read_timeout", "3s")
	v.SetDefault("events.redis.write_timeout", "3s")
	v.SetDefault("events.kafka.brokers", "localhost:9092")
	v.SetDefault("events.kafka.topic", "chat-messages")
	v.SetDefault("events.kafka.partitions", 1)
	v.SetDefault("log.level", "info")

	// Override from environment
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.host", "DATABASE_HOST")
	_ = v.BindEnv("database.port", "DATABASE_PORT")
	_ = v.BindEnv("database.user", "DATABASE_USER")
	_ = v.BindEnv("database.password", "DATABASE_PASSWORD")
	_ = v.BindEnv("database.dbname", "DATABASE_NAME")
	_ = v.BindEnv("database.file_path", "DATABASE_FILE")
	_ = v.BindEnv("presence.reap_interval", "REAP_INTERVAL")
	_ = v.BindEnv("presence.inactivity_window", "INACTIVITY_WINDOW")
	_ = v.BindEnv("http.identity_header", "IDENTITY_HEADER")
	_ = v.BindEnv("events.driver", "EVENTS_DRIVER")
	_ = v.BindEnv("events.redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("events.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("events.kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("events.kafka.topic", "KAFKA_TOPIC")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.pretty", "LOG_PRETTY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.ShutdownTimeout = pkgconfig.Duration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.Presence.ReapInterval = pkgconfig.Duration(v, "presence.reap_interval", 15*time.Second)
	cfg.Presence.InactivityWindow = pkgconfig.Duration(v, "presence.inactivity_window", 10*time.Second)
	cfg.Events.Redis.ReadTimeout = pkgconfig.Duration(v, "events.redis.read_timeout", 3*time.Second)
	cfg.Events.Redis.WriteTimeout = pkgconfig.Duration(v, "events.redis.write_timeout", 3*time.Second)

	// ALLOWED_ORIGINS: comma-separated, e.g. "http://localhost:3000,https://chat.example"
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(origins, ",")
		for i, o := range cfg.HTTP.AllowedOrigins {
			cfg.HTTP.AllowedOrigins[i] = strings.TrimSpace(o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Presence.ReapInterval <= 0 {
		return fmt.Errorf("presence.reap_interval must be positive, got %s", c.Presence.ReapInterval)
	}
	if c.Presence.InactivityWindow <= 0 {
		return fmt.Errorf("presence.inactivity_window must be positive, got %s", c.Presence.InactivityWindow)
	}
	switch c.Store.Driver {
	case StoreMemory, StoreRedis, StoreSQL:
	default:
		return fmt.Errorf("unsupported store driver: %q", c.Store.Driver)
	}
	switch c.Events.Driver {
	case pubsub.DriverNone, pubsub.DriverRedis, pubsub.DriverKafka:
	default:
		return fmt.Errorf("unsupported events driver: %q", c.Events.Driver)
	}
	if strings.TrimSpace(c.HTTP.IdentityHeader) == "" {
		return fmt.Errorf("http.identity_header must not be empty")
	}
	return nil
}
