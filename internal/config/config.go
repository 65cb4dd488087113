package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Mongo      MongoConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Retention  RetentionConfig
	Monitoring MonitoringConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	// Driver selects the document backend: mongo, postgres or memory
	Driver string `mapstructure:"driver"`
	// Sessions selects the session backend: redis or memory
	Sessions string `mapstructure:"sessions"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Issuer     string        `mapstructure:"issuer"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
	// Schemes sets the Authorization scheme (basic or bearer) per route group
	Schemes        SchemeConfig    `mapstructure:"schemes"`
	BootstrapUsers []BootstrapUser `mapstructure:"bootstrap_users"`
}

type SchemeConfig struct {
	Readings string `mapstructure:"readings"`
	Analysis string `mapstructure:"analysis"`
	Users    string `mapstructure:"users"`
}

// BootstrapUser is created at startup when no identity with that username exists
type BootstrapUser struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Role     string `mapstructure:"role"`
}

type RetentionConfig struct {
	InactivityWindow time.Duration `mapstructure:"inactivity_window"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

type MonitoringConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	ProcessMetrics bool `mapstructure:"process_metrics"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEATHERAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Storage defaults
	v.SetDefault("storage.driver", DriverMongo)
	v.SetDefault("storage.sessions", DriverMemory)

	// Mongo defaults
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "WeatherDB")
	v.SetDefault("mongo.connect_timeout", "10s")

	// Postgres defaults
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "weather")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "weatherdb")
	v.SetDefault("postgres.sslmode", "disable")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "weatherapi:session:")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "weatherapi")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.schemes.readings", "basic")
	v.SetDefault("auth.schemes.analysis", "basic")
	v.SetDefault("auth.schemes.users", "basic")

	// Retention defaults
	v.SetDefault("retention.inactivity_window", "720h") // 30 days
	v.SetDefault("retention.sweep_interval", "1h")

	// Monitoring defaults
	v.SetDefault("monitoring.metrics_enabled", true)
	v.SetDefault("monitoring.process_metrics", true)
}

func validateConfig(config *Config) error {
	switch config.Storage.Driver {
	case DriverMongo:
		if config.Mongo.URI == "" {
			return fmt.Errorf("mongo uri is required")
		}
	case DriverPostgres:
		if config.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}
	switch config.Storage.Sessions {
	case DriverRedis:
		if config.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown session driver %q", config.Storage.Sessions)
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}
	if config.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token_ttl must be positive")
	}
	for group, scheme := range map[string]string{
		"readings": config.Auth.Schemes.Readings,
		"analysis": config.Auth.Schemes.Analysis,
		"users":    config.Auth.Schemes.Users,
	} {
		switch strings.ToLower(scheme) {
		case "basic", "bearer":
		default:
			return fmt.Errorf("auth scheme for %s must be basic or bearer, got %q", group, scheme)
		}
	}
	if config.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention sweep_interval must be positive")
	}
	return nil
}
