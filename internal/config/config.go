package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	FrontendURL  string
	BodyLimit    int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Development reports whether error responses may carry internal detail.
func (s ServerConfig) Development() bool {
	return strings.EqualFold(s.Environment, "development")
}

type MongoDBConfig struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled  bool
	UseRedis bool
	Max      int
	Window   time.Duration
}

// envAliases maps config keys to the environment variables that may set them,
// first match wins.
var envAliases = map[string][]string{
	"server.port":                      {"SERVER_PORT", "PORT"},
	"server.host":                      {"SERVER_HOST"},
	"server.environment":               {"SERVER_ENVIRONMENT", "NODE_ENV"},
	"server.frontend_url":              {"FRONTEND_URL"},
	"server.body_limit":                {"BODY_LIMIT_BYTES"},
	"mongodb.uri":                      {"MONGODB_URI"},
	"mongodb.database":                 {"MONGODB_DATABASE", "DB_NAME"},
	"mongodb.max_pool_size":            {"MONGODB_MAX_POOL_SIZE"},
	"mongodb.connect_timeout":          {"MONGODB_CONNECT_TIMEOUT"},
	"mongodb.server_selection_timeout": {"MONGODB_SERVER_SELECTION_TIMEOUT"},
	"mongodb.socket_timeout":           {"MONGODB_SOCKET_TIMEOUT"},
	"redis.host":                       {"REDIS_HOST"},
	"redis.port":                       {"REDIS_PORT"},
	"redis.password":                   {"REDIS_PASSWORD"},
	"redis.db":                         {"REDIS_DB"},
	"rate_limit.enabled":               {"RATE_LIMIT_ENABLED"},
	"rate_limit.use_redis":             {"RATE_LIMIT_USE_REDIS"},
	"rate_limit.max":                   {"RATE_LIMIT_MAX"},
	"rate_limit.window":                {"RATE_LIMIT_WINDOW"},
	"log_level":                        {"LOG_LEVEL"},
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetDefault("server.port", "3000")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.body_limit", 10<<20)
	v.SetDefault("mongodb.database", "console_conteudo")
	v.SetDefault("mongodb.max_pool_size", 10)
	v.SetDefault("mongodb.connect_timeout", "10s")
	v.SetDefault("mongodb.server_selection_timeout", "5s")
	v.SetDefault("mongodb.socket_timeout", "45s")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.window", "15m")
	v.SetDefault("log_level", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Host:         v.GetString("server.host"),
			Environment:  v.GetString("server.environment"),
			FrontendURL:  v.GetString("server.frontend_url"),
			BodyLimit:    v.GetInt64("server.body_limit"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:                    v.GetString("mongodb.uri"),
			Database:               v.GetString("mongodb.database"),
			MaxPoolSize:            v.GetUint64("mongodb.max_pool_size"),
			ConnectTimeout:         v.GetDuration("mongodb.connect_timeout"),
			ServerSelectionTimeout: v.GetDuration("mongodb.server_selection_timeout"),
			SocketTimeout:          v.GetDuration("mongodb.socket_timeout"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("rate_limit.enabled"),
			UseRedis: v.GetBool("rate_limit.use_redis"),
			Max:      v.GetInt("rate_limit.max"),
			Window:   v.GetDuration("rate_limit.window"),
		},
		LogLevel: v.GetString("log_level"),
	}

	if cfg.MongoDB.URI == "" {
		return nil, fmt.Errorf("environment variable MONGODB_URI is required")
	}
	return cfg, nil
}
