package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Production ProductionConfig `yaml:"production"`
	Redis      RedisConfig      `yaml:"redis"`
	Messaging  MessagingConfig  `yaml:"messaging"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ProductionConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type MessagingConfig struct {
	Brokers     []string `yaml:"brokers"`
	EventsTopic string   `yaml:"events_topic"`
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Production: ProductionConfig{
			Timeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			LockTTL: 2 * time.Minute,
		},
		Messaging: MessagingConfig{
			EventsTopic: "planning.runs",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if path is
// set and the file exists), then environment variables. Environment wins.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Production.URL = getEnv("PRODUCTION_PLANNING_URL", cfg.Production.URL)
	cfg.Production.Timeout = getEnvAsDuration("PRODUCTION_PLANNING_TIMEOUT", cfg.Production.Timeout)
	cfg.Redis.Address = getEnv("REDIS_ADDR", cfg.Redis.Address)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.LockTTL = getEnvAsDuration("LOCK_TTL", cfg.Redis.LockTTL)
	cfg.Messaging.Brokers = getEnvAsList("KAFKA_BROKERS", cfg.Messaging.Brokers)
	cfg.Messaging.EventsTopic = getEnv("PLANNING_EVENTS_TOPIC", cfg.Messaging.EventsTopic)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
