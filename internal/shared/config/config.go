package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration shared by all services.
type Config struct {
	Database  DBConfig
	RabbitMQ  MQConfig
	Redis     RedisConfig
	WebSocket WSConfig
	Services  ServicesConfig
	JWT       JWTConfig
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type MQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
}

type WSConfig struct {
	Port int `yaml:"port"`
}

type ServicesConfig struct {
	VisitServicePort    int `yaml:"visit_service"`
	LocationServicePort int `yaml:"location_service"`
	AdminServicePort    int `yaml:"admin_service"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpiryMinutes int    `yaml:"expiry_minutes"`
}

// jwtFile supports both a flat jwt.yaml and one nested under a "jwt:" key.
type jwtFile struct {
	JWT           *JWTConfig `yaml:"jwt"`
	Secret        string     `yaml:"secret"`
	ExpiryMinutes int        `yaml:"expiry_minutes"`
}

// Load reads per-concern YAML files from CONFIG_DIR (default ./config).
// Every value can be overridden by an environment variable; a missing or
// unreadable file falls back to defaults plus env.
func Load() Config {
	configDir := getEnv("CONFIG_DIR", "./config")
	cfg := Config{}

	cfg.Database = DBConfig{Host: "localhost", Port: 5432, User: "fieldservice_user", Password: "fieldservice_pass", Database: "fieldservice_db", SSLMode: "disable"}
	readYAML(filepath.Join(configDir, "db.yaml"), &cfg.Database)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.RabbitMQ = MQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest", VHost: "/"}
	readYAML(filepath.Join(configDir, "mq.yaml"), &cfg.RabbitMQ)
	cfg.RabbitMQ.Host = getEnv("RABBITMQ_HOST", cfg.RabbitMQ.Host)
	cfg.RabbitMQ.Port = getEnvInt("RABBITMQ_PORT", cfg.RabbitMQ.Port)
	cfg.RabbitMQ.User = getEnv("RABBITMQ_USER", cfg.RabbitMQ.User)
	cfg.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", cfg.RabbitMQ.Password)
	cfg.RabbitMQ.VHost = getEnv("RABBITMQ_VHOST", cfg.RabbitMQ.VHost)

	cfg.Redis = RedisConfig{Host: "localhost", Port: 6379, DB: 0}
	readYAML(filepath.Join(configDir, "redis.yaml"), &cfg.Redis)
	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.WebSocket = WSConfig{Port: 8080}
	readYAML(filepath.Join(configDir, "ws.yaml"), &cfg.WebSocket)
	cfg.WebSocket.Port = getEnvInt("WS_PORT", cfg.WebSocket.Port)

	cfg.Services = ServicesConfig{VisitServicePort: 3000, LocationServicePort: 3001, AdminServicePort: 3004}
	readYAML(filepath.Join(configDir, "service.yaml"), &cfg.Services)
	cfg.Services.VisitServicePort = getEnvInt("VISIT_SERVICE_PORT", cfg.Services.VisitServicePort)
	cfg.Services.LocationServicePort = getEnvInt("LOCATION_SERVICE_PORT", cfg.Services.LocationServicePort)
	cfg.Services.AdminServicePort = getEnvInt("ADMIN_SERVICE_PORT", cfg.Services.AdminServicePort)

	cfg.JWT = JWTConfig{Secret: "dev_secret", ExpiryMinutes: 60}
	var jf jwtFile
	if readYAML(filepath.Join(configDir, "jwt.yaml"), &jf) {
		if jf.JWT != nil {
			if jf.JWT.Secret != "" {
				cfg.JWT.Secret = jf.JWT.Secret
			}
			if jf.JWT.ExpiryMinutes > 0 {
				cfg.JWT.ExpiryMinutes = jf.JWT.ExpiryMinutes
			}
		} else {
			if jf.Secret != "" {
				cfg.JWT.Secret = jf.Secret
			}
			if jf.ExpiryMinutes > 0 {
				cfg.JWT.ExpiryMinutes = jf.ExpiryMinutes
			}
		}
	}
	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.ExpiryMinutes = getEnvInt("JWT_EXPIRY_MINUTES", cfg.JWT.ExpiryMinutes)

	return cfg
}

// readYAML unmarshals path into out, leaving out untouched on any error.
// Returns true when the file was read and parsed.
func readYAML(path string, out any) bool {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false
	}
	return true
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// DSN returns the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// AMQPURL returns the RabbitMQ connection URL.
func (c MQConfig) AMQPURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
