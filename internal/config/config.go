package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageTypePostgres = "postgres"
	StorageTypeMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Logging   LoggingConfig
	Ethos     EthosConfig
	Discovery DiscoveryConfig
	Chat      ChatConfig
	Gemini    GeminiConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig is optional. An empty host disables the redis broker and cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret    string
	AccessExpiryMin int
}

type StorageConfig struct {
	Type string
}

type LoggingConfig struct {
	Level string
}

type EthosConfig struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	BulkLimit int
}

type DiscoveryConfig struct {
	DecisionWindow       time.Duration
	DefaultMaxReputation int
}

type ChatConfig struct {
	MaxMessageLength int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("JWT_ACCESS_EXPIRY_MIN", 60*24*7)
	v.SetDefault("STORAGE_TYPE", StorageTypePostgres)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ETHOS_BASE_URL", "https://api.ethos.network/api/v2")
	v.SetDefault("ETHOS_TIMEOUT_SEC", 10)
	v.SetDefault("ETHOS_CACHE_TTL_SEC", 300)
	v.SetDefault("ETHOS_BULK_LIMIT", 500)
	v.SetDefault("DISCOVERY_DECISION_WINDOW_SEC", 15)
	v.SetDefault("DISCOVERY_DEFAULT_MAX_REPUTATION", 2800)
	v.SetDefault("CHAT_MAX_MESSAGE_LENGTH", 2000)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := fromViper(v)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret:    v.GetString("JWT_ACCESS_SECRET"),
			AccessExpiryMin: v.GetInt("JWT_ACCESS_EXPIRY_MIN"),
		},
		Storage: StorageConfig{
			Type: strings.ToLower(v.GetString("STORAGE_TYPE")),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Ethos: EthosConfig{
			BaseURL:   v.GetString("ETHOS_BASE_URL"),
			Timeout:   time.Duration(v.GetInt("ETHOS_TIMEOUT_SEC")) * time.Second,
			CacheTTL:  time.Duration(v.GetInt("ETHOS_CACHE_TTL_SEC")) * time.Second,
			BulkLimit: v.GetInt("ETHOS_BULK_LIMIT"),
		},
		Discovery: DiscoveryConfig{
			DecisionWindow:       time.Duration(v.GetInt("DISCOVERY_DECISION_WINDOW_SEC")) * time.Second,
			DefaultMaxReputation: v.GetInt("DISCOVERY_DEFAULT_MAX_REPUTATION"),
		},
		Chat: ChatConfig{
			MaxMessageLength: v.GetInt("CHAT_MAX_MESSAGE_LENGTH"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
	}
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if c.JWT.AccessExpiryMin <= 0 {
		return fmt.Errorf("JWT access expiry must be positive")
	}
	if c.Ethos.BulkLimit <= 0 || c.Ethos.BulkLimit > 500 {
		return fmt.Errorf("ethos bulk limit must be between 1 and 500")
	}
	if c.Discovery.DecisionWindow <= 0 {
		return fmt.Errorf("discovery decision window must be positive")
	}
	if c.Discovery.DefaultMaxReputation <= 0 {
		return fmt.Errorf("discovery default max reputation must be positive")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}
