package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Sandbox  SandboxConfig
	Backup   BackupConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
}

// SandboxConfig configures the remote sandbox provider.
type SandboxConfig struct {
	BaseURL   string
	APIKey    string
	Template  string
	DevPort   int
	Timeout   time.Duration // provision/start operations
	OpTimeout time.Duration // file operations
}

// BackupConfig configures the optional file snapshot store.
// Snapshots are disabled when Endpoint is empty.
type BackupConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AppConfig struct {
	Environment    string
	LogLevel       string
	Version        string
	SessionTTL     time.Duration
	CacheRetention time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:3000")},
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "webforge"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Sandbox: SandboxConfig{
			BaseURL:   getEnv("SANDBOX_API_URL", ""),
			APIKey:    getEnv("SANDBOX_API_KEY", ""),
			Template:  getEnv("SANDBOX_TEMPLATE", "nextjs"),
			DevPort:   getEnvAsInt("SANDBOX_DEV_PORT", 3000),
			Timeout:   getEnvAsDuration("SANDBOX_TIMEOUT", 3*time.Minute),
			OpTimeout: getEnvAsDuration("SANDBOX_OP_TIMEOUT", 30*time.Second),
		},
		Backup: BackupConfig{
			Endpoint:  getEnv("BACKUP_ENDPOINT", ""),
			AccessKey: getEnv("BACKUP_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_SECRET_KEY", ""),
			Bucket:    getEnv("BACKUP_BUCKET", "webforge-snapshots"),
			UseSSL:    getEnv("BACKUP_USE_SSL", "false") == "true",
		},
		App: AppConfig{
			Environment:    getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			SessionTTL:     getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			CacheRetention: getEnvAsDuration("FILE_CACHE_RETENTION", 30*24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Sandbox.BaseURL == "" {
		return fmt.Errorf("SANDBOX_API_URL is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
