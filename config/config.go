package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Consistency ConsistencyConfig
	Mirror      MirrorConfig
	Auth        AuthConfig
	App         AppConfig
}

type ServerConfig struct {
	Port string
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

// ConsistencyConfig drives the analysis pipeline and its HTTP surface.
type ConsistencyConfig struct {
	OutDir       string // run artifacts (analysis.json, graph.dot, ...)
	IncomingDir  string // temp storage for uploaded facts files
	DotBin       string // graphviz binary, empty means "dot" from PATH
	ClassifyPath string // optional server wide classification YAML
	APIKey       string // shared key for scanner uploads, empty disables the check
	RecheckSpec  string // cron spec for nightly rechecks
	ReportKeep   int    // stored reports kept per project when pruning
}

// MirrorConfig configures the S3 artifact mirror. Disabled unless a bucket
// is set.
type MirrorConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type AuthConfig struct {
	Disabled        bool
	CredentialsFile string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "routelens"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Consistency: ConsistencyConfig{
			OutDir:       getEnv("CONSISTENCY_OUT_DIR", "out"),
			IncomingDir:  getEnv("CONSISTENCY_INCOMING_DIR", "incoming"),
			DotBin:       getEnv("DOT_BIN", ""),
			ClassifyPath: getEnv("CLASSIFY_CONFIG", ""),
			APIKey:       getEnv("SCANNER_API_KEY", ""),
			RecheckSpec:  getEnv("RECHECK_CRON", ""),
			ReportKeep:   getEnvAsInt("REPORT_KEEP", 10),
		},
		Mirror: MirrorConfig{
			Bucket:    getEnv("MIRROR_S3_BUCKET", ""),
			Region:    getEnv("MIRROR_S3_REGION", "us-east-1"),
			Endpoint:  getEnv("MIRROR_S3_ENDPOINT", ""),
			AccessKey: getEnv("MIRROR_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("MIRROR_S3_SECRET_KEY", ""),
		},
		Auth: AuthConfig{
			Disabled:        getEnvAsBool("AUTH_DISABLED", false),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
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

	if c.Mirror.Bucket != "" && c.Mirror.Region == "" {
		return fmt.Errorf("MIRROR_S3_REGION is required when MIRROR_S3_BUCKET is set")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}
