// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Storage     StorageConfig
	Email       EmailConfig
	Import      ImportConfig
	Scheduler   SchedulerConfig
	Log         LogConfig
	I18n        I18nConfig
	Seed        SeedConfig
	RateLimit   RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	ReadTimeout    int
	WriteTimeout   int
	IdleTimeout    int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	TimeZone     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// DSN renders a libpq key/value connection string. Values containing
// spaces or quotes are single-quoted.
func (d DatabaseConfig) DSN() string {
	pairs := [][2]string{
		{"host", d.Host},
		{"port", d.Port},
		{"user", d.User},
		{"password", d.Password},
		{"dbname", d.Database},
		{"sslmode", d.SSLMode},
		{"TimeZone", d.TimeZone},
	}

	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, kv[0]+"="+dsnValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

func dsnValue(v string) string {
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

// StorageConfig controls where attachments land when S3 is not configured.
type StorageConfig struct {
	LocalDir      string
	PublicBaseURL string
	MaxUploadMB   int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type ImportConfig struct {
	MaxFileMB       int
	DefaultTag      string
	AutoDescription string
}

type SchedulerConfig struct {
	Enabled      bool
	ReminderSpec string
	RecountSpec  string
}

type LogConfig struct {
	Level     string
	Format    string
	File      string
	MaxSizeMB int
	MaxAge    int
	Backups   int
}

type I18nConfig struct {
	DefaultLocale string
}

// RateLimitConfig sets per-IP request budgets.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	AuthPerMinute     int
	ImportPerMinute   int
}

// SeedConfig describes the administrator created on an empty database.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Host:           getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:    getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "assetdesk"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			TimeZone:     getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "assetdesk-attachments"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Storage: StorageConfig{
			LocalDir:      getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", "/uploads"),
			MaxUploadMB:   getEnvAsInt("STORAGE_MAX_UPLOAD_MB", 10),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@assetdesk.local"),
			FromName:     getEnv("FROM_NAME", "AssetDesk"),
		},
		Import: ImportConfig{
			MaxFileMB:       getEnvAsInt("IMPORT_MAX_FILE_MB", 20),
			DefaultTag:      getEnv("IMPORT_DEFAULT_TAG", "unassigned"),
			AutoDescription: getEnv("IMPORT_AUTO_DESCRIPTION", "Auto-created by spreadsheet import"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getEnvAsBool("SCHEDULER_ENABLED", true),
			ReminderSpec: getEnv("SCHEDULER_REMINDER_SPEC", "@every 1m"),
			RecountSpec:  getEnv("SCHEDULER_RECOUNT_SPEC", "0 3 * * *"),
		},
		Log: LogConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "text"),
			File:      getEnv("LOG_FILE", ""),
			MaxSizeMB: getEnvAsInt("LOG_MAX_SIZE_MB", 64),
			MaxAge:    getEnvAsInt("LOG_MAX_AGE_DAYS", 7),
			Backups:   getEnvAsInt("LOG_MAX_BACKUPS", 7),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
			AuthPerMinute:     getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 5),
			ImportPerMinute:   getEnvAsInt("RATE_LIMIT_IMPORT_PER_MINUTE", 10),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@assetdesk.local"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
			AdminName:     getEnv("SEED_ADMIN_NAME", "Administrator"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Import.DefaultTag == "" {
		return fmt.Errorf("IMPORT_DEFAULT_TAG must not be empty")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
