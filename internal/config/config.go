package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Tasks    TaskConfig
	Notify   NotifyConfig
	Log      LogConfig
	Seed     SeedConfig

	// EnvFileMissing is set when no .env file was found
	EnvFileMissing bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string // mysql, postgres or memory
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	QueryTimeout time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// AuthConfig holds registration settings.
// RateLimit caps register/login requests per IP and minute; 0 disables it.
type AuthConfig struct {
	AdminRegistrationCode string
	RateLimit             int
}

// RedisConfig holds redis configuration. An empty Addr keeps the
// rating aggregation lock in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// TaskConfig holds task lifecycle settings.
// OverdueSchedule is a cron spec; empty disables the overdue sweep.
type TaskConfig struct {
	OverdueSchedule string
}

// NotifyConfig holds alert notification settings
type NotifyConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// SeedConfig holds the bootstrap admin account. Seeding is skipped when empty.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional in production
	envMissing := godotenv.Load() != nil

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	database, err := loadDatabaseConfig(appMode)
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:        appMode,
		Port:           getEnv("PORT", "5000"),
		Database:       database,
		JWT:            loadJWTConfig(appMode),
		Cookie:         loadCookieConfig(appMode),
		Auth:           loadAuthConfig(),
		Redis:          loadRedisConfig(),
		Tasks:          TaskConfig{OverdueSchedule: getEnv("TASK_OVERDUE_SCHEDULE", "")},
		Notify:         NotifyConfig{WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""), Timeout: getDuration("NOTIFY_TIMEOUT", 5*time.Second)},
		Log:            LogConfig{Level: getEnv("LOG_LEVEL", "info"), Format: getEnv("LOG_FORMAT", defaultLogFormat(appMode))},
		Seed:           SeedConfig{AdminEmail: getEnv("SEED_ADMIN_EMAIL", ""), AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "")},
		EnvFileMissing: envMissing,
	}

	if config.IsProd() && config.JWT.Secret == defaultJWTSecret {
		return nil, fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}

	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) (DatabaseConfig, error) {
	prefix := modePrefix(mode)

	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))
	defaultPort := "3306"
	switch driver {
	case "mysql", "memory":
	case "postgres":
		defaultPort = "5432"
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql', 'postgres' or 'memory')", driver)
	}

	return DatabaseConfig{
		Driver:       driver,
		Host:         getEnv(prefix+"DB_HOST", "localhost"),
		Port:         getEnv(prefix+"DB_PORT", defaultPort),
		User:         getEnv(prefix+"DB_USER", "root"),
		Password:     getEnv(prefix+"DB_PASS", ""),
		DBName:       getEnv(prefix+"DB_NAME", "nyumbakumi"),
		QueryTimeout: getDuration("DB_QUERY_TIMEOUT", 5*time.Second),
	}, nil
}

const defaultJWTSecret = "default_secret"

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "1440"))
	if accessMins <= 0 {
		accessMins = 1440
	}

	return JWTConfig{
		Secret:          getEnv(modePrefix(mode)+"JWT_SECRET", defaultJWTSecret),
		AccessTokenMins: accessMins,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadAuthConfig() AuthConfig {
	limit, err := strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "5"))
	if err != nil || limit < 0 {
		limit = 5
	}

	return AuthConfig{
		AdminRegistrationCode: getEnv("ADMIN_REGISTRATION_CODE", "admin123"),
		RateLimit:             limit,
	}
}

func loadRedisConfig() RedisConfig {
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		LockTTL:  getDuration("RATING_LOCK_TTL", 10*time.Second),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func defaultLogFormat(mode string) string {
	if mode == "prod" {
		return "json"
	}
	return "console"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a Go duration ("5s", "1m"), falling back on bad input
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:3000"
	}
	return origins
}
