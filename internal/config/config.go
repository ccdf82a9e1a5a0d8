package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port               string
	CORSAllowedOrigins string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int
	DBAcquireTimeout  time.Duration
	DBLogLevel        string

	// Credential configuration
	JWTSecret            string
	JWTExpiration        time.Duration
	JWTRefreshExpiration time.Duration
	AuthRateLimit        int
	AuthRateBurst        int

	// Document storage configuration
	StorageDriver    string // local, cloudinary
	UploadDir        string
	PublicBaseURL    string
	CloudinaryURL    string
	CloudinaryFolder string
	StorageTimeout   time.Duration

	// Role cache configuration
	RedisURL     string
	RoleCacheTTL time.Duration

	// Bootstrap admin, seeded once when all three are set
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		DBType:             getEnv("DB_TYPE", "mysql"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBDatabase:         getEnv("DB_DATABASE", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:  getEnvAsInt("DB_CONNECTION_LIMIT", 10),
		DBAcquireTimeout:   getEnvAsDuration("DB_ACQUIRE_TIMEOUT", 10*time.Second, time.Millisecond),
		DBLogLevel:         getEnv("DB_LOG_LEVEL", "warn"),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTExpiration:        getEnvAsDuration("JWT_EXPIRATION", 12*time.Hour, time.Second),
		JWTRefreshExpiration: getEnvAsDuration("JWT_REFRESH_EXPIRATION", 24*time.Hour, time.Second),
		AuthRateLimit:        getEnvAsInt("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:        getEnvAsInt("AUTH_RATE_BURST", 10),

		StorageDriver:    getEnv("STORAGE_DRIVER", "local"),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", ""),
		CloudinaryURL:    getEnv("CLOUDINARY_URL", ""),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "proyectos_pdf"),
		StorageTimeout:   getEnvAsDuration("STORAGE_TIMEOUT", 30*time.Second, time.Second),

		RedisURL:     getEnv("REDIS_URL", ""),
		RoleCacheTTL: getEnvAsDuration("ROLE_CACHE_TTL", 5*time.Minute, time.Second),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBUser == "" && cfg.DBType != "sqlite" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.StorageDriver {
	case "local":
	case "cloudinary":
		if cfg.CloudinaryURL == "" {
			return nil, fmt.Errorf("CLOUDINARY_URL is required when STORAGE_DRIVER is cloudinary")
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}

	return cfg, nil
}

// AllowedOrigins returns the CORS origin list in the form the cors middleware expects
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}

// AdminSeedEnabled reports whether a bootstrap admin account is configured
func (c *Config) AdminSeedEnabled() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value.
// Bare integers are read in the given unit.
func getEnvAsDuration(key string, defaultValue, unit time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := ParseDuration(valueStr, unit)
	if err != nil {
		return defaultValue
	}
	return value
}

// ParseDuration accepts bare integers (in unit), Go durations ("90m", "12h")
// and day counts ("7d").
func ParseDuration(s string, unit time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * unit, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}
