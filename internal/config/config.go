package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the sandbox backend configuration, read from the environment.
type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	LogLevel           string
	DatabaseURL        string
	DBMaxConns         int
	DocumentRoot       string
	MaxUploadSize      int64
	JWTSecret          string
	JWTTTL             time.Duration
	CORSOrigins        []string
	RateLimitRPM       int
	AuthRateLimitRPM   int
	MaxPageSize        int
	AdminEmail         string
	AdminPassword      string
	// AuditLogFile is empty when the write trail is disabled.
	AuditLogFile string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:         getInt("DB_MAX_CONNS", 10),
		DocumentRoot:       getEnv("DOCUMENT_ROOT", "./state/documents"),
		MaxUploadSize:      getInt64("MAX_UPLOAD_SIZE", 25<<20),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTTTL:             getDuration("JWT_TTL", 12*time.Hour),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 600),
		AuthRateLimitRPM:   getInt("AUTH_RATE_LIMIT_RPM", 20),
		MaxPageSize:        getInt("MAX_PAGE_SIZE", 100),
		AdminEmail:         getEnv("ADMIN_EMAIL", "admin@freightdesk.local"),
		AdminPassword:      strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		AuditLogFile:       optionalPath("AUDIT_LOG_FILE", "./state/audit.log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.DocumentRoot) == "" {
		return fmt.Errorf("DOCUMENT_ROOT cannot be empty")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	if c.MaxPageSize <= 0 {
		return fmt.Errorf("MAX_PAGE_SIZE must be positive")
	}

	if c.DatabaseURL != "" && c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}

	if c.AdminPassword != "" && len(c.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// optionalPath reads a path that "off" disables.
func optionalPath(key string, fallback string) string {
	v := getEnv(key, fallback)
	if strings.EqualFold(v, "off") {
		return ""
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
