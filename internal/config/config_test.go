package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "sandbox-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 600, cfg.RateLimitRPM)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestValidate_ShortAdminPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "sandbox-secret")
	t.Setenv("ADMIN_PASSWORD", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")
}

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("FREIGHTDESK_STATE_DIR", t.TempDir())

	cfg, err := LoadClient(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.PageSize)
}

func TestLoadClient_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "freightdesk.yaml")
	require.NoError(t, os.WriteFile(file, []byte("api_url: https://tms.example.com/api/v1\ntimeout: 5s\npage_size: 25\n"), 0o600))

	t.Setenv("FREIGHTDESK_STATE_DIR", dir)
	t.Setenv("FREIGHTDESK_PAGE_SIZE", "50")

	cfg, err := LoadClient(NewViper(), file)
	require.NoError(t, err)

	assert.Equal(t, "https://tms.example.com/api/v1", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 50, cfg.PageSize, "environment beats the config file")
}

func TestLoadClient_MissingExplicitFile(t *testing.T) {
	_, err := LoadClient(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadClient_Invalid(t *testing.T) {
	t.Setenv("FREIGHTDESK_STATE_DIR", t.TempDir())
	t.Setenv("FREIGHTDESK_API_URL", "localhost")

	_, err := LoadClient(NewViper(), "")
	assert.ErrorContains(t, err, "api_url")
}

func TestLoad_AuditLogCanBeDisabled(t *testing.T) {
	t.Setenv("JWT_SECRET", "sandbox-secret")
	t.Setenv("AUDIT_LOG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./state/audit.log", cfg.AuditLogFile)

	t.Setenv("AUDIT_LOG_FILE", "OFF")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuditLogFile)
}
