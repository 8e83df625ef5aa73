//go:build integration

package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"freightdesk/internal/app"
	"freightdesk/internal/config"
	"freightdesk/internal/resource"
	"freightdesk/internal/session"
	"freightdesk/internal/transport"
)

const (
	adminEmail    = "admin@freightdesk.local"
	adminPassword = "admin-pass-1"
)

func sandboxConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		ServerPort:         "0",
		ServerReadTimeout:  15 * time.Second,
		ServerWriteTimeout: 30 * time.Second,
		ServerIdleTimeout:  120 * time.Second,
		RequestTimeout:     5 * time.Second,
		LogLevel:           "error",
		DocumentRoot:       t.TempDir(),
		MaxUploadSize:      1 << 20,
		JWTSecret:          "integration-secret",
		JWTTTL:             time.Hour,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       -1,
		AuthRateLimitRPM:   -1,
		MaxPageSize:        100,
		AdminEmail:         adminEmail,
		AdminPassword:      adminPassword,
	}
}

func newSandbox(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server
}

// client is the console stack without the terminal: a session over an
// in-memory store, the transport and the resource functions.
type client struct {
	session *session.Context
	api     *resource.API
	caller  *transport.Client
}

func newClient(t *testing.T, server *httptest.Server) *client {
	t.Helper()

	sess := session.Bootstrap(session.NewMemoryStore())
	caller, err := transport.New(transport.Config{
		BaseURL: server.URL + "/api/v1",
		Timeout: 10 * time.Second,
		Token:   sess.Token,
	})
	require.NoError(t, err)

	return &client{session: sess, api: resource.NewAPI(caller), caller: caller}
}

func newSignedInClient(t *testing.T, server *httptest.Server) *client {
	t.Helper()

	c := newClient(t, server)
	env := c.api.Auth.Login(context.Background(), adminEmail, adminPassword)
	require.True(t, env.Success, env.Message)
	require.NoError(t, c.session.Login(env.Data.Token, env.Data.User))
	return c
}
