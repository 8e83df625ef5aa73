// Package session is the signed-in user's context: token, user and roles,
// with an explicit login/logout lifecycle backed by a persisted Store.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"freightdesk/internal/model"
)

const (
	KeyToken = "auth.token"
	KeyUser  = "auth.user"

	// PermissionAll grants every permission.
	PermissionAll = "*"
)

var ErrNoSession = errors.New("not signed in")

type Context struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *model.User
	roles []model.Role
}

// Bootstrap restores the session persisted in store. An absent, malformed
// or expired token yields a signed-out context and clears the stored keys.
func Bootstrap(store Store) *Context {
	c := &Context{
		store:  store,
		logger: slog.Default().With("component", "session"),
		now:    time.Now,
	}
	c.restore()
	return c
}

func (c *Context) restore() {
	token, ok := c.store.Get(KeyToken)
	if !ok || strings.TrimSpace(token) == "" {
		return
	}

	if err := checkToken(token, c.now()); err != nil {
		c.logger.Info("discarding stored session", "reason", err)
		c.clear()
		return
	}

	raw, ok := c.store.Get(KeyUser)
	if !ok {
		c.logger.Info("discarding stored session", "reason", "user missing")
		c.clear()
		return
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		c.logger.Info("discarding stored session", "reason", err)
		c.clear()
		return
	}

	c.token = token
	c.user = &user
}

func (c *Context) clear() {
	if err := c.store.Delete(KeyToken, KeyUser); err != nil {
		c.logger.Warn("clear stored session", "error", err)
	}
}

// checkToken reads exp without verifying the signature; only the backend
// can verify, the client just avoids sending a token it knows is dead.
func checkToken(token string, now time.Time) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("read token expiry: %w", err)
	}
	if exp != nil && !now.Before(exp.Time) {
		return model.ErrTokenExpired
	}

	return nil
}

// Login installs and persists a new session.
func (c *Context) Login(token string, user model.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("empty token: %w", model.ErrInvalidInput)
	}
	if err := checkToken(token, c.now()); err != nil {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := c.store.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	c.token = token
	c.user = &user
	c.roles = nil
	return nil
}

// Logout drops the session in memory and in the store.
func (c *Context) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.user = nil
	c.roles = nil

	if err := c.store.Delete(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Authenticated reports a present, unexpired token.
func (c *Context) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != "" && checkToken(c.token, c.now()) == nil
}

// Token is the bearer token to send, or "" when signed out or expired.
func (c *Context) Token() string {
	if !c.Authenticated() {
		return ""
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Context) User() (model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.user == nil {
		return model.User{}, false
	}
	return *c.user, true
}

// SetRoles caches the role catalogue used by HasPermission.
func (c *Context) SetRoles(roles []model.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles = slices.Clone(roles)
}

func (c *Context) Roles() []model.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.roles)
}

// HasPermission is a client-side hint for hiding actions; the backend still
// enforces access.
func (c *Context) HasPermission(permission string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.user == nil {
		return false
	}

	for _, role := range c.roles {
		if !role.IsActive || (role.Name != c.user.Role && role.ID != c.user.Role) {
			continue
		}
		if slices.Contains(role.Permissions, PermissionAll) || slices.Contains(role.Permissions, permission) {
			return true
		}
	}

	return false
}

// Preferences returns the persisted settings of one screen.
func (c *Context) Preferences(screen string) *Preferences {
	return &Preferences{store: c.store, screen: screen}
}

// Require returns ErrNoSession unless the context is authenticated.
func (c *Context) Require() error {
	if !c.Authenticated() {
		return ErrNoSession
	}
	return nil
}
