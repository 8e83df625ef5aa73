package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/model"
)

func newAuthService(t *testing.T) (*AuthService, *RecordService) {
	t.Helper()

	records, store := newRecordService(t)
	auth, err := NewAuthService(store, records, "test-secret", time.Hour)
	require.NoError(t, err)
	auth.now = func() time.Time { return fixedNow }
	return auth, records
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	t.Parallel()

	records, store := newRecordService(t)
	_, err := NewAuthService(store, records, "  ", time.Hour)
	require.Error(t, err)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials issue a token", func(t *testing.T) {
		auth, records := newAuthService(t)
		user := mustCreate(t, records, model.CollectionUsers, userBody("dana@example.com"))

		result, err := auth.Login(ctx, " dana@example.com ", "s3cret-pass")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, user.ID(), result.User.ID())
		assert.NotContains(t, result.User, "passwordHash")

		claims, err := auth.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID(), claims.UserID)
		assert.Equal(t, "dana@example.com", claims.Email)
		assert.Equal(t, "dispatcher", claims.Role)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		auth, records := newAuthService(t)
		mustCreate(t, records, model.CollectionUsers, userBody("dana@example.com"))

		_, err := auth.Login(ctx, "dana@example.com", "wrong-pass")
		requireStatus(t, err, 401, "Invalid email or password")

		_, err = auth.Login(ctx, "nobody@example.com", "s3cret-pass")
		requireStatus(t, err, 401, "Invalid email or password")
	})

	t.Run("missing fields", func(t *testing.T) {
		auth, _ := newAuthService(t)

		_, err := auth.Login(ctx, "", "")
		requireStatus(t, err, 400, "")
	})

	t.Run("disabled account", func(t *testing.T) {
		auth, records := newAuthService(t)
		user := mustCreate(t, records, model.CollectionUsers, userBody("dana@example.com"))
		_, err := records.ToggleActive(ctx, model.CollectionUsers, user.ID())
		require.NoError(t, err)

		_, err = auth.Login(ctx, "dana@example.com", "s3cret-pass")
		requireStatus(t, err, 403, "Account is disabled")
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	auth, records := newAuthService(t)
	mustCreate(t, records, model.CollectionUsers, userBody("dana@example.com"))
	result, err := auth.Login(ctx, "dana@example.com", "s3cret-pass")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ValidateToken("not-a-token")
		requireStatus(t, err, 401, "")
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewAuthService(records.store, records, "other-secret", time.Hour)
		require.NoError(t, err)
		other.now = auth.now

		_, err = other.ValidateToken(result.Token)
		requireStatus(t, err, 401, "")
	})

	t.Run("expired", func(t *testing.T) {
		late, err := NewAuthService(records.store, records, "test-secret", time.Hour)
		require.NoError(t, err)
		late.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }

		_, err = late.ValidateToken(result.Token)
		requireStatus(t, err, 401, "Invalid or expired token")
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	auth, records := newAuthService(t)
	mustCreate(t, records, model.CollectionUsers, userBody("dana@example.com"))

	first, err := auth.Login(ctx, "dana@example.com", "s3cret-pass")
	require.NoError(t, err)
	second, err := auth.Login(ctx, "dana@example.com", "s3cret-pass")
	require.NoError(t, err)

	auth.Logout(first.Token)

	_, err = auth.ValidateToken(first.Token)
	requireStatus(t, err, 401, "Session has ended")

	_, err = auth.ValidateToken(second.Token)
	require.NoError(t, err, "other sessions stay valid")

	auth.Logout("garbage")
}

func TestAuthService_MeAndEnsureAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	auth, _ := newAuthService(t)

	require.NoError(t, auth.EnsureAdmin(ctx, "admin@freightdesk.local", "admin-pass-1"))
	require.NoError(t, auth.EnsureAdmin(ctx, "admin@freightdesk.local", "ignored-pass"))

	result, err := auth.Login(ctx, "admin@freightdesk.local", "admin-pass-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", result.User.String("role"))

	claims, err := auth.ValidateToken(result.Token)
	require.NoError(t, err)

	me, err := auth.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "System", me.String("firstName"))
	assert.NotContains(t, me, "passwordHash")
}
