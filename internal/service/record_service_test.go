package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/model"
	"freightdesk/pkg/apierror"
)

func requireStatus(t *testing.T, err error, status int, message string) {
	t.Helper()

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.HTTPStatus)
	if message != "" {
		assert.Equal(t, message, apiErr.Message)
	}
}

func TestRecordService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stamps identity and defaults", func(t *testing.T) {
		svc, _ := newRecordService(t)

		rec := mustCreate(t, svc, model.CollectionCarriers, model.Record{"companyName": "Blue Line"})
		assert.Len(t, rec.ID(), 36)
		assert.Equal(t, "2026-03-10T12:00:00Z", rec.String("createdAt"))
		assert.Equal(t, rec.String("createdAt"), rec.String("updatedAt"))
		assert.Equal(t, true, rec["isActive"])
	})

	t.Run("explicit inactive is kept", func(t *testing.T) {
		svc, _ := newRecordService(t)

		rec := mustCreate(t, svc, model.CollectionTrucks, model.Record{"isActive": false})
		assert.Equal(t, false, rec["isActive"])
	})

	t.Run("loads get a number, status and postedAt", func(t *testing.T) {
		svc, _ := newRecordService(t)

		rec := mustCreate(t, svc, model.CollectionLoads, model.Record{"commodity": "Produce"})
		assert.Equal(t, "FD-"+strings.ToUpper(rec.ID()[:8]), rec.String("loadNumber"))
		assert.Equal(t, string(model.LoadPending), rec.String("status"))
		assert.Equal(t, rec.String("createdAt"), rec.String("postedAt"))
	})

	t.Run("unknown collection", func(t *testing.T) {
		svc, _ := newRecordService(t)

		_, err := svc.Create(ctx, "invoices", model.Record{})
		requireStatus(t, err, 404, "Unknown collection")
	})
}

func TestRecordService_Users(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("password is hashed and hidden", func(t *testing.T) {
		svc, store := newRecordService(t)

		rec := mustCreate(t, svc, model.CollectionUsers, userBody("dana@example.com"))
		assert.NotContains(t, rec, "password")
		assert.NotContains(t, rec, "confirmPassword")
		assert.NotContains(t, rec, "passwordHash")

		stored, err := store.Get(ctx, model.CollectionUsers, rec.ID())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stored.String("passwordHash"), "$2"))

		got, err := svc.Get(ctx, model.CollectionUsers, rec.ID())
		require.NoError(t, err)
		assert.NotContains(t, got, "passwordHash")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _ := newRecordService(t)
		mustCreate(t, svc, model.CollectionUsers, userBody("dana@example.com"))

		_, err := svc.Create(ctx, model.CollectionUsers, userBody("DANA@example.com"))
		requireStatus(t, err, 409, "Email already exists")
	})

	t.Run("password mismatch", func(t *testing.T) {
		svc, _ := newRecordService(t)
		body := userBody("dana@example.com")
		body["confirmPassword"] = "something-else"

		_, err := svc.Create(ctx, model.CollectionUsers, body)
		requireStatus(t, err, 400, "Passwords do not match")
	})

	t.Run("short password", func(t *testing.T) {
		svc, _ := newRecordService(t)
		body := userBody("dana@example.com")
		body["password"] = "short"
		body["confirmPassword"] = "short"

		_, err := svc.Create(ctx, model.CollectionUsers, body)
		requireStatus(t, err, 400, "")
	})

	t.Run("update keeps hash without a new password", func(t *testing.T) {
		svc, store := newRecordService(t)
		rec := mustCreate(t, svc, model.CollectionUsers, userBody("dana@example.com"))
		before, _ := store.Get(ctx, model.CollectionUsers, rec.ID())

		updated, err := svc.Update(ctx, model.CollectionUsers, rec.ID(), model.Record{"lastName": "Ruiz-Ortega"})
		require.NoError(t, err)
		assert.Equal(t, "Ruiz-Ortega", updated.String("lastName"))

		after, _ := store.Get(ctx, model.CollectionUsers, rec.ID())
		assert.Equal(t, before.String("passwordHash"), after.String("passwordHash"))
	})

	t.Run("update may keep its own email", func(t *testing.T) {
		svc, _ := newRecordService(t)
		rec := mustCreate(t, svc, model.CollectionUsers, userBody("dana@example.com"))
		other := mustCreate(t, svc, model.CollectionUsers, userBody("lee@example.com"))

		_, err := svc.Update(ctx, model.CollectionUsers, rec.ID(), model.Record{"email": "dana@example.com"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, model.CollectionUsers, other.ID(), model.Record{"email": "dana@example.com"})
		requireStatus(t, err, 409, "Email already exists")
	})
}

func TestRecordService_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecordService(t)

	rec := mustCreate(t, svc, model.CollectionLoads, model.Record{"commodity": "Produce", "rate": 1200.0})

	updated, err := svc.Update(ctx, model.CollectionLoads, rec.ID(), model.Record{
		"_id":       "hijacked",
		"createdAt": "1999-01-01T00:00:00Z",
		"rate":      1350.0,
	})
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), updated.ID())
	assert.Equal(t, rec.String("createdAt"), updated.String("createdAt"))
	assert.Equal(t, 1350.0, updated["rate"])
	assert.Equal(t, "Produce", updated.String("commodity"))

	_, err = svc.Update(ctx, model.CollectionLoads, "missing", model.Record{})
	requireStatus(t, err, 404, "")
}

func TestRecordService_ToggleAndRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecordService(t)

	carrier := mustCreate(t, svc, model.CollectionCarriers, model.Record{"companyName": "Blue Line"})
	toggled, err := svc.ToggleActive(ctx, model.CollectionCarriers, carrier.ID())
	require.NoError(t, err)
	assert.Equal(t, false, toggled["isActive"])

	toggled, err = svc.ToggleActive(ctx, model.CollectionCarriers, carrier.ID())
	require.NoError(t, err)
	assert.Equal(t, true, toggled["isActive"])

	load := mustCreate(t, svc, model.CollectionLoads, model.Record{})
	later := fixedNow.Add(90 * time.Minute)
	svc.now = func() time.Time { return later }

	refreshed, err := svc.RefreshAge(ctx, load.ID())
	require.NoError(t, err)
	assert.Equal(t, later.Format(time.RFC3339Nano), refreshed.String("postedAt"))
	assert.Equal(t, load.String("createdAt"), refreshed.String("createdAt"))
}

func TestRecordService_ListAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecordService(t)

	for _, name := range []string{"Cedar", "alder", "Birch"} {
		mustCreate(t, svc, model.CollectionShippers, model.Record{"name": name})
	}

	params := ListParams{Page: 1, Limit: 2}
	params.Sort.Key = "name"

	page, meta, err := svc.List(ctx, model.CollectionShippers, params)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "alder", page[0].String("name"))
	assert.Equal(t, "Birch", page[1].String("name"))
	assert.Equal(t, model.Pagination{Page: 1, Limit: 2, TotalPages: 2, TotalItems: 3}, meta)

	require.NoError(t, svc.Delete(ctx, model.CollectionShippers, page[0].ID()))
	_, err = svc.Get(ctx, model.CollectionShippers, page[0].ID())
	requireStatus(t, err, 404, "")
}

func TestRecordService_Documents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newRecordService(t)

	load := mustCreate(t, svc, model.CollectionLoads, model.Record{})

	_, err := svc.AttachDocument(ctx, load.ID(), model.Record{"_id": "d-1", "name": "bol.pdf"})
	require.NoError(t, err)

	doc, err := svc.Document(ctx, load.ID(), "d-1")
	require.NoError(t, err)
	assert.Equal(t, "bol.pdf", doc.String("name"))

	_, err = svc.Document(ctx, load.ID(), "d-2")
	requireStatus(t, err, 404, "Document not found")

	// documents cannot be replaced through a plain update
	updated, err := svc.Update(ctx, model.CollectionLoads, load.ID(), model.Record{"documents": []any{}})
	require.NoError(t, err)
	assert.Len(t, updated["documents"], 1)
}
