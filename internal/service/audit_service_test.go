package service

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/model"
)

func TestAuditService_QueryNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")
	audit, err := NewAuditService(path)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, action := range []string{model.AuditCreate, model.AuditUpdate, model.AuditDelete} {
		audit.Log(model.AuditEntry{
			ID:         action,
			Action:     action,
			Collection: model.CollectionLoads,
			Status:     model.AuditSuccess,
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	audit.Log(model.AuditEntry{
		ID:         "denied",
		Action:     model.AuditCreate,
		Collection: model.CollectionRoles,
		Status:     model.AuditFailure,
		StatusCode: 403,
		OccurredAt: base.Add(4 * time.Hour),
	})

	params, err := ParseListParams(url.Values{"limit": {"2"}}, 100)
	require.NoError(t, err)
	page, meta, err := audit.Query(params)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "denied", page[0].ID())
	assert.Equal(t, model.AuditDelete, page[1].ID())
	assert.Equal(t, 4, meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)

	params, err = ParseListParams(url.Values{
		"status":    {"success"},
		"dateField": {"occurredAt"},
		"fromDate":  {base.Add(30 * time.Minute).Format(time.RFC3339)},
		"sort":      {"occurredAt:asc"},
	}, 100)
	require.NoError(t, err)
	page, _, err = audit.Query(params)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, model.AuditUpdate, page[0].ID())
	assert.Equal(t, model.AuditDelete, page[1].ID())
}

func TestAuditService_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(path, []byte("not json\n\n"), 0o644))

	audit, err := NewAuditService(path)
	require.NoError(t, err)
	audit.Log(model.AuditEntry{ID: "a-1", Action: model.AuditRefreshAge, Status: model.AuditSuccess})

	params, err := ParseListParams(url.Values{}, 100)
	require.NoError(t, err)
	page, meta, err := audit.Query(params)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, model.AuditRefreshAge, page[0].String("action"))
	assert.Equal(t, 1, meta.TotalItems)
}

func TestAuditService_NilLogIsNoop(t *testing.T) {
	var audit *AuditService
	assert.NotPanics(t, func() { audit.Log(model.AuditEntry{Action: model.AuditDelete}) })
}
