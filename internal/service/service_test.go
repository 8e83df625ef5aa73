package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"freightdesk/internal/model"
	"freightdesk/internal/repository"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newRecordService(t *testing.T) (*RecordService, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	svc := NewRecordService(store, 100)
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func mustCreate(t *testing.T, svc *RecordService, collection string, body model.Record) model.Record {
	t.Helper()

	rec, err := svc.Create(context.Background(), collection, body)
	require.NoError(t, err)
	return rec
}

func userBody(email string) model.Record {
	return model.Record{
		"firstName":       "Dana",
		"lastName":        "Ruiz",
		"email":           email,
		"role":            "dispatcher",
		"password":        "s3cret-pass",
		"confirmPassword": "s3cret-pass",
	}
}
