package repository

import (
	"context"

	"freightdesk/internal/model"
	"freightdesk/pkg/apierror"
)

// Store persists records by collection. Records come back in insertion order.
type Store interface {
	List(ctx context.Context, collection string) ([]model.Record, error)
	Get(ctx context.Context, collection string, id string) (model.Record, error)
	// FindBy matches a string field case-insensitively.
	FindBy(ctx context.Context, collection string, field string, value string) (model.Record, error)
	Insert(ctx context.Context, collection string, rec model.Record) error
	Replace(ctx context.Context, collection string, rec model.Record) error
	Delete(ctx context.Context, collection string, id string) error
}

func notFound(collection string, id string) error {
	return apierror.NotFound("Record not found", collection+"/"+id)
}
