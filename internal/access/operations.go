package access

import (
	"context"

	"freightdesk/internal/model"
	"freightdesk/internal/resource"
)

type (
	ListFunc[T any]   func(ctx context.Context, query string) model.Envelope[[]T]
	GetFunc[T any]    func(ctx context.Context, id, query string) model.Envelope[T]
	CreateFunc[T any] func(ctx context.Context, payload any) model.Envelope[T]
	UpdateFunc[T any] func(ctx context.Context, id string, payload any) model.Envelope[T]
	DeleteFunc[T any] func(ctx context.Context, id string) model.Envelope[T]
	ActionFunc[T any] func(ctx context.Context, id string) model.Envelope[T]
)

// Operations are the backend functions registered under one service name.
// Any slot may be left nil; calling it resolves to "Service not available".
type Operations[T any] struct {
	GetAll  ListFunc[T]
	GetByID GetFunc[T]
	Create  CreateFunc[T]
	Update  UpdateFunc[T]
	Delete  DeleteFunc[T]
	Actions map[string]ActionFunc[T]
}

// Action names understood by FromResource and the load operations.
const (
	ActionToggleActive = "toggle-active"
	ActionRefreshAge   = "refresh-age"
)

// FromResource fills every slot from a collection's resource functions.
func FromResource[T any](r *resource.Resource[T]) Operations[T] {
	return Operations[T]{
		GetAll:  r.List,
		GetByID: r.Get,
		Create:  r.Create,
		Update:  r.Update,
		Delete:  r.Delete,
		Actions: map[string]ActionFunc[T]{
			ActionToggleActive: r.ToggleActive,
		},
	}
}

func LoadOperations(l *resource.Loads) Operations[model.Load] {
	ops := FromResource(l.Resource)
	ops.Actions[ActionRefreshAge] = l.RefreshAge
	return ops
}
