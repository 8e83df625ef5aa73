// Package access is the generic data-access layer every screen calls
// through. A Hook routes a named call to its registered operation, tracks
// loading and the last error, and turns every outcome into toasts.
package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"freightdesk/internal/model"
	"freightdesk/internal/notify"
)

const (
	opGetAll  = "get all"
	opGetByID = "get by id"
	opCreate  = "create"
	opUpdate  = "update"
	opDelete  = "delete"
)

var defaultSuccess = map[string]string{
	opCreate: "Created successfully",
	opUpdate: "Updated successfully",
	opDelete: "Deleted successfully",
}

// Error is the failure recorded by the last unsuccessful call.
type Error struct {
	Service string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Hook[T any] struct {
	services map[string]Operations[T]
	notifier notify.Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	inflight int
	err      *Error
}

func New[T any](services map[string]Operations[T], notifier notify.Notifier) *Hook[T] {
	registered := make(map[string]Operations[T], len(services))
	for name, ops := range services {
		registered[name] = ops
	}

	return &Hook[T]{
		services: registered,
		notifier: notifier,
		logger:   slog.Default().With("component", "access"),
	}
}

// Loading reports whether any call through the hook is outstanding.
func (h *Hook[T]) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inflight > 0
}

// Err returns the failure of the most recent unsuccessful call, or nil once
// a later call has started.
func (h *Hook[T]) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err == nil {
		return nil
	}
	return h.err
}

// ErrMessage is Err as display text; empty when there is no error.
func (h *Hook[T]) ErrMessage() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err == nil {
		return ""
	}
	return h.err.Message
}

func (h *Hook[T]) GetData(ctx context.Context, service, query string) model.Envelope[[]T] {
	ops, ok := h.services[service]
	if !ok || ops.GetAll == nil {
		return unavailable[T, []T](h, service, opGetAll)
	}
	return run(ctx, h, service, opGetAll, false, func(ctx context.Context) model.Envelope[[]T] {
		return ops.GetAll(ctx, query)
	})
}

func (h *Hook[T]) GetDataByID(ctx context.Context, service, id, query string) model.Envelope[T] {
	ops, ok := h.services[service]
	if !ok || ops.GetByID == nil {
		return unavailable[T, T](h, service, opGetByID)
	}
	return run(ctx, h, service, opGetByID, false, func(ctx context.Context) model.Envelope[T] {
		return ops.GetByID(ctx, id, query)
	})
}

func (h *Hook[T]) CreateData(ctx context.Context, service string, payload any) model.Envelope[T] {
	ops, ok := h.services[service]
	if !ok || ops.Create == nil {
		return unavailable[T, T](h, service, opCreate)
	}
	return run(ctx, h, service, opCreate, true, func(ctx context.Context) model.Envelope[T] {
		return ops.Create(ctx, payload)
	})
}

func (h *Hook[T]) UpdateData(ctx context.Context, service, id string, payload any) model.Envelope[T] {
	ops, ok := h.services[service]
	if !ok || ops.Update == nil {
		return unavailable[T, T](h, service, opUpdate)
	}
	return run(ctx, h, service, opUpdate, true, func(ctx context.Context) model.Envelope[T] {
		return ops.Update(ctx, id, payload)
	})
}

func (h *Hook[T]) DeleteDataByID(ctx context.Context, service, id string) model.Envelope[T] {
	ops, ok := h.services[service]
	if !ok || ops.Delete == nil {
		return unavailable[T, T](h, service, opDelete)
	}
	return run(ctx, h, service, opDelete, true, func(ctx context.Context) model.Envelope[T] {
		return ops.Delete(ctx, id)
	})
}

// Perform runs a caller-defined verb such as toggle-active. Custom verbs
// are treated as writes.
func (h *Hook[T]) Perform(ctx context.Context, service, action, id string) model.Envelope[T] {
	ops, ok := h.services[service]
	var fn ActionFunc[T]
	if ok {
		fn = ops.Actions[action]
	}
	if fn == nil {
		return unavailable[T, T](h, service, action)
	}
	return run(ctx, h, service, action, true, func(ctx context.Context) model.Envelope[T] {
		return fn(ctx, id)
	})
}

func unavailable[T, R any](h *Hook[T], service, op string) model.Envelope[R] {
	msg := model.ErrServiceNotAvailable.Error()
	h.logger.Warn("operation not registered", "service", service, "op", op)

	h.mu.Lock()
	h.err = &Error{Service: service, Op: op, Message: msg, Err: model.ErrServiceNotAvailable}
	h.mu.Unlock()

	notify.Error(h.notifier, msg)
	return model.Failure[R](msg)
}

func run[T, R any](ctx context.Context, h *Hook[T], service, op string, write bool, invoke func(context.Context) model.Envelope[R]) model.Envelope[R] {
	h.begin()
	defer h.end()

	env := invoke(ctx)

	if env.Success {
		if write {
			notify.Success(h.notifier, successMessage(env.Message, op))
		}
		return env
	}

	// The caller abandoned this call; nobody is waiting for the outcome.
	if errors.Is(ctx.Err(), context.Canceled) {
		h.logger.Debug("call canceled", "service", service, "op", op)
		return env
	}

	msg := strings.TrimSpace(env.Message)
	if msg == "" {
		msg = "Something went wrong"
		env.Message = msg
	}

	h.mu.Lock()
	h.err = &Error{Service: service, Op: op, Message: msg}
	h.mu.Unlock()

	h.logger.Debug("call failed", "service", service, "op", op, "message", msg)
	notify.Error(h.notifier, msg)

	return env
}

func (h *Hook[T]) begin() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inflight++
	h.err = nil
}

func (h *Hook[T]) end() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inflight--
}

func successMessage(message, op string) string {
	if strings.TrimSpace(message) != "" {
		return message
	}
	if msg, ok := defaultSuccess[op]; ok {
		return msg
	}
	return "Done"
}
