// Package resource holds the thin functions that reach backend records.
// Every function resolves to a model.Envelope; none of them return errors.
package resource

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"freightdesk/internal/model"
	"freightdesk/internal/transport"
)

// Resource is the CRUD surface of one backend collection.
type Resource[T any] struct {
	caller     Caller
	collection string
}

func New[T any](caller Caller, collection string) *Resource[T] {
	return &Resource[T]{caller: caller, collection: strings.Trim(collection, "/")}
}

func (r *Resource[T]) Collection() string {
	return r.collection
}

func (r *Resource[T]) path(parts ...string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(r.collection)
	for _, p := range parts {
		b.WriteString("/")
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// List fetches one page. query is an encoded list query.
func (r *Resource[T]) List(ctx context.Context, query string) model.Envelope[[]T] {
	return call[[]T](ctx, r.caller, transport.Request{
		Method: http.MethodGet,
		Path:   r.path(),
		Query:  query,
	})
}

func (r *Resource[T]) Get(ctx context.Context, id, query string) model.Envelope[T] {
	return call[T](ctx, r.caller, transport.Request{
		Method: http.MethodGet,
		Path:   r.path(id),
		Query:  query,
	})
}

func (r *Resource[T]) Create(ctx context.Context, payload any) model.Envelope[T] {
	return call[T](ctx, r.caller, transport.Request{
		Method: http.MethodPost,
		Path:   r.path(),
		JSON:   payload,
	})
}

func (r *Resource[T]) Update(ctx context.Context, id string, payload any) model.Envelope[T] {
	return call[T](ctx, r.caller, transport.Request{
		Method: http.MethodPut,
		Path:   r.path(id),
		JSON:   payload,
	})
}

func (r *Resource[T]) Delete(ctx context.Context, id string) model.Envelope[T] {
	return call[T](ctx, r.caller, transport.Request{
		Method: http.MethodDelete,
		Path:   r.path(id),
	})
}

func (r *Resource[T]) ToggleActive(ctx context.Context, id string) model.Envelope[T] {
	return call[T](ctx, r.caller, transport.Request{
		Method: http.MethodPatch,
		Path:   r.path(id, "toggle-active"),
	})
}

// Export downloads the filtered list as a file.
func (r *Resource[T]) Export(ctx context.Context, query string) model.Envelope[model.Blob] {
	return blob(ctx, r.caller, transport.Request{
		Method: http.MethodGet,
		Path:   r.path("export"),
		Query:  query,
		Accept: "text/csv",
	}, r.collection+".csv")
}

// Loads adds the dispatch-specific verbs to the load collection.
type Loads struct {
	*Resource[model.Load]
}

func NewLoads(caller Caller) *Loads {
	return &Loads{Resource: New[model.Load](caller, model.CollectionLoads)}
}

// RefreshAge resets the posted time the load's age is measured from.
func (l *Loads) RefreshAge(ctx context.Context, id string) model.Envelope[model.Load] {
	return call[model.Load](ctx, l.caller, transport.Request{
		Method: http.MethodPost,
		Path:   l.path(id, "refresh-age"),
	})
}

func (l *Loads) UploadDocument(ctx context.Context, id, filename string, content io.Reader) model.Envelope[model.Document] {
	return call[model.Document](ctx, l.caller, transport.Request{
		Method: http.MethodPost,
		Path:   l.path(id, "documents"),
		Multipart: &transport.Multipart{
			Field:    "file",
			Filename: filename,
			Content:  content,
		},
	})
}

func (l *Loads) DownloadDocument(ctx context.Context, id, docID string) model.Envelope[model.Blob] {
	return blob(ctx, l.caller, transport.Request{
		Method: http.MethodGet,
		Path:   l.path(id, "documents", docID),
		Accept: "*/*",
	}, docID)
}

type Auth struct {
	caller Caller
}

func NewAuth(caller Caller) *Auth {
	return &Auth{caller: caller}
}

func (a *Auth) Login(ctx context.Context, email, password string) model.Envelope[model.LoginResult] {
	return call[model.LoginResult](ctx, a.caller, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		JSON:   model.LoginRequest{Email: email, Password: password},
	})
}

func (a *Auth) Me(ctx context.Context) model.Envelope[model.User] {
	return call[model.User](ctx, a.caller, transport.Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
	})
}

func (a *Auth) Logout(ctx context.Context) model.Envelope[struct{}] {
	return call[struct{}](ctx, a.caller, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
	})
}

// API bundles the typed resources of every collection.
type API struct {
	Auth       *Auth
	Loads      *Loads
	Carriers   *Resource[model.Carrier]
	Customers  *Resource[model.Customer]
	Shippers   *Resource[model.Shipper]
	Consignees *Resource[model.Consignee]
	Trucks     *Resource[model.Truck]
	Quotes     *Resource[model.Quote]
	Roles      *Resource[model.Role]
	Users      *Resource[model.User]
	Brokers    *Resource[model.Broker]
	// Audit is the admin-only write trail; it only supports List.
	Audit *Resource[model.Record]

	caller Caller
}

func NewAPI(caller Caller) *API {
	return &API{
		Auth:       NewAuth(caller),
		Loads:      NewLoads(caller),
		Carriers:   New[model.Carrier](caller, model.CollectionCarriers),
		Customers:  New[model.Customer](caller, model.CollectionCustomers),
		Shippers:   New[model.Shipper](caller, model.CollectionShippers),
		Consignees: New[model.Consignee](caller, model.CollectionConsignees),
		Trucks:     New[model.Truck](caller, model.CollectionTrucks),
		Quotes:     New[model.Quote](caller, model.CollectionQuotes),
		Roles:      New[model.Role](caller, model.CollectionRoles),
		Users:      New[model.User](caller, model.CollectionUsers),
		Brokers:    New[model.Broker](caller, model.CollectionBrokers),
		Audit:      New[model.Record](caller, model.AuditLog),
		caller:     caller,
	}
}

// Records returns an untyped view of any collection, used where the row
// shape is not known ahead of time.
func (a *API) Records(collection string) (*Resource[model.Record], error) {
	if !model.IsCollection(collection) {
		return nil, model.ErrUnknownCollection
	}
	return New[model.Record](a.caller, collection), nil
}
