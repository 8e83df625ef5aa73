package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"freightdesk/internal/config"
	"freightdesk/internal/handler"
	"freightdesk/internal/metrics"
	"freightdesk/internal/middleware"
	"freightdesk/internal/model"
)

const transferIdleTimeout = 30 * time.Second

type Handlers struct {
	Auth    *handler.AuthHandler
	Records *handler.RecordHandler
	Loads   *handler.LoadHandler
	// Audit and AuditLog are nil when the write trail is disabled.
	Audit    *handler.AuditHandler
	AuditLog middleware.AuditLog
	// Health reports backing store readiness; nil means always ready.
	Health func(context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Health != nil {
			if err := h.Health(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("database unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	adminWrites := adminOnlyCollections(authMiddleware, model.CollectionUsers, model.CollectionRoles)
	audited := func(collection string, action string) func(http.Handler) http.Handler {
		if h.AuditLog == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.Audit(h.AuditLog, collection, action)
	}

	r.Route("/api/v1", func(api chi.Router) {
		// Document transfers stream, so they bypass the buffering timeout.
		api.Group(func(docs chi.Router) {
			docs.Use(authMiddleware.RequireAuth)
			docs.Use(middleware.TransferTimeout(cfg.ServerWriteTimeout, transferIdleTimeout))

			docs.With(audited(model.CollectionLoads, model.AuditUploadDocument)).Post("/loads/{id}/documents", h.Loads.UploadDocument)
			docs.Get("/loads/{id}/documents/{docId}", h.Loads.DownloadDocument)
		})

		api.Group(func(rest chi.Router) {
			rest.Use(middleware.Timeout(cfg.RequestTimeout))

			rest.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", h.Auth.Login)
				auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
				auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			})

			rest.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)

				if h.Audit != nil {
					protected.With(authMiddleware.RequireRoles("admin")).Get("/"+model.AuditLog, h.Audit.List)
				}

				protected.With(audited(model.CollectionLoads, model.AuditRefreshAge)).Post("/loads/{id}/refresh-age", h.Loads.RefreshAge)

				protected.Get("/{collection}", h.Records.List)
				protected.Get("/{collection}/export", h.Records.Export)
				protected.Get("/{collection}/{id}", h.Records.Get)
				// audit runs first so rejected writes are recorded too
				protected.With(audited("", model.AuditCreate), adminWrites).Post("/{collection}", h.Records.Create)
				protected.With(audited("", model.AuditUpdate), adminWrites).Put("/{collection}/{id}", h.Records.Update)
				protected.With(audited("", model.AuditToggleActive), adminWrites).Patch("/{collection}/{id}/toggle-active", h.Records.ToggleActive)
				protected.With(audited("", model.AuditDelete), adminWrites).Delete("/{collection}/{id}", h.Records.Delete)
			})
		})
	})

	return r
}

// adminOnlyCollections restricts writes on the named collections to admins.
// It runs after routing so the collection parameter is known.
func adminOnlyCollections(auth *middleware.AuthMiddleware, collections ...string) func(http.Handler) http.Handler {
	restricted := map[string]struct{}{}
	for _, c := range collections {
		restricted[c] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		guarded := auth.RequireRoles("admin")(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := restricted[chi.URLParam(r, "collection")]; ok {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
