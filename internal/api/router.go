package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/docservice"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AuthEnabled enforces Bearer token auth on write routes.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// MaxUploadBytes bounds POST /assets.
	MaxUploadBytes int64
}

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; writes sit behind the auth middleware.
func NewRouter(svc *docservice.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc)
	ah := NewAssetHandler(svc, opts.MaxUploadBytes)

	r := chi.NewRouter()

	// Projects, read side.
	r.Get("/projects", h.ListProjects)
	r.Get("/projects/{slug}", h.GetProject)
	r.Get("/projects/{slug}/article", h.GetArticle)
	r.Get("/projects/{slug}/toc", h.GetTOC)

	// Search.
	r.Get("/search", h.Search)
	r.Get("/references", h.References)

	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

		r.Post("/projects", h.CreateProject)
		r.Put("/projects/{slug}", h.SaveProject)
		r.Post("/projects/{slug}/rename", h.RenameProject)
		r.Delete("/projects/{slug}", h.DeleteProject)

		r.Post("/assets", ah.Upload)
		r.Delete("/assets/{name}", ah.Delete)
	})

	return r
}

// MountAssets serves stored assets at GET /assets/{name} on r.
func MountAssets(r chi.Router, svc *docservice.Service) {
	ah := NewAssetHandler(svc, 0)
	r.Get("/assets/{name}", ah.ServeFile)
}
