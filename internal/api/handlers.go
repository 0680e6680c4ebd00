package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notModified answers a matching If-None-Match with 304 and sets the ETag.
func notModified(w http.ResponseWriter, r *http.Request, sum string) bool {
	etag := checksum.ETag(sum)
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && checksum.FromETag(inm) == sum {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects, newest first
//	@Tags			projects
//	@Produce		json
//	@Param			featured	query		bool	false	"Only featured projects"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	ProjectListResponse
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	featured, _ := strconv.ParseBool(q.Get("featured"))

	items, total, err := h.svc.ListDocuments(r.Context(), index.ListOptions{
		FeaturedOnly: featured,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(w, "list projects", err)
		return
	}
	if items == nil {
		items = []models.ProjectSummary{}
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: items, Total: total})
}

// GetProject handles GET /api/projects/{slug}.
//
//	@Summary		Get a single project with its blocks
//	@Tags			projects
//	@Produce		json
//	@Param			slug	path		string	true	"Project slug"
//	@Success		200		{object}	ProjectDetail
//	@Failure		404		{object}	errResponse
//	@Router			/projects/{slug} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.LoadDocument(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, "get project", err)
		return
	}
	if notModified(w, r, p.Checksum) {
		return
	}
	writeJSON(w, http.StatusOK, projectDetail(p))
}

// GetArticle handles GET /api/projects/{slug}/article.
//
//	@Summary		Render a project for reading
//	@Description	Returns rendered HTML, the table of contents, reading time and the scroll-tracking options readers should use.
//	@Tags			projects
//	@Produce		json
//	@Param			slug	path		string	true	"Project slug"
//	@Success		200		{object}	docservice.Article
//	@Failure		404		{object}	errResponse
//	@Router			/projects/{slug}/article [get]
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Article(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, "render article", err)
		return
	}
	if notModified(w, r, a.Checksum) {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetTOC handles GET /api/projects/{slug}/toc.
//
//	@Summary		Table of contents of a project
//	@Tags			projects
//	@Produce		json
//	@Param			slug	path		string	true	"Project slug"
//	@Success		200		{object}	TOCResponse
//	@Failure		404		{object}	errResponse
//	@Router			/projects/{slug}/toc [get]
func (h *Handler) GetTOC(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.TOC(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, "toc", err)
		return
	}
	writeJSON(w, http.StatusOK, TOCResponse{Items: items})
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a new project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ProjectRequest	true	"Project to create"
//	@Success		201		{object}	ProjectDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "create project", err)
		return
	}
	p, err := h.svc.CreateDocument(r.Context(), req.Project())
	if err != nil {
		writeError(w, "create project", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(p.Checksum))
	w.Header().Set("Location", "/api/projects/"+p.Slug)
	writeJSON(w, http.StatusCreated, projectDetail(p))
}

// SaveProject handles PUT /api/projects/{slug}.
//
//	@Summary		Save a project with optimistic concurrency
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			slug		path		string			true	"Project slug"
//	@Param			If-Match	header		string			false	"Checksum (ETag) of the version being replaced"
//	@Param			body		body		ProjectRequest	true	"Updated project"
//	@Success		200			{object}	ProjectDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{slug} [put]
func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req ProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "save project", err)
		return
	}
	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))
	p, err := h.svc.SaveDocument(r.Context(), slug, req.Project(), ifMatch)
	if err != nil {
		writeError(w, "save project", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(p.Checksum))
	writeJSON(w, http.StatusOK, projectDetail(p))
}

// RenameProject handles POST /api/projects/{slug}/rename.
//
//	@Summary		Change a project slug
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Current slug"
//	@Param			body	body		RenameRequest	true	"New slug"
//	@Success		200		{object}	ProjectDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{slug}/rename [post]
func (h *Handler) RenameProject(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "rename project", err)
		return
	}
	p, err := h.svc.RenameDocument(r.Context(), chi.URLParam(r, "slug"), req.Slug)
	if err != nil {
		writeError(w, "rename project", err)
		return
	}
	w.Header().Set("Location", "/api/projects/"+p.Slug)
	writeJSON(w, http.StatusOK, projectDetail(p))
}

// DeleteProject handles DELETE /api/projects/{slug}.
//
//	@Summary		Delete a project
//	@Tags			projects
//	@Param			slug	path	string	true	"Project slug"
//	@Success		204		"Project deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{slug} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDocument(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across project text
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// References handles GET /api/references.
//
//	@Summary		Projects whose blocks point at a url
//	@Tags			search
//	@Produce		json
//	@Param			url	query		string	true	"Referenced url or asset path"
//	@Success		200	{object}	ReferencesResponse
//	@Failure		400	{object}	errResponse
//	@Router			/references [get]
func (h *Handler) References(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'url' is required"))
		return
	}
	refs, err := h.svc.References(r.Context(), u)
	if err != nil {
		writeError(w, "references", err)
		return
	}
	if refs == nil {
		refs = []models.Reference{}
	}
	writeJSON(w, http.StatusOK, ReferencesResponse{References: refs})
}
