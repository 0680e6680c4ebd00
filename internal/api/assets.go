package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/assets"
	"github.com/starford/folio/internal/docservice"
)

// AssetHandler accepts uploads and serves FS-backed assets.
type AssetHandler struct {
	svc      *docservice.Service
	maxBytes int64
}

// NewAssetHandler creates an asset handler. maxBytes bounds one upload.
func NewAssetHandler(svc *docservice.Service, maxBytes int64) *AssetHandler {
	if maxBytes <= 0 {
		maxBytes = assets.DefaultMaxBytes
	}
	return &AssetHandler{svc: svc, maxBytes: maxBytes}
}

// Upload handles POST /api/assets (multipart/form-data, field "file").
//
//	@Summary		Upload an image for use in blocks
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image (png, jpg, gif, webp, svg)"
//	@Param			name	formData	string	false	"Name stem, e.g. the project slug"
//	@Success		201		{object}	AssetUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets [post]
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Multipart framing needs some headroom over the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	hint := header.Filename
	if stem := r.FormValue("name"); stem != "" {
		hint = stem + filepath.Ext(header.Filename)
	}
	a, err := h.svc.UploadAsset(r.Context(), hint, data)
	if err != nil {
		writeError(w, "upload asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, AssetUploadResponse{
		Name:        a.Name,
		Size:        a.Size,
		URL:         a.URL,
		ContentType: a.ContentType,
		UploadedAt:  time.Now().UTC(),
	})
}

// Delete handles DELETE /api/assets/{name}.
//
//	@Summary		Delete an uploaded image no block references
//	@Tags			assets
//	@Param			name	path	string	true	"Asset name"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{name} [delete]
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAsset(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, "delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeFile handles GET /assets/{name}.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !assets.ValidName(name) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset name"))
		return
	}
	data, err := h.svc.Asset(r.Context(), name)
	if err != nil {
		writeError(w, "serve asset", err)
		return
	}
	w.Header().Set("Content-Type", assets.ContentType(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if assets.ContentType(name) == "image/svg+xml" {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
