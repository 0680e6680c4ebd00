package api

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/toc"
)

// ProjectRequest is the request body for creating or saving a project.
// Slug is only read on create; an empty slug is derived from the title.
type ProjectRequest struct {
	Slug         string              `json:"slug,omitempty" example:"my-portfolio"`
	Title        string              `json:"title" example:"My portfolio" validate:"required"`
	Description  string              `json:"description,omitempty"`
	Excerpt      string              `json:"excerpt,omitempty"`
	Content      block.Document      `json:"content"`
	ImageURL     string              `json:"image_url,omitempty"`
	Status       models.Status       `json:"status,omitempty" enums:"in_progress,completed"`
	Featured     bool                `json:"featured"`
	Technologies []models.Technology `json:"technologies,omitempty"`
	RepoURL      string              `json:"repo_url,omitempty"`
	DeployURL    string              `json:"deploy_url,omitempty"`
}

var slugRule = validation.By(func(v any) error {
	if s, _ := v.(string); s != "" && !docservice.ValidSlug(s) {
		return errors.New("must be lower-case letters, digits and single dashes")
	}
	return nil
})

// Validate implements validation.Validatable.
func (r *ProjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Slug, slugRule),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Excerpt, validation.Length(0, 500)),
		validation.Field(&r.Status, validation.In(models.StatusInProgress, models.StatusCompleted)),
		validation.Field(&r.RepoURL, is.URL),
		validation.Field(&r.DeployURL, is.URL),
	)
}

// Project converts the request into the stored envelope.
func (r *ProjectRequest) Project() models.Project {
	return models.Project{
		Slug:         r.Slug,
		Title:        r.Title,
		Description:  r.Description,
		Excerpt:      r.Excerpt,
		Content:      r.Content,
		ImageURL:     r.ImageURL,
		Status:       r.Status,
		Featured:     r.Featured,
		Technologies: r.Technologies,
		RepoURL:      r.RepoURL,
		DeployURL:    r.DeployURL,
	}
}

// RenameRequest is the request body for changing a project slug.
type RenameRequest struct {
	Slug string `json:"slug" example:"new-slug" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *RenameRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Slug, validation.Required, slugRule),
	)
}

// ProjectDetail is a stored project with its derived fields.
type ProjectDetail struct {
	models.Project
	Checksum    string `json:"checksum"`
	ReadingTime int    `json:"reading_time"`
}

func projectDetail(p *models.Project) ProjectDetail {
	return ProjectDetail{Project: *p, Checksum: p.Checksum, ReadingTime: p.Minutes()}
}

// ProjectListResponse wraps paginated project listings.
type ProjectListResponse struct {
	Projects []models.ProjectSummary `json:"projects" validate:"required"`
	Total    int                     `json:"total" example:"42" validate:"required"`
}

// TOCResponse wraps a table of contents.
type TOCResponse struct {
	Items []toc.Item `json:"items" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// ReferencesResponse wraps reference lookups.
type ReferencesResponse struct {
	References []models.Reference `json:"references" validate:"required"`
}

// AssetUploadResponse is returned after a successful asset upload.
type AssetUploadResponse struct {
	Name        string    `json:"name" example:"cover-1700000000000.png" validate:"required"`
	Size        int       `json:"size" example:"12345" validate:"required"`
	URL         string    `json:"url" example:"/assets/cover-1700000000000.png" validate:"required"`
	ContentType string    `json:"content_type" example:"image/png"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
