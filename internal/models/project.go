// Package models defines the persisted and listed types for Folio.
package models

import (
	"time"

	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/readtime"
)

// Status is the lifecycle stage of a project.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Technology is a badge shown on a project.
type Technology struct {
	Name     string `json:"name"`
	IconName string `json:"iconName"`
	Color    string `json:"color,omitempty"`
}

// Project is the stored envelope around one block document. Reading time is
// derived at save time and written in the same record as the blocks.
type Project struct {
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Excerpt      string         `json:"excerpt,omitempty"`
	Content      block.Document `json:"content"`
	ImageURL     string         `json:"image_url,omitempty"`
	Status       Status         `json:"status"`
	Featured     bool           `json:"featured"`
	Technologies []Technology   `json:"technologies,omitempty"`
	RepoURL      string         `json:"repo_url,omitempty"`
	DeployURL    string         `json:"deploy_url,omitempty"`
	ReadingTime  *int           `json:"reading_time,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	// Checksum of the stored bytes; never serialized into the record.
	Checksum string `json:"-"`
}

// Minutes returns the stored reading time, or the block-count guess for
// records saved before reading time was derived.
func (p *Project) Minutes() int {
	if p.ReadingTime != nil {
		return *p.ReadingTime
	}
	return readtime.Fallback(len(p.Content))
}

// ProjectSummary is the listing row served from the index.
type ProjectSummary struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Status      Status    `json:"status"`
	Featured    bool      `json:"featured"`
	ReadingTime int       `json:"reading_time"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FileMetadata describes one stored file.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reference records that a project points at an external url or asset.
type Reference struct {
	Slug    string `json:"slug"`
	URL     string `json:"url"`
	BlockID string `json:"block_id"`
}
