package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// ProjectRow represents a row in the projects table.
type ProjectRow struct {
	Slug        string
	Title       string
	Excerpt     string
	ImageURL    string
	Status      models.Status
	Featured    bool
	ReadingTime int
	Checksum    string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary converts the row to its listing form.
func (r ProjectRow) Summary() models.ProjectSummary {
	return models.ProjectSummary{
		Slug:        r.Slug,
		Title:       r.Title,
		Excerpt:     r.Excerpt,
		ImageURL:    r.ImageURL,
		Status:      r.Status,
		Featured:    r.Featured,
		ReadingTime: r.ReadingTime,
		Checksum:    r.Checksum,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RefRow is one outbound url of a project.
type RefRow struct {
	URL     string
	BlockID string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ListOptions filter and page ListProjects.
type ListOptions struct {
	FeaturedOnly bool
	Limit        int
	Offset       int
}

// UpsertProject inserts or replaces a project, its FTS entry, and its
// references within a transaction.
func (db *DB) UpsertProject(p ProjectRow, body string, refs []RefRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(p.Tags)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}

	_, err = tx.Exec(`
		INSERT INTO projects (slug, title, excerpt, image_url, status, featured, reading_time, checksum, tags, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title        = excluded.title,
			excerpt      = excluded.excerpt,
			image_url    = excluded.image_url,
			status       = excluded.status,
			featured     = excluded.featured,
			reading_time = excluded.reading_time,
			checksum     = excluded.checksum,
			tags         = excluded.tags,
			body         = excluded.body,
			created_at   = excluded.created_at,
			updated_at   = excluded.updated_at
	`, p.Slug, p.Title, p.Excerpt, p.ImageURL, string(p.Status), p.Featured, p.ReadingTime,
		p.Checksum, string(tagsJSON), body, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert project: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p.Slug, p.Title, body, p.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM refs WHERE slug = ?`, p.Slug); err != nil {
		return fmt.Errorf("index: clear refs: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO refs (slug, url, block_id) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.Exec(p.Slug, r.URL, r.BlockID); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteProject removes a project, its FTS entry, and its references.
func (db *DB) DeleteProject(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	_, _ = tx.Exec(`DELETE FROM refs WHERE slug = ?`, slug)
	_, _ = tx.Exec(`DELETE FROM projects WHERE slug = ?`, slug)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a project, or "" if it is not
// indexed.
func (db *DB) GetChecksum(slug string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM projects WHERE slug = ?`, slug).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

const projectCols = `slug, title, excerpt, image_url, status, featured, reading_time, checksum, tags, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (ProjectRow, error) {
	var (
		r      ProjectRow
		status string
		tags   string
	)
	err := s.Scan(&r.Slug, &r.Title, &r.Excerpt, &r.ImageURL, &status, &r.Featured,
		&r.ReadingTime, &r.Checksum, &tags, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.Status = models.Status(status)
	_ = json.Unmarshal([]byte(tags), &r.Tags)
	return r, nil
}

// GetProject returns the indexed row for slug.
func (db *DB) GetProject(slug string) (*ProjectRow, error) {
	r, err := scanProject(db.conn.QueryRow(`SELECT `+projectCols+` FROM projects WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: project %s: %w", slug, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get project: %w", err)
	}
	return &r, nil
}

// ListProjects returns projects newest first and the total matching count.
func (db *DB) ListProjects(opts ListOptions) ([]ProjectRow, int, error) {
	where := ""
	if opts.FeaturedOnly {
		where = ` WHERE featured = 1`
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM projects` + where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count projects: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`SELECT `+projectCols+` FROM projects`+where+
		` ORDER BY created_at DESC, slug LIMIT ? OFFSET ?`, limit, max(opts.Offset, 0))
	if err != nil {
		return nil, 0, fmt.Errorf("index: list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectRow
	for rows.Next() {
		r, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllChecksums returns slug → checksum for every indexed project.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

// References returns every block that points at url.
func (db *DB) References(url string) ([]models.Reference, error) {
	rows, err := db.conn.Query(`SELECT slug, url, block_id FROM refs WHERE url = ? ORDER BY slug, block_id`, url)
	if err != nil {
		return nil, fmt.Errorf("index: references: %w", err)
	}
	defer rows.Close()

	var out []models.Reference
	for rows.Next() {
		var r models.Reference
		if err := rows.Scan(&r.Slug, &r.URL, &r.BlockID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
