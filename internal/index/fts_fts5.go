//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS projects_fts USING fts5(
			slug UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, slug, title, body string, tags []string) error {
	ftsDelete(tx, slug)
	_, err := tx.Exec(`INSERT INTO projects_fts (slug, title, body, tags) VALUES (?, ?, ?, ?)`,
		slug, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, slug string) {
	_, _ = tx.Exec(`DELETE FROM projects_fts WHERE slug = ?`, slug)
}

// matchQuery turns free text into an FTS5 query: every token becomes a
// quoted phrase, so punctuation such as "c++" or "go-chi" cannot break the
// MATCH syntax, and the last token also matches as a prefix.
func matchQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	if n := len(fields); n > 0 {
		fields[n-1] += "*"
	}
	return strings.Join(fields, " ")
}

// Search runs an FTS5 query ranked by bm25 with title hits weighted above
// tags and body, and returns body snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	match := matchQuery(query)
	if match == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT slug,
		       title,
		       snippet(projects_fts, 2, '<b>', '</b>', '...', 24)
		FROM projects_fts
		WHERE projects_fts MATCH ?
		ORDER BY bm25(projects_fts, 0.0, 10.0, 1.0, 4.0)
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
