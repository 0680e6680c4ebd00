//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

// snippetRadius is how many runes of context surround a body match.
const snippetRadius = 60

func initFTS(_ *sql.DB) error {
	// Without FTS5, search scans projects.body with LIKE.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search matches query as a substring of title, body or tags. Title hits
// rank first, then the most recently updated projects.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT slug, title, body
		FROM projects
		WHERE title LIKE ?1 ESCAPE '\' OR body LIKE ?1 ESCAPE '\' OR tags LIKE ?1 ESCAPE '\'
		ORDER BY (title LIKE ?1 ESCAPE '\') DESC, updated_at DESC
		LIMIT ?2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var body string
		if err := rows.Scan(&r.Slug, &r.Title, &body); err != nil {
			return nil, err
		}
		r.Snippet = snippet(body, query)
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// snippet cuts body around the first case-insensitive occurrence of query
// and marks it with <b> tags, the same markup FTS5 snippets use. Without a
// match it returns the start of body.
func snippet(body, query string) string {
	at := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if at < 0 || query == "" || len(strings.ToLower(body)) != len(body) {
		return clip(body, 0, 2*snippetRadius)
	}
	end := at + len(query)

	start := at
	for n := 0; start > 0 && n < snippetRadius; n++ {
		_, size := utf8.DecodeLastRuneInString(body[:start])
		start -= size
	}
	stop := end
	for n := 0; stop < len(body) && n < snippetRadius; n++ {
		_, size := utf8.DecodeRuneInString(body[stop:])
		stop += size
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(body[start:at])
	b.WriteString("<b>")
	b.WriteString(body[at:end])
	b.WriteString("</b>")
	b.WriteString(body[end:stop])
	if stop < len(body) {
		b.WriteString("...")
	}
	return b.String()
}

func clip(s string, from, runes int) string {
	i, n := from, 0
	for i < len(s) && n < runes {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n++
	}
	if i < len(s) {
		return s[from:i] + "..."
	}
	return s[from:]
}
