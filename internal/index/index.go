package index

import "github.com/starford/folio/internal/models"

// ProjectIndex defines the interface for project indexing operations.
// Consumers depend on this interface rather than the concrete *DB type.
type ProjectIndex interface {
	UpsertProject(p ProjectRow, body string, refs []RefRow) error
	DeleteProject(slug string) error
	GetChecksum(slug string) (string, error)
	GetProject(slug string) (*ProjectRow, error)
	ListProjects(opts ListOptions) ([]ProjectRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	References(url string) ([]models.Reference, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ProjectIndex at compile time.
var _ ProjectIndex = (*DB)(nil)
