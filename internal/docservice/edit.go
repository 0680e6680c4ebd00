package docservice

import (
	"context"
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/editor"
	"github.com/starford/folio/internal/models"
)

// EditFunc applies editor operations to a loaded document.
type EditFunc func(e *editor.Editor) error

// Edit loads the project under slug, runs fn against an editor over its
// blocks and saves the result. A failing fn saves nothing. When fn leaves
// the document untouched the stored record is returned as is.
//
// ifMatch, when non-empty, must match the stored checksum. The save is
// always conditional on the checksum Edit loaded.
func (s *Service) Edit(_ context.Context, slug, ifMatch string, fn EditFunc) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != p.Checksum {
		return nil, fmt.Errorf("docservice: %s changed since %s: %w", slug, ifMatch, apperr.ErrConflict)
	}

	var next block.Document
	changed := false
	e := editor.New(p.Content, func(doc block.Document) {
		next = doc
		changed = true
	})
	if err := fn(e); err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}

	upd := *p
	upd.Content = next
	out, err := s.save(slug, upd, p.Checksum)
	s.metrics.RecordDocumentOp("edit", err)
	return out, err
}
