package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/editor"
	"github.com/starford/folio/internal/models"
)

func (s *Server) registerEditTools() {
	slug := mcp.WithString("slug", mcp.Required(), mcp.Description("Project slug"))
	ifMatch := mcp.WithString("if_match", mcp.Description("Checksum from the previous read or edit"))
	blockID := mcp.WithString("block_id", mcp.Required(), mcp.Description("Id of the target block"))

	types := make([]string, len(block.Types))
	for i, t := range block.Types {
		types[i] = string(t)
	}

	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append a block with default content. Returns the new block and its id."),
		slug, ifMatch,
		mcp.WithString("type", mcp.Required(), mcp.Enum(types...), mcp.Description("Block type")),
		mcp.WithNumber("index", mcp.Description("Optional zero-based position to move the new block to")),
	), mcp.NewTypedToolHandler(s.addBlock))

	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Merge a partial patch into one block's content. Omitted fields are unchanged."),
		slug, ifMatch, blockID,
		mcp.WithObject("patch", mcp.Required(), mcp.Description("Patch, e.g. {\"text\": \"...\", \"level\": 3}")),
	), mcp.NewTypedToolHandler(s.updateBlock))

	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Remove one block."),
		slug, ifMatch, blockID,
	), mcp.NewTypedToolHandler(s.deleteBlock))

	s.mcp.AddTool(mcp.NewTool("reorder_blocks",
		mcp.WithDescription("Move the block at index from so that it ends up at index to."),
		slug, ifMatch,
		mcp.WithNumber("from", mcp.Required(), mcp.Description("Zero-based source index")),
		mcp.WithNumber("to", mcp.Required(), mcp.Description("Zero-based destination index")),
	), mcp.NewTypedToolHandler(s.reorderBlocks))

	s.mcp.AddTool(mcp.NewTool("add_list_item",
		mcp.WithDescription("Append an empty item to a list block."),
		slug, ifMatch, blockID,
	), mcp.NewTypedToolHandler(s.addListItem))

	s.mcp.AddTool(mcp.NewTool("update_list_item",
		mcp.WithDescription("Replace the text of one list item."),
		slug, ifMatch, blockID,
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based item index")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New item text")),
	), mcp.NewTypedToolHandler(s.updateListItem))

	s.mcp.AddTool(mcp.NewTool("remove_list_item",
		mcp.WithDescription("Remove one list item."),
		slug, ifMatch, blockID,
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based item index")),
	), mcp.NewTypedToolHandler(s.removeListItem))
}

type docArgs struct {
	Slug    string `json:"slug"`
	IfMatch string `json:"if_match"`
}

type blockArgs struct {
	docArgs
	BlockID string `json:"block_id"`
}

type addBlockArgs struct {
	docArgs
	Type  string `json:"type"`
	Index *int   `json:"index"`
}

type updateBlockArgs struct {
	blockArgs
	Patch block.Patch `json:"patch"`
}

type reorderArgs struct {
	docArgs
	From int `json:"from"`
	To   int `json:"to"`
}

type itemArgs struct {
	blockArgs
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type editResult struct {
	Slug     string       `json:"slug"`
	Checksum string       `json:"checksum"`
	Blocks   int          `json:"blocks"`
	Block    *block.Block `json:"block,omitempty"`
}

// edit runs fn through the document service and reports the saved state.
// When id is set the final version of that block is included.
func (s *Server) edit(ctx context.Context, a docArgs, id *string, fn func(e *editor.Editor) error) (*mcp.CallToolResult, error) {
	if a.Slug == "" {
		return mcp.NewToolResultError("required argument \"slug\" not found"), nil
	}
	p, err := s.svc.Edit(ctx, a.Slug, a.IfMatch, fn)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result(p, id))
}

func result(p *models.Project, id *string) editResult {
	out := editResult{Slug: p.Slug, Checksum: p.Checksum, Blocks: len(p.Content)}
	if id != nil {
		if i := p.Content.Index(*id); i >= 0 {
			b := p.Content[i]
			out.Block = &b
		}
	}
	return out
}

func checkIndex(name string, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%s %d out of range [0, %d): %w", name, i, n, apperr.ErrInvalid)
	}
	return nil
}

func (s *Server) addBlock(ctx context.Context, _ mcp.CallToolRequest, a addBlockArgs) (*mcp.CallToolResult, error) {
	t := block.Type(a.Type)
	if !t.Known() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown block type %q", a.Type)), nil
	}
	var id string
	return s.edit(ctx, a.docArgs, &id, func(e *editor.Editor) error {
		if a.Index != nil {
			if err := checkIndex("index", *a.Index, e.Len()+1); err != nil {
				return err
			}
		}
		b := e.AddBlock(t)
		id = b.ID
		if a.Index != nil {
			e.ReorderBlocks(e.Len()-1, *a.Index)
		}
		return nil
	})
}

func (s *Server) updateBlock(ctx context.Context, _ mcp.CallToolRequest, a updateBlockArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, a.docArgs, &a.BlockID, func(e *editor.Editor) error {
		if !e.UpdateBlock(a.BlockID, a.Patch) {
			return fmt.Errorf("block %s: %w", a.BlockID, apperr.ErrNotFound)
		}
		return nil
	})
}

func (s *Server) deleteBlock(ctx context.Context, _ mcp.CallToolRequest, a blockArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, a.docArgs, nil, func(e *editor.Editor) error {
		if !e.DeleteBlock(a.BlockID) {
			return fmt.Errorf("block %s: %w", a.BlockID, apperr.ErrNotFound)
		}
		return nil
	})
}

func (s *Server) reorderBlocks(ctx context.Context, _ mcp.CallToolRequest, a reorderArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, a.docArgs, nil, func(e *editor.Editor) error {
		if err := checkIndex("from", a.From, e.Len()); err != nil {
			return err
		}
		if err := checkIndex("to", a.To, e.Len()); err != nil {
			return err
		}
		e.ReorderBlocks(a.From, a.To)
		return nil
	})
}

// listItems returns the items of the list block id, failing for missing
// or non-list blocks.
func listItems(e *editor.Editor, id string) ([]string, error) {
	doc := e.Document()
	i := doc.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("block %s: %w", id, apperr.ErrNotFound)
	}
	l, ok := doc[i].Payload.(*block.List)
	if !ok {
		return nil, fmt.Errorf("block %s is a %s, not a list: %w", id, doc[i].Type(), apperr.ErrInvalid)
	}
	return l.Items, nil
}

func (s *Server) addListItem(ctx context.Context, _ mcp.CallToolRequest, a blockArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, a.docArgs, &a.BlockID, func(e *editor.Editor) error {
		if _, err := listItems(e, a.BlockID); err != nil {
			return err
		}
		e.AddItem(a.BlockID)
		return nil
	})
}

func (s *Server) updateListItem(ctx context.Context, _ mcp.CallToolRequest, a itemArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, a.docArgs, &a.BlockID, func(e *editor.Editor) error {
		items, err := listItems(e, a.BlockID)
		if err != nil {
			return err
		}
		if err := checkIndex("index", a.Index, len(items)); err != nil {
			return err
		}
		e.UpdateItem(a.BlockID, a.Index, a.Text)
		return nil
	})
}

func (s *Server) removeListItem(ctx context.Context, _ mcp.CallToolRequest, a itemArgs) (*mcp.CallToolResult, error) {
	return s.edit(ctx, a.docArgs, &a.BlockID, func(e *editor.Editor) error {
		items, err := listItems(e, a.BlockID)
		if err != nil {
			return err
		}
		if err := checkIndex("index", a.Index, len(items)); err != nil {
			return err
		}
		e.RemoveItem(a.BlockID, a.Index)
		return nil
	})
}
