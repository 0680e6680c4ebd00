// Package editor is the authoring surface over a working copy of a block
// document. Every mutation builds a new document and hands it to the
// OnChange callback; the editor never persists anything itself.
//
// Unknown block ids are ignored. Out-of-range indices are programming errors
// and panic: callers only ever offer positions of the current document.
package editor

import (
	"fmt"
	"slices"

	"github.com/starford/folio/internal/block"
)

// OnChange receives every new document state. The document must be treated
// as read-only.
type OnChange func(block.Document)

// Editor holds one working copy. It is not safe for concurrent use.
type Editor struct {
	doc      block.Document
	onChange OnChange
	drag     dragState
}

// New starts an editing session over a private copy of doc. onChange may be
// nil.
func New(doc block.Document, onChange OnChange) *Editor {
	return &Editor{doc: doc.Clone(), onChange: onChange}
}

// Document returns the current state. Later mutations never modify a
// returned document.
func (e *Editor) Document() block.Document { return e.doc }

// Len returns the number of blocks.
func (e *Editor) Len() int { return len(e.doc) }

func (e *Editor) commit(doc block.Document) {
	e.doc = doc
	if e.onChange != nil {
		e.onChange(doc)
	}
}

// AddBlock appends a new empty block of type t and returns it.
func (e *Editor) AddBlock(t block.Type) block.Block {
	if !t.Known() {
		panic(fmt.Sprintf("editor: unknown block type %q", t))
	}
	b := block.New(t, e.doc)
	next := make(block.Document, 0, len(e.doc)+1)
	next = append(next, e.doc...)
	next = append(next, b)
	e.commit(next)
	return b
}

// UpdateBlock merges p into the block with the given id. It reports whether
// the block exists; a missing id leaves the document untouched.
func (e *Editor) UpdateBlock(id string, p block.Patch) bool {
	i := e.doc.Index(id)
	if i < 0 {
		return false
	}
	e.replace(i, e.doc[i].Apply(p))
	return true
}

// DeleteBlock removes the block with the given id.
func (e *Editor) DeleteBlock(id string) bool {
	i := e.doc.Index(id)
	if i < 0 {
		return false
	}
	e.commit(slices.Delete(slices.Clone(e.doc), i, i+1))
	return true
}

// ReorderBlocks moves the block at from to position to, shifting the blocks
// in between by one.
func (e *Editor) ReorderBlocks(from, to int) {
	e.checkIndex("from", from)
	e.checkIndex("to", to)
	e.commit(move(e.doc, from, to))
}

func move(doc block.Document, from, to int) block.Document {
	next := slices.Clone(doc)
	b := next[from]
	next = slices.Delete(next, from, from+1)
	return slices.Insert(next, to, b)
}

// AddItem appends an empty item to a list block.
func (e *Editor) AddItem(id string) bool {
	return e.editItems(id, func(items []string) []string {
		return append(items, "")
	})
}

// UpdateItem replaces the text of item index in a list block.
func (e *Editor) UpdateItem(id string, index int, text string) bool {
	return e.editItems(id, func(items []string) []string {
		checkRange("item", index, len(items))
		items[index] = text
		return items
	})
}

// RemoveItem deletes item index from a list block. Later items move up.
func (e *Editor) RemoveItem(id string, index int) bool {
	return e.editItems(id, func(items []string) []string {
		checkRange("item", index, len(items))
		return slices.Delete(items, index, index+1)
	})
}

// editItems applies fn to a private copy of the items of list block id. Ids
// that are missing or not lists are ignored.
func (e *Editor) editItems(id string, fn func([]string) []string) bool {
	i := e.doc.Index(id)
	if i < 0 {
		return false
	}
	l, ok := e.doc[i].Payload.(*block.List)
	if !ok {
		return false
	}
	items := make([]string, len(l.Items), len(l.Items)+1)
	copy(items, l.Items)
	e.replace(i, e.doc[i].Apply(block.Patch{Items: fn(items)}))
	return true
}

func (e *Editor) replace(i int, b block.Block) {
	next := slices.Clone(e.doc)
	next[i] = b
	e.commit(next)
}

func (e *Editor) checkIndex(name string, i int) {
	checkRange(name, i, len(e.doc))
}

func checkRange(name string, i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("editor: %s index %d out of range [0,%d)", name, i, n))
	}
}
