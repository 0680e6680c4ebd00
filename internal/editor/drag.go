package editor

// DragPhase is the state of a drag-to-reorder gesture.
type DragPhase int

const (
	Idle DragPhase = iota
	Dragging
)

func (p DragPhase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// dragState follows the dragged block by id so edits made mid-gesture
// cannot leave it pointing at another block or past the end.
type dragState struct {
	phase  DragPhase
	source string
}

// BeginDrag picks up the block at index. Starting a new drag abandons any
// drag in progress.
func (e *Editor) BeginDrag(index int) {
	e.checkIndex("drag", index)
	e.drag = dragState{phase: Dragging, source: e.doc[index].ID}
}

// Drag returns the current phase and, while dragging, the source index. A
// drag whose block was deleted reports Idle.
func (e *Editor) Drag() (DragPhase, int) {
	if e.drag.phase != Dragging {
		return Idle, 0
	}
	src := e.doc.Index(e.drag.source)
	if src < 0 {
		return Idle, 0
	}
	return Dragging, src
}

// Drop releases the dragged block at dest and reports whether the document
// changed. A dest outside the document cancels the drag, as does a dragged
// block that was deleted meanwhile. Dropping without an active drag does
// nothing.
func (e *Editor) Drop(dest int) bool {
	phase, src := e.Drag()
	e.drag = dragState{}
	if phase != Dragging {
		return false
	}
	if dest < 0 || dest >= len(e.doc) || dest == src {
		return false
	}
	e.commit(move(e.doc, src, dest))
	return true
}

// CancelDrag abandons the gesture without touching the document.
func (e *Editor) CancelDrag() {
	e.drag = dragState{}
}
