// Package history provides a linear undo/redo stack of scene snapshots.
package history

import (
	"image-markup/internal/scene"
)

// History holds deep-copied scene snapshots along a single timeline.
// Entries never share mutable state with the live scene: commits copy on
// the way in, Undo/Redo copy on the way out.
type History struct {
	entries []*scene.Scene
	pointer int
}

// New creates a history seeded with a snapshot of the initial scene.
func New(initial *scene.Scene) *History {
	return &History{entries: []*scene.Scene{initial.Clone()}}
}

// Commit records a snapshot of the scene as the new head. Any entries
// past the current pointer (the redo branch) are discarded first.
func (h *History) Commit(s *scene.Scene) {
	if h.pointer < len(h.entries)-1 {
		for i := h.pointer + 1; i < len(h.entries); i++ {
			h.entries[i] = nil
		}
		h.entries = h.entries[:h.pointer+1]
	}
	h.entries = append(h.entries, s.Clone())
	h.pointer++
}

// Undo steps back one entry and returns a copy of it, or nil when already
// at the start of the timeline.
func (h *History) Undo() *scene.Scene {
	if h.pointer == 0 {
		return nil
	}
	h.pointer--
	return h.entries[h.pointer].Clone()
}

// Redo steps forward one entry and returns a copy of it, or nil when
// already at the head.
func (h *History) Redo() *scene.Scene {
	if h.pointer >= len(h.entries)-1 {
		return nil
	}
	h.pointer++
	return h.entries[h.pointer].Clone()
}

// CanUndo reports whether an Undo would change state.
func (h *History) CanUndo() bool {
	return h.pointer > 0
}

// CanRedo reports whether a Redo would change state.
func (h *History) CanRedo() bool {
	return h.pointer < len(h.entries)-1
}

// Len returns the number of committed entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Reset discards the whole timeline and reseeds it with a snapshot of the
// given scene. Used when a new base image replaces the current one or the
// canvas is cleared.
func (h *History) Reset(s *scene.Scene) {
	h.entries = []*scene.Scene{s.Clone()}
	h.pointer = 0
}
