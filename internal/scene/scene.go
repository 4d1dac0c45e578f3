package scene

import (
	"github.com/google/uuid"

	"image-markup/pkg/geometry"
)

// Scene is the ordered set of markup objects for one base image. Slice
// order is z-order: later objects draw on top and win hit tests.
//
// Scene is not safe for concurrent use; all mutation happens on the UI
// event loop.
type Scene struct {
	objects []Object
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// newID returns a fresh object identifier, unique within and across
// sessions. Z-order is carried by slice position, so ids only need to be
// unique, not ordered.
func newID() string {
	return uuid.NewString()
}

// Objects returns the scene's objects in z-order. The slice is shared;
// callers must treat it as read-only.
func (s *Scene) Objects() []Object {
	return s.objects
}

// Len returns the number of objects in the scene.
func (s *Scene) Len() int {
	return len(s.objects)
}

// Find returns the object with the given id, or nil.
func (s *Scene) Find(id string) Object {
	for _, o := range s.objects {
		if o.ObjectID() == id {
			return o
		}
	}
	return nil
}

// indexOf returns the slice index of the object with the given id, or -1.
func (s *Scene) indexOf(id string) int {
	for i, o := range s.objects {
		if o.ObjectID() == id {
			return i
		}
	}
	return -1
}

// AddStroke appends a new single-point stroke at the top of the z-order
// and returns its id.
func (s *Scene) AddStroke(colorHex string, width float64, start geometry.Point2D) string {
	st := &Stroke{
		ID:     newID(),
		Color:  colorHex,
		Points: []geometry.Point2D{start},
		Width:  width,
	}
	s.objects = append(s.objects, st)
	return st.ID
}

// ExtendStroke appends a point to the named stroke. It is a no-op when the
// id no longer exists (the object was erased mid-gesture) or when the
// object is not a stroke. The stroke is replaced with an extended copy
// rather than mutated, so history snapshots never alias live point slices.
func (s *Scene) ExtendStroke(id string, p geometry.Point2D) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	st, ok := s.objects[i].(*Stroke)
	if !ok {
		return
	}
	s.objects[i] = st.withPoint(p)
}

// UpsertAnnotation creates or updates a text annotation. When id names an
// existing annotation its text and position are updated and the cached
// measurement is invalidated; otherwise a new annotation is appended at
// the top of the z-order. Blank text is a cancel: nothing is created or
// updated and the empty string is returned. Otherwise the annotation's id
// is returned.
func (s *Scene) UpsertAnnotation(id, text string, pos geometry.Point2D, colorHex string, fontSize float64) string {
	if isBlank(text) {
		return ""
	}
	if i := s.indexOf(id); i >= 0 {
		ann, ok := s.objects[i].(*TextAnnotation)
		if !ok {
			return ""
		}
		c := *ann
		c.Text = text
		c.Position = pos
		c.Color = colorHex
		c.FontSize = fontSize
		c.measured = false
		c.cachedWidth = 0
		c.cachedHeight = 0
		s.objects[i] = &c
		return c.ID
	}
	ann := &TextAnnotation{
		ID:       newID(),
		Color:    colorHex,
		Text:     text,
		Position: pos,
		FontSize: fontSize,
	}
	s.objects = append(s.objects, ann)
	return ann.ID
}

// MoveAnnotation repositions a text annotation. No-op when the id is
// missing or names a stroke; strokes do not participate in dragging.
func (s *Scene) MoveAnnotation(id string, pos geometry.Point2D) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	ann, ok := s.objects[i].(*TextAnnotation)
	if !ok {
		return
	}
	c := *ann
	c.Position = pos
	s.objects[i] = &c
}

// RemoveObject deletes the object with the given id. Returns false when
// the id is absent; removal of a missing object is not an error.
func (s *Scene) RemoveObject(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	return true
}

// SetSelection marks exactly the named object as selected and deselects
// everything else. An empty id clears all selection.
func (s *Scene) SetSelection(id string) {
	for _, o := range s.objects {
		o.setSelected(o.ObjectID() == id && id != "")
	}
}

// ClearSelection deselects every object.
func (s *Scene) ClearSelection() {
	s.SetSelection("")
}

// SelectedIDs returns the ids of all selected objects in z-order.
func (s *Scene) SelectedIDs() []string {
	var ids []string
	for _, o := range s.objects {
		if o.Selected() {
			ids = append(ids, o.ObjectID())
		}
	}
	return ids
}

// RemoveSelected deletes every selected object and returns the count
// removed. A zero count means the caller should not commit history.
func (s *Scene) RemoveSelected() int {
	kept := s.objects[:0]
	removed := 0
	for _, o := range s.objects {
		if o.Selected() {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	for i := len(kept); i < len(s.objects); i++ {
		s.objects[i] = nil
	}
	s.objects = kept
	return removed
}

// Clear removes every object from the scene.
func (s *Scene) Clear() {
	s.objects = nil
}

// Clone returns a deep copy of the scene. Clones share no mutable state
// with the receiver, which makes them safe to store as history entries.
func (s *Scene) Clone() *Scene {
	c := &Scene{objects: make([]Object, len(s.objects))}
	for i, o := range s.objects {
		c.objects[i] = o.Clone()
	}
	return c
}

// Replace swaps the scene's contents for a deep copy of other. Used to
// restore history snapshots without invalidating references to the scene
// itself.
func (s *Scene) Replace(other *Scene) {
	s.objects = other.Clone().objects
}

// HitTest returns the id of the topmost object at the given image-space
// point, or the empty string. Objects are tested in reverse z-order so
// objects drawn later win. The test has no side effects and is cheap
// enough to run on every pointer move.
func (s *Scene) HitTest(p geometry.Point2D) string {
	for i := len(s.objects) - 1; i >= 0; i-- {
		if s.objects[i].HitTest(p, HitTolerance) {
			return s.objects[i].ObjectID()
		}
	}
	return ""
}

// HitTolerance is the extra image-space reach, in pixels, added around
// stroke vertices during hit testing.
const HitTolerance = 5.0
