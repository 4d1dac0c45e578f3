// Package scene provides the ordered collection of drawable markup objects
// for the currently loaded base image, with selection state and hit testing.
package scene

import (
	"strings"

	"image-markup/pkg/geometry"
)

// Kind discriminates the closed set of object variants.
type Kind string

const (
	KindStroke Kind = "stroke"
	KindText   Kind = "text"
)

// Object is the common interface for scene objects. The variant set is
// closed: a Stroke or a TextAnnotation, nothing else.
type Object interface {
	// ObjectID returns the unique identifier for this object.
	ObjectID() string

	// ObjectKind returns the variant tag.
	ObjectKind() Kind

	// Selected reports whether the object is currently selected.
	Selected() bool

	// HitTest returns true if the image-space point falls on this object.
	// tolerance widens stroke proximity testing; it does not affect text.
	HitTest(p geometry.Point2D, tolerance float64) bool

	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Object

	setSelected(bool)
}

// Stroke is one continuous freehand highlight drag. Points are ordered and
// append-only; a stroke is removed as a whole unit, never point by point.
type Stroke struct {
	ID         string             `json:"id"`
	Color      string             `json:"color"`
	Points     []geometry.Point2D `json:"points"`
	Width      float64            `json:"width"`
	IsSelected bool               `json:"selected"`
}

func (s *Stroke) ObjectID() string   { return s.ID }
func (s *Stroke) ObjectKind() Kind   { return KindStroke }
func (s *Stroke) Selected() bool     { return s.IsSelected }
func (s *Stroke) setSelected(v bool) { s.IsSelected = v }

// HitTest tests the point against each stroke vertex: a hit is any vertex
// within width/2 + tolerance. Segments between vertices are deliberately
// not interpolated; fast pointer motion can step over thin strokes.
func (s *Stroke) HitTest(p geometry.Point2D, tolerance float64) bool {
	reach := s.Width/2 + tolerance
	for _, v := range s.Points {
		if v.Distance(p) <= reach {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the stroke.
func (s *Stroke) Clone() Object {
	c := *s
	c.Points = make([]geometry.Point2D, len(s.Points))
	copy(c.Points, s.Points)
	return &c
}

// withPoint returns a copy of the stroke with one more point appended.
// The receiver is not modified, so snapshots holding the old value stay
// intact.
func (s *Stroke) withPoint(p geometry.Point2D) *Stroke {
	c := *s
	c.Points = make([]geometry.Point2D, len(s.Points), len(s.Points)+1)
	copy(c.Points, s.Points)
	c.Points = append(c.Points, p)
	return &c
}

// TextAnnotation is a positioned text label. Position anchors the start of
// the text baseline; glyphs extend rightward and upward from it.
type TextAnnotation struct {
	ID         string           `json:"id"`
	Color      string           `json:"color"`
	Text       string           `json:"text"`
	Position   geometry.Point2D `json:"position"`
	FontSize   float64          `json:"font_size"`
	IsSelected bool             `json:"selected"`

	// Measured extent, cached lazily by the render pass and invalidated
	// on text change. Not serialized; recomputed after a round trip.
	cachedWidth  float64
	cachedHeight float64
	measured     bool
}

func (t *TextAnnotation) ObjectID() string   { return t.ID }
func (t *TextAnnotation) ObjectKind() Kind   { return KindText }
func (t *TextAnnotation) Selected() bool     { return t.IsSelected }
func (t *TextAnnotation) setSelected(v bool) { t.IsSelected = v }

// Measured reports the cached extent. ok is false until a render pass has
// measured the text; an unmeasured annotation is not hit-testable.
func (t *TextAnnotation) Measured() (w, h float64, ok bool) {
	return t.cachedWidth, t.cachedHeight, t.measured
}

// SetMeasured caches the rendered extent of the annotation text.
func (t *TextAnnotation) SetMeasured(w, h float64) {
	t.cachedWidth = w
	t.cachedHeight = h
	t.measured = true
}

// Bounds returns the axis-aligned bounding box of the annotation. ok is
// false until the text has been measured.
func (t *TextAnnotation) Bounds() (geometry.Rect, bool) {
	if !t.measured {
		return geometry.Rect{}, false
	}
	return geometry.Rect{
		X:      t.Position.X,
		Y:      t.Position.Y - t.cachedHeight,
		Width:  t.cachedWidth,
		Height: t.cachedHeight,
	}, true
}

// HitTest tests the point against the measured bounding box. tolerance is
// ignored for text.
func (t *TextAnnotation) HitTest(p geometry.Point2D, tolerance float64) bool {
	box, ok := t.Bounds()
	if !ok {
		return false
	}
	return box.Contains(p)
}

// Clone returns a deep copy of the annotation, cached measurements included.
func (t *TextAnnotation) Clone() Object {
	c := *t
	return &c
}

// isBlank reports whether text is empty or whitespace-only. Committing
// blank text is a cancel, not content.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
