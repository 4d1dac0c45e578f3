package scene

import (
	"testing"
)

func TestHitTestStrokeVertexProximity(t *testing.T) {
	s := New()
	id := s.AddStroke("#ff0000", 10, pt(100, 100))
	s.ExtendStroke(id, pt(150, 100))

	// Reach is width/2 + tolerance = 10.
	tests := []struct {
		name string
		x, y float64
		hit  bool
	}{
		{"on vertex", 100, 100, true},
		{"within reach of vertex", 107, 100, true},
		{"just inside reach", 100, 109.9, true},
		{"just outside reach", 100, 110.5, false},
		{"midpoint between vertices, off every vertex", 125, 100, false},
		{"far away", 300, 300, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.HitTest(pt(tt.x, tt.y))
			if tt.hit && got != id {
				t.Errorf("HitTest(%v,%v) = %q, want %q", tt.x, tt.y, got, id)
			}
			if !tt.hit && got != "" {
				t.Errorf("HitTest(%v,%v) = %q, want miss", tt.x, tt.y, got)
			}
		})
	}
}

func TestHitTestTextBoundingBox(t *testing.T) {
	s := New()
	id := s.UpsertAnnotation("", "hello", pt(50, 50), "#000000", 24)
	ann := s.Find(id).(*TextAnnotation)

	// Unmeasured annotations are not hit-testable.
	if got := s.HitTest(pt(50, 50)); got != "" {
		t.Errorf("HitTest before measurement = %q, want miss", got)
	}

	ann.SetMeasured(60, 20)

	// Box spans x in [50,110], y in [30,50]; text grows upward from the
	// baseline anchor.
	tests := []struct {
		name string
		x, y float64
		hit  bool
	}{
		{"inside", 80, 40, true},
		{"anchor corner", 50, 50, true},
		{"top right corner", 110, 30, true},
		{"below baseline", 80, 51, false},
		{"above box", 80, 29, false},
		{"left of box", 49, 40, false},
		{"right of box", 111, 40, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.HitTest(pt(tt.x, tt.y))
			if tt.hit && got != id {
				t.Errorf("HitTest(%v,%v) = %q, want %q", tt.x, tt.y, got, id)
			}
			if !tt.hit && got != "" {
				t.Errorf("HitTest(%v,%v) = %q, want miss", tt.x, tt.y, got)
			}
		})
	}
}

func TestHitTestTopmostWins(t *testing.T) {
	s := New()
	bottom := s.AddStroke("#ff0000", 10, pt(100, 100))
	top := s.AddStroke("#00ff00", 10, pt(100, 100))

	if got := s.HitTest(pt(100, 100)); got != top {
		t.Errorf("HitTest on overlap = %q, want topmost %q", got, top)
	}

	s.RemoveObject(top)
	if got := s.HitTest(pt(100, 100)); got != bottom {
		t.Errorf("HitTest after removing topmost = %q, want %q", got, bottom)
	}
}

func TestHitTestTextOverStroke(t *testing.T) {
	s := New()
	stroke := s.AddStroke("#ff0000", 10, pt(80, 40))
	text := s.UpsertAnnotation("", "label", pt(50, 50), "#000000", 24)
	s.Find(text).(*TextAnnotation).SetMeasured(60, 20)

	// (80,40) is inside the text box and on the stroke vertex; the text
	// is later in z-order.
	if got := s.HitTest(pt(80, 40)); got != text {
		t.Errorf("HitTest = %q, want text %q over stroke %q", got, text, stroke)
	}
}

func TestHitTestEmptyScene(t *testing.T) {
	if got := New().HitTest(pt(0, 0)); got != "" {
		t.Errorf("HitTest on empty scene = %q", got)
	}
}
