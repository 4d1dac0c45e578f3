package scene

import (
	"testing"

	"image-markup/pkg/geometry"
)

func pt(x, y float64) geometry.Point2D {
	return geometry.Point2D{X: x, Y: y}
}

func TestAddAndExtendStroke(t *testing.T) {
	s := New()
	id := s.AddStroke("#ff0000", 12, pt(10, 10))
	if id == "" {
		t.Fatal("AddStroke returned empty id")
	}
	s.ExtendStroke(id, pt(20, 15))
	s.ExtendStroke(id, pt(30, 10))

	st, ok := s.Find(id).(*Stroke)
	if !ok {
		t.Fatalf("Find(%q) = %T, want *Stroke", id, s.Find(id))
	}
	want := []geometry.Point2D{pt(10, 10), pt(20, 15), pt(30, 10)}
	if len(st.Points) != len(want) {
		t.Fatalf("stroke has %d points, want %d", len(st.Points), len(want))
	}
	for i := range want {
		if st.Points[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, st.Points[i], want[i])
		}
	}
}

func TestExtendStrokeMissingIDIsNoop(t *testing.T) {
	s := New()
	id := s.AddStroke("#ff0000", 12, pt(0, 0))
	s.ExtendStroke("no-such-id", pt(5, 5))

	st := s.Find(id).(*Stroke)
	if len(st.Points) != 1 {
		t.Errorf("existing stroke grew to %d points on a failed append", len(st.Points))
	}
	if s.Len() != 1 {
		t.Errorf("scene has %d objects, want 1", s.Len())
	}
}

func TestExtendStrokeOnTextIsNoop(t *testing.T) {
	s := New()
	id := s.UpsertAnnotation("", "hello", pt(50, 50), "#000000", 24)
	s.ExtendStroke(id, pt(1, 1))
	if _, ok := s.Find(id).(*TextAnnotation); !ok {
		t.Fatalf("annotation replaced by %T", s.Find(id))
	}
}

func TestExtendStrokeDoesNotAliasClones(t *testing.T) {
	s := New()
	id := s.AddStroke("#ff0000", 12, pt(0, 0))
	snap := s.Clone()
	s.ExtendStroke(id, pt(1, 1))
	s.ExtendStroke(id, pt(2, 2))

	old := snap.Find(id).(*Stroke)
	if len(old.Points) != 1 {
		t.Errorf("snapshot stroke grew to %d points after live extension", len(old.Points))
	}
}

func TestUpsertAnnotation(t *testing.T) {
	s := New()

	id := s.UpsertAnnotation("", "hello", pt(50, 50), "#123456", 24)
	if id == "" {
		t.Fatal("insert returned empty id")
	}
	ann := s.Find(id).(*TextAnnotation)
	if ann.Text != "hello" || ann.Position != pt(50, 50) {
		t.Errorf("inserted annotation = %q at %v", ann.Text, ann.Position)
	}

	ann.SetMeasured(100, 30)

	got := s.UpsertAnnotation(id, "goodbye", pt(60, 70), "#123456", 24)
	if got != id {
		t.Errorf("update returned id %q, want %q", got, id)
	}
	updated := s.Find(id).(*TextAnnotation)
	if updated.Text != "goodbye" || updated.Position != pt(60, 70) {
		t.Errorf("updated annotation = %q at %v", updated.Text, updated.Position)
	}
	if _, _, ok := updated.Measured(); ok {
		t.Error("measurement cache survived a text change")
	}
	if s.Len() != 1 {
		t.Errorf("scene has %d objects after update, want 1", s.Len())
	}
}

func TestUpsertAnnotationBlankTextIsCancel(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		s := New()
		if id := s.UpsertAnnotation("", text, pt(0, 0), "#000000", 24); id != "" {
			t.Errorf("blank text %q created object %q", text, id)
		}
		if s.Len() != 0 {
			t.Errorf("blank text %q left %d objects", text, s.Len())
		}
	}

	// Blank update leaves the existing annotation untouched.
	s := New()
	id := s.UpsertAnnotation("", "keep", pt(1, 2), "#000000", 24)
	if got := s.UpsertAnnotation(id, "  ", pt(9, 9), "#000000", 24); got != "" {
		t.Errorf("blank update returned %q", got)
	}
	ann := s.Find(id).(*TextAnnotation)
	if ann.Text != "keep" || ann.Position != pt(1, 2) {
		t.Errorf("annotation modified by blank update: %q at %v", ann.Text, ann.Position)
	}
}

func TestRemoveObject(t *testing.T) {
	s := New()
	a := s.AddStroke("#ff0000", 12, pt(0, 0))
	b := s.AddStroke("#00ff00", 12, pt(10, 10))

	if !s.RemoveObject(a) {
		t.Error("RemoveObject(existing) = false")
	}
	if s.RemoveObject(a) {
		t.Error("RemoveObject(removed) = true")
	}
	if s.RemoveObject("missing") {
		t.Error("RemoveObject(missing) = true")
	}
	if s.Len() != 1 || s.Find(b) == nil {
		t.Errorf("scene corrupted after removal: len=%d", s.Len())
	}
}

func TestSelection(t *testing.T) {
	s := New()
	a := s.AddStroke("#ff0000", 12, pt(0, 0))
	b := s.UpsertAnnotation("", "x", pt(5, 5), "#000000", 24)
	c := s.AddStroke("#0000ff", 12, pt(20, 20))

	s.SetSelection(b)
	if ids := s.SelectedIDs(); len(ids) != 1 || ids[0] != b {
		t.Fatalf("SelectedIDs = %v, want [%s]", ids, b)
	}

	// Selecting another object clears the previous selection.
	s.SetSelection(c)
	if ids := s.SelectedIDs(); len(ids) != 1 || ids[0] != c {
		t.Fatalf("SelectedIDs = %v, want [%s]", ids, c)
	}

	s.ClearSelection()
	if ids := s.SelectedIDs(); len(ids) != 0 {
		t.Fatalf("SelectedIDs after clear = %v", ids)
	}

	// removeSelected removes exactly the selected object.
	s.SetSelection(a)
	if n := s.RemoveSelected(); n != 1 {
		t.Fatalf("RemoveSelected = %d, want 1", n)
	}
	if s.Find(a) != nil {
		t.Error("selected object survived RemoveSelected")
	}
	if s.Find(b) == nil || s.Find(c) == nil {
		t.Error("unselected objects removed")
	}
	for _, o := range s.Objects() {
		if o.Selected() {
			t.Errorf("object %s still selected after removal", o.ObjectID())
		}
	}

	if n := s.RemoveSelected(); n != 0 {
		t.Errorf("RemoveSelected with empty selection = %d", n)
	}
}

func TestUniqueIDs(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := s.AddStroke("#ff0000", 1, pt(float64(i), 0))
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := New()
	sid := s.AddStroke("#ff0000", 12, pt(0, 0))
	tid := s.UpsertAnnotation("", "note", pt(5, 5), "#000000", 24)
	s.Find(tid).(*TextAnnotation).SetMeasured(40, 12)

	c := s.Clone()

	s.ExtendStroke(sid, pt(9, 9))
	s.UpsertAnnotation(tid, "changed", pt(1, 1), "#000000", 24)
	s.RemoveObject(sid)

	cs := c.Find(sid).(*Stroke)
	if len(cs.Points) != 1 {
		t.Errorf("clone stroke has %d points after source mutation", len(cs.Points))
	}
	ct := c.Find(tid).(*TextAnnotation)
	if ct.Text != "note" {
		t.Errorf("clone annotation text = %q after source mutation", ct.Text)
	}
	if w, h, ok := ct.Measured(); !ok || w != 40 || h != 12 {
		t.Errorf("clone lost cached measurement: %v %v %v", w, h, ok)
	}
}
