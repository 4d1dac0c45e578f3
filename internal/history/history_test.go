package history

import (
	"testing"

	"image-markup/internal/scene"
	"image-markup/pkg/geometry"
)

func pt(x, y float64) geometry.Point2D {
	return geometry.Point2D{X: x, Y: y}
}

// sceneIDs returns object ids in z-order, for deep-equality checks.
func sceneIDs(s *scene.Scene) []string {
	var ids []string
	for _, o := range s.Objects() {
		ids = append(ids, o.ObjectID())
	}
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUndoRestoresPriorScene(t *testing.T) {
	s := scene.New()
	h := New(s)

	s.AddStroke("#ff0000", 5, pt(1, 1))
	h.Commit(s)

	if h.Len() != 2 {
		t.Fatalf("history has %d entries, want 2", h.Len())
	}

	prev := h.Undo()
	if prev == nil {
		t.Fatal("Undo returned nil with one committed entry")
	}
	if prev.Len() != 0 {
		t.Errorf("undone scene has %d objects, want 0", prev.Len())
	}
}

func TestUndoRedoAreInverses(t *testing.T) {
	s := scene.New()
	h := New(s)

	a := s.AddStroke("#ff0000", 5, pt(1, 1))
	h.Commit(s)
	b := s.AddStroke("#00ff00", 5, pt(2, 2))
	h.Commit(s)

	one := h.Undo()
	if !sameIDs(sceneIDs(one), []string{a}) {
		t.Fatalf("after undo ids = %v, want [%s]", sceneIDs(one), a)
	}

	two := h.Redo()
	if !sameIDs(sceneIDs(two), []string{a, b}) {
		t.Fatalf("after redo ids = %v, want [%s %s]", sceneIDs(two), a, b)
	}
}

func TestBoundaryNoops(t *testing.T) {
	h := New(scene.New())
	if h.Undo() != nil {
		t.Error("Undo at pointer 0 returned a scene")
	}
	if h.Redo() != nil {
		t.Error("Redo at head returned a scene")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("Can* reported true on a fresh history")
	}
}

func TestBranchingCommitDiscardsRedo(t *testing.T) {
	s := scene.New()
	h := New(s)

	s.AddStroke("#ff0000", 5, pt(1, 1))
	h.Commit(s)
	s.AddStroke("#00ff00", 5, pt(2, 2))
	h.Commit(s)

	s.Replace(h.Undo())
	if !h.CanRedo() {
		t.Fatal("CanRedo = false after undo")
	}

	// Commit from the undone state: the redo branch must be destroyed.
	c := s.AddStroke("#0000ff", 5, pt(3, 3))
	h.Commit(s)

	if h.CanRedo() {
		t.Error("CanRedo = true after branching commit")
	}
	if h.Redo() != nil {
		t.Error("Redo after branching commit returned a scene")
	}
	if got := sceneIDs(s); len(got) != 2 || got[1] != c {
		t.Errorf("scene ids after branch = %v", got)
	}
}

func TestCommitCopiesDeeply(t *testing.T) {
	s := scene.New()
	h := New(s)

	id := s.AddStroke("#ff0000", 5, pt(1, 1))
	h.Commit(s)

	// Mutating the live scene must not alter the stored snapshot.
	s.ExtendStroke(id, pt(9, 9))
	s.AddStroke("#00ff00", 5, pt(2, 2))

	snap := h.Undo()
	if snap.Len() != 0 {
		t.Fatalf("seed snapshot has %d objects", snap.Len())
	}
	head := h.Redo()
	st := head.Find(id).(*scene.Stroke)
	if len(st.Points) != 1 {
		t.Errorf("stored snapshot stroke has %d points, want 1", len(st.Points))
	}
	if head.Len() != 1 {
		t.Errorf("stored snapshot has %d objects, want 1", head.Len())
	}
}

func TestUndoReturnsCopies(t *testing.T) {
	s := scene.New()
	h := New(s)
	s.AddStroke("#ff0000", 5, pt(1, 1))
	h.Commit(s)

	first := h.Undo()
	first.AddStroke("#00ff00", 5, pt(7, 7))

	h.Redo()
	second := h.Undo()
	if second.Len() != 0 {
		t.Errorf("mutating an undo result leaked into history: %d objects", second.Len())
	}
}

func TestReset(t *testing.T) {
	s := scene.New()
	h := New(s)
	s.AddStroke("#ff0000", 5, pt(1, 1))
	h.Commit(s)

	s.Clear()
	h.Reset(s)

	if h.Len() != 1 {
		t.Errorf("history has %d entries after reset, want 1", h.Len())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("reset history still navigable")
	}
}
