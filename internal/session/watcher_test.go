package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.markup")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 1)
	w, err := Watch(path, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		if p != filepath.Clean(path) {
			t.Errorf("changed path = %q", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event within 5s")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.markup")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 1)
	w, err := Watch(path, func(p string) { changed <- p })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.markup"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		t.Errorf("unexpected event for %q", p)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherDebouncesAfterPriorFire(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.markup")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	fired := make(chan time.Time, 4)
	w, err := Watch(path, func(string) { fired <- time.Now() })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("no event for first write")
	}

	// A second burst must wait the full window even though the timer has
	// already fired once.
	if err := os.WriteFile(path, []byte("v3"), 0644); err != nil {
		t.Fatal(err)
	}
	wrote := time.Now()
	if err := os.WriteFile(path, []byte("v4"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case at := <-fired:
		if elapsed := at.Sub(wrote); elapsed < debounceWindow/2 {
			t.Errorf("second burst fired after %v, before the debounce window", elapsed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for second burst")
	}

	select {
	case at := <-fired:
		t.Errorf("burst fired twice, extra event at %v", at)
	case <-time.After(500 * time.Millisecond):
	}
}
