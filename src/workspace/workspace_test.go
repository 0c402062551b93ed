package workspace

import (
	"os"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireIsUnique(t *testing.T) {
	ws, err := New(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := ws.Acquire()
		if seen[s.ImagePath] {
			t.Fatalf("duplicate path %s", s.ImagePath)
		}
		seen[s.ImagePath] = true
		if !strings.HasSuffix(s.ImagePath, ".png") {
			t.Errorf("path %s lacks .png suffix", s.ImagePath)
		}
	}
}

func TestReleaseRemovesFiles(t *testing.T) {
	ws, err := New(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		s := ws.Acquire()
		touch(t, s.ImagePath)
		touch(t, s.Derive("prep"))
		ws.Release(s)
	}
	left, err := ws.Outstanding()
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("outstanding files after release: %v", left)
	}
}

func TestKeepRetainsOnlyLatest(t *testing.T) {
	ws, err := New(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	var last *Slot
	for i := 0; i < 4; i++ {
		last = ws.Acquire()
		touch(t, last.ImagePath)
		ws.Release(last)
	}
	left, err := ws.Outstanding()
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0] != last.ImagePath {
		t.Errorf("outstanding = %v, want only %s", left, last.ImagePath)
	}
}

func TestReleaseMissingFileIsQuiet(t *testing.T) {
	ws, err := New(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	ws.Release(ws.Acquire())
	ws.Release(nil)
}
