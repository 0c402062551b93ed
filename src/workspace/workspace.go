package workspace

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const filePrefix = "screen-ocr-"

// Workspace hands out a unique image path per pipeline run and removes the
// files once the run is over, so runs never share or accumulate temp files.
type Workspace struct {
	dir  string
	keep bool

	mu       sync.Mutex
	retained *Slot
}

// Slot is the set of files owned by one run.
type Slot struct {
	ID        string
	ImagePath string
	derived   []string
}

// New prepares dir (created if needed). With keep set, the files of the most
// recent run are retained for inspection; older ones are still removed.
func New(dir string, keep bool) (*Workspace, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace dir %s: %w", dir, err)
	}
	return &Workspace{dir: dir, keep: keep}, nil
}

func (w *Workspace) Dir() string { return w.dir }

// Acquire allocates a fresh slot. No file is created yet; the capture stage
// writes ImagePath.
func (w *Workspace) Acquire() *Slot {
	id := uuid.NewString()
	return &Slot{
		ID:        id,
		ImagePath: filepath.Join(w.dir, filePrefix+id+".png"),
	}
}

// Derive returns a sibling path (e.g. a preprocessed copy) that is released
// together with the slot.
func (s *Slot) Derive(suffix string) string {
	p := strings.TrimSuffix(s.ImagePath, ".png") + "-" + suffix + ".png"
	s.derived = append(s.derived, p)
	return p
}

func (s *Slot) files() []string {
	return append([]string{s.ImagePath}, s.derived...)
}

// Release removes the slot's files, or retains them when keep is enabled
// (dropping whichever slot was retained before).
func (w *Workspace) Release(s *Slot) {
	if s == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.keep {
		removeAll(s.files())
		return
	}
	if w.retained != nil && w.retained.ID != s.ID {
		removeAll(w.retained.files())
	}
	w.retained = s
	log.Printf("workspace: keeping %s", s.ImagePath)
}

// Outstanding lists the image files currently present in the workspace.
func (w *Workspace) Outstanding() ([]string, error) {
	return filepath.Glob(filepath.Join(w.dir, filePrefix+"*.png"))
}

func removeAll(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("workspace: remove %s: %v", p, err)
		}
	}
}
