package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"checklist-cli/internal/logging"
	"checklist-cli/internal/model"
)

const (
	dirName         = ".checklist"
	BackendSQLite   = "sqlite"
	BackendDiskv    = "diskv"
	DefaultBackend  = BackendSQLite
	defaultWorkName = "default"
)

// Persistence is the note storage contract shared by every backend.
type Persistence interface {
	ListNotes(ctx context.Context, opts ListOptions) ([]model.NoteSummary, error)
	LoadNote(ctx context.Context, id string) (*model.Note, error)
	SaveNote(ctx context.Context, n *model.Note) error
	DeleteNote(ctx context.Context, id string) error
	AppendEvent(ctx context.Context, noteID, typ, itemID string, payload any) (model.Event, error)
	ReadEvents(ctx context.Context, noteID string, limit int) ([]model.Event, error)
}

type Store struct {
	Dir string
}

// DiscoverDir walks up from start looking for a .checklist directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir resolves the notes directory when no --dir flag is given:
// CHECKLIST_DIR, then the nearest .checklist directory upwards, then
// ~/.checklist/default.
func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_DIR")); v != "" {
		return homedir.Expand(v)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName, defaultWorkName), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// Open returns the backend with the given name rooted at s.Dir.
func (s Store) Open(backend string, logger *log.Logger) (Persistence, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return &SQLiteNotes{Dir: s.Dir, logger: logger}, nil
	case BackendDiskv:
		return NewDiskvNotes(s.Dir, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", backend, BackendSQLite, BackendDiskv)
	}
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// PersistableItems returns items as they are written to storage: empty bodies are
// dropped, order is renumbered, and children of a dropped parent become top-level.
func PersistableItems(items []model.ListItem) []model.ListItem {
	out := make([]model.ListItem, 0, len(items))
	orphaned := false
	for _, it := range items {
		if it.Body == "" {
			if !it.IsChild {
				orphaned = true
			}
			continue
		}
		it.Children = nil
		if !it.IsChild {
			orphaned = false
		} else if orphaned || len(out) == 0 {
			it.IsChild = false
		}
		it.Order = len(out)
		out = append(out, it)
	}
	return out
}
