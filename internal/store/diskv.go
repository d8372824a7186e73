package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/peterbourgon/diskv/v3"

	"checklist-cli/internal/model"
)

const (
	notesBucket  = "notes"
	eventsBucket = "events"
)

// DiskvNotes keeps one JSON document per note, plus one JSON event list per note,
// under <dir>/diskv.
type DiskvNotes struct {
	d      *diskv.Diskv
	logger *log.Logger
}

func NewDiskvNotes(dir string, logger *log.Logger) *DiskvNotes {
	return &DiskvNotes{
		d: diskv.New(diskv.Options{
			BasePath:          filepath.Join(dir, "diskv"),
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		logger: logger,
	}
}

// Keys look like "notes/note-abc12345"; the bucket becomes a directory.
func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return strings.Join(append(append([]string{}, pathKey.Path...), pathKey.FileName), "/")
}

func noteKey(id string) string   { return notesBucket + "/" + id }
func eventsKey(id string) string { return eventsBucket + "/" + id }

// keyID trims id and rejects anything that is not a note id, so a key never
// leaves its bucket.
func keyID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !IsNoteID(id) {
		return "", NotFoundError{Kind: "note", ID: id}
	}
	return id, nil
}

func (p *DiskvNotes) read(id string) (*model.Note, error) {
	b, err := p.d.Read(noteKey(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NotFoundError{Kind: "note", ID: id}
		}
		return nil, err
	}
	var n model.Note
	if err := json.Unmarshal(b, &n); err != nil {
		// Retry without the history so a bad undo log does not lose the note.
		var doc struct {
			ID        string           `json:"id"`
			Title     string           `json:"title"`
			Pinned    bool             `json:"pinned"`
			Folder    string           `json:"folder"`
			Items     []model.ListItem `json:"items"`
			CreatedAt time.Time        `json:"createdAt"`
			UpdatedAt time.Time        `json:"updatedAt"`
		}
		if err2 := json.Unmarshal(b, &doc); err2 != nil {
			return nil, err
		}
		p.logger.Warn("dropping unreadable history", "note", id, "err", err)
		n = model.Note{ID: doc.ID, Title: doc.Title, Pinned: doc.Pinned, Folder: doc.Folder, Items: doc.Items, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt}
	}
	if n.Items == nil {
		n.Items = []model.ListItem{}
	}
	if n.Folder == "" {
		n.Folder = model.FolderNotes
	}
	return &n, nil
}

func (p *DiskvNotes) ListNotes(ctx context.Context, opts ListOptions) ([]model.NoteSummary, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	out := []model.NoteSummary{}
	for key := range p.d.KeysPrefix(notesBucket+"/", ctx.Done()) {
		pk := keyToPathTransform(key)
		n, err := p.read(pk.FileName)
		if err != nil {
			p.logger.Warn("skipping unreadable note", "key", key, "err", err)
			continue
		}
		if n.Folder != opts.Folder {
			continue
		}
		out = append(out, n.Summary())
	}
	SortSummaries(out, opts)
	return out, nil
}

func (p *DiskvNotes) LoadNote(ctx context.Context, id string) (*model.Note, error) {
	id, err := keyID(id)
	if err != nil {
		return nil, err
	}
	n, err := p.read(id)
	if err != nil {
		return nil, err
	}
	for i := range n.Items {
		n.Items[i].Order = i
	}
	if err := ValidateNote(n); err != nil {
		return nil, err
	}
	p.logger.Debug("loaded note", "note", n.ID, "items", len(n.Items))
	return n, nil
}

func (p *DiskvNotes) SaveNote(ctx context.Context, n *model.Note) error {
	if n == nil {
		return errors.New("nil note")
	}
	if n.Folder == "" {
		n.Folder = model.FolderNotes
	}
	items := PersistableItems(n.Items)
	check := *n
	check.Items = items
	if err := ValidateNote(&check); err != nil {
		return err
	}
	// Millisecond stamps, like the sqlite backend, so both list notes in the same order.
	now := time.Now().UTC().Truncate(time.Millisecond)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	check.CreatedAt, check.UpdatedAt = n.CreatedAt, n.UpdatedAt

	b, err := json.Marshal(&check)
	if err != nil {
		return err
	}
	if err := p.d.Write(noteKey(n.ID), b); err != nil {
		return err
	}
	n.Items = items
	p.logger.Debug("saved note", "note", n.ID, "items", len(items))
	return nil
}

func (p *DiskvNotes) DeleteNote(ctx context.Context, id string) error {
	id, err := keyID(id)
	if err != nil {
		return err
	}
	if !p.d.Has(noteKey(id)) {
		return NotFoundError{Kind: "note", ID: id}
	}
	if err := p.d.Erase(noteKey(id)); err != nil {
		return err
	}
	if p.d.Has(eventsKey(id)) {
		return p.d.Erase(eventsKey(id))
	}
	return nil
}

func (p *DiskvNotes) readEvents(noteID string) ([]model.Event, error) {
	b, err := p.d.Read(eventsKey(noteID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Event{}, nil
		}
		return nil, err
	}
	var out []model.Event
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *DiskvNotes) AppendEvent(ctx context.Context, noteID, typ, itemID string, payload any) (model.Event, error) {
	ev, _, err := newEvent(noteID, typ, itemID, payload)
	if err != nil {
		return model.Event{}, err
	}
	if _, err := keyID(ev.NoteID); err != nil {
		return model.Event{}, err
	}
	events, err := p.readEvents(ev.NoteID)
	if err != nil {
		return model.Event{}, err
	}
	ev.Seq = int64(len(events)) + 1
	if n := len(events); n > 0 {
		ev.Seq = events[n-1].Seq + 1
	}
	b, err := json.Marshal(append(events, ev))
	if err != nil {
		return model.Event{}, err
	}
	if err := p.d.Write(eventsKey(ev.NoteID), b); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (p *DiskvNotes) ReadEvents(ctx context.Context, noteID string, limit int) ([]model.Event, error) {
	id, err := keyID(noteID)
	if err != nil {
		return nil, err
	}
	events, err := p.readEvents(id)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}
