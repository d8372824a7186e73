package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"checklist-cli/internal/history"
	"checklist-cli/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "notes.sqlite"

// SQLiteNotes keeps notes, their items and their event log in one SQLite file.
// Every call opens its own connection so several processes can share the file.
type SQLiteNotes struct {
	Dir    string
	logger *log.Logger
}

func (s *SQLiteNotes) path() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (s *SQLiteNotes) open(ctx context.Context) (*sql.DB, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.path())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			history_json TEXT NOT NULL DEFAULT '',
			pinned INTEGER NOT NULL DEFAULT 0,
			folder TEXT NOT NULL DEFAULT 'notes'
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			body TEXT NOT NULL,
			checked INTEGER NOT NULL,
			is_child INTEGER NOT NULL,
			PRIMARY KEY (note_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS items_by_position ON items(note_id, position);`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			item_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			issued_at_unixms INTEGER NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS events_by_note_seq ON events(note_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	// Files created before notes could be pinned or archived.
	if err := addColumnIfMissing(ctx, db, "notes", "pinned", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	return addColumnIfMissing(ctx, db, "notes", "folder", "TEXT NOT NULL DEFAULT 'notes'")
}

func addColumnIfMissing(ctx context.Context, db *sql.DB, table, column, decl string) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `ALTER TABLE `+table+` ADD COLUMN `+column+` `+decl)
	return err
}

// listOrder maps a normalized sort to an ORDER BY clause.
func listOrder(o ListOptions) string {
	col := "n.created_at_unixms"
	switch o.SortBy {
	case SortByModifiedDate:
		col = "n.updated_at_unixms"
	case SortByTitle:
		col = "n.title"
	}
	dir := "DESC"
	if o.Direction == SortAsc {
		dir = "ASC"
	}
	return "n.pinned DESC, " + col + " " + dir + ", n.id ASC"
}

func (s *SQLiteNotes) ListNotes(ctx context.Context, opts ListOptions) ([]model.NoteSummary, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT n.id, n.title, n.pinned, n.folder, n.created_at_unixms, n.updated_at_unixms,
			COUNT(i.id), COALESCE(SUM(i.checked), 0)
		FROM notes n LEFT JOIN items i ON i.note_id = n.id
		WHERE n.folder = ?
		GROUP BY n.id
		ORDER BY `+listOrder(opts), opts.Folder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.NoteSummary{}
	for rows.Next() {
		var sum model.NoteSummary
		var pinned int
		var createdMs, updatedMs int64
		if err := rows.Scan(&sum.ID, &sum.Title, &pinned, &sum.Folder, &createdMs, &updatedMs, &sum.Items, &sum.Checked); err != nil {
			return nil, err
		}
		sum.Pinned = pinned != 0
		sum.CreatedAt = time.UnixMilli(createdMs).UTC()
		sum.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteNotes) LoadNote(ctx context.Context, id string) (*model.Note, error) {
	id = strings.TrimSpace(id)
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	n := &model.Note{ID: id, Items: []model.ListItem{}}
	var createdMs, updatedMs int64
	var pinned int
	var historyJSON string
	err = db.QueryRowContext(ctx, `SELECT title, pinned, folder, created_at_unixms, updated_at_unixms, history_json FROM notes WHERE id = ?`, id).
		Scan(&n.Title, &pinned, &n.Folder, &createdMs, &updatedMs, &historyJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError{Kind: "note", ID: id}
	}
	if err != nil {
		return nil, err
	}
	n.Pinned = pinned != 0
	n.CreatedAt = time.UnixMilli(createdMs).UTC()
	n.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	if historyJSON != "" {
		var h history.Log
		if err := json.Unmarshal([]byte(historyJSON), &h); err != nil {
			s.logger.Warn("dropping unreadable history", "note", id, "err", err)
		} else {
			n.History = &h
		}
	}

	rows, err := db.QueryContext(ctx, `SELECT id, body, checked, is_child FROM items WHERE note_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.ListItem
		var checked, isChild int
		if err := rows.Scan(&it.ID, &it.Body, &checked, &isChild); err != nil {
			return nil, err
		}
		it.Checked = checked != 0
		it.IsChild = isChild != 0
		it.Order = len(n.Items)
		n.Items = append(n.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := ValidateNote(n); err != nil {
		return nil, err
	}
	s.logger.Debug("loaded note", "note", id, "items", len(n.Items))
	return n, nil
}

// SaveNote writes the note and replaces all of its items in one transaction.
func (s *SQLiteNotes) SaveNote(ctx context.Context, n *model.Note) error {
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

	historyJSON := ""
	if n.History != nil {
		b, err := json.Marshal(n.History)
		if err != nil {
			return err
		}
		historyJSON = string(b)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO notes(id, title, pinned, folder, created_at_unixms, updated_at_unixms, history_json)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title,
			pinned = excluded.pinned,
			folder = excluded.folder,
			created_at_unixms = excluded.created_at_unixms,
			updated_at_unixms = excluded.updated_at_unixms,
			history_json = excluded.history_json`,
		n.ID, n.Title, boolToInt(n.Pinned), n.Folder, n.CreatedAt.UnixMilli(), n.UpdatedAt.UnixMilli(), historyJSON); err != nil {
		return err
	}
	// Replace-all: positions are the list order, nothing else encodes it.
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE note_id = ?`, n.ID); err != nil {
		return err
	}
	for i, it := range items {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items(note_id, id, position, body, checked, is_child) VALUES(?, ?, ?, ?, ?, ?)`,
			n.ID, it.ID, i, it.Body, boolToInt(it.Checked), boolToInt(it.IsChild)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	n.Items = items
	s.logger.Debug("saved note", "note", n.ID, "items", len(items))
	return nil
}

func (s *SQLiteNotes) DeleteNote(ctx context.Context, id string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundError{Kind: "note", ID: id}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE note_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteNotes) AppendEvent(ctx context.Context, noteID, typ, itemID string, payload any) (model.Event, error) {
	ev, pb, err := newEvent(noteID, typ, itemID, payload)
	if err != nil {
		return model.Event{}, err
	}

	db, err := s.open(ctx)
	if err != nil {
		return model.Event{}, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Event{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE note_id = ?`, ev.NoteID).Scan(&ev.Seq); err != nil {
		return model.Event{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(event_id, note_id, seq, type, item_id, payload_json, issued_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.NoteID, ev.Seq, ev.Type, ev.ItemID, string(pb), ev.TS.UnixMilli()); err != nil {
		return model.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *SQLiteNotes) ReadEvents(ctx context.Context, noteID string, limit int) ([]model.Event, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT event_id, seq, type, item_id, payload_json, issued_at_unixms
	      FROM events
	      WHERE note_id = ?
	      ORDER BY seq ASC`
	args := []any{noteID}
	if limit > 0 {
		// Keep the newest events but return them in order.
		var total int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE note_id = ?`, noteID).Scan(&total); err != nil {
			return nil, err
		}
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(0, total-limit))
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		ev := model.Event{NoteID: noteID}
		var payloadJSON string
		var tsMs int64
		if err := rows.Scan(&ev.ID, &ev.Seq, &ev.Type, &ev.ItemID, &payloadJSON, &tsMs); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(payloadJSON), &ev.Payload)
		ev.TS = time.UnixMilli(tsMs).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

// newEvent fills in the fields every backend stamps on an event. Seq is left to the
// backend.
func newEvent(noteID, typ, itemID string, payload any) (model.Event, []byte, error) {
	noteID = strings.TrimSpace(noteID)
	typ = strings.TrimSpace(typ)
	if noteID == "" {
		return model.Event{}, nil, errors.New("event: missing note id")
	}
	if typ == "" {
		return model.Event{}, nil, errors.New("event: missing type")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return model.Event{}, nil, err
	}
	return model.Event{
		ID:      uuid.NewString(),
		NoteID:  noteID,
		TS:      time.Now().UTC(),
		Type:    typ,
		ItemID:  strings.TrimSpace(itemID),
		Payload: payload,
	}, pb, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
