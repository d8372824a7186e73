package store

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"checklist-cli/internal/model"
)

const wireVersion = 1

//go:embed note.schema.json
var noteSchemaJSON string

const noteSchemaURL = "https://checklist.local/note.schema.json"

// WireItem is an item in the export document. Order is implied by position.
type WireItem struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Checked bool   `json:"checked,omitempty"`
	IsChild bool   `json:"isChild,omitempty"`
}

type WireNote struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Pinned    bool       `json:"pinned,omitempty"`
	Folder    string     `json:"folder,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Items     []WireItem `json:"items"`
}

// WireDocument is the portable export format of one note. Undo history is not
// exported.
type WireDocument struct {
	Version int      `json:"version"`
	Note    WireNote `json:"note"`
}

func ExportNote(n *model.Note) WireDocument {
	doc := WireDocument{Version: wireVersion, Note: WireNote{ID: n.ID, Title: n.Title, Pinned: n.Pinned, Items: []WireItem{}}}
	if n.Folder != model.FolderNotes {
		doc.Note.Folder = n.Folder
	}
	if !n.CreatedAt.IsZero() {
		t := n.CreatedAt.UTC()
		doc.Note.CreatedAt = &t
	}
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt.UTC()
		doc.Note.UpdatedAt = &t
	}
	for _, it := range PersistableItems(n.Items) {
		doc.Note.Items = append(doc.Note.Items, WireItem{ID: it.ID, Body: it.Body, Checked: it.Checked, IsChild: it.IsChild})
	}
	return doc
}

func compileNoteSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(noteSchemaURL, strings.NewReader(noteSchemaJSON)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile(noteSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ImportNote validates an export document against the note schema and the list
// invariants. A document without a note id gets a fresh one.
func ImportNote(b []byte) (*model.Note, error) {
	schema, err := compileNoteSchema()
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	var doc WireDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	n := &model.Note{ID: doc.Note.ID, Title: doc.Note.Title, Pinned: doc.Note.Pinned, Folder: doc.Note.Folder, Items: []model.ListItem{}}
	if n.Folder == "" {
		n.Folder = model.FolderNotes
	}
	if n.ID == "" {
		if n.ID, err = NewNoteID(); err != nil {
			return nil, err
		}
	}
	if doc.Note.CreatedAt != nil {
		n.CreatedAt = doc.Note.CreatedAt.UTC()
	}
	if doc.Note.UpdatedAt != nil {
		n.UpdatedAt = doc.Note.UpdatedAt.UTC()
	}
	for i, it := range doc.Note.Items {
		n.Items = append(n.Items, model.ListItem{ID: it.ID, Body: it.Body, Checked: it.Checked, IsChild: it.IsChild, Order: i})
	}
	if err := ValidateNote(n); err != nil {
		return nil, err
	}
	return n, nil
}
