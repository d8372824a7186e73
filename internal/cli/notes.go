package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"checklist-cli/internal/format"
	"checklist-cli/internal/history"
	"checklist-cli/internal/model"
	"checklist-cli/internal/store"
)

func newNotesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Create, list and manage checklist notes",
	}
	cmd.AddCommand(newNotesCreateCmd(app))
	cmd.AddCommand(newNotesListCmd(app))
	cmd.AddCommand(newNotesShowCmd(app))
	cmd.AddCommand(newNotesUseCmd(app))
	cmd.AddCommand(newNotesRenameCmd(app))
	cmd.AddCommand(newNotesPinCmd(app, true))
	cmd.AddCommand(newNotesPinCmd(app, false))
	cmd.AddCommand(newNotesArchiveCmd(app, true))
	cmd.AddCommand(newNotesArchiveCmd(app, false))
	cmd.AddCommand(newNotesDeleteCmd(app))
	cmd.AddCommand(newNotesExportCmd(app))
	cmd.AddCommand(newNotesImportCmd(app))
	return cmd
}

// noteView is the output shape of a note. The undo log stays internal.
func noteView(n *model.Note) *model.Note {
	v := *n
	v.History = nil
	return &v
}

func newNotesCreateCmd(app *App) *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an empty note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := store.NewNoteID()
			if err != nil {
				return writeErr(cmd, err)
			}
			n := &model.Note{
				ID:      id,
				Title:   strings.TrimSpace(args[0]),
				Items:   []model.ListItem{},
				History: history.NewLog(app.cfg.HistoryLimit),
			}
			ctx := cmdContext(cmd)
			if err := db.SaveNote(ctx, n); err != nil {
				return writeErr(cmd, err)
			}
			if _, err := db.AppendEvent(ctx, n.ID, "note.create", "", map[string]any{"title": n.Title}); err != nil {
				return writeErr(cmd, err)
			}
			if use {
				if err := setCurrentNote(app, n.ID); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": noteView(n)})
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "Make the new note the current note")
	return cmd
}

func newNotesListCmd(app *App) *cobra.Command {
	var archived bool
	var sortBy, direction string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes (pinned first, then by the notesSorting config key)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.cfg.ListOptions()
			opts.Folder = model.FolderNotes
			if archived {
				opts.Folder = model.FolderArchived
			}
			if sortBy != "" {
				opts.SortBy = sortBy
			}
			if direction != "" {
				opts.Direction = direction
			}
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			notes, err := db.ListNotes(cmdContext(cmd), opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": notes})
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "List archived notes instead")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Order by creationDate|modifiedDate|title (overrides config)")
	cmd.Flags().StringVar(&direction, "direction", "", "Sort direction asc|desc (overrides config)")
	return cmd
}

func newNotesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [note-id]",
		Short: "Show a note and its items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := noteArg(app, args, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := db.LoadNote(cmdContext(cmd), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": noteView(n)})
		},
	}
}

func newNotesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <note-id>",
		Short: "Set the current note used when a command names none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := db.LoadNote(cmdContext(cmd), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := setCurrentNote(app, n.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"currentNote": n.ID}})
		},
	}
}

func setCurrentNote(app *App, id string) error {
	return saveConfigKey(app, "currentNote", id)
}

func newNotesRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename [note-id] <title>",
		Short: "Change a note's title",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[len(args)-1])
			return updateNote(cmd, app, args[:len(args)-1], "note.rename", func(n *model.Note) (map[string]any, bool) {
				if n.Title == title {
					return nil, false
				}
				old := n.Title
				n.Title = title
				return map[string]any{"from": old, "to": title}, true
			})
		},
	}
}

// updateNote loads a note, applies fn and saves it with one event when fn reports
// a change.
func updateNote(cmd *cobra.Command, app *App, args []string, eventType string, fn func(n *model.Note) (map[string]any, bool)) error {
	id, err := noteArg(app, args, "")
	if err != nil {
		return writeErr(cmd, err)
	}
	db, err := openDB(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := cmdContext(cmd)
	n, err := db.LoadNote(ctx, id)
	if err != nil {
		return writeErr(cmd, err)
	}
	payload, changed := fn(n)
	if changed {
		if err := db.SaveNote(ctx, n); err != nil {
			return writeErr(cmd, err)
		}
		if _, err := db.AppendEvent(ctx, n.ID, eventType, "", payload); err != nil {
			return writeErr(cmd, err)
		}
	}
	return writeOut(cmd, app, map[string]any{"data": noteView(n), "meta": map[string]any{"changed": changed}})
}

func newNotesPinCmd(app *App, pin bool) *cobra.Command {
	use, short, typ := "pin", "Pin a note to the top of the list", "note.pin"
	if !pin {
		use, short, typ = "unpin", "Unpin a note", "note.unpin"
	}
	return &cobra.Command{
		Use:   use + " [note-id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateNote(cmd, app, args, typ, func(n *model.Note) (map[string]any, bool) {
				if n.Pinned == pin {
					return nil, false
				}
				n.Pinned = pin
				return map[string]any{"pinned": pin}, true
			})
		},
	}
}

func newNotesArchiveCmd(app *App, archive bool) *cobra.Command {
	use, short, typ, folder := "archive", "Move a note to the archive", "note.archive", model.FolderArchived
	if !archive {
		use, short, typ, folder = "unarchive", "Move an archived note back to the notes list", "note.unarchive", model.FolderNotes
	}
	return &cobra.Command{
		Use:   use + " [note-id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateNote(cmd, app, args, typ, func(n *model.Note) (map[string]any, bool) {
				if n.Folder == folder {
					return nil, false
				}
				from := n.Folder
				n.Folder = folder
				return map[string]any{"from": from, "to": folder}, true
			})
		},
	}
}

func newNotesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <note-id>",
		Short: "Delete a note with its items and events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if err := db.DeleteNote(cmdContext(cmd), id); err != nil {
				return writeErr(cmd, err)
			}
			if app.cfg.CurrentNote == id {
				if err := setCurrentNote(app, ""); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": id}})
		},
	}
}

func newNotesExportCmd(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export [note-id]",
		Short: "Write a note as a portable JSON document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := noteArg(app, args, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := db.LoadNote(cmdContext(cmd), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			doc := store.ExportNote(n)
			if out == "" || out == "-" {
				return format.WriteJSON(cmd.OutOrStdout(), doc, true)
			}
			f, err := os.Create(out)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := format.WriteJSON(f, doc, true); err != nil {
				f.Close()
				return writeErr(cmd, err)
			}
			if err := f.Close(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"exported": n.ID, "path": out}})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newNotesImportCmd(app *App) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a note exported with `notes export`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var b []byte
			var err error
			if args[0] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := store.ImportNote(b)
			if err != nil {
				return writeErr(cmd, err)
			}
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmdContext(cmd)
			_, err = db.LoadNote(ctx, n.ID)
			var nf store.NotFoundError
			switch {
			case err == nil && !replace:
				return writeErr(cmd, errUsage("note %s already exists (use --replace)", n.ID))
			case err != nil && !errors.As(err, &nf):
				return writeErr(cmd, err)
			}
			n.History = history.NewLog(app.cfg.HistoryLimit)
			if err := db.SaveNote(ctx, n); err != nil {
				return writeErr(cmd, err)
			}
			if _, err := db.AppendEvent(ctx, n.ID, "note.import", "", map[string]any{"items": len(n.Items)}); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": noteView(n)})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite an existing note with the same id")
	return cmd
}
