package cli

import (
	"github.com/spf13/cobra"

	"checklist-cli/internal/editor"
)

func newUndoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "undo [note-id]",
		Short: "Undo the last item change of a note",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := noteArg(app, args, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, "note.undo", (*editor.Controller).Undo)
		},
	}
}

func newRedoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "redo [note-id]",
		Short: "Redo the last undone item change of a note",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := noteArg(app, args, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, "note.redo", (*editor.Controller).Redo)
		},
	}
}
