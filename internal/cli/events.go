package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events [note-id]",
		Short: "List the event log of a note (oldest-first)",
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
			evs, err := db.ReadEvents(cmdContext(cmd), id, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "Max events to return, newest kept (0 = all)")
	return cmd
}
