package cli

import (
	"github.com/spf13/cobra"

	"checklist-cli/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change preferences (~/.checklist/config.json)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config (file plus CHECKLIST_* env overrides)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": app.cfg, "meta": map[string]any{"path": path, "keys": store.ConfigKeys()}})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := saveConfigKey(app, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": app.cfg})
		},
	})

	return cmd
}

// saveConfigKey writes one key to config.json and mirrors it into the config of
// this run. CHECKLIST_* overrides stay out of the file.
func saveConfigKey(app *App, key, value string) error {
	if _, err := store.UpdateConfig(func(c *store.Config) error { return c.Set(key, value) }); err != nil {
		return err
	}
	return app.cfg.Set(key, value)
}
