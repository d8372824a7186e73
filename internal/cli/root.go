package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"checklist-cli/internal/format"
	"checklist-cli/internal/logging"
	"checklist-cli/internal/store"
)

type App struct {
	Dir        string
	Backend    string
	PrettyJSON bool
	Format     string
	Render     bool
	Width      int
	LogLevel   string

	cfg    *store.Config
	logger *log.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "checklist",
		Short:        "Checklist notes with nested items, undo and an event log",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a note and add items
  checklist notes create "Groceries" --use
  checklist items add "Milk"
  checklist items add "2%" --child

  # Show the current note as a checklist
  checklist notes show --format text

  # Direct note lookup (shortcut for: checklist notes show <note-id>)
  checklist note-abc12345
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		level := cfg.LogLevel
		if app.LogLevel != "" {
			level = app.LogLevel
		}
		app.logger = logging.FromConfig(cmd.ErrOrStderr(), level, cfg.LogFormat)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("CHECKLIST_DIR", ""), "Path to the notes dir (default: nearest .checklist upwards, else ~/.checklist/default)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", "", "Storage backend (sqlite|diskv; overrides config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CHECKLIST_FORMAT", "json"), "Output format ("+strings.Join(format.Formats, "|")+")")
	cmd.PersistentFlags().BoolVar(&app.Render, "render", false, "Render markdown output for the terminal")
	cmd.PersistentFlags().IntVar(&app.Width, "width", 0, "Truncate text output to this many columns (0 = no limit)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("CHECKLIST_LOG_LEVEL", ""), "Log level (debug|info|warn|error; overrides config)")

	cmd.AddCommand(newNotesCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newUndoCmd(app))
	cmd.AddCommand(newRedoCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// openDB resolves the notes dir and opens the configured backend.
func openDB(app *App) (store.Persistence, error) {
	dir := app.Dir
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
		app.Dir = dir
	}
	backend := app.cfg.Backend
	if app.Backend != "" {
		backend = app.Backend
	}
	app.logger.Debug("opening notes", "dir", dir, "backend", backend)
	return store.Store{Dir: dir}.Open(backend, app.logger)
}

// noteArg picks the note named on the command line, else the current note.
func noteArg(app *App, args []string, flag string) (string, error) {
	id := flag
	if len(args) > 0 {
		id = args[0]
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = app.cfg.CurrentNote
	}
	if id == "" {
		return "", errNoNote
	}
	return id, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func (app *App) outputOptions() format.Options {
	return format.Options{
		Format: app.Format,
		Pretty: app.PrettyJSON,
		Render: app.Render,
		Width:  app.Width,
	}
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteWith(cmd.OutOrStdout(), v, app.outputOptions())
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
