package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"checklist-cli/internal/editor"
	"checklist-cli/internal/history"
)

// gesture is one controller call made by a command.
type gesture func(ctl *editor.Controller) (editor.Result, error)

// runGesture loads a note, applies one gesture, then saves the note and appends an
// event when the list changed. The output is the note after the gesture with the
// gesture's result under "meta".
func runGesture(cmd *cobra.Command, app *App, noteID, eventType string, fn gesture) error {
	db, err := openDB(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := cmdContext(cmd)
	n, err := db.LoadNote(ctx, noteID)
	if err != nil {
		return writeErr(cmd, err)
	}
	ctl, err := editor.Open(n,
		editor.WithAutoSort(app.cfg.AutoSortByChecked),
		editor.WithHistoryLimit(app.cfg.HistoryLimit),
		editor.WithLogger(app.logger),
	)
	if err != nil {
		return writeErr(cmd, err)
	}
	res, err := fn(ctl)
	if err != nil {
		return writeErr(cmd, err)
	}

	if res.Changed {
		n.Items = ctl.Items()
		n.History = ctl.History()
		if len(ctl.Persistable()) != ctl.Size() {
			// Dropping empty items on save shifts positions the log refers to.
			app.logger.Debug("resetting history: empty items dropped on save", "note", n.ID)
			n.History = history.NewLog(app.cfg.HistoryLimit)
		}
		if err := db.SaveNote(ctx, n); err != nil {
			return writeErr(cmd, err)
		}
		itemID := ""
		if res.Item != nil {
			itemID = res.Item.ID
		}
		if _, err := db.AppendEvent(ctx, n.ID, eventType, itemID, res.EventPayload); err != nil {
			return writeErr(cmd, err)
		}
	}

	meta := map[string]any{"changed": res.Changed}
	if res.Item != nil {
		meta["item"] = res.Item
		meta["index"] = res.Index
	}
	return writeOut(cmd, app, map[string]any{"data": noteView(n), "meta": meta})
}

// itemIndex resolves an item reference: an item id, else a 0-based position.
func itemIndex(ctl *editor.Controller, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	_, i, err := ctl.Item(ref)
	if err == nil {
		return i, nil
	}
	var nf editor.NotFoundError
	if !errors.As(err, &nf) {
		return -1, err
	}
	if n, convErr := strconv.Atoi(ref); convErr == nil {
		if n < 0 || n >= ctl.Size() {
			return -1, editor.IndexError{Index: n, Size: ctl.Size()}
		}
		return n, nil
	}
	return -1, err
}

// onItem adapts a per-index controller call to a gesture on the referenced item.
func onItem(ref string, fn func(ctl *editor.Controller, index int) (editor.Result, error)) gesture {
	return func(ctl *editor.Controller) (editor.Result, error) {
		i, err := itemIndex(ctl, ref)
		if err != nil {
			return editor.Result{}, err
		}
		return fn(ctl, i)
	}
}

func newItemsCmd(app *App) *cobra.Command {
	var noteID string

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Edit the items of a note",
		Long: strings.TrimSpace(`
Items are addressed by id (li-xxxxxx) or by 0-based position.

A child belongs to the nearest item above it that is not a child. Checking a parent
checks its children; unchecking a child unchecks its parent.
`),
	}
	cmd.PersistentFlags().StringVar(&noteID, "note", "", "Note id (default: current note)")

	note := func() (string, error) { return noteArg(app, nil, noteID) }

	cmd.AddCommand(newItemsAddCmd(app, note))
	cmd.AddCommand(newItemsEditCmd(app, note))
	cmd.AddCommand(newItemsCheckCmd(app, note, "check", true))
	cmd.AddCommand(newItemsCheckCmd(app, note, "uncheck", false))
	cmd.AddCommand(newItemsIndentCmd(app, note))
	cmd.AddCommand(newItemsOutdentCmd(app, note))
	cmd.AddCommand(newItemsMoveCmd(app, note))
	cmd.AddCommand(newItemsRemoveCmd(app, note))
	cmd.AddCommand(newItemsSortCmd(app, note))
	return cmd
}

func newItemsAddCmd(app *App, note func() (string, error)) *cobra.Command {
	var (
		at    int
		after string
		child bool
		top   bool
	)
	cmd := &cobra.Command{
		Use:   "add <body>",
		Short: "Add an item (appended unless --at or --after is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if child && top {
				return writeErr(cmd, errUsage("--child and --top are mutually exclusive"))
			}
			if after != "" && cmd.Flags().Changed("at") {
				return writeErr(cmd, errUsage("--at and --after are mutually exclusive"))
			}
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			var asChild *bool
			if child || top {
				asChild = &child
			}
			body := args[0]
			return runGesture(cmd, app, id, string(history.KindAdd), func(ctl *editor.Controller) (editor.Result, error) {
				if after != "" {
					i, err := itemIndex(ctl, after)
					if err != nil {
						return editor.Result{}, err
					}
					if asChild == nil {
						return ctl.AddAfter(ctl.Items()[i].ID, body)
					}
					return ctl.Add(i+1, body, asChild)
				}
				pos := ctl.Size()
				if cmd.Flags().Changed("at") {
					pos = at
				}
				return ctl.Add(pos, body, asChild)
			})
		},
	}
	cmd.Flags().IntVar(&at, "at", 0, "Insert at this 0-based position")
	cmd.Flags().StringVar(&after, "after", "", "Insert right after this item")
	cmd.Flags().BoolVar(&child, "child", false, "Add as a child of the item above")
	cmd.Flags().BoolVar(&top, "top", false, "Add as a top-level item")
	return cmd
}

func newItemsEditCmd(app *App, note func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <item> <body>",
		Short: "Change an item's text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, string(history.KindSetBody), onItem(args[0], func(ctl *editor.Controller, i int) (editor.Result, error) {
				return ctl.ChangeText(i, args[1])
			}))
		},
	}
}

func newItemsCheckCmd(app *App, note func() (string, error), use string, checked bool) *cobra.Command {
	short := "Check an item (a parent checks its children)"
	if !checked {
		short = "Uncheck an item (a child unchecks its parent)"
	}
	return &cobra.Command{
		Use:   use + " <item>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, string(history.KindSetChecked), onItem(args[0], func(ctl *editor.Controller, i int) (editor.Result, error) {
				return ctl.SetChecked(i, checked)
			}))
		},
	}
}

func newItemsIndentCmd(app *App, note func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "indent <item>",
		Short: "Make an item a child of the item above",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, string(history.KindIndent), onItem(args[0], (*editor.Controller).Indent))
		},
	}
}

func newItemsOutdentCmd(app *App, note func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "outdent <item>",
		Short: "Make a child top-level; the children below it follow it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, string(history.KindOutdent), onItem(args[0], (*editor.Controller).Outdent))
		},
	}
}

func newItemsMoveCmd(app *App, note func() (string, error)) *cobra.Command {
	var (
		to    int
		child bool
	)
	cmd := &cobra.Command{
		Use:   "move <item> --to <position>",
		Short: "Move an item (with its children) to a new position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("to") {
				return writeErr(cmd, errUsage("--to is required"))
			}
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, string(history.KindMove), onItem(args[0], func(ctl *editor.Controller, i int) (editor.Result, error) {
				return ctl.Move(i, to, child)
			}))
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "Target 0-based position, counted without the moved item and its children")
	cmd.Flags().BoolVar(&child, "child", false, "Land as a child of the item above the target")
	return cmd
}

func newItemsRemoveCmd(app *App, note func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <item>",
		Aliases: []string{"delete"},
		Short:   "Remove an item; a parent is removed with its children",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, string(history.KindDelete), onItem(args[0], (*editor.Controller).Delete))
		},
	}
}

func newItemsSortCmd(app *App, note func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "sort",
		Short: "Move checked items below unchecked ones, keeping children with their parents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := note()
			if err != nil {
				return writeErr(cmd, err)
			}
			return runGesture(cmd, app, id, string(history.KindSort), (*editor.Controller).SortByChecked)
		},
	}
}
