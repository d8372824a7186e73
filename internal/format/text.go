package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/gosuri/uitable"
	"github.com/muesli/termenv"

	"checklist-cli/internal/model"
)

const (
	boxUnchecked = "[ ]"
	boxChecked   = "[x]"
	childIndent  = "    "
)

// WriteText renders notes as checklists and note or event lists as tables. A
// {"data": ...} envelope is unwrapped first. Anything else is written as YAML.
func WriteText(w io.Writer, v any, opts Options) error {
	v = unwrap(v)
	switch t := v.(type) {
	case *model.Note:
		return writeChecklist(w, t, opts)
	case model.Note:
		return writeChecklist(w, &t, opts)
	case []model.NoteSummary:
		return writeNoteTable(w, t, opts.Width)
	case []model.Event:
		return writeEventTable(w, t, opts.Width)
	default:
		return WriteYAML(w, v)
	}
}

func unwrap(v any) any {
	if m, ok := v.(map[string]any); ok {
		if d, ok := m["data"]; ok {
			return d
		}
	}
	return v
}

// colorProfile returns the profile for text output. termenv's env detection
// honors NO_COLOR and CLICOLOR_FORCE and yields Ascii when stdout is not a tty.
func colorProfile(opts Options) termenv.Profile {
	if opts.Profile != nil {
		return *opts.Profile
	}
	return termenv.EnvColorProfile()
}

type checklistStyles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
	done    lipgloss.Style
	pending lipgloss.Style
}

func newChecklistStyles(w io.Writer, profile termenv.Profile) checklistStyles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return checklistStyles{
		title:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		box:     r.NewStyle().Foreground(lipgloss.Color("6")),
		done:    r.NewStyle().Faint(true).Strikethrough(true),
		pending: r.NewStyle(),
	}
}

func writeChecklist(w io.Writer, n *model.Note, opts Options) error {
	st := newChecklistStyles(w, colorProfile(opts))

	var b strings.Builder
	title := n.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}
	b.WriteString(truncate(st.title.Render(title)+" "+st.muted.Render(n.ID), opts.Width))
	b.WriteByte('\n')
	if len(n.Items) == 0 {
		b.WriteString(st.muted.Render("(no items)"))
		b.WriteByte('\n')
	}
	for _, it := range n.Items {
		line := checkbox(it.Checked)
		body := st.pending.Render(it.Body)
		if it.Checked {
			body = st.done.Render(it.Body)
		}
		line = st.box.Render(line) + " " + body
		if it.IsChild {
			line = childIndent + line
		}
		b.WriteString(truncate(line, opts.Width))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func checkbox(checked bool) string {
	if checked {
		return boxChecked
	}
	return boxUnchecked
}

func truncate(s string, width int) string {
	if width <= 0 || xansi.StringWidth(s) <= width {
		return s
	}
	return xansi.Truncate(s, width, "…")
}

func writeNoteTable(w io.Writer, notes []model.NoteSummary, width int) error {
	tbl := newTable(width)
	tbl.AddRow("ID", "TITLE", "PIN", "DONE", "UPDATED")
	for _, n := range notes {
		pin := ""
		if n.Pinned {
			pin = "yes"
		}
		tbl.AddRow(n.ID, n.Title, pin, fmt.Sprintf("%d/%d", n.Checked, n.Items), stamp(n.UpdatedAt))
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func writeEventTable(w io.Writer, events []model.Event, width int) error {
	tbl := newTable(width)
	tbl.AddRow("SEQ", "TYPE", "ITEM", "AT")
	for _, e := range events {
		tbl.AddRow(e.Seq, e.Type, e.ItemID, stamp(e.TS))
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func newTable(width int) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	if width > 0 && width < 60 {
		tbl.MaxColWidth = uint(width)
	}
	return tbl
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
