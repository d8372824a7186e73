package format

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"checklist-cli/internal/model"
)

// Markdown renders a note as a GitHub-style task list. Children are nested one
// level under their parent.
func Markdown(n *model.Note) string {
	var b strings.Builder
	if t := strings.TrimSpace(n.Title); t != "" {
		fmt.Fprintf(&b, "# %s\n\n", t)
	}
	for _, it := range n.Items {
		if it.IsChild {
			b.WriteString("  ")
		}
		box := "[ ]"
		if it.Checked {
			box = "[x]"
		}
		fmt.Fprintf(&b, "- %s %s\n", box, escapeMarkdownLine(it.Body))
	}
	return b.String()
}

func escapeMarkdownLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// WriteMarkdown writes a note as markdown, optionally rendered for the terminal.
// Values other than notes fall back to YAML.
func WriteMarkdown(w io.Writer, v any, opts Options) error {
	var n *model.Note
	switch t := unwrap(v).(type) {
	case *model.Note:
		n = t
	case model.Note:
		n = &t
	default:
		return WriteYAML(w, unwrap(v))
	}

	return WriteMarkdownText(w, Markdown(n), opts)
}

// WriteMarkdownText writes a markdown document, rendered for the terminal when
// opts.Render is set.
func WriteMarkdownText(w io.Writer, md string, opts Options) error {
	if opts.Render {
		md = renderMarkdown(md, opts.Width, colorProfile(opts))
	}
	_, err := io.WriteString(w, md)
	return err
}

var (
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func renderMarkdown(md string, width int, profile termenv.Profile) string {
	if width <= 0 {
		width = 80
	}
	style := "dark"
	if profile == termenv.Ascii {
		style = "notty"
	}
	key := fmt.Sprintf("%s:%d", style, width)

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			// WithAutoStyle can block on terminal queries; pick the style from the profile.
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
