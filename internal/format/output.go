package format

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// Formats lists the names accepted by Write, in help order.
var Formats = []string{"json", "edn", "yaml", "toml", "text", "markdown"}

// Options controls rendering beyond the format name.
type Options struct {
	Format string
	Pretty bool

	// Render pipes markdown output through glamour.
	Render bool
	// Width truncates text lines and wraps rendered markdown. 0 means no limit.
	Width int
	// Profile is the color profile for text output. nil means detect from the
	// environment (NO_COLOR, CLICOLOR_FORCE).
	Profile *termenv.Profile
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - edn
// - yaml
// - toml
// - text (checklists and tables; other values fall back to yaml)
// - markdown
func Write(w io.Writer, v any, format string, pretty bool) error {
	return WriteWith(w, v, Options{Format: format, Pretty: pretty})
}

func WriteWith(w io.Writer, v any, opts Options) error {
	switch opts.Format {
	case "", "json":
		return WriteJSON(w, v, opts.Pretty)
	case "edn":
		return WriteEDN(w, v, opts.Pretty)
	case "yaml", "yml":
		return WriteYAML(w, v)
	case "toml":
		return WriteTOML(w, v)
	case "text":
		return WriteText(w, v, opts)
	case "markdown", "md":
		return WriteMarkdown(w, v, opts)
	default:
		return fmt.Errorf("unknown format: %s", opts.Format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

func WriteYAML(w io.Writer, v any) error {
	x, err := plain(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(x); err != nil {
		return err
	}
	return enc.Close()
}

// WriteTOML writes v as a TOML document. TOML has no null and no top-level
// arrays: nil values are dropped and a non-table value is wrapped as "data".
func WriteTOML(w io.Writer, v any) error {
	x, err := plain(v)
	if err != nil {
		return err
	}
	x = dropNil(x)
	m, ok := x.(map[string]any)
	if !ok {
		m = map[string]any{"data": x}
	}
	return toml.NewEncoder(w).Encode(m)
}

// plain converts v to maps, slices and scalars through JSON so every encoder
// sees the same field names. Integral numbers become int64.
func plain(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return ints(x), nil
}

func ints(v any) any {
	switch t := v.(type) {
	case float64:
		if float64(int64(t)) == t {
			return int64(t)
		}
		return t
	case []any:
		for i := range t {
			t[i] = ints(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = ints(t[k])
		}
		return t
	default:
		return v
	}
}

func dropNil(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, x := range t {
			if x != nil {
				out = append(out, dropNil(x))
			}
		}
		return out
	case map[string]any:
		for k, x := range t {
			if x == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNil(x)
		}
		return t
	default:
		return v
	}
}
