package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"checklist-cli/internal/history"
)

// Config holds user preferences shared by every notes directory.
type Config struct {
	Backend           string `json:"backend"`
	AutoSortByChecked bool   `json:"autoSortByChecked"`
	HistoryLimit      int    `json:"historyLimit"`
	LogLevel          string `json:"logLevel"`
	LogFormat         string `json:"logFormat"`
	CurrentNote       string `json:"currentNote,omitempty"`

	NotesSorting          string `json:"notesSorting"`
	NotesSortingDirection string `json:"notesSortingDirection"`
}

func DefaultConfig() Config {
	return Config{
		Backend:      DefaultBackend,
		HistoryLimit: history.DefaultLimit,
		LogLevel:     "warn",
		LogFormat:    "text",

		NotesSorting:          SortByCreationDate,
		NotesSortingDirection: SortDesc,
	}
}

// ListOptions returns the note list order kept in the config.
func (c *Config) ListOptions() ListOptions {
	return ListOptions{SortBy: c.NotesSorting, Direction: c.NotesSortingDirection}
}

var configKeys = []string{"backend", "autoSortByChecked", "historyLimit", "logLevel", "logFormat", "currentNote", "notesSorting", "notesSortingDirection"}

// ConfigKeys lists the keys accepted by Config.Set.
func ConfigKeys() []string {
	out := append([]string{}, configKeys...)
	sort.Strings(out)
	return out
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.checklist).
	if v := strings.TrimSpace(os.Getenv("CHECKLIST_CONFIG_DIR")); v != "" {
		return homedir.Expand(v)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig reads config.json and applies CHECKLIST_* environment overrides,
// e.g. CHECKLIST_BACKEND=diskv.
func LoadConfig() (*Config, error) {
	return loadConfig(true)
}

// LoadConfigFile reads config.json over the defaults and ignores the environment.
// Changes that are saved back start from this.
func LoadConfigFile() (*Config, error) {
	return loadConfig(false)
}

func loadConfig(env bool) (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	def := DefaultConfig()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if env {
		v.SetEnvPrefix("CHECKLIST")
		v.AutomaticEnv()
	}
	v.SetDefault("backend", def.Backend)
	v.SetDefault("autoSortByChecked", def.AutoSortByChecked)
	v.SetDefault("historyLimit", def.HistoryLimit)
	v.SetDefault("logLevel", def.LogLevel)
	v.SetDefault("logFormat", def.LogFormat)
	v.SetDefault("currentNote", "")
	v.SetDefault("notesSorting", def.NotesSorting)
	v.SetDefault("notesSortingDirection", def.NotesSortingDirection)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return &Config{
		Backend:           v.GetString("backend"),
		AutoSortByChecked: v.GetBool("autoSortByChecked"),
		HistoryLimit:      v.GetInt("historyLimit"),
		LogLevel:          v.GetString("logLevel"),
		LogFormat:         v.GetString("logFormat"),
		CurrentNote:       v.GetString("currentNote"),

		NotesSorting:          v.GetString("notesSorting"),
		NotesSortingDirection: v.GetString("notesSortingDirection"),
	}, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// UpdateConfig applies fn to the config file alone and saves it, so environment
// overrides in effect for this run are not written back.
func UpdateConfig(fn func(*Config) error) (*Config, error) {
	cfg, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}
	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Set assigns one key from its string form.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "backend":
		switch value {
		case BackendSQLite, BackendDiskv:
			c.Backend = value
		default:
			return fmt.Errorf("backend must be %s or %s", BackendSQLite, BackendDiskv)
		}
	case "autoSortByChecked":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("autoSortByChecked: %w", err)
		}
		c.AutoSortByChecked = b
	case "historyLimit":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("historyLimit must be a positive integer")
		}
		c.HistoryLimit = n
	case "logLevel":
		c.LogLevel = value
	case "logFormat":
		c.LogFormat = value
	case "currentNote":
		if value != "" && !IsNoteID(value) {
			return fmt.Errorf("currentNote: not a note id: %q", value)
		}
		c.CurrentNote = value
	case "notesSorting":
		if value == "" {
			return fmt.Errorf("notesSorting: empty value")
		}
		if _, err := (ListOptions{SortBy: value}).normalize(); err != nil {
			return err
		}
		c.NotesSorting = value
	case "notesSortingDirection":
		o, err := ListOptions{Direction: value}.normalize()
		if err != nil || value == "" {
			return fmt.Errorf("notesSortingDirection must be %s or %s", SortAsc, SortDesc)
		}
		c.NotesSortingDirection = o.Direction
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return nil
}
