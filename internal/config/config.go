// Package config loads the TOML configuration file, writing the defaults on
// first run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "taskr"
	DefaultConfigFileName = "config.toml"
	DefaultDataPath       = "todos.json"
	DefaultDBName         = "todo.db"
)

var (
	Backends = []string{"json", "sqlite"}
	Themes   = []string{"modern_dark", "soft_pastel", "cyberpunk"}
)

// Keymap lists the keys bound to each action. Key names follow bubbletea's
// KeyMsg.String() form: "enter", "ctrl+c", " " for the space bar.
type Keymap struct {
	Quit        []string `toml:"quit"`
	Up          []string `toml:"up"`
	Down        []string `toml:"down"`
	Top         []string `toml:"top"`
	Bottom      []string `toml:"bottom"`
	Add         []string `toml:"add"`
	Toggle      []string `toml:"toggle"`
	Delete      []string `toml:"delete"`
	Edit        []string `toml:"edit"`
	EditDetails []string `toml:"edit_details"`
	EditDue     []string `toml:"edit_due"`
	Priority    []string `toml:"priority"`
	CycleFilter []string `toml:"cycle_filter"`
	Details     []string `toml:"details"`
	Help        []string `toml:"help"`
	ClearDone   []string `toml:"clear_done"`
	Yank        []string `toml:"yank"`
	Confirm     []string `toml:"confirm"`
	Cancel      []string `toml:"cancel"`
}

type Config struct {
	DataPath        string `toml:"data_path"`
	Backend         string `toml:"backend"`
	Theme           string `toml:"theme"`
	DueSoon         string `toml:"due_soon"`
	RefreshInterval string `toml:"refresh_interval"`
	LogFile         string `toml:"log_file"`
	LogLevel        string `toml:"log_level"`
	Keys            Keymap `toml:"keys"`
}

// ResolveConfigPath returns <user config dir>/taskr/config.toml.
func ResolveConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName), nil
}

func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// data_path stays blank on disk so it follows the backend.
		onDisk := cfg
		onDisk.DataPath = ""
		if err := write(path, onDisk); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var loaded Config
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg = merge(cfg, loaded)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// merge fills every field left empty in loaded from base. An unset
// data_path follows the chosen backend.
func merge(base, loaded Config) Config {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	keys := func(v, def []string) []string {
		if len(v) == 0 {
			return def
		}
		return v
	}
	out := Config{
		Backend:         pick(loaded.Backend, base.Backend),
		Theme:           pick(loaded.Theme, base.Theme),
		DueSoon:         pick(loaded.DueSoon, base.DueSoon),
		RefreshInterval: pick(loaded.RefreshInterval, base.RefreshInterval),
		LogFile:         pick(loaded.LogFile, base.LogFile),
		LogLevel:        pick(loaded.LogLevel, base.LogLevel),
	}
	out.DataPath = pick(loaded.DataPath, DefaultPathFor(out.Backend))
	lk, bk := loaded.Keys, base.Keys
	out.Keys = Keymap{
		Quit:        keys(lk.Quit, bk.Quit),
		Up:          keys(lk.Up, bk.Up),
		Down:        keys(lk.Down, bk.Down),
		Top:         keys(lk.Top, bk.Top),
		Bottom:      keys(lk.Bottom, bk.Bottom),
		Add:         keys(lk.Add, bk.Add),
		Toggle:      keys(lk.Toggle, bk.Toggle),
		Delete:      keys(lk.Delete, bk.Delete),
		Edit:        keys(lk.Edit, bk.Edit),
		EditDetails: keys(lk.EditDetails, bk.EditDetails),
		EditDue:     keys(lk.EditDue, bk.EditDue),
		Priority:    keys(lk.Priority, bk.Priority),
		CycleFilter: keys(lk.CycleFilter, bk.CycleFilter),
		Details:     keys(lk.Details, bk.Details),
		Help:        keys(lk.Help, bk.Help),
		ClearDone:   keys(lk.ClearDone, bk.ClearDone),
		Yank:        keys(lk.Yank, bk.Yank),
		Confirm:     keys(lk.Confirm, bk.Confirm),
		Cancel:      keys(lk.Cancel, bk.Cancel),
	}
	return out
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !contains(Backends, c.Backend) {
		return fmt.Errorf("backend %q: must be one of %s", c.Backend, strings.Join(Backends, ", "))
	}
	if !contains(Themes, c.Theme) {
		return fmt.Errorf("theme %q: must be one of %s", c.Theme, strings.Join(Themes, ", "))
	}
	if d, err := time.ParseDuration(c.DueSoon); err != nil || d <= 0 {
		return fmt.Errorf("due_soon %q: must be a positive duration", c.DueSoon)
	}
	if d, err := time.ParseDuration(c.RefreshInterval); err != nil || d <= 0 {
		return fmt.Errorf("refresh_interval %q: must be a positive duration", c.RefreshInterval)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// DueSoonWindow is the parsed due_soon setting, falling back to 24h.
func (c Config) DueSoonWindow() time.Duration {
	d, err := time.ParseDuration(c.DueSoon)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Refresh is the parsed refresh_interval setting, falling back to 250ms.
func (c Config) Refresh() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return 250 * time.Millisecond
	}
	return d
}

// DefaultPathFor is the data file used when data_path is not set.
func DefaultPathFor(backend string) string {
	if backend == "sqlite" {
		return DefaultDBName
	}
	return DefaultDataPath
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func Default() Config {
	logFile := ""
	if dir, err := os.UserCacheDir(); err == nil {
		logFile = filepath.Join(dir, AppName, AppName+".log")
	}
	return Config{
		DataPath:        DefaultDataPath,
		Backend:         "json",
		Theme:           "modern_dark",
		DueSoon:         "24h",
		RefreshInterval: "250ms",
		LogFile:         logFile,
		LogLevel:        "info",
		Keys: Keymap{
			Quit:        []string{"q", "ctrl+c"},
			Up:          []string{"k", "up"},
			Down:        []string{"j", "down"},
			Top:         []string{"g", "home"},
			Bottom:      []string{"G", "end"},
			Add:         []string{"i", "a"},
			Toggle:      []string{"enter", " "},
			Delete:      []string{"d"},
			Edit:        []string{"e"},
			EditDetails: []string{"D"},
			EditDue:     []string{"u"},
			Priority:    []string{"p"},
			CycleFilter: []string{"f"},
			Details:     []string{"v"},
			Help:        []string{"h", "?"},
			ClearDone:   []string{"C"},
			Yank:        []string{"y"},
			Confirm:     []string{"enter"},
			Cancel:      []string{"esc"},
		},
	}
}
