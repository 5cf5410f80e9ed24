// Package config loads the editor's TOML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds flowedit configuration.
type Config struct {
	Editor  EditorConfig  `toml:"editor"`
	Undo    UndoConfig    `toml:"undo"`
	Log     LogConfig     `toml:"log"`
	Journal JournalConfig `toml:"journal"`
}

// EditorConfig holds the gesture policy constants.
type EditorConfig struct {
	// Grid is the snap spacing for drags. Zero disables snapping.
	Grid float64 `toml:"grid"`
	// BreakDistance is the offset norm beyond which a relative location
	// detaches from its anchor.
	BreakDistance float64 `toml:"break_distance"`
	// InitialOffset is the offset given to a location when it attaches.
	InitialOffset [2]float64 `toml:"initial_offset"`
	// CompositeName is the base name of extracted composites.
	CompositeName  string `toml:"composite_name"`
	CompositeClass string `toml:"composite_class"`
	RelationClass  string `toml:"relation_class"`
	PortClass      string `toml:"port_class"`
}

// UndoConfig bounds the undo stack.
type UndoConfig struct {
	Depth int `toml:"depth"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text", "json"
}

// JournalConfig controls the persisted history.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			Grid:           5,
			BreakDistance:  200,
			InitialOffset:  [2]float64{40, 40},
			CompositeName:  "CompositeActor",
			CompositeClass: "TypedCompositeActor",
			RelationClass:  "TypedIORelation",
			PortClass:      "TypedIOPort",
		},
		Undo:    UndoConfig{Depth: 500},
		Log:     LogConfig{Level: "info", Format: "text"},
		Journal: JournalConfig{Enabled: true, Path: filepath.Join(ConfigDir(), "journal.db")},
	}
}

// ConfigDir returns the flowedit config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flowedit")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate rejects values the editor cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Editor.Grid < 0:
		return fmt.Errorf("editor.grid must not be negative")
	case c.Editor.BreakDistance <= 0:
		return fmt.Errorf("editor.break_distance must be positive")
	case c.Editor.CompositeName == "" || strings.ContainsAny(c.Editor.CompositeName, ". "):
		return fmt.Errorf("editor.composite_name %q is not a valid name", c.Editor.CompositeName)
	case c.Undo.Depth <= 0:
		return fmt.Errorf("undo.depth must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}
