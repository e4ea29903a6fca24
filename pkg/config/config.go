package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"example.com/regexhighlight/pkg/language"
	"example.com/regexhighlight/pkg/rules"
)

// WorkspaceFile is the per-directory settings file name.
const WorkspaceFile = ".regexhl.yaml"

// Keybinding represents a single key combination.
type Keybinding struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// Workspace holds the rule groups of the workspace scope.
type Workspace struct {
	Regexes []rules.RawGroup `yaml:"regexes"`
}

// Config holds user configuration values.
type Config struct {
	// CacheLimit is the number of documents whose highlights are kept.
	CacheLimit int `yaml:"cacheLimit"`
	// DefaultMatchLimit applies to rules without a limit; <= 0 is unlimited.
	DefaultMatchLimit int      `yaml:"defaultMatchLimit"`
	DefaultFlags      string   `yaml:"defaultFlags"`
	Delay             Duration `yaml:"delay"`
	MatchTimeout      Duration `yaml:"matchTimeout"`

	Keymap    map[string]Keybinding `yaml:"keymap"`
	Theme     string                `yaml:"theme"`
	ThemeFile string                `yaml:"themeFile"`

	Languages []language.Spec  `yaml:"languages"`
	Regexes   []rules.RawGroup `yaml:"regexes"`
	Workspace Workspace        `yaml:"workspace"`

	// Path is the file the config was read from, if any.
	Path string `yaml:"-"`
}

// Default returns a Config with default limits and key mappings.
func Default() *Config {
	return &Config{
		CacheLimit:        1000,
		DefaultMatchLimit: 1000,
		DefaultFlags:      "gm",
		Delay:             Duration(200 * time.Millisecond),
		MatchTimeout:      Duration(time.Second),
		Keymap:            DefaultKeymap(),
		Theme:             "default",
	}
}

// DefaultKeymap provides builtin command bindings.
func DefaultKeymap() map[string]Keybinding {
	return map[string]Keybinding{
		"quit":   mustParse("Ctrl+Q"),
		"toggle": mustParse("Ctrl+T"),
		"next":   mustParse("Ctrl+N"),
		"prev":   mustParse("Ctrl+P"),
		"jump":   mustParse("Ctrl+J"),
		"reload": mustParse("Ctrl+R"),
		"undo":   mustParse("Ctrl+Z"),
		"redo":   mustParse("Ctrl+Y"),
	}
}

// Load loads configuration from the provided path. If the file does not
// exist, defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Keymap == nil {
		cfg.Keymap = DefaultKeymap()
	}
	cfg.Path = path
	return cfg, nil
}

// DefaultPath returns ~/.regexhl/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".regexhl", "config.yaml"), nil
}

// LoadDefault attempts to read ~/.regexhl/config.yaml.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}

// LoadWorkspace appends the rule groups of dir/.regexhl.yaml to the
// workspace scope. A missing file is not an error.
func (c *Config) LoadWorkspace(dir string) error {
	path := filepath.Join(dir, WorkspaceFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: %s: %w", path, err)
	}
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	c.Workspace.Regexes = append(c.Workspace.Regexes, ws.Regexes...)
	return nil
}

// Duration accepts "200ms" style strings or a plain number of milliseconds.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a duration", n.Line)
	}
	if n.Tag == "!!int" || n.Tag == "!!float" {
		ms, err := cast.ToFloat64E(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*d = Duration(time.Duration(ms * float64(time.Millisecond)))
		return nil
	}
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML decodes "Ctrl+X" style bindings.
func (k *Keybinding) UnmarshalYAML(n *yaml.Node) error {
	kb, err := ParseKeybinding(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*k = kb
	return nil
}

// ParseKeybinding converts a textual key description like "Ctrl+S" into a
// Keybinding. Currently only Ctrl+<letter> is supported.
func ParseKeybinding(s string) (Keybinding, error) {
	parts := strings.Split(s, "+")
	if len(parts) != 2 {
		return Keybinding{}, errors.New("invalid keybinding: " + s)
	}
	if !strings.EqualFold(parts[0], "ctrl") {
		return Keybinding{}, errors.New("invalid modifier in keybinding: " + s)
	}
	r := []rune(strings.ToLower(parts[1]))
	if len(r) != 1 || r[0] < 'a' || r[0] > 'z' {
		return Keybinding{}, errors.New("invalid key in keybinding: " + s)
	}
	return Keybinding{Key: tcell.KeyRune, Rune: r[0], Mod: tcell.ModCtrl}, nil
}

func mustParse(s string) Keybinding {
	kb, _ := ParseKeybinding(s)
	return kb
}

// Matches returns true if the binding matches the provided event.
func (k Keybinding) Matches(ev *tcell.EventKey) bool {
	if k.Key == ev.Key() && k.Rune == ev.Rune() && k.Mod == ev.Modifiers() {
		return true
	}
	if k.Key == tcell.KeyRune && k.Mod == tcell.ModCtrl && k.Rune >= 'a' && k.Rune <= 'z' {
		// terminals report Ctrl+<letter> as the control key code
		if ev.Key() == tcell.KeyCtrlA+tcell.Key(k.Rune-'a') {
			return true
		}
	}
	return false
}

// String renders the binding the way ParseKeybinding reads it.
func (k Keybinding) String() string {
	if k.Key == tcell.KeyRune && k.Mod == tcell.ModCtrl {
		return "Ctrl+" + strings.ToUpper(string(k.Rune))
	}
	return tcell.KeyNames[k.Key]
}
