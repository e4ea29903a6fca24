package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/regexhighlight/pkg/rules"
)

func TestParseKeybinding(t *testing.T) {
	kb, err := ParseKeybinding("Ctrl+X")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModCtrl)
	if !kb.Matches(ev) {
		t.Fatalf("expected match for Ctrl+X")
	}
	if !kb.Matches(tcell.NewEventKey(tcell.KeyCtrlX, 0, tcell.ModCtrl)) {
		t.Fatalf("expected match for the control key code")
	}
	if kb.String() != "Ctrl+X" {
		t.Fatalf("String() = %q", kb.String())
	}
}

func TestParseKeybinding_Invalid(t *testing.T) {
	if _, err := ParseKeybinding("Ctrl+"); err == nil {
		t.Fatalf("expected error for invalid keybinding")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.CacheLimit)
	assert.Equal(t, 1000, cfg.DefaultMatchLimit)
	assert.Equal(t, "gm", cfg.DefaultFlags)
	assert.Equal(t, 200*time.Millisecond, cfg.Delay.D())
	assert.Equal(t, time.Second, cfg.MatchTimeout.D())
	assert.Len(t, cfg.Keymap, 8)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
cacheLimit: 5
defaultFlags: gi
delay: 50
matchTimeout: 250ms
keymap:
  quit: Ctrl+X
languages:
  - {id: golang, extensions: [.go]}
regexes:
  - name: todo
    rules:
      - pattern: TODO
        decorations: [{color: yellow}]
workspace:
  regexes:
    - rules: [{pattern: FIXME}]
`)
	require.NoError(t, os.WriteFile(path, data, 0644))
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.CacheLimit)
	assert.Equal(t, 1000, cfg.DefaultMatchLimit, "unset keys keep defaults")
	assert.Equal(t, "gi", cfg.DefaultFlags)
	assert.Equal(t, 50*time.Millisecond, cfg.Delay.D())
	assert.Equal(t, 250*time.Millisecond, cfg.MatchTimeout.D())
	assert.True(t, cfg.Keymap["quit"].Matches(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModCtrl)))
	assert.True(t, cfg.Keymap["toggle"].Matches(tcell.NewEventKey(tcell.KeyRune, 't', tcell.ModCtrl)), "other bindings keep defaults")
	require.Len(t, cfg.Regexes, 1)
	assert.Equal(t, rules.Text("TODO"), cfg.Regexes[0].Rules[0].Pattern)
	require.Len(t, cfg.Workspace.Regexes, 1)
	assert.Equal(t, "golang", cfg.Languages[0].ID)
	assert.Equal(t, path, cfg.Path)
}

func TestLoadMalformedNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keymap:\n  quit: Alt+X\n"), 0644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadWorkspace(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	require.NoError(t, cfg.LoadWorkspace(dir), "missing workspace file is fine")
	assert.Empty(t, cfg.Workspace.Regexes)

	ws := []byte("regexes:\n  - rules: [{pattern: x}]\n  - rules: [{pattern: y}]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, WorkspaceFile), ws, 0644))
	require.NoError(t, cfg.LoadWorkspace(dir))
	assert.Len(t, cfg.Workspace.Regexes, 2)
}

func TestToStyle(t *testing.T) {
	base := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	st := ToStyle(rules.Style{Color: "#ff0000", Bold: true, Underline: true}, base)
	fg, bg, attr := st.Decompose()
	assert.Equal(t, tcell.NewHexColor(0xff0000), fg)
	assert.Equal(t, tcell.ColorBlack, bg)
	assert.NotZero(t, attr&tcell.AttrBold)
	assert.NotZero(t, attr&tcell.AttrUnderline)

	// unknown colors keep the base
	fg, _, _ = ToStyle(rules.Style{Color: "not-a-color"}, base).Decompose()
	assert.Equal(t, tcell.ColorWhite, fg)
}

func TestResolveTheme(t *testing.T) {
	cfg := Default()
	cfg.Theme = "Dark"
	th, err := cfg.ResolveTheme()
	require.NoError(t, err)
	assert.Equal(t, BuiltinThemes["dark"], th)
	cfg.Theme = "unknown"
	th, _ = cfg.ResolveTheme()
	assert.Equal(t, DefaultTheme(), th)
}
