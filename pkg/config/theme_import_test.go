package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestImportTheme_Base16(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "base16.yaml")
	data := `
scheme: "base16-test"
base00: '181818'
base01: '282828'
base02: '383838'
base03: '585858'
base05: 'd8d8d8'
base0B: 'a1b56c'
base0D: '7cafc2'
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	th, err := ImportTheme(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if th.UIBackground != tcell.NewHexColor(0x181818) {
		t.Fatalf("unexpected background %v", th.UIBackground)
	}
	if th.StatusBackground != tcell.NewHexColor(0x282828) {
		t.Fatalf("unexpected status background %v", th.StatusBackground)
	}
	if th.ScopeOn != tcell.NewHexColor(0xa1b56c) {
		t.Fatalf("unexpected scope color %v", th.ScopeOn)
	}
}

func TestImportTheme_Alacritty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alacritty.yml")
	data := `
colors:
  primary:
    background: '#1d1f21'
    foreground: '#c5c8c6'
  normal:
    green:   '0xb5bd68'
    blue:    '0x81a2be'
  bright:
    black:   '0x969896'
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	th, err := ImportTheme(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if th.UIForeground == th.UIBackground {
		t.Fatalf("expected fg != bg")
	}
	if th.CursorBG != tcell.NewHexColor(0x81a2be) {
		t.Fatalf("cursor should fall back to normal blue, got %v", th.CursorBG)
	}
	if th.StatusBackground != tcell.NewHexColor(0x969896) {
		t.Fatalf("unexpected status background %v", th.StatusBackground)
	}
}

func TestImportTheme_Unknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.yaml")
	if err := os.WriteFile(path, []byte("foo: bar\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ImportTheme(path); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
