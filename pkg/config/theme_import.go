package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ImportTheme reads a theme file in a known format and converts it to Theme.
// Supported:
// - Base16 YAML (keys base00..base0F)
// - Alacritty YAML (colors.primary/normal/bright/cursor)
func ImportTheme(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Theme{}, errors.New("invalid theme file " + filepath.Base(path) + ": " + err.Error())
	}
	kv := map[string]string{}
	flatten("", doc, kv)
	switch {
	case kv["base00"] != "":
		return importBase16(kv), nil
	case kv["colors.primary.background"] != "" || kv["colors.primary.foreground"] != "":
		return importAlacritty(kv), nil
	default:
		return Theme{}, errors.New("unrecognized theme format: " + filepath.Base(path))
	}
}

// flatten turns nested maps into lowercase dotted keys.
func flatten(prefix string, v any, out map[string]string) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		out[prefix] = cast.ToString(v)
		return
	}
	for k, sub := range m {
		key := strings.ToLower(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		flatten(key, sub, out)
	}
}

func parseHexToColor(v string, fallback tcell.Color) tcell.Color {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "#") {
		v = v[1:]
	} else if strings.HasPrefix(strings.ToLower(v), "0x") {
		v = v[2:]
	}
	if len(v) != 6 {
		return fallback
	}
	if _, err := strconv.ParseInt(v, 16, 32); err != nil {
		return fallback
	}
	return ParseColor("#"+strings.ToLower(v), fallback)
}

// importBase16 maps a Base16 scheme onto the viewer roles.
func importBase16(kv map[string]string) Theme {
	t := DefaultTheme()
	get := func(k string, fb tcell.Color) tcell.Color { return parseHexToColor(kv[k], fb) }

	t.UIBackground = get("base00", t.UIBackground)
	t.UIForeground = get("base05", t.UIForeground)

	// status/mini slightly offset from the background
	t.StatusBackground = get("base01", get("base02", t.UIBackground))
	t.StatusForeground = t.UIForeground
	t.MiniBackground = t.StatusBackground
	t.MiniForeground = t.StatusForeground

	t.CursorBG = get("base0d", t.CursorBG)
	t.CursorText = t.UIBackground

	t.ScopeOn = get("base0b", t.ScopeOn)
	t.ScopeOff = get("base03", t.ScopeOff)
	return t
}

// importAlacritty maps an Alacritty colors section onto the viewer roles.
func importAlacritty(kv map[string]string) Theme {
	t := DefaultTheme()
	get := func(k string, fb tcell.Color) tcell.Color { return parseHexToColor(kv[k], fb) }

	t.UIBackground = get("colors.primary.background", t.UIBackground)
	t.UIForeground = get("colors.primary.foreground", t.UIForeground)

	t.StatusBackground = get("colors.bright.black", get("colors.normal.white", t.UIBackground))
	t.StatusForeground = t.UIForeground
	t.MiniBackground = t.StatusBackground
	t.MiniForeground = t.StatusForeground

	t.CursorBG = get("colors.cursor.cursor", get("colors.normal.blue", t.CursorBG))
	t.CursorText = get("colors.cursor.text", t.UIBackground)

	t.ScopeOn = get("colors.normal.green", t.ScopeOn)
	t.ScopeOff = get("colors.bright.black", t.ScopeOff)
	return t
}
