package config

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"example.com/regexhighlight/pkg/rules"
)

// Theme represents configurable colors for the viewer chrome. Highlight
// colors come from the rules themselves.
type Theme struct {
	// Base UI
	UIBackground tcell.Color
	UIForeground tcell.Color

	// Status bar and mini-buffer
	StatusBackground tcell.Color
	StatusForeground tcell.Color
	MiniBackground   tcell.Color
	MiniForeground   tcell.Color

	// Cursor cell
	CursorText tcell.Color
	CursorBG   tcell.Color

	// Scope markers in the status bar
	ScopeOn  tcell.Color
	ScopeOff tcell.Color
}

// DefaultTheme returns the built-in light theme.
func DefaultTheme() Theme {
	return Theme{
		UIBackground: tcell.ColorBlack,
		UIForeground: tcell.ColorWhite,

		StatusBackground: tcell.ColorWhite,
		StatusForeground: tcell.ColorBlack,
		MiniBackground:   tcell.ColorWhite,
		MiniForeground:   tcell.ColorBlack,

		CursorText: tcell.ColorBlack,
		CursorBG:   tcell.ColorGreen,

		ScopeOn:  tcell.ColorDarkGreen,
		ScopeOff: tcell.ColorGray,
	}
}

// TerminalTheme leverages terminal-provided defaults and ANSI palette colors
// so the viewer follows the user's terminal theme.
func TerminalTheme() Theme {
	return Theme{
		UIBackground: tcell.ColorDefault,
		UIForeground: tcell.ColorDefault,

		// bright black reads naturally on dark terminals
		StatusBackground: tcell.ColorGray,
		StatusForeground: tcell.ColorDefault,
		MiniBackground:   tcell.ColorGray,
		MiniForeground:   tcell.ColorDefault,

		CursorText: tcell.ColorDefault,
		CursorBG:   tcell.ColorGreen,

		ScopeOn:  tcell.ColorGreen,
		ScopeOff: tcell.ColorDefault,
	}
}

// BuiltinThemes exposes a couple of presets by name.
var BuiltinThemes = map[string]Theme{
	"default":  DefaultTheme(),
	"light":    DefaultTheme(),
	"terminal": TerminalTheme(),
	"dark": {
		UIBackground: tcell.ColorBlack,
		UIForeground: tcell.ColorWhite,

		StatusBackground: tcell.ColorGray,
		StatusForeground: tcell.ColorWhite,
		MiniBackground:   tcell.ColorGray,
		MiniForeground:   tcell.ColorWhite,

		CursorText: tcell.ColorBlack,
		CursorBG:   tcell.ColorLightBlue,

		ScopeOn:  tcell.ColorLightGreen,
		ScopeOff: tcell.ColorSilver,
	},
}

// ResolveTheme returns the theme named by the config, imported from
// ThemeFile when set. Unknown names fall back to the default theme.
func (c *Config) ResolveTheme() (Theme, error) {
	if c.ThemeFile != "" {
		return ImportTheme(c.ThemeFile)
	}
	if th, ok := BuiltinThemes[strings.ToLower(c.Theme)]; ok {
		return th, nil
	}
	return DefaultTheme(), nil
}

// ParseColor returns a tcell.Color from a name or hex like "#aabbcc".
// If parsing fails, it returns the provided fallback.
func ParseColor(s string, fallback tcell.Color) tcell.Color {
	if s == "" {
		return fallback
	}
	// tcell.GetColor supports W3C names or #RRGGBB (case-insensitive)
	c := tcell.GetColor(strings.ToLower(strings.TrimSpace(s)))
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}

// ToStyle applies a decoration style on top of base. Attributes the
// decoration does not set are kept from base.
func ToStyle(s rules.Style, base tcell.Style) tcell.Style {
	fg, bg, _ := base.Decompose()
	st := base.Foreground(ParseColor(s.Color, fg)).Background(ParseColor(s.BackgroundColor, bg))
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Italic {
		st = st.Italic(true)
	}
	if s.Underline {
		st = st.Underline(true)
	}
	if s.Strikethrough {
		st = st.StrikeThrough(true)
	}
	if s.Reverse {
		st = st.Reverse(true)
	}
	if s.Dim {
		st = st.Dim(true)
	}
	return st
}
