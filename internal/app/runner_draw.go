package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"example.com/regexhighlight/pkg/config"
	"example.com/regexhighlight/pkg/highlighter"
)

const tabWidth = 4

type scopeState struct {
	name   string
	active bool
}

// renderState captures a snapshot of viewer state for drawing.
type renderState struct {
	lines      []string
	starts     []int // byte offset of each line
	name       string
	language   string
	dirty      bool
	cursor     int
	topLine    int
	miniBuf    []string
	highlights []highlighter.Highlight
	scopes     []scopeState
	stats      highlighter.Stats
	hasDoc     bool
}

func drawUI(s tcell.Screen, th config.Theme, quit string) {
	width, height := s.Size()
	s.Clear()
	msg := "regexhl: no file"
	putString(s, (width-len(msg))/2, height/2, msg, tcell.StyleDefault.Foreground(th.UIForeground).Background(th.UIBackground))
	status := "Press " + quit + " to exit"
	putString(s, (width-len(status))/2, height-1, status, tcell.StyleDefault.Foreground(th.StatusForeground).Background(th.StatusBackground))
	s.Show()
}

// putString draws str from column x and returns the column after it.
func putString(s tcell.Screen, x, y int, str string, style tcell.Style) int {
	width, _ := s.Size()
	for _, ch := range str {
		w := runewidth.RuneWidth(ch)
		if w < 1 {
			w = 1
		}
		if x+w > width {
			break
		}
		s.SetContent(x, y, ch, nil, style)
		x += w
	}
	return x
}

// ensureCursorVisible scrolls so the cursor line fits in rows text rows.
func (r *Runner) ensureCursorVisible(rows int) {
	ds := r.Editor.CurrentDoc()
	if ds == nil || rows <= 0 {
		return
	}
	line, _ := ds.Doc.LineCol(ds.Cursor)
	if line < r.TopLine {
		r.TopLine = line
	}
	if line >= r.TopLine+rows {
		r.TopLine = line - rows + 1
	}
}

// tooltips returns the tooltips of highlights covering the cursor.
func tooltips(hs []highlighter.Highlight, cursor int) []string {
	var out []string
	seen := map[string]bool{}
	for _, h := range hs {
		if h.Tooltip == "" || !h.Contains(cursor) || seen[h.Tooltip] {
			continue
		}
		seen[h.Tooltip] = true
		out = append(out, h.Tooltip)
	}
	return out
}

// renderSnapshot captures the current runner state for a screen height.
func (r *Runner) renderSnapshot(height int) renderState {
	st := renderState{stats: r.LastStats}
	for _, sc := range r.Highlight.Scopes {
		st.scopes = append(st.scopes, scopeState{name: sc.Name, active: sc.Active})
	}
	st.miniBuf = append([]string(nil), r.MiniBuf...)
	ds := r.Editor.CurrentDoc()
	if ds == nil {
		return st
	}
	doc := ds.Doc
	st.hasDoc = true
	st.highlights = r.Highlight.Highlights(doc)
	if len(st.miniBuf) == 0 {
		if tips := tooltips(st.highlights, ds.Cursor); len(tips) > 0 {
			st.miniBuf = []string{strings.Join(tips, " | ")}
		}
	}
	r.ensureCursorVisible(height - 1 - len(st.miniBuf))
	st.name = doc.Path
	if st.name != "" {
		st.name = filepath.Base(st.name)
	}
	st.language = doc.LanguageID
	st.dirty = ds.Dirty
	st.cursor = ds.Cursor
	st.topLine = r.TopLine
	for i := 0; i < doc.LineCount(); i++ {
		start, _ := doc.LineBounds(i)
		st.lines = append(st.lines, doc.Line(i))
		st.starts = append(st.starts, start)
	}
	return st
}

// draw renders the current document with its highlights.
func (r *Runner) draw() {
	if r.Screen == nil {
		return
	}
	_, height := r.Screen.Size()
	st := r.renderSnapshot(height)
	if !st.hasDoc {
		drawUI(r.Screen, r.Theme, r.Keymap["quit"].String())
		return
	}
	renderToScreen(r.Screen, r.Theme, st)
}

func renderToScreen(s tcell.Screen, th config.Theme, st renderState) {
	width, height := s.Size()
	s.Clear()
	base := tcell.StyleDefault.Foreground(th.UIForeground).Background(th.UIBackground)
	cursorStyle := tcell.StyleDefault.Foreground(th.CursorText).Background(th.CursorBG)
	mbHeight := len(st.miniBuf)
	maxLines := height - 1 - mbHeight
	for i := 0; i < maxLines && st.topLine+i < len(st.lines); i++ {
		ln := st.topLine + i
		drawLine(s, i, width, st.lines[ln], st.starts[ln], st.highlights, st.cursor, base, cursorStyle)
	}
	drawStatus(s, th, st, width, height-1)
	miniStyle := tcell.StyleDefault.Foreground(th.MiniForeground).Background(th.MiniBackground)
	for i, line := range st.miniBuf {
		y := height - 1 - mbHeight + i
		for x := 0; x < width; x++ {
			s.SetContent(x, y, ' ', nil, miniStyle)
		}
		putString(s, 0, y, line, miniStyle)
	}
	s.Show()
}

// drawLine paints one text row. Highlights are layered in the order given so
// later entries win where they overlap.
func drawLine(s tcell.Screen, y, width int, line string, start int, hs []highlighter.Highlight, cursor int, base, cursorStyle tcell.Style) {
	end := start + len(line)
	var over []highlighter.Highlight
	for _, h := range hs {
		if h.Start < end && h.End > start {
			over = append(over, h)
		}
	}
	x := 0
	for i, ch := range line {
		off := start + i
		style := base
		for _, h := range over {
			if h.Contains(off) {
				style = config.ToStyle(h.Decoration.Style, style)
			}
		}
		if off == cursor {
			style = cursorStyle
		}
		if ch == '\t' {
			w := tabWidth - x%tabWidth
			for k := 0; k < w && x < width; k++ {
				s.SetContent(x, y, ' ', nil, style)
				x++
			}
			continue
		}
		w := runewidth.RuneWidth(ch)
		if w < 1 {
			w = 1
		}
		if x+w > width {
			break
		}
		s.SetContent(x, y, ch, nil, style)
		x += w
	}
	if cursor == end && x < width {
		s.SetContent(x, y, ' ', nil, cursorStyle)
	}
}

func drawStatus(s tcell.Screen, th config.Theme, st renderState, width, y int) {
	style := tcell.StyleDefault.Foreground(th.StatusForeground).Background(th.StatusBackground)
	for x := 0; x < width; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
	display := st.name
	if display == "" {
		display = "[No File]"
	}
	if st.dirty {
		display += " [+]"
	}
	if st.language != "" {
		display += " (" + st.language + ")"
	}
	x := putString(s, 0, y, display+" ", style)
	for _, sc := range st.scopes {
		c := th.ScopeOff
		mark := "-"
		if sc.active {
			c = th.ScopeOn
			mark = "+"
		}
		x = putString(s, x, y, " "+mark+sc.name, style.Foreground(c))
	}
	info := fmt.Sprintf("  %d ranges, %d issues", st.stats.Ranges, len(st.stats.Issues))
	putString(s, x, y, info, style)
}
