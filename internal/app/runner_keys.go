package app

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"example.com/regexhighlight/pkg/config"
	"example.com/regexhighlight/pkg/editor"
	"example.com/regexhighlight/pkg/highlight"
	"example.com/regexhighlight/pkg/history"
)

func (r *Runner) bound(action string, ev *tcell.EventKey) bool {
	kb, ok := r.Keymap[action]
	return ok && kb.Matches(ev)
}

// handleKeyEvent processes a key event. It returns true if the event signals
// the runner should quit.
func (r *Runner) handleKeyEvent(ev *tcell.EventKey) bool {
	switch {
	case r.bound("quit", ev):
		return true
	case r.bound("toggle", ev):
		r.Highlight.Toggle("", r.Editor.Visible())
	case r.bound("next", ev):
		r.switchTo(r.Editor.Next())
	case r.bound("prev", ev):
		r.switchTo(r.Editor.Prev())
	case r.bound("jump", ev):
		r.jump()
	case r.bound("reload", ev):
		r.reload()
	case r.bound("undo", ev):
		r.replay(true)
	case r.bound("redo", ev):
		r.replay(false)
	default:
		r.edit(ev)
	}
	r.draw()
	return false
}

func (r *Runner) switchTo(ds *editor.DocumentState) {
	if ds == nil {
		return
	}
	r.TopLine = 0
	r.clearMiniBuffer()
	r.Highlight.Show(ds.Doc)
	r.Logger.Event("action", map[string]any{"name": "switch", "file": ds.Doc.Path})
}

// jump moves the cursor to the start of the next highlight, wrapping to
// the first one.
func (r *Runner) jump() {
	ds := r.Editor.CurrentDoc()
	if ds == nil {
		return
	}
	hs := r.Highlight.Highlights(ds.Doc)
	rs := make([]highlight.Range, 0, len(hs))
	for _, h := range hs {
		rs = append(rs, h.Range)
	}
	highlight.Sort(rs)
	i := highlight.Next(rs, ds.Cursor)
	if i < 0 {
		r.setMiniBuffer([]string{"No highlights"})
		return
	}
	ds.Cursor = rs[i].Start
}

func (r *Runner) reload() {
	cfg := r.Config
	if r.ConfigPath != "" {
		c, err := config.Load(r.ConfigPath)
		if err != nil {
			r.Logger.Error("reload.error", map[string]any{"error": err.Error()})
			r.setMiniBuffer([]string{err.Error()})
			return
		}
		if r.Dir != "" {
			if err := c.LoadWorkspace(r.Dir); err != nil {
				r.Logger.Error("reload.error", map[string]any{"error": err.Error()})
				r.setMiniBuffer([]string{err.Error()})
				return
			}
		}
		cfg = c
	}
	r.Highlight.Reload(cfg)
	r.applyConfig(cfg)
	for _, doc := range r.Editor.Visible() {
		r.Highlight.Show(doc)
	}
	r.Logger.Event("action", map[string]any{"name": "reload", "errors": len(r.Highlight.Errors())})
	if len(r.MiniBuf) == 0 {
		r.setMiniBuffer([]string{fmt.Sprintf("Reloaded %d rules", r.ruleCount())})
	}
}

func (r *Runner) ruleCount() int {
	n := 0
	for _, s := range r.Highlight.Scopes {
		n += s.Forest.Rules()
	}
	return n
}

// edit applies cursor movement and text edits to the current document.
// Text changes schedule a rescan.
func (r *Runner) edit(ev *tcell.EventKey) {
	ds := r.Editor.CurrentDoc()
	if ds == nil {
		return
	}
	doc := ds.Doc
	changed := false
	switch ev.Key() {
	case tcell.KeyLeft:
		ds.Cursor = doc.PrevRune(ds.Cursor)
	case tcell.KeyRight:
		ds.Cursor = doc.NextRune(ds.Cursor)
	case tcell.KeyUp, tcell.KeyDown:
		line, col := doc.LineCol(ds.Cursor)
		if ev.Key() == tcell.KeyUp {
			line--
		} else {
			line++
		}
		if line >= 0 && line < doc.LineCount() {
			ds.Cursor = doc.Offset(line, col)
		}
	case tcell.KeyHome:
		line, _ := doc.LineCol(ds.Cursor)
		ds.Cursor, _ = doc.LineBounds(line)
	case tcell.KeyEnd:
		line, _ := doc.LineCol(ds.Cursor)
		_, ds.Cursor = doc.LineBounds(line)
	case tcell.KeyEnter:
		changed = r.insert(ds, "\n")
	case tcell.KeyTab:
		changed = r.insert(ds, "\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if ds.Cursor > 0 {
			prev := doc.PrevRune(ds.Cursor)
			changed = r.delete(ds, prev, ds.Cursor)
		}
	case tcell.KeyDelete:
		if ds.Cursor < doc.Len() {
			changed = r.delete(ds, ds.Cursor, doc.NextRune(ds.Cursor))
		}
	case tcell.KeyRune:
		if ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) == 0 {
			changed = r.insert(ds, string(ev.Rune()))
		}
	}
	if changed {
		ds.Dirty = true
		r.scheduleRescan(doc)
	}
}

func (r *Runner) insert(ds *editor.DocumentState, s string) bool {
	if err := ds.Doc.Insert(ds.Cursor, s); err != nil {
		return false
	}
	ds.History.RecordInsert(ds.Cursor, s)
	ds.Cursor += len(s)
	return true
}

func (r *Runner) delete(ds *editor.DocumentState, start, end int) bool {
	text := ds.Doc.Text()[start:end]
	if err := ds.Doc.Delete(start, end); err != nil {
		return false
	}
	ds.History.RecordDelete(start, text)
	ds.Cursor = start
	return true
}

// replay undoes or redoes one edit of the current document.
func (r *Runner) replay(undo bool) {
	ds := r.Editor.CurrentDoc()
	if ds == nil {
		return
	}
	apply, name := ds.History.Redo, "redo"
	if undo {
		apply, name = ds.History.Undo, "undo"
	}
	if err := apply(ds.Doc, &ds.Cursor); err != nil {
		if errors.Is(err, history.ErrEmpty) {
			r.setMiniBuffer([]string{"Nothing to " + name})
		} else {
			r.Logger.Error(name+".error", map[string]any{"error": err.Error()})
		}
		return
	}
	ds.Dirty = true
	r.scheduleRescan(ds.Doc)
}
