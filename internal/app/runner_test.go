package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"example.com/regexhighlight/pkg/config"
	"example.com/regexhighlight/pkg/document"
	"example.com/regexhighlight/pkg/highlighter"
	"example.com/regexhighlight/pkg/rules"
)

const todoRules = `
- rules:
    - pattern: TODO
      decorations: [{color: yellow, tooltip: fix me}]
`

func newRunner(t *testing.T, yaml string) *Runner {
	t.Helper()
	cfg := config.Default()
	raw, err := rules.Decode([]byte(yaml))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cfg.Regexes = raw
	cfg.Delay = config.Duration(10 * time.Millisecond)
	return New(cfg, nil)
}

func simScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("initializing simulation screen failed: %v", err)
	}
	s.SetSize(40, 10)
	return s
}

func ctrl(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModCtrl) }

func runLoop(t *testing.T, r *Runner) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	// Give the loop a moment to start
	time.Sleep(10 * time.Millisecond)
	return done
}

func wait(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runner returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for runner to quit")
	}
}

func TestRun_TypingRescansAfterDelay(t *testing.T) {
	s := simScreen(t)
	defer s.Fini()
	r := newRunner(t, todoRules)
	r.Screen = s
	r.Add(document.New("mem", "", "", ""))

	done := runLoop(t, r)
	for _, ch := range "TODO" {
		s.PostEvent(tcell.NewEventKey(tcell.KeyRune, ch, 0))
	}
	time.Sleep(200 * time.Millisecond)
	s.PostEvent(ctrl('q'))
	wait(t, done)

	ds := r.Editor.CurrentDoc()
	if got := ds.Doc.Text(); got != "TODO" {
		t.Fatalf("expected text 'TODO', got %q", got)
	}
	if !ds.Dirty {
		t.Fatalf("expected Dirty after typing")
	}
	if r.LastStats.Ranges != 1 {
		t.Fatalf("expected one range after the debounced rescan, got %d", r.LastStats.Ranges)
	}
	if hs := r.Highlight.Highlights(ds.Doc); len(hs) != 1 || hs[0].Start != 0 || hs[0].End != 4 {
		t.Fatalf("unexpected highlights %+v", hs)
	}
}

func TestRun_ToggleQuit(t *testing.T) {
	s := simScreen(t)
	defer s.Fini()
	r := newRunner(t, todoRules)
	r.Screen = s
	doc := document.New("mem", "", "", "a TODO")
	r.Add(doc)

	done := runLoop(t, r)
	s.PostEvent(ctrl('t'))
	s.PostEvent(ctrl('q'))
	wait(t, done)

	for _, sc := range r.Highlight.Scopes {
		if sc.Active {
			t.Fatalf("scope %s should be off", sc.Name)
		}
	}
	if len(r.Highlight.Highlights(doc)) != 0 {
		t.Fatalf("toggled off scopes should paint nothing")
	}
}

func TestDraw_PaintsDecorationStyle(t *testing.T) {
	s := simScreen(t)
	defer s.Fini()
	r := newRunner(t, todoRules)
	r.Screen = s
	ds := r.Add(document.New("mem", "notes.txt", "plaintext", "a TODO"))
	ds.Cursor = ds.Doc.Len()
	r.draw()

	ch, _, style, _ := s.GetContent(3, 0)
	fg, _, _ := style.Decompose()
	if ch != 'O' || fg != tcell.ColorYellow {
		t.Fatalf("expected yellow 'O', got %q %v", ch, fg)
	}
	_, _, style, _ = s.GetContent(0, 0)
	if fg, _, _ = style.Decompose(); fg != r.Theme.UIForeground {
		t.Fatalf("undecorated text should use the theme foreground, got %v", fg)
	}
	_, _, style, _ = s.GetContent(6, 0)
	if _, bg, _ := style.Decompose(); bg != r.Theme.CursorBG {
		t.Fatalf("expected cursor cell at end of line")
	}

	status := rowText(s, 9)
	if !strings.Contains(status, "notes.txt") || !strings.Contains(status, "+user") {
		t.Fatalf("unexpected status %q", status)
	}
}

func TestDraw_TooltipUnderCursor(t *testing.T) {
	s := simScreen(t)
	defer s.Fini()
	r := newRunner(t, todoRules)
	r.Screen = s
	ds := r.Add(document.New("mem", "", "", "a TODO"))
	ds.Cursor = 3
	r.draw()
	if got := rowText(s, 8); !strings.HasPrefix(got, "fix me") {
		t.Fatalf("expected tooltip in mini buffer, got %q", got)
	}
}

func rowText(s tcell.SimulationScreen, y int) string {
	w, _ := s.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		ch, _, _, _ := s.GetContent(x, y)
		sb.WriteRune(ch)
	}
	return sb.String()
}

func TestJumpWrapsAround(t *testing.T) {
	r := newRunner(t, todoRules)
	ds := r.Add(document.New("mem", "", "", "a TODO b TODO"))
	want := []int{2, 9, 2}
	for i, w := range want {
		r.handleKeyEvent(ctrl('j'))
		if ds.Cursor != w {
			t.Fatalf("jump %d: expected cursor %d, got %d", i, w, ds.Cursor)
		}
	}
}

func TestNextPrevShowsDocument(t *testing.T) {
	r := newRunner(t, todoRules)
	a := r.Add(document.New("a", "", "", "TODO"))
	b := r.Add(document.New("b", "", "", "x TODO TODO"))
	r.Highlight.Reset(a.Doc)

	r.handleKeyEvent(ctrl('n'))
	if r.Editor.CurrentDoc() != a {
		t.Fatalf("next should wrap to the first document")
	}
	if len(r.Highlight.Highlights(a.Doc)) != 1 {
		t.Fatalf("switching should show cached highlights")
	}
	r.handleKeyEvent(ctrl('p'))
	if r.Editor.CurrentDoc() != b || len(r.Highlight.Highlights(b.Doc)) != 2 {
		t.Fatalf("prev should focus b with its highlights")
	}
}

func TestEditingWithoutLoopRescansImmediately(t *testing.T) {
	r := newRunner(t, todoRules)
	ds := r.Add(document.New("mem", "", "", "TOD"))
	ds.Cursor = 3
	r.handleKeyEvent(tcell.NewEventKey(tcell.KeyRune, 'O', 0))
	if len(r.Highlight.Highlights(ds.Doc)) != 1 {
		t.Fatalf("expected a highlight after completing the word")
	}
	r.handleKeyEvent(tcell.NewEventKey(tcell.KeyBackspace2, 0, 0))
	if ds.Doc.Text() != "TOD" || ds.Cursor != 3 {
		t.Fatalf("backspace: text %q cursor %d", ds.Doc.Text(), ds.Cursor)
	}
	if len(r.Highlight.Highlights(ds.Doc)) != 0 {
		t.Fatalf("expected no highlight after backspace")
	}
	r.handleKeyEvent(tcell.NewEventKey(tcell.KeyEnter, 0, 0))
	r.handleKeyEvent(tcell.NewEventKey(tcell.KeyUp, 0, 0))
	if ds.Cursor != 0 {
		t.Fatalf("up from column 0 should go to 0, got %d", ds.Cursor)
	}
}

func TestReloadPicksUpFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("regexes: []\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r := New(cfg, nil)
	r.Dir = dir
	ds := r.Add(document.New("mem", "", "", "FIXME TODO"))
	if len(r.Highlight.Highlights(ds.Doc)) != 0 {
		t.Fatalf("no rules yet")
	}

	if err := os.WriteFile(cfgPath, []byte(`regexes:
  - rules: [{pattern: TODO, decorations: [{color: red}]}]
`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ws := []byte("regexes:\n  - rules: [{pattern: FIXME, decorations: [{color: blue}]}]\n")
	if err := os.WriteFile(filepath.Join(dir, config.WorkspaceFile), ws, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r.Highlight.Toggle(highlighter.Workspace, nil)
	r.handleKeyEvent(ctrl('r'))

	if r.ruleCount() != 2 {
		t.Fatalf("expected 2 rules after reload, got %d", r.ruleCount())
	}
	if r.Highlight.Scope(highlighter.Workspace).Active {
		t.Fatalf("reload should keep the workspace scope off")
	}
	hs := r.Highlight.Highlights(ds.Doc)
	if len(hs) != 1 || hs[0].Start != 6 {
		t.Fatalf("unexpected highlights %+v", hs)
	}
	if len(r.MiniBuf) != 1 || !strings.Contains(r.MiniBuf[0], "Reloaded 2 rules") {
		t.Fatalf("unexpected mini buffer %v", r.MiniBuf)
	}
}

func TestReloadReportsRuleErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("regexes:\n  - rules: [{pattern: \"(x\"}]\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := New(config.Default(), nil)
	r.ConfigPath = cfgPath
	r.handleKeyEvent(ctrl('r'))
	if len(r.MiniBuf) != 1 || !strings.Contains(r.MiniBuf[0], "1 rule errors") {
		t.Fatalf("unexpected mini buffer %v", r.MiniBuf)
	}
}

func TestLoadFileDetectsLanguage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	if err := os.WriteFile(path, []byte("package main\r\n// TODO\r\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := newRunner(t, todoRules)
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	doc := r.Editor.CurrentDoc().Doc
	if doc.LanguageID != "go" {
		t.Fatalf("expected language go, got %q", doc.LanguageID)
	}
	hs := r.Highlight.Highlights(doc)
	if len(hs) != 1 || hs[0].Start != len("package main\n// ") {
		t.Fatalf("unexpected highlights %+v", hs)
	}
	if err := r.LoadFile(filepath.Join(t.TempDir(), "missing.go")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

func TestUndoRedoRescans(t *testing.T) {
	r := newRunner(t, todoRules)
	ds := r.Add(document.New("mem", "", "", "TOD"))
	ds.Cursor = 3
	r.handleKeyEvent(tcell.NewEventKey(tcell.KeyRune, 'O', 0))
	r.handleKeyEvent(ctrl('z'))
	if ds.Doc.Text() != "TOD" || ds.Cursor != 3 {
		t.Fatalf("undo: text %q cursor %d", ds.Doc.Text(), ds.Cursor)
	}
	if len(r.Highlight.Highlights(ds.Doc)) != 0 {
		t.Fatalf("undo should rescan")
	}
	r.handleKeyEvent(ctrl('y'))
	if ds.Doc.Text() != "TODO" || len(r.Highlight.Highlights(ds.Doc)) != 1 {
		t.Fatalf("redo: text %q", ds.Doc.Text())
	}
	r.handleKeyEvent(ctrl('y'))
	if len(r.MiniBuf) != 1 || r.MiniBuf[0] != "Nothing to redo" {
		t.Fatalf("unexpected mini buffer %v", r.MiniBuf)
	}
}
