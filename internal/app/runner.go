package app

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"example.com/regexhighlight/pkg/config"
	"example.com/regexhighlight/pkg/document"
	"example.com/regexhighlight/pkg/editor"
	"example.com/regexhighlight/pkg/highlighter"
	"example.com/regexhighlight/pkg/language"
	"example.com/regexhighlight/pkg/logs"
)

// Runner owns the terminal lifecycle and the viewer event loop.
type Runner struct {
	Screen    tcell.Screen
	Editor    *editor.Editor
	Highlight *highlighter.Context
	Config    *config.Config
	Theme     config.Theme
	Keymap    map[string]config.Keybinding
	Detector  *language.Detector
	Logger    *logs.Logger
	Debounce  *highlighter.Debouncer

	// ConfigPath and Dir are re-read on reload; an empty ConfigPath
	// recompiles the current settings.
	ConfigPath string
	Dir        string

	TopLine   int
	MiniBuf   []string
	LastStats highlighter.Stats
}

// rescanEvent is carried by the interrupt the debouncer posts.
type rescanEvent struct{ key string }

func (r *Runner) setMiniBuffer(lines []string) {
	r.MiniBuf = lines
}

func (r *Runner) clearMiniBuffer() {
	r.MiniBuf = nil
}

// New creates a Runner over cfg with no open documents.
func New(cfg *config.Config, logger *logs.Logger, opts ...highlighter.Option) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Runner{Editor: editor.New(), Logger: logger, ConfigPath: cfg.Path}
	r.Highlight = highlighter.New(cfg, logger, opts...)
	r.applyConfig(cfg)
	return r
}

func (r *Runner) applyConfig(cfg *config.Config) {
	r.Config = cfg
	r.Keymap = cfg.Keymap
	if r.Keymap == nil {
		r.Keymap = config.DefaultKeymap()
	}
	th, err := cfg.ResolveTheme()
	if err != nil {
		r.Logger.Warn("theme.error", map[string]any{"file": cfg.ThemeFile, "error": err.Error()})
	}
	r.Theme = th
	r.Detector = language.NewDetector(cfg.Languages)
	r.reportErrors()
}

func (r *Runner) reportErrors() {
	errs := r.Highlight.Errors()
	if len(errs) == 0 {
		r.clearMiniBuffer()
		return
	}
	r.setMiniBuffer([]string{fmt.Sprintf("%d rule errors: %v", len(errs), errs[0])})
}

// Add opens doc as the current document and shows its highlights.
func (r *Runner) Add(doc *document.Document) *editor.DocumentState {
	ds := r.Editor.Add(doc)
	r.Highlight.Show(doc)
	return ds
}

// LoadFile opens a file, detecting its language from the path.
func (r *Runner) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	r.Logger.Event("open.attempt", map[string]any{"file": path})
	lang := r.Detector.Detect(path)
	doc, err := document.Load(path, lang)
	if err != nil {
		r.Logger.Error("open.error", map[string]any{"file": path, "error": err.Error()})
		return err
	}
	r.Add(doc)
	r.Logger.Event("open.success", map[string]any{"file": path, "language": lang, "bytes": doc.Len()})
	return nil
}

// InitScreen initializes a tcell screen if one is not already set.
func (r *Runner) InitScreen() error {
	if r.Screen != nil {
		return nil
	}
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	s.SetStyle(tcell.StyleDefault)
	s.Clear()
	r.Screen = s
	return nil
}

// Fini finalizes the screen if initialized.
func (r *Runner) Fini() {
	if r.Screen != nil {
		r.Screen.Fini()
		r.Screen = nil
	}
	r.Logger.Close()
}

// Run starts the event loop. It initializes the screen if needed and
// returns when the quit binding is pressed.
func (r *Runner) Run() error {
	if r.Screen == nil {
		if err := r.InitScreen(); err != nil {
			return err
		}
		defer r.Fini()
	}
	if r.Logger == nil {
		r.Logger = logs.NewFromEnv()
	}

	s := r.Screen
	r.Debounce = highlighter.NewDebouncer(r.Config.Delay.D(), func(key string) {
		_ = s.PostEvent(tcell.NewEventInterrupt(rescanEvent{key: key}))
	})
	defer r.Debounce.Stop()

	r.Logger.Event("run.start", map[string]any{"documents": len(r.Editor.Docs)})
	defer r.Logger.Event("run.end", nil)

	r.draw()
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			// screen finalized
			return nil
		case *tcell.EventKey:
			r.Logger.Debug("key", map[string]any{
				"key":       int(ev.Key()),
				"rune":      string(ev.Rune()),
				"modifiers": int(ev.Modifiers()),
			})
			if r.handleKeyEvent(ev) {
				r.Logger.Event("action", map[string]any{"name": "quit"})
				return nil
			}
		case *tcell.EventInterrupt:
			if re, ok := ev.Data().(rescanEvent); ok {
				r.rescan(re.key)
			}
		case *tcell.EventResize:
			s.Sync()
			r.draw()
		}
	}
}

// rescan runs a fresh scan of the document with key if it is still open.
func (r *Runner) rescan(key string) {
	ds := r.Editor.Find(key)
	if ds == nil {
		return
	}
	r.LastStats = r.Highlight.Update(ds.Doc)
	r.draw()
}

// scheduleRescan debounces a rescan of doc, or scans at once when no
// loop is running.
func (r *Runner) scheduleRescan(doc *document.Document) {
	if r.Debounce == nil {
		r.LastStats = r.Highlight.Update(doc)
		return
	}
	r.Highlight.Reset(doc)
	r.Debounce.Schedule(doc.Key)
}
