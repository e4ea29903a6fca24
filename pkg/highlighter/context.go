// Package highlighter connects compiled rules, the match engine and the
// decoration cache to a host that owns documents and paints them.
package highlighter

import (
	"sort"
	"time"

	"example.com/regexhighlight/pkg/cache"
	"example.com/regexhighlight/pkg/config"
	"example.com/regexhighlight/pkg/document"
	"example.com/regexhighlight/pkg/engine"
	"example.com/regexhighlight/pkg/highlight"
	"example.com/regexhighlight/pkg/logs"
	"example.com/regexhighlight/pkg/metrics"
	"example.com/regexhighlight/pkg/rules"
)

// Scope names.
const (
	User      = "user"
	Workspace = "workspace"
)

// Scope is one independently compiled and toggled set of rule groups.
type Scope struct {
	Name   string
	Active bool
	Forest *rules.Forest
	Errors []error

	cache *cache.Cache
	// sets currently painted, by document key
	painted map[string]*highlight.Set
}

// Cached returns the keys held by the scope's cache, oldest first.
func (s *Scope) Cached() []string { return s.cache.Keys() }

// Highlight is a range with the decoration that styles it.
type Highlight struct {
	highlight.Range
	Scope      string
	Decoration *rules.Decoration
}

// Stats summarizes an Update.
type Stats struct {
	Ranges   int
	Issues   []engine.Issue
	Duration time.Duration
}

// Option configures a Context.
type Option func(*Context)

// WithMetrics records scans and cache traffic on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// Context holds the user and workspace scopes. It is not safe for
// concurrent use; hosts call it from their event loop.
type Context struct {
	Scopes []*Scope

	cfg     *config.Config
	logger  *logs.Logger
	metrics *metrics.Metrics
}

// New compiles both scopes from cfg.
func New(cfg *config.Config, logger *logs.Logger, opts ...Option) *Context {
	c := &Context{logger: logger}
	for _, o := range opts {
		o(c)
	}
	c.Scopes = []*Scope{
		{Name: User, Active: true},
		{Name: Workspace, Active: true},
	}
	c.Reload(cfg)
	return c
}

// Config returns the settings of the last load.
func (c *Context) Config() *config.Config { return c.cfg }

// Reload recompiles every scope from cfg. Caches and painted sets are
// dropped because decoration ids change; active flags are kept.
func (c *Context) Reload(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	c.cfg = cfg
	raw := map[string][]rules.RawGroup{
		User:      cfg.Regexes,
		Workspace: cfg.Workspace.Regexes,
	}
	for _, s := range c.Scopes {
		comp := &rules.Compiler{
			DefaultFlags: cfg.DefaultFlags,
			DefaultLimit: cfg.DefaultMatchLimit,
			MatchTimeout: cfg.MatchTimeout.D(),
			Scope:        s.Name,
			Logger:       c.logger,
		}
		s.Forest, s.Errors = comp.Compile(raw[s.Name])
		s.cache = cache.New(cfg.CacheLimit, cache.WithObserver(c.metrics.CacheObserver(s.Name)))
		s.painted = map[string]*highlight.Set{}
		c.metrics.ObserveCompile(s.Name, len(s.Errors))
	}
}

// Scope returns the scope called name, or nil.
func (c *Context) Scope(name string) *Scope {
	for _, s := range c.Scopes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Errors returns the compile errors of the last load, user scope first.
func (c *Context) Errors() []error {
	var out []error
	for _, s := range c.Scopes {
		out = append(out, s.Errors...)
	}
	return out
}

// Update rescans doc in every scope and stores the results in the cache.
// An inactive scope only forgets doc.
func (c *Context) Update(doc *document.Document) Stats {
	var st Stats
	for _, s := range c.Scopes {
		ss := c.update(s, doc)
		st.Ranges += ss.Ranges
		st.Issues = append(st.Issues, ss.Issues...)
		st.Duration += ss.Duration
	}
	return st
}

func (c *Context) update(s *Scope, doc *document.Document) Stats {
	if !s.Active {
		s.cache.Evict(doc.Key)
		delete(s.painted, doc.Key)
		return Stats{}
	}
	delete(s.painted, doc.Key)
	set, rep := engine.Scan(s.Forest, engine.Document{
		Text:       doc.Text(),
		LanguageID: doc.LanguageID,
		Path:       doc.Path,
	}, engine.Options{Scope: s.Name, Logger: c.logger})
	c.metrics.ObserveScan(s.Name, set.Len(), rep)
	s.painted[doc.Key] = set
	// stored even when nothing applied so the next Show is a hit
	s.cache.Put(doc.Key, set)
	if set.Len() > 0 {
		c.logger.Info("scan.update", map[string]any{
			"scope":       s.Name,
			"file":        doc.Path,
			"count":       set.Len(),
			"issues":      len(rep.Issues),
			"duration_ms": rep.Duration.Milliseconds(),
		})
	}
	return Stats{Ranges: set.Len(), Issues: rep.Issues, Duration: rep.Duration}
}

// Show paints doc from the cache, scanning on a miss. Hosts call it when a
// document becomes visible.
func (c *Context) Show(doc *document.Document) {
	for _, s := range c.Scopes {
		c.show(s, doc)
	}
}

func (c *Context) show(s *Scope, doc *document.Document) {
	if !s.Active {
		return
	}
	if set, ok := s.cache.Get(doc.Key); ok {
		s.painted[doc.Key] = set
		c.logger.Debug("scan.cached", map[string]any{"scope": s.Name, "file": doc.Path, "count": set.Len()})
		return
	}
	c.logger.Debug("scan.cache_miss", map[string]any{"scope": s.Name, "file": doc.Path})
	c.update(s, doc)
}

// Reset clears what is painted on doc in every scope. Cached results stay.
func (c *Context) Reset(doc *document.Document) {
	for _, s := range c.Scopes {
		delete(s.painted, doc.Key)
	}
	c.logger.Info("scan.reset", map[string]any{"file": doc.Path})
}

// Close forgets doc entirely.
func (c *Context) Close(doc *document.Document) {
	for _, s := range c.Scopes {
		delete(s.painted, doc.Key)
		s.cache.Evict(doc.Key)
	}
}

// Toggle flips the active flag of the named scope, or of every scope when
// name is empty. Turning a scope off clears and evicts the visible
// documents; turning it on shows them again.
func (c *Context) Toggle(name string, visible []*document.Document) {
	for _, s := range c.Scopes {
		if name != "" && s.Name != name {
			continue
		}
		s.Active = !s.Active
		c.logger.Info("scope.toggle", map[string]any{"scope": s.Name, "active": s.Active})
		for _, doc := range visible {
			if s.Active {
				c.show(s, doc)
			} else {
				delete(s.painted, doc.Key)
				s.cache.Evict(doc.Key)
			}
		}
	}
}

// Highlights returns the painted ranges of doc across active scopes in
// painting order: ascending z-index, user before workspace, descending
// decoration id, then by start. Later entries paint over earlier ones.
func (c *Context) Highlights(doc *document.Document) []Highlight {
	var out []Highlight
	order := map[string]int{}
	for i, s := range c.Scopes {
		order[s.Name] = i
		if !s.Active {
			continue
		}
		set := s.painted[doc.Key]
		for _, r := range set.Flatten() {
			if r.Decoration < 0 || r.Decoration >= len(s.Forest.Decorations) {
				continue
			}
			out = append(out, Highlight{Range: r, Scope: s.Name, Decoration: s.Forest.Decorations[r.Decoration]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Decoration.ZIndex != b.Decoration.ZIndex {
			return a.Decoration.ZIndex < b.Decoration.ZIndex
		}
		if a.Scope != b.Scope {
			return order[a.Scope] < order[b.Scope]
		}
		if a.Decoration.ID != b.Decoration.ID {
			// lower ids were declared later within a rule and go on top
			return a.Decoration.ID > b.Decoration.ID
		}
		return a.Start < b.Start
	})
	return out
}
