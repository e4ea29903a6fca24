package rules

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"example.com/regexhighlight/pkg/logs"
	"example.com/regexhighlight/pkg/pattern"
)

// Group is a compiled rule group.
type Group struct {
	Path        string
	Name        string
	Description string
	Active      bool
	// Languages is the language id allowlist. When nil, LanguageRegex
	// decides instead.
	Languages     []string
	LanguageRegex *regexp2.Regexp
	FilenameRegex *regexp2.Regexp
	Rules         []*Rule
}

// Rule is a compiled pattern. Group is the real group of the parent match
// the rule scans (0 at the top level); Limit <= 0 means unlimited.
type Rule struct {
	Path        string
	Level       int
	Pattern     *pattern.Compiled
	Ref         GroupRef
	Group       int
	Limit       int
	Decorations []*Decoration
	Rules       []*Rule
}

// Decoration is a resolved decoration. ID indexes Forest.Decorations.
type Decoration struct {
	ID       int
	Path     string
	Ref      GroupRef
	Group    int
	Style    Style
	Tooltip  string
	Priority int
	Level    int
	// ZIndex orders painting: higher values paint on top.
	ZIndex int
}

// Forest is the result of compiling a list of rule groups.
type Forest struct {
	Groups      []*Group
	Decorations []*Decoration
}

// Rules counts the compiled rules at every level.
func (f *Forest) Rules() int {
	var count func([]*Rule) int
	count = func(rs []*Rule) int {
		n := 0
		for _, r := range rs {
			n += 1 + count(r.Rules)
		}
		return n
	}
	n := 0
	for _, g := range f.Groups {
		n += count(g.Rules)
	}
	return n
}

// ZIndex is the stacking value of a decoration at nesting level with the
// given priority. Each level spans a band of 100 above the one enclosing it.
func ZIndex(level, priority int) int { return -100*(10-level) + priority }

// Compiler turns raw rule groups into a Forest.
type Compiler struct {
	// DefaultFlags applies to rules without flags.
	DefaultFlags string
	// DefaultLimit applies to rules without a limit.
	DefaultLimit int
	// MatchTimeout bounds a single match attempt when positive.
	MatchTimeout time.Duration
	// Scope prefixes every rule path ("user", "workspace").
	Scope  string
	Logger *logs.Logger
}

// Compile compiles every group. Failing rules are skipped and reported as
// *RuleError; their siblings still compile. A group whose language or
// filename regex is invalid is skipped entirely.
func (c *Compiler) Compile(raw []RawGroup) (*Forest, []error) {
	f := &Forest{}
	var errs []error
	fail := func(path string, err error) {
		c.Logger.Error("compile.error", map[string]any{"scope": c.Scope, "path": path, "error": err.Error()})
		errs = append(errs, &RuleError{Path: path, Err: err})
	}
	for i, rg := range raw {
		path := fmt.Sprintf("%s/[%d]", c.Scope, i)
		g := &Group{
			Path:        path,
			Name:        rg.Name,
			Description: rg.Description,
			Active:      rg.Active == nil || *rg.Active,
			Languages:   slices.Clone(rg.LanguageIDs),
		}
		var err error
		if g.LanguageRegex, err = groupRegex(rg.LanguageRegex); err != nil {
			fail(path+"/languageRegex", err)
			continue
		}
		if g.FilenameRegex, err = groupRegex(rg.FilenameRegex); err != nil {
			fail(path+"/filenameRegex", err)
			continue
		}
		for j, rr := range rg.Rules {
			rpath := fmt.Sprintf("%s/rules/[%d]", path, j)
			r, rerrs := c.rule(f, rr, rpath, 0, nil)
			errs = append(errs, rerrs...)
			if r != nil {
				g.Rules = append(g.Rules, r)
			}
		}
		f.Groups = append(f.Groups, g)
	}
	c.Logger.Info("compile.done", map[string]any{
		"scope":       c.Scope,
		"groups":      len(f.Groups),
		"decorations": len(f.Decorations),
		"errors":      len(errs),
	})
	return f, errs
}

// rule compiles rr depth first. parent is nil at the top level. A failure of
// rr itself is returned; failures of nested rules are returned too but do not
// prevent rr from compiling.
func (c *Compiler) rule(f *Forest, rr RawRule, path string, level int, parent *pattern.Compiled) (*Rule, []error) {
	fail := func(err error) (*Rule, []error) {
		c.Logger.Error("compile.error", map[string]any{"scope": c.Scope, "path": path, "error": err.Error()})
		return nil, []error{&RuleError{Path: path, Err: err}}
	}
	flags := c.DefaultFlags
	if rr.Flags != nil {
		flags = *rr.Flags
	}
	limit := c.DefaultLimit
	if rr.Limit != nil {
		limit = int(*rr.Limit)
	}
	r := &Rule{Path: path, Level: level, Ref: rr.Group, Limit: limit}
	if parent != nil {
		g, ok := resolve(parent, rr.Group)
		if !ok {
			return fail(&UnknownGroupError{Path: path, Pattern: parent.Source, Ref: rr.Group})
		}
		r.Group = g
	}
	if rr.Pattern == "" {
		return fail(&pattern.PatternError{Offset: -1, Reason: "empty pattern"})
	}
	p, err := pattern.Compile(string(rr.Pattern), flags, c.MatchTimeout)
	if err != nil {
		return fail(err)
	}
	r.Pattern = p

	// resolve before compiling nested rules so a bad reference leaves no
	// orphan decorations in the table
	decs := sortDecorations(rr.Decorations)
	groups := make([]int, len(decs))
	for k, d := range decs {
		g, ok := resolve(p, d.raw.Group)
		if !ok {
			return fail(&UnknownGroupError{Path: fmt.Sprintf("%s/decorations/[%d]", path, d.index), Pattern: p.Source, Ref: d.raw.Group})
		}
		groups[k] = g
	}

	var errs []error
	for j, nr := range rr.Rules {
		child, cerrs := c.rule(f, nr, fmt.Sprintf("%s/rules/[%d]", path, j), level+1, p)
		errs = append(errs, cerrs...)
		if child != nil {
			r.Rules = append(r.Rules, child)
		}
	}

	for k, d := range decs {
		dec := &Decoration{
			ID:       len(f.Decorations),
			Path:     fmt.Sprintf("%s/decorations/[%d]", path, d.index),
			Ref:      d.raw.Group,
			Group:    groups[k],
			Style:    d.raw.Style,
			Tooltip:  string(d.raw.Tooltip),
			Priority: int(d.raw.Priority),
			Level:    level,
			ZIndex:   ZIndex(level, int(d.raw.Priority)),
		}
		f.Decorations = append(f.Decorations, dec)
		r.Decorations = append(r.Decorations, dec)
	}
	return r, errs
}

type indexed struct {
	index int
	raw   RawDecoration
}

// sortDecorations orders decorations by descending priority. Equal
// priorities keep reverse declaration order so later ones end up on top.
func sortDecorations(in []RawDecoration) []indexed {
	out := make([]indexed, len(in))
	for i, d := range in {
		out[len(in)-1-i] = indexed{index: i, raw: d}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].raw.Priority > out[b].raw.Priority })
	return out
}

func resolve(p *pattern.Compiled, ref GroupRef) (int, bool) {
	if ref.Named() {
		return p.ResolveName(ref.Name)
	}
	return p.Resolve(ref.Index)
}

func groupRegex(src string) (*regexp2.Regexp, error) {
	if strings.TrimSpace(src) == "" {
		src = ".*"
	}
	re, err := regexp2.Compile(src, regexp2.None)
	if err != nil {
		return nil, &pattern.PatternError{Pattern: src, Offset: -1, Reason: "invalid", Err: err}
	}
	return re, nil
}
