// Package engine runs compiled rule forests over document text.
package engine

import (
	"time"

	"example.com/regexhighlight/pkg/filter"
	"example.com/regexhighlight/pkg/highlight"
	"example.com/regexhighlight/pkg/logs"
	"example.com/regexhighlight/pkg/pattern"
	"example.com/regexhighlight/pkg/rules"
)

// Document is the part of a document a scan reads.
type Document struct {
	Text       string
	LanguageID string
	Path       string
}

// Options tune a scan.
type Options struct {
	// Scope labels log records ("user", "workspace").
	Scope  string
	Logger *logs.Logger
}

// IssueKind classifies a rule that stopped early.
type IssueKind int

const (
	// LimitExceeded: the rule matched more often than its limit.
	LimitExceeded IssueKind = iota
	// ZeroLength: the rule produced an empty match and would loop.
	ZeroLength
	// MatchError: the matcher failed, usually on its timeout.
	MatchError
)

func (k IssueKind) String() string {
	switch k {
	case LimitExceeded:
		return "limit_exceeded"
	case ZeroLength:
		return "zero_length"
	default:
		return "match_error"
	}
}

// Issue is a non-fatal problem met while scanning one rule. Offset is the
// absolute byte offset of the span or match that triggered it.
type Issue struct {
	Kind    IssueKind
	Path    string
	Pattern string
	Offset  int
	Limit   int
	Err     error
}

// Report summarizes a scan.
type Report struct {
	// Applied is true when at least one group passed the filter.
	Applied bool
	// Groups counts the groups that ran.
	Groups   int
	Matches  int
	Issues   []Issue
	Duration time.Duration
}

// Scan runs every applicable group of forest over doc and returns the
// resulting ranges. Problems in one rule never stop the others.
func Scan(forest *rules.Forest, doc Document, opts Options) (*highlight.Set, *Report) {
	start := time.Now()
	s := &scanner{
		set:    highlight.NewSet(),
		report: &Report{},
		counts:   map[*rules.Rule]int{},
		exceeded: map[*rules.Rule]bool{},
		opts:     opts,
	}
	if forest != nil {
		for _, g := range forest.Groups {
			ok, reason := filter.Applies(g, doc.LanguageID, doc.Path)
			if !ok {
				opts.Logger.Debug("filter.skip", map[string]any{
					"scope":  opts.Scope,
					"group":  g.Path,
					"reason": reason.String(),
					"lang":   doc.LanguageID,
					"file":   doc.Path,
				})
				continue
			}
			s.report.Applied = true
			s.report.Groups++
			for _, r := range g.Rules {
				s.rule(r, doc.Text, 0)
			}
		}
	}
	s.report.Duration = time.Since(start)
	return s.set, s.report
}

type scanner struct {
	set    *highlight.Set
	report *Report
	// match counts per rule for this scan, accumulated across spans
	counts map[*rules.Rule]int
	// rules whose limit was reported; later spans skip them
	exceeded map[*rules.Rule]bool
	opts     Options
}

// rule scans text, which starts at absolute offset base in the document.
func (s *scanner) rule(r *rules.Rule, text string, base int) {
	if s.exceeded[r] {
		return
	}
	it := r.Pattern.Iter(text)
	for {
		m, ok := it.Next()
		if !ok {
			break
		}
		s.counts[r]++
		if r.Limit > 0 && s.counts[r] > r.Limit {
			s.exceeded[r] = true
			s.issue(Issue{Kind: LimitExceeded, Path: r.Path, Pattern: r.Pattern.Source, Offset: base + m.Start, Limit: r.Limit})
			return
		}
		if m.Len == 0 {
			s.issue(Issue{Kind: ZeroLength, Path: r.Path, Pattern: r.Pattern.Source, Offset: base + m.Start})
			return
		}
		s.report.Matches++
		for _, d := range r.Decorations {
			start, captured, ok := locate(r.Pattern, m, d.Group)
			if !ok {
				continue
			}
			abs := base + start
			s.set.Add(highlight.Range{Decoration: d.ID, Start: abs, End: abs + len(captured), Tooltip: d.Tooltip})
		}
		for _, child := range r.Rules {
			start, captured, ok := locate(r.Pattern, m, child.Group)
			if !ok {
				continue
			}
			s.rule(child, captured, base+start)
		}
	}
	if err := it.Err(); err != nil {
		s.issue(Issue{Kind: MatchError, Path: r.Path, Pattern: r.Pattern.Source, Offset: base, Err: err})
	}
}

// locate returns the offset of real group g relative to the scanned text and
// its captured text. ok is false when the group did not participate or
// captured nothing.
func locate(p *pattern.Compiled, m *pattern.Match, g int) (start int, captured string, ok bool) {
	captured, ok = m.Group(g)
	if !ok {
		return 0, "", false
	}
	return m.Start + p.Offset(m, g), captured, true
}

func (s *scanner) issue(is Issue) {
	s.report.Issues = append(s.report.Issues, is)
	fields := map[string]any{
		"scope":   s.opts.Scope,
		"path":    is.Path,
		"pattern": is.Pattern,
		"offset":  is.Offset,
	}
	switch is.Kind {
	case LimitExceeded:
		fields["limit"] = is.Limit
		s.opts.Logger.Warn("scan.limit", fields)
	case ZeroLength:
		s.opts.Logger.Error("scan.zero_length", fields)
	default:
		fields["error"] = is.Err.Error()
		s.opts.Logger.Error("scan.match_error", fields)
	}
}
