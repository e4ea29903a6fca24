package pattern

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// ParseFlags converts JavaScript style flag letters into matcher options.
// 'g' is accepted and ignored: scans are always global.
func ParseFlags(flags string) (regexp2.RegexOptions, error) {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case 'g':
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		default:
			return 0, fmt.Errorf("unknown pattern flag %q", f)
		}
	}
	return opts, nil
}

// Compiled is a normalized pattern bound to a matcher.
type Compiled struct {
	*Normalized
	Flags string
	re    *regexp2.Regexp
}

// Compile validates source, normalizes it and compiles the rewritten form.
// A positive timeout bounds the time spent on any single match attempt.
func Compile(source, flags string, timeout time.Duration) (*Compiled, error) {
	opts, err := ParseFlags(flags)
	if err != nil {
		return nil, &PatternError{Pattern: source, Offset: -1, Reason: "bad flags", Err: err}
	}
	// the author's pattern must be valid on its own so engine errors point at
	// text the author wrote rather than at the rewrite
	if _, err := regexp2.Compile(source, opts); err != nil {
		return nil, &PatternError{Pattern: source, Offset: -1, Reason: "invalid", Err: err}
	}
	norm, err := Normalize(source)
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(norm.Pattern, opts)
	if err != nil {
		return nil, &PatternError{Pattern: source, Offset: -1, Reason: "rewrite rejected", Construct: norm.Pattern, Err: err}
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	c := &Compiled{Normalized: norm, Flags: flags, re: re}
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package level patterns.
func MustCompile(source, flags string) *Compiled {
	c, err := Compile(source, flags, 0)
	if err != nil {
		panic(err)
	}
	return c
}

// GroupCount returns the number of groups in the rewritten pattern,
// including group 0.
func (c *Compiled) GroupCount() int { return len(c.re.GetGroupNumbers()) }

func (c *Compiled) check() error {
	n := c.GroupCount()
	bad := func(g int) error {
		return &PatternError{Pattern: c.Source, Offset: -1, Reason: fmt.Sprintf("group table references missing group %d", g)}
	}
	for _, g := range c.LogicalToReal {
		if g >= n {
			return bad(g)
		}
	}
	for _, g := range c.NameToReal {
		if g >= n {
			return bad(g)
		}
	}
	for g := 0; g < n; g++ {
		if _, ok := c.Dependencies[g]; !ok && !c.Identity() {
			return bad(g)
		}
	}
	return nil
}

// Resolve maps an author visible group number to a real group.
func (c *Compiled) Resolve(logical int) (int, bool) {
	g, ok := c.LogicalToReal[logical]
	return g, ok
}

// ResolveName maps an author visible group name to a real group.
func (c *Compiled) ResolveName(name string) (int, bool) {
	g, ok := c.NameToReal[name]
	return g, ok
}

// Offset returns the byte offset of real group g from the start of m by
// summing the captured lengths of its dependencies.
func (c *Compiled) Offset(m *Match, g int) int {
	off := 0
	for _, d := range c.Dependencies[g] {
		s, _ := m.Group(d)
		off += len(s)
	}
	return off
}

// Match is one match of a Compiled pattern.
type Match struct {
	// Start is the byte offset of the match in the scanned text.
	Start int
	// Len is the byte length of the match.
	Len int
	m   *regexp2.Match
}

// Group returns the text captured by real group g. ok is false when the
// group did not take part in the match or captured nothing.
func (m *Match) Group(g int) (text string, ok bool) {
	grp := m.m.GroupByNumber(g)
	if grp == nil || len(grp.Captures) == 0 {
		return "", false
	}
	s := grp.String()
	return s, s != ""
}

// Iter walks the non-overlapping matches of a pattern left to right.
type Iter struct {
	re      *regexp2.Regexp
	text    string
	last    *regexp2.Match
	started bool
	err     error

	// rune -> byte conversion cursor; matches only move forward
	runePos int
	bytePos int
}

// Iter starts a scan over text.
func (c *Compiled) Iter(text string) *Iter {
	return &Iter{re: c.re, text: text}
}

// Next returns the next match, or false when the scan is over or failed.
func (it *Iter) Next() (*Match, bool) {
	if it.err != nil || (it.started && it.last == nil) {
		return nil, false
	}
	var m *regexp2.Match
	var err error
	if !it.started {
		it.started = true
		m, err = it.re.FindStringMatch(it.text)
	} else {
		m, err = it.re.FindNextMatch(it.last)
	}
	it.last = m
	if err != nil {
		it.err = err
		return nil, false
	}
	if m == nil {
		return nil, false
	}
	return &Match{Start: it.byteOffset(m.Index), Len: len(m.String()), m: m}, true
}

// Err reports a matcher failure such as a timeout.
func (it *Iter) Err() error { return it.err }

func (it *Iter) byteOffset(runeIndex int) int {
	for it.runePos < runeIndex && it.bytePos < len(it.text) {
		_, size := utf8.DecodeRuneInString(it.text[it.bytePos:])
		it.bytePos += size
		it.runePos++
	}
	return it.bytePos
}
