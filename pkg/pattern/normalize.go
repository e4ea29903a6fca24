package pattern

import (
	"errors"
	"slices"
	"strings"
)

// Normalized is a pattern rewritten so that every sequential fragment and
// every group is its own capturing group. The engine recovers the start of a
// logical group by adding the captured lengths of its dependencies to the
// start of the whole match.
type Normalized struct {
	// Source is the pattern as written by the author.
	Source string
	// Pattern is the rewritten pattern handed to the matcher.
	Pattern string
	// LogicalToReal maps author visible group numbers (0 is the whole
	// match) to group numbers in Pattern.
	LogicalToReal map[int]int
	// NameToReal maps author visible group names to group numbers in
	// Pattern.
	NameToReal map[string]int
	// Dependencies lists, for every real group, the real groups whose
	// captured lengths sum to the group's offset from the match start.
	Dependencies map[int][]int
	// Groups is the number of capturing groups in Pattern.
	Groups int
}

// Identity reports whether normalization left the pattern untouched.
func (n *Normalized) Identity() bool { return n.Groups == 0 }

// Normalize rewrites src. A pattern without groups is returned unchanged.
func Normalize(src string) (*Normalized, error) {
	res := &Normalized{
		Source:        src,
		Pattern:       src,
		LogicalToReal: map[int]int{0: 0},
		NameToReal:    map[string]int{},
		Dependencies:  map[int][]int{0: {}},
	}
	grouped, err := hasGroup(src)
	if err != nil {
		return nil, rebase(src, 0, err)
	}
	if !grouped {
		return res, nil
	}
	n := &normalizer{src: src, res: res, next: 1, logical: 1}
	branches, err := splitAlternation(src)
	if err != nil {
		return nil, rebase(src, 0, err)
	}
	for i, b := range branches {
		if i > 0 {
			n.out.WriteByte('|')
		}
		if err := n.fragment(b.start, b.end, nil, nil); err != nil {
			return nil, err
		}
	}
	res.Pattern = n.out.String()
	res.Groups = n.next - 1
	return res, nil
}

type normalizer struct {
	src     string
	out     strings.Builder
	res     *Normalized
	next    int // next real group number
	logical int // next author visible group number
}

// fragment rewrites src[from:to]. chain holds the real groups emitted so far
// on the path from the match start, ancestors the enclosing groups.
func (n *normalizer) fragment(from, to int, ancestors, chain []int) error {
	text := n.src[from:to]
	start := 0
	grouped := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if i+1 >= len(text) {
				return n.errorf(from+i, `\`, "trailing backslash")
			}
			i++
		case '[':
			end, err := skipClass(text, i)
			if err != nil {
				return rebase(n.src, from, err)
			}
			i = end
		case ')':
			return n.errorf(from+i, ")", "unbalanced")
		case '(':
			grouped = true
			if i > start {
				chain = n.flush(text[start:i], ancestors, chain)
			}
			kind, header, name, err := classify(text, i)
			if err != nil {
				return rebase(n.src, from, err)
			}
			closeAt, end, err := skipGroup(text, i)
			if err != nil {
				return rebase(n.src, from, err)
			}
			quantifier := text[closeAt+1 : end+1]

			g := n.next
			n.next++
			n.res.Dependencies[g] = without(chain, ancestors)
			if kind.capturing() {
				n.res.LogicalToReal[n.logical] = g
				n.logical++
			}
			if kind == groupNamed {
				if _, dup := n.res.NameToReal[name]; dup {
					return n.errorf(from+i, "(?<"+name+">", "duplicate group name")
				}
				n.res.NameToReal[name] = g
			}
			chain = append(chain, g)
			inner := append(slices.Clone(ancestors), g)

			n.out.WriteString(kind.prefix(quantifier != ""))
			innerFrom := from + i + header
			branches, err := splitAlternation(n.src[innerFrom : from+closeAt])
			if err != nil {
				return rebase(n.src, innerFrom, err)
			}
			for j, b := range branches {
				if j > 0 {
					n.out.WriteByte('|')
				}
				err := n.fragment(innerFrom+b.start, innerFrom+b.end, slices.Clone(inner), slices.Clone(chain))
				if err != nil {
					return err
				}
			}
			n.out.WriteString(kind.suffix(quantifier))

			i = end
			start = end + 1
		}
	}
	if !grouped {
		n.out.WriteString(text)
		return nil
	}
	if start < len(text) {
		n.flush(text[start:], ancestors, chain)
	}
	return nil
}

// flush wraps a plain run of pattern text in a new capturing group so its
// consumed length is observable.
func (n *normalizer) flush(seg string, ancestors, chain []int) []int {
	g := n.next
	n.next++
	n.res.Dependencies[g] = without(chain, ancestors)
	n.out.WriteByte('(')
	n.out.WriteString(seg)
	n.out.WriteByte(')')
	return append(chain, g)
}

func (n *normalizer) errorf(offset int, construct, reason string) error {
	return &PatternError{Pattern: n.src, Offset: offset, Construct: construct, Reason: reason}
}

// rebase turns a scanError raised on a fragment into a PatternError on the
// whole pattern.
func rebase(src string, from int, err error) error {
	var se *scanError
	if errors.As(err, &se) {
		return &PatternError{Pattern: src, Offset: from + se.offset, Construct: se.construct, Reason: se.reason}
	}
	return &PatternError{Pattern: src, Offset: -1, Reason: "malformed", Err: err}
}

func without(chain, ancestors []int) []int {
	out := make([]int, 0, len(chain))
	for _, g := range chain {
		if !slices.Contains(ancestors, g) {
			out = append(out, g)
		}
	}
	return out
}
