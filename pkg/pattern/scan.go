package pattern

import "strings"

// The helpers below walk pattern text by byte index. Each one takes the index
// of an opening construct and returns the index of the last byte it consumed,
// so callers continue at the returned index + 1. A backslash always escapes
// the byte that follows it.

// skipQuantifier consumes a quantifier following the atom that ends at i:
// '*', '+', '?' or '{n}', '{n,}', '{n,m}', each with an optional lazy '?'.
// A '{' that does not open a counted repetition is a literal.
func skipQuantifier(text string, i int) int {
	if i+1 >= len(text) {
		return i
	}
	switch text[i+1] {
	case '*', '+', '?':
		i++
	case '{':
		j := strings.IndexByte(text[i+2:], '}')
		if j < 0 || !isRepeat(text[i+2:i+2+j]) {
			return i
		}
		i += 2 + j
	default:
		return i
	}
	if i+1 < len(text) && text[i+1] == '?' {
		i++
	}
	return i
}

// isRepeat reports whether s is the body of a counted repetition.
func isRepeat(s string) bool {
	lo, hi, comma := strings.Cut(s, ",")
	if !digits(lo) {
		return false
	}
	return !comma || hi == "" || digits(hi)
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// skipClass consumes the character class opening at text[open] == '['
// together with its quantifier. Classes are never split.
func skipClass(text string, open int) (int, error) {
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case ']':
			return skipQuantifier(text, i), nil
		}
	}
	return 0, unbalanced(open, "[")
}

// skipGroup finds the ')' matching text[open] == '('. It returns the index of
// that ')' and the index of the last byte of the group's quantifier (equal to
// closeAt when the group is not quantified).
func skipGroup(text string, open int) (closeAt, end int, err error) {
	depth := 1
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '[':
			if i, err = skipClass(text, i); err != nil {
				return 0, 0, err
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, skipQuantifier(text, i), nil
			}
		}
	}
	return 0, 0, unbalanced(open, "(")
}

// span is a half-open byte range [start, end) of a pattern fragment.
type span struct{ start, end int }

// splitAlternation splits text on '|' that are not escaped and not nested in
// a group or character class.
func splitAlternation(text string) ([]span, error) {
	var out []span
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '[':
			end, err := skipClass(text, i)
			if err != nil {
				return nil, err
			}
			i = end
		case '(':
			_, end, err := skipGroup(text, i)
			if err != nil {
				return nil, err
			}
			i = end
		case '|':
			out = append(out, span{start, i})
			start = i + 1
		}
	}
	return append(out, span{start, len(text)}), nil
}

// hasGroup reports whether text contains an unescaped '(' outside of a
// character class.
func hasGroup(text string) (bool, error) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '[':
			end, err := skipClass(text, i)
			if err != nil {
				return false, err
			}
			i = end
		case '(':
			return true, nil
		case ')':
			return false, unbalanced(i, ")")
		}
	}
	return false, nil
}

type groupKind int

const (
	groupCapture groupKind = iota
	groupNonCapture
	groupNamed
	groupLookahead
	groupNegLookahead
	groupLookbehind
	groupNegLookbehind
)

// classify inspects the group opening at text[open] and returns its kind, the
// length of its header ("(", "(?:", "(?<name>", ...) and its name if any.
func classify(text string, open int) (kind groupKind, header int, name string, err error) {
	at := func(i int) byte {
		if i < len(text) {
			return text[i]
		}
		return 0
	}
	if at(open+1) != '?' {
		return groupCapture, 1, "", nil
	}
	switch at(open + 2) {
	case ':':
		return groupNonCapture, 3, "", nil
	case '=':
		return groupLookahead, 3, "", nil
	case '!':
		return groupNegLookahead, 3, "", nil
	case '<':
		switch at(open + 3) {
		case '=':
			return groupLookbehind, 4, "", nil
		case '!':
			return groupNegLookbehind, 4, "", nil
		}
		gt := strings.IndexByte(text[open+3:], '>')
		if gt < 0 {
			return 0, 0, "", &scanError{offset: open, construct: "(?<", reason: "unterminated group name"}
		}
		name = text[open+3 : open+3+gt]
		if name == "" || strings.ContainsAny(name, "()[]|\\") {
			return 0, 0, "", &scanError{offset: open, construct: "(?<" + name + ">", reason: "invalid group name"}
		}
		return groupNamed, gt + 4, name, nil
	}
	construct := "(?"
	if open+2 < len(text) {
		construct = text[open : open+3]
	}
	return 0, 0, "", &scanError{offset: open, construct: construct, reason: "unknown group construct"}
}

// prefix is the opening emitted for a rewritten group of this kind.
func (k groupKind) prefix(quantified bool) string {
	switch k {
	case groupCapture:
		if quantified {
			return "((?:"
		}
		return "("
	case groupLookahead:
		return "((?="
	case groupNegLookahead:
		return "((?!"
	case groupLookbehind:
		return "((?<="
	case groupNegLookbehind:
		return "((?<!"
	default:
		return "((?:"
	}
}

// suffix closes what prefix opened, re-attaching the quantifier to the inner
// group so the outer capture spans every repetition.
func (k groupKind) suffix(quantifier string) string {
	if k == groupCapture && quantifier == "" {
		return ")"
	}
	return ")" + quantifier + ")"
}

func (k groupKind) capturing() bool {
	return k == groupCapture || k == groupNamed
}
