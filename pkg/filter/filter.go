// Package filter decides whether a rule group applies to a document.
package filter

import (
	"slices"

	"github.com/dlclark/regexp2"

	"example.com/regexhighlight/pkg/rules"
)

// Reason explains the outcome of Applies.
type Reason int

const (
	ReasonOK Reason = iota
	ReasonInactive
	ReasonLanguage
	ReasonFilename
	// ReasonEmpty marks a group without rules; the group is skipped.
	ReasonEmpty
)

func (r Reason) String() string {
	switch r {
	case ReasonInactive:
		return "inactive"
	case ReasonLanguage:
		return "language"
	case ReasonFilename:
		return "filename"
	case ReasonEmpty:
		return "empty"
	default:
		return "ok"
	}
}

// Applies reports whether g should run on a document with the given
// language id and path. An empty language id or path skips that check.
// The allowlist decides the language when it is set, the language regex
// otherwise.
func Applies(g *rules.Group, languageID, path string) (bool, Reason) {
	if !g.Active {
		return false, ReasonInactive
	}
	if len(g.Rules) == 0 {
		return false, ReasonEmpty
	}
	if languageID != "" {
		if g.Languages != nil {
			if !slices.Contains(g.Languages, languageID) {
				return false, ReasonLanguage
			}
		} else if !matches(g.LanguageRegex, languageID) {
			return false, ReasonLanguage
		}
	}
	if path != "" && !matches(g.FilenameRegex, path) {
		return false, ReasonFilename
	}
	return true, ReasonOK
}

// matches treats a missing regex as match-all and a matcher failure as no
// match.
func matches(re *regexp2.Regexp, s string) bool {
	if re == nil {
		return true
	}
	ok, err := re.MatchString(s)
	return err == nil && ok
}
