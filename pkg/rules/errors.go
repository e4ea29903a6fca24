package rules

import "fmt"

// UnknownGroupError reports a decoration or nested rule that refers to a group
// the pattern does not define.
type UnknownGroupError struct {
	Path    string
	Pattern string
	Ref     GroupRef
}

func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("pattern %q has no group %s", e.Pattern, e.Ref)
}

// RuleError locates a compile failure in the rule tree. Err is a
// *pattern.PatternError or an *UnknownGroupError.
type RuleError struct {
	Path string
	Err  error
}

func (e *RuleError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *RuleError) Unwrap() error { return e.Err }
