package pattern

import "fmt"

// PatternError reports a pattern whose structure cannot be rewritten or
// compiled. Offset is a byte offset into Pattern, or -1 when the error comes
// from the regex engine and has no position.
type PatternError struct {
	Pattern   string
	Offset    int
	Construct string
	Reason    string
	Err       error
}

func (e *PatternError) Error() string {
	msg := "pattern " + fmt.Sprintf("%q", e.Pattern) + ": " + e.Reason
	if e.Construct != "" {
		msg += fmt.Sprintf(" %q", e.Construct)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PatternError) Unwrap() error { return e.Err }

// structural errors are raised below the normalizer with offsets relative to
// the fragment being scanned; the normalizer rebases them.
type scanError struct {
	offset    int
	construct string
	reason    string
}

func (e *scanError) Error() string {
	return fmt.Sprintf("%s %q at %d", e.reason, e.construct, e.offset)
}

func unbalanced(offset int, construct string) error {
	return &scanError{offset: offset, construct: construct, reason: "unbalanced"}
}
