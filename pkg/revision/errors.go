package revision

import "fmt"

// SyntaxError reports a malformed revision expression: bad suffix
// digits, an unterminated ^{...}/@{...} bracket, or an empty base.
type SyntaxError struct {
	Input  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("revision %q: %s", e.Input, e.Reason)
}

// IncorrectTypeError reports that ^{type} could not peel the resolved
// object to the requested type.
type IncorrectTypeError struct {
	Input    string
	Expected string
}

func (e *IncorrectTypeError) Error() string {
	return fmt.Sprintf("revision %q: could not peel to type %q", e.Input, e.Expected)
}
