package savefmt

import "fmt"

// TokenizeError reports malformed quoting.
type TokenizeError struct {
	// Line is the line where the offending quoted string starts.
	Line int
	Msg  string
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("savefmt: tokenize: line %d: %s", e.Line, e.Msg)
}

// ParseError reports a grammar violation.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("savefmt: parse: line %d: %s", e.Line, e.Msg)
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
