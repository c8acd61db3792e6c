package savefmt

import (
	"fmt"
	"strings"
)

// TokenKind classifies a lexical token.
type TokenKind uint8

// Token kinds.
const (
	TokenWord TokenKind = iota + 1
	TokenQuoted
	TokenEquals
	TokenOpenBlock
	TokenCloseBlock
)

// String returns the token kind name.
func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "word"
	case TokenQuoted:
		return "quoted"
	case TokenEquals:
		return "'='"
	case TokenOpenBlock:
		return "'{'"
	case TokenCloseBlock:
		return "'}'"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of a save document.
//
// Text is the exact source slice. Quoted tokens keep their surrounding
// quotes and escape sequences; use Unquote to get the string content.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

// IsScalar reports whether the token can stand as a plain value or a key.
func (t Token) IsScalar() bool {
	return t.Kind == TokenWord || t.Kind == TokenQuoted
}

// Unquote returns the token content with outer quotes removed and
// backslash escapes resolved. Word tokens are returned unchanged.
func (t Token) Unquote() string {
	if t.Kind != TokenQuoted {
		return t.Text
	}
	s := t.Text
	if len(s) > 0 && s[0] == '"' {
		s = s[1:]
	}
	if len(s) > 0 && s[len(s)-1] == '"' && !escapedAt(s, len(s)-1) {
		s = s[:len(s)-1]
	}
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q (line %d)", t.Kind, t.Text, t.Line)
}

// escapedAt reports whether s[i] is preceded by an odd number of backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
