package savefmt

import (
	"io"
	"iter"
)

type scanState uint8

const (
	stateNormal scanState = iota
	stateWord
	stateQuoted
)

// Tokenizer scans a save document into tokens on demand.
//
// A Tokenizer is not safe for concurrent use. Each document gets its own.
type Tokenizer struct {
	src     []byte
	pos     int
	line    int
	lenient bool

	state     scanState
	start     int
	startLine int
	escaped   bool
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithLenientQuotes makes an unterminated quoted string at end of input
// yield the remaining text as a single Quoted token instead of failing.
func WithLenientQuotes() TokenizerOption {
	return func(t *Tokenizer) {
		t.lenient = true
	}
}

// NewTokenizer creates a tokenizer over src.
func NewTokenizer(src []byte, opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{
		src:  src,
		line: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Line returns the current line number.
func (t *Tokenizer) Line() int {
	return t.line
}

// Next returns the next token, or io.EOF once the input is exhausted.
// An unterminated quoted string yields a *TokenizeError unless the
// tokenizer is lenient.
func (t *Tokenizer) Next() (Token, error) {
	for t.pos < len(t.src) {
		c := t.src[t.pos]

		switch t.state {
		case stateQuoted:
			t.pos++
			switch {
			case t.escaped:
				t.escaped = false
			case c == '\\':
				t.escaped = true
			case c == '"':
				t.state = stateNormal
				return t.emit(TokenQuoted, t.start, t.pos, t.startLine), nil
			}
			if c == '\n' {
				t.line++
			}

		case stateWord:
			switch {
			case t.escaped:
				t.escaped = false
				t.pos++
			case c == '\\':
				t.escaped = true
				t.pos++
			case isSpace(c), c == '{', c == '}', c == '=', c == '"':
				// Flush the word; the terminator is handled in normal state.
				t.state = stateNormal
				return t.emit(TokenWord, t.start, t.pos, t.startLine), nil
			default:
				t.pos++
			}

		default:
			switch {
			case c == '\n':
				t.line++
				t.pos++
			case isSpace(c):
				t.pos++
			case c == '{':
				t.pos++
				return t.emit(TokenOpenBlock, t.pos-1, t.pos, t.line), nil
			case c == '}':
				t.pos++
				return t.emit(TokenCloseBlock, t.pos-1, t.pos, t.line), nil
			case c == '=':
				t.pos++
				return t.emit(TokenEquals, t.pos-1, t.pos, t.line), nil
			case c == '"':
				t.state = stateQuoted
				t.start, t.startLine = t.pos, t.line
				t.pos++
			default:
				t.state = stateWord
				t.start, t.startLine = t.pos, t.line
				t.escaped = c == '\\'
				t.pos++
			}
		}
	}

	// End of input: flush whatever is in progress.
	switch t.state {
	case stateWord:
		t.state = stateNormal
		return t.emit(TokenWord, t.start, len(t.src), t.startLine), nil
	case stateQuoted:
		t.state = stateNormal
		if t.lenient {
			return t.emit(TokenQuoted, t.start, len(t.src), t.startLine), nil
		}
		return Token{}, &TokenizeError{Line: t.startLine, Msg: "unterminated quoted string"}
	}
	return Token{}, io.EOF
}

func (t *Tokenizer) emit(kind TokenKind, from, to, line int) Token {
	return Token{Kind: kind, Text: string(t.src[from:to]), Line: line}
}

// Tokens returns the token stream of src as an iterator. Iteration stops
// after the first error, which is yielded with a zero Token.
func Tokens(src []byte, opts ...TokenizerOption) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		t := NewTokenizer(src, opts...)
		for {
			tok, err := t.Next()
			if err == io.EOF {
				return
			}
			if !yield(tok, err) || err != nil {
				return
			}
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
