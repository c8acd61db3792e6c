package savefmt

import (
	"io"
	"iter"
	"strconv"
)

// frame is one open block on the parser stack.
type frame struct {
	line int // line of the opening brace; 0 for the root

	items    []Value
	mapping  mappingBuilder
	held     Token // scalar not yet known to be a key or a plain value
	hasHeld  bool
	key      string
	keyLine  int
	awaiting bool // a key and '=' have been read, the value is next
}

func (f *frame) hasValues() bool { return len(f.items) > 0 }
func (f *frame) hasPairs() bool  { return !f.mapping.empty() }

// flushHeld turns the held scalar into a plain value of the block.
func (f *frame) flushHeld() {
	if f.hasHeld {
		f.items = append(f.items, coerce(f.held))
		f.hasHeld = false
	}
}

// parser reduces a token stream into a Value without recursion.
type parser struct {
	stack []*frame
}

func newParser() *parser {
	return &parser{stack: []*frame{{}}}
}

func (p *parser) top() *frame { return p.stack[len(p.stack)-1] }

func (p *parser) feed(tok Token) error {
	f := p.top()
	switch tok.Kind {
	case TokenWord, TokenQuoted:
		if f.awaiting {
			f.mapping.add(f.key, coerce(tok))
			f.awaiting = false
			return nil
		}
		if err := p.flush(f); err != nil {
			return err
		}
		f.held, f.hasHeld = tok, true

	case TokenEquals:
		if f.awaiting {
			return parseErrorf(tok.Line, "unexpected '=' after key %q", f.key)
		}
		if !f.hasHeld {
			return parseErrorf(tok.Line, "'=' with no preceding key")
		}
		f.key, f.keyLine, f.awaiting = f.held.Unquote(), f.held.Line, true
		f.hasHeld = false

	case TokenOpenBlock:
		if err := p.flush(f); err != nil {
			return err
		}
		if len(p.stack) == 1 && !f.awaiting {
			return parseErrorf(tok.Line, "bare block at top level")
		}
		p.stack = append(p.stack, &frame{line: tok.Line})

	case TokenCloseBlock:
		if len(p.stack) == 1 {
			return parseErrorf(tok.Line, "unmatched '}'")
		}
		val, err := p.close(f)
		if err != nil {
			return err
		}
		p.stack = p.stack[:len(p.stack)-1]
		p.deliver(p.top(), val)

	default:
		return parseErrorf(tok.Line, "unexpected token %s", tok.Kind)
	}
	return nil
}

// flush moves a held scalar into the block's plain values. The root only
// holds key=value pairs, so a held scalar there is an error.
func (p *parser) flush(f *frame) error {
	if !f.hasHeld {
		return nil
	}
	if len(p.stack) == 1 {
		return parseErrorf(f.held.Line, "bare value %q at top level", f.held.Text)
	}
	f.flushHeld()
	return nil
}

// close classifies a finished block as a Sequence or a Mapping.
func (p *parser) close(f *frame) (Value, error) {
	if f.awaiting {
		return Value{}, parseErrorf(f.keyLine, "missing value after %q=", f.key)
	}
	f.flushHeld()
	switch {
	case f.hasValues() && f.hasPairs():
		return Value{}, parseErrorf(f.line, "block mixes plain values and key=value pairs")
	case f.hasPairs():
		return f.mapping.build(), nil
	default:
		return Value{kind: KindSequence, items: f.items}, nil
	}
}

func (p *parser) deliver(parent *frame, val Value) {
	if parent.awaiting {
		parent.mapping.add(parent.key, val)
		parent.awaiting = false
		return
	}
	parent.items = append(parent.items, val)
}

func (p *parser) finish() (Value, error) {
	if len(p.stack) > 1 {
		return Value{}, parseErrorf(p.top().line, "unclosed '{'")
	}
	root := p.stack[0]
	if root.awaiting {
		return Value{}, parseErrorf(root.keyLine, "missing value after %q=", root.key)
	}
	if root.hasHeld {
		return Value{}, parseErrorf(root.held.Line, "bare value %q at top level", root.held.Text)
	}
	return root.mapping.build(), nil
}

// Parse tokenizes and parses a whole document. The root is always a
// Mapping. Errors are *TokenizeError or *ParseError.
func Parse(src []byte, opts ...TokenizerOption) (Value, error) {
	t := NewTokenizer(src, opts...)
	p := newParser()
	for {
		tok, err := t.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Value{}, err
		}
		if err := p.feed(tok); err != nil {
			return Value{}, err
		}
	}
	return p.finish()
}

// ParseTokens parses an already tokenized document, such as the output
// of Tokens. The first error in the sequence is returned as is.
func ParseTokens(tokens iter.Seq2[Token, error]) (Value, error) {
	p := newParser()
	for tok, err := range tokens {
		if err != nil {
			return Value{}, err
		}
		if err := p.feed(tok); err != nil {
			return Value{}, err
		}
	}
	return p.finish()
}

// coerce converts a scalar token to a typed Value. Bare words that look
// like numbers or yes/no become Int, Float or Bool; anything ambiguous
// (leading zeros, out of range, dates) stays a String.
func coerce(tok Token) Value {
	if tok.Kind == TokenQuoted {
		return StringValue(tok.Unquote())
	}
	s := tok.Text
	switch s {
	case "yes":
		return BoolValue(true)
	case "no":
		return BoolValue(false)
	}
	switch numberShape(s) {
	case shapeInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(n)
		}
	case shapeFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return FloatValue(f)
		}
	}
	return StringValue(s)
}

type shape uint8

const (
	shapeNone shape = iota
	shapeInt
	shapeFloat
)

// numberShape matches -?D(.D+)? where D is a digit run without leading zeros.
func numberShape(s string) shape {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intLen := i - start
	if intLen == 0 || (intLen > 1 && s[start] == '0') {
		return shapeNone
	}
	if i == len(s) {
		return shapeInt
	}
	if s[i] != '.' {
		return shapeNone
	}
	i++
	frac := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == frac || i != len(s) {
		return shapeNone
	}
	return shapeFloat
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
