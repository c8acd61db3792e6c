package savefmt

import (
	"bytes"
	"strings"
)

// Serialize renders v as an indented document. A Mapping root is written
// without braces, so Parse(Serialize(v)) is structurally equal to v for
// any tree Parse can produce.
func Serialize(v Value) []byte {
	var buf bytes.Buffer
	w := &writer{buf: &buf}
	if v.kind == KindMapping {
		for _, e := range v.entries {
			w.entry(e, 0)
		}
	} else {
		w.value(v, 0)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

type writer struct {
	buf *bytes.Buffer
}

func (w *writer) indent(depth int) {
	for range depth {
		w.buf.WriteByte('\t')
	}
}

func (w *writer) entry(e Entry, depth int) {
	w.indent(depth)
	w.buf.WriteString(quoteKey(e.Key))
	w.buf.WriteByte('=')
	w.value(e.Value, depth)
	w.buf.WriteByte('\n')
}

func (w *writer) value(v Value, depth int) {
	switch v.kind {
	case KindString:
		w.buf.WriteString(quoteString(v.str))
	case KindInt, KindFloat, KindBool:
		w.buf.WriteString(v.Text())
	case KindMapping:
		if len(v.entries) == 0 {
			w.buf.WriteString("{}")
			return
		}
		w.buf.WriteString("{\n")
		for _, e := range v.entries {
			w.entry(e, depth+1)
		}
		w.indent(depth)
		w.buf.WriteByte('}')
	case KindSequence:
		w.sequence(v, depth)
	default:
		// The zero Value has no textual form; an empty block is the
		// closest thing that still parses.
		w.buf.WriteString("{}")
	}
}

func (w *writer) sequence(v Value, depth int) {
	flat := true
	for _, item := range v.items {
		if !item.IsScalar() {
			flat = false
			break
		}
	}
	if flat {
		w.buf.WriteByte('{')
		for _, item := range v.items {
			w.buf.WriteByte(' ')
			w.value(item, depth)
		}
		w.buf.WriteString(" }")
		return
	}
	w.buf.WriteString("{\n")
	for _, item := range v.items {
		w.indent(depth + 1)
		w.value(item, depth+1)
		w.buf.WriteByte('\n')
	}
	w.indent(depth)
	w.buf.WriteByte('}')
}

// quoteString writes s bare only when it would read back as the same String.
func quoteString(s string) string {
	if s == "yes" || s == "no" || numberShape(s) != shapeNone || needsQuotes(s) {
		return quote(s)
	}
	return s
}

func quoteKey(k string) string {
	if needsQuotes(k) {
		return quote(k)
	}
	return k
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, " \t\r\n{}=\"\\")
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
