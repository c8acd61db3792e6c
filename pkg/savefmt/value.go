package savefmt

import (
	"iter"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds. The zero Value has KindInvalid and stands for "absent".
const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindSequence
	KindMapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// Entry is one key of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Value is a node of a parsed document tree.
//
// Values are immutable: accessors hand out copies or iterators, never the
// backing slices. A Value can be shared freely once built.
type Value struct {
	kind    Kind
	str     string
	num     int64
	flt     float64
	items   []Value
	entries []Entry
	index   map[string]int
}

// StringValue returns a String value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue returns an Int value.
func IntValue(n int64) Value { return Value{kind: KindInt, num: n} }

// FloatValue returns a Float value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, flt: f} }

// BoolValue returns a Bool value.
func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// SequenceOf returns a Sequence holding items in order.
func SequenceOf(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, items: cp}
}

// MappingOf returns a Mapping of the given entries. Repeated keys are
// folded exactly as the parser folds them.
func MappingOf(entries ...Entry) Value {
	var b mappingBuilder
	for _, e := range entries {
		b.add(e.Key, e.Value)
	}
	return b.build()
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds anything.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsScalar reports whether v is a String, Int, Float or Bool.
func (v Value) IsScalar() bool {
	return v.kind >= KindString && v.kind <= KindBool
}

// AsString returns the content of a String value.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInt returns the content of an Int value. Floats with an integral
// value are accepted as well.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.num, true
	case KindFloat:
		if v.flt == math.Trunc(v.flt) && math.Abs(v.flt) < 1<<62 {
			return int64(v.flt), true
		}
	}
	return 0, false
}

// AsFloat returns the numeric content of an Int or Float value.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.flt, true
	case KindInt:
		return float64(v.num), true
	}
	return 0, false
}

// AsBool returns the content of a Bool value.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.num == 1, true
}

// Text renders a scalar as the bare word it would be written as.
// Collections and the zero Value render as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return formatFloat(v.flt)
	case KindBool:
		if v.num == 1 {
			return "yes"
		}
		return "no"
	}
	return ""
}

// Len returns the number of items of a Sequence or entries of a Mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.entries)
	}
	return 0
}

// At returns the i-th item of a Sequence, or the zero Value.
func (v Value) At(i int) Value {
	if v.kind != KindSequence || i < 0 || i >= len(v.items) {
		return Value{}
	}
	return v.items[i]
}

// Values iterates over the items of a Sequence.
func (v Value) Values() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		if v.kind != KindSequence {
			return
		}
		for _, item := range v.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Elements returns the items of a Sequence as a new slice. A non-sequence
// value is returned as a one-element slice and the zero Value as nil, which
// lets callers treat "one occurrence" and "folded occurrences" alike.
func (v Value) Elements() []Value {
	switch v.kind {
	case KindInvalid:
		return nil
	case KindSequence:
		cp := make([]Value, len(v.items))
		copy(cp, v.items)
		return cp
	}
	return []Value{v}
}

// All iterates over the entries of a Mapping in first-occurrence order.
func (v Value) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if v.kind != KindMapping {
			return
		}
		for _, e := range v.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries of a Mapping.
func (v Value) Entries() []Entry {
	if v.kind != KindMapping {
		return nil
	}
	cp := make([]Entry, len(v.entries))
	copy(cp, v.entries)
	return cp
}

// Keys returns the keys of a Mapping in first-occurrence order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.Key
	}
	return keys
}

// Lookup returns the value stored under key in a Mapping.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	i, ok := v.index[key]
	if !ok {
		return Value{}, false
	}
	return v.entries[i].Value, true
}

// Get returns the value stored under key, or the zero Value. Get calls
// chain safely: root.Get("a").Get("b") is zero if any step is missing.
func (v Value) Get(key string) Value {
	val, _ := v.Lookup(key)
	return val
}

// Path follows keys through nested mappings.
func (v Value) Path(keys ...string) Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if !cur.IsValid() {
			return Value{}
		}
	}
	return cur
}

// Equal reports whether v and other are structurally equal. Mapping
// entries are compared in order. An empty Mapping equals an empty
// Sequence because both are written as {}.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return isEmptyCollection(v) && isEmptyCollection(other)
	}
	switch v.kind {
	case KindInvalid:
		return true
	case KindString:
		return v.str == other.str
	case KindInt, KindBool:
		return v.num == other.num
	case KindFloat:
		return v.flt == other.flt
	case KindSequence:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.entries) != len(other.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != other.entries[i].Key || !v.entries[i].Value.Equal(other.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v on one line, for debugging and test failure output.
func (v Value) String() string {
	var b strings.Builder
	writeCompact(&b, v)
	return b.String()
}

func writeCompact(b *strings.Builder, v Value) {
	switch v.kind {
	case KindInvalid:
		b.WriteString("<invalid>")
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindSequence:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeCompact(b, item)
		}
		b.WriteByte(']')
	case KindMapping:
		b.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Key)
			b.WriteString(": ")
			writeCompact(b, e.Value)
		}
		b.WriteByte('}')
	default:
		b.WriteString(v.Text())
	}
}

func isEmptyCollection(v Value) bool {
	return (v.kind == KindSequence || v.kind == KindMapping) && v.Len() == 0
}

// mappingBuilder accumulates entries of one mapping and folds repeated keys.
type mappingBuilder struct {
	entries []Entry
	index   map[string]int
	folds   map[int][]Value
}

func (b *mappingBuilder) add(key string, val Value) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	i, ok := b.index[key]
	if !ok {
		b.index[key] = len(b.entries)
		b.entries = append(b.entries, Entry{Key: key, Value: val})
		return
	}
	// Only a Sequence created by folding is appended to. A value that was
	// already a Sequence in the source becomes the first fold element.
	if b.folds == nil {
		b.folds = make(map[int][]Value)
	}
	items, ok := b.folds[i]
	if !ok {
		items = []Value{b.entries[i].Value}
	}
	b.folds[i] = append(items, val)
}

func (b *mappingBuilder) empty() bool { return len(b.entries) == 0 }

func (b *mappingBuilder) build() Value {
	for i, items := range b.folds {
		b.entries[i].Value = Value{kind: KindSequence, items: items}
	}
	index := b.index
	if index == nil {
		index = map[string]int{}
	}
	return Value{kind: KindMapping, entries: b.entries, index: index}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
