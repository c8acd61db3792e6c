// Package savefmt reads and writes the nested key-value text format used by
// game save documents.
//
// The format is a sequence of `key = value` pairs where a value is a bare
// word, a quoted string, or a brace-delimited block. A block holds either
// plain values (a sequence) or further pairs (a mapping):
//
//	date="2230.04.01"
//	country={
//	    0={ name="United Nations of Earth" flag={ colors={ "blue" "black" } } }
//	}
//
// Processing happens in two stages:
//
//   - Tokenizer: a lazy scanner producing Word, Quoted, Equals, OpenBlock
//     and CloseBlock tokens with line numbers.
//   - Parser: a non-recursive reducer building an immutable Value tree.
//     Keys repeated inside one mapping are folded into a single Sequence
//     entry in encounter order.
//
// Serialize renders a Value tree back to text such that parsing the output
// yields a structurally equal tree.
package savefmt
