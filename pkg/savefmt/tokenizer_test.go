package savefmt

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func collect(t *testing.T, src string, opts ...TokenizerOption) []Token {
	t.Helper()
	var out []Token
	for tok, err := range Tokens([]byte(src), opts...) {
		if err != nil {
			t.Fatalf("Tokens(%q) error: %v", src, err)
		}
		out = append(out, tok)
	}
	return out
}

func TestTokenizer_Basic(t *testing.T) {
	got := collect(t, "a={b=1 c=\"x y\"}")
	want := []Token{
		{Kind: TokenWord, Text: "a", Line: 1},
		{Kind: TokenEquals, Text: "=", Line: 1},
		{Kind: TokenOpenBlock, Text: "{", Line: 1},
		{Kind: TokenWord, Text: "b", Line: 1},
		{Kind: TokenEquals, Text: "=", Line: 1},
		{Kind: TokenWord, Text: "1", Line: 1},
		{Kind: TokenWord, Text: "c", Line: 1},
		{Kind: TokenEquals, Text: "=", Line: 1},
		{Kind: TokenQuoted, Text: `"x y"`, Line: 1},
		{Kind: TokenCloseBlock, Text: "}", Line: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizer_Rules(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Token
	}{
		{
			name: "quote ends a word",
			src:  `abc"def"`,
			want: []Token{
				{Kind: TokenWord, Text: "abc", Line: 1},
				{Kind: TokenQuoted, Text: `"def"`, Line: 1},
			},
		},
		{
			name: "escaped quote stays inside the string",
			src:  `"a\"b" c`,
			want: []Token{
				{Kind: TokenQuoted, Text: `"a\"b"`, Line: 1},
				{Kind: TokenWord, Text: "c", Line: 1},
			},
		},
		{
			name: "escaped quote inside a word",
			src:  `a\"b`,
			want: []Token{
				{Kind: TokenWord, Text: `a\"b`, Line: 1},
			},
		},
		{
			name: "punctuation splits words",
			src:  "x}y{z=w",
			want: []Token{
				{Kind: TokenWord, Text: "x", Line: 1},
				{Kind: TokenCloseBlock, Text: "}", Line: 1},
				{Kind: TokenWord, Text: "y", Line: 1},
				{Kind: TokenOpenBlock, Text: "{", Line: 1},
				{Kind: TokenWord, Text: "z", Line: 1},
				{Kind: TokenEquals, Text: "=", Line: 1},
				{Kind: TokenWord, Text: "w", Line: 1},
			},
		},
		{
			name: "line numbers",
			src:  "a=1\n\tb=2\r\n\"multi\nline\" c",
			want: []Token{
				{Kind: TokenWord, Text: "a", Line: 1},
				{Kind: TokenEquals, Text: "=", Line: 1},
				{Kind: TokenWord, Text: "1", Line: 1},
				{Kind: TokenWord, Text: "b", Line: 2},
				{Kind: TokenEquals, Text: "=", Line: 2},
				{Kind: TokenWord, Text: "2", Line: 2},
				{Kind: TokenQuoted, Text: "\"multi\nline\"", Line: 3},
				{Kind: TokenWord, Text: "c", Line: 4},
			},
		},
		{
			name: "trailing word is flushed",
			src:  "  end",
			want: []Token{
				{Kind: TokenWord, Text: "end", Line: 1},
			},
		},
		{
			name: "empty input",
			src:  " \n\t ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenizer_Reconstruction(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a = { b=\"x y\" c = 2 }\n d=yes", `a={b="x y"c=2}d=yes`},
		{"flag={\n\tcolors={ \"blue\" \"black\" }\n}", `flag={colors={"blue""black"}}`},
		{"name=\"say \\\"hi\\\"\"", `name="say \"hi\""`},
		{"list={ 1 2\t3 }", "list={123}"},
	}

	for _, tt := range tests {
		var b strings.Builder
		for _, tok := range collect(t, tt.src) {
			b.WriteString(tok.Text)
		}
		if b.String() != tt.want {
			t.Errorf("reconstruct(%q) = %q, want %q", tt.src, b.String(), tt.want)
		}
	}
}

func TestTokenizer_UnterminatedQuote(t *testing.T) {
	src := "a=1\nb=\"oops\nmore"

	t.Run("strict", func(t *testing.T) {
		tok := NewTokenizer([]byte(src))
		var err error
		for err == nil {
			_, err = tok.Next()
		}
		var te *TokenizeError
		if !errors.As(err, &te) {
			t.Fatalf("error = %v, want *TokenizeError", err)
		}
		if te.Line != 2 {
			t.Errorf("TokenizeError.Line = %d, want 2", te.Line)
		}
	})

	t.Run("lenient", func(t *testing.T) {
		got := collect(t, src, WithLenientQuotes())
		last := got[len(got)-1]
		want := Token{Kind: TokenQuoted, Text: "\"oops\nmore", Line: 2}
		if last != want {
			t.Errorf("last token = %v, want %v", last, want)
		}
		if u := last.Unquote(); u != "oops\nmore" {
			t.Errorf("Unquote() = %q, want %q", u, "oops\nmore")
		}
	})
}

func TestTokenizer_EOF(t *testing.T) {
	tok := NewTokenizer([]byte("x"))
	if _, err := tok.Next(); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := tok.Next(); err != io.EOF {
			t.Errorf("Next() after end = %v, want io.EOF", err)
		}
	}
}

func TestTokens_StopsAfterError(t *testing.T) {
	var n, errs int
	for _, err := range Tokens([]byte(`a "b`)) {
		n++
		if err != nil {
			errs++
		}
	}
	if n != 2 || errs != 1 {
		t.Errorf("yielded %d items with %d errors, want 2 and 1", n, errs)
	}
}

func TestToken_Unquote(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{Token{Kind: TokenQuoted, Text: `"plain"`}, "plain"},
		{Token{Kind: TokenQuoted, Text: `""`}, ""},
		{Token{Kind: TokenQuoted, Text: `"a\"b"`}, `a"b`},
		{Token{Kind: TokenQuoted, Text: `"back\\"`}, `back\`},
		{Token{Kind: TokenQuoted, Text: `"keep\n"`}, `keep\n`},
		{Token{Kind: TokenWord, Text: `raw\"`}, `raw\"`},
	}
	for _, tt := range tests {
		if got := tt.tok.Unquote(); got != tt.want {
			t.Errorf("Unquote(%s) = %q, want %q", tt.tok.Text, got, tt.want)
		}
	}
}
