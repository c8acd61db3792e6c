package savefmt

import (
	"bytes"
	"testing"
)

func TestSerialize_RoundTrip(t *testing.T) {
	docs := []string{
		sampleDocument,
		`a={b=1 b=2 c="x y"}`,
		"a={1 2} a={3} a={}",
		`k="" "" = "007" n="-3" f=1.50 w=2200.01.01 q="a=b{c}"`,
		"nested={ { { 1 } } { x=y } }",
	}

	for _, doc := range docs {
		first := mustParse(t, doc)
		out := Serialize(first)
		second, err := Parse(out)
		if err != nil {
			t.Fatalf("Parse(Serialize()) error: %v\n%s", err, out)
		}
		if !second.Equal(first) {
			t.Errorf("round trip changed tree\nfirst:  %v\nsecond: %v\ntext:\n%s", first, second, out)
		}
		if again := Serialize(second); !bytes.Equal(again, out) {
			t.Errorf("Serialize() not stable:\n%s\n---\n%s", out, again)
		}
	}
}

func TestSerialize_Scalars(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"plain string", StringValue("abc"), "k=abc\n"},
		{"string that looks like bool", StringValue("yes"), "k=\"yes\"\n"},
		{"string that looks like int", StringValue("42"), "k=\"42\"\n"},
		{"string with space", StringValue("x y"), "k=\"x y\"\n"},
		{"string with quote", StringValue(`a"b`), "k=\"a\\\"b\"\n"},
		{"empty string", StringValue(""), "k=\"\"\n"},
		{"date string stays bare", StringValue("2230.04.01"), "k=2230.04.01\n"},
		{"int", IntValue(-7), "k=-7\n"},
		{"integral float", FloatValue(3), "k=3.0\n"},
		{"float", FloatValue(0.125), "k=0.125\n"},
		{"bool", BoolValue(false), "k=no\n"},
		{"flat sequence", SequenceOf(IntValue(1), StringValue("b")), "k={ 1 b }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Serialize(MappingOf(Entry{Key: "k", Value: tt.v})))
			if got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialize_NestedLayout(t *testing.T) {
	v := MappingOf(Entry{Key: "a", Value: MappingOf(
		Entry{Key: "b", Value: IntValue(1)},
		Entry{Key: "c", Value: SequenceOf(MappingOf(Entry{Key: "d", Value: BoolValue(true)}))},
	)})
	want := "a={\n\tb=1\n\tc={\n\t\t{\n\t\t\td=yes\n\t\t}\n\t}\n}\n"
	if got := string(Serialize(v)); got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}
