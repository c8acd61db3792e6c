package domain

import (
	"encoding/json"
	"testing"
)

func TestParseGameDate(t *testing.T) {
	tests := []struct {
		in      string
		want    GameDate
		wantErr bool
	}{
		{"2200.01.01", 0, false},
		{"2200.02.01", 30, false},
		{"2201.01.01", 360, false},
		{"2230.04.15", 30*360 + 3*30 + 14, false},
		{"2199.12.30", -1, false},
		{"2200.1.1", 0, false},
		{"2200.13.01", 0, true},
		{"2200.01.31", 0, true},
		{"2200.01", 0, true},
		{"abc.01.01", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGameDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGameDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseGameDate(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestGameDate_String(t *testing.T) {
	for _, s := range []string{"2200.01.01", "2230.04.15", "2199.12.30", "2450.12.30", "0001.06.07"} {
		d, err := ParseGameDate(s)
		if err != nil {
			t.Fatalf("ParseGameDate(%q): %v", s, err)
		}
		if d.String() != s {
			t.Errorf("ParseGameDate(%q).String() = %q", s, d.String())
		}
	}
}

func TestGameDate_JSON(t *testing.T) {
	type wrapper struct {
		Date GameDate `json:"date"`
	}
	in := wrapper{Date: NewGameDate(2231, 7, 20)}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(b) != `{"date":"2231.07.20"}` {
		t.Errorf("Marshal() = %s", b)
	}
	var out wrapper
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %v, want %v", out, in)
	}
}
