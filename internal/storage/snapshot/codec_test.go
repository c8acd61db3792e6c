package snapshot

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/starledger/internal/core/domain"
)

func testSnapshot() *domain.Snapshot {
	s := domain.NewSnapshot("campaign_1", domain.NewGameDate(2241, 3, 17))
	s.GameName = "United Nations of Earth"
	s.PlayerCountry = domain.Ref{ID: 0, Resolved: true}
	s.Countries[0] = &domain.Country{
		ID: 0, Name: "United Nations of Earth", Civics: []string{"civic_a"},
		Ruler: domain.NoRef(), Capital: domain.Ref{ID: 4, Resolved: true},
		Economy: domain.Economy{Net: map[string]float64{"energy": 12.5}},
	}
	s.Planets[4] = &domain.Planet{ID: 4, Name: "Earth", System: domain.NoRef(), Owner: domain.Ref{ID: 0, Resolved: true}, Controller: domain.Ref{ID: 0, Resolved: true}}
	s.Warnings = []domain.ExtractionWarning{{Kind: domain.WarningUnresolvedReference, Entity: "fleet", ID: 9, Field: "owner"}}
	return s
}

func newCodec(t *testing.T, compress bool) *Codec {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Compress = compress
	c, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec() error: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, compress := range []bool{true, false} {
		c := newCodec(t, compress)
		want := testSnapshot()

		b, err := c.Encode(want)
		if err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("Decode() error: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("compress=%v round trip mismatch (-want +got):\n%s", compress, diff)
		}

		h, err := ReadHeader(b)
		if err != nil {
			t.Fatalf("ReadHeader() error: %v", err)
		}
		if h.SessionID != "campaign_1" || h.Date != want.Date || h.Compressed != compress || h.Version != headerVersion {
			t.Errorf("header = %+v", h)
		}
	}
}

func TestCodec_Corruption(t *testing.T) {
	c := newCodec(t, true)
	b, err := c.Encode(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"flipped body byte", func(b []byte) []byte { b[20] ^= 0xff; return b }, ErrChecksumMismatch},
		{"flipped checksum", func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }, ErrChecksumMismatch},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrInvalidMagic},
		{"truncated", func(b []byte) []byte { return b[:10] }, ErrTruncated},
		{"empty", func([]byte) []byte { return nil }, ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := append([]byte(nil), b...)
			_, err := c.Decode(tt.mutate(cp))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCodec_EncodeNil(t *testing.T) {
	if _, err := newCodec(t, true).Encode(nil); err == nil {
		t.Error("Encode(nil) error = nil")
	}
}
