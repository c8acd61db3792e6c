package output

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestProgressBar_KnownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf, "restore")
	p.SetTotal(2048)

	if _, err := io.Copy(p, strings.NewReader(strings.Repeat("x", 1024))); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), " 50% (1.0 KB/2.0 KB)") {
		t.Errorf("half-way output = %q", buf.String())
	}

	p.Finish()
	out := buf.String()
	if !strings.Contains(out, "100% (2.0 KB/2.0 KB)") || !strings.HasSuffix(out, "\n") {
		t.Errorf("final output = %q", out)
	}
}

func TestProgressBar_UnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf, "backup")
	p.Increment(10)
	p.Finish()
	if !strings.Contains(buf.String(), "backup 10 B") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KB",
		1536:    "1.5 KB",
		5 << 20: "5.0 MB",
		3 << 30: "3.0 GB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
