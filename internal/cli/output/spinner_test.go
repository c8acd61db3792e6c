package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner(t *testing.T) {
	tests := []struct {
		name string
		end  func(s *Spinner)
		want string
	}{
		{"stop", func(s *Spinner) { s.Stop() }, "\r\033[K"},
		{"success", func(s *Spinner) { s.Success("done") }, "✓ done\n"},
		{"fail", func(s *Spinner) { s.Fail("broken") }, "✗ broken\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf syncBuffer
			s := NewSpinner(&buf, "reparsing")
			s.Start()
			time.Sleep(20 * time.Millisecond)
			tt.end(s)

			out := buf.String()
			if !strings.Contains(out, "reparsing") {
				t.Errorf("no frame written: %q", out)
			}
			if !strings.HasSuffix(out, tt.want) {
				t.Errorf("output = %q, want suffix %q", out, tt.want)
			}
			// Nothing is written after the spinner ends.
			time.Sleep(150 * time.Millisecond)
			if buf.String() != out {
				t.Error("spinner wrote after it ended")
			}
		})
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "idle")
	s.Stop()
	s.Stop()
	if buf.String() != "\r\033[K\r\033[K" {
		t.Errorf("output = %q", buf.String())
	}
}
