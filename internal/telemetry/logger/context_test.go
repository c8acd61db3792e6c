package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() without logger returned nil")
	}

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	FromContext(WithLogger(context.Background(), l)).Info("from context")
	if buf.Len() == 0 {
		t.Error("logger from context wrote nothing")
	}
}

func TestL_AddsSessionAndFile(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithLogger(context.Background(), l)
	ctx = WithSession(ctx, "unitednationsofearth_-1234")
	ctx = WithFile(ctx, "/tmp/2230.01.01.sav")

	if SessionFromContext(ctx) != "unitednationsofearth_-1234" {
		t.Errorf("SessionFromContext() = %q", SessionFromContext(ctx))
	}
	L(ctx).Info("parsed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["session"] != "unitednationsofearth_-1234" || entry["file"] != "/tmp/2230.01.01.sav" {
		t.Errorf("entry = %v", entry)
	}
	if FileFromContext(context.Background()) != "" {
		t.Error("FileFromContext() on empty context should be empty")
	}
}
