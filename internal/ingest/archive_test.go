package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/starledger/internal/core/domain"
)

func TestArchiveReader_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s", "a.sav")
	writeArchive(t, path, map[string]string{
		MemberMeta:      `date="2200.01.01"`,
		MemberGamestate: `country={}`,
		"extra":         "ignored",
	})

	r := NewArchiveReader(1, 0, nil)
	got, err := r.Read(context.Background(), path, MemberMeta, MemberGamestate)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Read() returned %d members, want 2", len(got))
	}
	if string(got[MemberMeta]) != `date="2200.01.01"` {
		t.Errorf("meta = %q", got[MemberMeta])
	}
}

func TestArchiveReader_Errors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "s", "missing.sav")
	noMeta := filepath.Join(dir, "s", "nometa.sav")
	writeArchive(t, noMeta, map[string]string{MemberGamestate: "a=1"})
	garbage := filepath.Join(dir, "s", "garbage.sav")
	if err := os.WriteFile(garbage, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewArchiveReader(2, time.Millisecond, nil)
	for _, path := range []string{missing, noMeta, garbage} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := r.Read(context.Background(), path, MemberMeta)
			if !errors.Is(err, domain.ErrArchive) {
				t.Errorf("Read() error = %v, want ErrArchive", err)
			}
		})
	}
}

func TestArchiveReader_RetriesPartialArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s", "late.sav")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("PK\x03\x04partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The complete archive replaces the partial one while the reader
	// is retrying.
	complete := filepath.Join(dir, "complete.sav")
	writeArchive(t, complete, map[string]string{MemberMeta: `date="2200.01.01"`})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(30 * time.Millisecond)
		_ = os.Rename(complete, path)
	}()
	defer wg.Wait()

	r := NewArchiveReader(100, 10*time.Millisecond, nil)
	got, err := r.Read(context.Background(), path, MemberMeta)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if string(got[MemberMeta]) != `date="2200.01.01"` {
		t.Errorf("meta = %q", got[MemberMeta])
	}
}

func TestArchiveReader_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewArchiveReader(5, time.Hour, nil)
	start := time.Now()
	_, err := r.Read(ctx, filepath.Join(t.TempDir(), "none.sav"), MemberMeta)
	if !errors.Is(err, domain.ErrArchive) || !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want ErrArchive wrapping context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Read() kept retrying after cancellation")
	}
}
