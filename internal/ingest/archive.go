package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/yndnr/starledger/internal/core/domain"
)

// Archive member names.
const (
	MemberGamestate = "gamestate"
	MemberMeta      = "meta"
)

// maxMemberSize bounds a decompressed member.
const maxMemberSize = 1 << 30

// ArchiveReader reads members of save archives. The game writes archives
// in place, so a read can see a partial file; failed reads are retried.
type ArchiveReader struct {
	attempts int
	delay    time.Duration
	logger   *slog.Logger
}

// NewArchiveReader creates a reader making up to attempts reads, delay
// apart.
func NewArchiveReader(attempts int, delay time.Duration, logger *slog.Logger) *ArchiveReader {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveReader{attempts: attempts, delay: delay, logger: logger}
}

// Read returns the named members of the archive at path. Every member
// must be present.
//
// Errors:
//   - ErrArchive: the archive could not be read after all attempts
func (r *ArchiveReader) Read(ctx context.Context, path string, members ...string) (map[string][]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		out, err := readMembers(path, members)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == r.attempts {
			break
		}
		r.logger.Debug("archive not readable, retrying",
			"path", path,
			"attempt", attempt,
			"error", err)
		select {
		case <-ctx.Done():
			return nil, domain.ErrArchive.WithDetails(path).WithCause(ctx.Err())
		case <-time.After(r.delay):
		}
	}
	return nil, domain.ErrArchive.WithDetailsf("%s after %d attempts", path, r.attempts).WithCause(lastErr)
}

func readMembers(path string, members []string) (map[string][]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	want := make(map[string]bool, len(members))
	for _, m := range members {
		want[m] = true
	}
	out := make(map[string][]byte, len(members))
	for _, f := range zr.File {
		if !want[f.Name] {
			continue
		}
		data, err := readMember(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		out[f.Name] = data
	}
	for _, m := range members {
		if _, ok := out[m]; !ok {
			return nil, fmt.Errorf("member %q not found", m)
		}
	}
	return out, nil
}

var errMemberTooLarge = errors.New("member exceeds size limit")

func readMember(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxMemberSize {
		return nil, errMemberTooLarge
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxMemberSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxMemberSize {
		return nil, errMemberTooLarge
	}
	return data, nil
}
