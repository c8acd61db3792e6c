package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/yndnr/starledger/internal/core/domain"
)

// Magic bytes identify encoded snapshots.
var magicBytes = []byte("SLGRSNAP")

const (
	checksumSize  = sha256.Size
	headerVersion = 1
	lenSize       = 4
)

// Codec errors.
var (
	ErrInvalidMagic       = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch   = errors.New("snapshot: checksum mismatch")
	ErrTruncated          = errors.New("snapshot: truncated data")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported header version")
)

// Header describes an encoded snapshot. It can be read without decoding
// the snapshot itself.
type Header struct {
	Version    int             `json:"version"`
	SessionID  string          `json:"session_id"`
	Date       domain.GameDate `json:"date"`
	Compressed bool            `json:"compressed"`
	CreatedAt  int64           `json:"created_at"`
	RawSize    int             `json:"raw_size"`
}

// Config configures a Codec.
type Config struct {
	// Compress enables zstd compression of the snapshot body.
	// Default: true
	Compress bool

	// Level is the zstd encoder level.
	// Default: zstd.SpeedDefault
	Level zstd.EncoderLevel
}

// DefaultConfig returns the default codec configuration.
func DefaultConfig() Config {
	return Config{
		Compress: true,
		Level:    zstd.SpeedDefault,
	}
}

// Codec encodes and decodes snapshots. It is safe for concurrent use.
type Codec struct {
	cfg Config
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("snapshot: create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("snapshot: create decoder: %w", err)
	}
	return &Codec{cfg: cfg, enc: enc, dec: dec}, nil
}

// Close releases the compression resources.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// Encode serializes snap.
func (c *Codec) Encode(snap *domain.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot: nil snapshot")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal: %w", err)
	}

	header := Header{
		Version:    headerVersion,
		SessionID:  snap.SessionID,
		Date:       snap.Date,
		Compressed: c.cfg.Compress,
		CreatedAt:  time.Now().UnixMilli(),
		RawSize:    len(raw),
	}
	data := raw
	if header.Compressed {
		data = c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(magicBytes) + 2*lenSize + len(headerJSON) + len(data) + checksumSize)
	buf.Write(magicBytes)
	writeBlock(&buf, headerJSON)
	writeBlock(&buf, data)

	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// Decode verifies and deserializes an encoded snapshot.
func (c *Codec) Decode(b []byte) (*domain.Snapshot, error) {
	header, data, err := split(b)
	if err != nil {
		return nil, err
	}
	if header.Compressed {
		data, err = c.dec.DecodeAll(data, make([]byte, 0, header.RawSize))
		if err != nil {
			return nil, fmt.Errorf("snapshot: decompress: %w", err)
		}
	}

	snap := &domain.Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return snap, nil
}

// ReadHeader verifies an encoded snapshot and returns its header only.
func ReadHeader(b []byte) (Header, error) {
	h, _, err := split(b)
	return h, err
}

func split(b []byte) (Header, []byte, error) {
	minSize := len(magicBytes) + 2*lenSize + checksumSize
	if len(b) < minSize {
		return Header{}, nil, ErrTruncated
	}
	if !bytes.Equal(b[:len(magicBytes)], magicBytes) {
		return Header{}, nil, ErrInvalidMagic
	}
	body, sum := b[:len(b)-checksumSize], b[len(b)-checksumSize:]
	if want := sha256.Sum256(body); !bytes.Equal(want[:], sum) {
		return Header{}, nil, ErrChecksumMismatch
	}

	rest := body[len(magicBytes):]
	headerJSON, rest, err := readBlock(rest)
	if err != nil {
		return Header{}, nil, err
	}
	data, rest, err := readBlock(rest)
	if err != nil {
		return Header{}, nil, err
	}
	if len(rest) != 0 {
		return Header{}, nil, fmt.Errorf("snapshot: %d trailing bytes", len(rest))
	}

	var h Header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return Header{}, nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if h.Version != headerVersion {
		return Header{}, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, data, nil
}

func writeBlock(buf *bytes.Buffer, data []byte) {
	var n [lenSize]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	buf.Write(n[:])
	buf.Write(data)
}

func readBlock(b []byte) (block, rest []byte, err error) {
	if len(b) < lenSize {
		return nil, nil, ErrTruncated
	}
	n := binary.BigEndian.Uint32(b[:lenSize])
	b = b[lenSize:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, ErrTruncated
	}
	return b[:n], b[n:], nil
}
