// Package sessionstore provides in-memory and Redis implementations of session.Store.
package sessionstore

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"nedlog/internal/domain/session"
)

// Compression marks how a stored payload is encoded.
type Compression byte

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
)

// DefaultCompressThreshold is the payload size above which zstd is used.
const DefaultCompressThreshold = 4 * 1024

// Codec serializes sessions to JSON, zstd-compressing large payloads.
// The first byte of an encoded value is its Compression marker.
type Codec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewCodec creates a codec. threshold <= 0 disables compression.
func NewCodec(threshold int) (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// Encode serializes a session.
func (c *Codec) Encode(s *session.Session) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if c.threshold > 0 && len(raw) > c.threshold {
		out := make([]byte, 1, len(raw)/3+1)
		out[0] = byte(CompressionZstd)
		return c.encoder.EncodeAll(raw, out), nil
	}
	out := make([]byte, 0, len(raw)+1)
	out = append(out, byte(CompressionNone))
	return append(out, raw...), nil
}

// Decode restores a session produced by Encode.
func (c *Codec) Decode(data []byte) (*session.Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode session: empty payload")
	}

	raw := data[1:]
	switch Compression(data[0]) {
	case CompressionNone:
	case CompressionZstd:
		var err error
		raw, err = c.decoder.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress session: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode session: unknown compression %d", data[0])
	}

	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}
