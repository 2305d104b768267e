package stress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Algorithm selects how journal entries are compressed on disk.
type Algorithm int

const (
	// AlgorithmNone writes entries uncompressed
	AlgorithmNone Algorithm = iota
	// AlgorithmSnappy favors speed over ratio
	AlgorithmSnappy
	// AlgorithmZstd balances speed and ratio (default)
	AlgorithmZstd
	// AlgorithmGzip is the most portable choice
	AlgorithmGzip
)

// String returns the algorithm name as used in configuration.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmSnappy:
		return "snappy"
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmGzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// Ext returns the filename extension entries of this algorithm carry.
func (a Algorithm) Ext() string {
	switch a {
	case AlgorithmSnappy:
		return ".json.snappy"
	case AlgorithmZstd:
		return ".json.zst"
	case AlgorithmGzip:
		return ".json.gz"
	default:
		return ".json"
	}
}

// ParseAlgorithm maps a configuration name to an algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "zstd":
		return AlgorithmZstd, nil
	case "none":
		return AlgorithmNone, nil
	case "snappy":
		return AlgorithmSnappy, nil
	case "gzip":
		return AlgorithmGzip, nil
	default:
		return AlgorithmNone, fmt.Errorf("unknown compression algorithm %q", name)
	}
}

// Codec compresses and decompresses journal entries. A codec is safe for
// concurrent use; zstd coders are created once and shared, the others are
// stateless.
type Codec struct {
	algorithm Algorithm
	zstdEnc   *zstd.Encoder
	zstdDec   *zstd.Decoder
}

// NewCodec creates a codec for the given algorithm.
func NewCodec(algorithm Algorithm) (*Codec, error) {
	c := &Codec{algorithm: algorithm}

	if algorithm == AlgorithmZstd {
		var err error
		c.zstdEnc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		c.zstdDec, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}
	return c, nil
}

// Algorithm returns the algorithm this codec was created with.
func (c *Codec) Algorithm() Algorithm {
	return c.algorithm
}

// Encode compresses data. The returned slice is freshly allocated and never
// aliases the input.
func (c *Codec) Encode(data []byte) ([]byte, error) {
	switch c.algorithm {
	case AlgorithmNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil

	case AlgorithmSnappy:
		return snappy.Encode(nil, data), nil

	case AlgorithmZstd:
		return c.zstdEnc.EncodeAll(data, nil), nil

	case AlgorithmGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write gzip data: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %v", c.algorithm)
	}
}

// Decode decompresses data produced by Encode.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	switch c.algorithm {
	case AlgorithmNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil

	case AlgorithmSnappy:
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode snappy: %w", err)
		}
		return decoded, nil

	case AlgorithmZstd:
		decoded, err := c.zstdDec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode zstd: %w", err)
		}
		return decoded, nil

	case AlgorithmGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer r.Close()

		decoded, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzip data: %w", err)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %v", c.algorithm)
	}
}

// Close releases the zstd coders.
func (c *Codec) Close() error {
	if c.zstdEnc != nil {
		c.zstdEnc.Close()
	}
	if c.zstdDec != nil {
		c.zstdDec.Close()
	}
	return nil
}
