package stress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCodec_RoundTrip(t *testing.T) {
	algorithms := []Algorithm{AlgorithmNone, AlgorithmSnappy, AlgorithmZstd, AlgorithmGzip}
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 100))

	for _, algorithm := range algorithms {
		t.Run(algorithm.String(), func(t *testing.T) {
			codec, err := NewCodec(algorithm)
			if err != nil {
				t.Fatalf("Failed to create codec: %v", err)
			}
			defer codec.Close()

			encoded, err := codec.Encode(data)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}

			if algorithm != AlgorithmNone && len(encoded) >= len(data) {
				t.Errorf("Expected repeating data to shrink, got %d -> %d bytes", len(data), len(encoded))
			}

			decoded, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if !bytes.Equal(decoded, data) {
				t.Error("Decoded data doesn't match original")
			}
		})
	}
}

func TestCodec_EncodeDoesNotAlias(t *testing.T) {
	codec, err := NewCodec(AlgorithmNone)
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}
	defer codec.Close()

	data := []byte("original")
	encoded, err := codec.Encode(data)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	data[0] = 'X'
	if encoded[0] == 'X' {
		t.Error("Expected encoded output to be independent of the input buffer")
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name     string
		expected Algorithm
	}{
		{"none", AlgorithmNone},
		{"snappy", AlgorithmSnappy},
		{"zstd", AlgorithmZstd},
		{"gzip", AlgorithmGzip},
		{"", AlgorithmZstd},
	}

	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.name)
		if err != nil {
			t.Errorf("Failed to parse %q: %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Expected %v for %q, got %v", tt.expected, tt.name, got)
		}
	}

	if _, err := ParseAlgorithm("lz4"); err == nil {
		t.Error("Expected error for unknown algorithm")
	}
}

func TestAlgorithm_Ext(t *testing.T) {
	tests := []struct {
		algorithm Algorithm
		expected  string
	}{
		{AlgorithmNone, ".json"},
		{AlgorithmSnappy, ".json.snappy"},
		{AlgorithmZstd, ".json.zst"},
		{AlgorithmGzip, ".json.gz"},
	}

	for _, tt := range tests {
		if got := tt.algorithm.Ext(); got != tt.expected {
			t.Errorf("Expected %s for %v, got %s", tt.expected, tt.algorithm, got)
		}
	}
}
