/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package storage

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names a codec applied to published objects
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// CompressionNames lists the accepted compression names
func CompressionNames() []string {
	return []string{string(CompressionNone), string(CompressionGzip), string(CompressionZstd), string(CompressionLZ4)}
}

// ParseCompression validates a compression name. The empty string means none.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(name)); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd, CompressionLZ4:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported compression %q, expected one of %s", name, strings.Join(CompressionNames(), ", "))
	}
}

// Compressor provides compression and decompression functionality
type Compressor interface {
	// Compress returns a writer that compresses data written to it
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress returns a reader that decompresses data read from it
	Decompress(r io.Reader) (io.ReadCloser, error)

	// Extension is appended to object names, including the leading dot
	Extension() string
}

// NewCompressor returns the codec for c
func NewCompressor(c Compression) (Compressor, error) {
	switch c {
	case "", CompressionNone:
		return noopCompressor{}, nil
	case CompressionGzip:
		return gzipCompressor{}, nil
	case CompressionZstd:
		return zstdCompressor{}, nil
	case CompressionLZ4:
		return lz4Compressor{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

// CompressorForPath picks the codec from the object extension, falling back to
// no compression.
func CompressorForPath(objectPath string) Compressor {
	for _, c := range []Compressor{gzipCompressor{}, zstdCompressor{}, lz4Compressor{}} {
		if strings.HasSuffix(objectPath, c.Extension()) {
			return c
		}
	}
	return noopCompressor{}
}

// CompressionForPath returns the compression implied by the extension of objectPath
func CompressionForPath(objectPath string) Compression {
	switch CompressorForPath(objectPath).(type) {
	case gzipCompressor:
		return CompressionGzip
	case zstdCompressor:
		return CompressionZstd
	case lz4Compressor:
		return CompressionLZ4
	}
	return CompressionNone
}

type noopCompressor struct{}

func (noopCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (noopCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (noopCompressor) Extension() string { return "" }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type gzipCompressor struct{}

func (gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}

func (gzipCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (gzipCompressor) Extension() string { return ".gz" }

type lz4Compressor struct{}

func (lz4Compressor) Compress(w io.Writer) (io.WriteCloser, error) {
	lw := lz4.NewWriter(w)
	if err := lw.Apply(lz4.CompressionLevelOption(lz4.Level5)); err != nil {
		return nil, fmt.Errorf("failed to set lz4 compression level: %w", err)
	}
	return lw, nil
}

func (lz4Compressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func (lz4Compressor) Extension() string { return ".lz4" }

type zstdCompressor struct{}

func (zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

func (zstdCompressor) Decompress(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zstdReadCloser{dec}, nil
}

func (zstdCompressor) Extension() string { return ".zst" }

// zstdReadCloser adapts zstd.Decoder, whose Close has no error result
type zstdReadCloser struct {
	*zstd.Decoder
}

func (r zstdReadCloser) Close() error {
	r.Decoder.Close()
	return nil
}
