package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compression selects the codec applied around the tar stream.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a config string.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressionNone, CompressionGzip, CompressionZstd:
		return Compression(s), nil
	case "":
		return CompressionGzip, nil
	}
	return "", fmt.Errorf("unknown compression %q", s)
}

// Extension returns the archive filename suffix for the codec.
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".tar.gz"
	case CompressionZstd:
		return ".tar.zst"
	default:
		return ".tar"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// newCompressor wraps w with the codec's writer. The returned closer
// flushes the codec; callers still close the underlying file.
func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	default:
		return nopWriteCloser{w}, nil
	}
}

// newDecompressor sniffs the codec from magic bytes, the way tarfile's
// "r:*" mode auto-detects, so restore and verify do not depend on file
// naming.
func newDecompressor(r io.Reader) (io.ReadCloser, error) {
	br := newPeekReader(r)

	head, err := br.peek(4)
	if err != nil && len(head) == 0 {
		return nil, fmt.Errorf("reading archive header: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case bytes.HasPrefix(head, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return gr, nil
	default:
		return io.NopCloser(br), nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// peekReader lets newDecompressor look at leading magic bytes without
// consuming them.
type peekReader struct {
	r   io.Reader
	buf []byte
}

func newPeekReader(r io.Reader) *peekReader {
	return &peekReader{r: r}
}

func (p *peekReader) peek(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(p.r, buf)
	p.buf = buf[:read]
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return p.buf, err
}

func (p *peekReader) Read(b []byte) (int, error) {
	if len(p.buf) > 0 {
		n := copy(b, p.buf)
		p.buf = p.buf[n:]
		return n, nil
	}
	return p.r.Read(b)
}
