package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Reader counts and hashes upload bytes as they are sent, so the checksum
// logged after an upload describes what actually went over the wire.
type Reader struct {
	src io.Reader
	sum hash.Hash
	n   int64
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: r, sum: sha256.New()}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		_, _ = r.sum.Write(p[:n])
		r.n += int64(n)
	}
	return n, err
}

// Close closes the wrapped reader when it is an io.Closer.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SHA256 returns the hex digest of the bytes read so far.
func (r *Reader) SHA256() string {
	return hex.EncodeToString(r.sum.Sum(nil))
}

// Size returns the number of bytes read so far.
func (r *Reader) Size() int64 { return r.n }
