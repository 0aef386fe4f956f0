package binary

import (
	"bytes"
	stdbinary "encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/skanehira/wazen/internal/leb128"
)

// reader is a cursor over an in-memory section payload. It is unexported:
// callers only ever see the section-level Decode entry points.
type reader struct {
	buf *bytes.Reader
}

func newReader(b []byte) *reader {
	return &reader{buf: bytes.NewReader(b)}
}

func (r *reader) byte() (byte, error) {
	return r.buf.ReadByte()
}

func (r *reader) u32() (uint32, error) {
	v, _, err := leb128.DecodeUint32(r.buf)
	return v, err
}

func (r *reader) i32() (int32, error) {
	v, _, err := leb128.DecodeInt32(r.buf)
	return v, err
}

func (r *reader) i64() (int64, error) {
	v, _, err := leb128.DecodeInt64(r.buf)
	return v, err
}

// f32 reads a little-endian IEEE-754 single-precision float.
//
// See https://www.w3.org/TR/wasm-core-1/#floating-point%E2%91%A4
func (r *reader) f32() (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.buf, buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(stdbinary.LittleEndian.Uint32(buf[:])), nil
}

func (r *reader) f64() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r.buf, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(stdbinary.LittleEndian.Uint64(buf[:])), nil
}

func (r *reader) bytesN(n uint32) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(r.buf, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reader) string(n uint32) (string, error) {
	b, err := r.bytesN(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// isEnd reports whether the reader has been exhausted.
func (r *reader) isEnd() bool {
	return r.buf.Len() == 0
}

func (r *reader) errf(format string, args ...interface{}) error {
	return fmt.Errorf("binary: "+format, args...)
}
