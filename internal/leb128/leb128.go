// Package leb128 encodes and decodes the variable-length integer format the
// WebAssembly binary format uses for all counts, indices, and i32/i64
// constants: unsigned LEB128 for the former, signed LEB128 for the latter.
//
// See https://webassembly.github.io/spec/core/binary/values.html#integers
package leb128

import (
	"fmt"
	"io"
)

const maxVarintLen64 = 10
const maxVarintLen32 = 5

// DecodeUint32 reads an unsigned LEB128 value from r, returning the decoded
// value and the number of bytes consumed.
func DecodeUint32(r io.Reader) (uint32, uint64, error) {
	v, n, err := decodeUnsigned(r, 32)
	return uint32(v), n, err
}

// DecodeUint64 reads an unsigned LEB128 value from r.
func DecodeUint64(r io.Reader) (uint64, uint64, error) {
	return decodeUnsigned(r, 64)
}

// DecodeInt32 reads a signed LEB128 value from r, sign-extended to 32 bits.
func DecodeInt32(r io.Reader) (int32, uint64, error) {
	v, n, err := decodeSigned(r, 32)
	return int32(v), n, err
}

// DecodeInt64 reads a signed LEB128 value from r, sign-extended to 64 bits.
func DecodeInt64(r io.Reader) (int64, uint64, error) {
	return decodeSigned(r, 64)
}

func decodeUnsigned(r io.Reader, size int) (uint64, uint64, error) {
	var result uint64
	var shift uint
	var read uint64
	buf := [1]byte{}
	for {
		if shift >= uint(size)+7 {
			return 0, read, fmt.Errorf("leb128: unsigned overflow for %d-bit value", size)
		}
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF && read > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, read, err
		}
		read++
		b := buf[0]
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, read, nil
}

func decodeSigned(r io.Reader, size int) (int64, uint64, error) {
	var result int64
	var shift uint
	var read uint64
	buf := [1]byte{}
	var b byte
	for {
		if shift >= uint(size)+7 {
			return 0, read, fmt.Errorf("leb128: signed overflow for %d-bit value", size)
		}
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF && read > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, read, err
		}
		read++
		b = buf[0]
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < uint(size) && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, read, nil
}

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte { return encodeUnsigned(uint64(v)) }

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) []byte { return encodeUnsigned(v) }

func encodeUnsigned(v uint64) []byte {
	out := make([]byte, 0, maxVarintLen64)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte { return encodeSigned(int64(v)) }

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	return encodeSigned(v)
}

func encodeSigned(v int64) []byte {
	out := make([]byte, 0, maxVarintLen32)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}

// LoadInt32 decodes a signed LEB128 value from the front of b, returning the
// value and the number of bytes consumed.
func LoadInt32(b []byte) (int32, uint64, error) {
	return decodeSignedBytes32(b)
}

// LoadInt64 decodes a signed LEB128 value from the front of b, returning the
// value and the number of bytes consumed.
func LoadInt64(b []byte) (int64, uint64, error) {
	v, n, err := decodeSignedBytes(b, 64)
	return v, n, err
}

func decodeSignedBytes32(b []byte) (int32, uint64, error) {
	v, n, err := decodeSignedBytes(b, 32)
	return int32(v), n, err
}

func decodeSignedBytes(b []byte, size int) (int64, uint64, error) {
	var result int64
	var shift uint
	var i uint64
	var cur byte
	for {
		if int(i) >= len(b) {
			return 0, i, io.ErrUnexpectedEOF
		}
		if shift >= uint(size)+7 {
			return 0, i, fmt.Errorf("leb128: signed overflow for %d-bit value", size)
		}
		cur = b[i]
		i++
		result |= int64(cur&0x7f) << shift
		shift += 7
		if cur&0x80 == 0 {
			break
		}
	}
	if shift < uint(size) && cur&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i, nil
}
