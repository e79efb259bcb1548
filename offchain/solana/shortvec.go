package solana

import (
	"errors"
	"fmt"
)

// Transaction lengths use the compact-u16 encoding: seven bits per byte,
// little-endian, high bit set on every byte but the last.
const maxShortVecLen = 0xffff

var ErrMalformedShortVec = errors.New("malformed compact-u16 length")

func appendShortVecLen(dst []byte, n int) []byte {
	if n < 0 || n > maxShortVecLen {
		panic(fmt.Sprintf("appendShortVecLen: length %d out of range", n))
	}
	v := uint32(n)
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// decodeShortVecLenAt reads a length starting at b[off] and returns it with
// the offset just past it. Encodings longer than three bytes, values above
// 0xffff and non-minimal encodings are rejected.
func decodeShortVecLenAt(b []byte, off int) (int, int, error) {
	if off < 0 || off >= len(b) {
		return 0, off, fmt.Errorf("%w: offset %d out of bounds", ErrMalformedShortVec, off)
	}
	var v uint32
	for i := 0; i < 3; i++ {
		if off+i >= len(b) {
			return 0, off, fmt.Errorf("%w: truncated", ErrMalformedShortVec)
		}
		bt := b[off+i]
		v |= uint32(bt&0x7f) << (7 * i)
		if bt&0x80 != 0 {
			continue
		}
		if i > 0 && bt == 0 {
			return 0, off, fmt.Errorf("%w: non-minimal encoding", ErrMalformedShortVec)
		}
		if v > maxShortVecLen {
			return 0, off, fmt.Errorf("%w: value %d exceeds u16", ErrMalformedShortVec, v)
		}
		return int(v), off + i + 1, nil
	}
	return 0, off, fmt.Errorf("%w: more than three bytes", ErrMalformedShortVec)
}
