// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"errors"
	"fmt"
	"math"
)

// 读取错误
var (
	ErrUnexpectedEOF   = errors.New("bits: unexpected EOF")
	ErrInvalidArgument = errors.New("bits: invalid argument")
)

// MaxReadBits Read 一次最多读取的位数
const MaxReadBits = 32

// Reader MSB-first 位读取器.
// 满足 0 <= offset <= length <= len(buf)*8
type Reader struct {
	buf    []byte
	offset int // bit base
	length int // bit base
}

// NewReader retruns a new Reader over all bits of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{
		buf:    buf,
		length: len(buf) << 3,
	}
}

// NewReaderSize returns a new Reader positioned at offset and limited to length bits.
func NewReaderSize(buf []byte, offset, length int) (*Reader, error) {
	if offset < 0 || offset > length || length > len(buf)<<3 {
		return nil, fmt.Errorf("%w: offset %d / length %d over %d bytes",
			ErrInvalidArgument, offset, length, len(buf))
	}
	return &Reader{
		buf:    buf,
		offset: offset,
		length: length,
	}, nil
}

// Clone returns an independent reader at the same position.
// The underlying buffer is shared, only the position is copied.
func (r *Reader) Clone() *Reader {
	clone := *r
	return &clone
}

// Skip skip n bits.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: skip %d bits", ErrInvalidArgument, n)
	}
	if n > r.BitsLeft() {
		return fmt.Errorf("%w: skip %d bits, %d left", ErrUnexpectedEOF, n, r.BitsLeft())
	}
	r.offset += n
	return nil
}

// ReadBit read a bit.
func (r *Reader) ReadBit() (uint8, error) {
	if r.offset >= r.length {
		return 0, ErrUnexpectedEOF
	}

	tmp := (r.buf[r.offset>>3] >> (7 - r.offset&0x7)) & 1
	r.offset++
	return tmp, nil
}

// Read read the uint32 of n bits, u(n).
// n == 32 returns the full bit pattern.
func (r *Reader) Read(n int) (uint32, error) {
	if n < 0 || n > MaxReadBits {
		return 0, fmt.Errorf("%w: read %d bits", ErrInvalidArgument, n)
	}
	if n > r.BitsLeft() {
		return 0, fmt.Errorf("%w: expected %d bits, got %d", ErrUnexpectedEOF, n, r.BitsLeft())
	}
	return uint32(r.readUint64(n)), nil
}

// ReadUe read an exp-golomb unsigned integer, ue(v).
func (r *Reader) ReadUe() (uint32, error) {
	zeros := 0
	for {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			break
		}
		zeros++
		if zeros > 32 {
			return 0, fmt.Errorf("%w: exp-golomb code longer than 32 bits", ErrInvalidArgument)
		}
	}

	suffix, err := r.Read(zeros)
	if err != nil {
		return 0, err
	}
	// 32 个前导 0 时只有 suffix == 0 能表示为 2^32-1
	v := uint64(suffix) + (1<<uint(zeros) - 1)
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: exp-golomb value out of uint32 range", ErrInvalidArgument)
	}
	return uint32(v), nil
}

// ReadSe read an exp-golomb signed integer, se(v).
func (r *Reader) ReadSe() (int32, error) {
	k, err := r.ReadUe()
	if err != nil {
		return 0, err
	}
	if k == 0xFFFFFFFF { // (k+1)/2 == 2^31
		return 0, fmt.Errorf("%w: se(v) out of int32 range", ErrInvalidArgument)
	}

	// undo zig-zag
	if k&0x01 != 0 {
		return int32((k + 1) / 2), nil
	}
	return -int32(k / 2), nil
}

// ==== shortcut methods

// ReadBool read one bit bool.
func (r *Reader) ReadBool() (bool, error) {
	bit, err := r.ReadBit()
	return bit == 1, err
}

// ReadUint8 read the uint8 of n bits.
func (r *Reader) ReadUint8(n int) (uint8, error) {
	if n > 8 {
		return 0, fmt.Errorf("%w: read %d bits into uint8", ErrInvalidArgument, n)
	}
	v, err := r.Read(n)
	return uint8(v), err
}

// ReadUint16 read the uint16 of n bits.
func (r *Reader) ReadUint16(n int) (uint16, error) {
	if n > 16 {
		return 0, fmt.Errorf("%w: read %d bits into uint16", ErrInvalidArgument, n)
	}
	v, err := r.Read(n)
	return uint16(v), err
}

// ReadUint32 read the uint32 of n bits.
func (r *Reader) ReadUint32(n int) (uint32, error) { return r.Read(n) }

// Offset returns the offset of bits.
func (r *Reader) Offset() int {
	return r.offset
}

// Length returns the readable length in bits.
func (r *Reader) Length() int {
	return r.length
}

// BitsLeft returns the number of left bits.
func (r *Reader) BitsLeft() int {
	return r.length - r.offset
}

// IsByteAligned .
func (r *Reader) IsByteAligned() bool {
	return r.offset&0x7 == 0
}

var bitsMask = [9]byte{
	0x00,
	0x01, 0x03, 0x07, 0x0f,
	0x1f, 0x3f, 0x7f, 0xff,
}

// readUint64 read the uint64 of n bits; caller checks bounds.
// 先取当前字节剩余位，再取整字节，最后取末字节的高位
func (r *Reader) readUint64(n int) uint64 {
	if n == 0 {
		return 0
	}

	idx := r.offset >> 3
	validBits := 8 - r.offset&0x7
	r.offset += n

	var tmp uint64
	for n >= validBits {
		n -= validBits
		tmp |= uint64(r.buf[idx]&bitsMask[validBits]) << uint(n)
		idx++
		validBits = 8
	}

	if n > 0 {
		tmp |= uint64((r.buf[idx] >> uint(validBits-n)) & bitsMask[n])
	}
	return tmp
}
