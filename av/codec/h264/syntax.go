// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"github.com/cnotch/avcsei/utils/bits"
)

// syntaxReader 按语法元素读取，保留第一个错误；
// 出错后的读取均返回 0，由调用方在适当位置检查 err
type syntaxReader struct {
	r   *bits.Reader
	err error
}

func newSyntaxReader(rbsp []byte) *syntaxReader {
	return &syntaxReader{r: bits.NewReader(rbsp)}
}

// u(n)
func (s *syntaxReader) u(n int) uint32 {
	if s.err != nil {
		return 0
	}
	var v uint32
	v, s.err = s.r.Read(n)
	return v
}

func (s *syntaxReader) u8(n int) uint8 {
	return uint8(s.u(n))
}

func (s *syntaxReader) u16(n int) uint16 {
	return uint16(s.u(n))
}

// u(1)
func (s *syntaxReader) flag() bool {
	return s.u(1) == 1
}

// ue(v)
func (s *syntaxReader) ue() uint32 {
	if s.err != nil {
		return 0
	}
	var v uint32
	v, s.err = s.r.ReadUe()
	return v
}

// se(v)
func (s *syntaxReader) se() int32 {
	if s.err != nil {
		return 0
	}
	var v int32
	v, s.err = s.r.ReadSe()
	return v
}

// fail 记录错误，已有错误时保留原错误
func (s *syntaxReader) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// finish 校验 rbsp_trailing_bits 并返回第一个错误
func (s *syntaxReader) finish() error {
	if s.err != nil {
		return s.err
	}
	return ValidateRBSPTrailing(s.r)
}
