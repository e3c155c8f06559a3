// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"fmt"

	"github.com/cnotch/avcsei/utils/bits"
)

// DecodeRBSP 去除 emulation_prevention_three_byte，返回新分配的切片
func DecodeRBSP(rbsp []byte) []byte {
	out, _ := DecodeRBSPTo(make([]byte, len(rbsp)), rbsp)
	return out
}

// DecodeRBSPTo 去除 emulation_prevention_three_byte 后写入 out，返回 out 的前缀。
// 紧随两个 0x00 输入字节之后的每个 0x03 都被删除；out 长度不得小于 rbsp。
func DecodeRBSPTo(out, rbsp []byte) ([]byte, error) {
	if len(out) < len(rbsp) {
		return nil, fmt.Errorf("%w: output buffer of %d bytes, need %d",
			ErrInvalidArgument, len(out), len(rbsp))
	}

	outPos, inPos := 0, 0
	for i := 2; i < len(rbsp); i++ {
		if rbsp[i] == 3 && rbsp[i-1] == 0 && rbsp[i-2] == 0 {
			outPos += copy(out[outPos:], rbsp[inPos:i])
			inPos = i + 1
		}
	}
	outPos += copy(out[outPos:], rbsp[inPos:])
	return out[:outPos], nil
}

// ValidateRBSPTrailing 校验 rbsp_trailing_bits：
// 剩余不超过 8 位，首位为 rbsp_stop_one_bit，其后全部为 0
func ValidateRBSPTrailing(r *bits.Reader) error {
	left := r.BitsLeft()
	if left > 8 {
		return fmt.Errorf("%w: unexpected trailing data found: %d bits", ErrTrailingBitsInvalid, left)
	}

	stop, err := r.ReadBit()
	if err != nil || stop != 1 {
		return fmt.Errorf("%w: rbsp_stop_one_bit not found", ErrTrailingBitsInvalid)
	}
	if align, _ := r.Read(r.BitsLeft()); align != 0 {
		return fmt.Errorf("%w: rbsp_alignment_zero_bit not zero", ErrTrailingBitsInvalid)
	}
	return nil
}

// MoreRBSPData 判断 rbsp_trailing_bits 之前是否还有数据，不移动 r 的位置
func MoreRBSPData(r *bits.Reader) bool {
	c := r.Clone()
	lastOne := -1 // rbsp_stop_one_bit 是最后一个为 1 的位
	for c.BitsLeft() > 0 {
		pos := c.Offset()
		if bit, _ := c.ReadBit(); bit == 1 {
			lastOne = pos
		}
	}
	return lastOne > r.Offset()
}
