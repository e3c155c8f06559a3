// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"fmt"
)

// NALUnitHeader 原始 h264 Nal单元头
type NALUnitHeader struct {
	ForbiddenZeroBit uint8
	NalRefIdc        uint8
	NalUnitType      uint8
}

// ParseNALUPrefix 从 NAL 单元首字节提取头信息(bits 7 / 6-5 / 4-0)
func ParseNALUPrefix(nal uint8) NALUnitHeader {
	return NALUnitHeader{
		ForbiddenZeroBit: (nal >> 7) & 1,
		NalRefIdc:        (nal >> 5) & 3,
		NalUnitType:      nal & NalTypeBitmask,
	}
}

// RawNALU 未解码的 NAL 单元；RBSP 是输入的子切片，尚未去除防竞争字节
type RawNALU struct {
	NALUnitHeader
	RBSP []byte
}

// ParseNALU 解析 NAL 单元外层
func ParseNALU(nalu []byte) (RawNALU, error) {
	if len(nalu) < 1 {
		return RawNALU{}, fmt.Errorf("%w: EOF found when reading NALU prefix", ErrUnexpectedEOF)
	}

	h := ParseNALUPrefix(nalu[0])
	if h.NalUnitType == NalPrefix ||
		h.NalUnitType == NalExtenSlice ||
		h.NalUnitType == NalDepthExtenSlice {
		return RawNALU{}, fmt.Errorf("%w: SVC,3DAVC,MVC not supported. nal_unit_type = %d",
			ErrUnimplemented, h.NalUnitType)
	}

	return RawNALU{NALUnitHeader: h, RBSP: nalu[1:]}, nil
}
