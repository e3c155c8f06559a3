// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

/*
 * Table 7-1 – NAL unit type codes, syntax element categories, and NAL unit type classes in
 * T-REC-H.264-201704
 */
// H264 NAL 单元类型
const (
	NalUnspecified     = 0
	NalSlice           = 1  // 不分区非IDR图像的片
	NalDpa             = 2  // 片分区A
	NalDpb             = 3  // 片分区B
	NalDpc             = 4  // 片分区C
	NalIdrSlice        = 5  // IDR图像中的片（I帧）
	NalSei             = 6  // 补充增强信息单元
	NalSps             = 7  // 序列参数集
	NalPps             = 8  // 图像参数集
	NalAud             = 9  // 分界符
	NalEndSequence     = 10 // 序列结束
	NalEndStream       = 11 // 码流结束
	NalFillerData      = 12 // 填充
	NalSpsExt          = 13 //
	NalPrefix          = 14
	NalSubSps          = 15
	NalDps             = 16
	NalReserved17      = 17
	NalReserved18      = 18
	NalAuxiliarySlice  = 19
	NalExtenSlice      = 20
	NalDepthExtenSlice = 21

	// RFC 6184 载荷类型
	NalStapaInRtp = 24
	NalFuAInRtp   = 28

	NalTypeBitmask = 0x1F
)

// 其他常量
const (
	// 7.4.2.1.1: seq_parameter_set_id is in [0, 31].
	MaxSpsCount = 32
	// 7.4.2.2: pic_parameter_set_id is in [0, 255].
	MaxPpsCount = 256

	// A.2.1, A.2.3: profiles supporting FMO constrain
	// num_slice_groups_minus1 to be in [0, 7].
	MaxSliceGroups = 8

	// E.2.2: cpb_cnt_minus1 is in [0, 31].
	MaxCpbCnt = 32
)

// IsSlice 是否为携带 slice_header 的片（非IDR、分区A、IDR）
func IsSlice(nt uint8) bool {
	nt &= NalTypeBitmask
	return nt == NalSlice || nt == NalDpa || nt == NalIdrSlice
}

// IsVCL 是否为 VCL NAL 单元
func IsVCL(nt uint8) bool {
	nt &= NalTypeBitmask
	return nt >= NalSlice && nt <= NalIdrSlice
}

// IsSps .
func IsSps(nt byte) bool {
	return nt&NalTypeBitmask == NalSps
}

// IsPps .
func IsPps(nt byte) bool {
	return nt&NalTypeBitmask == NalPps
}

// IsSei .
func IsSei(nt byte) bool {
	return nt&NalTypeBitmask == NalSei
}
