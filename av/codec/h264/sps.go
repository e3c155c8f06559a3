// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Syntax from T-REC-H.264 7.3.2.1.1, E.1.1, E.1.2

package h264

import (
	"encoding/base64"
	"fmt"
)

// 含 chroma_format_idc 等扩展字段的 profile_idc
var extFormatProfiles = map[uint8]bool{
	100: true, 110: true, 122: true, 244: true, 44: true, 83: true, 86: true,
	118: true, 128: true, 138: true, 139: true, 134: true, 135: true,
}

// SPS 序列参数集
type SPS struct {
	// 指明所用 profile、level
	ProfileIdc           uint8
	ProfileCompatibility uint8 // constraint_set0_flag..constraint_set5_flag, reserved_zero_2bits
	LevelIdc             uint8

	// 本序列参数集的 id，被图像参数集引用，取值 [0,31]
	SeqParameterSetID uint32

	// 仅 extFormatProfiles 中的 profile 出现
	FormatExt *SPSFormatExt

	// MaxFrameNum = 2^(Log2MaxFrameNumMinus4 + 4)
	Log2MaxFrameNumMinus4 uint32
	// 指明 poc (picture order count) 的编码方法
	PicOrderCntType uint32
	// pic_order_cnt_type == 0
	Log2MaxPicOrderCntLsbMinus4 uint32
	// pic_order_cnt_type == 1
	PicOrderCntCycle *PicOrderCntCycle

	MaxNumRefFrames                uint32
	GapsInFrameNumValueAllowedFlag bool

	// PicWidthInMbs = PicWidthInMbsMinus1 + 1，以宏块为单位
	PicWidthInMbsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32

	FrameMbsOnlyFlag         bool
	MbAdaptiveFrameFieldFlag bool // 仅 FrameMbsOnlyFlag 为 false 时出现
	Direct8x8InferenceFlag   bool

	// frame_cropping_flag 为 0 时为 nil
	FrameCropping *FrameCropping

	// vui_parameters_present_flag 为 0 时为 nil
	VUI *VUI
}

// SPSFormatExt 高 profile 下的色度、位深及量化矩阵
type SPSFormatExt struct {
	ChromaFormatIdc                 uint32
	SeparateColourPlaneFlag         bool // 仅 ChromaFormatIdc == 3 时出现
	BitDepthLumaMinus8              uint32
	BitDepthChromaMinus8            uint32
	QpprimeYZeroTransformBypassFlag bool
	SeqScalingMatrix                *ScalingMatrix
}

// PicOrderCntCycle pic_order_cnt_type == 1 时的字段
type PicOrderCntCycle struct {
	DeltaPicOrderAlwaysZeroFlag bool
	OffsetForNonRefPic          int32
	OffsetForTopToBottomField   int32
	// num_ref_frames_in_pic_order_cnt_cycle 项
	OffsetForRefFrame []int32
}

// FrameCropping 输出裁剪
type FrameCropping struct {
	LeftOffset   uint32
	RightOffset  uint32
	TopOffset    uint32
	BottomOffset uint32
}

// VUI 视频可用性信息(Annex E)，每个子结构由各自的 present flag 控制
type VUI struct {
	AspectRatioInfo *AspectRatioInfo
	OverscanInfo    *OverscanInfo
	VideoSignalType *VideoSignalType
	ChromaLocInfo   *ChromaLocInfo
	// 和帧率相关
	TimingInfo       *TimingInfo
	NalHrdParameters *HRD
	VclHrdParameters *HRD
	// 仅在至少一个 HRD 存在时出现
	LowDelayHrdFlag      bool
	PicStructPresentFlag bool
	BitstreamRestriction *BitstreamRestriction
}

// ExtendedSAR aspect_ratio_idc 取该值时 sar_width, sar_height 显式给出
const ExtendedSAR = 255

// AspectRatioInfo 样点高宽比
type AspectRatioInfo struct {
	AspectRatioIdc uint8
	SarWidth       uint16 // 仅 ExtendedSAR
	SarHeight      uint16 // 仅 ExtendedSAR
}

// OverscanInfo .
type OverscanInfo struct {
	OverscanAppropriateFlag bool
}

// VideoSignalType .
type VideoSignalType struct {
	VideoFormat        uint8
	VideoFullRangeFlag bool
	ColourDescription  *ColourDescription
}

// ColourDescription .
type ColourDescription struct {
	ColourPrimaries         uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8
}

// ChromaLocInfo .
type ChromaLocInfo struct {
	ChromaSampleLocTypeTopField    uint32
	ChromaSampleLocTypeBottomField uint32
}

// TimingInfo .
type TimingInfo struct {
	NumUnitsInTick     uint32
	TimeScale          uint32
	FixedFrameRateFlag bool
}

// BitstreamRestriction .
type BitstreamRestriction struct {
	MotionVectorsOverPicBoundariesFlag bool
	MaxBytesPerPicDenom                uint32
	MaxBitsPerMbDenom                  uint32
	Log2MaxMvLengthHorizontal          uint32
	Log2MaxMvLengthVertical            uint32
	MaxNumReorderFrames                uint32
	MaxDecFrameBuffering               uint32
}

// HRD 假想参考解码器参数(E.1.2)
type HRD struct {
	BitRateScale uint8
	CpbSizeScale uint8
	// cpb_cnt_minus1 + 1 项
	SchedSels []SchedSel

	InitialCpbRemovalDelayLengthMinus1 uint8
	CpbRemovalDelayLengthMinus1        uint8
	DpbOutputDelayLengthMinus1         uint8
	TimeOffsetLength                   uint8
}

// SchedSel .
type SchedSel struct {
	BitRateValueMinus1 uint32
	CpbSizeValueMinus1 uint32
	CbrFlag            bool
}

// ValidateSPSID 检查 seq_parameter_set_id 是否在 [0,31]
func ValidateSPSID(id uint32) error {
	if id >= MaxSpsCount {
		return fmt.Errorf("%w: SPS id %d", ErrInvalidID, id)
	}
	return nil
}

// ParseSPS 解析已去除防竞争字节的 SPS RBSP
func ParseSPS(rbsp []byte) (*SPS, error) {
	sps := new(SPS)
	if err := sps.Decode(rbsp); err != nil {
		return nil, err
	}
	return sps, nil
}

// DecodeString 从 base64 字串解码 sps NAL（含 NAL 头，未去除防竞争字节）
func (sps *SPS) DecodeString(b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	nalu, err := ParseNALU(data)
	if err != nil {
		return err
	}
	if nalu.NalUnitType != NalSps {
		return fmt.Errorf("%w: not is sps NAL UNIT, nal_unit_type = %d", ErrInvalidArgument, nalu.NalUnitType)
	}
	return sps.Decode(DecodeRBSP(nalu.RBSP))
}

// Decode 从已去除防竞争字节的 RBSP 解码
func (sps *SPS) Decode(rbsp []byte) error {
	s := newSyntaxReader(rbsp)

	sps.ProfileIdc = s.u8(8)
	sps.ProfileCompatibility = s.u8(8)
	sps.LevelIdc = s.u8(8)
	sps.SeqParameterSetID = s.ue()

	if extFormatProfiles[sps.ProfileIdc] {
		sps.FormatExt = decodeFormatExt(s)
	}

	sps.Log2MaxFrameNumMinus4 = s.ue()
	sps.PicOrderCntType = s.ue()
	switch sps.PicOrderCntType {
	case 0:
		sps.Log2MaxPicOrderCntLsbMinus4 = s.ue()
	case 1:
		cycle := &PicOrderCntCycle{
			DeltaPicOrderAlwaysZeroFlag: s.flag(),
			OffsetForNonRefPic:          s.se(),
			OffsetForTopToBottomField:   s.se(),
		}
		// 每项至少 1 位，计数异常时由 EOF 终止
		n := s.ue()
		for i := uint32(0); i < n && s.err == nil; i++ {
			cycle.OffsetForRefFrame = append(cycle.OffsetForRefFrame, s.se())
		}
		sps.PicOrderCntCycle = cycle
	}

	sps.MaxNumRefFrames = s.ue()
	sps.GapsInFrameNumValueAllowedFlag = s.flag()
	sps.PicWidthInMbsMinus1 = s.ue()
	sps.PicHeightInMapUnitsMinus1 = s.ue()

	sps.FrameMbsOnlyFlag = s.flag()
	if !sps.FrameMbsOnlyFlag {
		sps.MbAdaptiveFrameFieldFlag = s.flag()
	}
	sps.Direct8x8InferenceFlag = s.flag()

	if s.flag() {
		sps.FrameCropping = &FrameCropping{
			LeftOffset:   s.ue(),
			RightOffset:  s.ue(),
			TopOffset:    s.ue(),
			BottomOffset: s.ue(),
		}
	}

	if s.flag() {
		sps.VUI = decodeVUI(s)
	}

	return s.finish()
}

func decodeFormatExt(s *syntaxReader) *SPSFormatExt {
	ext := &SPSFormatExt{ChromaFormatIdc: s.ue()}
	if ext.ChromaFormatIdc == 3 {
		ext.SeparateColourPlaneFlag = s.flag()
	}
	ext.BitDepthLumaMinus8 = s.ue()
	ext.BitDepthChromaMinus8 = s.ue()
	ext.QpprimeYZeroTransformBypassFlag = s.flag()

	if s.err == nil {
		n8x8 := 2
		if ext.ChromaFormatIdc == 3 {
			n8x8 = 6
		}
		var err error
		if ext.SeqScalingMatrix, err = parseScalingMatrix(s.r, n8x8); err != nil {
			s.fail(err)
		}
	}
	return ext
}

func decodeVUI(s *syntaxReader) *VUI {
	vui := new(VUI)

	if s.flag() {
		vui.AspectRatioInfo = &AspectRatioInfo{AspectRatioIdc: s.u8(8)}
		if vui.AspectRatioInfo.AspectRatioIdc == ExtendedSAR {
			vui.AspectRatioInfo.SarWidth = s.u16(16)
			vui.AspectRatioInfo.SarHeight = s.u16(16)
		}
	}

	if s.flag() {
		vui.OverscanInfo = &OverscanInfo{OverscanAppropriateFlag: s.flag()}
	}

	if s.flag() {
		vui.VideoSignalType = &VideoSignalType{
			VideoFormat:        s.u8(3),
			VideoFullRangeFlag: s.flag(),
		}
		if s.flag() {
			vui.VideoSignalType.ColourDescription = &ColourDescription{
				ColourPrimaries:         s.u8(8),
				TransferCharacteristics: s.u8(8),
				MatrixCoefficients:      s.u8(8),
			}
		}
	}

	if s.flag() {
		vui.ChromaLocInfo = &ChromaLocInfo{
			ChromaSampleLocTypeTopField:    s.ue(),
			ChromaSampleLocTypeBottomField: s.ue(),
		}
	}

	if s.flag() {
		vui.TimingInfo = &TimingInfo{
			NumUnitsInTick:     s.u(32),
			TimeScale:          s.u(32),
			FixedFrameRateFlag: s.flag(),
		}
	}

	if s.flag() {
		vui.NalHrdParameters = decodeHRD(s)
	}
	if s.flag() {
		vui.VclHrdParameters = decodeHRD(s)
	}
	if vui.NalHrdParameters != nil || vui.VclHrdParameters != nil {
		vui.LowDelayHrdFlag = s.flag()
	}

	vui.PicStructPresentFlag = s.flag()

	if s.flag() {
		vui.BitstreamRestriction = &BitstreamRestriction{
			MotionVectorsOverPicBoundariesFlag: s.flag(),
			MaxBytesPerPicDenom:                s.ue(),
			MaxBitsPerMbDenom:                  s.ue(),
			// The current version of the standard constrains this to be in
			// [0,15], but older versions allow 16.
			Log2MaxMvLengthHorizontal: s.ue(),
			Log2MaxMvLengthVertical:   s.ue(),
			MaxNumReorderFrames:       s.ue(),
			MaxDecFrameBuffering:      s.ue(),
		}
	}
	return vui
}

func decodeHRD(s *syntaxReader) *HRD {
	hrd := new(HRD)
	cpbCntMinus1 := s.ue()
	if cpbCntMinus1 >= MaxCpbCnt {
		s.fail(fmt.Errorf("%w: cpb_cnt_minus1 = %d", ErrInvalidArgument, cpbCntMinus1))
	}
	hrd.BitRateScale = s.u8(4)
	hrd.CpbSizeScale = s.u8(4)

	if s.err == nil {
		hrd.SchedSels = make([]SchedSel, cpbCntMinus1+1)
		for i := range hrd.SchedSels {
			hrd.SchedSels[i] = SchedSel{
				BitRateValueMinus1: s.ue(),
				CpbSizeValueMinus1: s.ue(),
				CbrFlag:            s.flag(),
			}
		}
	}

	hrd.InitialCpbRemovalDelayLengthMinus1 = s.u8(5)
	hrd.CpbRemovalDelayLengthMinus1 = s.u8(5)
	hrd.DpbOutputDelayLengthMinus1 = s.u8(5)
	hrd.TimeOffsetLength = s.u8(5)
	return hrd
}

// ChromaFormatIdc 返回 chroma_format_idc，未出现时推定为 1 (4:2:0)
func (sps *SPS) ChromaFormatIdc() uint32 {
	if sps.FormatExt == nil {
		return 1
	}
	return sps.FormatExt.ChromaFormatIdc
}

// ChromaArrayType .
func (sps *SPS) ChromaArrayType() uint32 {
	if sps.FormatExt != nil && sps.FormatExt.SeparateColourPlaneFlag {
		return 0
	}
	return sps.ChromaFormatIdc()
}

// cropUnit 返回 CropUnitX, CropUnitY (7-19..7-22)
func (sps *SPS) cropUnit() (x, y uint32) {
	x, y = 1, 1
	switch sps.ChromaArrayType() {
	case 1:
		x, y = 2, 2
	case 2:
		x, y = 2, 1
	}
	if !sps.FrameMbsOnlyFlag {
		y *= 2
	}
	return
}

// Width 视频宽度（像素）
func (sps *SPS) Width() int {
	w := (sps.PicWidthInMbsMinus1 + 1) * 16
	if c := sps.FrameCropping; c != nil {
		x, _ := sps.cropUnit()
		w -= (c.LeftOffset + c.RightOffset) * x
	}
	return int(w)
}

// Height 视频高度（像素）
func (sps *SPS) Height() int {
	h := (sps.PicHeightInMapUnitsMinus1 + 1) * 16
	if !sps.FrameMbsOnlyFlag {
		h *= 2
	}
	if c := sps.FrameCropping; c != nil {
		_, y := sps.cropUnit()
		h -= (c.TopOffset + c.BottomOffset) * y
	}
	return int(h)
}

// FrameRate Video frame rate
func (sps *SPS) FrameRate() float64 {
	if sps.VUI == nil || sps.VUI.TimingInfo == nil || sps.VUI.TimingInfo.NumUnitsInTick == 0 {
		return 0.0
	}
	t := sps.VUI.TimingInfo
	return float64(t.TimeScale) / float64(t.NumUnitsInTick*2)
}

// IsFixedFrameRate 是否固定帧率
func (sps *SPS) IsFixedFrameRate() bool {
	return sps.VUI != nil && sps.VUI.TimingInfo != nil && sps.VUI.TimingInfo.FixedFrameRateFlag
}
