// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Syntax from T-REC-H.264 7.3.2.2

package h264

import (
	"fmt"
	mbits "math/bits"
)

// ChromaFormatLookup 按 SPS id 查询 chroma_format_idc。
// 未知的 id 应返回 ErrMissingReference。
type ChromaFormatLookup interface {
	ChromaFormatIdc(spsID uint32) (uint32, error)
}

// ChromaFormatFunc 函数形式的 ChromaFormatLookup
type ChromaFormatFunc func(spsID uint32) (uint32, error)

// ChromaFormatIdc implements ChromaFormatLookup.
func (f ChromaFormatFunc) ChromaFormatIdc(spsID uint32) (uint32, error) {
	return f(spsID)
}

// PPS 图像参数集
type PPS struct {
	PicParameterSetID                     uint32
	SeqParameterSetID                     uint32
	EntropyCodingModeFlag                 bool
	BottomFieldPicOrderInFramePresentFlag bool
	NumSliceGroupsMinus1                  uint32
	SliceGroupMap                         SliceGroupMap // NumSliceGroupsMinus1 为 0 时为 nil
	NumRefIdxL0DefaultActiveMinus1        uint32
	NumRefIdxL1DefaultActiveMinus1        uint32
	WeightedPredFlag                      bool
	WeightedBipredIdc                     uint8
	PicInitQpMinus26                      int32
	PicInitQsMinus26                      int32
	ChromaQpIndexOffset                   int32
	DeblockingFilterControlPresentFlag    bool
	ConstrainedIntraPredFlag              bool
	RedundantPicCntPresentFlag            bool
	OptionalTrailing                      *PPSTrailing // more_rbsp_data() 为假时为 nil
}

// PPSTrailing 强制字段之后的可选部分
type PPSTrailing struct {
	Transform8x8ModeFlag      bool
	PicScalingMatrix          *ScalingMatrix
	SecondChromaQpIndexOffset int32
}

// SliceGroupMap 由 slice_group_map_type 区分的片组映射。
// 具体类型为 *SliceGroupInterleaved, *SliceGroupDispersed, *SliceGroupForeground,
// *SliceGroupChanging, *SliceGroupExplicit。
type SliceGroupMap interface {
	MapType() uint32
}

// SliceGroupInterleaved slice_group_map_type == 0
type SliceGroupInterleaved struct {
	RunLengthMinus1 []uint32
}

// SliceGroupDispersed slice_group_map_type == 1，无附加字段
type SliceGroupDispersed struct{}

// SliceGroupForeground slice_group_map_type == 2
type SliceGroupForeground struct {
	Groups []SliceGroupRect
}

// SliceGroupRect .
type SliceGroupRect struct {
	TopLeft     uint32
	BottomRight uint32
}

// SliceGroupChanging slice_group_map_type 为 3、4 或 5
type SliceGroupChanging struct {
	Type                          uint32
	SliceGroupChangeDirectionFlag bool
	SliceGroupChangeRateMinus1    uint32
}

// SliceGroupExplicit slice_group_map_type == 6
type SliceGroupExplicit struct {
	SliceGroupID []uint32
}

// MapType implements SliceGroupMap.
func (*SliceGroupInterleaved) MapType() uint32 { return 0 }

// MapType implements SliceGroupMap.
func (*SliceGroupDispersed) MapType() uint32 { return 1 }

// MapType implements SliceGroupMap.
func (*SliceGroupForeground) MapType() uint32 { return 2 }

// MapType implements SliceGroupMap.
func (g *SliceGroupChanging) MapType() uint32 { return g.Type }

// MapType implements SliceGroupMap.
func (*SliceGroupExplicit) MapType() uint32 { return 6 }

// ValidatePPSID 检查 pic_parameter_set_id 是否在 [0,255]
func ValidatePPSID(id uint32) error {
	if id >= MaxPpsCount {
		return fmt.Errorf("%w: PPS id %d", ErrInvalidID, id)
	}
	return nil
}

// ParsePPS 解析已去除防竞争字节的 PPS RBSP。
// 仅当存在可选部分时通过 lookup 查询所引用 SPS 的 chroma_format_idc。
func ParsePPS(rbsp []byte, lookup ChromaFormatLookup) (*PPS, error) {
	s := newSyntaxReader(rbsp)
	pps := new(PPS)

	pps.PicParameterSetID = s.ue()
	pps.SeqParameterSetID = s.ue()
	pps.EntropyCodingModeFlag = s.flag()
	pps.BottomFieldPicOrderInFramePresentFlag = s.flag()

	pps.NumSliceGroupsMinus1 = s.ue()
	if s.err == nil && pps.NumSliceGroupsMinus1 > 0 {
		if pps.NumSliceGroupsMinus1 >= MaxSliceGroups {
			return nil, fmt.Errorf("%w: num_slice_groups_minus1 = %d",
				ErrInvalidArgument, pps.NumSliceGroupsMinus1)
		}
		pps.SliceGroupMap = decodeSliceGroupMap(s, pps.NumSliceGroupsMinus1)
	}

	pps.NumRefIdxL0DefaultActiveMinus1 = s.ue()
	pps.NumRefIdxL1DefaultActiveMinus1 = s.ue()
	pps.WeightedPredFlag = s.flag()
	pps.WeightedBipredIdc = s.u8(2)
	pps.PicInitQpMinus26 = s.se()
	pps.PicInitQsMinus26 = s.se()
	pps.ChromaQpIndexOffset = s.se()
	pps.DeblockingFilterControlPresentFlag = s.flag()
	pps.ConstrainedIntraPredFlag = s.flag()
	pps.RedundantPicCntPresentFlag = s.flag()

	if s.err == nil && MoreRBSPData(s.r) {
		pps.OptionalTrailing = decodePPSTrailing(s, pps.SeqParameterSetID, lookup)
	}

	if err := s.finish(); err != nil {
		return nil, err
	}
	return pps, nil
}

func decodeSliceGroupMap(s *syntaxReader, numSliceGroupsMinus1 uint32) SliceGroupMap {
	mapType := s.ue()
	if s.err != nil {
		return nil
	}

	n := int(numSliceGroupsMinus1) + 1
	switch mapType {
	case 0:
		g := &SliceGroupInterleaved{RunLengthMinus1: make([]uint32, n)}
		for i := range g.RunLengthMinus1 {
			g.RunLengthMinus1[i] = s.ue()
		}
		return g
	case 1:
		return &SliceGroupDispersed{}
	case 2:
		g := &SliceGroupForeground{Groups: make([]SliceGroupRect, n)}
		for i := range g.Groups {
			g.Groups[i].TopLeft = s.ue()
			g.Groups[i].BottomRight = s.ue()
		}
		return g
	case 3, 4, 5:
		return &SliceGroupChanging{
			Type:                          mapType,
			SliceGroupChangeDirectionFlag: s.flag(),
			SliceGroupChangeRateMinus1:    s.ue(),
		}
	case 6:
		// Ceil(Log2(num_slice_groups_minus1 + 1)) 位
		width := mbits.Len32(numSliceGroupsMinus1)
		count := s.ue()
		g := &SliceGroupExplicit{}
		for i := uint32(0); i <= count && s.err == nil; i++ {
			g.SliceGroupID = append(g.SliceGroupID, s.u(width))
		}
		return g
	default:
		s.fail(fmt.Errorf("%w: %d", ErrInvalidSliceGroupType, mapType))
		return nil
	}
}

func decodePPSTrailing(s *syntaxReader, spsID uint32, lookup ChromaFormatLookup) *PPSTrailing {
	t := &PPSTrailing{Transform8x8ModeFlag: s.flag()}

	chromaFormatIdc, err := lookup.ChromaFormatIdc(spsID)
	if err != nil {
		s.fail(err)
		return t
	}

	n8x8 := 0
	if t.Transform8x8ModeFlag {
		n8x8 = 2
		if chromaFormatIdc == 3 {
			n8x8 = 6
		}
	}
	if s.err == nil {
		if t.PicScalingMatrix, err = parseScalingMatrix(s.r, n8x8); err != nil {
			s.fail(err)
		}
	}
	t.SecondChromaQpIndexOffset = s.se()
	return t
}
