// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"fmt"

	"github.com/cnotch/avcsei/utils/bits"
)

// 片头中读取 pps_id 时最多解码的字节数
const sliceHeaderPeekSize = 16

// ParamSets 已接收的参数集及当前激活的参数集。
// 激活指针只引用 map 中的条目；同 id 的新参数集覆盖旧条目，激活指针保持不变。
// 非并发安全，每路码流一个实例。
type ParamSets struct {
	spss      map[uint32]*SPS
	ppss      map[uint32]*PPS
	activeSPS *SPS
	activePPS *PPS
}

// NewParamSets .
func NewParamSets() *ParamSets {
	return &ParamSets{
		spss: make(map[uint32]*SPS),
		ppss: make(map[uint32]*PPS),
	}
}

// ProcessNALU 处理参数集及片 NAL 单元，其他类型忽略并返回 false。
// 片 NAL 单元只解码到 pic_parameter_set_id，并激活对应的参数集。
func (ps *ParamSets) ProcessNALU(nalu RawNALU) (bool, error) {
	switch nalu.NalUnitType {
	case NalSps:
		return true, ps.ProcessSPS(nalu.RBSP)
	case NalPps:
		return true, ps.ProcessPPS(nalu.RBSP)
	case NalSlice, NalDpa, NalIdrSlice:
		ppsID, err := slicePPSID(nalu.RBSP)
		if err != nil {
			return true, err
		}
		return true, ps.Activate(ppsID)
	}
	return false, nil
}

// slicePPSID 跳过 first_mb_in_slice, slice_type 读取 pic_parameter_set_id。
// 前两个字段可能足够大而包含防竞争字节，因此先解码开头的一段。
func slicePPSID(rbsp []byte) (uint32, error) {
	if len(rbsp) > sliceHeaderPeekSize {
		rbsp = rbsp[:sliceHeaderPeekSize]
	}
	r := bits.NewReader(DecodeRBSP(rbsp))
	if _, err := r.ReadUe(); err != nil {
		return 0, err
	}
	if _, err := r.ReadUe(); err != nil {
		return 0, err
	}
	return r.ReadUe()
}

// ProcessSPS 解析并保存 SPS，rbsp 尚未去除防竞争字节
func (ps *ParamSets) ProcessSPS(rbsp []byte) error {
	sps, err := ParseSPS(DecodeRBSP(rbsp))
	if err != nil {
		return err
	}
	if err = ValidateSPSID(sps.SeqParameterSetID); err != nil {
		return err
	}
	ps.spss[sps.SeqParameterSetID] = sps
	return nil
}

// ProcessPPS 解析并保存 PPS，rbsp 尚未去除防竞争字节
func (ps *ParamSets) ProcessPPS(rbsp []byte) error {
	pps, err := ParsePPS(DecodeRBSP(rbsp), ChromaFormatFunc(ps.chromaFormatIdc))
	if err != nil {
		return err
	}
	if err = ValidatePPSID(pps.PicParameterSetID); err != nil {
		return err
	}
	ps.ppss[pps.PicParameterSetID] = pps
	return nil
}

func (ps *ParamSets) chromaFormatIdc(spsID uint32) (uint32, error) {
	sps, ok := ps.spss[spsID]
	if !ok {
		return 0, fmt.Errorf("%w: referenced missing SPS %d", ErrMissingReference, spsID)
	}
	return sps.ChromaFormatIdc(), nil
}

// Activate 激活指定的 PPS 及其引用的 SPS。
//
// 两者并非原子更新：PPS 存在而其引用的 SPS 缺失时，
// 返回 ErrMissingReference，但激活的 PPS 已经更新，激活的 SPS 保持原值。
func (ps *ParamSets) Activate(ppsID uint32) error {
	pps, ok := ps.ppss[ppsID]
	if !ok {
		return fmt.Errorf("%w: activated missing PPS %d", ErrMissingReference, ppsID)
	}
	ps.activePPS = pps

	sps, ok := ps.spss[pps.SeqParameterSetID]
	if !ok {
		return fmt.Errorf("%w: activated missing SPS %d", ErrMissingReference, pps.SeqParameterSetID)
	}
	ps.activeSPS = sps
	return nil
}

// ActiveSPS 当前激活的 SPS，可能为 nil
func (ps *ParamSets) ActiveSPS() *SPS { return ps.activeSPS }

// ActivePPS 当前激活的 PPS，可能为 nil
func (ps *ParamSets) ActivePPS() *PPS { return ps.activePPS }

// SPS 返回指定 id 的 SPS
func (ps *ParamSets) SPS(id uint32) (*SPS, bool) {
	sps, ok := ps.spss[id]
	return sps, ok
}

// PPS 返回指定 id 的 PPS
func (ps *ParamSets) PPS(id uint32) (*PPS, bool) {
	pps, ok := ps.ppss[id]
	return pps, ok
}
