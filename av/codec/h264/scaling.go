// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"github.com/cnotch/avcsei/utils/bits"
)

// ScalingList 量化矩阵列表(7.3.2.1.1.1)
type ScalingList struct {
	Coefficients            []int // 16 或 64 项
	UseDefaultScalingMatrix bool
}

// ScalingMatrix 序列或图像级量化矩阵；未出现的列表为 nil
type ScalingMatrix struct {
	ScalingList4x4 []*ScalingList // 6 项
	ScalingList8x8 []*ScalingList // 2 或 6 项，PPS 未启用 8x8 变换时为 0 项
}

func parseScalingList(r *bits.Reader, size int) (*ScalingList, error) {
	list := &ScalingList{Coefficients: make([]int, size)}
	lastScale, nextScale := 8, 8
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			delta, err := r.ReadSe()
			if err != nil {
				return nil, err
			}
			nextScale = (lastScale + int(delta)) & 0xFF
			list.UseDefaultScalingMatrix = j == 0 && nextScale == 0
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
		list.Coefficients[j] = lastScale
	}
	return list, nil
}

// parseScalingMatrix SPS 与 PPS 共用；n8x8 为 8x8 列表数量
func parseScalingMatrix(r *bits.Reader, n8x8 int) (*ScalingMatrix, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}

	m := &ScalingMatrix{
		ScalingList4x4: make([]*ScalingList, 6),
		ScalingList8x8: make([]*ScalingList, n8x8),
	}
	for i := range m.ScalingList4x4 {
		if m.ScalingList4x4[i], err = parseOptionalScalingList(r, 16); err != nil {
			return nil, err
		}
	}
	for i := range m.ScalingList8x8 {
		if m.ScalingList8x8[i], err = parseOptionalScalingList(r, 64); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func parseOptionalScalingList(r *bits.Reader, size int) (*ScalingList, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	return parseScalingList(r, size)
}
