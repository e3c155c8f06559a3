// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"errors"

	"github.com/cnotch/avcsei/utils/bits"
)

// 解析错误，使用 errors.Is 判断类型
var (
	ErrUnexpectedEOF         = bits.ErrUnexpectedEOF
	ErrInvalidArgument       = bits.ErrInvalidArgument
	ErrTrailingBitsInvalid   = errors.New("h264: invalid rbsp trailing bits")
	ErrInvalidAlignment      = errors.New("h264: invalid alignment")
	ErrInvalidID             = errors.New("h264: invalid parameter set id")
	ErrMissingReference      = errors.New("h264: missing parameter set reference")
	ErrUnimplemented         = errors.New("h264: unimplemented")
	ErrInvalidSliceGroupType = errors.New("h264: invalid slice_group_map_type")
	ErrInvalidPicStruct      = errors.New("h264: invalid pic_struct")
	ErrLeadingData           = errors.New("h264: byte stream contains leading data")
)
