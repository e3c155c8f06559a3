// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import (
	"fmt"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/cnotch/avcsei/utils/bits"
)

// PicStruct pic_struct (Table D-1)
type PicStruct uint8

// pic_struct 取值
const (
	PicStructProgressive     PicStruct = iota // frame
	PicStructTop                              // top field
	PicStructBottom                           // bottom field
	PicStructTopBottom                        // top field, bottom field, in that order
	PicStructBottomTop                        // bottom field, top field, in that order
	PicStructTopBottomTop                     // top field, bottom field, top field repeated
	PicStructBottomTopBottom                  // bottom field, top field, bottom field repeated
	PicStructDoubling                         // frame doubling
	PicStructTripling                         // frame tripling
)

// 各 pic_struct 对应的 NumClockTS
var picStructNumClockTS = [...]int{1, 1, 1, 2, 2, 3, 3, 2, 3}

var picStructNames = [...]string{
	"progressive", "top", "bottom", "top_bottom", "bottom_top",
	"top_bottom_top", "bottom_top_bottom", "doubling", "tripling",
}

// NumClockTS 返回该 pic_struct 携带的时间戳个数，无效值返回 0
func (ps PicStruct) NumClockTS() int {
	if int(ps) < len(picStructNumClockTS) {
		return picStructNumClockTS[ps]
	}
	return 0
}

func (ps PicStruct) String() string {
	if int(ps) < len(picStructNames) {
		return picStructNames[ps]
	}
	return fmt.Sprintf("PicStruct(%d)", uint8(ps))
}

// PictureTimingOptions 解析 pic_timing 所需的、由激活 SPS 导出的变量
type PictureTimingOptions struct {
	CpbDpbDelaysPresentFlag     bool
	CpbRemovalDelayLengthMinus1 uint8
	DpbOutputDelayLengthMinus1  uint8
	PicStructPresentFlag        bool
	TimeOffsetLength            uint8
	// Strict 为 false 时容忍缺少结束位的编码器：在负载后补一个 0 字节，且不校验对齐位
	Strict bool
}

// PictureTimingOptionsFromSPS 从 SPS 的 VUI/HRD 导出选项；优先使用 NAL HRD。
// 缺少 HRD 时 CpbDpbDelaysPresentFlag 为 false，各长度取 24 位。
func PictureTimingOptionsFromSPS(sps *h264.SPS) PictureTimingOptions {
	opts := PictureTimingOptions{
		CpbRemovalDelayLengthMinus1: 23,
		DpbOutputDelayLengthMinus1:  23,
		TimeOffsetLength:            24,
	}

	vui := sps.VUI
	if vui == nil {
		return opts
	}
	opts.PicStructPresentFlag = vui.PicStructPresentFlag

	hrd := vui.NalHrdParameters
	if hrd == nil {
		hrd = vui.VclHrdParameters
	}
	if hrd != nil {
		opts.CpbDpbDelaysPresentFlag = true
		opts.CpbRemovalDelayLengthMinus1 = hrd.CpbRemovalDelayLengthMinus1
		opts.DpbOutputDelayLengthMinus1 = hrd.DpbOutputDelayLengthMinus1
		opts.TimeOffsetLength = hrd.TimeOffsetLength
	}
	return opts
}

// PictureTiming pic_timing SEI (D.1.3)
type PictureTiming struct {
	// CpbDpbDelaysPresentFlag 为真时出现
	CpbDpbDelaysPresent bool   `json:"cpb_dpb_delays_present_flag"`
	CpbRemovalDelay     uint32 `json:"cpb_removal_delay"`
	DpbOutputDelay      uint32 `json:"dpb_output_delay"`

	// pic_struct_present_flag 为真时出现
	PicStructPresent bool      `json:"pic_struct_present_flag"`
	PicStruct        PicStruct `json:"pic_struct"`
	// NumClockTS 项，clock_timestamp_flag 为 0 的项为 nil
	Timestamps []*ClockTimestamp `json:"timestamps,omitempty"`
}

// PayloadType implements Message.
func (*PictureTiming) PayloadType() PayloadType {
	return TypePicTiming
}

// ClockTimestamp pic_timing 中的一个时间戳
type ClockTimestamp struct {
	CtType             uint8 `json:"ct_type"`
	NuitFieldBasedFlag bool  `json:"nuit_field_based_flag"`
	CountingType       uint8 `json:"counting_type"`
	FullTimestampFlag  bool  `json:"full_timestamp_flag"`
	DiscontinuityFlag  bool  `json:"discontinuity_flag"`
	CntDroppedFlag     bool  `json:"cnt_dropped_flag"`
	NFrames            uint8 `json:"n_frames"`

	// FullTimestampFlag 为真时三者都出现，否则依次由各自的 flag 控制
	SecondsFlag  bool  `json:"seconds_flag"`
	SecondsValue uint8 `json:"seconds_value"`
	MinutesFlag  bool  `json:"minutes_flag"`
	MinutesValue uint8 `json:"minutes_value"`
	HoursFlag    bool  `json:"hours_flag"`
	HoursValue   uint8 `json:"hours_value"`

	TimeOffset uint32 `json:"time_offset"`
}

// Timecode 返回 hh:mm:ss:ff 形式的时间码，未出现的字段为 00
func (ts *ClockTimestamp) Timecode() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", ts.HoursValue, ts.MinutesValue, ts.SecondsValue, ts.NFrames)
}

// String 同 Timecode，丢帧计数时帧号前使用 ';'
func (ts *ClockTimestamp) String() string {
	sep := ':'
	if ts.CntDroppedFlag {
		sep = ';'
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%02d", ts.HoursValue, ts.MinutesValue, ts.SecondsValue, sep, ts.NFrames)
}

// ParsePictureTiming 解析 pic_timing 负载
func ParsePictureTiming(payload []byte, opts PictureTimingOptions) (*PictureTiming, error) {
	if !opts.Strict {
		tolerant := make([]byte, len(payload)+1)
		copy(tolerant, payload)
		payload = tolerant
	}

	p := &picTimingParser{r: bits.NewReader(payload), opts: &opts}
	pt := new(PictureTiming)

	if opts.CpbDpbDelaysPresentFlag {
		pt.CpbDpbDelaysPresent = true
		pt.CpbRemovalDelay = p.u(int(opts.CpbRemovalDelayLengthMinus1) + 1)
		pt.DpbOutputDelay = p.u(int(opts.DpbOutputDelayLengthMinus1) + 1)
	}

	if opts.PicStructPresentFlag {
		pt.PicStructPresent = true
		pt.PicStruct = PicStruct(p.u(4))
		if p.err == nil {
			n := pt.PicStruct.NumClockTS()
			if n == 0 {
				return nil, fmt.Errorf("%w: %d", h264.ErrInvalidPicStruct, pt.PicStruct)
			}
			pt.Timestamps = make([]*ClockTimestamp, n)
			for i := range pt.Timestamps {
				pt.Timestamps[i] = p.clockTimestamp()
			}
		}
	}

	if p.err != nil {
		return nil, p.err
	}
	if opts.Strict {
		if err := validatePayloadTrailing(p.r); err != nil {
			return nil, err
		}
	}
	return pt, nil
}

type picTimingParser struct {
	r    *bits.Reader
	opts *PictureTimingOptions
	err  error
}

func (p *picTimingParser) u(n int) uint32 {
	if p.err != nil {
		return 0
	}
	var v uint32
	v, p.err = p.r.Read(n)
	return v
}

func (p *picTimingParser) u8(n int) uint8 { return uint8(p.u(n)) }

func (p *picTimingParser) flag() bool { return p.u(1) == 1 }

func (p *picTimingParser) clockTimestamp() *ClockTimestamp {
	if !p.flag() { // clock_timestamp_flag
		return nil
	}

	ts := &ClockTimestamp{
		CtType:             p.u8(2),
		NuitFieldBasedFlag: p.flag(),
		CountingType:       p.u8(5),
		FullTimestampFlag:  p.flag(),
		DiscontinuityFlag:  p.flag(),
		CntDroppedFlag:     p.flag(),
		NFrames:            p.u8(8),
	}

	if ts.FullTimestampFlag {
		ts.SecondsFlag, ts.SecondsValue = true, p.u8(6)
		ts.MinutesFlag, ts.MinutesValue = true, p.u8(6)
		ts.HoursFlag, ts.HoursValue = true, p.u8(5)
	} else if ts.SecondsFlag = p.flag(); ts.SecondsFlag {
		ts.SecondsValue = p.u8(6)
		if ts.MinutesFlag = p.flag(); ts.MinutesFlag {
			ts.MinutesValue = p.u8(6)
			if ts.HoursFlag = p.flag(); ts.HoursFlag {
				ts.HoursValue = p.u8(5)
			}
		}
	}

	ts.TimeOffset = p.u(int(p.opts.TimeOffsetLength))
	return ts
}
