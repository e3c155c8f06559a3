// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import (
	"encoding/json"
	"testing"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pic_struct 0，一个完整时间戳 19:15:08，n_frames 14
const picTiming14 = "08060e20f980000040"

func fullTimestamp(nFrames uint8) *ClockTimestamp {
	return &ClockTimestamp{
		FullTimestampFlag: true,
		DiscontinuityFlag: true,
		NFrames:           nFrames,
		SecondsFlag:       true,
		SecondsValue:      8,
		MinutesFlag:       true,
		MinutesValue:      15,
		HoursFlag:         true,
		HoursValue:        19,
	}
}

var picStructOnly = PictureTimingOptions{
	CpbRemovalDelayLengthMinus1: 23,
	DpbOutputDelayLengthMinus1:  23,
	PicStructPresentFlag:        true,
	TimeOffsetLength:            24,
}

func TestParsePictureTiming(t *testing.T) {
	want := &PictureTiming{
		PicStructPresent: true,
		PicStruct:        PicStructProgressive,
		Timestamps:       []*ClockTimestamp{fullTimestamp(14)},
	}

	for _, strict := range []bool{false, true} {
		opts := picStructOnly
		opts.Strict = strict
		pt, err := ParsePictureTiming(mustHex(t, picTiming14), opts)
		require.NoError(t, err, "strict %v", strict)
		assert.Equal(t, want, pt)
		assert.Equal(t, TypePicTiming, pt.PayloadType())
	}
}

func TestParsePictureTiming_Cascading(t *testing.T) {
	// pic_struct 3: 第一个时间戳缺失，第二个只有秒和分
	pt, err := ParsePictureTiming(mustHex(t, "35908efb8e000005"), PictureTimingOptions{
		PicStructPresentFlag: true,
		TimeOffsetLength:     24,
		Strict:               true,
	})
	require.NoError(t, err)
	assert.Equal(t, PicStructTopBottom, pt.PicStruct)
	require.Len(t, pt.Timestamps, 2)
	assert.Nil(t, pt.Timestamps[0])
	assert.Equal(t, &ClockTimestamp{
		CtType:             1,
		NuitFieldBasedFlag: true,
		CountingType:       4,
		CntDroppedFlag:     true,
		NFrames:            29,
		SecondsFlag:        true,
		SecondsValue:       59,
		MinutesFlag:        true,
		MinutesValue:       7,
		TimeOffset:         5,
	}, pt.Timestamps[1])
	assert.Equal(t, "00:07:59:29", pt.Timestamps[1].Timecode())
	assert.Equal(t, "00:07:59;29", pt.Timestamps[1].String())
}

func TestParsePictureTiming_Delays(t *testing.T) {
	pt, err := ParsePictureTiming(mustHex(t, "123456000010"), PictureTimingOptions{
		CpbDpbDelaysPresentFlag:     true,
		CpbRemovalDelayLengthMinus1: 23,
		DpbOutputDelayLengthMinus1:  23,
		Strict:                      true,
	})
	require.NoError(t, err)
	assert.Equal(t, &PictureTiming{
		CpbDpbDelaysPresent: true,
		CpbRemovalDelay:     0x123456,
		DpbOutputDelay:      0x10,
	}, pt)
}

func TestParsePictureTiming_Failures(t *testing.T) {
	t.Run("invalid pic_struct", func(t *testing.T) {
		_, err := ParsePictureTiming(mustHex(t, "90"), picStructOnly)
		assert.ErrorIs(t, err, h264.ErrInvalidPicStruct)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ParsePictureTiming(mustHex(t, "08060e"), picStructOnly)
		assert.ErrorIs(t, err, h264.ErrUnexpectedEOF)
	})

	t.Run("missing stop bit", func(t *testing.T) {
		payload := mustHex(t, picTiming14)
		payload = payload[:len(payload)-1]
		// 容错模式补一个 0 字节
		_, err := ParsePictureTiming(payload, picStructOnly)
		assert.NoError(t, err)

		strict := picStructOnly
		strict.Strict = true
		_, err = ParsePictureTiming(payload, strict)
		assert.ErrorIs(t, err, h264.ErrUnexpectedEOF)
	})

	t.Run("bad alignment bits", func(t *testing.T) {
		payload := mustHex(t, picTiming14)
		payload[len(payload)-1] |= 0x01

		_, err := ParsePictureTiming(payload, picStructOnly)
		assert.NoError(t, err)

		strict := picStructOnly
		strict.Strict = true
		_, err = ParsePictureTiming(payload, strict)
		assert.ErrorIs(t, err, h264.ErrTrailingBitsInvalid)
	})

	t.Run("trailing data", func(t *testing.T) {
		strict := picStructOnly
		strict.Strict = true
		_, err := ParsePictureTiming(mustHex(t, picTiming14+"00"), strict)
		assert.ErrorIs(t, err, h264.ErrTrailingBitsInvalid)
	})
}

func TestPictureTimingOptionsFromSPS(t *testing.T) {
	t.Run("no vui", func(t *testing.T) {
		assert.Equal(t, PictureTimingOptions{
			CpbRemovalDelayLengthMinus1: 23,
			DpbOutputDelayLengthMinus1:  23,
			TimeOffsetLength:            24,
		}, PictureTimingOptionsFromSPS(&h264.SPS{}))
	})

	t.Run("pic struct only", func(t *testing.T) {
		sps := &h264.SPS{VUI: &h264.VUI{PicStructPresentFlag: true}}
		assert.Equal(t, picStructOnly, PictureTimingOptionsFromSPS(sps))
	})

	t.Run("nal hrd preferred", func(t *testing.T) {
		sps := &h264.SPS{VUI: &h264.VUI{
			NalHrdParameters: &h264.HRD{
				CpbRemovalDelayLengthMinus1: 15,
				DpbOutputDelayLengthMinus1:  4,
				TimeOffsetLength:            0,
			},
			VclHrdParameters: &h264.HRD{CpbRemovalDelayLengthMinus1: 31},
		}}
		assert.Equal(t, PictureTimingOptions{
			CpbDpbDelaysPresentFlag:     true,
			CpbRemovalDelayLengthMinus1: 15,
			DpbOutputDelayLengthMinus1:  4,
		}, PictureTimingOptionsFromSPS(sps))
	})

	t.Run("vcl hrd", func(t *testing.T) {
		sps := &h264.SPS{VUI: &h264.VUI{
			VclHrdParameters: &h264.HRD{
				CpbRemovalDelayLengthMinus1: 31,
				DpbOutputDelayLengthMinus1:  31,
				TimeOffsetLength:            24,
			},
		}}
		opts := PictureTimingOptionsFromSPS(sps)
		assert.True(t, opts.CpbDpbDelaysPresentFlag)
		assert.Equal(t, uint8(31), opts.CpbRemovalDelayLengthMinus1)
	})
}

func TestPicStruct(t *testing.T) {
	assert.Equal(t, 1, PicStructProgressive.NumClockTS())
	assert.Equal(t, 2, PicStructTopBottom.NumClockTS())
	assert.Equal(t, 3, PicStructTripling.NumClockTS())
	assert.Equal(t, 0, PicStruct(9).NumClockTS())
	assert.Equal(t, "doubling", PicStructDoubling.String())
	assert.Equal(t, "PicStruct(12)", PicStruct(12).String())
}

func TestPictureTiming_JSONKeepsZeroValues(t *testing.T) {
	// 完整时间戳 00:00:00，n_frames 0
	pt, err := ParsePictureTiming(mustHex(t, "080200000000000000"), picStructOnly)
	require.NoError(t, err)
	require.Len(t, pt.Timestamps, 1)
	assert.Equal(t, "00:00:00:00", pt.Timestamps[0].Timecode())

	data, err := json.Marshal(pt)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"cpb_dpb_delays_present_flag": false,
		"cpb_removal_delay": 0,
		"dpb_output_delay": 0,
		"pic_struct_present_flag": true,
		"pic_struct": 0,
		"timestamps": [{
			"ct_type": 0,
			"nuit_field_based_flag": false,
			"counting_type": 0,
			"full_timestamp_flag": true,
			"discontinuity_flag": false,
			"cnt_dropped_flag": false,
			"n_frames": 0,
			"seconds_flag": true,
			"seconds_value": 0,
			"minutes_flag": true,
			"minutes_value": 0,
			"hours_flag": true,
			"hours_value": 0,
			"time_offset": 0
		}]
	}`, string(data))

	// 出现的零值延迟同样输出
	pt, err = ParsePictureTiming(mustHex(t, "000000000000"), PictureTimingOptions{
		CpbDpbDelaysPresentFlag:     true,
		CpbRemovalDelayLengthMinus1: 23,
		DpbOutputDelayLengthMinus1:  23,
	})
	require.NoError(t, err)
	data, err = json.Marshal(pt)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"cpb_dpb_delays_present_flag": true,
		"cpb_removal_delay": 0,
		"dpb_output_delay": 0,
		"pic_struct_present_flag": false,
		"pic_struct": 0
	}`, string(data))
}
