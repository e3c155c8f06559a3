// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spsHex = "6764001fad84010c20086100430802184010c200843b502802dd35010101400145d8c04c4b4025"

func spsRBSP(t *testing.T, naluHex string) []byte {
	data, err := hex.DecodeString(naluHex)
	require.NoError(t, err)
	nalu, err := ParseNALU(data)
	require.NoError(t, err)
	require.Equal(t, uint8(0), nalu.ForbiddenZeroBit)
	require.Equal(t, uint8(NalSps), nalu.NalUnitType)
	return DecodeRBSP(nalu.RBSP)
}

func TestParseSPS(t *testing.T) {
	sps, err := ParseSPS(spsRBSP(t, spsHex))
	require.NoError(t, err)

	assert.Equal(t, uint8(100), sps.ProfileIdc)
	assert.Equal(t, uint8(0), sps.ProfileCompatibility)
	assert.Equal(t, uint8(31), sps.LevelIdc)
	assert.Equal(t, uint32(0), sps.SeqParameterSetID)

	require.NotNil(t, sps.FormatExt)
	assert.Equal(t, uint32(1), sps.FormatExt.ChromaFormatIdc)
	assert.False(t, sps.FormatExt.SeparateColourPlaneFlag)
	assert.Equal(t, uint32(0), sps.FormatExt.BitDepthLumaMinus8)
	assert.Equal(t, uint32(0), sps.FormatExt.BitDepthChromaMinus8)
	require.NotNil(t, sps.FormatExt.SeqScalingMatrix)
	m := sps.FormatExt.SeqScalingMatrix
	require.Len(t, m.ScalingList4x4, 6)
	for _, list := range m.ScalingList4x4 {
		require.NotNil(t, list)
		assert.False(t, list.UseDefaultScalingMatrix)
		require.Len(t, list.Coefficients, 16)
		for _, c := range list.Coefficients {
			assert.Equal(t, 16, c)
		}
	}
	assert.Equal(t, []*ScalingList{nil, nil}, m.ScalingList8x8)

	assert.Equal(t, uint32(6), sps.Log2MaxFrameNumMinus4)
	assert.Equal(t, uint32(2), sps.PicOrderCntType)
	assert.Nil(t, sps.PicOrderCntCycle)
	assert.Equal(t, uint32(1), sps.MaxNumRefFrames)
	assert.True(t, sps.GapsInFrameNumValueAllowedFlag)
	assert.Equal(t, uint32(79), sps.PicWidthInMbsMinus1)
	assert.Equal(t, uint32(44), sps.PicHeightInMapUnitsMinus1)
	assert.True(t, sps.FrameMbsOnlyFlag)
	assert.True(t, sps.Direct8x8InferenceFlag)
	assert.Nil(t, sps.FrameCropping)

	require.NotNil(t, sps.VUI)
	vui := sps.VUI
	assert.Nil(t, vui.AspectRatioInfo)
	assert.Nil(t, vui.OverscanInfo)
	assert.Equal(t, &VideoSignalType{
		VideoFormat:       5,
		ColourDescription: &ColourDescription{1, 1, 1},
	}, vui.VideoSignalType)
	assert.Nil(t, vui.ChromaLocInfo)
	assert.Equal(t, &TimingInfo{333667, 20000000, true}, vui.TimingInfo)
	assert.Nil(t, vui.NalHrdParameters)
	assert.Nil(t, vui.VclHrdParameters)
	assert.False(t, vui.LowDelayHrdFlag)
	assert.True(t, vui.PicStructPresentFlag)
	assert.Nil(t, vui.BitstreamRestriction)

	assert.Equal(t, 1280, sps.Width())
	assert.Equal(t, 720, sps.Height())
	assert.InDelta(t, 29.97, sps.FrameRate(), 0.01)
	assert.Equal(t, uint32(1), sps.ChromaFormatIdc())
}

func TestSPS_DecodeString(t *testing.T) {
	tests := []struct {
		name   string
		b64    string
		wantW  int
		wantH  int
		wantFR float64
	}{
		{
			"base64_1",
			"Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==",
			1280,
			720,
			30,
		},
		{
			"base64_2",
			"Z3oAH7y0AoAt0IAAAAMAgAAAHkeMGVA=",
			1280,
			720,
			30,
		},
		{
			"base64_3",
			"Z2QAM6wspADwAQ+wFSAgICgAAB9IAAdTBO0LFok=",
			3840,
			2160,
			float64(60000) / float64(1001*2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sps := &SPS{}
			require.NoError(t, sps.DecodeString(tt.b64))
			assert.Equal(t, tt.wantW, sps.Width())
			assert.Equal(t, tt.wantH, sps.Height())
			assert.Equal(t, tt.wantFR, sps.FrameRate())
			assert.True(t, sps.IsFixedFrameRate())
		})
	}
}

func TestSPS_DecodeStringFields(t *testing.T) {
	sps := &SPS{}
	require.NoError(t, sps.DecodeString("Z3oAH7y0AoAt0IAAAAMAgAAAHkeMGVA="))
	assert.Equal(t, uint8(122), sps.ProfileIdc)
	assert.Equal(t, uint32(2), sps.ChromaFormatIdc())
	require.NotNil(t, sps.VUI.BitstreamRestriction)
	assert.Equal(t, &BitstreamRestriction{
		MotionVectorsOverPicBoundariesFlag: true,
		Log2MaxMvLengthHorizontal:          11,
		Log2MaxMvLengthVertical:            11,
		MaxNumReorderFrames:                0,
		MaxDecFrameBuffering:               1,
	}, sps.VUI.BitstreamRestriction)

	require.NoError(t, sps.DecodeString("Z2QAM6wspADwAQ+wFSAgICgAAB9IAAdTBO0LFok="))
	assert.Equal(t, uint8(51), sps.LevelIdc)
	assert.Equal(t, uint32(0), sps.PicOrderCntType)
	assert.Equal(t, uint32(4), sps.Log2MaxPicOrderCntLsbMinus4)
	assert.Equal(t, &AspectRatioInfo{AspectRatioIdc: 1}, sps.VUI.AspectRatioInfo)
	assert.True(t, sps.VUI.PicStructPresentFlag)
}

func TestSPS_DecodeStringNotSps(t *testing.T) {
	sps := &SPS{}
	// 68ee3cb0: PPS
	err := sps.DecodeString("aO48sA==")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseSPS_Failures(t *testing.T) {
	rbsp := spsRBSP(t, spsHex)

	t.Run("empty", func(t *testing.T) {
		_, err := ParseSPS(nil)
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("truncated", func(t *testing.T) {
		for n := 0; n < len(rbsp)-1; n++ {
			_, err := ParseSPS(rbsp[:n])
			assert.Error(t, err, "len %d", n)
		}
	})

	t.Run("trailing garbage", func(t *testing.T) {
		data := append(append([]byte{}, rbsp...), 0x80)
		_, err := ParseSPS(data)
		assert.ErrorIs(t, err, ErrTrailingBitsInvalid)
	})

	t.Run("missing stop bit", func(t *testing.T) {
		data := append([]byte{}, rbsp...)
		data[len(data)-1] &^= 0x01
		_, err := ParseSPS(data)
		assert.ErrorIs(t, err, ErrTrailingBitsInvalid)
	})
}

func TestValidateSPSID(t *testing.T) {
	assert.NoError(t, ValidateSPSID(0))
	assert.NoError(t, ValidateSPSID(31))
	assert.ErrorIs(t, ValidateSPSID(32), ErrInvalidID)
	assert.ErrorIs(t, ValidateSPSID(0xFFFFFFFF), ErrInvalidID)
}

func TestSPS_Cropping(t *testing.T) {
	sps := &SPS{
		PicWidthInMbsMinus1:       119,
		PicHeightInMapUnitsMinus1: 67,
		FrameMbsOnlyFlag:          true,
		FrameCropping:             &FrameCropping{BottomOffset: 4},
	}
	assert.Equal(t, 1920, sps.Width())
	assert.Equal(t, 1080, sps.Height())

	sps.FrameMbsOnlyFlag = false
	sps.PicHeightInMapUnitsMinus1 = 33
	sps.FrameCropping.BottomOffset = 2
	assert.Equal(t, 1080, sps.Height())

	sps.FormatExt = &SPSFormatExt{ChromaFormatIdc: 3}
	sps.FrameCropping = &FrameCropping{LeftOffset: 2, RightOffset: 2}
	assert.Equal(t, 1916, sps.Width())
}
