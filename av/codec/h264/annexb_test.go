// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexJoin(t *testing.T, parts ...string) []byte {
	return mustHex(t, strings.Join(parts, ""))
}

func hexAll(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = hex.EncodeToString(b)
	}
	return out
}

func TestSplitNALUs(t *testing.T) {
	tests := []struct {
		name    string
		stream  string
		leading string
		nalus   []string
	}{
		{"empty", "", "", nil},
		{"no start code", "6764", "6764", nil},
		{"two units with padding", "00000001" + "6764aa" + "0000" + "000001" + "68ee3cb0" + "000000", "", []string{"6764aa", "68ee3cb0"}},
		{"leading data", "ff00" + "000001" + "0605", "ff", []string{"0605"}},
		{"trailing zeros trimmed", "000001" + "65000100" + "000001" + "41", "", []string{"650001", "41"}},
		{"empty unit", "000001" + "000001" + "09f0", "", []string{"", "09f0"}},
		{"ends with start code", "000001" + "09f0" + "000001", "", []string{"09f0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leading, nalus := SplitNALUs(mustHex(t, tt.stream))
			assert.Equal(t, tt.leading, hex.EncodeToString(leading))
			if tt.nalus == nil {
				assert.Empty(t, nalus)
				return
			}
			assert.Equal(t, tt.nalus, hexAll(nalus))
		})
	}
}

func TestSplitNALUs_Views(t *testing.T) {
	stream := hexJoin(t, "000001", "6764", "000001", "68ee")
	_, nalus := SplitNALUs(stream)
	require.Len(t, nalus, 2)
	// 子切片，不复制
	nalus[0][1] = 0x42
	assert.Equal(t, byte(0x42), stream[4])
}

func TestSliceNALUs(t *testing.T) {
	nalus, err := SliceNALUs(hexJoin(t, "00000001", "0605", "000001", "65"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0605", "65"}, hexAll(nalus))

	_, err = SliceNALUs(hexJoin(t, "aa", "000001", "65"))
	assert.ErrorIs(t, err, ErrLeadingData)

	// 起始码之前只有 0 不算前导数据
	_, err = SliceNALUs(hexJoin(t, "0000", "000001", "65"))
	assert.NoError(t, err)
}

func TestSplitAccessUnits(t *testing.T) {
	stream := hexJoin(t,
		"00000001", "09f0", // AUD
		"000001", "6764",
		"000001", "68ee",
		"000001", "6588", // first_mb_in_slice = 0
		"000001", "6530", // first_mb_in_slice = 5
		"000001", "0605", // SEI after VCL
		"000001", "4188",
		"000001", "4188", // new primary picture
		"00000001", "09f0",
	)

	aus := SplitAccessUnits(stream)
	assert.Equal(t, []string{
		"0000000109f0" + "0000016764" + "00000168ee" + "0000016588" + "0000016530",
		"0000010605" + "0000014188",
		"0000014188",
		"0000000109f0",
	}, hexAll(aus))

	assert.Nil(t, SplitAccessUnits(nil))
	assert.Equal(t, []string{"aabb"}, hexAll(SplitAccessUnits(mustHex(t, "aabb"))))
}

func TestSplitAccessUnits_Leading(t *testing.T) {
	aus := SplitAccessUnits(hexJoin(t, "ff", "000001", "09f0", "000001", "6588", "000001", "09f0"))
	assert.Equal(t, []string{"ff00000109f00000016588", "00000109f0"}, hexAll(aus))
}

func TestParseNALU(t *testing.T) {
	nalu, err := ParseNALU(mustHex(t, "6588d540"))
	require.NoError(t, err)
	assert.Equal(t, NALUnitHeader{0, 3, NalIdrSlice}, nalu.NALUnitHeader)
	assert.Equal(t, "88d540", hex.EncodeToString(nalu.RBSP))

	assert.Equal(t, NALUnitHeader{1, 0, NalSei}, ParseNALUPrefix(0x86))
	assert.Equal(t, NALUnitHeader{0, 2, NalPps}, ParseNALUPrefix(0x48))

	_, err = ParseNALU(nil)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	for _, b := range []byte{0x0e, 0x14, 0x15} {
		_, err = ParseNALU([]byte{b, 0x00})
		assert.ErrorIs(t, err, ErrUnimplemented, "nal_unit_type %d", b)
	}
}

func TestNALUnitTypes(t *testing.T) {
	assert.True(t, IsSlice(0x65))
	assert.True(t, IsSlice(0x41))
	assert.True(t, IsSlice(0x02))
	assert.False(t, IsSlice(0x03))
	assert.True(t, IsVCL(0x03))
	assert.False(t, IsVCL(0x06))
	assert.True(t, IsSps(0x67))
	assert.True(t, IsPps(0x68))
	assert.True(t, IsSei(0x06))
}
