// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/cnotch/avcsei/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startCode = "00000001"
	// 1280x720，VUI 中 pic_struct_present_flag 为 1，无 HRD
	spsHex    = "6764001fad84010c20086100430802184010c200843b502802dd35010101400145d8c04c4b4025"
	ppsHex    = "68ee3cb0"
	idrHex    = "6588d540" // pps 0
	sliceHex  = "419b55"   // 非 IDR，pps 0
	badSEIHex = "060500"   // 缺少 rbsp 结束字节
)

// picTimingSEI 返回携带 n_frames 的 pic_timing SEI NAL 单元
func picTimingSEI(nFrames string) string {
	return "0601090806" + nFrames + "20f98000004080"
}

func annexB(t *testing.T, nalus ...string) []byte {
	var s string
	for _, nalu := range nalus {
		s += startCode + nalu
	}
	return mustHex(t, s)
}

func x264OptionsNALU(t *testing.T) []byte {
	data, err := base64.StdEncoding.DecodeString(x264OptionsSEI)
	require.NoError(t, err)
	return data
}

func newTestExtractor(t *testing.T, opts Options) *Extractor {
	e, err := NewExtractor(opts)
	require.NoError(t, err)
	return e
}

func TestExtractor_PicTimingStream(t *testing.T) {
	parent := stats.NewExtraction()
	e, err := NewExtractor(Options{EnablePicTiming: true, Strict: true},
		Stats(stats.NewChildExtraction(parent)))
	require.NoError(t, err)

	msgs, err := e.ProcessAU(annexB(t, spsHex, ppsHex, idrHex))
	require.NoError(t, err)
	assert.Empty(t, msgs)
	require.NotNil(t, e.ParamSets().ActiveSPS())
	assert.Equal(t, 1280, e.ParamSets().ActiveSPS().Width())

	for _, n := range []uint8{14, 15, 16} {
		au := annexB(t, picTimingSEI(hexByte(n)), sliceHex)

		msgs, err := e.ProcessAU(au)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, &PictureTiming{
			PicStructPresent: true,
			PicStruct:        PicStructProgressive,
			Timestamps:       []*ClockTimestamp{fullTimestamp(n)},
		}, msgs[0])
	}

	sample := e.Stats().GetSample()
	assert.Equal(t, int64(4), sample.AccessUnits)
	assert.Equal(t, int64(9), sample.NALUs)
	assert.Equal(t, int64(3), sample.Messages)
	assert.Zero(t, sample.Errors)
	assert.Equal(t, sample, parent.GetSample())
}

func hexByte(b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

func TestExtractor_UserData(t *testing.T) {
	au := append(mustHex(t, startCode), x264OptionsNALU(t)...)
	au = append(au, annexB(t, idrHex)...)

	t.Run("default options", func(t *testing.T) {
		e := newTestExtractor(t, DefaultOptions())
		msgs, err := e.ProcessAU(au)
		require.NoError(t, err)
		require.Len(t, msgs, 1)

		ud, ok := msgs[0].(*UserDataUnregistered)
		require.True(t, ok)
		assert.Equal(t, X264OptionsUUID, ud.UUID)
		assert.Equal(t, x264Options, ud.Text())
	})

	t.Run("zero options", func(t *testing.T) {
		for _, opts := range []Options{{}, {EnablePicTiming: true}} {
			e := newTestExtractor(t, opts)
			msgs, err := e.ProcessAU(au)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.Equal(t, TypeUserDataUnregistered, msgs[0].PayloadType())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		e := newTestExtractor(t, Options{DisableUserDataUnregistered: true})
		msgs, err := e.ProcessAU(au)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("sibling messages isolated", func(t *testing.T) {
		// 第一条 user_data_unregistered 不足 16 字节
		uuid := "101112131415161718191a1b1c1d1e1f"
		nalu := "06" + "0502aabb" + "0511" + uuid + "41" + "80"

		e := newTestExtractor(t, DefaultOptions())
		msgs, err := e.ProcessAU(annexB(t, nalu))
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, []byte("A"), msgs[0].(*UserDataUnregistered).Data)
		assert.Equal(t, int64(1), e.Stats().GetSample().Errors)

		e = newTestExtractor(t, Options{Errors: ErrorsThrow})
		_, err = e.ProcessAU(annexB(t, nalu))
		var xerr *ExtractError
		require.True(t, errors.As(err, &xerr))
		assert.Equal(t, ContextMessage, xerr.Context)
		assert.ErrorIs(t, err, h264.ErrUnexpectedEOF)
	})
}

func TestExtractor_ByteStreamErrors(t *testing.T) {
	au := append([]byte{0xff}, annexB(t, picTimingSEI("0e"))...)
	au = append(au, annexB(t, "0601")...)

	t.Run("log", func(t *testing.T) {
		e := newTestExtractor(t, DefaultOptions())
		msgs, err := e.ProcessAU(au)
		assert.NoError(t, err)
		assert.Empty(t, msgs)
		// 前导数据及 SEI RBSP 不对齐
		assert.Equal(t, int64(2), e.Stats().GetSample().Errors)
	})

	t.Run("throw", func(t *testing.T) {
		e := newTestExtractor(t, Options{Errors: ErrorsThrow})
		_, err := e.ProcessAU(au)
		var xerr *ExtractError
		require.True(t, errors.As(err, &xerr))
		assert.Equal(t, ContextByteStream, xerr.Context)
		assert.ErrorIs(t, err, h264.ErrLeadingData)
	})

	t.Run("bad sei rbsp", func(t *testing.T) {
		e := newTestExtractor(t, Options{Errors: ErrorsThrow})
		_, err := e.ProcessAU(annexB(t, badSEIHex))
		var xerr *ExtractError
		require.True(t, errors.As(err, &xerr))
		assert.Equal(t, ContextNALU, xerr.Context)
		assert.ErrorIs(t, err, h264.ErrInvalidAlignment)
	})

	t.Run("unsupported nalu", func(t *testing.T) {
		e := newTestExtractor(t, Options{Errors: ErrorsThrow})
		_, err := e.ProcessAU(annexB(t, "6e00"))
		assert.ErrorIs(t, err, h264.ErrUnimplemented)
	})
}

func TestExtractor_MutedUntilSPS(t *testing.T) {
	e := newTestExtractor(t, Options{EnablePicTiming: true, Errors: ErrorsThrow})

	// 从码流中间开始，尚无参数集
	msgs, err := e.ProcessAU(annexB(t, picTimingSEI("0e"), sliceHex))
	assert.NoError(t, err)
	assert.Empty(t, msgs)
	sample := e.Stats().GetSample()
	assert.Equal(t, int64(2), sample.Muted) // 片引用缺失的 PPS，pic_timing 缺少激活的 SPS
	assert.Zero(t, sample.Errors)

	_, err = e.ProcessAU(annexB(t, spsHex, ppsHex, idrHex))
	require.NoError(t, err)

	msgs, err = e.ProcessAU(annexB(t, picTimingSEI("0f"), sliceHex))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, uint8(15), msgs[0].(*PictureTiming).Timestamps[0].NFrames)
}

func TestExtractor_MissingParamSets(t *testing.T) {
	t.Run("missing pps", func(t *testing.T) {
		e := newTestExtractor(t, Options{EnablePicTiming: true, Errors: ErrorsThrow})
		_, err := e.ProcessAU(annexB(t, spsHex, idrHex))
		var xerr *ExtractError
		require.True(t, errors.As(err, &xerr))
		assert.Equal(t, ContextPSManager, xerr.Context)
		assert.ErrorIs(t, err, h264.ErrMissingReference)
	})

	t.Run("missing active sps", func(t *testing.T) {
		e := newTestExtractor(t, Options{EnablePicTiming: true, Errors: ErrorsThrow})
		require.NoError(t, e.PrimeParameterSets(mustHex(t, spsHex)))

		_, err := e.ProcessAU(annexB(t, picTimingSEI("0e")))
		var xerr *ExtractError
		require.True(t, errors.As(err, &xerr))
		assert.Equal(t, ContextMissingPS, xerr.Context)
		assert.ErrorIs(t, err, h264.ErrMissingReference)
		assert.Equal(t, int64(1), e.Stats().GetSample().Errors)
	})

	t.Run("log", func(t *testing.T) {
		e := newTestExtractor(t, Options{EnablePicTiming: true})
		require.NoError(t, e.PrimeParameterSets(mustHex(t, spsHex)))

		msgs, err := e.ProcessAU(annexB(t, picTimingSEI("0e")))
		assert.NoError(t, err)
		assert.Empty(t, msgs)
		assert.Equal(t, int64(1), e.Stats().GetSample().Errors)
	})
}

func TestExtractor_PrimeParameterSets(t *testing.T) {
	e := newTestExtractor(t, Options{EnablePicTiming: true})
	require.NoError(t, e.PrimeParameterSets(mustHex(t, spsHex), mustHex(t, ppsHex)))

	_, ok := e.ParamSets().PPS(0)
	assert.True(t, ok)

	msgs, err := e.ProcessAU(annexB(t, picTimingSEI("10"), idrHex))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, fullTimestamp(16), msgs[0].(*PictureTiming).Timestamps[0])

	var xerr *ExtractError
	err = e.PrimeParameterSets([]byte{})
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ContextByteStream, xerr.Context)

	err = e.PrimeParameterSets(mustHex(t, "67"))
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ContextPSManager, xerr.Context)
}

func TestExtractor_ForceCpbDpbDelays(t *testing.T) {
	e := newTestExtractor(t, Options{EnablePicTiming: true, ForceCpbDpbDelaysPresent: true, Errors: ErrorsThrow})

	// 两个 24 位延迟 (1, 2) 之后是 pic_struct 与时间戳，000001/000002 已插入防竞争字节
	nalu := "0601" + "0f" + "00000301" + "00000302" + "08060e20f980000040" + "80"
	_, err := e.ProcessAU(annexB(t, spsHex, ppsHex, idrHex))
	require.NoError(t, err)

	msgs, err := e.ProcessAU(annexB(t, nalu, sliceHex))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	pt := msgs[0].(*PictureTiming)
	assert.True(t, pt.CpbDpbDelaysPresent)
	assert.Equal(t, uint32(1), pt.CpbRemovalDelay)
	assert.Equal(t, uint32(2), pt.DpbOutputDelay)
	assert.Equal(t, fullTimestamp(14), pt.Timestamps[0])
}

func TestNewExtractor(t *testing.T) {
	_, err := NewExtractor(Options{Errors: "panic"})
	assert.Error(t, err)

	e, err := NewExtractor(Options{})
	require.NoError(t, err)
	assert.Equal(t, ErrorsLog, e.Options().Errors)
	assert.NotNil(t, e.Stats())

	opts := DefaultOptions()
	assert.False(t, opts.DisableUserDataUnregistered)
	assert.False(t, opts.EnablePicTiming)
	assert.Equal(t, ErrorsLog, opts.Errors)
}

func TestExtractor_LogRate(t *testing.T) {
	e, err := NewExtractor(DefaultOptions(), LogRate(1))
	require.NoError(t, err)
	require.NotNil(t, e.limit)

	// 日志被限流，错误仍然计数
	for i := 0; i < 5; i++ {
		_, err := e.ProcessAU(annexB(t, badSEIHex))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(5), e.Stats().GetSample().Errors)

	e, err = NewExtractor(DefaultOptions(), LogRate(0))
	require.NoError(t, err)
	assert.Nil(t, e.limit)
}
