// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import (
	"fmt"
	"time"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/cnotch/avcsei/stats"
	"github.com/cnotch/xlog"
	"github.com/kelindar/rate"
)

// Options 提取选项，零值提取 user_data_unregistered 并记录错误日志
type Options struct {
	// DisableUserDataUnregistered 不提取 user_data_unregistered 消息
	DisableUserDataUnregistered bool `json:"nouserdata"`
	// EnablePicTiming 提取 pic_timing 消息，需要跟踪参数集
	EnablePicTiming bool `json:"pictiming"`
	// ForceCpbDpbDelaysPresent 即使 SPS 中没有 HRD，也认为 pic_timing 含 cpb/dpb 延迟字段
	ForceCpbDpbDelaysPresent bool `json:"forcecpbdpb"`
	// Errors 错误处理策略
	Errors ErrorPolicy `json:"errors"`
	// Strict 关闭对有缺陷编码器的容错
	Strict bool `json:"strict"`
}

// DefaultOptions 默认提取选项：只提取 user_data_unregistered，错误记录日志
func DefaultOptions() Options {
	return Options{Errors: ErrorsLog}
}

// Option 配置 Extractor 的选项接口
type Option interface {
	apply(*Extractor)
}

// optionFunc 包装函数以便它满足 Option 接口
type optionFunc func(*Extractor)

func (f optionFunc) apply(e *Extractor) {
	f(e)
}

// Logger 日志选项
func Logger(logger *xlog.Logger) Option {
	return optionFunc(func(e *Extractor) {
		e.logger = logger
	})
}

// Stats 统计选项，通常传入 stats.NewChildExtraction 的结果以便汇总
func Stats(s stats.Extraction) Option {
	return optionFunc(func(e *Extractor) {
		e.stats = s
	})
}

// LogRate 每秒最多记录 n 条错误日志，超出的只计数；n < 1 不限制
func LogRate(n int) Option {
	return optionFunc(func(e *Extractor) {
		if n < 1 {
			e.limit = nil
			return
		}
		e.limit = rate.New(n, time.Second)
	})
}

// Extractor 从访问单元中提取 SEI 消息。
// 访问单元须按解码顺序逐个送入；每路码流一个实例，非并发安全。
type Extractor struct {
	opts    Options
	ps      *h264.ParamSets
	seenSPS bool // 是否曾经见到过 SPS
	logger  *xlog.Logger
	limit   *rate.Limiter // 错误日志限流
	stats   stats.Extraction
}

// NewExtractor 创建提取器；未知的错误处理策略返回错误
func NewExtractor(opts Options, options ...Option) (*Extractor, error) {
	policy, err := ParseErrorPolicy(string(opts.Errors))
	if err != nil {
		return nil, err
	}
	opts.Errors = policy

	e := &Extractor{
		opts:   opts,
		ps:     h264.NewParamSets(),
		logger: xlog.L(),
	}
	for _, option := range options {
		option.apply(e)
	}
	if e.stats == nil {
		e.stats = stats.NewExtraction()
	}
	e.logger = e.logger.With(xlog.Fields(
		xlog.F("component", "sei"),
		xlog.F("errors", string(policy))))
	return e, nil
}

// Options 返回提取选项
func (e *Extractor) Options() Options { return e.opts }

// ParamSets 返回提取器跟踪的参数集
func (e *Extractor) ParamSets() *h264.ParamSets { return e.ps }

// Stats 返回提取统计
func (e *Extractor) Stats() stats.Extraction { return e.stats }

// PrimeParameterSets 预先加载带外传输的 SPS/PPS NAL 单元（如 SDP 的 sprop-parameter-sets）。
// 加载 SPS 视同已在码流中见到 SPS。
func (e *Extractor) PrimeParameterSets(nalus ...[]byte) error {
	for _, data := range nalus {
		nalu, err := h264.ParseNALU(data)
		if err != nil {
			return &ExtractError{Context: ContextByteStream, Err: err}
		}
		if nalu.NalUnitType == h264.NalSps {
			e.seenSPS = true
		}
		if _, err = e.ps.ProcessNALU(nalu); err != nil {
			return &ExtractError{Context: ContextPSManager, Err: err}
		}
	}
	return nil
}

// ProcessAU 处理下一个访问单元（Annex-B 字节流），返回按 NAL 单元及 RBSP 内顺序提取的消息。
// ErrorsThrow 策略下返回第一个 *ExtractError 并放弃该访问单元。
func (e *Extractor) ProcessAU(data []byte) ([]Message, error) {
	e.stats.AddAccessUnit(int64(len(data)))

	leading, units := h264.SplitNALUs(data)
	if len(leading) > 0 {
		if err := e.report(ContextByteStream,
			fmt.Errorf("%w: %d bytes", h264.ErrLeadingData, len(leading))); err != nil {
			return nil, err
		}
	}

	nalus := make([]h264.RawNALU, 0, len(units))
	for _, unit := range units {
		nalu, err := h264.ParseNALU(unit)
		if err != nil {
			if err = e.report(ContextByteStream, err); err != nil {
				return nil, err
			}
			continue
		}
		nalus = append(nalus, nalu)
	}
	e.stats.AddNALUs(int64(len(nalus)))

	// 本访问单元的激活 SPS 可能要到第一个片才能确定，
	// 因此在解析 SEI 之前先处理到第一个片为止的参数集
	if e.opts.EnablePicTiming {
		for _, nalu := range nalus {
			if nalu.NalUnitType == h264.NalSps {
				e.seenSPS = true
			}
			if _, err := e.ps.ProcessNALU(nalu); err != nil {
				if err = e.report(ContextPSManager, err); err != nil {
					return nil, err
				}
			}
			if h264.IsSlice(nalu.NalUnitType) {
				break
			}
		}
	}

	var msgs []Message
	for _, nalu := range nalus {
		if nalu.NalUnitType != h264.NalSei {
			continue
		}

		raws, err := ParseMessages(h264.DecodeRBSP(nalu.RBSP))
		if err != nil {
			if err = e.report(ContextNALU, err); err != nil {
				return nil, err
			}
			continue
		}

		for _, raw := range raws {
			msg, err := e.processMessage(raw)
			if err != nil {
				return nil, err
			}
			if msg != nil {
				msgs = append(msgs, msg)
			}
		}
	}

	e.stats.AddMessages(int64(len(msgs)))
	return msgs, nil
}

// processMessage 解码一条消息；返回的错误已经按策略处理过
func (e *Extractor) processMessage(raw RawMessage) (Message, error) {
	switch raw.Type {
	case TypeUserDataUnregistered:
		if e.opts.DisableUserDataUnregistered {
			return nil, nil
		}
		msg, err := ParseUserDataUnregistered(raw.Payload)
		if err != nil {
			return nil, e.report(ContextMessage, err)
		}
		return msg, nil

	case TypePicTiming:
		if !e.opts.EnablePicTiming {
			return nil, nil
		}
		opts, err := e.pictureTimingOptions()
		if err != nil {
			return nil, e.report(ContextMissingPS, err)
		}
		msg, err := ParsePictureTiming(raw.Payload, opts)
		if err != nil {
			return nil, e.report(ContextMessage, err)
		}
		return msg, nil
	}
	return nil, nil
}

func (e *Extractor) pictureTimingOptions() (PictureTimingOptions, error) {
	sps := e.ps.ActiveSPS()
	if sps == nil {
		return PictureTimingOptions{}, fmt.Errorf("%w: cannot parse picture timing, no active SPS",
			h264.ErrMissingReference)
	}

	opts := PictureTimingOptionsFromSPS(sps)
	if e.opts.ForceCpbDpbDelaysPresent {
		opts.CpbDpbDelaysPresentFlag = true
	}
	opts.Strict = e.opts.Strict
	return opts, nil
}

// report 按策略处理错误；返回非 nil 时调用方应放弃当前访问单元
func (e *Extractor) report(ctx Context, err error) error {
	xerr := &ExtractError{Context: ctx, Err: err}

	switch decide(ctx, e.seenSPS, e.opts.Errors) {
	case actionSwallow:
		e.stats.AddMuted()
		e.logger.Debugf("%v (no SPS seen yet)", xerr)
		return nil
	case actionRaise:
		e.stats.AddError()
		return xerr
	}

	e.stats.AddError()
	if e.limit != nil && e.limit.Limit() {
		return nil
	}
	if ctx.mutedUntilSPS() {
		e.logger.Errorf("%v", xerr)
	} else {
		e.logger.Warnf("%v", xerr)
	}
	return nil
}
