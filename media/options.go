// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"io"
	"strings"

	"github.com/cnotch/avcsei/av/codec/h264/sei"
	"github.com/cnotch/avcsei/stats"
	"github.com/cnotch/xlog"
)

// Option 配置 Stream 的选项接口
type Option interface {
	apply(*Stream)
}

// optionFunc 包装函数以便它满足 Option 接口
type optionFunc func(*Stream)

func (f optionFunc) apply(s *Stream) {
	f(s)
}

// Attr 流属性选项
func Attr(k, v string) Option {
	return optionFunc(func(s *Stream) {
		k := strings.ToLower(strings.TrimSpace(k))
		s.attrs[k] = v
	})
}

// Output 提取结果的输出，每条消息一行 JSON；不设置时只统计
func Output(w io.Writer) Option {
	return optionFunc(func(s *Stream) {
		s.out = w
	})
}

// Stats 流的提取统计，默认累加到 stats.Total
func Stats(e stats.Extraction) Option {
	return optionFunc(func(s *Stream) {
		s.stats = e
	})
}

// Logger 日志选项
func Logger(logger *xlog.Logger) Option {
	return optionFunc(func(s *Stream) {
		s.logger = logger
	})
}

// Extractor 传给 SEI 提取器的其他选项，如 sei.LogRate
func Extractor(options ...sei.Option) Option {
	return optionFunc(func(s *Stream) {
		s.seiOpts = append(s.seiOpts, options...)
	})
}
