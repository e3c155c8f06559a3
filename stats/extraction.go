// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// ExtractionSample SEI 提取统计采样
type ExtractionSample struct {
	InBytes     int64 `json:"inbytes"`     // 输入的字节数
	AccessUnits int64 `json:"accessunits"` // 处理的访问单元数
	NALUs       int64 `json:"nalus"`       // 处理的 NAL 单元数
	Messages    int64 `json:"messages"`    // 提取的 SEI 消息数
	Errors      int64 `json:"errors"`      // 报告的错误数
	Muted       int64 `json:"muted"`       // 首个 SPS 之前被忽略的错误数
}

// Extraction 提取统计接口，可被多个 goroutine 并发读取
type Extraction interface {
	AddAccessUnit(size int64)    // 增加一个访问单元及其字节数
	AddNALUs(n int64)            // 增加 NAL 单元
	AddMessages(n int64)         // 增加提取的消息
	AddError()                   // 增加报告的错误
	AddMuted()                   // 增加被忽略的错误
	GetSample() ExtractionSample // 获取当前时点采样
}

func (s *ExtractionSample) clone() ExtractionSample {
	return ExtractionSample{
		InBytes:     atomic.LoadInt64(&s.InBytes),
		AccessUnits: atomic.LoadInt64(&s.AccessUnits),
		NALUs:       atomic.LoadInt64(&s.NALUs),
		Messages:    atomic.LoadInt64(&s.Messages),
		Errors:      atomic.LoadInt64(&s.Errors),
		Muted:       atomic.LoadInt64(&s.Muted),
	}
}

// Add 采样累加
func (s *ExtractionSample) Add(o ExtractionSample) {
	s.InBytes += o.InBytes
	s.AccessUnits += o.AccessUnits
	s.NALUs += o.NALUs
	s.Messages += o.Messages
	s.Errors += o.Errors
	s.Muted += o.Muted
}

type extraction struct {
	sample ExtractionSample
}

// NewExtraction 创建提取统计
func NewExtraction() Extraction {
	return &extraction{}
}

func (e *extraction) AddAccessUnit(size int64) {
	atomic.AddInt64(&e.sample.AccessUnits, 1)
	atomic.AddInt64(&e.sample.InBytes, size)
}

func (e *extraction) AddNALUs(n int64) {
	atomic.AddInt64(&e.sample.NALUs, n)
}

func (e *extraction) AddMessages(n int64) {
	atomic.AddInt64(&e.sample.Messages, n)
}

func (e *extraction) AddError() {
	atomic.AddInt64(&e.sample.Errors, 1)
}

func (e *extraction) AddMuted() {
	atomic.AddInt64(&e.sample.Muted, 1)
}

func (e *extraction) GetSample() ExtractionSample {
	return e.sample.clone()
}

type childExtraction struct {
	extraction
	parent Extraction
}

// NewChildExtraction 创建子提取统计，它会把自己的计数累加到 parent 上
func NewChildExtraction(parent Extraction) Extraction {
	return &childExtraction{
		parent: parent,
	}
}

func (e *childExtraction) AddAccessUnit(size int64) {
	e.extraction.AddAccessUnit(size)
	e.parent.AddAccessUnit(size)
}

func (e *childExtraction) AddNALUs(n int64) {
	e.extraction.AddNALUs(n)
	e.parent.AddNALUs(n)
}

func (e *childExtraction) AddMessages(n int64) {
	e.extraction.AddMessages(n)
	e.parent.AddMessages(n)
}

func (e *childExtraction) AddError() {
	e.extraction.AddError()
	e.parent.AddError()
}

func (e *childExtraction) AddMuted() {
	e.extraction.AddMuted()
	e.parent.AddMuted()
}
