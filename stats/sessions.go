// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// 全局变量
var (
	Sessions = NewSessions()   // 接入会话统计
	Total    = NewExtraction() // 全部流的提取统计
)

// SessionsSample 接入会话计数采样
type SessionsSample struct {
	Total    int64 `json:"total"`    // 累计会话数
	Active   int64 `json:"active"`   // 当前活动会话数
	Rejected int64 `json:"rejected"` // 因访问限制被拒绝的会话数
	Failed   int64 `json:"failed"`   // 异常结束的会话数
}

// SessionCounter 接入会话统计
type SessionCounter interface {
	Open() int64           // 会话开始，返回当前活动数
	Close(err error) int64 // 会话结束，err 非 nil 计为失败
	Reject()               // 会话被拒绝
	GetSample() SessionsSample
}

type sessions struct {
	sample SessionsSample
}

// NewSessions 新建会话计数
func NewSessions() SessionCounter {
	return &sessions{}
}

func (s *sessions) Open() int64 {
	atomic.AddInt64(&s.sample.Total, 1)
	return atomic.AddInt64(&s.sample.Active, 1)
}

func (s *sessions) Close(err error) int64 {
	if err != nil {
		atomic.AddInt64(&s.sample.Failed, 1)
	}
	return atomic.AddInt64(&s.sample.Active, -1)
}

func (s *sessions) Reject() {
	atomic.AddInt64(&s.sample.Rejected, 1)
}

func (s *sessions) GetSample() SessionsSample {
	return SessionsSample{
		Total:    atomic.LoadInt64(&s.sample.Total),
		Active:   atomic.LoadInt64(&s.sample.Active),
		Rejected: atomic.LoadInt64(&s.sample.Rejected),
		Failed:   atomic.LoadInt64(&s.sample.Failed),
	}
}
