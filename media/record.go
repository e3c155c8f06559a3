// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"github.com/cnotch/avcsei/av/codec/h264/sei"
)

// Record 一条提取结果，输出时编码为一行 JSON
type Record struct {
	Path      string      `json:"path,omitempty"`      // 流路径
	AU        int64       `json:"au"`                  // 访问单元序号，从 0 开始
	Timestamp *uint32     `json:"timestamp,omitempty"` // RTP 时间戳，Annex-B 输入时没有
	NTP       int64       `json:"ntp,omitempty"`       // 由 RTCP SR 换算的绝对时间，纳秒
	Type      string      `json:"type"`                // 消息类型名
	Message   sei.Message `json:"message"`
}

func newRecord(path string, au int64, ts *uint32, ntp int64, msg sei.Message) *Record {
	return &Record{
		Path:      path,
		AU:        au,
		Timestamp: ts,
		NTP:       ntp,
		Type:      msg.PayloadType().String(),
		Message:   msg,
	}
}
