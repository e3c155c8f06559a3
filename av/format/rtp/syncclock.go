// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"encoding/binary"
	"time"
)

const (
	jan1970 = 0x83aa7e80 // 1900 至 1970 的秒数

	rtcpSenderReport = 200
	srMinSize        = 20
)

// SyncClock 由 RTCP SR 建立的 RTP 时间戳与绝对时间的对应关系
type SyncClock struct {
	// NTP Timestamp（Network time protocol）SR包发送时的绝对时间值。
	// 前32位是从1900 年1 月1 日0 时开始的秒数，后32 位是小数部分；
	// 此处转换成 Unix 纳秒数，0 表示尚未收到 SR
	NTPTime int64
	// RTP Timestamp：与NTP时间戳对应，
	// 与RTP数据包中的RTP时间戳具有相同的单位和随机初始值。
	RTPTime     uint32
	RTPTimeUnit float64 // RTP时间单位，每个RTP时间的纳秒数
}

// NewSyncClock 根据 RTP 时钟频率创建同步时钟
func NewSyncClock(clockRate int) *SyncClock {
	if clockRate <= 0 {
		clockRate = DefaultVideoClockRate
	}
	return &SyncClock{RTPTimeUnit: float64(time.Second) / float64(clockRate)}
}

// Synced 是否已经收到 SR
func (sc *SyncClock) Synced() bool {
	return sc.NTPTime != 0
}

// Decode 解析复合 RTCP 包中的第一个 SR，不是 SR 时返回 false
func (sc *SyncClock) Decode(data []byte) (ok bool) {
	if len(data) < srMinSize || data[1] != rtcpSenderReport {
		return
	}

	msw := binary.BigEndian.Uint32(data[8:])
	lsw := binary.BigEndian.Uint32(data[12:])
	sc.RTPTime = binary.BigEndian.Uint32(data[16:])
	sc.NTPTime = int64(msw-jan1970)*int64(time.Second) + (int64(lsw)*1000_000_000)>>32
	return true
}

// AbsoluteNtp 将 RTP 时间戳换算为 Unix 纳秒
func (sc *SyncClock) AbsoluteNtp(rtptime uint32) int64 {
	diff := int64(int32(rtptime - sc.RTPTime))
	return sc.NTPTime + int64(float64(diff)*sc.RTPTimeUnit)
}
