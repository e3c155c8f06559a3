// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"errors"
	"fmt"

	"github.com/cnotch/avcsei/av/codec/h264"
)

// DefaultVideoClockRate H.264 的 RTP 时钟频率
const DefaultVideoClockRate = 90000

// 解包错误，出错的包被丢弃，解包器可以继续使用
var (
	ErrMalformedPacket   = errors.New("rtp: malformed h264 packet")
	ErrUnsupportedPacket = errors.New("rtp: unsupported h264 packet")
)

var startCode = []byte{0, 0, 0, 1}

// AccessUnit 由 RTP 包重组的访问单元
type AccessUnit struct {
	Timestamp uint32 // RTP 时间戳
	NTPTime   int64  // 收到 SR 后换算的 Unix 纳秒，否则为 0
	Data      []byte // Annex-B 字节流，每个 NAL 单元以 00000001 开头
}

// AccessUnitWriter 包装 WriteAccessUnit 方法的接口
type AccessUnitWriter interface {
	WriteAccessUnit(au *AccessUnit) error
}

// H264Depacketizer 将 RFC 6184 的 RTP 包（单 NAL、STAP-A、FU-A）重组为访问单元。
// 时间戳变化或 marker 位表示访问单元结束。非并发安全。
type H264Depacketizer struct {
	fragments []*Packet // 分片包
	nalus     [][]byte  // 当前访问单元的 NAL 单元
	timestamp uint32    // 当前访问单元的 RTP 时间戳
	syncClock *SyncClock
	w         AccessUnitWriter
}

// NewH264Depacketizer 实例化 H264 访问单元提取器
func NewH264Depacketizer(clockRate int, w AccessUnitWriter) *H264Depacketizer {
	return &H264Depacketizer{
		fragments: make([]*Packet, 0, 16),
		syncClock: NewSyncClock(clockRate),
		w:         w,
	}
}

// SyncClock 返回由 RTCP SR 建立的同步时钟
func (dp *H264Depacketizer) SyncClock() *SyncClock {
	return dp.syncClock
}

// Control 处理视频控制通道的 RTCP 包
func (dp *H264Depacketizer) Control(p *Packet) error {
	dp.syncClock.Decode(p.Data)
	return nil
}

// Depacketize 处理一个视频 RTP 包；
// 返回 ErrMalformedPacket 或 ErrUnsupportedPacket 时仅丢弃该包，其他错误来自 AccessUnitWriter
func (dp *H264Depacketizer) Depacketize(packet *Packet) (err error) {
	payload := packet.Payload()
	if len(payload) < 1 {
		return fmt.Errorf("%w: empty payload, seq %d", ErrMalformedPacket, packet.SequenceNumber)
	}

	if len(dp.nalus) > 0 && packet.Timestamp != dp.timestamp {
		if err = dp.Flush(); err != nil {
			return
		}
	}
	dp.timestamp = packet.Timestamp

	// +---------------+
	// |0|1|2|3|4|5|6|7|
	// +-+-+-+-+-+-+-+-+
	// |F|NRI|  Type   |
	// +---------------+
	naluType := payload[0] & h264.NalTypeBitmask

	switch {
	case naluType > h264.NalUnspecified && naluType < h264.NalStapaInRtp:
		// h264 原生 nal 包
		dp.nalus = append(dp.nalus, payload)
	case naluType == h264.NalStapaInRtp:
		err = dp.depacketizeStapa(packet)
	case naluType == h264.NalFuAInRtp:
		err = dp.depacketizeFuA(packet)
	default:
		err = fmt.Errorf("%w: nalu type %d is currently not handled", ErrUnsupportedPacket, naluType)
	}
	if err != nil {
		return
	}

	if packet.Marker {
		err = dp.Flush()
	}
	return
}

func (dp *H264Depacketizer) depacketizeStapa(packet *Packet) error {
	payload := packet.Payload()

	// 	0                   1                   2                   3
	// 	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	//  |STAP-A NAL HDR |         NALU 1 Size           | NALU 1 HDR    |
	//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	//  |                         NALU 1 Data                           |
	//  :                                                               :
	//  +               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	//  |               | NALU 2 Size                   | NALU 2 HDR    |
	//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	//  |                         NALU 2 Data                           |
	//  :                                                               :
	//  |                               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	//  |                               :...OPTIONAL RTP padding        |
	//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	var nalus [][]byte
	off := 1 // 跳过 STAP-A NAL HDR
	for off < len(payload) {
		if off+2 > len(payload) {
			return fmt.Errorf("%w: STAP-A size field truncated, seq %d", ErrMalformedPacket, packet.SequenceNumber)
		}
		nalSize := int(payload[off])<<8 | int(payload[off+1])
		off += 2
		if nalSize < 1 || off+nalSize > len(payload) {
			return fmt.Errorf("%w: STAP-A nalu size %d over %d bytes, seq %d",
				ErrMalformedPacket, nalSize, len(payload)-off, packet.SequenceNumber)
		}

		nalus = append(nalus, payload[off:off+nalSize])
		off += nalSize
	}

	// 整包校验通过后再加入
	dp.nalus = append(dp.nalus, nalus...)
	return nil
}

func (dp *H264Depacketizer) depacketizeFuA(packet *Packet) error {
	payload := packet.Payload()
	if len(payload) < 2 {
		return fmt.Errorf("%w: FU-A without header, seq %d", ErrMalformedPacket, packet.SequenceNumber)
	}

	// 	0                   1                   2                   3
	// 	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	//  | FU indicator  |   FU header   |                               |
	//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+                               |
	//  |                                                               |
	//  |                         FU payload                            |
	//  |                                                               |
	//  |                               +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	//  |                               :...OPTIONAL RTP padding        |
	//  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	// +---------------+
	// |0|1|2|3|4|5|6|7|
	// +-+-+-+-+-+-+-+-+
	// |S|E|R|  Type   |
	// +---------------+
	header := payload[0]
	fuHeader := payload[1]

	if (fuHeader>>7)&1 == 1 { // 第一个分片包
		dp.fragments = dp.fragments[:0]
	} else if len(dp.fragments) == 0 {
		return fmt.Errorf("%w: FU-A without start fragment, seq %d", ErrMalformedPacket, packet.SequenceNumber)
	}

	if len(dp.fragments) != 0 &&
		dp.fragments[len(dp.fragments)-1].SequenceNumber != packet.SequenceNumber-1 {
		// 丢包，放弃整个 NAL 单元
		dp.fragments = dp.fragments[:0]
		return fmt.Errorf("%w: FU-A packet loss before seq %d", ErrMalformedPacket, packet.SequenceNumber)
	}

	// 缓存片段
	dp.fragments = append(dp.fragments, packet)

	if (fuHeader>>6)&1 == 0 { // 不是最后一个片段
		return nil
	}

	naluLen := 1 // 计数 NAL 总长，初始为 NAL header
	for _, fragment := range dp.fragments {
		naluLen += len(fragment.Payload()) - 2
	}

	nalu := make([]byte, naluLen)
	nalu[0] = (header & 0xE0) | (fuHeader & 0x1F)
	offset := 1
	for _, fragment := range dp.fragments {
		offset += copy(nalu[offset:], fragment.Payload()[2:])
	}
	// 清空分片缓存
	dp.fragments = dp.fragments[:0]

	dp.nalus = append(dp.nalus, nalu)
	return nil
}

// Flush 输出已缓存的访问单元
func (dp *H264Depacketizer) Flush() error {
	if len(dp.nalus) == 0 {
		return nil
	}

	size := 0
	for _, nalu := range dp.nalus {
		size += len(startCode) + len(nalu)
	}
	data := make([]byte, 0, size)
	for _, nalu := range dp.nalus {
		data = append(data, startCode...)
		data = append(data, nalu...)
	}

	au := &AccessUnit{
		Timestamp: dp.timestamp,
		Data:      data,
	}
	if dp.syncClock.Synced() {
		au.NTPTime = dp.syncClock.AbsoluteNtp(dp.timestamp)
	}

	dp.nalus = dp.nalus[:0]
	return dp.w.WriteAccessUnit(au)
}
