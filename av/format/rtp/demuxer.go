// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"errors"
	"runtime/debug"
	"sync"

	"github.com/cnotch/queue"
	"github.com/cnotch/xlog"
)

// ErrDemuxerClosed 解封装器已关闭
var ErrDemuxerClosed = errors.New("rtp: demuxer closed")

// closeSignal 关闭信号，排在所有已写入的包之后
type closeSignal struct{}

// Demuxer 在独立的 goroutine 中把视频通道的 RTP 包重组为访问单元，
// 音频通道的包被忽略。
type Demuxer struct {
	mu        sync.Mutex
	closed    bool
	recvQueue *queue.SyncQueue
	vdp       *H264Depacketizer
	logger    *xlog.Logger
	done      chan struct{}
	err       error // AccessUnitWriter 返回的第一个错误，由 mu 保护
	dropped   int   // 丢弃的视频包
}

// NewDemuxer 创建 rtp.Packet 解封装处理器。
func NewDemuxer(clockRate int, w AccessUnitWriter, logger *xlog.Logger) *Demuxer {
	if logger == nil {
		logger = xlog.L()
	}
	demuxer := &Demuxer{
		recvQueue: queue.NewSyncQueue(),
		vdp:       NewH264Depacketizer(clockRate, w),
		logger:    logger,
		done:      make(chan struct{}),
	}

	go demuxer.process()
	return demuxer
}

func (demuxer *Demuxer) process() {
	defer func() {
		if r := recover(); r != nil {
			demuxer.fail(errors.New("rtp: demuxer routine panic"))
			demuxer.logger.Errorf("demuxer routine panic；r = %v \n %s", r, debug.Stack())
		}

		// 尽早通知GC，回收内存
		demuxer.recvQueue.Reset()
		close(demuxer.done)
	}()

	for {
		p := demuxer.recvQueue.Pop()
		if p == nil {
			continue
		}

		if _, ok := p.(closeSignal); ok {
			if demuxer.err == nil {
				demuxer.fail(demuxer.vdp.Flush())
			}
			return
		}

		if demuxer.err != nil { // 输出已失败，丢弃剩余的包
			continue
		}

		packet := p.(*Packet)
		var err error
		switch packet.Channel {
		case ChannelVideo:
			err = demuxer.vdp.Depacketize(packet)
		case ChannelVideoControl:
			err = demuxer.vdp.Control(packet)
		}

		if err == nil {
			continue
		}
		if errors.Is(err, ErrMalformedPacket) || errors.Is(err, ErrUnsupportedPacket) {
			demuxer.dropped++
			demuxer.logger.Warnf("rtp demuxer: depacketize error: %s", err.Error())
			continue
		}
		demuxer.fail(err)
	}
}

// fail 记录第一个输出错误，之后的 WriteRtpPacket 返回该错误
func (demuxer *Demuxer) fail(err error) {
	demuxer.mu.Lock()
	if demuxer.err == nil {
		demuxer.err = err
	}
	demuxer.mu.Unlock()
}

// WriteRtpPacket 写入一个包，包在后台按写入顺序处理；
// 后台输出失败后返回 AccessUnitWriter 的第一个错误
func (demuxer *Demuxer) WriteRtpPacket(packet *Packet) error {
	demuxer.mu.Lock()
	defer demuxer.mu.Unlock()

	if demuxer.err != nil {
		return demuxer.err
	}
	if demuxer.closed {
		return ErrDemuxerClosed
	}
	demuxer.recvQueue.Push(packet)
	return nil
}

// Close 等待已写入的包处理完毕并输出最后一个访问单元，
// 返回 AccessUnitWriter 的第一个错误
func (demuxer *Demuxer) Close() error {
	demuxer.mu.Lock()
	if !demuxer.closed {
		demuxer.closed = true
		demuxer.recvQueue.Push(closeSignal{})
	}
	demuxer.mu.Unlock()

	<-demuxer.done
	return demuxer.err
}

// Dropped 返回被丢弃的视频包数量，Close 之后调用
func (demuxer *Demuxer) Dropped() int {
	<-demuxer.done
	return demuxer.dropped
}
