// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pion/rtp"
)

const (
	// TransferPrefix RTP 包交织传输时的前缀
	TransferPrefix = byte(0x24) // $
)

// 预定义 RTP 通道类型
const (
	ChannelVideo        = iota         // 视频通道
	ChannelVideoControl                // 视频控制通道
	ChannelAudio                       // 音频通道
	ChannelAudioControl                // 音频控制通道
	ChannelCount                       // 支持的 RTP 通道类型数量
	ChannelMin          = ChannelVideo // 支持的 RTP 通道类型最小值
)

// 读取错误
var (
	ErrInvalidPrefix  = errors.New("rtp: interleaved frame must start with `$`")
	ErrIllegalChannel = errors.New("rtp: illegal interleaved channel")
)

// DefaultChannelConfig 默认的通道配置，下标为通道类型，值为交织通道号
var DefaultChannelConfig = []int{
	ChannelVideo,
	ChannelVideoControl,
	ChannelAudio,
	ChannelAudioControl,
}

// ChannelName 通道名
func ChannelName(channel int) string {
	switch channel {
	case ChannelAudio:
		return "audio"
	case ChannelVideo:
		return "video"
	case ChannelAudioControl:
		return "audio control"
	case ChannelVideoControl:
		return "video control"
	}
	return "unknow"
}

// Packet RTP 数据包
type Packet struct {
	Channel    byte   // 通道类型
	Data       []byte // 数据
	rtp.Header        // Video 、Audio Channel'Header
}

// ReadPacket 从 r 中读取一个交织格式的 RTP/RTCP 包：'$' 通道号 长度(2字节) 数据。
// channelConfig 提供通道类型所在通道的配置信息；
// 不在配置中的通道返回 ErrIllegalChannel，此时包数据已被读走，可以继续读取下一个包。
func ReadPacket(r *bufio.Reader, channelConfig []int) (*Packet, error) {
	var prefix [4]byte
	// 读前缀4字节
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	if prefix[0] != TransferPrefix {
		return nil, fmt.Errorf("%w: got 0x%02x", ErrInvalidPrefix, prefix[0])
	}

	channel := int(prefix[1])
	rtpLen := int(binary.BigEndian.Uint16(prefix[2:]))

	// 读取包数据
	rtpBytes := make([]byte, rtpLen)
	if _, err := io.ReadFull(r, rtpBytes); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	for i, v := range channelConfig {
		if v != channel {
			continue
		}

		p := &Packet{Channel: byte(i), Data: rtpBytes}
		if p.Channel == ChannelVideo || p.Channel == ChannelAudio {
			if err := p.Header.Unmarshal(p.Data); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrIllegalChannel, channel)
}

// Write 将 RTP 包以交织格式输出到 w
// channelConfig 提供通道类型所在通道的配置信息
func (p *Packet) Write(w io.Writer, channelConfig []int) error {
	if int(p.Channel) >= len(channelConfig) {
		return fmt.Errorf("rtp: unknow channel type %d", p.Channel)
	}

	ch := channelConfig[p.Channel]
	if ch < 0 || ch > 255 { // 可能是未订阅，忽略
		return nil
	}

	var prefix [4]byte
	prefix[0] = TransferPrefix // 起始字节
	prefix[1] = byte(ch)       // channel
	binary.BigEndian.PutUint16(prefix[2:], uint16(len(p.Data)))

	// 写前4个字节
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}

	// 写包数据部分
	_, err := w.Write(p.Data)
	return err
}

// Size 包在交织传输中的总大小
func (p *Packet) Size() int {
	return len(p.Data) + 4
}

// Payload 数据包中实际的载荷，不含填充字节
// 如果是控制通道，返回nil
func (p *Packet) Payload() []byte {
	if p.Channel != ChannelVideo && p.Channel != ChannelAudio {
		return nil
	}

	end := len(p.Data)
	if p.Padding && end > p.PayloadOffset {
		pad := int(p.Data[end-1])
		if pad <= end-p.PayloadOffset {
			end -= pad
		}
	}
	return p.Data[p.PayloadOffset:end]
}
