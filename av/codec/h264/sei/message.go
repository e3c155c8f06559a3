// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sei parses H.264 Supplemental Enhancement Information (Annex D)
// and extracts the supported messages from access units.
package sei

import (
	"fmt"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/cnotch/avcsei/utils/bits"
)

// Message 已解码的 SEI 消息，具体类型为 *UserDataUnregistered 或 *PictureTiming
type Message interface {
	PayloadType() PayloadType
}

// RawMessage 未解码的 SEI 消息，Payload 是 RBSP 的子切片
type RawMessage struct {
	Type    PayloadType
	Payload []byte
}

// ParseMessages 将已去除防竞争字节的 SEI RBSP 拆分为消息。
// SEI 的 SODB 总是字节对齐，最后一个字节必须为 0x80。
func ParseMessages(rbsp []byte) ([]RawMessage, error) {
	if len(rbsp) == 0 {
		return nil, nil
	}
	if rbsp[len(rbsp)-1] != 0x80 {
		return nil, fmt.Errorf("%w: SEI RBSP ends with 0x%02x, not byte aligned",
			h264.ErrInvalidAlignment, rbsp[len(rbsp)-1])
	}
	length := len(rbsp) - 1

	var msgs []RawMessage
	pos := 0
	for pos < length {
		payloadType, n, ok := readFFCoded(rbsp[pos:length])
		if !ok {
			return nil, fmt.Errorf("%w: EOF while reading payload type", h264.ErrUnexpectedEOF)
		}
		pos += n

		payloadSize, n, ok := readFFCoded(rbsp[pos:length])
		if !ok {
			return nil, fmt.Errorf("%w: EOF while reading payload size", h264.ErrUnexpectedEOF)
		}
		pos += n

		if uint64(payloadSize) > uint64(length-pos) {
			return nil, fmt.Errorf("%w: EOF while reading payload, need %d bytes, got %d",
				h264.ErrUnexpectedEOF, payloadSize, length-pos)
		}
		end := pos + int(payloadSize)
		msgs = append(msgs, RawMessage{
			Type:    PayloadType(payloadType),
			Payload: rbsp[pos:end],
		})
		pos = end
	}
	return msgs, nil
}

// readFFCoded 读取 0xFF 延续编码的值：累加连续的 0xFF，直至首个非 0xFF 字节
func readFFCoded(b []byte) (v uint32, n int, ok bool) {
	for n < len(b) {
		c := b[n]
		n++
		v += uint32(c)
		if c != 0xFF {
			return v, n, true
		}
	}
	return 0, n, false
}

// validatePayloadTrailing 校验消息负载末尾的对齐位。
// 已经字节对齐时无需校验；否则剩余不足 8 位，且为 1 后跟全 0。
func validatePayloadTrailing(r *bits.Reader) error {
	left := r.BitsLeft()
	if left == 0 {
		return nil
	}
	if left >= 8 {
		return fmt.Errorf("%w: unexpected trailing data found: %d bits", h264.ErrTrailingBitsInvalid, left)
	}
	stop, _ := r.ReadBit()
	align, _ := r.Read(r.BitsLeft())
	if stop != 1 || align != 0 {
		return fmt.Errorf("%w: unexpected alignment trailing bits", h264.ErrTrailingBitsInvalid)
	}
	return nil
}
