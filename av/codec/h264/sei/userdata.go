// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import (
	"bytes"
	"fmt"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/google/uuid"
)

// X264OptionsUUID x264 写入编码参数所用的 uuid_iso_iec_11578
var X264OptionsUUID = uuid.MustParse("dc45e9bd-e6d9-48b7-962c-d820d923eeef")

// UserDataUnregistered user_data_unregistered SEI (D.1.7)
type UserDataUnregistered struct {
	UUID uuid.UUID `json:"uuid"`
	// user_data_payload_byte，负载的子切片
	Data []byte `json:"data"`
}

// ParseUserDataUnregistered 解析 user_data_unregistered 负载，至少 16 字节
func ParseUserDataUnregistered(payload []byte) (*UserDataUnregistered, error) {
	if len(payload) < 16 {
		return nil, fmt.Errorf("%w: EOF when reading UUID, got %d bytes", h264.ErrUnexpectedEOF, len(payload))
	}

	var msg UserDataUnregistered
	copy(msg.UUID[:], payload[:16])
	msg.Data = payload[16:]
	return &msg, nil
}

// PayloadType implements Message.
func (*UserDataUnregistered) PayloadType() PayloadType {
	return TypeUserDataUnregistered
}

// Text 按惯例将数据视为以 NUL 结尾的文本
func (m *UserDataUnregistered) Text() string {
	if i := bytes.IndexByte(m.Data, 0); i >= 0 {
		return string(m.Data[:i])
	}
	return string(m.Data)
}
