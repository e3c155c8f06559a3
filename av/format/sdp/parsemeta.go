// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sdp

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/cnotch/avcsei/av/format/rtp"
	"github.com/cnotch/avcsei/utils/scan"
	"github.com/pixelbender/go-sdp/sdp"
)

// ErrNoH264Video SDP 中没有 H.264 视频
var ErrNoH264Video = errors.New("sdp: no H264 video media")

// VideoMeta SDP 中 H.264 视频的元数据
type VideoMeta struct {
	Codec             string   `json:"codec"`                   // 编码名称
	ClockRate         int      `json:"clockrate"`               // RTP 时钟频率
	DataRate          float64  `json:"datarate,omitempty"`      // b=AS 带宽，kbps
	Control           string   `json:"control,omitempty"`       // a=control
	PacketizationMode int      `json:"packetizationmode"`       // packetization-mode
	ProfileLevelID    string   `json:"profilelevelid"`          // profile-level-id
	ParameterSets     [][]byte `json:"parametersets,omitempty"` // sprop-parameter-sets 中的 SPS/PPS，不含起始码
}

// ParseMetadata 解析 SDP，返回第一个 H.264 视频媒体的元数据
func ParseMetadata(rawsdp string) (*VideoMeta, error) {
	session, err := sdp.ParseString(rawsdp)
	if err != nil {
		return nil, err
	}

	for _, media := range session.Media {
		if media.Type != "video" || len(media.Format) == 0 {
			continue
		}
		format := media.Format[0]
		if !strings.EqualFold(format.Name, "H264") {
			continue
		}

		video := &VideoMeta{
			Codec:     "H264",
			ClockRate: rtp.DefaultVideoClockRate,
			Control:   media.Attributes.Get("control"),
		}
		if format.ClockRate > 0 {
			video.ClockRate = format.ClockRate
		}
		for _, bw := range media.Bandwidth {
			if bw.Type == "AS" {
				video.DataRate = float64(bw.Value)
			}
		}

		if err = parseVideoMeta(format, video); err != nil {
			return nil, err
		}
		return video, nil
	}
	return nil, ErrNoH264Video
}

func parseVideoMeta(m *sdp.Format, video *VideoMeta) error {
	params := parseFmtp(m.Params)

	if mode, ok := params["packetization-mode"]; ok {
		video.PacketizationMode, _ = strconv.Atoi(mode)
	}
	video.ProfileLevelID = params["profile-level-id"]

	sprop, ok := params["sprop-parameter-sets"]
	if !ok {
		return nil
	}
	sets, err := parseH264SpsPps(sprop)
	if err != nil {
		return err
	}
	video.ParameterSets = sets
	return nil
}

// parseFmtp 将 a=fmtp 的参数解析为 name=value 表
func parseFmtp(params []string) map[string]string {
	values := make(map[string]string)
	for _, p := range params {
		for _, token := range scan.Semicolon.Tokens(p) {
			if name, value, ok := scan.Equal.Cut(token); ok {
				values[strings.ToLower(name)] = value
			}
		}
	}
	return values
}

// parseH264SpsPps 解码逗号分割的 base64 参数集，只保留 SPS 和 PPS；
// 有的服务器在参数集前带有起始码
func parseH264SpsPps(s string) ([][]byte, error) {
	var sets [][]byte
	for _, token := range scan.Comma.Tokens(s) {
		data, err := base64.StdEncoding.DecodeString(token)
		if err != nil {
			return nil, fmt.Errorf("sdp: invalid sprop-parameter-sets %q: %w", token, err)
		}

		leading, nalus := h264.SplitNALUs(data)
		if len(nalus) == 0 {
			nalus = [][]byte{leading}
		}
		for _, nalu := range nalus {
			if len(nalu) > 0 && (h264.IsSps(nalu[0]) || h264.IsPps(nalu[0])) {
				sets = append(sets, nalu)
			}
		}
	}
	return sets, nil
}
