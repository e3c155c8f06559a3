// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"time"
)

// 输入格式
const (
	FormatAnnexB = "annexb" // H.264 Annex-B 字节流
	FormatRTP    = "rtp"    // RTSP 交织模式的 RTP 包（$ 通道 长度 数据）
)

// config 配置
type config struct {
	Input         string        `json:"input,omitempty"`  // 输入文件，- 为标准输入
	Format        string        `json:"format"`           // 输入格式 annexb|rtp
	Sdp           string        `json:"sdp,omitempty"`    // SDP 文件，用于预先加载参数集
	ListenAddr    string        `json:"listen,omitempty"` // 接入服务侦听地址，空表示不启动服务
	HTTPAddr      string        `json:"http,omitempty"`   // 管理 API 侦听地址
	LocalOnly     bool          `json:"local_only"`       // 只接受本机连接
	StatsInterval time.Duration `json:"stats_interval"`   // 统计日志间隔，0 不输出
	Extract       ExtractConfig `json:"extract"`          // SEI 提取配置
	Log           LogConfig     `json:"log"`              // 日志配置
}

func (c *config) initFlags() {
	flag.StringVar(&c.Input, "input", "", "Set the input file, '-' reads from stdin")
	flag.StringVar(&c.Format, "format", FormatAnnexB, "Set the input format: annexb|rtp")
	flag.StringVar(&c.Sdp, "sdp", "",
		"Set the SDP file whose sprop-parameter-sets prime the parameter sets")
	flag.StringVar(&c.ListenAddr, "listen", "",
		"Set the listen address of the interleaved RTP ingest service, e.g. :8554")
	flag.StringVar(&c.HTTPAddr, "http", "", "Set the listen address of the HTTP API")
	flag.BoolVar(&c.LocalOnly, "local-only", false,
		"Determines if the ingest service only accepts local connections")
	flag.DurationVar(&c.StatsInterval, "stats-interval", 0,
		"Set the interval of extraction statistics logs, 0 disables them")

	// 初始化提取配置
	c.Extract.initFlags()
	// 初始化日志配置
	c.Log.initFlags()
}
