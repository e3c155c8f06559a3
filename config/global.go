// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cnotch/avcsei/av/codec/h264/sei"
	cfg "github.com/cnotch/loader"
	"github.com/cnotch/xlog"
)

// 服务名
const (
	Vendor  = "CAOHONGJU"
	Name    = "avcsei"
	Version = "V1.0.0"
)

var (
	globalC *config
)

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// Input 输入文件
func Input() string {
	if globalC == nil {
		return ""
	}
	return globalC.Input
}

// Format 输入格式
func Format() string {
	if globalC == nil || globalC.Format == "" {
		return FormatAnnexB
	}
	return strings.ToLower(globalC.Format)
}

// SdpFile SDP 文件
func SdpFile() string {
	if globalC == nil {
		return ""
	}
	return globalC.Sdp
}

// Addr 接入服务侦听地址，空表示不启动服务
func Addr() string {
	if globalC == nil {
		return ""
	}
	return globalC.ListenAddr
}

// HTTPAddr 管理 API 侦听地址
func HTTPAddr() string {
	if globalC == nil {
		return ""
	}
	return globalC.HTTPAddr
}

// LocalOnly 接入服务是否只接受本机连接
func LocalOnly() bool {
	if globalC == nil {
		return false
	}
	return globalC.LocalOnly
}

// StatsInterval 统计日志间隔
func StatsInterval() time.Duration {
	if globalC == nil || globalC.StatsInterval < 0 {
		return 0
	}
	return globalC.StatsInterval
}

// ExtractorOptions SEI 提取选项
func ExtractorOptions() sei.Options {
	if globalC == nil {
		return sei.DefaultOptions()
	}
	return globalC.Extract.Options()
}

// LogRate 每秒最多记录的错误日志条数
func LogRate() int {
	if globalC == nil {
		return 0
	}
	return globalC.Extract.LogRate
}

// NetTimeout 返回网络超时设置
func NetTimeout() time.Duration {
	return time.Second * 45
}

// NetBufferSize 网络通讯时的BufferSize
func NetBufferSize() int {
	return 128 * 1024
}

// NetFlushRate 网络刷新频率
func NetFlushRate() int {
	return 30
}
