// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"

	"github.com/cnotch/avcsei/av/codec/h264/sei"
)

// ExtractConfig SEI 提取配置
type ExtractConfig struct {
	// UserData 提取 user_data_unregistered
	UserData bool `json:"userdata"`
	// PicTiming 提取 pic_timing
	PicTiming bool `json:"pictiming"`
	// ForceCpbDpb 认为 pic_timing 总是包含 cpb/dpb 延迟
	ForceCpbDpb bool `json:"forcecpbdpb"`
	// Errors 错误处理策略 log|throw
	Errors string `json:"errors"`
	// Strict 严格模式
	Strict bool `json:"strict"`
	// LogRate 每秒最多记录的错误日志条数，0 不限制
	LogRate int `json:"lograte"`
}

func (c *ExtractConfig) initFlags() {
	flag.BoolVar(&c.UserData, "userdata", true,
		"Determines if user_data_unregistered messages are extracted")
	flag.BoolVar(&c.PicTiming, "pictiming", false,
		"Determines if pic_timing messages are extracted")
	flag.BoolVar(&c.ForceCpbDpb, "force-cpbdpb", false,
		"Determines if pic_timing always carries cpb/dpb delays")
	flag.StringVar(&c.Errors, "errors", string(sei.ErrorsLog),
		"Set the error policy: log|throw")
	flag.BoolVar(&c.Strict, "strict", false,
		"Determines if trailing bits of pic_timing are validated")
	flag.IntVar(&c.LogRate, "log-rate", 10,
		"Set the maximum number of error logs per second, 0 means unlimited")
}

// Options 转换为提取选项
func (c *ExtractConfig) Options() sei.Options {
	return sei.Options{
		DisableUserDataUnregistered: !c.UserData,
		EnablePicTiming:             c.PicTiming,
		ForceCpbDpbDelaysPresent:    c.ForceCpbDpb,
		Errors:                      sei.ErrorPolicy(c.Errors),
		Strict:                      c.Strict,
	}
}
