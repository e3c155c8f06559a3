// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"os"

	"github.com/cnotch/xlog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置；日志总是写到标准错误，标准输出留给提取结果
type LogConfig struct {
	Level      xlog.Level `json:"level"`      // 日志级别
	ToFile     bool       `json:"tofile"`     // 是否同时写到文件
	Filename   string     `json:"filename"`   // 日志文件名称
	MaxSize    int        `json:"maxsize"`    // 日志文件的最大尺寸，以兆为单位
	MaxDays    int        `json:"maxdays"`    // 旧日志最多保存多少天
	MaxBackups int        `json:"maxbackups"` // 旧日志最多保持数量
	Compress   bool       `json:"compress"`   // 是否用 gzip 压缩
}

func (c *LogConfig) initFlags() {
	flag.Var(&c.Level, "log-level",
		"Set the log level to output")
	flag.BoolVar(&c.ToFile, "log-tofile", false,
		"Determines if logs should also be saved to file")
	flag.StringVar(&c.Filename, "log-filename",
		"./logs/"+Name+".log", "Set the file to write logs to")
	flag.IntVar(&c.MaxSize, "log-maxsize", 20,
		"Set the maximum size in megabytes of the log file before it gets rotated")
	flag.IntVar(&c.MaxDays, "log-maxdays", 7,
		"Set the maximum days of old log files to retain")
	flag.IntVar(&c.MaxBackups, "log-maxbackups", 14,
		"Set the maximum number of old log files to retain")
	flag.BoolVar(&c.Compress, "log-compress", false,
		"Determines if the log files should be compressed")
}

func (c *LogConfig) fileWriter() *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   c.Filename,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxDays,
		LocalTime:  true,
		Compress:   c.Compress,
	}
}

// 初始化根日志
func (c *LogConfig) initLogger() {
	console := xlog.NewCore(xlog.NewConsoleEncoder(xlog.LstdFlags|xlog.Lmicroseconds|xlog.Llongfile),
		xlog.Lock(os.Stderr), c.Level)

	if !c.ToFile {
		xlog.ReplaceGlobal(xlog.New(console, xlog.AddCaller()))
		return
	}

	xlog.ReplaceGlobal(
		xlog.New(xlog.NewTee(console,
			xlog.NewCore(xlog.NewJSONEncoder(xlog.Llongfile), c.fileWriter(), c.Level)),
			xlog.AddCaller()))
}
