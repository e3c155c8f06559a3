// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"time"

	"github.com/kelindar/process"
)

// 创建时间
var (
	StartingTime = time.Now()
)

// Proc 进程资源占用
type Proc struct {
	CPU     float64 `json:"cpu"`     // cpu使用情况
	Priv    int32   `json:"priv"`    // 私有内存 KB
	Virt    int32   `json:"virt"`    // 虚拟内存 KB
	Elapsed float64 `json:"elapsed"` // 运行时间 S
}

// Report 一次运行结束时的汇总
type Report struct {
	Extraction ExtractionSample `json:"extraction"`
	Proc       Proc             `json:"proc"`
}

// MeasureProcess 获取进程资源占用；平台不支持时只返回运行时间
func MeasureProcess() (p Proc) {
	p.Elapsed = time.Since(StartingTime).Seconds()
	defer func() { recover() }()

	var memoryPriv, memoryVirtual int64
	var cpu float64
	process.ProcUsage(&cpu, &memoryPriv, &memoryVirtual)
	p.CPU = cpu
	p.Priv = toKB(uint64(memoryPriv))
	p.Virt = toKB(uint64(memoryVirtual))
	return
}

// NewReport 汇总提取统计与进程资源占用
func NewReport(e Extraction) Report {
	return Report{
		Extraction: e.GetSample(),
		Proc:       MeasureProcess(),
	}
}

// Converts the memory in bytes to KBs, otherwise it would overflow our int32
func toKB(v uint64) int32 {
	return int32(v / 1024)
}
