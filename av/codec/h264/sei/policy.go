// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import (
	"fmt"
)

// ErrorPolicy 提取过程中错误的处理策略
type ErrorPolicy string

// 错误处理策略
const (
	// ErrorsLog 记录日志后继续，丢弃出错的最小单位（一个 NAL 单元或一条消息）
	ErrorsLog ErrorPolicy = "log"
	// ErrorsThrow 返回第一个错误，放弃当前访问单元
	ErrorsThrow ErrorPolicy = "throw"
)

// ParseErrorPolicy 解析策略名称，空串为 ErrorsLog
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(s) {
	case "", ErrorsLog:
		return ErrorsLog, nil
	case ErrorsThrow:
		return ErrorsThrow, nil
	}
	return "", fmt.Errorf("sei: unknown error policy %q", s)
}

// Context 错误发生的阶段
type Context string

// 错误上下文
const (
	ContextByteStream Context = "byteStream" // 起始码切分及 NAL 头
	ContextPSManager  Context = "psManager"  // 参数集处理及激活
	ContextNALU       Context = "nalu"       // SEI RBSP 拆分为消息
	ContextMessage    Context = "message"    // 单条消息的解码
	ContextMissingPS  Context = "missingPs"  // 解码 pic_timing 时没有激活的 SPS
)

// mutedUntilSPS 在首次见到 SPS 之前忽略该上下文的错误，
// 以容忍从码流中间开始、尚无参数集的情况
func (c Context) mutedUntilSPS() bool {
	return c == ContextPSManager || c == ContextMissingPS
}

// ExtractError 带有提取上下文的错误
type ExtractError struct {
	Context Context
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("sei: %s: %v", e.Context, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

type action int

const (
	actionSwallow action = iota
	actionLog
	actionRaise
)

// decide 决定如何处理某上下文中的错误
func decide(ctx Context, seenSPS bool, policy ErrorPolicy) action {
	if ctx.mutedUntilSPS() && !seenSPS {
		return actionSwallow
	}
	if policy == ErrorsThrow {
		return actionRaise
	}
	return actionLog
}
