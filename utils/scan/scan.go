// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scan 提供 SDP 属性值的简单词法切分。
package scan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 常用的分割器
var (
	Comma     = New(',', unicode.IsSpace) // sprop-parameter-sets
	Semicolon = New(';', unicode.IsSpace) // fmtp 参数列表
	Equal     = New('=', isSpaceOrQuote)  // fmtp 的 name=value
)

func isSpaceOrQuote(r rune) bool {
	return unicode.IsSpace(r) || r == '"'
}

// Splitter 按分割符切分字串，切出的部分用 trim 修剪
type Splitter struct {
	delim rune
	trim  func(r rune) bool
}

// New 创建分割器，trim 为 nil 时不修剪
func New(delim rune, trim func(r rune) bool) Splitter {
	if trim == nil {
		trim = func(r rune) bool { return false }
	}
	return Splitter{delim: delim, trim: trim}
}

// Next 返回第一个 token 及剩余部分；more 为 false 时 token 是最后一个
func (s Splitter) Next(str string) (token, rest string, more bool) {
	i := strings.IndexRune(str, s.delim)
	if i < 0 {
		return strings.TrimFunc(str, s.trim), "", false
	}
	return strings.TrimFunc(str[:i], s.trim),
		strings.TrimFunc(str[i+utf8.RuneLen(s.delim):], s.trim), true
}

// Cut 在第一个分割符处拆分 key value，value 中可以再含分割符（如 base64 的填充 '='）
func (s Splitter) Cut(str string) (key, value string, found bool) {
	return s.Next(str)
}

// Tokens 切分出全部非空 token
func (s Splitter) Tokens(str string) []string {
	var tokens []string
	for more := true; more; {
		var token string
		token, str, more = s.Next(str)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
