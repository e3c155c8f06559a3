// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package utils

import (
	"path"
	"path/filepath"
	"strings"
)

// StdinPath 从标准输入读取时的流路径
const StdinPath = "/stdin"

// CanonicalPath 获取合法的流路径，大小写不敏感，不以 / 结尾
func CanonicalPath(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return "/"
	}

	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

// InputPath 由输入文件名得到流路径，"-" 表示标准输入
func InputPath(input string) string {
	if input == "-" {
		return StdinPath
	}
	base := filepath.Base(input)
	return CanonicalPath(strings.TrimSuffix(base, filepath.Ext(base)))
}
