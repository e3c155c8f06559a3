// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"sort"
	"sync"

	"github.com/cnotch/avcsei/utils"
)

// Registry 按路径登记正在提取的流
type Registry struct {
	streams sync.Map // string->*Stream
}

// 默认的全局登记表
var registry = &Registry{}

// NewRegistry 新建登记表
func NewRegistry() *Registry {
	return &Registry{}
}

// Regist 登记流，同路径的旧流被替换并关闭
func (r *Registry) Regist(s *Stream) {
	old, loaded := r.streams.Load(s.path)
	if loaded && old.(*Stream) == s {
		return
	}

	r.streams.Store(s.path, s)
	if loaded {
		old.(*Stream).close(StreamReplaced)
	}
}

// Unregist 注销并关闭流；流已被替换时不影响新流
func (r *Registry) Unregist(s *Stream) {
	if cur, ok := r.streams.Load(s.path); ok && cur.(*Stream) == s {
		r.streams.Delete(s.path)
	}
	s.Close()
}

// Remove 注销并关闭指定路径的流，返回流是否存在
func (r *Registry) Remove(path string) bool {
	s := r.Get(path)
	if s == nil {
		return false
	}
	r.Unregist(s)
	return true
}

// Clear 注销全部流
func (r *Registry) Clear() {
	r.streams.Range(func(key, value interface{}) bool {
		r.streams.Delete(key)
		value.(*Stream).Close()
		return true
	})
}

// Get 获取路径为 path 的流，不存在时返回 nil
func (r *Registry) Get(path string) *Stream {
	if s, ok := r.streams.Load(utils.CanonicalPath(path)); ok {
		return s.(*Stream)
	}
	return nil
}

// Count 已登记的流数量
func (r *Registry) Count() (n int) {
	r.streams.Range(func(key, value interface{}) bool {
		n++
		return true
	})
	return
}

// Infos 按路径排序返回 path 大于 pagetoken 的流信息，最多 pagesize 个（<= 0 不限）；同时返回流总数
func (r *Registry) Infos(pagetoken string, pagesize int) (int, []*StreamInfo) {
	var infos []*StreamInfo
	count := 0
	r.streams.Range(func(key, value interface{}) bool {
		count++
		if key.(string) > pagetoken {
			infos = append(infos, value.(*Stream).Info())
		}
		return true
	})

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})
	if pagesize > 0 && pagesize < len(infos) {
		infos = infos[:pagesize]
	}
	return count, infos
}

// Regist 在全局登记表中登记流
func Regist(s *Stream) { registry.Regist(s) }

// Unregist 从全局登记表注销流
func Unregist(s *Stream) { registry.Unregist(s) }

// Remove 从全局登记表注销指定路径的流
func Remove(path string) bool { return registry.Remove(path) }

// UnregistAll 注销全局登记表中的全部流
func UnregistAll() { registry.Clear() }

// Get 从全局登记表获取流
func Get(path string) *Stream { return registry.Get(path) }

// Count 全局登记表中的流数量
func Count() int { return registry.Count() }

// Infos 全局登记表中的流信息
func Infos(pagetoken string, pagesize int) (int, []*StreamInfo) {
	return registry.Infos(pagetoken, pagesize)
}
