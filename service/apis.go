// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/avcsei/config"
	"github.com/cnotch/avcsei/media"
	"github.com/cnotch/avcsei/stats"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

var buffers = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 2*1024))
	},
}

func (s *Service) initApis(mux *http.ServeMux) {
	api := apirouter.NewForGRPC(
		// 系统信息类API
		apirouter.GET("/api/v1/server", s.onGetServerInfo),
		apirouter.GET("/api/v1/runtime", s.onGetRuntime),

		// 流管理API
		apirouter.GET("/api/v1/streams", s.onListStreams),
		apirouter.GET("/api/v1/streams/{path=**}", s.onGetStreamInfo),
		apirouter.DELETE("/api/v1/streams/{path=**}", s.onStopStream),
	)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		api.ServeHTTP(w, r)
	})
}

// 获取服务信息
func (s *Service) onGetServerInfo(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type server struct {
		Vendor   string `json:"vendor"`
		Name     string `json:"name"`
		Version  string `json:"version"`
		OS       string `json:"os"`
		Arch     string `json:"arch"`
		StartOn  string `json:"start_on"`
		Duration string `json:"duration"`
	}

	writeJSON(w, &server{
		Vendor:   config.Vendor,
		Name:     config.Name,
		Version:  config.Version,
		OS:       strings.Title(runtime.GOOS),
		Arch:     strings.ToUpper(runtime.GOARCH),
		StartOn:  stats.StartingTime.Format(time.RFC3339Nano),
		Duration: Uptime().String(),
	})
}

// 获取运行时信息：进程资源、会话计数和全部流的提取统计
func (s *Service) onGetRuntime(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type runtime struct {
		On       string               `json:"on"`
		Streams  int                  `json:"streams"`
		Sessions stats.SessionsSample `json:"sessions"`
		stats.Report
	}

	writeJSON(w, &runtime{
		On:       time.Now().Format(time.RFC3339Nano),
		Streams:  media.Count(),
		Sessions: stats.Sessions.GetSample(),
		Report:   stats.NewReport(stats.Total),
	})
}

// 分页列出流，page_token 为上一页最后一个流的路径
func (s *Service) onListStreams(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	pageSize, pageToken, err := pageParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	type streamInfos struct {
		Total         int                 `json:"total"`
		NextPageToken string              `json:"next_page_token"`
		Streams       []*media.StreamInfo `json:"streams,omitempty"`
	}

	list := &streamInfos{}
	list.Total, list.Streams = media.Infos(pageToken, pageSize)
	if n := len(list.Streams); n == pageSize {
		list.NextPageToken = list.Streams[n-1].Path
	}
	writeJSON(w, list)
}

func (s *Service) onGetStreamInfo(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	stream := media.Get(pathParams.ByName("path"))
	if stream == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, stream.Info())
}

// 停止流的提取，对应的接入会话随之结束
func (s *Service) onStopStream(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	path := pathParams.ByName("path")
	if !media.Remove(path) {
		http.NotFound(w, r)
		return
	}
	s.logger.Infof("stream %s stopped by api", path)
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON 以缩进格式输出 o
func writeJSON(w http.ResponseWriter, o interface{}) {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer buffers.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(o); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(buf.Bytes())
}

func pageParams(params url.Values) (pageSize int, pageToken string, err error) {
	pageSize = defaultPageSize
	if v := params.Get("page_size"); v != "" {
		if pageSize, err = strconv.Atoi(v); err != nil {
			return 0, "", fmt.Errorf("invalid page_size %q", v)
		}
		if pageSize < 1 || pageSize > maxPageSize {
			return 0, "", fmt.Errorf("page_size must be in [1, %d]", maxPageSize)
		}
	}
	pageToken = params.Get("page_token")
	return
}
