// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cnotch/avcsei/av/codec/h264/sei"
	"github.com/cnotch/avcsei/av/format/rtp"
	"github.com/cnotch/avcsei/av/format/sdp"
	"github.com/cnotch/avcsei/stats"
	"github.com/cnotch/avcsei/utils"
	"github.com/cnotch/xlog"
)

// 流状态
const (
	StreamOK       int32 = iota
	StreamClosed         // 源关闭
	StreamReplaced       // 流被替换
)

// 错误定义
var (
	// ErrStreamClosed 流被关闭
	ErrStreamClosed = errors.New("stream is closed")
	// ErrStreamReplaced 流被替换
	ErrStreamReplaced = errors.New("stream is replaced")
	statusErrors      = []error{nil, ErrStreamClosed, ErrStreamReplaced}
)

// Stream 一路 H.264 视频流：访问单元送入提取器，提取到的消息编码为 JSON 行写到输出。
// 访问单元须由同一个 goroutine 按解码顺序写入；Info 等只读方法可并发调用。
type Stream struct {
	startOn   time.Time // 启动时间
	path      string    // 流路径
	rawsdp    string
	size      uint64 // 流已经接收到的输入（字节）
	aus       int64  // 已处理的访问单元数
	status    int32  // 流状态
	extractor *sei.Extractor
	seiOpts   []sei.Option
	stats     stats.Extraction
	out       io.Writer
	enc       *json.Encoder
	attrs     map[string]string // 流属性
	logger    *xlog.Logger      // 日志对象
	Video     *sdp.VideoMeta    // SDP 中的视频元数据，没有 SDP 时为 nil
}

// NewStream 创建新的流；rawsdp 非空时解析其中的 H.264 视频并预先加载参数集
func NewStream(path string, rawsdp string, opts sei.Options, options ...Option) (*Stream, error) {
	s := &Stream{
		startOn: time.Now(),
		path:    utils.CanonicalPath(path),
		rawsdp:  rawsdp,
		status:  StreamOK,
		attrs:   make(map[string]string, 2),
		logger:  xlog.L(),
	}

	for _, option := range options {
		option.apply(s)
	}
	s.logger = s.logger.With(xlog.Fields(xlog.F("path", s.path)))
	if s.stats == nil {
		s.stats = stats.NewChildExtraction(stats.Total)
	}
	if s.out != nil {
		s.enc = json.NewEncoder(s.out)
	}

	seiOpts := append([]sei.Option{sei.Logger(s.logger), sei.Stats(s.stats)}, s.seiOpts...)
	extractor, err := sei.NewExtractor(opts, seiOpts...)
	if err != nil {
		return nil, err
	}
	s.extractor = extractor

	if rawsdp != "" {
		if s.Video, err = sdp.ParseMetadata(rawsdp); err != nil {
			return nil, err
		}
		if err = extractor.PrimeParameterSets(s.Video.ParameterSets...); err != nil {
			return nil, err
		}
		s.logger.Infof("primed %d parameter sets from sdp", len(s.Video.ParameterSets))
	}
	return s, nil
}

// Path 流路径
func (s *Stream) Path() string {
	return s.path
}

// Sdp  sdp 字串
func (s *Stream) Sdp() string {
	return s.rawsdp
}

// Attr 流属性
func (s *Stream) Attr(key string) string {
	return s.attrs[strings.ToLower(strings.TrimSpace(key))]
}

// Extractor 流的 SEI 提取器
func (s *Stream) Extractor() *sei.Extractor {
	return s.extractor
}

// ClockRate RTP 时钟频率
func (s *Stream) ClockRate() int {
	if s.Video != nil {
		return s.Video.ClockRate
	}
	return rtp.DefaultVideoClockRate
}

// Close 关闭流
func (s *Stream) Close() error {
	return s.close(StreamClosed)
}

func (s *Stream) close(status int32) error {
	if status != StreamReplaced {
		status = StreamClosed
	}
	atomic.CompareAndSwapInt32(&s.status, StreamOK, status)
	return nil
}

// WriteAccessUnit 写入 RTP 解包得到的访问单元，实现 rtp.AccessUnitWriter
func (s *Stream) WriteAccessUnit(au *rtp.AccessUnit) error {
	ts := au.Timestamp
	return s.process(au.Data, &ts, au.NTPTime)
}

// WriteAnnexB 写入一个 Annex-B 格式的访问单元
func (s *Stream) WriteAnnexB(data []byte) error {
	return s.process(data, nil, 0)
}

func (s *Stream) process(data []byte, ts *uint32, ntp int64) error {
	status := atomic.LoadInt32(&s.status)
	if status != StreamOK {
		return statusErrors[status]
	}

	atomic.AddUint64(&s.size, uint64(len(data)))
	seq := atomic.AddInt64(&s.aus, 1) - 1

	msgs, err := s.extractor.ProcessAU(data)
	if err != nil {
		return err
	}
	if s.enc == nil {
		return nil
	}

	for _, msg := range msgs {
		if err = s.enc.Encode(newRecord(s.path, seq, ts, ntp, msg)); err != nil {
			return err
		}
	}
	return nil
}

// StreamInfo 流信息
type StreamInfo struct {
	StartOn     string                 `json:"start_on"`
	Path        string                 `json:"path"`
	Addr        string                 `json:"addr,omitempty"`
	Size        int                    `json:"size"`
	AccessUnits int64                  `json:"accessunits"`
	Video       *sdp.VideoMeta         `json:"video,omitempty"`
	Extraction  stats.ExtractionSample `json:"extraction"`
}

// Info 获取流信息
func (s *Stream) Info() *StreamInfo {
	return &StreamInfo{
		StartOn:     s.startOn.Format(time.RFC3339Nano),
		Path:        s.path,
		Addr:        s.Attr("addr"),
		Size:        int(atomic.LoadUint64(&s.size) / 1024),
		AccessUnits: atomic.LoadInt64(&s.aus),
		Video:       s.Video,
		Extraction:  s.stats.GetSample(),
	}
}
