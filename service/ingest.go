// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cnotch/avcsei/av/codec/h264/sei"
	"github.com/cnotch/avcsei/av/format/rtp"
	"github.com/cnotch/avcsei/config"
	"github.com/cnotch/avcsei/media"
	"github.com/cnotch/avcsei/network"
	"github.com/cnotch/avcsei/network/socket/buffered"
	"github.com/cnotch/avcsei/stats"
	"github.com/cnotch/xlog"
	"github.com/google/uuid"
	"github.com/kelindar/tcp"
)

const maxSdpSize = 64 * 1024

// 会话错误
var (
	ErrSdpTooLarge = errors.New("sdp is too large")
	ErrNotLocal    = errors.New("reject non-local client")
)

// ingestServer 接入交织模式 RTP 流的服务；
// 每个连接对应一路流，提取结果以 JSON 行写回同一连接
type ingestServer struct {
	logger    *xlog.Logger
	opts      sei.Options
	logRate   int
	timeout   time.Duration
	localOnly bool
}

// newIngestHandler 创建连接接入处理器
func newIngestHandler(logger *xlog.Logger, opts sei.Options, localOnly bool) tcp.OnAccept {
	svr := &ingestServer{
		logger:    logger,
		opts:      opts,
		logRate:   config.LogRate(),
		timeout:   config.NetTimeout(),
		localOnly: localOnly,
	}
	return svr.onAcceptConn
}

// onAcceptConn 当新连接接入时触发
func (svr *ingestServer) onAcceptConn(c net.Conn) {
	s := newSession(svr, c)
	go s.process()
}

// session 一个接入连接
type session struct {
	svr     *ingestServer
	logger  *xlog.Logger
	id      uuid.UUID
	timeout time.Duration
	conn    *buffered.Conn
}

func newSession(svr *ingestServer, conn net.Conn) *session {
	s := &session{
		svr:     svr,
		id:      uuid.New(),
		timeout: svr.timeout,
		conn: buffered.NewConn(conn,
			buffered.FlushRate(config.NetFlushRate()),
			buffered.BufferSize(config.NetBufferSize())),
	}
	s.logger = svr.logger.With(xlog.Fields(
		xlog.F("session", s.id.String())))
	return s
}

// path 会话对应流的路径
func (s *session) path() string {
	return "/ingest/" + s.id.String()
}

func (s *session) process() {
	var err error
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("session panic; %v \n %s", r, debug.Stack())
			err = fmt.Errorf("session panic: %v", r)
		}

		stats.Sessions.Close(err)
		s.conn.Close()
		s.logger.Infof("close ingest session")
	}()

	stats.Sessions.Open()
	s.logger.Infof("open ingest session from %s", addrString(s.conn.RemoteAddr()))

	if err = s.extract(); err != nil {
		s.logger.Error(err.Error())
	}
}

func (s *session) extract() error {
	if s.svr.localOnly && !network.IsLocalClient(s.conn) {
		stats.Sessions.Reject()
		return fmt.Errorf("%w: %s", ErrNotLocal, addrString(s.conn.RemoteAddr()))
	}

	rawsdp, err := readSdp(s.conn.Reader())
	if err != nil {
		return err
	}

	stream, err := media.NewStream(s.path(), rawsdp, s.svr.opts,
		media.Output(s.conn),
		media.Logger(s.logger),
		media.Attr("addr", addrString(s.conn.RemoteAddr())),
		media.Extractor(sei.LogRate(s.svr.logRate)))
	if err != nil {
		return err
	}
	media.Regist(stream)
	defer media.Unregist(stream)

	demuxer := rtp.NewDemuxer(stream.ClockRate(), stream, s.logger)
	err = s.receive(demuxer)
	if cerr := demuxer.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("extraction aborted: %w", cerr)
	}
	if dropped := demuxer.Dropped(); dropped > 0 {
		s.logger.Warnf("dropped %d malformed video packets", dropped)
	}
	return err
}

// receive 读取交织包直到客户端断开
func (s *session) receive(demuxer *rtp.Demuxer) error {
	for {
		deadLine := time.Time{}
		if s.timeout > 0 {
			deadLine = time.Now().Add(s.timeout)
		}
		if err := s.conn.SetReadDeadline(deadLine); err != nil {
			return err
		}

		p, err := s.conn.ReadPacket(rtp.DefaultChannelConfig)
		if err != nil {
			if errors.Is(err, rtp.ErrIllegalChannel) {
				s.logger.Warn(err.Error())
				continue
			}
			if err == io.EOF { // 如果客户端断开提醒
				s.logger.Info("the client actively disconnects")
				return nil
			}
			return err
		}

		if err = demuxer.WriteRtpPacket(p); err != nil {
			return err
		}
	}
}

// readSdp 读取会话开头可选的 SDP，以空行结束；
// 首字节为交织前缀 '$' 时没有 SDP
func readSdp(r *bufio.Reader) (string, error) {
	b, err := r.Peek(1)
	if err != nil {
		if err == io.EOF {
			return "", nil
		}
		return "", err
	}
	if b[0] == rtp.TransferPrefix {
		return "", nil
	}

	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read sdp: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			break
		}
		sb.WriteString(line)
		if sb.Len() > maxSdpSize {
			return "", ErrSdpTooLarge
		}
		if err == io.EOF {
			break
		}
	}
	return sb.String(), nil
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
