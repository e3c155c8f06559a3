// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cnotch/avcsei/config"
	"github.com/cnotch/avcsei/media"
	"github.com/cnotch/avcsei/network/websocket"
	"github.com/cnotch/avcsei/stats"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
	"github.com/emitter-io/address"
	"github.com/kelindar/tcp"
)

// 默认端口
const (
	defaultIngestPort = 8554
	defaultHTTPPort   = 8080
)

// Service 网络服务对象(服务的入口)
type Service struct {
	context   context.Context
	cancel    context.CancelFunc
	logger    *xlog.Logger
	http      *http.Server
	ingest    *tcp.Server
	listeners []net.Listener
}

// NewService 创建服务
func NewService(ctx context.Context, l *xlog.Logger) (s *Service, err error) {
	ctx, cancel := context.WithCancel(ctx)
	s = &Service{
		context: ctx,
		cancel:  cancel,
		logger:  l,
		http:    new(http.Server),
		ingest:  new(tcp.Server),
	}

	// 设置接入 AcceptHandler
	s.ingest.OnAccept = newIngestHandler(l, config.ExtractorOptions(), config.LocalOnly())

	// 设置 http 的Handler
	mux := http.NewServeMux()
	s.initApis(mux)
	// 交织 RTP over websocket，提取结果以文本消息输出
	mux.HandleFunc("/ws/ingest", func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Upgrade(w, r, websocket.TextMessage)
		if err != nil {
			if err == websocket.ErrNotWebsocket {
				http.Error(w, err.Error(), http.StatusBadRequest)
			}
			return
		}
		s.ingest.OnAccept(c)
	})
	s.http.Handler = mux

	// 定时输出统计
	if interval := config.StatsInterval(); interval > 0 {
		scheduler.PeriodFunc(interval, interval, func() {
			s.logStats()
		}, "The task of logging extraction statistics")
	}

	s.logger.Info("service configured")
	return s, nil
}

// Listen starts the service and blocks until it is closed.
func (s *Service) Listen() (err error) {
	defer s.Close()
	s.hookSignals()

	addr, err := address.Parse(config.Addr(), defaultIngestPort)
	if err != nil {
		return err
	}
	if err = s.listen(addr, s.ingest.Serve); err != nil {
		return err
	}

	if config.HTTPAddr() != "" {
		httpAddr, err := address.Parse(config.HTTPAddr(), defaultHTTPPort)
		if err != nil {
			return err
		}
		if err = s.listen(httpAddr, s.http.Serve); err != nil {
			return err
		}
	}

	s.logger.Infof("service started(%s).", config.Version)
	<-s.context.Done()
	return nil
}

// listen configures a listener on a specified address.
func (s *Service) listen(addr *net.TCPAddr, serve func(net.Listener) error) error {
	s.logger.Infof("starting the listener, addr = %s.", addr.String())

	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		return err
	}
	s.listeners = append(s.listeners, l)

	go func() {
		if err := serve(l); err != nil && s.context.Err() == nil {
			s.logger.Error(err.Error())
		}
	}()
	return nil
}

// Close closes gracefully the service.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}

	for _, l := range s.listeners {
		l.Close()
	}
	s.listeners = nil

	// 停止计划任务
	jobs := scheduler.Jobs()
	for _, job := range jobs {
		job.Cancel()
	}

	// 清空注册
	media.UnregistAll()
	s.logStats()
}

func (s *Service) logStats() {
	sample := stats.Total.GetSample()
	sessions := stats.Sessions.GetSample()
	s.logger.Infof("sessions %d/%d (rejected %d, failed %d), access units %d, nalus %d, messages %d, errors %d, muted %d",
		sessions.Active, sessions.Total, sessions.Rejected, sessions.Failed, sample.AccessUnits, sample.NALUs,
		sample.Messages, sample.Errors, sample.Muted)
}

// hookSignals starts the signal processing.
func (s *Service) hookSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range c {
			s.onSignal(sig)
		}
	}()
}

// OnSignal will be called when a OS-level signal is received.
func (s *Service) onSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGTERM:
		fallthrough
	case syscall.SIGINT:
		s.logger.Warn(fmt.Sprintf("received signal %s, exiting...", sig.String()))
		s.cancel()
	}
}

// Uptime 服务已运行的时长
func Uptime() time.Duration {
	return time.Since(stats.StartingTime)
}
