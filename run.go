// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/cnotch/avcsei/av/codec/h264/sei"
	"github.com/cnotch/avcsei/av/format/rtp"
	"github.com/cnotch/avcsei/config"
	"github.com/cnotch/avcsei/media"
	"github.com/cnotch/avcsei/stats"
	"github.com/cnotch/avcsei/utils"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
)

// runFile 按配置提取输入文件，返回进程退出码
func runFile(stdout io.Writer) int {
	logger := xlog.L()
	input := config.Input()
	if input == "" {
		logger.Error("no input, set -input or -listen")
		return 2
	}

	var rawsdp string
	if sdpFile := config.SdpFile(); sdpFile != "" {
		data, err := ioutil.ReadFile(sdpFile)
		if err != nil {
			logger.Error(err.Error())
			return 1
		}
		rawsdp = string(data)
	}

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			logger.Error(err.Error())
			return 1
		}
		defer f.Close()
		r = f
	}

	if interval := config.StatsInterval(); interval > 0 {
		scheduler.PeriodFunc(interval, interval, func() {
			logSample(stats.Total.GetSample())
		}, "The task of logging extraction statistics")
		defer func() {
			for _, job := range scheduler.Jobs() {
				job.Cancel()
			}
		}()
	}

	out := bufio.NewWriter(stdout)
	err := extract(r, out, utils.InputPath(input), rawsdp, config.Format(), config.ExtractorOptions(),
		media.Extractor(sei.LogRate(config.LogRate())))
	if ferr := out.Flush(); err == nil {
		err = ferr
	}

	report, _ := json.Marshal(stats.NewReport(stats.Total))
	logger.Infof("extraction finished: %s", report)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	return 0
}

// extract 读取 Annex-B 或交织 RTP 格式的输入，提取结果以 JSON 行写到 w
func extract(r io.Reader, w io.Writer, path, rawsdp, format string, opts sei.Options, options ...media.Option) error {
	options = append([]media.Option{media.Output(w)}, options...)
	stream, err := media.NewStream(path, rawsdp, opts, options...)
	if err != nil {
		return err
	}
	defer stream.Close()

	switch format {
	case config.FormatAnnexB:
		return extractAnnexB(r, stream)
	case config.FormatRTP:
		return extractRTP(r, stream)
	}
	return fmt.Errorf("unknown input format %q", format)
}

func extractAnnexB(r io.Reader, stream *media.Stream) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}

	for _, au := range h264.SplitAccessUnits(data) {
		if err = stream.WriteAnnexB(au); err != nil {
			return err
		}
	}
	return nil
}

func extractRTP(r io.Reader, stream *media.Stream) error {
	demuxer := rtp.NewDemuxer(stream.ClockRate(), stream, xlog.L())
	reader := bufio.NewReader(r)

	var rerr error
	for {
		p, err := rtp.ReadPacket(reader, rtp.DefaultChannelConfig)
		if err == io.EOF {
			break
		}
		if err != nil {
			rerr = err
			break
		}
		if err = demuxer.WriteRtpPacket(p); err != nil {
			rerr = err
			break
		}
	}

	if err := demuxer.Close(); err != nil {
		return err
	}
	if dropped := demuxer.Dropped(); dropped > 0 {
		xlog.L().Warnf("dropped %d malformed video packets", dropped)
	}
	return rerr
}

func logSample(sample stats.ExtractionSample) {
	xlog.L().Infof("access units %d, nalus %d, messages %d, errors %d, muted %d",
		sample.AccessUnits, sample.NALUs, sample.Messages, sample.Errors, sample.Muted)
}
