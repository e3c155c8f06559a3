// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"bytes"

	"github.com/cnotch/avcsei/utils/bits"
)

var startCode = []byte{0x00, 0x00, 0x01}

// naluSpan 一个 NAL 单元在字节流中的位置
type naluSpan struct {
	prefix int // 起始码位置
	start  int // NAL 单元首字节
	end    int // 去除尾部 0 后的结束位置
}

// scanStartCodes 扫描 Annex-B 字节流中的起始码 00 00 01。
// 返回首个起始码之前的数据的结束位置及各 NAL 单元的位置。
func scanStartCodes(stream []byte) (leadingEnd int, spans []naluSpan) {
	next := indexStartCode(stream, 0)
	if next < 0 {
		return trimZeros(stream, 0, len(stream)), nil
	}
	leadingEnd = trimZeros(stream, 0, next)

	for next >= 0 {
		span := naluSpan{prefix: next, start: next + len(startCode)}
		next = indexStartCode(stream, span.start)
		if next < 0 {
			if span.start == len(stream) { // 以起始码结尾
				break
			}
			span.end = trimZeros(stream, span.start, len(stream))
		} else {
			span.end = trimZeros(stream, span.start, next)
		}
		spans = append(spans, span)
	}
	return
}

func indexStartCode(stream []byte, from int) int {
	i := bytes.Index(stream[from:], startCode)
	if i < 0 {
		return -1
	}
	return from + i
}

// trimZeros 去除 [start,end) 尾部的 0，返回新的 end
func trimZeros(stream []byte, start, end int) int {
	for end > start && stream[end-1] == 0 {
		end--
	}
	return end
}

// SplitNALUs 按起始码切分 Annex-B 字节流，返回首个起始码之前的数据及各 NAL 单元。
// 返回的都是 stream 的子切片，尾部的 0 已去除。
func SplitNALUs(stream []byte) (leading []byte, nalus [][]byte) {
	leadingEnd, spans := scanStartCodes(stream)
	leading = stream[:leadingEnd]
	if len(spans) > 0 {
		nalus = make([][]byte, len(spans))
		for i, span := range spans {
			nalus[i] = stream[span.start:span.end]
		}
	}
	return
}

// SliceNALUs 按起始码切分 Annex-B 字节流；首个起始码之前存在数据时返回 ErrLeadingData
func SliceNALUs(stream []byte) ([][]byte, error) {
	leading, nalus := SplitNALUs(stream)
	if len(leading) > 0 {
		return nil, ErrLeadingData
	}
	return nalus, nil
}

// SplitAccessUnits 将 Annex-B 字节流按访问单元(AU)切分。
// 每个 AU 包含自己的起始码，可直接交给 sei.Extractor.ProcessAU。
//
// 按 7.4.1.2.3 的简化规则判定新 AU 的开始：
// 分界符；VCL 之后出现的 SEI/SPS/PPS/14..18；
// VCL 之后出现 first_mb_in_slice 为 0 的新片。
func SplitAccessUnits(stream []byte) [][]byte {
	_, spans := scanStartCodes(stream)
	if len(spans) == 0 {
		if len(stream) == 0 {
			return nil
		}
		return [][]byte{stream}
	}

	var aus [][]byte
	auStart := 0 // 首个 AU 包含起始码之前的数据
	hasNALU, seenVCL := false, false
	for _, span := range spans {
		if span.end == span.start {
			continue
		}
		nt := stream[span.start] & NalTypeBitmask

		newAU := false
		switch {
		case nt == NalAud:
			newAU = true
		case nt == NalSei || nt == NalSps || nt == NalPps ||
			(nt >= NalPrefix && nt <= NalReserved18):
			newAU = seenVCL
		case IsSlice(nt):
			newAU = seenVCL && firstMbInSlice(stream[span.start+1:span.end]) == 0
		}

		if newAU && hasNALU {
			// zero_byte 归入新的 AU
			cut := trimZeros(stream, auStart, span.prefix)
			aus = append(aus, stream[auStart:cut])
			auStart = cut
			seenVCL = false
		}
		hasNALU = true
		if IsVCL(nt) {
			seenVCL = true
		}
	}
	return append(aus, stream[auStart:])
}

// firstMbInSlice 读取 slice_header 的 first_mb_in_slice，失败返回 -1
func firstMbInSlice(rbsp []byte) int64 {
	if len(rbsp) > 8 {
		rbsp = rbsp[:8]
	}
	r := bits.NewReader(DecodeRBSP(rbsp))
	v, err := r.ReadUe()
	if err != nil {
		return -1
	}
	return int64(v)
}
