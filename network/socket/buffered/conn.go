// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package buffered

import (
	"bufio"
	"net"
	"time"

	"github.com/cnotch/avcsei/av/format/rtp"
	"github.com/kelindar/rate"
)

const (
	defaultRate       = 50
	defaultBufferSize = 64 * 1024
	minBufferSize     = 8 * 1024
)

// Conn 带缓冲的接入连接。
// 读方向按交织模式解析 RTP 包；写方向把逐行输出的提取结果合并，
// 按频率限制刷新到底层连接。Write 和 Close 不可并发调用。
type Conn struct {
	net.Conn
	reader     *bufio.Reader
	writer     *bufio.Writer
	limit      *rate.Limiter // 刷新频率
	bufferSize int
}

// NewConn 包装 c 为带缓冲的连接
func NewConn(c net.Conn, options ...Option) *Conn {
	conn := &Conn{Conn: c}
	for _, option := range options {
		option.apply(conn)
	}

	if conn.limit == nil {
		conn.limit = rate.New(defaultRate, time.Second)
	}
	if conn.bufferSize <= 0 {
		conn.bufferSize = defaultBufferSize
	}

	conn.reader = bufio.NewReaderSize(c, conn.bufferSize)
	conn.writer = bufio.NewWriterSize(c, conn.bufferSize)
	return conn
}

// Reader 返回读缓冲
func (c *Conn) Reader() *bufio.Reader {
	return c.reader
}

// ReadPacket 从读缓冲读取一个交织模式的 RTP/RTCP 包
func (c *Conn) ReadPacket(channelConfig []int) (*rtp.Packet, error) {
	return rtp.ReadPacket(c.reader, channelConfig)
}

// Read 从读缓冲读取数据
func (c *Conn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// Buffered 写缓冲中待刷新的字节数
func (c *Conn) Buffered() int {
	return c.writer.Buffered()
}

// Write 写入缓冲；缓冲满或到达刷新间隔时写到底层连接
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if err != nil {
		return n, err
	}

	// 未到达刷新间隔，留在缓冲中
	if c.limit.Limit() {
		return n, nil
	}
	return n, c.writer.Flush()
}

// Flush 将缓冲中的数据写到底层连接
func (c *Conn) Flush() error {
	return c.writer.Flush()
}

// Close 刷新缓冲后关闭连接
func (c *Conn) Close() error {
	ferr := c.writer.Flush()
	if err := c.Conn.Close(); err != nil {
		return err
	}
	return ferr
}

// Option 配置 Conn 的选项接口
type Option interface {
	apply(*Conn)
}

type optionFunc func(*Conn)

func (f optionFunc) apply(c *Conn) {
	f(c)
}

// FlushRate 写缓冲每秒最多刷新的次数
func FlushRate(r int) Option {
	return optionFunc(func(c *Conn) {
		if r < 1 {
			r = defaultRate
		}
		c.limit = rate.New(r, time.Second)
	})
}

// BufferSize 读写缓冲大小，不小于 8K
func BufferSize(bufferSize int) Option {
	return optionFunc(func(c *Conn) {
		if bufferSize < minBufferSize {
			bufferSize = minBufferSize
		}
		c.bufferSize = bufferSize
	})
}
