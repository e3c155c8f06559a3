/**********************************************************************************
* Copyright (c) 2009-2017 Misakai Ltd.
* This program is free software: you can redistribute it and/or modify it under the
* terms of the GNU Affero General Public License as published by the  Free Software
* Foundation, either version 3 of the License, or(at your option) any later version.
*
* This program is distributed  in the hope that it  will be useful, but WITHOUT ANY
* WARRANTY;  without even  the implied warranty of MERCHANTABILITY or FITNESS FOR A
* PARTICULAR PURPOSE.  See the GNU Affero General Public License  for  more details.
*
* You should have  received a copy  of the  GNU Affero General Public License along
* with this program. If not, see<http://www.gnu.org/licenses/>.
************************************************************************************/
//
// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package websocket

import (
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Subprotocol 交织 RTP 接入的子协议
const Subprotocol = "avcsei"

// 写出的消息类型
const (
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage
)

// ErrNotWebsocket 请求不是 websocket 握手
var ErrNotWebsocket = errors.New("websocket: not a websocket handshake")

// The default upgrader to use
var upgrader = &websocket.Upgrader{
	Subprotocols: []string{Subprotocol},
	CheckOrigin:  func(r *http.Request) bool { return true },
}

type socket interface {
	NextReader() (messageType int, r io.Reader, err error)
	NextWriter(messageType int) (io.WriteCloser, error)
	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Subprotocol() string
}

// Conn 将 websocket 连接适配为 net.Conn：
// 读方向把二进制和文本消息合并为字节流，每次 Write 写出一条消息
type Conn struct {
	mu          sync.Mutex // 串行化写
	socket      socket
	reader      io.Reader // 当前正在读的消息
	messageType int       // Write 写出的消息类型
}

var _ net.Conn = (*Conn)(nil)

// Upgrade 将 HTTP 请求升级为 websocket 连接，Write 以 messageType 类型的消息写出；
// 握手失败时 upgrader 已向客户端回复错误
func Upgrade(w http.ResponseWriter, r *http.Request, messageType int) (*Conn, error) {
	if w == nil || r == nil || !websocket.IsWebSocketUpgrade(r) {
		return nil, ErrNotWebsocket
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newConn(ws, messageType), nil
}

func newConn(ws socket, messageType int) *Conn {
	if messageType != TextMessage {
		messageType = BinaryMessage
	}
	return &Conn{socket: ws, messageType: messageType}
}

// Read 读取消息内容；对端正常关闭时返回 io.EOF
func (c *Conn) Read(b []byte) (n int, err error) {
	for c.reader == nil {
		var opCode int
		var r io.Reader
		if opCode, r, err = c.socket.NextReader(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = io.EOF
			}
			return
		}
		if opCode == websocket.BinaryMessage || opCode == websocket.TextMessage {
			c.reader = r
		}
	}

	n, err = c.reader.Read(b)
	if err == io.EOF {
		// 当前消息读完，下次读取下一条消息
		c.reader = nil
		err = nil
	}
	return
}

// Write 将 b 作为一条消息写出
func (c *Conn) Write(b []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var w io.WriteCloser
	if w, err = c.socket.NextWriter(c.messageType); err != nil {
		return
	}
	if n, err = w.Write(b); err == nil {
		err = w.Close()
	}
	return
}

// Close terminates the connection.
func (c *Conn) Close() error {
	return c.socket.Close()
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	return c.socket.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.socket.RemoteAddr()
}

// SetDeadline sets the read and write deadlines associated
// with the connection.
func (c *Conn) SetDeadline(t time.Time) (err error) {
	if err = c.socket.SetReadDeadline(t); err == nil {
		err = c.socket.SetWriteDeadline(t)
	}
	return
}

// SetReadDeadline sets the deadline for future Read calls.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.socket.SetReadDeadline(t)
}

// SetWriteDeadline sets the deadline for future Write calls.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.socket.SetWriteDeadline(t)
}

// Subprotocol 协商的子协议名称
func (c *Conn) Subprotocol() string {
	return c.socket.Subprotocol()
}
