// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package network

import (
	"errors"
	"net"

	"github.com/emitter-io/address"
)

// ErrNoRemoteAddr 连接没有对端地址
var ErrNoRemoteAddr = errors.New("network: connection has no remote address")

// RemoteIP 获取连接对端的 IP
func RemoteIP(conn net.Conn) (net.IP, error) {
	return AddrIP(conn.RemoteAddr())
}

// AddrIP 获取网络地址中的 IP
func AddrIP(addr net.Addr) (net.IP, error) {
	switch a := addr.(type) {
	case nil:
		return nil, ErrNoRemoteAddr
	case *net.TCPAddr:
		return a.IP, nil
	case *net.UDPAddr:
		return a.IP, nil
	}

	tcpAddr, err := address.Parse(addr.String(), 0)
	if err != nil {
		return nil, err
	}
	return tcpAddr.IP, nil
}

// IsLocalhostIP 判断是否为本机IP：回环地址、未指定地址或本机网卡的私有地址
func IsLocalhostIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}

	privs, err := address.GetPrivate()
	if err != nil {
		return false
	}
	for _, priv := range privs {
		if priv.IP.Equal(ip) {
			return true
		}
	}
	return false
}

// IsLocalClient 判断连接是否来自本机
func IsLocalClient(conn net.Conn) bool {
	ip, err := RemoteIP(conn)
	return err == nil && IsLocalhostIP(ip)
}
