// SPDX-FileCopyrightText: 2021 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux
// +build !linux

package tcp

import (
	"net"
	"time"
)

func dial(address string) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 5 * time.Second,
	}
	return dialer.Dial("tcp", address)
}

func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		KeepAlive: 5 * time.Second,
	}
}
