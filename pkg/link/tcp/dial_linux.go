// SPDX-FileCopyrightText: 2021 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux
// +build linux

package tcp

import (
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// On Linux, the socket options of tcp(7) are tightened to detect vanished peers quickly. A dead TCP
// connection results in a failing Link, which kills the RTP connection on top of it.

// dialControl is the net.Dialer's Control function to set the socket options.
func dialControl(_, _ string, rawConn syscall.RawConn) (err error) {
	const (
		// keepCnt sets TCP_KEEPCNT, the maximum number of unanswered keepalive probes.
		keepCnt int = 2

		// keepIdle sets TCP_KEEPIDLE, the idle time in seconds before sending keepalive probes.
		keepIdle int = 5

		// keepIntvl sets TCP_KEEPINTVL, the time in seconds between keepalive probes.
		keepIntvl int = 3

		// userTimeout sets TCP_USER_TIMEOUT, the time in milliseconds transmitted data may remain
		// unacknowledged before the connection is closed.
		userTimeout int = 10000
	)

	opts := map[int]int{
		unix.TCP_KEEPCNT:      keepCnt,
		unix.TCP_KEEPIDLE:     keepIdle,
		unix.TCP_KEEPINTVL:    keepIntvl,
		unix.TCP_USER_TIMEOUT: userTimeout,
	}

	ctrlErr := rawConn.Control(func(fd uintptr) {
		for opt, value := range opts {
			if err = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, opt, value); err != nil {
				return
			}
		}
	})
	if err == nil {
		err = ctrlErr
	}

	return
}

func dial(address string) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout: dialTimeout,
		Control: dialControl,
	}
	return dialer.Dial("tcp", address)
}

// listenConfig applies the same socket options to accepted connections.
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		KeepAlive: 5 * time.Second,
		Control:   dialControl,
	}
}
