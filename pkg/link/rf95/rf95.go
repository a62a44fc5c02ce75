// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rf95 provides a Link over LoRa by using a rf95modem, connected to a serial device.
//
// LoRa is a shared broadcast medium. A Link therefore only works for exactly two peers on the same
// frequency. Each frame is one radio packet, so the RTP packets must fit into the modem's MTU.
package rf95

import (
	"fmt"
	"sync"

	"github.com/dtn7/rf95modem-go/rf95"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/link"
)

// Link is a rf95modem carrying frames.
type Link struct {
	device string
	modem  *rf95.Modem
	mtu    int

	closeOnce sync.Once
	closeErr  error
	closedSyn chan struct{}
}

// Open the rf95modem at a serial device, e.g., /dev/ttyUSB0.
func Open(device string) (*Link, error) {
	modem, err := rf95.OpenSerial(device)
	if err != nil {
		return nil, err
	}

	mtu, err := modem.Mtu()
	if err != nil {
		_ = modem.Close()
		return nil, err
	}

	l := &Link{
		device:    device,
		modem:     modem,
		mtu:       mtu,
		closedSyn: make(chan struct{}),
	}

	log.WithFields(log.Fields{
		"link": l,
		"mtu":  mtu,
	}).Debug("Opened rf95modem link")

	return l, nil
}

// Mtu is the largest frame to be sent.
func (l *Link) Mtu() int {
	return l.mtu
}

// Frequency changes the modem's frequency, specified in MHz.
func (l *Link) Frequency(frequency float64) error {
	log.WithFields(log.Fields{
		"link":      l,
		"frequency": frequency,
	}).Debug("Shifting frequency")

	return l.modem.Frequency(frequency)
}

// Mode sets the modem's config, trading range for bandwidth.
func (l *Link) Mode(mode rf95.ModemMode) error {
	log.WithFields(log.Fields{
		"link": l,
		"mode": mode,
	}).Debug("Changing mode")

	return l.modem.Mode(mode)
}

func (l *Link) closed() bool {
	select {
	case <-l.closedSyn:
		return true
	default:
		return false
	}
}

func (l *Link) Send(frame []byte) (int, error) {
	if l.closed() {
		return 0, link.ErrClosed
	} else if len(frame) > l.mtu {
		return 0, fmt.Errorf("frame of %d bytes exceeds the MTU of %d bytes", len(frame), l.mtu)
	}

	return l.modem.Write(frame)
}

func (l *Link) Receive() ([]byte, error) {
	buf := make([]byte, l.mtu)
	n, err := l.modem.Read(buf)
	if err != nil {
		if l.closed() {
			return nil, link.ErrClosed
		}
		return nil, err
	}
	return buf[:n], nil
}

func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.closedSyn)
		l.closeErr = l.modem.Close()
	})
	return l.closeErr
}

func (l *Link) String() string {
	return fmt.Sprintf("rf95://%s", l.device)
}
