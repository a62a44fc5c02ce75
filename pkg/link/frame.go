// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package link

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dtn7/cboring"
)

// MaxFrameSize limits the size of a frame read from a stream.
const MaxFrameSize = 1 << 17

// WriteFrame writes a frame as a CBOR byte string to a stream and flushes it.
//
// An empty frame is a keepalive or probe. It is skipped by ReadFrame.
func WriteFrame(frame []byte, w *bufio.Writer) error {
	if err := cboring.WriteByteStringLen(uint64(len(frame)), w); err != nil {
		return err
	}

	if _, err := w.Write(frame); err != nil {
		return err
	}

	return w.Flush()
}

// ReadFrame reads the next non-empty frame, written by WriteFrame, from a stream.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	for {
		n, err := cboring.ReadByteStringLen(r)
		if err != nil {
			return nil, err
		} else if n == 0 {
			continue
		} else if n > MaxFrameSize {
			return nil, fmt.Errorf("frame of %d bytes exceeds maximum of %d bytes", n, MaxFrameSize)
		}

		frame := make([]byte, n)
		if _, err := io.ReadFull(r, frame); err != nil {
			return nil, err
		}
		return frame, nil
	}
}
