// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rtp

import (
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/howeyc/crc16"
)

// ChecksumKind selects the algorithm protecting each packet's payload. Both peers must agree on it.
type ChecksumKind uint8

const (
	// ChecksumSum is the plain sum of all payload bytes.
	ChecksumSum ChecksumKind = iota

	// ChecksumCRC16 is a standard X.25 CRC-16.
	ChecksumCRC16

	// ChecksumCRC32 is a CRC32C (Castagnoli) CRC-32.
	ChecksumCRC32
)

var (
	crc16table = crc16.MakeTable(crc16.CCITT)
	crc32table = crc32.MakeTable(crc32.Castagnoli)
)

// Sum calculates this ChecksumKind's checksum over some payload.
func (k ChecksumKind) Sum(payload []byte) uint32 {
	switch k {
	case ChecksumCRC16:
		return uint32(crc16.Checksum(payload, crc16table))

	case ChecksumCRC32:
		return crc32.Checksum(payload, crc32table)

	default:
		var sum uint32
		for _, b := range payload {
			sum += uint32(b)
		}
		return sum
	}
}

func (k ChecksumKind) String() string {
	switch k {
	case ChecksumSum:
		return "sum"
	case ChecksumCRC16:
		return "crc16"
	case ChecksumCRC32:
		return "crc32"
	default:
		return "unknown"
	}
}

// ParseChecksumKind for a name as returned by ChecksumKind.String. The empty string selects ChecksumSum.
func ParseChecksumKind(name string) (ChecksumKind, error) {
	switch strings.ToLower(name) {
	case "", "sum":
		return ChecksumSum, nil
	case "crc16":
		return ChecksumCRC16, nil
	case "crc32":
		return ChecksumCRC32, nil
	default:
		return 0, fmt.Errorf("unknown checksum %q", name)
	}
}
