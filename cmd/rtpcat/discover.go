// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dtn7/rtp-go/pkg/discovery"
)

// discoverPeers for the "discover" CLI option.
func discoverPeers(args []string) {
	var (
		duration = 10 * time.Second
		ipv6     = false
	)

	switch len(args) {
	case 2:
		if args[1] != "ipv6" {
			printUsage()
		}
		ipv6 = true
		fallthrough

	case 1:
		seconds, err := strconv.Atoi(args[0])
		if err != nil || seconds <= 0 {
			printUsage()
		}
		duration = time.Duration(seconds) * time.Second

	case 0:

	default:
		printUsage()
	}

	peers, err := discovery.Discover(duration, ipv6)
	if err != nil {
		printFatal(err, "Discovery errored")
	}

	for _, peer := range peers {
		fmt.Printf("%s\t%s\n", peer.Node, peer.URI())
	}
}
