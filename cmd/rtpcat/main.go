// SPDX-FileCopyrightText: 2020, 2021 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// rtpcat is a small client for RTP peers, e.g., a rtpd.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// printUsage of rtpcat and exit with an error code afterwards.
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage of %s send|chat|exchange|discover:\n\n", os.Args[0])

	_, _ = fmt.Fprintf(os.Stderr, "Each URI is one of tcp://host:port, ws://host:port/path, quic://host:port, or\n")
	_, _ = fmt.Fprintf(os.Stderr, "rf95:///dev/device. The query parameters checksum, max-payload, and ack-timeout\n")
	_, _ = fmt.Fprintf(os.Stderr, "configure the connection, e.g., tcp://localhost:35040?checksum=crc32.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s send URI -|filename\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Sends the stdin (-) or the given file as one message and waits for its\n")
	_, _ = fmt.Fprintf(os.Stderr, "  acknowledgement.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s chat URI\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Sends each line of the stdin as a message and prints all received messages.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s exchange URI directory\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Writes incoming messages in the directory. If the user drops a new file in\n")
	_, _ = fmt.Fprintf(os.Stderr, "  the directory, it will be sent to the peer.\n\n")

	_, _ = fmt.Fprintf(os.Stderr, "%s discover [seconds] [ipv6]\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  Lists all RTP listeners announced in the local network.\n\n")

	os.Exit(1)
}

// printFatal logs an error and exits.
func printFatal(err error, msg string) {
	log.WithError(err).Fatal(msg)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
	}

	switch os.Args[1] {
	case "send":
		sendMessage(os.Args[2:])

	case "chat":
		startChat(os.Args[2:])

	case "exchange":
		startExchange(os.Args[2:])

	case "discover":
		discoverPeers(os.Args[2:])

	default:
		printUsage()
	}
}
