// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/rtp"
)

// startChat for the "chat" CLI option.
func startChat(args []string) {
	if len(args) != 1 {
		printUsage()
	}

	c, err := dial(args[0])
	if err != nil {
		printFatal(err, "Connecting errored")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		printMessages(c, os.Stdout)
	}()

	if err := sendLines(c, os.Stdin); err != nil {
		log.WithError(err).Warn("Sending errored")
	}
	if err := flushAndDisconnect(c); err != nil {
		log.WithError(err).Warn("Disconnecting errored")
	}

	<-done
}

// sendLines sends each non-empty line as a message.
func sendLines(c *rtp.Conn, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := c.SendMessage(scanner.Bytes()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// printMessages writes each received message as a line until the connection dies.
func printMessages(c *rtp.Conn, w io.Writer) {
	for {
		msg, err := c.ReceiveMessage()
		if err != nil {
			log.WithError(err).Debug("Receiving stopped")
			return
		}

		if _, err := fmt.Fprintf(w, "%s\n", msg); err != nil {
			log.WithError(err).Warn("Printing message errored")
			return
		}
	}
}
