// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// sendMessage for the "send" CLI option.
func sendMessage(args []string) {
	if len(args) != 2 {
		printUsage()
	}

	var (
		uri       = args[0]
		dataInput = args[1]

		err  error
		data []byte
	)

	if dataInput == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(dataInput)
	}
	if err != nil {
		printFatal(err, "Reading input errored")
	}

	c, err := dial(uri)
	if err != nil {
		printFatal(err, "Connecting errored")
	}

	if err := c.SendMessage(data); err != nil {
		printFatal(err, "Sending message errored")
	}
	if err := flushAndDisconnect(c); err != nil {
		printFatal(err, "Delivering message errored")
	}

	log.WithFields(log.Fields{
		"peer":   c,
		"length": len(data),
	}).Info("Sent message")
}
