// SPDX-FileCopyrightText: 2020, 2021 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fsnotify/fsnotify"

	"github.com/dtn7/rtp-go/pkg/rtp"
)

// exchange messages between an user and a peer over the filesystem.
type exchange struct {
	directory  string
	knownFiles sync.Map
	conn       *rtp.Conn
	watcher    *fsnotify.Watcher

	closeChan   chan os.Signal
	messageChan chan []byte
}

// startExchange to exchange messages between client and a peer.
func startExchange(args []string) {
	if len(args) != 2 {
		printUsage()
	}

	var (
		uri       = args[0]
		directory = args[1]

		err error
	)

	ex := &exchange{
		directory:   directory,
		closeChan:   make(chan os.Signal, 1),
		messageChan: make(chan []byte),
	}

	signal.Notify(ex.closeChan, os.Interrupt)

	if ex.conn, err = dial(uri); err != nil {
		printFatal(err, "Connecting errored")
	}

	if ex.watcher, err = fsnotify.NewWatcher(); err != nil {
		printFatal(err, "Starting file watcher errored")
	}
	if err = ex.watcher.Add(directory); err != nil {
		printFatal(err, "Adding directory to file watcher errored")
	}

	go ex.handleMessageRead()
	ex.handler()
}

// cleanFilepath creates a relative path from the initial path to a new file's path.
func (ex *exchange) cleanFilepath(f string) string {
	if rel, err := filepath.Rel(ex.directory, f); err != nil {
		log.WithField("path", f).WithError(err).Fatal("Failed to clean file path")
		return ""
	} else {
		return rel
	}
}

func (ex *exchange) handler() {
	defer func() {
		_ = ex.watcher.Close()
		if err := flushAndDisconnect(ex.conn); err != nil {
			log.WithError(err).Warn("Disconnecting errored")
		}
	}()

	for {
		select {
		case <-ex.closeChan:
			log.Info("Received interrupt signal")
			return

		case e, ok := <-ex.watcher.Events:
			if !ok {
				log.Error("fsnotify's Event channel was closed")
				return
			}

			if _, ok := ex.knownFiles.Load(ex.cleanFilepath(e.Name)); ok {
				log.WithField("file", e.Name).Debug("Skipping file; already known")
				continue
			}

			if e.Op&fsnotify.Create == 0 {
				log.WithFields(log.Fields{
					"file":      e.Name,
					"operation": e.Op.String(),
				}).Debug("Ignoring fsnotify event")
				continue
			}

			ex.readNewFile(e)

		case err, ok := <-ex.watcher.Errors:
			if !ok {
				log.Error("fsnotify's Errors channel was closed")
				return
			}

			log.WithError(err).Error("fsnotify errored")
			return

		case msg, ok := <-ex.messageChan:
			if !ok {
				log.Error("Connection was closed")
				return
			}

			filePath := filepath.Join(ex.directory, fmt.Sprintf("%x", sha256.Sum256(msg)))
			logger := log.WithFields(log.Fields{
				"length": len(msg),
				"file":   filePath,
			})

			// Register first, the Create event might arrive before WriteFile returns.
			ex.knownFiles.Store(ex.cleanFilepath(filePath), struct{}{})

			if err := os.WriteFile(filePath, msg, 0644); err != nil {
				logger.WithError(err).Error("Writing file errored")
				return
			}

			logger.Info("Saved received message")
		}
	}
}

func (ex *exchange) readNewFile(e fsnotify.Event) {
	for i := 0; i < 5; i++ {
		if data, err := os.ReadFile(e.Name); err != nil {
			log.WithError(err).WithField("file", e.Name).Warn("Reading file errored, retrying..")
		} else if len(data) == 0 {
			log.WithField("file", e.Name).Debug("File is still empty, retrying..")
		} else if err := ex.conn.SendMessage(data); err != nil {
			log.WithError(err).WithField("file", e.Name).Error("Sending message errored")
			return
		} else {
			ex.knownFiles.Store(ex.cleanFilepath(e.Name), struct{}{})
			log.WithFields(log.Fields{
				"file":   e.Name,
				"length": len(data),
			}).Info("Sent message")
			return
		}

		time.Sleep(time.Duration(math.Pow(2, float64(i))) * 100 * time.Millisecond)
	}

	log.WithField("file", e.Name).Error("Failed to process file, giving up.")
}

func (ex *exchange) handleMessageRead() {
	for {
		if msg, err := ex.conn.ReceiveMessage(); err != nil {
			log.WithError(err).Error("Receiving message errored")

			close(ex.messageChan)
			return
		} else {
			ex.messageChan <- msg
		}
	}
}
