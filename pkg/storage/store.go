// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage persists messages received by the daemon.
//
// Meta data lives in a badgerhold database while each payload is written to a file of its own.
package storage

import (
	"fmt"
	"os"
	"path"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/timshannon/badgerhold"
)

const (
	dirBadger  string = "db"
	dirMessage string = "msg"
)

// Store implements a storage for received messages together with meta data.
type Store struct {
	bh *badgerhold.Store

	badgerDir  string
	messageDir string

	counter uint64
}

// NewStore creates a new Store or opens an existing Store from the given path.
func NewStore(dir string) (s *Store, err error) {
	badgerDir := path.Join(dir, dirBadger)
	messageDir := path.Join(dir, dirMessage)

	opts := badgerhold.DefaultOptions
	opts.Dir = badgerDir
	opts.ValueDir = badgerDir
	opts.Logger = log.StandardLogger()
	opts.Options.ValueLogFileSize = 1<<28 - 1

	if dirErr := os.MkdirAll(badgerDir, 0700); dirErr != nil {
		err = dirErr
		return
	}
	if dirErr := os.MkdirAll(messageDir, 0700); dirErr != nil {
		err = dirErr
		return
	}

	if bh, bhErr := badgerhold.Open(opts); bhErr != nil {
		err = bhErr
	} else {
		s = &Store{
			bh: bh,

			badgerDir:  badgerDir,
			messageDir: messageDir,
		}
	}
	return
}

// Close the Store. It must not be used afterwards.
func (s *Store) Close() error {
	return s.bh.Close()
}

// nextId creates a new, time ordered identifier.
func (s *Store) nextId() string {
	return fmt.Sprintf("%020d-%06d", time.Now().UnixNano(), atomic.AddUint64(&s.counter, 1)%1000000)
}

// Push a received message to the Store. A positive lifetime limits its storage duration. The new
// MessageItem is pending until it was fetched.
func (s *Store) Push(peer string, payload []byte, lifetime time.Duration) (mi MessageItem, err error) {
	mi = newMessageItem(s.nextId(), peer, payload, lifetime, s.messageDir)

	if err = mi.storePayload(payload); err != nil {
		return
	}

	if err = s.bh.Insert(mi.Id, mi); err != nil {
		_ = mi.deletePayload()
		return
	}

	log.WithFields(log.Fields{
		"message": mi.Id,
		"peer":    peer,
		"length":  mi.Length,
	}).Info("Store inserted message")

	return
}

// Update an existing MessageItem.
func (s *Store) Update(mi MessageItem) error {
	log.WithFields(log.Fields{
		"message": mi.Id,
	}).Debug("Store updates MessageItem")

	return s.bh.Update(mi.Id, mi)
}

// Delete a MessageItem together with its payload.
func (s *Store) Delete(id string) error {
	mi, err := s.QueryId(id)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"message": id,
	}).Info("Store deletes MessageItem")

	if err := mi.deletePayload(); err != nil {
		log.WithFields(log.Fields{
			"message": id,
			"file":    mi.Filename,
			"error":   err,
		}).Warn("Failed to delete message payload")
	}

	return s.bh.Delete(mi.Id, MessageItem{})
}

// DeleteExpired removes all expired messages.
func (s *Store) DeleteExpired() {
	var mis []MessageItem
	if err := s.bh.Find(&mis, badgerhold.Where("Expires").Lt(time.Now())); err != nil {
		log.WithError(err).Warn("Failed to get expired messages")
		return
	}

	for _, mi := range mis {
		if !mi.IsExpired() {
			continue
		}

		logger := log.WithField("message", mi.Id)
		if err := s.Delete(mi.Id); err != nil {
			logger.WithError(err).Warn("Failed to delete expired message")
		} else {
			logger.Info("Deleted expired message")
		}
	}
}

// QueryId fetches the MessageItem for the requested identifier.
func (s *Store) QueryId(id string) (mi MessageItem, err error) {
	err = s.bh.Get(id, &mi)
	return
}

// QueryPending fetches all messages which were not fetched yet.
func (s *Store) QueryPending() (mis []MessageItem, err error) {
	if err = s.bh.Find(&mis, badgerhold.Where("Pending").Eq(true)); err == nil {
		sortByReceived(mis)
	}
	return
}

// QueryPeer fetches all messages received from a peer.
func (s *Store) QueryPeer(peer string) (mis []MessageItem, err error) {
	if err = s.bh.Find(&mis, badgerhold.Where("Peer").Eq(peer)); err == nil {
		sortByReceived(mis)
	}
	return
}

// QueryAll fetches all stored messages.
func (s *Store) QueryAll() (mis []MessageItem, err error) {
	if err = s.bh.Find(&mis, nil); err == nil {
		sortByReceived(mis)
	}
	return
}

// KnowsMessage checks if such a message is stored.
func (s *Store) KnowsMessage(id string) bool {
	_, err := s.QueryId(id)
	return err != badgerhold.ErrNotFound
}
