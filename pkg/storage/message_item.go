// SPDX-FileCopyrightText: 2019, 2020, 2021 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path"
	"sort"
	"time"
)

// MessageItem is the meta data of a stored message. The payload itself is stored in a file.
type MessageItem struct {
	Id   string `badgerhold:"key"`
	Peer string `badgerholdIndex:"Peer"`

	Pending  bool      `badgerholdIndex:"Pending"`
	Received time.Time `badgerholdIndex:"Received"`
	Expires  time.Time `badgerholdIndex:"Expires"`

	Length   int
	Digest   []byte
	Filename string
}

// newMessageItem creates a new MessageItem for a received payload.
func newMessageItem(id, peer string, payload []byte, lifetime time.Duration, storagePath string) MessageItem {
	now := time.Now()
	digest := sha256.Sum256(payload)

	mi := MessageItem{
		Id:   id,
		Peer: peer,

		Pending:  true,
		Received: now,

		Length:   len(payload),
		Digest:   digest[:],
		Filename: path.Join(storagePath, fmt.Sprintf("%x", sha256.Sum256([]byte(id)))),
	}

	if lifetime > 0 {
		mi.Expires = now.Add(lifetime)
	}

	return mi
}

// storePayload writes the message's payload to the disk.
func (mi MessageItem) storePayload(payload []byte) error {
	return os.WriteFile(mi.Filename, payload, 0600)
}

// deletePayload removes the message's payload from the disk.
func (mi MessageItem) deletePayload() error {
	return os.Remove(mi.Filename)
}

// Load the message's payload from the disk and verify its digest.
func (mi MessageItem) Load() ([]byte, error) {
	payload, err := os.ReadFile(mi.Filename)
	if err != nil {
		return nil, err
	}

	if digest := sha256.Sum256(payload); !bytes.Equal(digest[:], mi.Digest) {
		return nil, fmt.Errorf("payload of message %s is corrupted", mi.Id)
	}
	return payload, nil
}

// IsExpired checks if this message's lifetime is over.
func (mi MessageItem) IsExpired() bool {
	return !mi.Expires.IsZero() && time.Now().After(mi.Expires)
}

// sortByReceived orders MessageItems by their reception, which is also their identifiers' order.
func sortByReceived(mis []MessageItem) {
	sort.Slice(mis, func(i, j int) bool {
		return mis[i].Id < mis[j].Id
	})
}
