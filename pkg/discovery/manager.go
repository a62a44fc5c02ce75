// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2020 Markus Sommer
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package discovery

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/schollz/peerdiscovery"
)

// Manager publishes own and receives foreign Announcements.
type Manager struct {
	Node   string
	Notify func(Peer)

	stopChan4 chan struct{}
	stopChan6 chan struct{}
}

// NewManager for Announcements will be created and started. The Notify function is called for each
// Announcement of other nodes.
func NewManager(
	node string, notify func(Peer),
	announcements []Announcement, announcementInterval time.Duration,
	ipv4, ipv6 bool) (*Manager, error) {

	var manager = &Manager{
		Node:   node,
		Notify: notify,
	}
	if ipv4 {
		manager.stopChan4 = make(chan struct{})
	}
	if ipv6 {
		manager.stopChan6 = make(chan struct{})
	}

	log.WithFields(log.Fields{
		"interval":      announcementInterval,
		"IPv4":          ipv4,
		"IPv6":          ipv6,
		"announcements": announcements,
	}).Info("Starting discovery Manager")

	msg, err := MarshalAnnouncements(announcements)
	if err != nil {
		return nil, err
	}

	sets := []struct {
		active           bool
		multicastAddress string
		stopChan         chan struct{}
		ipVersion        peerdiscovery.IPVersion
		notify           func(discovered peerdiscovery.Discovered)
	}{
		{ipv4, address4, manager.stopChan4, peerdiscovery.IPv4, manager.notify},
		{ipv6, address6, manager.stopChan6, peerdiscovery.IPv6, manager.notify6},
	}

	for _, set := range sets {
		if !set.active {
			continue
		}

		set := peerdiscovery.Settings{
			Limit:            -1,
			Port:             fmt.Sprintf("%d", port),
			MulticastAddress: set.multicastAddress,
			Payload:          msg,
			Delay:            announcementInterval,
			TimeLimit:        -1,
			StopChan:         set.stopChan,
			AllowSelf:        true,
			IPVersion:        set.ipVersion,
			Notify:           set.notify,
		}

		discoverErrChan := make(chan error)
		go func() {
			_, discoverErr := peerdiscovery.Discover(set)
			discoverErrChan <- discoverErr
		}()

		select {
		case discoverErr := <-discoverErrChan:
			if discoverErr != nil {
				return nil, discoverErr
			}

		case <-time.After(time.Second):
			break
		}
	}

	return manager, nil
}

func (manager *Manager) notify6(discovered peerdiscovery.Discovered) {
	discovered.Address = fmt.Sprintf("[%s]", discovered.Address)

	manager.notify(discovered)
}

func (manager *Manager) notify(discovered peerdiscovery.Discovered) {
	peers, err := parseDiscovered(discovered)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"discovery": manager,
			"peer":      discovered.Address,
		}).Warn("Peer discovery failed to parse incoming package")

		return
	}

	for _, peer := range peers {
		log.WithFields(log.Fields{
			"discovery": manager,
			"peer":      peer.URI(),
			"node":      peer.Node,
		}).Debug("Peer discovery received an announcement")

		if peer.Node == manager.Node || manager.Notify == nil {
			continue
		}

		manager.Notify(peer)
	}
}

func (manager *Manager) String() string {
	return fmt.Sprintf("discovery(%s)", manager.Node)
}

// Close this Manager.
func (manager *Manager) Close() {
	for _, c := range []chan struct{}{manager.stopChan4, manager.stopChan6} {
		if c != nil {
			c <- struct{}{}
		}
	}
}

// parseDiscovered creates a Peer for each Announcement of a received package.
func parseDiscovered(discovered peerdiscovery.Discovered) ([]Peer, error) {
	announcements, err := UnmarshalAnnouncements(discovered.Payload)
	if err != nil {
		return nil, err
	}

	peers := make([]Peer, 0, len(announcements))
	for _, announcement := range announcements {
		peers = append(peers, Peer{Announcement: announcement, Address: discovered.Address})
	}
	return peers, nil
}

// Discover listens for a limited time for announced RTP listeners, without announcing any itself.
func Discover(duration time.Duration, ipv6 bool) ([]Peer, error) {
	msg, err := MarshalAnnouncements(nil)
	if err != nil {
		return nil, err
	}

	set := peerdiscovery.Settings{
		Limit:            -1,
		Port:             fmt.Sprintf("%d", port),
		MulticastAddress: address4,
		Payload:          msg,
		Delay:            500 * time.Millisecond,
		TimeLimit:        duration,
		AllowSelf:        true,
		IPVersion:        peerdiscovery.IPv4,
	}
	if ipv6 {
		set.MulticastAddress = address6
		set.IPVersion = peerdiscovery.IPv6
	}

	discoveries, err := peerdiscovery.Discover(set)
	if err != nil {
		return nil, err
	}

	var (
		peers []Peer
		known = make(map[string]bool)
	)
	for _, discovered := range discoveries {
		if ipv6 {
			discovered.Address = fmt.Sprintf("[%s]", discovered.Address)
		}

		discoveredPeers, err := parseDiscovered(discovered)
		if err != nil {
			log.WithError(err).WithField("peer", discovered.Address).Debug("Ignoring unparsable discovery package")
			continue
		}

		for _, peer := range discoveredPeers {
			if !known[peer.URI()] {
				known[peer.URI()] = true
				peers = append(peers, peer)
			}
		}
	}

	return peers, nil
}
