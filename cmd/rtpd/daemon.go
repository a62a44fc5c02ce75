// SPDX-FileCopyrightText: 2019, 2020, 2021 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dtn7/rtp-go/pkg/discovery"
	"github.com/dtn7/rtp-go/pkg/link"
	"github.com/dtn7/rtp-go/pkg/link/quic"
	"github.com/dtn7/rtp-go/pkg/link/tcp"
	"github.com/dtn7/rtp-go/pkg/link/ws"
	"github.com/dtn7/rtp-go/pkg/rtp"
	"github.com/dtn7/rtp-go/pkg/storage"
)

// janitorInterval between two removals of expired messages.
const janitorInterval = 10 * time.Second

// session is an accepted connection, identified by a daemon-wide counter.
type session struct {
	id      string
	conn    *rtp.Conn
	created time.Time
}

// daemon accepts rtp.Conns on all configured listeners. Received messages are either stored or
// echoed back to their sender.
type daemon struct {
	node     string
	opts     []rtp.Option
	lifetime time.Duration

	store *storage.Store

	listeners     []link.Listener
	announcements []discovery.Announcement
	acceptGroup   errgroup.Group

	sessionsMutex sync.Mutex
	sessions      map[string]*session
	sessionId     uint64
	closed        bool

	peersMutex sync.Mutex
	peers      map[string]discovery.Peer
	manager    *discovery.Manager

	router   *mux.Router
	server   *http.Server
	apiAddr  net.Addr
	handlers sync.WaitGroup

	stopSyn chan struct{}
}

// newDaemon starts a daemon based on an already validated configuration.
func newDaemon(conf tomlConfig) (d *daemon, err error) {
	d = &daemon{
		node:     conf.Node,
		sessions: make(map[string]*session),
		peers:    make(map[string]discovery.Peer),
		router:   mux.NewRouter(),
		stopSyn:  make(chan struct{}),
	}

	if d.opts, err = conf.Rtp.options(); err != nil {
		return nil, err
	}

	if conf.Store.Path != "" {
		if conf.Store.Lifetime != "" {
			if d.lifetime, err = time.ParseDuration(conf.Store.Lifetime); err != nil {
				return nil, err
			}
		}

		if d.store, err = storage.NewStore(conf.Store.Path); err != nil {
			return nil, err
		}
	}

	newApiRouter(d, d.router.PathPrefix("/api").Subrouter())

	if conf.Api.Listen != "" {
		apiListener, apiErr := net.Listen("tcp", conf.Api.Listen)
		if apiErr != nil {
			_ = d.Close()
			return nil, apiErr
		}

		d.apiAddr = apiListener.Addr()
		d.server = &http.Server{Handler: d.router}

		go func() {
			if serveErr := d.server.Serve(apiListener); serveErr != nil && serveErr != http.ErrServerClosed {
				log.WithError(serveErr).Warn("API server errored")
			}
		}()
	}

	for _, lc := range conf.Listen {
		if lnErr := d.listen(lc); lnErr != nil {
			_ = d.Close()
			return nil, lnErr
		}
	}

	if d.store != nil {
		d.handlers.Add(1)
		go d.janitor()
	}

	if conf.Discovery.IPv4 || conf.Discovery.IPv6 {
		interval := time.Duration(conf.Discovery.Interval) * time.Second
		if interval == 0 {
			interval = 10 * time.Second
		}

		d.manager, err = discovery.NewManager(
			conf.Node, d.registerPeer, d.announcements, interval, conf.Discovery.IPv4, conf.Discovery.IPv6)
		if err != nil {
			_ = d.Close()
			return nil, err
		}
	}

	return d, nil
}

// listen starts a listener together with its accept loop.
func (d *daemon) listen(lc listenConf) error {
	protocol, err := discovery.ParseProtocol(lc.Protocol)
	if err != nil {
		return err
	}

	var (
		ln   link.Listener
		port int
		path string
	)

	switch protocol {
	case discovery.TCP:
		tcpListener, tcpErr := tcp.Listen(lc.Endpoint)
		if tcpErr != nil {
			return tcpErr
		}
		ln, port = tcpListener, tcpListener.Addr().(*net.TCPAddr).Port

	case discovery.QUIC:
		quicListener, quicErr := quic.Listen(lc.Endpoint)
		if quicErr != nil {
			return quicErr
		}
		if port, err = parseListenPort(quicListener.Addr()); err != nil {
			_ = quicListener.Close()
			return err
		}
		ln = quicListener

	case discovery.WebSocket:
		if d.apiAddr == nil {
			return fmt.Errorf("WebSocket listener %s requires an API server", lc.Endpoint)
		}
		wsListener := ws.NewListener()
		d.router.Handle(lc.Endpoint, wsListener)
		ln, port, path = wsListener, d.apiAddr.(*net.TCPAddr).Port, lc.Endpoint
	}

	log.WithFields(log.Fields{
		"listener": ln,
		"endpoint": lc.Endpoint,
	}).Info("Started listener")

	d.listeners = append(d.listeners, ln)
	d.announcements = append(d.announcements, discovery.Announcement{
		Protocol: protocol,
		Node:     d.node,
		Port:     uint(port),
		Path:     path,
	})

	d.acceptGroup.Go(func() error { return d.acceptLoop(ln) })
	return nil
}

// acceptLoop wraps each incoming Link into a session until the listener is closed.
func (d *daemon) acceptLoop(ln link.Listener) error {
	for {
		l, err := ln.Accept()
		if errors.Is(err, link.ErrClosed) {
			return nil
		} else if err != nil {
			return fmt.Errorf("listener %v: %w", ln, err)
		}

		conn, err := rtp.NewConn(l, d.opts...)
		if err != nil {
			log.WithField("link", l).WithError(err).Warn("Failed to establish connection")
			_ = l.Close()
			continue
		}

		d.addSession(conn)
	}
}

func (d *daemon) addSession(conn *rtp.Conn) {
	d.sessionsMutex.Lock()
	defer d.sessionsMutex.Unlock()

	if d.closed {
		_ = conn.Disconnect()
		return
	}

	d.sessionId++
	s := &session{
		id:      strconv.FormatUint(d.sessionId, 10),
		conn:    conn,
		created: time.Now(),
	}
	d.sessions[s.id] = s

	log.WithFields(log.Fields{
		"session": s.id,
		"conn":    conn,
	}).Info("Accepted connection")

	d.handlers.Add(1)
	go d.handle(s)
}

func (d *daemon) removeSession(id string) {
	d.sessionsMutex.Lock()
	defer d.sessionsMutex.Unlock()

	delete(d.sessions, id)
}

// session by its id, or nil.
func (d *daemon) session(id string) *session {
	d.sessionsMutex.Lock()
	defer d.sessionsMutex.Unlock()

	return d.sessions[id]
}

// sessionList is a snapshot of all current sessions.
func (d *daemon) sessionList() (sessions []*session) {
	d.sessionsMutex.Lock()
	defer d.sessionsMutex.Unlock()

	for _, s := range d.sessions {
		sessions = append(sessions, s)
	}
	return
}

// handle all messages of a session until its connection dies.
func (d *daemon) handle(s *session) {
	defer d.handlers.Done()
	defer d.removeSession(s.id)

	logger := log.WithFields(log.Fields{
		"session": s.id,
		"conn":    s.conn,
	})

	for {
		msg, err := s.conn.ReceiveMessage()
		if err != nil {
			logger.WithError(err).Info("Connection finished")
			break
		}

		if d.store != nil {
			mi, storeErr := d.store.Push(s.conn.String(), msg, d.lifetime)
			if storeErr != nil {
				logger.WithError(storeErr).Warn("Storing message failed")
				continue
			}
			logger.WithFields(log.Fields{
				"message": mi.Id,
				"length":  mi.Length,
			}).Debug("Stored message")
		} else if sendErr := s.conn.SendMessage(msg); sendErr != nil {
			logger.WithError(sendErr).Info("Echoing message failed")
			break
		}
	}

	// Acknowledged messages are stored even if the peer terminated before they were handled.
	if d.store != nil {
		for _, msg := range s.conn.Undelivered() {
			if _, err := d.store.Push(s.conn.String(), msg, d.lifetime); err != nil {
				logger.WithError(err).Warn("Storing message failed")
			}
		}
	}

	if err := s.conn.Disconnect(); err != nil {
		logger.WithError(err).Debug("Disconnect reported errors")
	}
}

// janitor removes expired messages until the daemon is closed.
func (d *daemon) janitor() {
	defer d.handlers.Done()

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.store.DeleteExpired()
		case <-d.stopSyn:
			return
		}
	}
}

// registerPeer is called by the discovery.Manager.
func (d *daemon) registerPeer(peer discovery.Peer) {
	d.peersMutex.Lock()
	defer d.peersMutex.Unlock()

	if _, known := d.peers[peer.URI()]; !known {
		log.WithFields(log.Fields{
			"node": peer.Node,
			"peer": peer.URI(),
		}).Info("Discovered new peer")
	}
	d.peers[peer.URI()] = peer
}

func (d *daemon) peerList() (peers []discovery.Peer) {
	d.peersMutex.Lock()
	defer d.peersMutex.Unlock()

	for _, p := range d.peers {
		peers = append(peers, p)
	}
	return
}

// Close all listeners and sessions.
func (d *daemon) Close() error {
	var errs error

	d.sessionsMutex.Lock()
	if d.closed {
		d.sessionsMutex.Unlock()
		return nil
	}
	d.closed = true
	d.sessionsMutex.Unlock()

	close(d.stopSyn)

	if d.manager != nil {
		d.manager.Close()
	}

	for _, ln := range d.listeners {
		if err := ln.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := d.acceptGroup.Wait(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if d.server != nil {
		if err := d.server.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, s := range d.sessionList() {
		if err := s.conn.Disconnect(); err != nil {
			log.WithField("session", s.id).WithError(err).Debug("Disconnect reported errors")
		}
	}
	d.handlers.Wait()

	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs
}
