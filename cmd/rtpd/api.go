// SPDX-FileCopyrightText: 2020 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/rtp"
	"github.com/dtn7/rtp-go/pkg/storage"
)

// apiConnection describes a session for the REST API.
type apiConnection struct {
	Id       string    `json:"id"`
	Peer     string    `json:"peer"`
	Alive    bool      `json:"alive"`
	Created  time.Time `json:"created"`
	Outbound int       `json:"outbound"`
	Inbound  int       `json:"inbound"`
	Stats    rtp.Stats `json:"stats"`
}

// apiMessage describes a stored message for the REST API.
type apiMessage struct {
	Id       string    `json:"id"`
	Peer     string    `json:"peer"`
	Pending  bool      `json:"pending"`
	Received time.Time `json:"received"`
	Expires  time.Time `json:"expires"`
	Length   int       `json:"length"`
	Digest   string    `json:"digest"`
}

// apiPeer describes a discovered peer for the REST API.
type apiPeer struct {
	Node string `json:"node"`
	URI  string `json:"uri"`
}

// apiError is returned for each failed request.
type apiError struct {
	Error string `json:"error"`
}

// restApi inspects and controls a daemon.
type restApi struct {
	router *mux.Router
	daemon *daemon
}

// newApiRouter registers the REST API's endpoints on a router, e.g., a /api subrouter.
func newApiRouter(d *daemon, router *mux.Router) {
	api := &restApi{
		router: router,
		daemon: d,
	}

	api.router.HandleFunc("/connections", api.handleConnections).Methods(http.MethodGet)
	api.router.HandleFunc("/connections/{id}", api.handleConnectionClose).Methods(http.MethodDelete)
	api.router.HandleFunc("/connections/{id}/messages", api.handleConnectionSend).Methods(http.MethodPost)

	api.router.HandleFunc("/messages", api.handleMessages).Methods(http.MethodGet)
	api.router.HandleFunc("/messages/{id}", api.handleMessageFetch).Methods(http.MethodGet)
	api.router.HandleFunc("/messages/{id}", api.handleMessageDelete).Methods(http.MethodDelete)

	api.router.HandleFunc("/peers", api.handlePeers).Methods(http.MethodGet)
}

func writeJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to write REST response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJson(w, status, apiError{Error: err.Error()})
}

// handleConnections processes /connections GET requests.
func (api *restApi) handleConnections(w http.ResponseWriter, _ *http.Request) {
	conns := make([]apiConnection, 0)
	for _, s := range api.daemon.sessionList() {
		outbound, inbound := s.conn.Pending()
		conns = append(conns, apiConnection{
			Id:       s.id,
			Peer:     s.conn.String(),
			Alive:    s.conn.Alive(),
			Created:  s.created,
			Outbound: outbound,
			Inbound:  inbound,
			Stats:    s.conn.Stats(),
		})
	}

	writeJson(w, http.StatusOK, conns)
}

// requestSession fetches the session addressed by the URL or writes a 404 response.
func (api *restApi) requestSession(w http.ResponseWriter, r *http.Request) *session {
	s := api.daemon.session(mux.Vars(r)["id"])
	if s == nil {
		writeJson(w, http.StatusNotFound, apiError{Error: "unknown connection"})
	}
	return s
}

// handleConnectionClose processes /connections/{id} DELETE requests.
func (api *restApi) handleConnectionClose(w http.ResponseWriter, r *http.Request) {
	s := api.requestSession(w, r)
	if s == nil {
		return
	}

	log.WithField("session", s.id).Info("REST API disconnects session")

	if err := s.conn.Disconnect(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConnectionSend processes /connections/{id}/messages POST requests. The body is sent as
// one message.
func (api *restApi) handleConnectionSend(w http.ResponseWriter, r *http.Request) {
	s := api.requestSession(w, r)
	if s == nil {
		return
	}

	msg, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.conn.SendMessage(msg); errors.Is(err, rtp.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, err)
		return
	} else if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// requestStore writes a 404 response when messages are echoed instead of stored.
func (api *restApi) requestStore(w http.ResponseWriter) *storage.Store {
	if api.daemon.store == nil {
		writeJson(w, http.StatusNotFound, apiError{Error: "no message store configured"})
	}
	return api.daemon.store
}

// handleMessages processes /messages GET requests. The query parameter pending=true restricts the
// result to unfetched messages.
func (api *restApi) handleMessages(w http.ResponseWriter, r *http.Request) {
	store := api.requestStore(w)
	if store == nil {
		return
	}

	var (
		mis []storage.MessageItem
		err error
	)
	if r.URL.Query().Get("pending") == "true" {
		mis, err = store.QueryPending()
	} else {
		mis, err = store.QueryAll()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	msgs := make([]apiMessage, 0, len(mis))
	for _, mi := range mis {
		msgs = append(msgs, apiMessage{
			Id:       mi.Id,
			Peer:     mi.Peer,
			Pending:  mi.Pending,
			Received: mi.Received,
			Expires:  mi.Expires,
			Length:   mi.Length,
			Digest:   fmt.Sprintf("%x", mi.Digest),
		})
	}

	writeJson(w, http.StatusOK, msgs)
}

// handleMessageFetch processes /messages/{id} GET requests. The raw payload is returned and the
// message is no longer pending.
func (api *restApi) handleMessageFetch(w http.ResponseWriter, r *http.Request) {
	store := api.requestStore(w)
	if store == nil {
		return
	}

	mi, err := store.QueryId(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	payload, err := mi.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if mi.Pending {
		mi.Pending = false
		if err := store.Update(mi); err != nil {
			log.WithField("message", mi.Id).WithError(err).Warn("Failed to mark message as fetched")
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(payload); err != nil {
		log.WithError(err).Warn("Failed to write REST response")
	}
}

// handleMessageDelete processes /messages/{id} DELETE requests.
func (api *restApi) handleMessageDelete(w http.ResponseWriter, r *http.Request) {
	store := api.requestStore(w)
	if store == nil {
		return
	}

	if err := store.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePeers processes /peers GET requests.
func (api *restApi) handlePeers(w http.ResponseWriter, _ *http.Request) {
	peers := make([]apiPeer, 0)
	for _, p := range api.daemon.peerList() {
		peers = append(peers, apiPeer{Node: p.Node, URI: p.URI()})
	}

	writeJson(w, http.StatusOK, peers)
}
