// SPDX-FileCopyrightText: 2019, 2020, 2021 Alvar Penning
// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/rtp-go/pkg/discovery"
	"github.com/dtn7/rtp-go/pkg/rtp"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Node      string
	Logging   logConf
	Rtp       rtpConf
	Listen    []listenConf
	Store     storeConf
	Api       apiConf
	Discovery discoveryConf
}

// logConf describes the Logging-configuration block.
type logConf struct {
	Level        string
	ReportCaller bool `toml:"report-caller"`
	Format       string
}

// rtpConf describes the connections' protocol parameters.
type rtpConf struct {
	MaxPayload int    `toml:"max-payload"`
	Checksum   string
	AckTimeout string `toml:"ack-timeout"`
}

// listenConf describes a listener. For WebSockets, the endpoint is a path on the API server.
type listenConf struct {
	Protocol string
	Endpoint string
}

// storeConf describes the message store. Without a path, messages are echoed back.
type storeConf struct {
	Path     string
	Lifetime string
}

// apiConf describes the HTTP server for the REST API and WebSocket listeners.
type apiConf struct {
	Listen string
}

// discoveryConf describes the Discovery-configuration block.
type discoveryConf struct {
	IPv4     bool
	IPv6     bool
	Interval uint
}

// loadConfig reads and validates a TOML configuration file.
func loadConfig(filename string) (conf tomlConfig, err error) {
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	err = conf.validate()
	return
}

// validate reports all problems of a configuration at once.
func (conf tomlConfig) validate() error {
	var errs error

	if _, err := conf.Rtp.options(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if conf.Store.Lifetime != "" {
		if _, err := time.ParseDuration(conf.Store.Lifetime); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("store.lifetime: %w", err))
		}
	}

	if len(conf.Listen) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no listen block is configured"))
	}

	for i, l := range conf.Listen {
		if _, err := discovery.ParseProtocol(l.Protocol); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("listen %d: %w", i, err))
			continue
		}

		if l.Protocol == discovery.WebSocket.String() {
			if conf.Api.Listen == "" {
				errs = multierror.Append(errs, fmt.Errorf("listen %d: WebSockets require api.listen", i))
			}
			if len(l.Endpoint) == 0 || l.Endpoint[0] != '/' {
				errs = multierror.Append(errs, fmt.Errorf("listen %d: WebSocket endpoint %q is no path", i, l.Endpoint))
			}
		} else if _, err := parseListenPort(l.Endpoint); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("listen %d: %w", i, err))
		}
	}

	if (conf.Discovery.IPv4 || conf.Discovery.IPv6) && conf.Node == "" {
		errs = multierror.Append(errs, fmt.Errorf("discovery requires a node name"))
	}

	return errs
}

// options for all rtp.Conns of this daemon.
func (conf rtpConf) options() (opts []rtp.Option, err error) {
	if conf.MaxPayload != 0 {
		opts = append(opts, rtp.WithMaxPayload(conf.MaxPayload))
	}

	if kind, kindErr := rtp.ParseChecksumKind(conf.Checksum); kindErr != nil {
		err = multierror.Append(err, fmt.Errorf("rtp.checksum: %w", kindErr))
	} else {
		opts = append(opts, rtp.WithChecksum(kind))
	}

	if conf.AckTimeout != "" {
		if timeout, timeoutErr := time.ParseDuration(conf.AckTimeout); timeoutErr != nil {
			err = multierror.Append(err, fmt.Errorf("rtp.ack-timeout: %w", timeoutErr))
		} else {
			opts = append(opts, rtp.WithAckTimeout(timeout))
		}
	}

	if conf.MaxPayload < 0 || conf.MaxPayload > rtp.MaxPayloadLimit {
		err = multierror.Append(err, fmt.Errorf("rtp.max-payload %d is not within [1, %d]", conf.MaxPayload, rtp.MaxPayloadLimit))
	}

	return
}

func parseListenPort(endpoint string) (port int, err error) {
	var portStr string
	_, portStr, err = net.SplitHostPort(endpoint)
	if err != nil {
		return
	}
	port, err = strconv.Atoi(portStr)
	return
}

// setupLogging configures logrus according to the Logging-configuration block.
func setupLogging(conf logConf) {
	if conf.Level != "" {
		if lvl, err := log.ParseLevel(conf.Level); err != nil {
			log.WithFields(log.Fields{
				"level":    conf.Level,
				"error":    err,
				"provided": "panic,fatal,error,warn,info,debug,trace",
			}).Warn("Failed to set log level. Please select one of the provided ones")
		} else {
			log.SetLevel(lvl)
		}
	}

	log.SetReportCaller(conf.ReportCaller)

	switch conf.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})

	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	default:
		log.Warn("Unknown logging format")
	}
}
