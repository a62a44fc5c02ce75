// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dtn7/rtp-go/pkg/rtp"
)

// flushTimeout limits the waiting for outstanding acknowledgements before disconnecting.
const flushTimeout = 30 * time.Second

// parseURI splits the connection options from an URI's query. The remaining URI can be dialed.
func parseURI(uri string) (dialURI string, opts []rtp.Option, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return
	}

	query := u.Query()
	u.RawQuery = ""
	dialURI = u.String()

	var errs error

	if v := query.Get("checksum"); v != "" {
		if kind, kindErr := rtp.ParseChecksumKind(v); kindErr != nil {
			errs = multierror.Append(errs, kindErr)
		} else {
			opts = append(opts, rtp.WithChecksum(kind))
		}
	}

	if v := query.Get("max-payload"); v != "" {
		if n, nErr := strconv.Atoi(v); nErr != nil {
			errs = multierror.Append(errs, fmt.Errorf("max-payload: %w", nErr))
		} else {
			opts = append(opts, rtp.WithMaxPayload(n))
		}
	}

	if v := query.Get("ack-timeout"); v != "" {
		if d, dErr := time.ParseDuration(v); dErr != nil {
			errs = multierror.Append(errs, fmt.Errorf("ack-timeout: %w", dErr))
		} else {
			opts = append(opts, rtp.WithAckTimeout(d))
		}
	}

	err = errs
	return
}

// dial an URI including its query options.
func dial(uri string) (*rtp.Conn, error) {
	dialURI, opts, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	return rtp.Dial(dialURI, opts...)
}

// flushAndDisconnect waits for all outbound messages to be acknowledged before disconnecting.
func flushAndDisconnect(c *rtp.Conn) error {
	var errs error

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := c.Flush(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := c.Disconnect(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}
