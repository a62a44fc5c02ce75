// SPDX-FileCopyrightText: 2026 The rtp-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

func decodeConfig(t *testing.T, data string) (conf tomlConfig) {
	t.Helper()

	if _, err := toml.Decode(data, &conf); err != nil {
		t.Fatal(err)
	}
	return
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "rtpd.toml")
	data := `
node = "test"

[logging]
level = "debug"
report-caller = true

[rtp]
max-payload = 512
checksum = "crc32"
ack-timeout = "5s"

[[listen]]
protocol = "tcp"
endpoint = "localhost:0"

[[listen]]
protocol = "ws"
endpoint = "/rtp"

[store]
path = "store"
lifetime = "1h"

[api]
listen = "localhost:0"
`
	if err := os.WriteFile(filename, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	conf, err := loadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}

	if conf.Node != "test" || !conf.Logging.ReportCaller || conf.Logging.Level != "debug" {
		t.Fatalf("unexpected header values: %+v", conf)
	}
	if conf.Rtp.MaxPayload != 512 || conf.Rtp.Checksum != "crc32" || conf.Rtp.AckTimeout != "5s" {
		t.Fatalf("unexpected rtp block: %+v", conf.Rtp)
	}
	if len(conf.Listen) != 2 || conf.Listen[1].Endpoint != "/rtp" {
		t.Fatalf("unexpected listen blocks: %+v", conf.Listen)
	}

	opts, err := conf.Rtp.options()
	if err != nil {
		t.Fatal(err)
	} else if len(opts) != 3 {
		t.Fatalf("expected three options, got %d", len(opts))
	}
}

func TestConfigValidateErrors(t *testing.T) {
	conf := decodeConfig(t, `
[rtp]
max-payload = 70000
checksum = "md5"
ack-timeout = "soon"

[[listen]]
protocol = "carrier-pigeon"
endpoint = ":1"

[[listen]]
protocol = "tcp"
endpoint = "nope"

[[listen]]
protocol = "ws"
endpoint = "rtp"

[store]
lifetime = "forever"

[discovery]
ipv4 = true
`)

	err := conf.validate()
	if err == nil {
		t.Fatal("invalid configuration passed")
	}

	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("expected a multierror, got %T", err)
	}

	// max-payload, checksum, ack-timeout, lifetime, pigeon, nope, ws without api, ws path, node
	if len(merr.Errors) != 9 {
		t.Fatalf("expected 9 errors, got %d: %v", len(merr.Errors), err)
	}

	for _, want := range []string{"max-payload", "checksum", "ack-timeout", "lifetime", "carrier-pigeon", "node"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("errors do not mention %q: %v", want, err)
		}
	}
}

func TestConfigValidateNoListener(t *testing.T) {
	if err := decodeConfig(t, `node = "lonely"`).validate(); err == nil {
		t.Fatal("configuration without listeners passed")
	}
}
