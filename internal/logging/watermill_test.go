// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var adapter watermill.LoggerAdapter = &WatermillAdapter{logger: zerolog.New(&buf)}

	adapter = adapter.With(watermill.LogFields{"topic": "netmirror.net.updated"})
	adapter.Error("publish failed", errors.New("nats down"), watermill.LogFields{"uuid": "x1"})
	adapter.Info("published", nil)

	out := buf.String()
	for _, want := range []string{
		`"topic":"netmirror.net.updated"`,
		`"error":"nats down"`,
		`"uuid":"x1"`,
		`"message":"published"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}
