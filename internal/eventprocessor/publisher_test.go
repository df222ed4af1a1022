// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package eventprocessor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/netmirror/internal/models"
)

func TestMemoryPublisher_NetUpdated(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher("", nil)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := pub.Subscriber().Subscribe(ctx, pub.Topic())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	refreshed := time.Date(2026, 3, 1, 18, 5, 0, 0, time.UTC)
	n := &models.Net{ID: 7, Name: "Noon Net", Host: "www.netlogger.org", PartiallyUpdatedAt: &refreshed}
	if err := pub.NetUpdated(ctx, n, 3); err != nil {
		t.Fatalf("NetUpdated: %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		ev, err := ParseNetUpdated(msg.Payload)
		if err != nil {
			t.Fatalf("ParseNetUpdated: %v", err)
		}
		if ev.NetID != 7 || ev.NetName != "Noon Net" || ev.Changes != 3 {
			t.Errorf("event = %+v", ev)
		}
		if !ev.UpdatedAt.Equal(refreshed) {
			t.Errorf("UpdatedAt = %v, want %v", ev.UpdatedAt, refreshed)
		}
		if msg.UUID != ev.EventID {
			t.Errorf("message UUID %q should equal event id %q", msg.UUID, ev.EventID)
		}
		if msg.Metadata.Get("net_name") != "Noon Net" {
			t.Errorf("metadata = %v", msg.Metadata)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestPublisher_Closed(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher("", nil)
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	err := pub.NetUpdated(context.Background(), &models.Net{Name: "x"}, 1)
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("err = %v, want ErrPublisherClosed", err)
	}
}

func TestNetUpdatedEvent_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   NetUpdatedEvent
		wantErr bool
	}{
		{"valid", NetUpdatedEvent{EventID: "e", NetName: "n", Changes: 1}, false},
		{"missing id", NetUpdatedEvent{NetName: "n", Changes: 1}, true},
		{"missing name", NetUpdatedEvent{EventID: "e", Changes: 1}, true},
		{"no changes", NetUpdatedEvent{EventID: "e", NetName: "n"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := (&NetUpdatedEvent{}).Payload(); err == nil {
		t.Error("Payload should reject an invalid event")
	}
}
