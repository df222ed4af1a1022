// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package eventprocessor

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/netmirror/internal/models"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// DefaultTopic carries net updated events.
const DefaultTopic = "netmirror.net.updated"

// NetUpdatedEvent announces that a refresh changed a mirrored net.
type NetUpdatedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	NetID         int64     `json:"net_id"`
	NetName       string    `json:"net_name"`
	Host          string    `json:"host"`
	Changes       int       `json:"changes"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewNetUpdatedEvent builds an event for n stamped with the net's latest
// refresh time.
func NewNetUpdatedEvent(n *models.Net, changes int) *NetUpdatedEvent {
	updated, ok := n.LastRefreshedAt()
	if !ok {
		updated = time.Now().UTC()
	}
	return &NetUpdatedEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		NetID:         n.ID,
		NetName:       n.Name,
		Host:          n.Host,
		Changes:       changes,
		UpdatedAt:     updated,
	}
}

// Validate checks required fields.
func (e *NetUpdatedEvent) Validate() error {
	switch {
	case e.EventID == "":
		return errors.New("event_id is required")
	case e.NetName == "":
		return errors.New("net_name is required")
	case e.Changes <= 0:
		return errors.New("changes must be positive")
	}
	return nil
}

// Payload validates e and encodes it as the JSON message body.
func (e *NetUpdatedEvent) Payload() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid net updated event: %w", err)
	}
	return json.Marshal(e)
}

// ParseNetUpdated decodes a message body written by Payload.
func ParseNetUpdated(payload []byte) (*NetUpdatedEvent, error) {
	var e NetUpdatedEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode net updated event: %w", err)
	}
	return &e, nil
}
