// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package sync

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
)

var (
	// ErrNetClosed is returned for a net the remote has reported closed.
	ErrNetClosed = errors.New("net is closed")

	// ErrNetNotFound is returned for a name that was never mirrored.
	ErrNetNotFound = errors.New("net not found")

	// ErrLockTimeout is returned when the net cache lock could not be taken
	// in time. It also matches advisory.ErrTimeout.
	ErrLockTimeout = errors.New("timed out waiting for net cache lock")
)

// NetStore persists nets and their archival records. Finders return nil, nil
// when nothing matches.
type NetStore interface {
	ListNets(ctx context.Context) ([]*models.Net, error)
	FindNetByName(ctx context.Context, name string) (*models.Net, error)
	CreateNet(ctx context.Context, n *models.Net) error
	UpdateNet(ctx context.Context, n *models.Net) error
	DeleteNet(ctx context.Context, id int64) error
	CountRoster(ctx context.Context, netID int64) (models.RosterCounts, error)
	ArchiveNet(ctx context.Context, c *models.ClosedNet, netID int64) error
	FindClosedNetByName(ctx context.Context, name string) (*models.ClosedNet, error)
	ListClubs(ctx context.Context) ([]*models.Club, error)
}

// RosterStore persists the rows owned by a net.
type RosterStore interface {
	ListCheckins(ctx context.Context, netID int64) ([]*models.Checkin, error)
	CreateCheckin(ctx context.Context, c *models.Checkin) error
	UpdateCheckin(ctx context.Context, c *models.Checkin) error
	DeleteCheckin(ctx context.Context, id int64) error
	ShiftCheckins(ctx context.Context, netID int64, from, delta int) error
	SetCurrentlyOperating(ctx context.Context, netID int64, num int) error

	ListMonitors(ctx context.Context, netID int64) ([]*models.Monitor, error)
	CreateMonitor(ctx context.Context, m *models.Monitor) error
	UpdateMonitor(ctx context.Context, m *models.Monitor) error
	DeleteMonitor(ctx context.Context, id int64) error

	ListMessages(ctx context.Context, netID int64) ([]*models.Message, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	UpdateMessage(ctx context.Context, m *models.Message) error
	DeleteTempMessages(ctx context.Context, netID int64) (int, error)
}

// StationStore caches lookup results and per-club station tallies.
type StationStore interface {
	FindStation(ctx context.Context, callSign string) (*models.Station, error)
	SaveStation(ctx context.Context, s *models.Station) error
	TouchStation(ctx context.Context, callSign, netName string, at time.Time) error
	RecordClubCheckin(ctx context.Context, clubID int64, callSign string, at time.Time) error
}

// Store is everything the synchronizers persist. *database.DB implements it.
type Store interface {
	NetStore
	RosterStore
	StationStore
}

// Remote is one NetLogger host. *netlogger.Client implements it.
type Remote interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (netlogger.Sections, error)
	SendUpdates(ctx context.Context, netName, token string, rows []netlogger.WriteRow, highlight int) error
	SendMessage(ctx context.Context, netName, callSign, name, text string, netControl bool) error
}

// Remotes resolves a host name to its client.
type Remotes interface {
	Remote(host string) Remote
}

// PoolRemotes adapts a netlogger.Pool to Remotes.
type PoolRemotes struct {
	Pool *netlogger.Pool
}

// Remote implements Remotes.
func (p PoolRemotes) Remote(host string) Remote {
	return p.Pool.Client(host)
}

// StationLookup resolves call signs against the lookup service. A
// *lookup.Session implements it; each worker owns its own.
type StationLookup interface {
	Lookup(ctx context.Context, callSign string) (*models.Station, error)
}

// Notifier announces nets that changed. *eventprocessor.Publisher
// implements it.
type Notifier interface {
	NetUpdated(ctx context.Context, n *models.Net, changes int) error
}
