// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package services

import (
	"context"
	"time"

	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/models"
)

// NetLister returns the active nets, reconciling the directory when it is
// due. *sync.Directory implements it.
type NetLister interface {
	List(ctx context.Context) ([]*models.Net, error)
}

// DirectoryPollerService keeps the directory warm by listing on a ticker.
// List throttles itself, so the interval only bounds how quickly a new net
// is noticed.
type DirectoryPollerService struct {
	lister   NetLister
	interval time.Duration
}

// NewDirectoryPollerService creates the poller. A non-positive interval
// means 30s.
func NewDirectoryPollerService(lister NetLister, interval time.Duration) *DirectoryPollerService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DirectoryPollerService{lister: lister, interval: interval}
}

// Serve implements suture.Service. Listing errors are logged and retried on
// the next tick.
func (d *DirectoryPollerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *DirectoryPollerService) poll(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	nets, err := d.lister.List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Directory refresh failed")
		}
		return
	}
	logging.Ctx(ctx).Debug().Int("nets", len(nets)).Msg("Directory listed")
}

// String implements fmt.Stringer for suture's logs.
func (d *DirectoryPollerService) String() string {
	return "directory-poller"
}
