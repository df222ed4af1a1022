// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/netmirror/internal/logging"
	netsync "github.com/tomtom215/netmirror/internal/sync"
)

// NetUpdater refreshes one net. *sync.NetSynchronizer implements it.
type NetUpdater interface {
	Update(ctx context.Context, name string, mode netsync.Mode, session netsync.StationLookup) (netsync.Result, error)
}

// SessionFactory opens a lookup session for one worker. It may return nil
// when enrichment is disabled.
type SessionFactory func() netsync.StationLookup

// NetPollerConfig tunes a NetPollerService. Zero values take the defaults.
type NetPollerConfig struct {
	Interval time.Duration // default 10s
	Workers  int           // default 4
}

// NetPollerService periodically offers every active net to the net
// synchronizer in normal mode. The synchronizer skips nets that are not yet
// stale, so the poll interval can be shorter than any net's update interval.
//
// Each worker owns one lookup session for the lifetime of Serve. Sessions
// are not shared between workers.
type NetPollerService struct {
	lister     NetLister
	updater    NetUpdater
	newSession SessionFactory
	cfg        NetPollerConfig
}

// NewNetPollerService creates the poller. newSession may be nil.
func NewNetPollerService(lister NetLister, updater NetUpdater, newSession SessionFactory, cfg NetPollerConfig) *NetPollerService {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if newSession == nil {
		newSession = func() netsync.StationLookup { return nil }
	}
	return &NetPollerService{lister: lister, updater: updater, newSession: newSession, cfg: cfg}
}

// Serve implements suture.Service. Per-net failures are logged and never
// end the service; only cancellation does.
func (p *NetPollerService) Serve(ctx context.Context) error {
	names := make(chan string)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		session := p.newSession()
		g.Go(func() error {
			for name := range names {
				p.refresh(gctx, name, session)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(names)
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			p.dispatch(gctx, names)
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
			}
		}
	})

	return g.Wait()
}

// dispatch lists the active nets and hands each name to a worker.
func (p *NetPollerService) dispatch(ctx context.Context, names chan<- string) {
	nets, err := p.lister.List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to list nets for refresh")
		}
		return
	}
	for _, n := range nets {
		select {
		case names <- n.Name:
		case <-ctx.Done():
			return
		}
	}
}

func (p *NetPollerService) refresh(ctx context.Context, name string, session netsync.StationLookup) {
	ctx = logging.ContextWithNet(logging.ContextWithNewCorrelationID(ctx), name)
	res, err := p.updater.Update(ctx, name, netsync.ModeNormal, session)
	switch {
	case err == nil:
		if res.Changes > 0 {
			logging.Ctx(ctx).Debug().Int("changes", res.Changes).Bool("full", res.Full).Msg("Net refreshed")
		}
	case ctx.Err() != nil:
	case errors.Is(err, netsync.ErrNetClosed),
		errors.Is(err, netsync.ErrNetNotFound),
		errors.Is(err, netsync.ErrLockTimeout):
		logging.Ctx(ctx).Debug().Err(err).Msg("Net refresh skipped")
	default:
		logging.Ctx(ctx).Warn().Err(err).Msg("Net refresh failed")
	}
}

// String implements fmt.Stringer for suture's logs.
func (p *NetPollerService) String() string {
	return "net-poller"
}
