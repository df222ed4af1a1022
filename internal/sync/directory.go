// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
directory.go - Active Net Directory

List returns the persisted active nets, first reconciling them with the
listings of every host when the last reconciliation is older than the
interval. Reconciliation is a full replace:

  - a listed net with a persisted namesake is updated in place
  - a listed net without one is created
  - a persisted net no host listed is deleted without an archival record

Hosts are fetched in parallel. When two hosts list the same name, the host
configured later wins. A host whose fetch failed lists nothing and its
persisted nets are kept as they are until it answers again.
*/
//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/metrics"
	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
)

// DefaultDirectoryInterval bounds how often the hosts are listed.
const DefaultDirectoryInterval = 30 * time.Second

// Directory keeps the persisted net list in step with the hosts.
type Directory struct {
	store    Store
	remotes  Remotes
	hosts    []string
	interval time.Duration
	now      func() time.Time

	mu          sync.Mutex // serializes refreshes; guards lastRefresh
	lastRefresh time.Time
}

// NewDirectory creates a directory over hosts, listed in priority order.
func NewDirectory(store Store, remotes Remotes, hosts []string, interval time.Duration) *Directory {
	if interval <= 0 {
		interval = DefaultDirectoryInterval
	}
	return &Directory{
		store:    store,
		remotes:  remotes,
		hosts:    hosts,
		interval: interval,
		now:      time.Now,
	}
}

// List returns the active nets, reconciling first when the last
// reconciliation is older than the interval. Concurrent callers wait for
// the reconciliation in flight instead of starting another.
func (d *Directory) List(ctx context.Context) ([]*models.Net, error) {
	d.mu.Lock()
	if d.lastRefresh.IsZero() || d.now().Sub(d.lastRefresh) >= d.interval {
		if err := d.reconcile(ctx); err != nil {
			d.mu.Unlock()
			return nil, err
		}
		d.lastRefresh = d.now()
	}
	d.mu.Unlock()

	return d.store.ListNets(ctx)
}

// listing is what one host answered.
type listing struct {
	nets   []*models.Net
	failed bool
}

func (d *Directory) fetchAll(ctx context.Context) []listing {
	results := make([]listing, len(d.hosts))
	params := url.Values{"ProtocolVersion": {netlogger.ProtocolVersion}}

	var g errgroup.Group
	for i, host := range d.hosts {
		g.Go(func() error {
			sections, err := d.remotes.Remote(host).Fetch(ctx, netlogger.EndpointNetList, params)
			metrics.RecordDirectoryFetch(host, err)
			if err != nil {
				logging.Warn().Err(err).Str("host", host).Msg("Directory fetch failed, keeping this host's nets")
				results[i].failed = true
				return nil
			}
			results[i].nets = parseListing(host, sections)
			return nil
		})
	}
	_ = g.Wait() // goroutines never fail
	return results
}

func (d *Directory) reconcile(ctx context.Context) error {
	results := d.fetchAll(ctx)

	failedHosts := make(map[string]bool)
	candidates := make(map[string]*models.Net)
	var order []string
	for i, r := range results {
		if r.failed {
			failedHosts[d.hosts[i]] = true
			continue
		}
		for _, n := range r.nets {
			if _, seen := candidates[n.Name]; !seen {
				order = append(order, n.Name)
			}
			candidates[n.Name] = n
		}
	}

	clubs, err := d.store.ListClubs(ctx)
	if err != nil {
		return fmt.Errorf("list clubs: %w", err)
	}
	persisted, err := d.store.ListNets(ctx)
	if err != nil {
		return fmt.Errorf("list nets: %w", err)
	}

	// Newest row wins when the store already holds a duplicate name; the
	// older rows are left unmatched.
	sort.SliceStable(persisted, func(i, j int) bool { return persisted[i].ID > persisted[j].ID })
	byName := make(map[string]*models.Net, len(persisted))
	var unmatched []*models.Net
	for _, n := range persisted {
		if _, dup := byName[n.Name]; dup {
			unmatched = append(unmatched, n)
			continue
		}
		byName[n.Name] = n
	}

	var created, updated, deleted int
	for _, name := range order {
		cand := candidates[name]
		if existing, ok := byName[name]; ok {
			delete(byName, name)
			changed := applyListing(existing, cand)
			if models.AssignClub(clubs, existing) {
				changed = true
			}
			if !changed {
				continue
			}
			if err := d.store.UpdateNet(ctx, existing); err != nil {
				return fmt.Errorf("update net %q: %w", name, err)
			}
			updated++
			continue
		}

		cand.CreatedAt = d.now().UTC()
		models.AssignClub(clubs, cand)
		if err := d.store.CreateNet(ctx, cand); err != nil {
			return fmt.Errorf("create net %q: %w", name, err)
		}
		created++
	}

	for _, n := range byName {
		unmatched = append(unmatched, n)
	}
	for _, n := range unmatched {
		if failedHosts[n.Host] {
			continue
		}
		if err := d.store.DeleteNet(ctx, n.ID); err != nil {
			return fmt.Errorf("delete inactive net %q: %w", n.Name, err)
		}
		deleted++
	}

	metrics.DirectoryChangesTotal.WithLabelValues("created").Add(float64(created))
	metrics.DirectoryChangesTotal.WithLabelValues("updated").Add(float64(updated))
	metrics.DirectoryChangesTotal.WithLabelValues("deleted").Add(float64(deleted))
	metrics.ActiveNets.Set(float64(len(persisted) + created - deleted))

	logging.Debug().
		Int("created", created).
		Int("updated", updated).
		Int("deleted", deleted).
		Int("failed_hosts", len(failedHosts)).
		Msg("Directory reconciled")
	return nil
}

// applyListing copies the listed attributes of src onto dst and reports
// whether anything changed.
func applyListing(dst, src *models.Net) bool {
	changed := dst.AltName != src.AltName ||
		dst.Frequency != src.Frequency ||
		dst.NetLogger != src.NetLogger ||
		dst.NetControl != src.NetControl ||
		dst.Mode != src.Mode ||
		dst.Band != src.Band ||
		dst.IMEnabled != src.IMEnabled ||
		dst.Host != src.Host ||
		!dst.StartedAt.Equal(src.StartedAt) ||
		dst.UpdateInterval != src.UpdateInterval ||
		dst.SubscriberCount != src.SubscriberCount

	dst.AltName = src.AltName
	dst.Frequency = src.Frequency
	dst.NetLogger = src.NetLogger
	dst.NetControl = src.NetControl
	dst.Mode = src.Mode
	dst.Band = src.Band
	dst.IMEnabled = src.IMEnabled
	dst.Host = src.Host
	dst.StartedAt = src.StartedAt
	dst.UpdateInterval = src.UpdateInterval
	dst.SubscriberCount = src.SubscriberCount
	return changed
}
