// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
)

// listingBody renders a directory listing of name/frequency pairs.
func listingBody(nets ...[2]string) string {
	rows := make([]string, 0, len(nets))
	for _, n := range nets {
		rows = append(rows, n[0]+"||"+n[1]+"|K1ABC|W1AW|2026-03-01 18:00:00|SSB|40m|Y|20000|3")
	}
	return "<!--NetLogger Start Data-->" + strings.Join(rows, "~")
}

func netsByName(nets []*models.Net) map[string]*models.Net {
	out := make(map[string]*models.Net, len(nets))
	for _, n := range nets {
		out[n.Name] = n
	}
	return out
}

func TestDirectory_Reconcile(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	noon := store.seedNet(t, &models.Net{Name: "Noon Net", Host: "a", Frequency: "3.900", ExtDataSerial: 7})
	store.seedNet(t, &models.Net{Name: "Gone Net", Host: "a"},
		&models.Checkin{Num: 1, CallSign: "W1AW"},
	)

	remotes := newFakeRemotes()
	remotes.host("a").respond(listingBody([2]string{"Noon Net", "7.200"}, [2]string{"New Net", "14.300"}), nil)

	d := NewDirectory(store, remotes, []string{"a"}, time.Minute)
	nets, err := d.List(context.Background())
	checkNoError(t, "List", err)

	got := netsByName(nets)
	if len(got) != 2 {
		t.Fatalf("nets = %v, want Noon Net and New Net", got)
	}
	n := got["Noon Net"]
	if n.ID != noon.ID {
		t.Errorf("Noon Net ID = %d, want %d (updated in place)", n.ID, noon.ID)
	}
	checkStringEqual(t, "updated frequency", n.Frequency, "7.200")
	if n.ExtDataSerial != 7 {
		t.Errorf("local cursor lost: ExtDataSerial = %d", n.ExtDataSerial)
	}
	created := got["New Net"]
	checkStringEqual(t, "created host", created.Host, "a")
	if created.CreatedAt.IsZero() {
		t.Error("created net should carry a creation time")
	}
	if _, ok := got["Gone Net"]; ok {
		t.Error("unlisted net should be deleted")
	}
	if closed, _ := store.FindClosedNetByName(context.Background(), "Gone Net"); closed != nil {
		t.Error("directory deletion must not archive")
	}
}

func TestDirectory_LaterHostWins(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	remotes := newFakeRemotes()
	remotes.host("a").respond(listingBody([2]string{"Shared Net", "7.200"}), nil)
	remotes.host("b").respond(listingBody([2]string{"Shared Net", "3.940"}), nil)

	d := NewDirectory(store, remotes, []string{"a", "b"}, time.Minute)
	nets, err := d.List(context.Background())
	checkNoError(t, "List", err)

	if len(nets) != 1 {
		t.Fatalf("nets = %d, want 1", len(nets))
	}
	checkStringEqual(t, "host", nets[0].Host, "b")
	checkStringEqual(t, "frequency", nets[0].Frequency, "3.940")
}

func TestDirectory_FailedHostKeepsItsNets(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seedNet(t, &models.Net{Name: "A Net", Host: "a"})
	store.seedNet(t, &models.Net{Name: "B Net", Host: "b"})

	remotes := newFakeRemotes()
	remotes.host("a").respond("", &netlogger.TransportError{Host: "a", Endpoint: netlogger.EndpointNetList, Err: errors.New("timeout")})
	remotes.host("b").respond("<!--NetLogger Start Data-->", nil)

	d := NewDirectory(store, remotes, []string{"a", "b"}, time.Minute)
	nets, err := d.List(context.Background())
	checkNoError(t, "List", err)

	got := netsByName(nets)
	if _, ok := got["A Net"]; !ok {
		t.Error("nets of a failed host must be kept")
	}
	if _, ok := got["B Net"]; ok {
		t.Error("nets no longer listed by a healthy host must be deleted")
	}
}

func TestDirectory_Throttle(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	remotes := newFakeRemotes()
	remote := remotes.host("a")
	remote.respond(listingBody([2]string{"Noon Net", "7.200"}), nil)

	now := time.Now()
	d := NewDirectory(store, remotes, []string{"a"}, 30*time.Second)
	d.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := d.List(context.Background())
		checkNoError(t, "List", err)
	}
	checkIntEqual(t, "fetches within the interval", remote.fetchCount(), 1)

	now = now.Add(31 * time.Second)
	_, err := d.List(context.Background())
	checkNoError(t, "List", err)
	checkIntEqual(t, "fetches after the interval", remote.fetchCount(), 2)
	checkStringEqual(t, "ProtocolVersion", remote.lastFetch().Get("ProtocolVersion"), netlogger.ProtocolVersion)
}

func TestDirectory_AssignsClubs(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.clubs = []*models.Club{{ID: 3, Name: "ARES", NetPatterns: []string{"ARES *"}}}
	store.seedNet(t, &models.Net{Name: "ARES District 5", Host: "a", Frequency: "7.200", NetLogger: "K1ABC",
		NetControl: "W1AW", Mode: "SSB", Band: "40m", IMEnabled: true, UpdateInterval: 20000, SubscriberCount: 3,
		StartedAt: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)})

	remotes := newFakeRemotes()
	remotes.host("a").respond(listingBody([2]string{"ARES District 5", "7.200"}, [2]string{"Ragchew", "3.900"}), nil)

	d := NewDirectory(store, remotes, []string{"a"}, time.Minute)
	nets, err := d.List(context.Background())
	checkNoError(t, "List", err)

	got := netsByName(nets)
	if c := got["ARES District 5"].ClubID; c == nil || *c != 3 {
		t.Errorf("ARES club = %v, want 3", c)
	}
	if got["Ragchew"].ClubID != nil {
		t.Error("unmatched net should have no club")
	}
}

func TestDirectory_DuplicateNamesKeepNewest(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seedNet(t, &models.Net{Name: "Dup Net", Host: "a"})
	newest := store.seedNet(t, &models.Net{Name: "Dup Net", Host: "a"})

	remotes := newFakeRemotes()
	remotes.host("a").respond(listingBody([2]string{"Dup Net", "7.200"}), nil)

	d := NewDirectory(store, remotes, []string{"a"}, time.Minute)
	nets, err := d.List(context.Background())
	checkNoError(t, "List", err)

	if len(nets) != 1 || nets[0].ID != newest.ID {
		t.Errorf("nets = %+v, want only id %d", nets, newest.ID)
	}
}
