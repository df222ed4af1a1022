// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package sync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
)

// memStore is an in-memory Store. Rows are copied in and out so callers
// cannot mutate stored state behind its back, matching a real database.
type memStore struct {
	mu sync.Mutex

	nextID       int64
	nets         map[int64]*models.Net
	closed       []*models.ClosedNet
	checkins     map[int64]*models.Checkin
	monitors     map[int64]*models.Monitor
	messages     map[int64]*models.Message
	stations     map[string]*models.Station
	clubs        []*models.Club
	clubStations map[string]*models.ClubStation

	archiveErr error
}

func newMemStore() *memStore {
	return &memStore{
		nets:         map[int64]*models.Net{},
		checkins:     map[int64]*models.Checkin{},
		monitors:     map[int64]*models.Monitor{},
		messages:     map[int64]*models.Message{},
		stations:     map[string]*models.Station{},
		clubStations: map[string]*models.ClubStation{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func cp[T any](v *T) *T {
	c := *v
	return &c
}

func (s *memStore) ListNets(context.Context) ([]*models.Net, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Net, 0, len(s.nets))
	for _, n := range s.nets {
		out = append(out, cp(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) FindNetByName(_ context.Context, name string) (*models.Net, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.Net
	for _, n := range s.nets {
		if n.Name == name && (found == nil || n.ID > found.ID) {
			found = n
		}
	}
	if found == nil {
		return nil, nil
	}
	return cp(found), nil
}

func (s *memStore) CreateNet(_ context.Context, n *models.Net) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	s.nets[n.ID] = cp(n)
	return nil
}

func (s *memStore) UpdateNet(_ context.Context, n *models.Net) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.nets[n.ID]
	if !ok {
		return errRowNotFound
	}
	c := cp(n)
	c.Name = old.Name
	s.nets[n.ID] = c
	return nil
}

func (s *memStore) DeleteNet(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nets[id]; !ok {
		return errRowNotFound
	}
	delete(s.nets, id)
	for k, c := range s.checkins {
		if c.NetID == id {
			delete(s.checkins, k)
		}
	}
	for k, m := range s.monitors {
		if m.NetID == id {
			delete(s.monitors, k)
		}
	}
	for k, m := range s.messages {
		if m.NetID == id {
			delete(s.messages, k)
		}
	}
	return nil
}

func (s *memStore) CountRoster(_ context.Context, netID int64) (models.RosterCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rc models.RosterCounts
	for _, c := range s.checkins {
		if c.NetID == netID {
			rc.Checkins++
		}
	}
	for _, m := range s.monitors {
		if m.NetID == netID {
			rc.Monitors++
		}
	}
	for _, m := range s.messages {
		if m.NetID == netID {
			rc.Messages++
		}
	}
	return rc, nil
}

func (s *memStore) ArchiveNet(ctx context.Context, c *models.ClosedNet, netID int64) error {
	s.mu.Lock()
	if s.archiveErr != nil {
		s.mu.Unlock()
		return s.archiveErr
	}
	if _, ok := s.nets[netID]; !ok {
		s.mu.Unlock()
		return errRowNotFound
	}
	c.ID = s.id()
	s.closed = append(s.closed, cp(c))
	s.mu.Unlock()
	return s.DeleteNet(ctx, netID)
}

func (s *memStore) FindClosedNetByName(_ context.Context, name string) (*models.ClosedNet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.closed) - 1; i >= 0; i-- {
		if s.closed[i].Name == name {
			return cp(s.closed[i]), nil
		}
	}
	return nil, nil
}

func (s *memStore) ListClubs(context.Context) ([]*models.Club, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Club(nil), s.clubs...), nil
}

func (s *memStore) ListCheckins(_ context.Context, netID int64) ([]*models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Checkin
	for _, c := range s.checkins {
		if c.NetID == netID {
			out = append(out, cp(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Num != out[j].Num {
			return out[i].Num < out[j].Num
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memStore) CreateCheckin(_ context.Context, c *models.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.checkins[c.ID] = cp(c)
	return nil
}

func (s *memStore) UpdateCheckin(_ context.Context, c *models.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkins[c.ID]; !ok {
		return errRowNotFound
	}
	s.checkins[c.ID] = cp(c)
	return nil
}

func (s *memStore) DeleteCheckin(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkins[id]; !ok {
		return errRowNotFound
	}
	delete(s.checkins, id)
	return nil
}

func (s *memStore) ShiftCheckins(_ context.Context, netID int64, from, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.checkins {
		if c.NetID == netID && c.Num >= from {
			c.Num += delta
		}
	}
	return nil
}

func (s *memStore) SetCurrentlyOperating(_ context.Context, netID int64, num int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.checkins {
		if c.NetID == netID {
			c.CurrentlyOperating = c.Num == num
		}
	}
	return nil
}

func (s *memStore) ListMonitors(_ context.Context, netID int64) ([]*models.Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Monitor
	for _, m := range s.monitors {
		if m.NetID == netID {
			out = append(out, cp(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallSign < out[j].CallSign })
	return out, nil
}

func (s *memStore) CreateMonitor(_ context.Context, m *models.Monitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.monitors[m.ID] = cp(m)
	return nil
}

func (s *memStore) UpdateMonitor(_ context.Context, m *models.Monitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.monitors[m.ID]; !ok {
		return errRowNotFound
	}
	s.monitors[m.ID] = cp(m)
	return nil
}

func (s *memStore) DeleteMonitor(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.monitors[id]; !ok {
		return errRowNotFound
	}
	delete(s.monitors, id)
	return nil
}

func (s *memStore) ListMessages(_ context.Context, netID int64) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Message
	for _, m := range s.messages {
		if m.NetID == netID {
			out = append(out, cp(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.messages[m.ID] = cp(m)
	return nil
}

func (s *memStore) UpdateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.messages[m.ID]
	if !ok {
		return errRowNotFound
	}
	c := cp(m)
	c.Blocked = old.Blocked
	s.messages[m.ID] = c
	return nil
}

func (s *memStore) DeleteTempMessages(_ context.Context, netID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, m := range s.messages {
		if m.NetID == netID && m.LogID == nil {
			delete(s.messages, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindStation(_ context.Context, callSign string) (*models.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stations[strings.ToUpper(callSign)]
	if !ok {
		return nil, nil
	}
	return cp(st), nil
}

func (s *memStore) SaveStation(_ context.Context, st *models.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToUpper(st.CallSign)
	c := cp(st)
	if old, ok := s.stations[key]; ok {
		c.LastHeardOn, c.LastHeardAt = old.LastHeardOn, old.LastHeardAt
	}
	s.stations[key] = c
	return nil
}

func (s *memStore) TouchStation(_ context.Context, callSign, netName string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToUpper(callSign)
	st, ok := s.stations[key]
	if !ok {
		st = &models.Station{CallSign: key}
		s.stations[key] = st
	}
	at = at.UTC()
	st.LastHeardOn, st.LastHeardAt = netName, &at
	return nil
}

func (s *memStore) RecordClubCheckin(_ context.Context, clubID int64, callSign string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := clubKey(clubID, callSign)
	cs, ok := s.clubStations[key]
	if !ok {
		cs = &models.ClubStation{ClubID: clubID, CallSign: strings.ToUpper(callSign), FirstSeenAt: at}
		s.clubStations[key] = cs
	}
	cs.CheckInCount++
	cs.LastSeenAt = at
	return nil
}

func clubKey(clubID int64, callSign string) string {
	return fmt.Sprintf("%d/%s", clubID, strings.ToUpper(callSign))
}

// clubCount returns the check-in tally of callSign in a club.
func (s *memStore) clubCount(clubID int64, callSign string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.clubStations[clubKey(clubID, callSign)]; ok {
		return cs.CheckInCount
	}
	return 0
}

// seedNet stores a net with the given checkins and returns it.
func (s *memStore) seedNet(t *testing.T, n *models.Net, checkins ...*models.Checkin) *models.Net {
	t.Helper()
	ctx := context.Background()
	checkNoError(t, "CreateNet", s.CreateNet(ctx, n))
	for _, c := range checkins {
		c.NetID = n.ID
		checkNoError(t, "CreateCheckin", s.CreateCheckin(ctx, c))
	}
	return n
}

// fakeRemote answers fetches from a scripted body and records submissions.
type fakeRemote struct {
	mu       sync.Mutex
	body     string
	err      error
	fetchErr error
	fetches  []url.Values
	updates  []string
	messages []url.Values
}

func (r *fakeRemote) respond(body string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body, r.err = body, err
}

// failFetch makes fetches fail with err while submissions still succeed.
func (r *fakeRemote) failFetch(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchErr = err
}

func (r *fakeRemote) Fetch(_ context.Context, _ string, params url.Values) (netlogger.Sections, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, params)
	if r.err != nil {
		return nil, r.err
	}
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return netlogger.Parse(r.body), nil
}

func (r *fakeRemote) SendUpdates(_ context.Context, _, _ string, rows []netlogger.WriteRow, highlight int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, netlogger.EncodeUpdates(rows, highlight))
	return r.err
}

func (r *fakeRemote) SendMessage(_ context.Context, netName, callSign, name, text string, netControl bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	nc := "N"
	if netControl {
		nc = "Y"
	}
	r.messages = append(r.messages, url.Values{
		"NetName": {netName}, "Callsign": {callSign}, "Name": {name}, "Message": {text}, "IsNetControl": {nc},
	})
	return r.err
}

func (r *fakeRemote) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fetches)
}

func (r *fakeRemote) lastFetch() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fetches) == 0 {
		return nil
	}
	return r.fetches[len(r.fetches)-1]
}

// fakeRemotes maps hosts to fake remotes, creating them on first use.
type fakeRemotes struct {
	mu    sync.Mutex
	hosts map[string]*fakeRemote
}

func newFakeRemotes() *fakeRemotes {
	return &fakeRemotes{hosts: map[string]*fakeRemote{}}
}

func (f *fakeRemotes) Remote(host string) Remote {
	return f.host(host)
}

func (f *fakeRemotes) host(host string) *fakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.hosts[host]
	if !ok {
		r = &fakeRemote{}
		f.hosts[host] = r
	}
	return r
}

// fakeLookup resolves call signs from a fixed table.
type fakeLookup struct {
	mu       sync.Mutex
	stations map[string]*models.Station
	calls    int
}

func (l *fakeLookup) Lookup(_ context.Context, callSign string) (*models.Station, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	st, ok := l.stations[strings.ToUpper(callSign)]
	if !ok {
		return nil, errLookupNotFound
	}
	exp := time.Now().Add(time.Hour)
	c := cp(st)
	c.ExpiresAt = &exp
	return c, nil
}

var (
	errLookupNotFound = errors.New("call sign not found")
	errRowNotFound    = errors.New("row not found")
)

// recordingNotifier captures published updates.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []int
}

func (n *recordingNotifier) NetUpdated(_ context.Context, _ *models.Net, changes int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, changes)
	return nil
}

func (n *recordingNotifier) published() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.changes...)
}

func ptrFloat(f float64) *float64 { return &f }

// rosterRow renders a roster row in wire field order.
func rosterRow(num int, call, name, grid, checkedIn string) string {
	f := make([]string, netlogger.RosterFieldCount)
	f[netlogger.FieldNum] = strconv.Itoa(num)
	f[netlogger.FieldCallSign] = call
	f[netlogger.FieldName] = name
	f[netlogger.FieldGridSquare] = grid
	f[netlogger.FieldCheckedInAt] = checkedIn
	return strings.Join(f, "|")
}
