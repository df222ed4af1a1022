// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package models

import (
	"regexp"
	"strings"
	"time"
)

// Club groups nets by name pattern, e.g. "ARES *" or "*Traffic Net".
type Club struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	NetPatterns []string `json:"net_patterns"`
}

// ClubStation tracks how often a station has checked into a club's nets.
type ClubStation struct {
	ClubID       int64     `json:"club_id"`
	CallSign     string    `json:"call_sign"`
	CheckInCount int       `json:"check_in_count"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Named is implemented by entities that can be associated with a club by
// matching their name against the club's patterns. Both live and closed nets
// implement it.
type Named interface {
	NetName() string
	ClubRef() *int64
	SetClub(id *int64)
}

// MatchesPatterns compiles patterns into a predicate over net names.
// Matching is case-insensitive and whole-name; "*" matches any run of
// characters. Blank patterns are ignored.
func MatchesPatterns(patterns []string) func(name string) bool {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.Split(p, "*")
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		res = append(res, regexp.MustCompile(`(?i)^`+strings.Join(parts, ".*")+`$`))
	}
	return func(name string) bool {
		name = strings.TrimSpace(name)
		for _, re := range res {
			if re.MatchString(name) {
				return true
			}
		}
		return false
	}
}

// FindClub returns the first club whose patterns match the entity's name.
func FindClub(clubs []*Club, entity Named) *Club {
	for _, c := range clubs {
		if MatchesPatterns(c.NetPatterns)(entity.NetName()) {
			return c
		}
	}
	return nil
}

// AssignClub sets the entity's club from clubs, clearing it when none match.
// It reports whether the association changed.
func AssignClub(clubs []*Club, entity Named) bool {
	current := entity.ClubRef()
	var id *int64
	if c := FindClub(clubs, entity); c != nil {
		cid := c.ID
		id = &cid
	}
	entity.SetClub(id)
	switch {
	case id == nil && current == nil:
		return false
	case id == nil || current == nil:
		return true
	default:
		return *id != *current
	}
}
