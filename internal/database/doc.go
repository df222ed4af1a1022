// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
Package database is the DuckDB-backed store for the net mirror.

*DB implements sync.Store: nets and their archive records, the roster rows
a net owns (checkins, monitors, instant messages), the call sign station
cache and club tallies.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	n, err := db.FindNetByName(ctx, "Noon Net") // nil, nil when absent

# Conventions

  - Finders return nil, nil when nothing matches; updates and deletes of a
    missing id return ErrNotFound.
  - Every method applies a 30 second timeout when ctx has none.
  - Timestamps are stored in UTC.
  - ":memory:" opens a private in-memory database pinned to one connection,
    which the tests use.

# Concurrency

The store does not serialize refreshes itself. Callers hold the advisory
"update net cache" lock for a net while they rewrite its rows, so two writers
never interleave on one net. RecordClubCheckin increments with a single
upsert and is safe across nets.
*/
package database
