// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
Package sync reconciles the local mirror with remote NetLogger hosts.

Key Components:

  - Directory: lists active nets from every host and replaces the persisted
    net list (create, update in place, delete without archival)
  - NetSynchronizer: refreshes one net under the advisory lock
  - RosterEditor: writes roster edits back to the host and forces a refresh

Net refresh runs three stages inside one critical section:

 1. Fetch: full or incremental request; a not-found answer archives the net
 2. Merge: parse sections into a Batch and apply it to the store, counting
    changes; derive the geographic center
 3. Notify: publish a net-updated event when anything changed

Merging is idempotent: applying the same Batch twice reports zero changes the
second time.

Error Handling:

Only ErrNetClosed and ErrLockTimeout are meant for callers to branch on.
Transport failures defer the refresh (Result.Deferred) and are retried on the
next poll. Malformed rows are dropped individually. Lookup failures are
ignored.
*/
package sync
