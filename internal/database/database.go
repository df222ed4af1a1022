// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/netmirror/internal/config"
	"github.com/tomtom215/netmirror/internal/logging"
)

const (
	memoryPath     = ":memory:"
	defaultTimeout = 30 * time.Second
)

// DB is the mirror's DuckDB store.
type DB struct {
	conn *sql.DB
}

// New opens the store at cfg.Path, creating parent directories and the
// schema as needed. ":memory:" gives a throwaway in-process store.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	inMemory := cfg.Path == memoryPath
	if !inMemory {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}

	threads, maxMemory := cfg.Threads, cfg.MaxMemory
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	conn, err := sql.Open("duckdb", dsn(cfg.Path, inMemory, threads, maxMemory))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if inMemory {
		// every connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(runtime.NumCPU())
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(time.Hour)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Str("max_memory", maxMemory).
		Msg("Database ready")
	return db, nil
}

// dsn builds the DuckDB connection string. Extension autoloading stays off
// so the store never reaches out to the network.
func dsn(path string, inMemory bool, threads int, maxMemory string) string {
	if inMemory {
		path = ""
	}
	q := url.Values{}
	q.Set("threads", strconv.Itoa(threads))
	q.Set("max_memory", maxMemory)
	q.Set("autoinstall_known_extensions", "false")
	q.Set("autoload_known_extensions", "false")
	return path + "?" + q.Encode()
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping checks that the store answers.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// ensureContext bounds ctx by defaultTimeout unless it already has a
// deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}

// Checkpoint flushes the write-ahead log into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
