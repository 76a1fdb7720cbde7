// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteFile is the database file name inside the state directory.
const SQLiteFile = "folio.db"

// SQLiteBackend keeps every slot as a row in a single table. It shares the
// file backend's state directory and master key sealing.
type SQLiteBackend struct {
	sealer
	path string
	db   *sql.DB
}

// NewSQLiteBackend opens (creating if needed) the slot database in dir.
// If dir is empty it defaults to DefaultStateDir.
func NewSQLiteBackend(dir, masterKey string) (*SQLiteBackend, error) {
	if dir == "" {
		var err error
		dir, err = DefaultStateDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	path := filepath.Join(dir, SQLiteFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writes
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b := &SQLiteBackend{path: path, db: db}
	if masterKey != "" {
		b.masterKey = []byte(masterKey)
	}
	if err := b.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) init(ctx context.Context) error {
	stmts := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		`CREATE TABLE IF NOT EXISTS slots (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	}
	return nil
}

// Name returns the backend identifier.
func (b *SQLiteBackend) Name() string {
	return BackendSQLite
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

// Get reads the value stored under key.
func (b *SQLiteBackend) Get(ctx context.Context, key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}

	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	if b.masterKey == nil {
		return string(data), nil
	}
	return b.open(data)
}

// Set replaces the value stored under key.
func (b *SQLiteBackend) Set(ctx context.Context, key, value string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}

	data := []byte(value)
	if b.masterKey != nil {
		var err error
		if data, err = b.seal(data); err != nil {
			return err
		}
	}

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key.
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}

	res, err := b.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// Available reports whether the database answers.
func (b *SQLiteBackend) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return b.db.PingContext(ctx) == nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
