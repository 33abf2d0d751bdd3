// Package storage is the durable client-storage boundary: a small key-value
// surface that the order store and points ledger persist snapshots under.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("key not found")

// KV is durable string storage scoped to one session workspace. ReadKey
// returns ErrNotFound when the key is absent.
type KV interface {
	ReadKey(ctx context.Context, name string) (string, error)
	WriteKey(ctx context.Context, name, value string) error
	DeleteKey(ctx context.Context, name string) error
}

// SQLite stores keys in the workspace database's kv table.
type SQLite struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s SQLite) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s SQLite) ReadKey(ctx context.Context, name string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

func (s SQLite) WriteKey(ctx context.Context, name, value string) error {
	ts := s.now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `INSERT INTO kv(key,value,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, name, value, ts)
	return err
}

func (s SQLite) DeleteKey(ctx context.Context, name string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, name)
	return err
}

// Memory is an in-process KV for tests and ephemeral sessions.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) ReadKey(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) WriteKey(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = value
	return nil
}

func (m *Memory) DeleteKey(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}
