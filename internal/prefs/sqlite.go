package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB persists preferences for every profile in one SQLite file.
type DB struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases intact and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	d := &DB{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return d, nil
}

func (d *DB) createTables() error {
	_, err := d.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv (
		profile TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (profile, key)
	);`)
	return err
}

// Close closes the database.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// Profile returns a KV scoped to one profile.
func (d *DB) Profile(id string) KV {
	return &profileKV{d: d, profile: id}
}

// Profiles counts profiles with at least one stored key.
func (d *DB) Profiles() (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var n int
	err := d.db.QueryRow(`SELECT COUNT(DISTINCT profile) FROM kv`).Scan(&n)
	return n, err
}

type profileKV struct {
	d       *DB
	profile string
}

func (p *profileKV) Get(key string) (string, bool, error) {
	p.d.mu.RLock()
	defer p.d.mu.RUnlock()
	var v string
	err := p.d.db.QueryRow(`SELECT value FROM kv WHERE profile = ? AND key = ?`, p.profile, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *profileKV) Set(key, value string) error {
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	_, err := p.d.db.Exec(`
	INSERT INTO kv (profile, key, value, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(profile, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		p.profile, key, value, time.Now().UTC())
	return err
}

func (p *profileKV) Delete(key string) error {
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	_, err := p.d.db.Exec(`DELETE FROM kv WHERE profile = ? AND key = ?`, p.profile, key)
	return err
}
