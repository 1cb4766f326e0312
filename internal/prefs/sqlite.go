package prefs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteFile is the database file name inside the store directory.
const SQLiteFile = "prefs.db"

const schema = `CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

const (
	keyMapping  = "mapping"
	keySettings = "settings"
)

// SQLiteStore keeps preferences as JSON values in a single key/value table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) <dir>/prefs.db.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sqlite store: mkdir: %w", err)
	}
	db, err := openDB(filepath.Join(dir, SQLiteFile))
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// openDB applies the production pragmas and the schema.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// One writer; keeps WAL and busy_timeout on every connection used.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite store: %s: %w", firstLine(p), err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: ping: %w", err)
	}
	return db, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (s *SQLiteStore) get(key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw),
	)
	return err
}

func (s *SQLiteStore) LoadMapping() (map[string]string, error) {
	m := map[string]string{}
	if _, err := s.get(keyMapping, &m); err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return cleanMapping(m), nil
}

func (s *SQLiteStore) SaveMapping(mapping map[string]string) error {
	if err := s.put(keyMapping, cleanMapping(mapping)); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadSettings() (Settings, bool, error) {
	var st Settings
	ok, err := s.get(keySettings, &st)
	if err != nil {
		return Settings{}, false, fmt.Errorf("read settings: %w", err)
	}
	if !ok {
		return Settings{}, false, nil
	}
	if err := st.Validate(); err != nil {
		return Settings{}, false, fmt.Errorf("invalid settings in store: %w", err)
	}
	return st, true, nil
}

func (s *SQLiteStore) SaveSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.put(keySettings, settings); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM prefs`)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
