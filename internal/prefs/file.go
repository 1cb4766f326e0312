package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	mappingFile  = "mapping.json"
	settingsFile = "settings.json"
)

// FileStore keeps preferences as JSON documents under one directory:
//
//	<dir>/mapping.json
//	<dir>/settings.json
//
// Each save replaces its document with a rename.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store dir is required")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) mappingPath() string  { return filepath.Join(s.dir, mappingFile) }
func (s *FileStore) settingsPath() string { return filepath.Join(s.dir, settingsFile) }

func (s *FileStore) LoadMapping() (map[string]string, error) {
	if s == nil {
		return nil, errors.New("nil FileStore")
	}
	var m map[string]string
	if err := readJSON(s.mappingPath(), &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return cleanMapping(m), nil
}

func (s *FileStore) SaveMapping(mapping map[string]string) error {
	if s == nil {
		return errors.New("nil FileStore")
	}
	data, err := encodeJSON(cleanMapping(mapping))
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	if err := replaceFile(s.mappingPath(), data); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

func (s *FileStore) LoadSettings() (Settings, bool, error) {
	if s == nil {
		return Settings{}, false, errors.New("nil FileStore")
	}
	var st Settings
	if err := readJSON(s.settingsPath(), &st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, false, nil
		}
		return Settings{}, false, fmt.Errorf("read settings: %w", err)
	}
	if err := st.Validate(); err != nil {
		return Settings{}, false, fmt.Errorf("invalid settings on disk: %w", err)
	}
	return st, true, nil
}

func (s *FileStore) SaveSettings(settings Settings) error {
	if s == nil {
		return errors.New("nil FileStore")
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	data, err := encodeJSON(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := replaceFile(s.settingsPath(), data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Clear removes both documents. Missing files are not an error.
func (s *FileStore) Clear() error {
	if s == nil {
		return errors.New("nil FileStore")
	}
	for _, p := range []string{s.mappingPath(), s.settingsPath()} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func encodeJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// readJSON decodes exactly one JSON document from path into dst.
func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}

// replaceFile writes data next to path and renames it into place, so a
// reader sees the old document or the new one and never a partial write.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
