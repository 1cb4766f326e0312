// Package prefs persists the user's column mapping and last-used run
// settings between invocations.
//
// Only canonical key -> header strings and scalar settings are stored; row
// data never reaches a Store. Callers treat every Store error as advisory:
// a failed load falls back to defaults and a failed save is logged.
package prefs

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Settings are the scalar preferences remembered from the last run.
type Settings struct {
	Threshold         int    `json:"threshold"`
	UseBaseline       bool   `json:"use_baseline"`
	IncludeMilestones bool   `json:"include_milestones"`
	IncludeSummary    bool   `json:"include_summary"`
	GroupBy           string `json:"group_by"`
	Deadline          string `json:"deadline"`
}

// Validate rejects settings no run could have produced.
func (s Settings) Validate() error {
	if s.Threshold < 0 || s.Threshold > 100 {
		return fmt.Errorf("threshold %d out of range [0, 100]", s.Threshold)
	}
	return nil
}

// Store is a persistence collaborator for mappings and settings.
//
// LoadMapping returns an empty map and LoadSettings returns ok=false when
// nothing has been saved yet; neither is an error.
type Store interface {
	LoadMapping() (map[string]string, error)
	SaveMapping(mapping map[string]string) error
	LoadSettings() (settings Settings, ok bool, err error)
	SaveSettings(settings Settings) error
	Clear() error
	Close() error
}

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Open returns the store for backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		s, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := OpenSQLite(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// NopStore remembers nothing.
type NopStore struct{}

func (NopStore) LoadMapping() (map[string]string, error) { return map[string]string{}, nil }
func (NopStore) SaveMapping(map[string]string) error     { return nil }
func (NopStore) LoadSettings() (Settings, bool, error)   { return Settings{}, false, nil }
func (NopStore) SaveSettings(Settings) error             { return nil }
func (NopStore) Clear() error                            { return nil }
func (NopStore) Close() error                            { return nil }

// cleanMapping drops blank keys and values so that no store ever holds
// anything but header names.
func cleanMapping(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if strings.TrimSpace(k) == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
