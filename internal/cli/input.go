package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"schedupdate/internal/engine"
	"schedupdate/internal/fields"
	"schedupdate/internal/prefs"
)

// readCSV returns the decoded text of path, or of stdin for "-".
func (a *app) readCSV(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", invalidInvocationf("--csv is required")
	}
	var r io.Reader
	if path == "-" {
		r = a.stdin
	} else {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return "", invalidInvocationf("cannot read csv: %v", err)
		}
		defer f.Close()
		r = f
	}
	text, err := decodeText(r)
	if err != nil {
		return "", invalidInvocationf("cannot decode csv %s: %v", path, err)
	}
	return text, nil
}

// decodeText reads UTF-8 text, dropping a UTF-8 byte order mark and
// decoding UTF-16 input that starts with one.
func decodeText(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	b, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseMapFlags turns repeated key=Header values into mapping overrides.
// An empty header unmaps the key.
func parseMapFlags(values []string) (fields.Mapping, error) {
	out := make(fields.Mapping, len(values))
	for _, v := range values {
		key, header, ok := strings.Cut(v, "=")
		if !ok {
			return nil, invalidInvocationf("invalid --map %q (expected key=Header)", v)
		}
		k := fields.Key(strings.TrimSpace(key))
		if !fields.IsKnown(k) {
			return nil, invalidInvocationf("invalid --map %q: unknown field key %q", v, key)
		}
		out[k] = strings.TrimSpace(header)
	}
	return out, nil
}

// loadSession parses text into a new session, overlaying the stored mapping
// and then overrides.
func (a *app) loadSession(store prefs.Store, text string, overrides fields.Mapping) (*engine.Session, fields.MappingStatus) {
	stored, err := store.LoadMapping()
	if err != nil {
		a.log.Warn("failed to load stored mapping", zap.Error(err))
		stored = nil
	}
	sess := engine.NewSession(a.log)
	status := sess.Load(text, fields.FromStrings(stored))
	if len(overrides) > 0 {
		status = sess.ApplyMapping(overrides)
	}
	return sess, status
}

// writeOutput writes data to path, or to stdout when path is empty.
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		if _, err := io.Copy(a.stdout, bytes.NewReader(data)); err != nil {
			return internalErrorf("failed to write output: %v", err)
		}
		return nil
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return internalErrorf("failed to write %s: %v", path, err)
	}
	return nil
}

func keyList(keys []fields.Key) string {
	s := make([]string, len(keys))
	for i, k := range keys {
		s[i] = string(k)
	}
	return strings.Join(s, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
