package fields

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"schedupdate/internal/dates"
	"schedupdate/internal/table"
)

// Mapping assigns document headers to logical keys. A key that is absent
// from the map is unresolved.
type Mapping map[Key]string

// Clone returns an independent copy.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MappingStatus is the validity of a mapping against the required keys.
type MappingStatus struct {
	OK      bool
	Missing []Key
}

// Check reports which required keys are unresolved.
func (m Mapping) Check() MappingStatus {
	var missing []Key
	for _, k := range Required {
		if strings.TrimSpace(m[k]) == "" {
			missing = append(missing, k)
		}
	}
	return MappingStatus{OK: len(missing) == 0, Missing: missing}
}

// Strings returns the mapping as plain key -> header strings, the only shape
// handed to persistence.
func (m Mapping) Strings() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v != "" {
			out[string(k)] = v
		}
	}
	return out
}

// FromStrings converts a persisted mapping back, dropping unknown keys and
// empty values.
func FromStrings(in map[string]string) Mapping {
	out := make(Mapping, len(in))
	for k, v := range in {
		key := Key(k)
		if v == "" || !IsKnown(key) {
			continue
		}
		out[key] = v
	}
	return out
}

// SortedKeys returns the resolved keys in Keys() order.
func (m Mapping) SortedKeys() []Key {
	order := make(map[Key]int)
	for i, k := range Keys() {
		order[k] = i
	}
	out := make([]Key, 0, len(m))
	for k, v := range m {
		if v != "" {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}

// AutoDetect resolves each key to the first header matching one of its
// aliases, trying aliases in priority order. It is a pure function of the
// header list.
func AutoDetect(headers []string) Mapping {
	normalized := make(map[string]string, len(headers))
	for _, h := range headers {
		n := NormalizeHeader(h)
		if _, seen := normalized[n]; !seen {
			normalized[n] = h
		}
	}

	mapping := make(Mapping)
	for _, k := range Keys() {
		for _, alias := range Aliases(k) {
			if h, ok := normalized[alias]; ok {
				mapping[k] = h
				break
			}
		}
	}
	return mapping
}

// Merge overlays a previously stored mapping on an auto-detected one. Stored
// entries whose header no longer exists are discarded; the remainder is
// applied only if it still resolves every required key on its own.
// Otherwise auto-detection is returned unchanged.
func Merge(auto, stored Mapping, headers []string) Mapping {
	out := auto.Clone()
	if len(stored) == 0 {
		return out
	}
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	valid := make(Mapping)
	for k, h := range stored {
		if present[h] && IsKnown(k) {
			valid[k] = h
		}
	}
	if !valid.Check().OK {
		return out
	}
	for k, h := range valid {
		out[k] = h
	}
	return out
}

// Apply sets user overrides. An empty header unmaps the key; unknown keys
// are ignored.
func (m Mapping) Apply(overrides Mapping) Mapping {
	out := m.Clone()
	for k, h := range overrides {
		if !IsKnown(k) {
			continue
		}
		if strings.TrimSpace(h) == "" {
			delete(out, k)
			continue
		}
		out[k] = h
	}
	return out
}

// Task reads logical fields from one row through a mapping.
type Task struct {
	Row     table.Row
	Mapping Mapping
}

// Lookup returns the trimmed cell for key, or false when the key is
// unmapped or the mapped header is missing from the row.
func (t Task) Lookup(key Key) (string, bool) {
	h := t.Mapping[key]
	if h == "" {
		return "", false
	}
	v, ok := t.Row.Value(h)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Value returns the trimmed cell for key, "" when unresolved.
func (t Task) Value(key Key) string {
	v, _ := t.Lookup(key)
	return v
}

// Number parses the leading numeric prefix of the cell ("5 days" -> 5,
// "1,250" -> 1250, "40%" -> 40). It is false for empty or non-numeric text.
func (t Task) Number(key Key) (float64, bool) {
	return ParseNumber(t.Value(key))
}

// Date parses the cell as a calendar date.
func (t Task) Date(key Key) dates.Date {
	return dates.Parse(t.Value(key))
}

var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseNumber extracts the leading decimal number of s after removing
// thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
