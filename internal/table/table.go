// Package table turns delimited schedule text into an ordered sequence of
// rows keyed by the document's own header names.
//
// The parser is best-effort: it never reports column-count mismatches or
// stray quotes. Row order mirrors input order and downstream consumers
// depend on it.
package table

import "strings"

// Delimiter separates cells on a line.
const Delimiter = ','

// Table is a parsed document: the header row plus one Row per data line.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row is an immutable record of raw cell values keyed by header.
//
// When a header repeats, the first column with that name owns it.
type Row struct {
	index  map[string]int
	values []string
}

// Value returns the raw cell under header and whether the header exists.
func (r Row) Value(header string) (string, bool) {
	i, ok := r.index[header]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Values returns a copy of the row's cells in header order.
func (r Row) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Parse reads text into a Table. LF and CRLF line endings are accepted;
// empty lines are discarded and the first surviving line is the header.
// Text with no non-empty lines yields an empty Table.
func Parse(text string) *Table {
	records := splitRecords(text)
	if len(records) == 0 {
		return &Table{Headers: []string{}, Rows: []Row{}}
	}

	headers := records[0]
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		values := make([]string, len(headers))
		copy(values, rec)
		rows = append(rows, Row{index: index, values: values})
	}
	return &Table{Headers: headers, Rows: rows}
}

// splitRecords tokenizes the whole text. A field that begins with a quote
// runs to its closing quote and may span line breaks; "" inside it is a
// literal quote. Anything between a closing quote and the next delimiter is
// dropped. Unquoted fields run to the next delimiter or line end and have one
// stray leading/trailing quote trimmed.
func splitRecords(text string) [][]string {
	var (
		records [][]string
		fields  []string
		i       int
		n       = len(text)
	)

	atEOL := func(j int) (bool, int) {
		if j >= n {
			return true, 0
		}
		if text[j] == '\n' {
			return true, 1
		}
		if text[j] == '\r' && j+1 < n && text[j+1] == '\n' {
			return true, 2
		}
		return false, 0
	}

	for i < n {
		// Record start: skip empty lines.
		if eol, w := atEOL(i); eol && fields == nil {
			i += w
			continue
		}

		var field string
		if text[i] == '"' {
			field, i = readQuoted(text, i+1)
			for i < n && text[i] != Delimiter {
				if eol, _ := atEOL(i); eol {
					break
				}
				i++
			}
		} else {
			start := i
			for i < n && text[i] != Delimiter {
				if eol, _ := atEOL(i); eol {
					break
				}
				i++
			}
			field = unquoteBare(text[start:i])
		}
		fields = append(fields, field)

		if i < n && text[i] == Delimiter {
			i++
			if eol, _ := atEOL(i); !eol {
				continue
			}
		}
		_, w := atEOL(i)
		i += w
		records = append(records, fields)
		fields = nil
	}
	return records
}

// readQuoted consumes a quoted field body starting just after the opening
// quote and returns the unescaped content plus the index after the closing
// quote. An unterminated field runs to the end of text.
func readQuoted(text string, i int) (string, int) {
	var b strings.Builder
	for i < len(text) {
		c := text[i]
		if c == '"' {
			if i+1 < len(text) && text[i+1] == '"' {
				b.WriteByte('"')
				i += 2
				continue
			}
			return b.String(), i + 1
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), i
}

func unquoteBare(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.ReplaceAll(s, `""`, `"`)
}
