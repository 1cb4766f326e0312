package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_HeadersAndRows(t *testing.T) {
	tbl := Parse("Task Name,Start,Finish\r\nDesign,2024-01-01,2024-01-10\r\n\r\nBuild,1/11/24,2/1/24\n")

	if diff := cmp.Diff([]string{"Task Name", "Start", "Finish"}, tbl.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	got := [][]string{tbl.Rows[0].Values(), tbl.Rows[1].Values()}
	want := [][]string{
		{"Design", "2024-01-01", "2024-01-10"},
		{"Build", "1/11/24", "2/1/24"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_QuotedFields(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want []string
	}{
		{"embedded delimiter", `"Phase 1, Site Work",x`, []string{"Phase 1, Site Work", "x"}},
		{"doubled quote", `"He said ""go""",y`, []string{`He said "go"`, "y"}},
		{"junk after closing quote", `"abc"def,z`, []string{"abc", "z"}},
		{"bare doubled quote", `a""b,c`, []string{`a"b`, "c"}},
		{"empty leading cell", `,b,c`, []string{"", "b", "c"}},
		{"embedded line break", "\"line one\nline two\",w", []string{"line one\nline two", "w"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tbl := Parse("A,B,C\n" + tc.line + "\n")
			if tbl.Len() != 1 {
				t.Fatalf("expected 1 row, got %d", tbl.Len())
			}
			got := tbl.Rows[0].Values()[:len(tc.want)]
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("cells mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_MissingTrailingCellsDefaultEmpty(t *testing.T) {
	tbl := Parse("A,B,C\nonly\n")
	v, ok := tbl.Rows[0].Value("C")
	if !ok || v != "" {
		t.Fatalf("expected empty C, got %q (ok=%v)", v, ok)
	}
	if _, ok := tbl.Rows[0].Value("D"); ok {
		t.Fatalf("unknown header must not resolve")
	}
}

func TestParse_ExtraCellsIgnored(t *testing.T) {
	tbl := Parse("A,B\n1,2,3,4\n")
	if diff := cmp.Diff([]string{"1", "2"}, tbl.Rows[0].Values()); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_DuplicateHeaderFirstWins(t *testing.T) {
	tbl := Parse("Name,Name\nfirst,second\n")
	v, _ := tbl.Rows[0].Value("Name")
	if v != "first" {
		t.Fatalf("expected first column to own duplicate header, got %q", v)
	}
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", "\r\n"} {
		tbl := Parse(input)
		if len(tbl.Headers) != 0 || tbl.Len() != 0 {
			t.Fatalf("input %q: expected empty table, got %+v", input, tbl)
		}
	}
}

func TestParse_OrderPreserved(t *testing.T) {
	tbl := Parse("N\nc\na\nb\n")
	var got []string
	for _, r := range tbl.Rows {
		v, _ := r.Value("N")
		got = append(got, v)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}
