// Package phase tags each schedule row as construction or
// preconstruction-and-post, using only the names of summary rows.
package phase

import (
	"regexp"
	"strings"

	"schedupdate/internal/classify"
	"schedupdate/internal/fields"
)

// Category is the coarse project phase of a row.
type Category string

const (
	Construction           Category = "construction"
	PreconstructionAndPost Category = "preconstruction-and-post"
)

// Tag is the phase assignment of one row. SubPhase is the name of the most
// recent summary inside the construction span that is not itself a
// construction boundary, "" elsewhere.
type Tag struct {
	Category Category
	SubPhase string
}

var (
	whitespace       = regexp.MustCompile(`\s+`)
	preConstruction  = regexp.MustCompile(`pre.?construction`)
	postConstruction = regexp.MustCompile(`post.?construction`)
	leadingConstr    = regexp.MustCompile(`^construction(\s|$)`)
	leadingPost      = regexp.MustCompile(`^post.?construction`)
)

// normalizeName trims, lower-cases and collapses internal whitespace.
func normalizeName(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}

// IsConstructionBoundary reports whether a summary name opens the
// construction span: "construction" as the whole leading word, and no
// pre- or post-construction wording anywhere.
func IsConstructionBoundary(name string) bool {
	n := normalizeName(name)
	if preConstruction.MatchString(n) || postConstruction.MatchString(n) {
		return false
	}
	return leadingConstr.MatchString(n)
}

// IsPostConstructionBoundary reports whether a summary name closes the
// construction span ("Post-Construction", "Post Construction",
// "postconstruction").
func IsPostConstructionBoundary(name string) bool {
	return leadingPost.MatchString(normalizeName(name))
}

// Infer tags every task, in order. The result has one Tag per input.
//
// The construction span is [first construction boundary summary, first
// post-construction boundary summary after it). With no construction
// boundary there is no span; with no post boundary the span runs to the end.
func Infer(tasks []fields.Task) []Tag {
	summary := make([]bool, len(tasks))
	for i, t := range tasks {
		summary[i] = classify.IsSummary(t)
	}

	start, end := -1, len(tasks)
	for i, t := range tasks {
		if !summary[i] {
			continue
		}
		name := t.Value(fields.TaskName)
		if start < 0 {
			if IsConstructionBoundary(name) {
				start = i
			}
			continue
		}
		if IsPostConstructionBoundary(name) {
			end = i
			break
		}
	}

	tags := make([]Tag, len(tasks))
	subPhase := ""
	for i, t := range tasks {
		if start < 0 || i < start || i >= end {
			subPhase = ""
			tags[i] = Tag{Category: PreconstructionAndPost}
			continue
		}
		if summary[i] && !IsConstructionBoundary(t.Value(fields.TaskName)) {
			subPhase = t.Value(fields.TaskName)
		}
		tags[i] = Tag{Category: Construction, SubPhase: subPhase}
	}
	return tags
}
