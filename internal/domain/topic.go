package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// MaxTopics caps every stored snapshot and every aggregated view.
const MaxTopics = 25

// Topic is one trending search. Title is the identity of the topic and is
// compared case-insensitively via TitleKey.
type Topic struct {
	Title        string `json:"title"`
	SearchVolume string `json:"search_volume,omitempty"`
	StartedAgo   string `json:"started,omitempty"`
}

// TitleKey returns the case-folded, trimmed form of a title used for
// deduplication. A Caser is stateful, so one is built per call.
func TitleKey(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

// Titles returns the titles of ts in order.
func Titles(ts []Topic) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}
