package domain

import (
	"fmt"
	"strings"
	"time"
)

// Window selects the calendar range a view aggregates over.
type Window string

const (
	// SingleDay is exactly yesterday.
	SingleDay Window = "single_day"
	// TrailingWeek is the seven days ending today, inclusive.
	TrailingWeek Window = "trailing_week"
)

// ParseWindow accepts the canonical selectors plus the public API aliases
// "yesterday" and "last_7_days". An empty selector means TrailingWeek.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(TrailingWeek), "last_7_days", "week":
		return TrailingWeek, nil
	case string(SingleDay), "yesterday", "day":
		return SingleDay, nil
	}
	return "", fmt.Errorf("%w: %q (use yesterday or last_7_days)", ErrInvalidWindow, s)
}

// Range resolves the window to an inclusive [start, end] day range relative
// to today.
func (w Window) Range(today Day) (start, end Day) {
	if w == SingleDay {
		y := today.AddDays(-1)
		return y, y
	}
	return today.AddDays(-6), today
}

// AnnotatedTopic is a topic in an aggregated view. DaysOngoing is set only
// when the topic appeared on at least StreakThreshold days of the window.
type AnnotatedTopic struct {
	Topic
	DaysOngoing int `json:"days_ongoing,omitempty"`
}

// WindowView is the derived, non-persisted read result for a region and
// window. Provenance and timestamps come from the newest snapshot read.
type WindowView struct {
	Region     Region           `json:"region"`
	Window     Window           `json:"window"`
	Topics     []AnnotatedTopic `json:"topics"`
	Provenance Provenance       `json:"source"`
	FetchedAt  time.Time        `json:"fetched_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Legacy     bool             `json:"legacy,omitempty"`
}
