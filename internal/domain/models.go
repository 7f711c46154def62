package domain

import (
	"fmt"
	"strings"
	"time"
)

// Fixture is one upcoming match eligible for an alert. Fixtures are read-only
// inputs: they are decoded fresh every cycle and never written back.
type Fixture struct {
	MatchID    MatchID
	HomeTeam   string
	AwayTeam   string
	LeagueName string
	AlertAt    time.Time
}

// layouts carrying an explicit offset, tried first.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04Z07",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04Z07",
	"20060102T150405Z0700",
	"20060102T150405Z07",
	"20060102T1504Z0700",
}

// layouts without an offset; interpreted in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15",
	"2006-01-02",
	"20060102T150405",
	"20060102T1504",
	"20060102",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone offset
// are taken to be wall-clock time in loc (time.Local when loc is nil).
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
