// Package clock converts between stored UTC instants and the fixed
// America/Chicago timezone used for every human-facing time decision.
// The local zone is a business rule shared by all shelters, not a
// per-shelter setting.
package clock

import (
	"strings"
	"sync"
	"time"
	// Embedded zoneinfo keeps the location lookup working in the
	// distroless runtime image.
	_ "time/tzdata"
)

const (
	// StoredLayout is the format of attendance event timestamps at rest:
	// ISO-8601 without a zone suffix, always UTC. Lexicographic order of
	// these strings equals chronological order.
	StoredLayout = "2006-01-02T15:04:05"

	// DisplayLayout is the human-facing timestamp format.
	DisplayLayout = "2006-01-02 15:04"

	// DateLayout is the human-facing calendar date format.
	DateLayout = "2006-01-02"

	// CurfewHour is the local hour (24h) on the return date after which an
	// approved leave counts as overdue.
	CurfewHour = 22
)

var (
	centralOnce sync.Once
	central     *time.Location
)

// Central returns the America/Chicago location.
func Central() *time.Location {
	centralOnce.Do(func() {
		loc, err := time.LoadLocation("America/Chicago")
		if err != nil {
			loc = time.UTC
		}
		central = loc
	})
	return central
}

// storedParseLayouts are tried in order by ParseStored. Legacy rows vary:
// some carry fractional seconds, some a zone suffix, some a space in
// place of the T.
var storedParseLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
}

// ParseStored parses a stored attendance timestamp into a UTC instant.
// Zoneless values are interpreted as UTC. Callers that aggregate over
// the event log must skip records whose timestamps fail to parse rather
// than abort the whole computation.
func ParseStored(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range storedParseLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatStored renders a UTC instant in the storage format.
func FormatStored(t time.Time) string {
	return t.UTC().Format(StoredLayout)
}

// inputParseLayouts accepts datetime-local form values, with or without
// seconds.
var inputParseLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseInput interprets a submitted datetime as Central wall-clock time
// and returns the UTC instant. Residents and staff type local times; the
// zone conversion happens here, once, on the way in.
func ParseInput(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range inputParseLayouts {
		t, err := time.ParseInLocation(layout, s, Central())
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatDisplay renders an instant in local time for humans.
func FormatDisplay(t time.Time) string {
	return t.In(Central()).Format(DisplayLayout)
}

// FormatDate renders an instant's local calendar date.
func FormatDate(t time.Time) string {
	return t.In(Central()).Format(DateLayout)
}

// LocalDateString returns the local calendar date of an instant as a
// string. Board views match requests to a day by comparing these strings,
// so two requests on the same local date match even when their UTC dates
// differ.
func LocalDateString(t time.Time) string {
	return t.In(Central()).Format(DateLayout)
}

// OverdueCutoff returns the instant at which a leave with the given
// return time becomes overdue: CurfewHour local time on the return
// date. The grace window runs to the end of the return day, not to
// return_at itself.
func OverdueCutoff(returnAt time.Time) time.Time {
	local := returnAt.In(Central())
	return time.Date(local.Year(), local.Month(), local.Day(), CurfewHour, 0, 0, 0, Central())
}
