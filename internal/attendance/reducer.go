// Package attendance derives resident presence from the append-only
// attendance event log.
//
// Presence is never stored as a flag. Every check-in and check-out is an
// event row, and the current state is recomputed from the log at read
// time. ComputeStatus answers "is this resident out right now", and
// BuildTripHistory reconstructs the paired checkout/return intervals for
// print views. Both are pure functions over the event slice.
package attendance

import (
	"sort"
	"time"

	"github.com/graceworks/shelterops/internal/clock"
	"github.com/graceworks/shelterops/internal/model"
)

// Status is the derived presence state for one resident.
type Status struct {
	// IsOut reports whether the most recent event is a check-out.
	IsOut bool

	// LastEventType and LastEventTime describe the most recent event.
	// LastEventTime is nil when the resident has no parseable events,
	// which renders as the implicit initial IN state.
	LastEventType model.AttendanceEventType
	LastEventTime *time.Time

	// CheckoutTime is the time of the most recent check-out, kept even
	// after the resident has returned so the last trip stays visible.
	CheckoutTime *time.Time

	// ExpectedBackTime is the expected return recorded on that
	// check-out, when one was given.
	ExpectedBackTime *time.Time

	// CheckinAfterCheckoutTime is the earliest check-in strictly after
	// CheckoutTime, the return that closed the trip. Nil while the trip
	// is still open.
	CheckinAfterCheckoutTime *time.Time

	// IsOverdue is true only while the resident is still out past the
	// expected return.
	IsOverdue bool
}

// Trip is one checkout/return interval reconstructed from the log.
type Trip struct {
	CheckedOutAt   time.Time
	ExpectedBackAt *time.Time
	CheckedInAt    *time.Time
	Note           string
	Late           bool
	Open           bool
}

// parsedEvent carries an event with its timestamps decoded. Events whose
// event_time cannot be parsed never become parsedEvents.
type parsedEvent struct {
	event        *model.AttendanceEvent
	at           time.Time
	expectedBack *time.Time
}

// parseEvents decodes and time-orders the event slice. Rows with an
// unparseable event_time are skipped; a bad expected_back_time only
// loses that one field. Input order is not trusted because legacy rows
// mix timestamp formats that do not sort lexicographically.
func parseEvents(events []*model.AttendanceEvent) []parsedEvent {
	parsed := make([]parsedEvent, 0, len(events))
	for _, ev := range events {
		at, err := clock.ParseStored(ev.EventTime)
		if err != nil {
			continue
		}
		pe := parsedEvent{event: ev, at: at}
		if ev.ExpectedBackTime != "" {
			if back, err := clock.ParseStored(ev.ExpectedBackTime); err == nil {
				pe.expectedBack = &back
			}
		}
		parsed = append(parsed, pe)
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		if parsed[i].at.Equal(parsed[j].at) {
			return parsed[i].event.ID < parsed[j].event.ID
		}
		return parsed[i].at.Before(parsed[j].at)
	})
	return parsed
}

// ComputeStatus reduces one resident's events to their presence state as
// of now. An empty or fully unparseable log yields the zero Status, the
// implicit initial IN.
func ComputeStatus(events []*model.AttendanceEvent, now time.Time) Status {
	parsed := parseEvents(events)
	var status Status
	if len(parsed) == 0 {
		return status
	}

	last := parsed[len(parsed)-1]
	status.LastEventType = last.event.EventType
	lastAt := last.at
	status.LastEventTime = &lastAt
	status.IsOut = last.event.EventType == model.EventCheckOut

	// The most recent check-out is tracked independently of whether it
	// is still the current state, so the expected-back time survives the
	// resident's return.
	for i := len(parsed) - 1; i >= 0; i-- {
		if parsed[i].event.EventType != model.EventCheckOut {
			continue
		}
		out := parsed[i]
		outAt := out.at
		status.CheckoutTime = &outAt
		status.ExpectedBackTime = out.expectedBack

		// Earliest check-in strictly after the check-out closes the
		// trip. Pairing is by time order alone.
		for j := i + 1; j < len(parsed); j++ {
			in := parsed[j]
			if in.event.EventType == model.EventCheckIn && in.at.After(outAt) {
				inAt := in.at
				status.CheckinAfterCheckoutTime = &inAt
				break
			}
		}
		break
	}

	status.IsOverdue = status.IsOut &&
		status.ExpectedBackTime != nil &&
		status.ExpectedBackTime.Before(now)
	return status
}

// BuildTripHistory replays the full log in ascending time order. Each
// check-out opens a trip; the next check-in closes it and marks it late
// when the return came after the expected time. A check-in with no open
// trip is ignored. The trailing trip stays open when the resident has
// not returned.
func BuildTripHistory(events []*model.AttendanceEvent) []Trip {
	parsed := parseEvents(events)
	trips := make([]Trip, 0)
	openIdx := -1
	for _, p := range parsed {
		switch p.event.EventType {
		case model.EventCheckOut:
			trips = append(trips, Trip{
				CheckedOutAt:   p.at,
				ExpectedBackAt: p.expectedBack,
				Note:           p.event.Note,
				Open:           true,
			})
			openIdx = len(trips) - 1
		case model.EventCheckIn:
			if openIdx < 0 {
				continue
			}
			trip := &trips[openIdx]
			// Same strictly-after rule as the status reducer: a
			// check-in stamped at the checkout instant does not close
			// the trip.
			if !p.at.After(trip.CheckedOutAt) {
				continue
			}
			inAt := p.at
			trip.CheckedInAt = &inAt
			trip.Open = false
			if trip.ExpectedBackAt != nil && inAt.After(*trip.ExpectedBackAt) {
				trip.Late = true
			}
			openIdx = -1
		}
	}
	return trips
}
