package ics

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "webregcal/internal/log"
)

const defaultMaxOccurrencesPerEvent = 1000

// Occurrence is a single concrete instance of a generated event after
// recurrence expansion.
type Occurrence struct {
	UID      string
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
}

// ExpandConfig controls occurrence expansion for the preview API.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive window. The term
	// dates are the natural choice.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps expansion per event. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandOccurrences expands generated events into concrete instances
// within the window, sorted by start time. Events without a rule
// contribute at most one occurrence. Generated rules never carry
// EXDATE or overrides, so none of that machinery is needed here.
func ExpandOccurrences(events []Event, cfg ExpandConfig) ([]Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]Occurrence, 0)
	for _, ev := range events {
		out = append(out, expandEvent(ev, cfg)...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].UID < out[j].UID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func expandEvent(ev Event, cfg ExpandConfig) []Occurrence {
	if ev.RRule == "" {
		return expandSingleEvent(ev, cfg)
	}

	r, err := rrule.StrToRRule(inclusiveUntil(ev.RRule, ev.Start.Location()))
	if err != nil {
		// A rule the expander cannot read (the empty-BYDAY case for
		// sessions whose weekday column parsed to nothing) still has
		// a valid anchor; show that one instance.
		appLog.Warn("unexpandable rule, previewing anchor only",
			"uid", ev.UID, "rrule", ev.RRule)
		return expandSingleEvent(ev, cfg)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)

	rangeStart := cfg.RangeStart.In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		appLog.Warn("occurrence cap reached",
			"uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]Occurrence, 0, len(occTimes))
	for _, start := range occTimes {
		out = append(out, Occurrence{
			UID:      ev.UID,
			Summary:  ev.Summary,
			Location: ev.Location,
			Start:    start,
			End:      start.Add(dur),
		})
	}
	return out
}

// inclusiveUntil rewrites a date-only UNTIL clause into the last
// second of that day in loc, rendered in UTC. rrule-go reads a bare
// date as midnight UTC, which cuts off instances falling on the end
// date itself once the event's local time carries a UTC offset.
// Calendar importers treat the date-only form as inclusive of the
// whole day, and the preview must agree with what the serialized
// calendar will show. The serialized output keeps the date-only form.
func inclusiveUntil(rule string, loc *time.Location) string {
	parts := strings.Split(rule, ";")
	for i, p := range parts {
		val, ok := strings.CutPrefix(p, "UNTIL=")
		if !ok || len(val) != len(icsDateFormat) {
			continue
		}
		d, err := time.ParseInLocation(icsDateFormat, val, loc)
		if err != nil {
			continue
		}
		end := d.AddDate(0, 0, 1).Add(-time.Second).UTC()
		parts[i] = "UNTIL=" + end.Format("20060102T150405Z")
	}
	return strings.Join(parts, ";")
}

func expandSingleEvent(ev Event, cfg ExpandConfig) []Occurrence {
	if !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []Occurrence{{
		UID:      ev.UID,
		Summary:  ev.Summary,
		Location: ev.Location,
		Start:    ev.Start,
		End:      ev.End,
	}}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
