package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "webregcal/internal/log"
	"webregcal/internal/model"
)

const (
	// icsDateFormat is the date-only form used by UNTIL.
	icsDateFormat = "20060102"
	// icsLocalFormat is the floating date-time form used with TZID.
	icsLocalFormat = "20060102T150405"
)

// Options controls calendar generation. The clock and time zone are
// explicit so tests can pin them instead of reading ambient state.
type Options struct {
	// Timezone is the IANA identifier stamped on every event.
	Timezone string
	// ProdID is the calendar PRODID.
	ProdID string
	// Now supplies the DTSTAMP value for each built event.
	Now func() time.Time
	// SingleDayFallback emits a plain one-day event for a session
	// whose weekday set parsed to nothing, instead of a weekly rule
	// with an empty BYDAY clause.
	SingleDayFallback bool
}

// Normalize fills zero values with defaults.
func (o *Options) Normalize() {
	if o.Timezone == "" {
		o.Timezone = "America/Los_Angeles"
	}
	if o.ProdID == "" {
		o.ProdID = "-//webregcal//webregcal//EN"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Event is one generated calendar event, kept alongside the serialized
// form so the preview API can expand it without re-parsing ICS text.
type Event struct {
	UID      string
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
	RRule    string // empty for one-off events
}

// Generate converts courses into a serialized VCALENDAR plus the event
// values it contains.
func Generate(courses []model.Course, opts Options) (string, []Event) {
	opts.Normalize()
	loc := resolveLocationOrLocal(opts.Timezone)

	events := make([]Event, 0)
	for _, course := range courses {
		events = append(events, CourseEvents(course, loc, opts)...)
	}

	cal := ical.NewCalendar()
	cal.SetVersion("2.0")
	cal.SetProductId(opts.ProdID)
	cal.SetCalscale("GREGORIAN")

	for _, ev := range events {
		ve := cal.AddEvent(ev.UID)
		ve.SetDtStampTime(opts.Now())
		ve.SetProperty(ical.ComponentPropertyDtStart,
			ev.Start.Format(icsLocalFormat),
			&ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{opts.Timezone}})
		ve.SetProperty(ical.ComponentPropertyDtEnd,
			ev.End.Format(icsLocalFormat),
			&ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{opts.Timezone}})
		ve.SetSummary(ev.Summary)
		ve.SetLocation(ev.Location)
		if ev.RRule != "" {
			ve.AddRrule(ev.RRule)
		}
		// Imported events should block the time as busy.
		ve.SetTimeTransparency(ical.TransparencyOpaque)
	}

	return cal.Serialize(), events
}

// CourseEvents builds zero or one event per session of the course. The
// event UID is "<course-id>-<index>" with index being the session's
// position within the course.
func CourseEvents(course model.Course, loc *time.Location, opts Options) []Event {
	events := make([]Event, 0, len(course.Sessions))

	for i, session := range course.Sessions {
		if session.Timeslot == nil {
			// Placeholder rows (e.g. TBA finals) carry no time and
			// produce no event.
			continue
		}

		anchor := anchorDate(course.StartDate, session.Days)
		ev := Event{
			UID:      fmt.Sprintf("%s-%d", course.ID, i),
			Summary:  fmt.Sprintf("%s %s", course.Code, session.Type),
			Location: fmt.Sprintf("%s %s", session.Building, session.Room),
			Start:    onDate(anchor, session.Timeslot.Start, loc),
			End:      onDate(anchor, session.Timeslot.End, loc),
		}

		if days, ok := session.Days.Weekdays(); ok {
			if len(days) == 0 && opts.SingleDayFallback {
				appLog.Debug("session has no weekdays, emitting single-day event",
					"uid", ev.UID)
			} else {
				ev.RRule = weeklyRule(days, course.EndDate)
			}
		}

		events = append(events, ev)
	}

	return events
}

// anchorDate finds the first concrete date of the session's pattern:
// the explicit date itself, or the first date on/after the term start
// falling on the earliest listed weekday (Monday when the set is
// empty).
func anchorDate(start time.Time, days model.Days) time.Time {
	if date, ok := days.Date(); ok {
		return date
	}

	weekdays, _ := days.Weekdays()
	target := model.Monday
	for i, d := range weekdays {
		if i == 0 || d < target {
			target = d
		}
	}

	diff := (mondayIndex(target.Weekday()) - mondayIndex(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, diff)
}

// mondayIndex maps a weekday to its 0-based index in a Monday-first
// week.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// weeklyRule renders the recurrence for a weekday set: weekly, week
// starting Sunday, inclusive of the term end date, BYDAY in the set's
// original order.
func weeklyRule(days []model.Day, until time.Time) string {
	codes := make([]string, len(days))
	for i, d := range days {
		codes[i] = d.RecurrenceCode()
	}
	return fmt.Sprintf("FREQ=WEEKLY;WKST=SU;UNTIL=%s;BYDAY=%s",
		until.Format(icsDateFormat), strings.Join(codes, ","))
}

// onDate combines a calendar date with the time of day of a parsed
// timeslot bound, in the display location.
func onDate(date, tod time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), 0, 0, loc)
}

func resolveLocationOrLocal(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
