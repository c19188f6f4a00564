package model

import (
	"time"

	"github.com/google/uuid"
)

// Day is a weekday as it appears in the schedule table, ordered
// Monday-first to match the registration system's week layout.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// dayDisplayCodes maps the table's day tokens to Day values. The tokens
// are the exact strings used in the days column ("TuTh", "MWF", ...).
var dayDisplayCodes = map[string]Day{
	"M":  Monday,
	"Tu": Tuesday,
	"W":  Wednesday,
	"Th": Thursday,
	"F":  Friday,
	"Sa": Saturday,
	"Su": Sunday,
}

// DayFromDisplayCode resolves a day token from the schedule table.
// Anything that is not one of the seven known tokens is simply not a
// day token, so ok is false rather than an error.
func DayFromDisplayCode(code string) (Day, bool) {
	d, ok := dayDisplayCodes[code]
	return d, ok
}

// RecurrenceCode returns the two-letter BYDAY code for the day.
func (d Day) RecurrenceCode() string {
	switch d {
	case Monday:
		return "MO"
	case Tuesday:
		return "TU"
	case Wednesday:
		return "WE"
	case Thursday:
		return "TH"
	case Friday:
		return "FR"
	case Saturday:
		return "SA"
	default:
		return "SU"
	}
}

// Weekday converts to the standard library weekday.
func (d Day) Weekday() time.Weekday {
	if d == Sunday {
		return time.Sunday
	}
	return time.Weekday(int(d) + 1)
}

// DayFromWeekday converts from the standard library weekday.
func DayFromWeekday(wd time.Weekday) Day {
	if wd == time.Sunday {
		return Sunday
	}
	return Day(int(wd) - 1)
}

func (d Day) String() string {
	return [...]string{
		"Monday", "Tuesday", "Wednesday", "Thursday",
		"Friday", "Saturday", "Sunday",
	}[d]
}

// Days describes when a session meets: either a single explicit
// calendar date (exams, one-off meetings) or an ordered set of
// weekdays (recurring meetings). Exactly one arm is populated and
// consumers branch on both.
type Days struct {
	date     time.Time
	weekdays []Day
	isDate   bool
}

// DateDays builds the explicit-date arm.
func DateDays(date time.Time) Days {
	return Days{date: date, isDate: true}
}

// WeekdayDays builds the weekday-set arm. The slice keeps the column's
// token order, duplicates included; it may be empty.
func WeekdayDays(days []Day) Days {
	return Days{weekdays: days}
}

// Date returns the explicit date, if this is the date arm.
func (d Days) Date() (time.Time, bool) {
	return d.date, d.isDate
}

// Weekdays returns the weekday set, if this is the weekday arm.
func (d Days) Weekdays() ([]Day, bool) {
	if d.isDate {
		return nil, false
	}
	return d.weekdays, true
}

// SessionType classifies a scheduled meeting.
type SessionType string

const (
	Lecture    SessionType = "Lecture"
	Discussion SessionType = "Discussion"
	Final      SessionType = "Final"
	Lab        SessionType = "Lab"
	Midterm    SessionType = "Midterm"
	Tutorial   SessionType = "Tutorial"
	Seminar    SessionType = "Seminar"
)

// sessionTypeCodes maps the table's two-letter type column values.
var sessionTypeCodes = map[string]SessionType{
	"LE": Lecture,
	"DI": Discussion,
	"FI": Final,
	"LA": Lab,
	"MI": Midterm,
	"TU": Tutorial,
	"SE": Seminar,
}

// SessionTypeFromCode resolves the type column. Unknown codes are not
// an error; the row just has no resolvable type.
func SessionTypeFromCode(code string) (SessionType, bool) {
	t, ok := sessionTypeCodes[code]
	return t, ok
}

// Timeslot is the daily wall-clock range of a session. Start and End
// carry only the time of day (the date part is time.Parse's reference
// date and is ignored by consumers).
type Timeslot struct {
	Start time.Time
	End   time.Time
}

// Session is one meeting pattern of a course. Immutable once built;
// owned by exactly one Course.
type Session struct {
	Section  string // may be empty on continuation rows
	Type     SessionType
	Days     Days
	Timeslot *Timeslot // nil for placeholder rows without a time
	Building string
	Room     string
}

// Course is a single registered offering with its sessions in the
// table's top-to-bottom order. Term dates come from the caller, not
// the document.
type Course struct {
	Code       string
	Title      string
	Instructor string
	Units      int
	ID         uuid.UUID
	Sessions   []Session
	StartDate  time.Time
	EndDate    time.Time
}
