package schedule

import (
	"strconv"
	"strings"
	"time"

	"webregcal/internal/model"
)

// Fixed column positions in the schedule list table.
const (
	colCode = iota
	colTitle
	colSection
	colSessionType
	colInstructor
	_ // grade option, unused
	colUnits
	colDays
	colTimeslot
	colBuilding
	colRoom

	columnCount
)

// row is the per-table-row parse result before grouping into courses.
// Plain text fields use "" for absent; the anchor-wrapped fields
// (instructor, building, room) can resolve to a present-but-empty
// value, so they use nil for absent instead.
type row struct {
	code        string
	title       string
	section     string
	sessionType model.SessionType // "" when the type column is unknown
	instructor  *string
	units       *int
	days        *model.Days
	timeslot    *model.Timeslot
	building    *string
	room        *string
}

// parseRow classifies one table row given its raw cell HTML. Rows that
// are expand-button affordances duplicate content already present as
// real rows and are dropped entirely.
func parseRow(cells []string) (row, bool) {
	for _, c := range cells {
		if strings.Contains(c, "Expand:") {
			return row{}, false
		}
	}

	var r row
	r.code = optionalText(cells[colCode])
	r.title = optionalText(cells[colTitle])
	r.section = optionalText(cells[colSection])
	if t, ok := model.SessionTypeFromCode(cells[colSessionType]); ok {
		r.sessionType = t
	}
	r.instructor = anchorText(cells[colInstructor])
	r.units = parseUnits(cells[colUnits])
	r.days = parseDays(cells[colDays])
	r.timeslot = parseTimeslot(cells[colTimeslot])
	r.building = anchorText(cells[colBuilding])
	r.room = anchorText(cells[colRoom])
	return r, true
}

// optionalText trims, collapses internal runs of spaces and decodes the
// one entity the table actually uses. Empty after trimming means the
// field is absent.
func optionalText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	prev := rune(0)
	for _, c := range s {
		if c == ' ' && prev == ' ' {
			continue
		}
		b.WriteRune(c)
		prev = c
	}
	return strings.ReplaceAll(b.String(), "&amp;", "&")
}

// anchorText reduces an inline HTML anchor to the text between the
// first '>' and the next '<'. A bare "TBA" is not wrapped in a tag and
// passes through unchanged. Other tagless text, like a plain "Staff"
// in the instructor column, is present but carries no usable value, so
// it resolves to a non-nil empty string rather than an absent field.
func anchorText(s string) *string {
	switch s {
	case "":
		return nil
	case "TBA":
		return newString("TBA")
	}
	i := strings.IndexByte(s, '>')
	if i < 0 {
		return newString("")
	}
	s = s[i+1:]
	if j := strings.IndexByte(s, '<'); j >= 0 {
		s = s[:j]
	}
	return &s
}

func newString(s string) *string { return &s }

// parseUnits reads the units column as a decimal and truncates it.
func parseUnits(s string) *int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// parseDays classifies the days column. A '/' means the cell is a
// "Weekday mm/dd/yyyy" date (exams); otherwise the cell is concatenated
// day tokens like "MWF" or "TuTh", recovered by greedy scanning.
// Unmatched leftover characters are dropped. An empty token list is
// still a present weekday set, distinct from a date cell.
func parseDays(s string) *model.Days {
	if strings.Contains(s, "/") {
		_, rest, ok := strings.Cut(s, " ")
		if !ok {
			return nil
		}
		date, err := time.Parse("01/02/2006", rest)
		if err != nil {
			return nil
		}
		d := model.DateDays(date)
		return &d
	}

	var days []model.Day
	cur := ""
	for _, c := range s {
		cur += string(c)
		if d, ok := model.DayFromDisplayCode(cur); ok {
			days = append(days, d)
			cur = ""
		}
	}
	d := model.WeekdayDays(days)
	return &d
}

// parseTimeslot reads a range like "9:00a-9:50a". The source drops the
// trailing "m" of am/pm, so it is appended back before parsing. Any
// failure on either half drops the whole timeslot.
func parseTimeslot(s string) *model.Timeslot {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return nil
	}
	st, err := time.Parse("3:04pm", start+"m")
	if err != nil {
		return nil
	}
	en, err := time.Parse("3:04pm", end+"m")
	if err != nil {
		return nil
	}
	return &model.Timeslot{Start: st, End: en}
}
