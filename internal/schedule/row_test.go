package schedule

import (
	"testing"
	"time"

	"webregcal/internal/model"
)

func TestOptionalText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"  CSE 101  ", "CSE 101"},
		{"Intro   to    Algorithms", "Intro to Algorithms"},
		{"Ethics &amp; Society", "Ethics & Society"},
	}
	for _, c := range cases {
		if got := optionalText(c.in); got != c.want {
			t.Errorf("optionalText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAnchorText(t *testing.T) {
	cases := []struct {
		in      string
		present bool
		want    string
	}{
		{"", false, ""},
		{"TBA", true, "TBA"},
		{`<a href="x">Smith, Jane</a>`, true, "Smith, Jane"},
		{`<a href="/map?b=CENTR">CENTR</a>`, true, "CENTR"},
		// Tagless filler text is present but has no usable value.
		{"Staff", true, ""},
	}
	for _, c := range cases {
		got := anchorText(c.in)
		if (got != nil) != c.present {
			t.Errorf("anchorText(%q) present = %v, want %v", c.in, got != nil, c.present)
			continue
		}
		if got != nil && *got != c.want {
			t.Errorf("anchorText(%q) = %q, want %q", c.in, *got, c.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	if got := parseUnits(" 4.00 "); got == nil || *got != 4 {
		t.Errorf("parseUnits(4.00) = %v", got)
	}
	// Truncation, not rounding.
	if got := parseUnits("2.50"); got == nil || *got != 2 {
		t.Errorf("parseUnits(2.50) = %v", got)
	}
	if got := parseUnits("abc"); got != nil {
		t.Errorf("parseUnits(abc) = %v, want nil", got)
	}
	if got := parseUnits(""); got != nil {
		t.Errorf("parseUnits(\"\") = %v, want nil", got)
	}
}

func TestParseDaysWeekdaySets(t *testing.T) {
	cases := []struct {
		in   string
		want []model.Day
	}{
		{"MWF", []model.Day{model.Monday, model.Wednesday, model.Friday}},
		{"TuTh", []model.Day{model.Tuesday, model.Thursday}},
		{"MTuWThF", []model.Day{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday}},
		{"SaSu", []model.Day{model.Saturday, model.Sunday}},
		// Unrecognized leftovers are dropped silently.
		{"MWFX", []model.Day{model.Monday, model.Wednesday, model.Friday}},
		{"", nil},
	}
	for _, c := range cases {
		d := parseDays(c.in)
		if d == nil {
			t.Fatalf("parseDays(%q) = nil", c.in)
		}
		days, ok := d.Weekdays()
		if !ok {
			t.Fatalf("parseDays(%q) is not a weekday set", c.in)
		}
		if len(days) != len(c.want) {
			t.Fatalf("parseDays(%q) = %v, want %v", c.in, days, c.want)
		}
		for i := range days {
			if days[i] != c.want[i] {
				t.Errorf("parseDays(%q)[%d] = %v, want %v", c.in, i, days[i], c.want[i])
			}
		}
	}
}

func TestParseDaysExplicitDate(t *testing.T) {
	d := parseDays("Mon 01/08/2024")
	if d == nil {
		t.Fatal("parseDays returned nil")
	}
	date, ok := d.Date()
	if !ok {
		t.Fatal("expected the date arm")
	}
	want := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("date = %v, want %v", date, want)
	}

	// A slash without the weekday prefix cannot be split; absent.
	if parseDays("01/08/2024") != nil {
		t.Error("parseDays(01/08/2024) should be absent")
	}
	// Unparseable remainder; absent.
	if parseDays("Mon tomorrow/ish") != nil {
		t.Error("parseDays(Mon tomorrow/ish) should be absent")
	}
}

func TestParseTimeslot(t *testing.T) {
	ts := parseTimeslot("9:00a-9:50a")
	if ts == nil {
		t.Fatal("parseTimeslot returned nil")
	}
	if ts.Start.Hour() != 9 || ts.Start.Minute() != 0 {
		t.Errorf("start = %v", ts.Start)
	}
	if ts.End.Hour() != 9 || ts.End.Minute() != 50 {
		t.Errorf("end = %v", ts.End)
	}

	pm := parseTimeslot("1:00p-2:20p")
	if pm == nil {
		t.Fatal("parseTimeslot(pm) returned nil")
	}
	if pm.Start.Hour() != 13 || pm.End.Hour() != 14 {
		t.Errorf("pm slot = %v-%v", pm.Start, pm.End)
	}

	// No partial timeslots: one bad half drops the whole value.
	for _, in := range []string{"", "TBA", "9:00a", "9:00a-later", "x-9:50a"} {
		if got := parseTimeslot(in); got != nil {
			t.Errorf("parseTimeslot(%q) = %v, want nil", in, got)
		}
	}
}

func TestParseRowExpandMarker(t *testing.T) {
	cells := make([]string, columnCount)
	cells[colTitle] = "Expand: show all sections"
	if _, ok := parseRow(cells); ok {
		t.Error("expand-marker row should be discarded")
	}
}

func TestParseRowFields(t *testing.T) {
	cells := make([]string, columnCount)
	cells[colCode] = " CSE 101 "
	cells[colTitle] = "Design &amp; Analysis of Algorithms"
	cells[colSection] = "A00"
	cells[colSessionType] = "LE"
	cells[colInstructor] = `<a href="mailto:x">Jones, Sam</a>`
	cells[colUnits] = "4.00"
	cells[colDays] = "MWF"
	cells[colTimeslot] = "9:00a-9:50a"
	cells[colBuilding] = `<a href="/map">CENTR</a>`
	cells[colRoom] = `<a href="/map">119</a>`

	r, ok := parseRow(cells)
	if !ok {
		t.Fatal("parseRow rejected a valid row")
	}
	if r.code != "CSE 101" {
		t.Errorf("code = %q", r.code)
	}
	if r.title != "Design & Analysis of Algorithms" {
		t.Errorf("title = %q", r.title)
	}
	if r.sessionType != model.Lecture {
		t.Errorf("sessionType = %q", r.sessionType)
	}
	if r.instructor == nil || *r.instructor != "Jones, Sam" {
		t.Errorf("instructor = %v", r.instructor)
	}
	if r.units == nil || *r.units != 4 {
		t.Errorf("units = %v", r.units)
	}
	if r.days == nil {
		t.Fatal("days absent")
	}
	if r.timeslot == nil {
		t.Fatal("timeslot absent")
	}
	if r.building == nil || *r.building != "CENTR" || r.room == nil || *r.room != "119" {
		t.Errorf("location = %v %v", r.building, r.room)
	}
}
