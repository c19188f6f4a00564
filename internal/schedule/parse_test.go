package schedule

import (
	"strings"
	"testing"
	"time"

	"webregcal/internal/model"
)

var (
	termStart = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	termEnd   = time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
)

const headerRow = `<tr><th>Subject Course</th><th>Title</th><th>Section</th><th>Type</th><th>Instructor</th><th>Grade Option</th><th>Units</th><th>Days</th><th>Time</th><th>BLDG</th><th>Room</th></tr>`

func tr(cells ...string) string {
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString("<td>")
		b.WriteString(c)
		b.WriteString("</td>")
	}
	b.WriteString("</tr>")
	return b.String()
}

func tableDoc(rows ...string) string {
	return `<html><body><table id="list-id-table"><tbody>` +
		headerRow + strings.Join(rows, "") +
		`</tbody></table></body></html>`
}

// cse101 is a three-session course block: the course-coded lecture row
// followed by two continuation rows (discussion and final).
func cse101Rows() []string {
	return []string{
		tr("CSE 101", "Design &amp; Analysis of Algo", "A00", "LE",
			`<a href="mailto:x">Jones, Sam</a>`, "L", "4.00",
			"MWF", "9:00a-9:50a",
			`<a href="/map">CENTR</a>`, `<a href="/map">119</a>`),
		tr("", "", "A01", "DI", "", "", "",
			"W", "5:00p-5:50p",
			`<a href="/map">CENTR</a>`, `<a href="/map">222</a>`),
		tr("", "", "", "FI", "", "", "",
			"Sat 03/16/2024", "8:00a-10:59a",
			`<a href="/map">CENTR</a>`, `<a href="/map">119</a>`),
	}
}

func math20cRows() []string {
	return []string{
		tr("MATH 20C", "Calculus III", "B00", "LE",
			`<a href="mailto:y">Lee, Pat</a>`, "L", "4.00",
			"TuTh", "11:00a-12:20p",
			`<a href="/map">YORK</a>`, `<a href="/map">2622</a>`),
	}
}

func TestParseDocumentGroupsCourses(t *testing.T) {
	doc := tableDoc(append(cse101Rows(), math20cRows()...)...)

	courses, err := ParseDocument(doc, termStart, termEnd)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(courses))
	}

	cse := courses[0]
	if cse.Code != "CSE 101" {
		t.Errorf("course 0 code = %q", cse.Code)
	}
	if cse.Title != "Design & Analysis of Algo" {
		t.Errorf("title = %q", cse.Title)
	}
	if cse.Instructor != "Jones, Sam" {
		t.Errorf("instructor = %q", cse.Instructor)
	}
	if cse.Units != 4 {
		t.Errorf("units = %d", cse.Units)
	}
	if len(cse.Sessions) != 3 {
		t.Fatalf("cse sessions = %d, want 3", len(cse.Sessions))
	}
	// Sessions keep document order within the course.
	if cse.Sessions[0].Type != model.Lecture ||
		cse.Sessions[1].Type != model.Discussion ||
		cse.Sessions[2].Type != model.Final {
		t.Errorf("session order = %v %v %v",
			cse.Sessions[0].Type, cse.Sessions[1].Type, cse.Sessions[2].Type)
	}
	if cse.Sessions[1].Section != "A01" {
		t.Errorf("discussion section = %q", cse.Sessions[1].Section)
	}
	if _, ok := cse.Sessions[2].Days.Date(); !ok {
		t.Error("final should carry an explicit date")
	}
	if !cse.StartDate.Equal(termStart) || !cse.EndDate.Equal(termEnd) {
		t.Errorf("term dates = %v..%v", cse.StartDate, cse.EndDate)
	}

	math := courses[1]
	if math.Code != "MATH 20C" || len(math.Sessions) != 1 {
		t.Errorf("course 1 = %q with %d sessions", math.Code, len(math.Sessions))
	}

	if cse.ID == math.ID {
		t.Error("courses share an ID")
	}
}

func TestParseDocumentCourseCountMatchesCodedRows(t *testing.T) {
	doc := tableDoc(append(append(math20cRows(), cse101Rows()...), math20cRows()...)...)
	courses, err := ParseDocument(doc, termStart, termEnd)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	// Three rows carry a course code.
	if len(courses) != 3 {
		t.Errorf("got %d courses, want 3", len(courses))
	}
}

func TestParseDocumentExpandRowIgnored(t *testing.T) {
	expandRow := tr("", "Expand: additional meetings", "", "", "", "", "", "", "", "", "")
	rows := cse101Rows()
	withExpand := []string{rows[0], rows[1], expandRow, rows[2]}

	courses, err := ParseDocument(tableDoc(withExpand...), termStart, termEnd)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(courses) != 1 || len(courses[0].Sessions) != 3 {
		t.Errorf("expand row leaked into output: %d courses", len(courses))
	}
}

func TestParseDocumentShortRowSkipped(t *testing.T) {
	shortRow := "<tr><td>notice</td><td>colspan filler</td></tr>"
	rows := append(cse101Rows(), shortRow)

	courses, err := ParseDocument(tableDoc(rows...), termStart, termEnd)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(courses) != 1 {
		t.Errorf("got %d courses, want 1", len(courses))
	}
}

func TestParseDocumentMissingUnitsFailsWhole(t *testing.T) {
	bad := tr("CSE 101", "Algorithms", "A00", "LE",
		`<a href="mailto:x">Jones, Sam</a>`, "L", "",
		"MWF", "9:00a-9:50a",
		`<a href="/map">CENTR</a>`, `<a href="/map">119</a>`)
	doc := tableDoc(bad, math20cRows()[0])

	courses, err := ParseDocument(doc, termStart, termEnd)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "units") {
		t.Errorf("error = %v, want a units-specific message", err)
	}
	if courses != nil {
		t.Errorf("partial course list returned: %v", courses)
	}
}

func TestParseDocumentMissingSessionFields(t *testing.T) {
	base := func() []string {
		return []string{
			"CSE 101", "Algorithms", "A00", "LE",
			`<a href="mailto:x">Jones, Sam</a>`, "L", "4.00",
			"MWF", "9:00a-9:50a",
			`<a href="/map">CENTR</a>`, `<a href="/map">119</a>`,
		}
	}

	cases := []struct {
		col  int
		val  string
		want string
	}{
		{colSessionType, "XX", "session type"},
		{colDays, "01/08/2024", "days"},
		{colBuilding, "", "building"},
		{colRoom, "", "room"},
	}
	for _, c := range cases {
		cells := base()
		cells[c.col] = c.val
		_, err := ParseDocument(tableDoc(tr(cells...)), termStart, termEnd)
		if err == nil {
			t.Errorf("col %d: expected an error", c.col)
			continue
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("col %d: error = %v, want mention of %q", c.col, err, c.want)
		}
	}
}

func TestParseDocumentTaglessAnchorCells(t *testing.T) {
	// WebReg sometimes prints plain filler text where an anchor would
	// be, "Staff" for an unassigned instructor being the common case.
	// The cell is present, just valueless; the document still converts.
	rows := []string{
		tr("CSE 101", "Algorithms", "A00", "LE",
			"Staff", "L", "4.00",
			"MWF", "9:00a-9:50a",
			"PETER", `<a href="/map">110</a>`),
	}

	courses, err := ParseDocument(tableDoc(rows...), termStart, termEnd)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("got %d courses, want 1", len(courses))
	}
	if courses[0].Instructor != "" {
		t.Errorf("instructor = %q, want empty", courses[0].Instructor)
	}
	if len(courses[0].Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(courses[0].Sessions))
	}
	if courses[0].Sessions[0].Building != "" {
		t.Errorf("building = %q, want empty", courses[0].Sessions[0].Building)
	}
	if courses[0].Sessions[0].Room != "110" {
		t.Errorf("room = %q", courses[0].Sessions[0].Room)
	}
}

func TestParseDocumentTrailingPartialBlockDropped(t *testing.T) {
	// A continuation row with no course-coded row before it can never
	// be attached to a course; it is dropped, not an error.
	orphan := tr("", "", "A01", "DI", "", "", "",
		"W", "5:00p-5:50p",
		`<a href="/map">CENTR</a>`, `<a href="/map">222</a>`)
	doc := tableDoc(append([]string{orphan}, math20cRows()...)...)

	courses, err := ParseDocument(doc, termStart, termEnd)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("got %d courses, want 1", len(courses))
	}
	if len(courses[0].Sessions) != 1 {
		t.Errorf("orphan session attached to %q", courses[0].Code)
	}
}

func TestParseDocumentNoTable(t *testing.T) {
	courses, err := ParseDocument("<html><body><p>nope</p></body></html>", termStart, termEnd)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(courses) != 0 {
		t.Errorf("got %d courses from an empty document", len(courses))
	}
}
