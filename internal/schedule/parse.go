package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	appLog "webregcal/internal/log"
	"webregcal/internal/model"
)

// tableSelector matches the body rows of the schedule list table.
const tableSelector = "#list-id-table > tbody > tr"

// ParseDocument converts a saved schedule page into courses. The term
// start and end dates are supplied by the caller; the document itself
// never carries them. The result is either the complete course list or
// a single error naming the first required field that was missing.
func ParseDocument(html string, startDate, endDate time.Time) ([]model.Course, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rows := make([]row, 0)
	skipped := 0
	doc.Find(tableSelector).Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			// Header row.
			return
		}
		cells := make([]string, 0, columnCount)
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			inner, herr := td.Html()
			if herr != nil {
				inner = ""
			}
			cells = append(cells, inner)
		})
		if len(cells) < columnCount {
			skipped++
			return
		}
		if r, ok := parseRow(cells); ok {
			rows = append(rows, r)
		}
	})
	if skipped > 0 {
		appLog.Debug("skipped rows with too few cells", "count", skipped)
	}

	courses, err := assembleCourses(rows, startDate, endDate)
	if err != nil {
		return nil, err
	}

	appLog.Info("parsed schedule document",
		"rows", len(rows),
		"courses", len(courses),
	)
	return courses, nil
}
