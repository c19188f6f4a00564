package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"webregcal/internal/model"
)

// assembleCourses groups parsed rows into courses. The table lists the
// course-coded row first with continuation rows after it, so the scan
// runs in reverse document order, carrying sessions forward until the
// row that supplies the course-level fields flushes them. A trailing
// block that never reaches a course-coded row is dropped.
func assembleCourses(rows []row, startDate, endDate time.Time) ([]model.Course, error) {
	courses := make([]model.Course, 0)
	pending := make([]model.Session, 0)

	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]

		sess, err := sessionFromRow(r)
		if err != nil {
			return nil, err
		}
		pending = append(pending, sess)

		if r.code == "" {
			continue
		}

		// This row begins a course block in document order; finalize.
		if r.title == "" {
			return nil, errors.New("course has no title")
		}
		if r.instructor == nil {
			return nil, errors.New("course has no instructor")
		}
		if r.units == nil {
			return nil, errors.New("course has no units")
		}

		// pending holds the block's sessions in reverse document
		// order; flip them back.
		sessions := make([]model.Session, len(pending))
		for j, s := range pending {
			sessions[len(pending)-1-j] = s
		}

		courses = append(courses, model.Course{
			Code:       r.code,
			Title:      r.title,
			Instructor: *r.instructor,
			Units:      *r.units,
			ID:         uuid.New(),
			Sessions:   sessions,
			StartDate:  startDate,
			EndDate:    endDate,
		})
		pending = pending[:0]
	}

	// Restore top-to-bottom document order.
	for i, j := 0, len(courses)-1; i < j; i, j = i+1, j-1 {
		courses[i], courses[j] = courses[j], courses[i]
	}

	return courses, nil
}

// sessionFromRow builds a session, requiring type, days, building and
// room. Any of them missing aborts the whole conversion; a partial
// course list is never returned.
func sessionFromRow(r row) (model.Session, error) {
	if r.sessionType == "" {
		return model.Session{}, errors.New("row has no session type")
	}
	if r.days == nil {
		return model.Session{}, errors.New("row has no days")
	}
	if r.building == nil {
		return model.Session{}, errors.New("row has no building")
	}
	if r.room == nil {
		return model.Session{}, errors.New("row has no room")
	}

	return model.Session{
		Section:  r.section,
		Type:     r.sessionType,
		Days:     *r.days,
		Timeslot: r.timeslot,
		Building: *r.building,
		Room:     *r.room,
	}, nil
}
