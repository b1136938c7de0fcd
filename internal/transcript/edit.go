package transcript

import (
	"errors"
	"strings"

	"github.com/noah-isme/transcript-api/internal/models"
)

var (
	// ErrTermNotFound is returned when an edit names a term the transcript lacks.
	ErrTermNotFound = errors.New("term not found")
	// ErrCourseNotFound is returned for a course index outside the term.
	ErrCourseNotFound = errors.New("course not found")
	// ErrDuplicateTerm is returned when adding a term whose code already exists.
	ErrDuplicateTerm = errors.New("term already exists")
	// ErrInvalidTermCode is returned when adding a term with an empty code.
	ErrInvalidTermCode = errors.New("term code is required")
)

// Every edit returns a new transcript, sorted and re-aggregated. The input is
// never modified.

// AddTerm appends term. Its name is derived from the code when empty.
func AddTerm(t models.Transcript, term models.Term) (models.Transcript, error) {
	code := normalizeTermCode(term.TermCode)
	if code == "" {
		return models.Transcript{}, ErrInvalidTermCode
	}
	if termIndex(t, code) >= 0 {
		return models.Transcript{}, ErrDuplicateTerm
	}
	added := term.Clone()
	added.TermCode = code
	if strings.TrimSpace(added.TermName) == "" {
		added.TermName = TermName(code)
	}

	out := t.Clone()
	out.Terms = append(out.Terms, added)
	return Aggregate(out), nil
}

// RemoveTerm deletes the term with the given code.
func RemoveTerm(t models.Transcript, termCode string) (models.Transcript, error) {
	idx := termIndex(t, termCode)
	if idx < 0 {
		return models.Transcript{}, ErrTermNotFound
	}
	out := t.Clone()
	out.Terms = append(out.Terms[:idx], out.Terms[idx+1:]...)
	return Aggregate(out), nil
}

// AddCourse appends course to the term with the given code.
func AddCourse(t models.Transcript, termCode string, course models.Course) (models.Transcript, error) {
	idx := termIndex(t, termCode)
	if idx < 0 {
		return models.Transcript{}, ErrTermNotFound
	}
	out := t.Clone()
	out.Terms[idx].Courses = append(out.Terms[idx].Courses, course)
	return Aggregate(out), nil
}

// UpdateCourse replaces the course at index within the term.
func UpdateCourse(t models.Transcript, termCode string, index int, course models.Course) (models.Transcript, error) {
	idx := termIndex(t, termCode)
	if idx < 0 {
		return models.Transcript{}, ErrTermNotFound
	}
	if index < 0 || index >= len(t.Terms[idx].Courses) {
		return models.Transcript{}, ErrCourseNotFound
	}
	out := t.Clone()
	out.Terms[idx].Courses[index] = course
	return Aggregate(out), nil
}

// RemoveCourse deletes the course at index within the term. A term left
// without courses becomes planned with no planned credits.
func RemoveCourse(t models.Transcript, termCode string, index int) (models.Transcript, error) {
	idx := termIndex(t, termCode)
	if idx < 0 {
		return models.Transcript{}, ErrTermNotFound
	}
	if index < 0 || index >= len(t.Terms[idx].Courses) {
		return models.Transcript{}, ErrCourseNotFound
	}
	out := t.Clone()
	courses := out.Terms[idx].Courses
	out.Terms[idx].Courses = append(courses[:index], courses[index+1:]...)
	if len(out.Terms[idx].Courses) == 0 {
		out.Terms[idx].Credits = 0
	}
	return Aggregate(out), nil
}

func termIndex(t models.Transcript, termCode string) int {
	code := normalizeTermCode(termCode)
	for i, term := range t.Terms {
		if normalizeTermCode(term.TermCode) == code {
			return i
		}
	}
	return -1
}

func normalizeTermCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
