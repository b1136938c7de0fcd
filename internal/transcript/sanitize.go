package transcript

import (
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/transcript-api/internal/models"
)

// Column widths of the transcript tables.
const (
	MaxDegreeLength      = 255
	MaxInstitutionLength = 255
	MaxCourseNameLength  = 255
	MaxCourseCodeLength  = 50
	MaxTermNameLength    = 255
	MaxTermCodeLength    = 50
	MaxGradeLength       = 10
)

// Truncate trims s and cuts it to at most max runes.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}

// Sanitize returns a copy of t whose text fields fit the storage columns and
// whose numbers are finite and non-negative. Empty term names are derived from
// the term code.
func Sanitize(t models.Transcript) models.Transcript {
	out := t.Clone()
	out.StudentInfo.Degree = Truncate(out.StudentInfo.Degree, MaxDegreeLength)
	out.StudentInfo.Institution = Truncate(out.StudentInfo.Institution, MaxInstitutionLength)

	for i := range out.Terms {
		term := &out.Terms[i]
		term.TermCode = Truncate(strings.ToUpper(term.TermCode), MaxTermCodeLength)
		term.TermName = Truncate(term.TermName, MaxTermNameLength)
		if term.TermName == "" {
			term.TermName = Truncate(TermName(term.TermCode), MaxTermNameLength)
		}
		term.Credits = nonNegative(term.Credits)
		term.EarnedCredits = nonNegative(term.EarnedCredits)
		term.Points = nonNegative(term.Points)
		term.TermGPA = nonNegative(term.TermGPA)

		for j := range term.Courses {
			c := &term.Courses[j]
			c.Code = Truncate(collapseSpaces(c.Code), MaxCourseCodeLength)
			c.Name = Truncate(c.Name, MaxCourseNameLength)
			c.Grade = Truncate(NormalizeGrade(c.Grade), MaxGradeLength)
			c.Units = nonNegative(c.Units)
			c.EarnedUnits = nonNegative(c.EarnedUnits)
			c.Points = nonNegative(c.Points)
		}
	}
	return out
}

// StripIdentifiers clears storage-assigned identifiers so the storage layer can
// assign its own.
func StripIdentifiers(t models.Transcript) models.Transcript {
	out := t.Clone()
	out.ID = ""
	out.UpdatedAt = nil
	for i := range out.Terms {
		term := &out.Terms[i]
		term.ID = ""
		term.TranscriptID = ""
		term.Position = 0
		for j := range term.Courses {
			term.Courses[j].ID = ""
			term.Courses[j].TermID = ""
			term.Courses[j].Position = 0
		}
	}
	return out
}
