package transcript

import (
	"strings"

	"github.com/shopspring/decimal"
)

// gradePoints is the fixed 4.0 scale. Tokens absent from the table (W, I, P,
// NP, CR, ...) carry no grade points and do not affect GPA.
var gradePoints = map[string]float64{
	"A+": 4.0, "A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0, "C-": 1.7,
	"D+": 1.3, "D": 1.0, "D-": 0.7,
	"F": 0.0,
}

// NormalizeGrade trims and upper-cases a grade token.
func NormalizeGrade(grade string) string {
	return strings.ToUpper(strings.TrimSpace(grade))
}

// GradeValue returns the grade-point value of a letter grade and whether the
// grade is on the GPA scale at all.
func GradeValue(grade string) (float64, bool) {
	v, ok := gradePoints[NormalizeGrade(grade)]
	return v, ok
}

// IsGPAGrade reports whether grade participates in GPA arithmetic.
func IsGPAGrade(grade string) bool {
	_, ok := GradeValue(grade)
	return ok
}

// PointsFor returns round(gradeValue(grade) * earnedUnits, 2). Non-GPA grades
// and courses without earned units contribute nothing.
func PointsFor(grade string, earnedUnits float64) float64 {
	v, ok := GradeValue(grade)
	if !ok || !(earnedUnits > 0) {
		return 0
	}
	return round2(decimal.NewFromFloat(v).Mul(dec(earnedUnits)))
}
