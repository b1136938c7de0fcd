package transcript

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/transcript-api/internal/models"
)

// Performance thresholds, as a percentage of a 4.0 GPA.
const (
	StrongThreshold           = 85.0
	NeedsImprovementThreshold = 80.0
)

// SubjectStat is the rollup of one subject prefix.
type SubjectStat struct {
	Subject    string  `json:"subject"`
	Courses    int     `json:"courses"`
	Units      float64 `json:"units"`
	Points     float64 `json:"points"`
	GPA        float64 `json:"gpa"`
	Percentage float64 `json:"percentage"`
}

// SubjectReport ranks subjects by performance.
type SubjectReport struct {
	Subjects         []SubjectStat `json:"subjects"`
	Strong           []SubjectStat `json:"strong"`
	NeedsImprovement []SubjectStat `json:"needsImprovement"`
}

// SubjectPerformance groups the courses of active terms by subject prefix.
// Subjects without attempted units are left out.
func SubjectPerformance(t models.Transcript) SubjectReport {
	type totals struct {
		courses       int
		units, points decimal.Decimal
	}
	bySubject := map[string]*totals{}
	for _, term := range t.Terms {
		if !IsActive(term) {
			continue
		}
		for _, c := range term.Courses {
			subject := subjectKey(c.Subject())
			if subject == "" {
				continue
			}
			acc, ok := bySubject[subject]
			if !ok {
				acc = &totals{units: decimal.Zero, points: decimal.Zero}
				bySubject[subject] = acc
			}
			acc.courses++
			acc.units = acc.units.Add(dec(c.Units))
			acc.points = acc.points.Add(dec(c.Points))
		}
	}

	report := SubjectReport{Subjects: []SubjectStat{}, Strong: []SubjectStat{}, NeedsImprovement: []SubjectStat{}}
	hundred := decimal.NewFromInt(100)
	four := decimal.NewFromInt(4)
	for subject, acc := range bySubject {
		if !acc.units.IsPositive() {
			continue
		}
		gpa := acc.points.Div(acc.units)
		report.Subjects = append(report.Subjects, SubjectStat{
			Subject:    subject,
			Courses:    acc.courses,
			Units:      round2(acc.units),
			Points:     round2(acc.points),
			GPA:        round2(gpa),
			Percentage: round2(gpa.Div(four).Mul(hundred)),
		})
	}
	sort.Slice(report.Subjects, func(i, j int) bool {
		a, b := report.Subjects[i], report.Subjects[j]
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		return a.Subject < b.Subject
	})
	for _, s := range report.Subjects {
		switch {
		case s.Percentage >= StrongThreshold:
			report.Strong = append(report.Strong, s)
		case s.Percentage < NeedsImprovementThreshold:
			report.NeedsImprovement = append(report.NeedsImprovement, s)
		}
	}
	return report
}

// GradeBuckets is the ordered list of letter buckets used by GradeDistribution.
var GradeBuckets = []string{"A", "B", "C", "D", "F"}

// GradeDistribution counts graded courses of active terms by leading letter.
// Grades outside A-F (W, P, ...) are not counted.
func GradeDistribution(t models.Transcript) map[string]int {
	counts := make(map[string]int, len(GradeBuckets))
	for _, b := range GradeBuckets {
		counts[b] = 0
	}
	for _, term := range t.Terms {
		if !IsActive(term) {
			continue
		}
		for _, c := range term.Courses {
			grade := NormalizeGrade(c.Grade)
			if !IsGPAGrade(grade) {
				continue
			}
			counts[grade[:1]]++
		}
	}
	return counts
}

// TrendPoint is one active term on the GPA trend line.
type TrendPoint struct {
	TermCode      string  `json:"termCode"`
	TermName      string  `json:"termName"`
	TermGPA       float64 `json:"termGPA"`
	CumulativeGPA float64 `json:"cumulativeGPA"`
}

// Trend returns term and running cumulative GPA for each active term in
// chronological order.
func Trend(t models.Transcript) []TrendPoint {
	points, earned := decimal.Zero, decimal.Zero
	trend := []TrendPoint{}
	for _, term := range SortTermsChronologically(t.Terms) {
		if !IsActive(term) {
			continue
		}
		points = points.Add(dec(term.Points))
		earned = earned.Add(dec(term.EarnedCredits))
		trend = append(trend, TrendPoint{
			TermCode:      term.TermCode,
			TermName:      term.TermName,
			TermGPA:       term.TermGPA,
			CumulativeGPA: ratio2(points, earned),
		})
	}
	return trend
}

// Summary holds the headline dashboard numbers.
type Summary struct {
	OverallGPA       float64 `json:"overallGPA"`
	CurrentTermGPA   float64 `json:"currentTermGPA"`
	CreditsCompleted float64 `json:"creditsCompleted"`
	CurrentCourses   int     `json:"currentCourses"`
	ActiveTerms      int     `json:"activeTerms"`
	PlannedTerms     int     `json:"plannedTerms"`
}

// Summarize computes the headline numbers of an aggregated transcript. The
// current course count comes from the first term flagged as planned, or else
// from the latest active term.
func Summarize(t models.Transcript) Summary {
	s := Summary{
		OverallGPA:       t.Cumulative.OverallGPA,
		CreditsCompleted: t.Cumulative.TotalEarnedCredits,
	}
	var latest *models.Term
	var planned *models.Term
	for i, term := range t.Terms {
		if IsActive(term) {
			s.ActiveTerms++
			latest = &t.Terms[i]
		} else {
			s.PlannedTerms++
		}
		if planned == nil && term.IsPlanned {
			planned = &t.Terms[i]
		}
	}
	if latest != nil {
		s.CurrentTermGPA = latest.TermGPA
	}
	switch {
	case planned != nil:
		s.CurrentCourses = len(planned.Courses)
	case latest != nil:
		s.CurrentCourses = len(latest.Courses)
	}
	return s
}

// subjectKey normalises a subject prefix for lookups.
func subjectKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
