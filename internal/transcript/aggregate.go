package transcript

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/transcript-api/internal/models"
)

// IsActive reports whether a term counts towards cumulative totals. Only the
// presence of courses matters; the IsPlanned flag is not consulted.
func IsActive(term models.Term) bool {
	return len(term.Courses) > 0
}

// AggregateTerm recomputes every derived field of term and its courses.
//
// A term with courses derives credits, earned credits and points from them and
// keeps its IsPlanned flag as data. A term without courses keeps its authored
// credits as its planned load, zeroes everything else and is marked planned.
func AggregateTerm(term models.Term) models.Term {
	out := term.Clone()
	out.GPAUnits = 0
	if len(out.Courses) == 0 {
		out.Credits = nonNegative(out.Credits)
		out.EarnedCredits = 0
		out.Points = 0
		out.TermGPA = 0
		out.IsPlanned = true
		return out
	}

	credits, earned, points := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range out.Courses {
		c := &out.Courses[i]
		c.Units = nonNegative(c.Units)
		c.EarnedUnits = nonNegative(c.EarnedUnits)
		c.Points = PointsFor(c.Grade, c.EarnedUnits)

		credits = credits.Add(dec(c.Units))
		earned = earned.Add(dec(c.EarnedUnits))
		points = points.Add(dec(c.Points))
	}

	out.Credits = round2(credits)
	out.EarnedCredits = round2(earned)
	out.GPAUnits = out.EarnedCredits
	out.Points = round2(points)
	out.TermGPA = ratio2(points, earned)
	return out
}

// Cumulate rolls already aggregated terms into the cumulative block.
func Cumulate(terms []models.Term) models.Cumulative {
	points, earned, credits, planned := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, term := range terms {
		if !IsActive(term) {
			planned = planned.Add(dec(term.Credits))
			continue
		}
		points = points.Add(dec(term.Points))
		earned = earned.Add(dec(term.EarnedCredits))
		credits = credits.Add(dec(term.Credits))
	}

	gpa := ratio2(points, earned)
	totalEarned := round2(earned)
	return models.Cumulative{
		OverallGPA:          gpa,
		CombinedGPA:         gpa,
		TotalCredits:        round2(credits),
		TotalEarnedCredits:  totalEarned,
		TotalGPAUnits:       totalEarned,
		TotalPoints:         round2(points),
		TotalPlannedCredits: round2(planned),
	}
}

// Aggregate returns a copy of t with terms in chronological order and every
// derived field recomputed. It never modifies t and is idempotent.
func Aggregate(t models.Transcript) models.Transcript {
	out := t.Clone()
	sorted := SortTermsChronologically(out.Terms)
	terms := make([]models.Term, len(sorted))
	for i, term := range sorted {
		terms[i] = AggregateTerm(term)
	}
	out.Terms = terms
	out.Cumulative = Cumulate(terms)
	return out
}

// Discrepancy is a course whose stored points disagree with the value derived
// from its grade and earned units.
type Discrepancy struct {
	TermCode string  `json:"termCode"`
	Code     string  `json:"code"`
	Grade    string  `json:"grade"`
	Stored   float64 `json:"stored"`
	Derived  float64 `json:"derived"`
}

// Discrepancies lists the courses Aggregate would correct.
func Discrepancies(t models.Transcript) []Discrepancy {
	var out []Discrepancy
	for _, term := range t.Terms {
		for _, c := range term.Courses {
			derived := PointsFor(c.Grade, nonNegative(c.EarnedUnits))
			if stored := Round2(c.Points); stored != derived {
				out = append(out, Discrepancy{
					TermCode: term.TermCode,
					Code:     c.Code,
					Grade:    c.Grade,
					Stored:   stored,
					Derived:  derived,
				})
			}
		}
	}
	return out
}

// nonNegative rounds v to two places and clamps NaN, infinities and negative
// values to zero.
func nonNegative(v float64) float64 {
	r := Round2(v)
	if r < 0 {
		return 0
	}
	return r
}
