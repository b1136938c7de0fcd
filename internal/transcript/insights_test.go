package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectPerformance(t *testing.T) {
	report := SubjectPerformance(Aggregate(sampleTranscript()))

	require.Len(t, report.Subjects, 4)
	assert.Equal(t, SubjectStat{Subject: "CSC", Courses: 2, Units: 7, Points: 25, GPA: 3.57, Percentage: 89.29}, report.Subjects[0])
	assert.Equal(t, "MATH", report.Subjects[1].Subject)
	assert.Equal(t, 82.5, report.Subjects[1].Percentage)
	assert.Equal(t, "HIST", report.Subjects[2].Subject)
	assert.Equal(t, 50.0, report.Subjects[2].Percentage)
	assert.Equal(t, "ART", report.Subjects[3].Subject)
	assert.Zero(t, report.Subjects[3].Percentage)

	require.Len(t, report.Strong, 1)
	assert.Equal(t, "CSC", report.Strong[0].Subject)
	require.Len(t, report.NeedsImprovement, 2)
	assert.Equal(t, "HIST", report.NeedsImprovement[0].Subject)
	assert.Equal(t, "ART", report.NeedsImprovement[1].Subject)
}

func TestGradeDistribution(t *testing.T) {
	counts := GradeDistribution(Aggregate(sampleTranscript()))

	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 1, "D": 0, "F": 0}, counts)
}

func TestTrend(t *testing.T) {
	trend := Trend(Aggregate(sampleTranscript()))

	assert.Equal(t, []TrendPoint{
		{TermCode: "SP2024", TermName: "Spring 2024", TermGPA: 3.57, CumulativeGPA: 3.57},
		{TermCode: "FA2024", TermName: "Fall 2024", TermGPA: 2.65, CumulativeGPA: 3.15},
	}, trend)
}

func TestSummarize(t *testing.T) {
	summary := Summarize(Aggregate(sampleTranscript()))

	assert.Equal(t, Summary{
		OverallGPA:       3.15,
		CurrentTermGPA:   2.65,
		CreditsCompleted: 13,
		CurrentCourses:   0,
		ActiveTerms:      2,
		PlannedTerms:     1,
	}, summary)

	noPlan := sampleTranscript()
	noPlan.Terms = noPlan.Terms[1:]
	summary = Summarize(Aggregate(noPlan))
	assert.Equal(t, 2, summary.CurrentCourses)
	assert.Zero(t, summary.PlannedTerms)
}
