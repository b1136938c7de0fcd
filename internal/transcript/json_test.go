package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	payload := `{
		"studentInfo": {"degree": " Computer Science BS "},
		"terms": [
			{"term": "sp2024", "courses": [
				{"code": "CSC 215", "name": "INTERMED COMPUTER PROGRAMMING", "units": "4.00", "earnedUnits": 4, "grade": "A", "points": 16},
				{"code": "MATH 101", "name": "CALCULUS I", "units": 3, "earnedUnits": "n/a", "grade": "B", "points": null}
			]},
			{"termCode": "FA2024", "termName": "Fall 2024", "credits": -4, "isPlanned": "true", "courses": null}
		]
	}`

	result, err := DecodeJSON([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "Computer Science BS", result.StudentInfo.Degree)
	require.Len(t, result.Terms, 2)

	spring := result.Terms[0]
	assert.Equal(t, "SP2024", spring.TermCode)
	require.Len(t, spring.Courses, 2)
	assert.Equal(t, 4.0, spring.Courses[0].Units)
	assert.Equal(t, 16.0, spring.Courses[0].Points)
	assert.Zero(t, spring.Courses[1].EarnedUnits)
	assert.Zero(t, spring.Courses[1].Points)

	fall := result.Terms[1]
	assert.Equal(t, "Fall 2024", fall.TermName)
	assert.Zero(t, fall.Credits)
	assert.True(t, fall.IsPlanned)
	assert.Empty(t, fall.Courses)
}

func TestDecodeJSONRejectsMissingTerms(t *testing.T) {
	cases := map[string]error{
		`{"studentInfo": {}}`:              ErrMissingTerms,
		`{"terms": "SP2024"}`:              ErrMissingTerms,
		`{"terms": [1, 2]}`:                ErrMissingTerms,
		`{"terms": [{"courses": "none"}]}`: ErrMissingTerms,
		`[{"terms": []}]`:                  ErrMalformedJSON,
		`{"terms": [`:                      ErrMalformedJSON,
		`not json`:                         ErrMalformedJSON,
	}
	for payload, want := range cases {
		_, err := DecodeJSON([]byte(payload))
		assert.ErrorIs(t, err, want, payload)
	}
}

func TestDecodeJSONEmptyTermsIsValid(t *testing.T) {
	result, err := DecodeJSON([]byte(`{"terms": []}`))
	require.NoError(t, err)
	assert.NotNil(t, result.Terms)
	assert.Empty(t, result.Terms)
}
