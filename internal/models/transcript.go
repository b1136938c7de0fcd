package models

import "time"

// Course is one completed, in-progress or planned course within a term.
type Course struct {
	ID          string  `db:"id" json:"id,omitempty"`
	TermID      string  `db:"term_id" json:"-"`
	Position    int     `db:"position" json:"-"`
	Code        string  `db:"code" json:"code" validate:"required"`
	Name        string  `db:"name" json:"name"`
	Units       float64 `db:"units" json:"units" validate:"gte=0"`
	EarnedUnits float64 `db:"earned_units" json:"earnedUnits" validate:"gte=0"`
	Grade       string  `db:"grade" json:"grade"`
	Points      float64 `db:"points" json:"points"`
}

// Subject returns the subject prefix of the course code ("CSC 215" -> "CSC").
func (c Course) Subject() string {
	for i, r := range c.Code {
		if r == ' ' || r == '\t' {
			return c.Code[:i]
		}
	}
	return c.Code
}

// Term is one academic session. Aggregate fields are a cache recomputed by the
// aggregation engine and are never authored directly, except Credits on a term
// without courses, which carries its planned load.
type Term struct {
	ID            string   `db:"id" json:"id,omitempty"`
	TranscriptID  string   `db:"transcript_id" json:"-"`
	Position      int      `db:"position" json:"-"`
	TermCode      string   `db:"term_code" json:"termCode" validate:"required"`
	TermName      string   `db:"term_name" json:"termName"`
	TermGPA       float64  `db:"term_gpa" json:"termGPA"`
	Credits       float64  `db:"credits" json:"credits" validate:"gte=0"`
	EarnedCredits float64  `db:"earned_credits" json:"earnedCredits"`
	GPAUnits      float64  `db:"-" json:"gpaUnits"`
	Points        float64  `db:"points" json:"points"`
	IsPlanned     bool     `db:"is_planned" json:"isPlanned"`
	Courses       []Course `db:"-" json:"courses" validate:"dive"`
}

// StudentInfo carries the free-text student descriptors kept with a transcript.
type StudentInfo struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution,omitempty"`
}

// Cumulative is the derived aggregate block of a transcript. CombinedGPA and
// TotalGPAUnits mirror OverallGPA and TotalEarnedCredits for older consumers.
type Cumulative struct {
	OverallGPA          float64 `json:"overallGPA"`
	CombinedGPA         float64 `json:"combinedGPA"`
	TotalCredits        float64 `json:"totalCredits"`
	TotalEarnedCredits  float64 `json:"totalEarnedCredits"`
	TotalGPAUnits       float64 `json:"totalGPAUnits"`
	TotalPoints         float64 `json:"totalPoints"`
	TotalPlannedCredits float64 `json:"totalPlannedCredits"`
}

// Transcript is the complete structured record of a student's academic history.
type Transcript struct {
	ID          string      `json:"id,omitempty"`
	UserID      string      `json:"userId,omitempty"`
	StudentInfo StudentInfo `json:"studentInfo"`
	Terms       []Term      `json:"terms" validate:"dive"`
	Cumulative  Cumulative  `json:"cumulative"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty"`
}

// TranscriptRecord is the persisted header row of a transcript.
type TranscriptRecord struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Degree      string    `db:"degree"`
	Institution string    `db:"institution"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Clone returns a deep copy so callers can derive new transcripts without
// touching the original.
func (t Transcript) Clone() Transcript {
	out := t
	if t.UpdatedAt != nil {
		ts := *t.UpdatedAt
		out.UpdatedAt = &ts
	}
	if t.Terms == nil {
		return out
	}
	out.Terms = make([]Term, len(t.Terms))
	for i, term := range t.Terms {
		out.Terms[i] = term.Clone()
	}
	return out
}

// Clone returns a deep copy of the term and its courses.
func (t Term) Clone() Term {
	out := t
	if t.Courses != nil {
		out.Courses = append([]Course(nil), t.Courses...)
	}
	return out
}
