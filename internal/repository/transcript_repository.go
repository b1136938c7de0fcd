package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/transcript-api/internal/models"
)

// QueryObserver receives the duration of each repository operation.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS transcripts (
	id VARCHAR(36) PRIMARY KEY,
	user_id VARCHAR(255) NOT NULL UNIQUE,
	degree VARCHAR(255) NOT NULL DEFAULT '',
	institution VARCHAR(255) NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS terms (
	id VARCHAR(36) PRIMARY KEY,
	transcript_id VARCHAR(36) NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	term_code VARCHAR(50) NOT NULL,
	term_name VARCHAR(255) NOT NULL,
	term_gpa DOUBLE PRECISION NOT NULL DEFAULT 0,
	credits DOUBLE PRECISION NOT NULL DEFAULT 0,
	earned_credits DOUBLE PRECISION NOT NULL DEFAULT 0,
	points DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_planned BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE TABLE IF NOT EXISTS courses (
	id VARCHAR(36) PRIMARY KEY,
	term_id VARCHAR(36) NOT NULL REFERENCES terms(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	code VARCHAR(50) NOT NULL,
	name VARCHAR(255) NOT NULL,
	units DOUBLE PRECISION NOT NULL DEFAULT 0,
	earned_units DOUBLE PRECISION NOT NULL DEFAULT 0,
	grade VARCHAR(10) NOT NULL DEFAULT '',
	points DOUBLE PRECISION NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_terms_transcript ON terms (transcript_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_term ON courses (term_id, position)`,
}

const (
	selectTranscriptByUser = `SELECT id, user_id, degree, institution, updated_at FROM transcripts WHERE user_id = ?`
	selectTerms            = `SELECT id, transcript_id, position, term_code, term_name, term_gpa, credits, earned_credits, points, is_planned FROM terms WHERE transcript_id = ? ORDER BY position`
	selectCourses          = `SELECT c.id, c.term_id, c.position, c.code, c.name, c.units, c.earned_units, c.grade, c.points FROM courses c JOIN terms t ON t.id = c.term_id WHERE t.transcript_id = ? ORDER BY t.position, c.position`
	insertTranscript       = `INSERT INTO transcripts (id, user_id, degree, institution, updated_at) VALUES (?, ?, ?, ?, ?)`
	updateTranscript       = `UPDATE transcripts SET degree = ?, institution = ?, updated_at = ? WHERE id = ?`
	deleteCourses          = `DELETE FROM courses WHERE term_id IN (SELECT id FROM terms WHERE transcript_id = ?)`
	deleteTerms            = `DELETE FROM terms WHERE transcript_id = ?`
	insertTerm             = `INSERT INTO terms (id, transcript_id, position, term_code, term_name, term_gpa, credits, earned_credits, points, is_planned) VALUES (:id, :transcript_id, :position, :term_code, :term_name, :term_gpa, :credits, :earned_credits, :points, :is_planned)`
	insertCourse           = `INSERT INTO courses (id, term_id, position, code, name, units, earned_units, grade, points) VALUES (:id, :term_id, :position, :code, :name, :units, :earned_units, :grade, :points)`
)

// TranscriptRepository persists one transcript per user across the
// transcripts, terms and courses tables. Queries are written with ? and
// rebound for the connected driver.
type TranscriptRepository struct {
	db       *sqlx.DB
	observer QueryObserver
	now      func() time.Time
}

// NewTranscriptRepository instantiates a transcript repository. observer may
// be nil.
func NewTranscriptRepository(db *sqlx.DB, observer QueryObserver) *TranscriptRepository {
	return &TranscriptRepository{db: db, observer: observer, now: time.Now}
}

// EnsureSchema creates the tables when they do not exist.
func (r *TranscriptRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure transcript schema: %w", err)
		}
	}
	return nil
}

// FindByUserID loads the transcript of userID with terms and courses in
// stored order. It returns nil, nil when the user has none.
func (r *TranscriptRepository) FindByUserID(ctx context.Context, userID string) (*models.Transcript, error) {
	defer r.observe("transcript_find", time.Now())

	var record models.TranscriptRecord
	if err := r.db.GetContext(ctx, &record, r.db.Rebind(selectTranscriptByUser), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find transcript: %w", err)
	}

	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, r.db.Rebind(selectTerms), record.ID); err != nil {
		return nil, fmt.Errorf("list transcript terms: %w", err)
	}
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, r.db.Rebind(selectCourses), record.ID); err != nil {
		return nil, fmt.Errorf("list transcript courses: %w", err)
	}

	byTerm := make(map[string][]models.Course, len(terms))
	for _, c := range courses {
		byTerm[c.TermID] = append(byTerm[c.TermID], c)
	}
	for i := range terms {
		terms[i].Courses = byTerm[terms[i].ID]
		if terms[i].Courses == nil {
			terms[i].Courses = []models.Course{}
		}
	}
	if terms == nil {
		terms = []models.Term{}
	}

	updatedAt := record.UpdatedAt.UTC()
	return &models.Transcript{
		ID:     record.ID,
		UserID: record.UserID,
		StudentInfo: models.StudentInfo{
			Degree:      record.Degree,
			Institution: record.Institution,
		},
		Terms:     terms,
		UpdatedAt: &updatedAt,
	}, nil
}

// Save replaces the stored transcript of t.UserID in one transaction. Terms
// are stored with their slice index as position. Identifiers and UpdatedAt
// are assigned on t.
func (r *TranscriptRepository) Save(ctx context.Context, t *models.Transcript) (err error) {
	if t == nil || t.UserID == "" {
		return fmt.Errorf("save transcript: user id required")
	}
	defer r.observe("transcript_save", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transcript: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := r.now().UTC()
	var existingID string
	err = tx.GetContext(ctx, &existingID, tx.Rebind(`SELECT id FROM transcripts WHERE user_id = ?`), t.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existingID = uuid.NewString()
		if _, err = tx.ExecContext(ctx, tx.Rebind(insertTranscript), existingID, t.UserID, t.StudentInfo.Degree, t.StudentInfo.Institution, now); err != nil {
			return fmt.Errorf("insert transcript: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup transcript: %w", err)
	default:
		if _, err = tx.ExecContext(ctx, tx.Rebind(updateTranscript), t.StudentInfo.Degree, t.StudentInfo.Institution, now, existingID); err != nil {
			return fmt.Errorf("update transcript: %w", err)
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(deleteCourses), existingID); err != nil {
			return fmt.Errorf("clear transcript courses: %w", err)
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(deleteTerms), existingID); err != nil {
			return fmt.Errorf("clear transcript terms: %w", err)
		}
	}

	for i := range t.Terms {
		term := &t.Terms[i]
		term.ID = uuid.NewString()
		term.TranscriptID = existingID
		term.Position = i
		if _, err = tx.NamedExecContext(ctx, insertTerm, term); err != nil {
			return fmt.Errorf("insert term %s: %w", term.TermCode, err)
		}
		for j := range term.Courses {
			course := &term.Courses[j]
			course.ID = uuid.NewString()
			course.TermID = term.ID
			course.Position = j
			if _, err = tx.NamedExecContext(ctx, insertCourse, course); err != nil {
				return fmt.Errorf("insert course %s: %w", course.Code, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save transcript: %w", err)
	}
	t.ID = existingID
	t.UpdatedAt = &now
	return nil
}

func (r *TranscriptRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}
