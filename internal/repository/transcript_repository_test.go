package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/pkg/config"
	"github.com/noah-isme/transcript-api/pkg/database"
)

func newTranscriptRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

type recordingObserver struct{ labels []string }

func (o *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	o.labels = append(o.labels, label)
}

func sampleTranscript() models.Transcript {
	return models.Transcript{
		UserID:      "user-1",
		StudentInfo: models.StudentInfo{Degree: "Computer Science BS"},
		Terms: []models.Term{
			{
				TermCode: "SP2024", TermName: "Spring 2024", TermGPA: 3.5, Credits: 4, EarnedCredits: 4, Points: 14,
				Courses: []models.Course{{Code: "CSC 215", Name: "INTERMED COMPUTER PROGRAMMING", Units: 4, EarnedUnits: 4, Grade: "A-", Points: 14}},
			},
			{TermCode: "FA2024", TermName: "Fall 2024", Credits: 12, IsPlanned: true, Courses: []models.Course{}},
		},
	}
}

func TestTranscriptRepositorySaveInsertsNewTranscript(t *testing.T) {
	db, mock, cleanup := newTranscriptRepoMock(t)
	defer cleanup()
	observer := &recordingObserver{}
	repo := NewTranscriptRepository(db, observer)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM transcripts WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transcripts (id, user_id, degree, institution, updated_at) VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs(sqlmock.AnyArg(), "user-1", "Computer Science BS", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO terms`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 0, "SP2024", "Spring 2024", 3.5, 4.0, 4.0, 14.0, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO courses`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 0, "CSC 215", "INTERMED COMPUTER PROGRAMMING", 4.0, 4.0, "A-", 14.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO terms`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 1, "FA2024", "Fall 2024", 0.0, 12.0, 0.0, 0.0, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tr := sampleTranscript()
	require.NoError(t, repo.Save(context.Background(), &tr))

	assert.NotEmpty(t, tr.ID)
	require.NotNil(t, tr.UpdatedAt)
	assert.Equal(t, tr.ID, tr.Terms[0].TranscriptID)
	assert.Equal(t, tr.Terms[0].ID, tr.Terms[0].Courses[0].TermID)
	assert.Equal(t, 1, tr.Terms[1].Position)
	assert.Equal(t, []string{"transcript_save"}, observer.labels)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRepositorySaveReplacesExisting(t *testing.T) {
	db, mock, cleanup := newTranscriptRepoMock(t)
	defer cleanup()
	repo := NewTranscriptRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM transcripts WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tr-1"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transcripts SET degree = $1, institution = $2, updated_at = $3 WHERE id = $4`)).
		WithArgs("Computer Science BS", "", sqlmock.AnyArg(), "tr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM courses WHERE term_id IN (SELECT id FROM terms WHERE transcript_id = $1)`)).
		WithArgs("tr-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM terms WHERE transcript_id = $1`)).
		WithArgs("tr-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tr := sampleTranscript()
	tr.Terms = nil
	require.NoError(t, repo.Save(context.Background(), &tr))
	assert.Equal(t, "tr-1", tr.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRepositorySaveRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newTranscriptRepoMock(t)
	defer cleanup()
	repo := NewTranscriptRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM transcripts WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transcripts`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO terms`)).
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	tr := sampleTranscript()
	err := repo.Save(context.Background(), &tr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert term SP2024")
	assert.Empty(t, tr.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRepositorySaveRequiresUser(t *testing.T) {
	db, _, cleanup := newTranscriptRepoMock(t)
	defer cleanup()

	err := NewTranscriptRepository(db, nil).Save(context.Background(), &models.Transcript{})
	assert.Error(t, err)
}

func TestTranscriptRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newTranscriptRepoMock(t)
	defer cleanup()
	repo := NewTranscriptRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, degree, institution, updated_at FROM transcripts WHERE user_id = $1`)).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "degree", "institution", "updated_at"}))

	got, err := repo.FindByUserID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRepositorySQLiteRoundTrip(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	repo := NewTranscriptRepository(db, nil)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))

	tr := sampleTranscript()
	require.NoError(t, repo.Save(ctx, &tr))

	got, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tr.ID, got.ID)
	assert.Equal(t, "Computer Science BS", got.StudentInfo.Degree)
	require.Len(t, got.Terms, 2)
	assert.Equal(t, "SP2024", got.Terms[0].TermCode)
	assert.Equal(t, 3.5, got.Terms[0].TermGPA)
	require.Len(t, got.Terms[0].Courses, 1)
	assert.Equal(t, "A-", got.Terms[0].Courses[0].Grade)
	assert.Equal(t, "FA2024", got.Terms[1].TermCode)
	assert.True(t, got.Terms[1].IsPlanned)
	assert.Empty(t, got.Terms[1].Courses)

	replacement := sampleTranscript()
	replacement.Terms = replacement.Terms[1:]
	require.NoError(t, repo.Save(ctx, &replacement))
	assert.Equal(t, tr.ID, replacement.ID)

	got, err = repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Terms, 1)

	var courses int
	require.NoError(t, db.Get(&courses, `SELECT COUNT(*) FROM courses`))
	assert.Zero(t, courses)
}
