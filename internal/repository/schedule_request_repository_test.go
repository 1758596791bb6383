package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var requestColumnNames = []string{"id", "school_id", "campus_id", "student_id", "course_id", "academic_year_id", "marking_period_id",
	"with_teacher_id", "not_teacher_id", "with_period_id", "not_period_id", "priority", "status",
	"fulfilled_course_period_id", "unfilled_reason", "created_at", "updated_at"}

func TestScheduleRequestRepositoryListPendingByPriority(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(requestColumnNames).
		AddRow("req-1", "school-1", nil, "stu-1", "course-1", "ay-1", nil, nil, nil, nil, nil, 5, "PENDING", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND academic_year_id = $2 AND status = $3 AND course_id = $4 ORDER BY priority DESC, created_at ASC, id ASC")).
		WithArgs("school-1", "ay-1", models.ScheduleRequestStatusPending, "course-1").
		WillReturnRows(rows)

	course := "course-1"
	requests, err := repo.ListPending(context.Background(), models.TenantScope{SchoolID: "school-1"}, models.PendingRequestQuery{
		AcademicYearID: "ay-1",
		CourseID:       &course,
		ByPriority:     true,
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, 5, requests[0].Priority)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRequestRepositoryListAppliesCampusScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_requests WHERE school_id = $1 AND campus_id = $2 AND academic_year_id = $3 ORDER BY")).
		WithArgs("school-1", "campus-1", "ay-1").
		WillReturnRows(sqlmock.NewRows(requestColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_requests WHERE school_id = $1 AND campus_id = $2 AND academic_year_id = $3")).
		WithArgs("school-1", "campus-1", "ay-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	campus := "campus-1"
	requests, total, err := repo.List(context.Background(), models.TenantScope{SchoolID: "school-1", CampusID: &campus},
		models.ScheduleRequestFilter{AcademicYearID: "ay-1"})
	require.NoError(t, err)
	assert.Empty(t, requests)
	assert.Equal(t, 0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRequestRepositoryExistsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schedule_requests WHERE school_id = $1 AND student_id = $2")).
		WithArgs("school-1", "stu-1", "course-1", "ay-1", models.ScheduleRequestStatusPending, "req-9").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsPending(context.Background(), models.TenantScope{SchoolID: "school-1"}, "stu-1", "course-1", "ay-1", "req-9")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRequestRepositoryMarkFulfilledOnlyFromPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_requests SET status = $1, fulfilled_course_period_id = $2")).
		WithArgs(models.ScheduleRequestStatusFulfilled, "cp-1", sqlmock.AnyArg(), "req-1", models.ScheduleRequestStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkFulfilled(context.Background(), nil, "req-1", "cp-1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_requests SET status = $1, fulfilled_course_period_id = NULL, unfilled_reason = $2")).
		WithArgs(models.ScheduleRequestStatusUnfilled, "no seats", sqlmock.AnyArg(), "req-1", models.ScheduleRequestStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkUnfilled(context.Background(), "req-1", "no seats")
	assert.ErrorIs(t, err, ErrStaleStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRequestRepositoryUpdateGuardsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRequestRepository(db)

	request := &models.ScheduleRequest{ID: "req-1", SchoolID: "school-1", Priority: 7, Status: models.ScheduleRequestStatusPending}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_requests SET marking_period_id = $1, with_teacher_id = $2, not_teacher_id = $3, with_period_id = $4, not_period_id = $5, priority = $6, updated_at = $7 WHERE id = $8 AND school_id = $9 AND status = $10")).
		WithArgs(nil, nil, nil, nil, nil, 7, sqlmock.AnyArg(), "req-1", "school-1", models.ScheduleRequestStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), request, models.ScheduleRequestStatusPending)
	assert.ErrorIs(t, err, ErrStaleStatus)

	request.Status = models.ScheduleRequestStatusCancelled
	mock.ExpectExec(regexp.QuoteMeta("priority = $6, status = $7, fulfilled_course_period_id = $8, unfilled_reason = $9, updated_at = $10 WHERE id = $11 AND school_id = $12 AND status = $13")).
		WithArgs(nil, nil, nil, nil, nil, 7, models.ScheduleRequestStatusCancelled, nil, nil, sqlmock.AnyArg(), "req-1", "school-1", models.ScheduleRequestStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), request, models.ScheduleRequestStatusPending))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRequestRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRequestRepository(db)

	mock.ExpectExec("INSERT INTO schedule_requests").WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.ScheduleRequest{SchoolID: "school-1", StudentID: "stu-1", CourseID: "course-1", AcademicYearID: "ay-1"}
	require.NoError(t, repo.Create(context.Background(), nil, request))
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, models.ScheduleRequestStatusPending, request.Status)
	assert.False(t, request.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRequestRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_requests WHERE id = $1 AND school_id = $2")).
		WithArgs("req-404", "school-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), models.TenantScope{SchoolID: "school-1"}, "req-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
