package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

func newEnrollmentFixture() (*memoryStore, *EnrollmentService) {
	store := newMemoryStore()
	svc := NewEnrollmentService(memoryTx{store: store}, memorySchedules{store: store}, memoryCatalog{store: store}, nil, nil, zap.NewNop())
	return store, svc
}

func enrollPayload(studentID, coursePeriodID string) dto.EnrollRequest {
	return dto.EnrollRequest{StudentID: studentID, CourseID: "course-alg", CoursePeriodID: coursePeriodID, AcademicYearID: "ay-1"}
}

func TestEnrollmentServiceEnrollRecomputesSeats(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", intPtr(2)))

	res, err := svc.Enroll(context.Background(), schoolScope, enrollPayload("stu-1", "cp-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilledSeats)
	assert.Equal(t, "cp-1", res.Schedule.CoursePeriodID)
	assert.True(t, res.Schedule.Active())
	assert.Equal(t, 1, store.period("cp-1").FilledSeats)
}

func TestEnrollmentServiceRejectsFullCoursePeriod(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", intPtr(1)))
	store.enrollDirect("stu-0", "cp-1")

	_, err := svc.Enroll(context.Background(), schoolScope, enrollPayload("stu-1", "cp-1"), nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCapacity.Code, appErr.Code)
	assert.Equal(t, "course period is full", appErr.Message)
	assert.Empty(t, store.activeRows("stu-1"))
}

func TestEnrollmentServiceRejectsDuplicate(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", nil))
	store.enrollDirect("stu-1", "cp-1")

	_, err := svc.Enroll(context.Background(), schoolScope, enrollPayload("stu-1", "cp-1"), nil)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEnrollment)
	assert.Len(t, store.activeRows("stu-1"), 1)
}

func TestEnrollmentServiceConflictRespectsMarkingPeriods(t *testing.T) {
	store, svc := newEnrollmentFixture()
	bio := models.CoursePeriod{ID: "cp-bio", CourseID: "course-bio", CourseTitle: "Biology", TeacherID: "t-9",
		PeriodID: strPtr("p-1"), PeriodTitle: strPtr("Period 1"), MarkingPeriodID: strPtr("sem-1")}
	store.addPeriod(bio)
	alg := algebraPeriod("cp-1", "t-1", nil)
	alg.PeriodID = strPtr("p-1")
	alg.MarkingPeriodID = strPtr("sem-2")
	store.addPeriod(alg)
	store.enrollDirect("stu-1", "cp-bio")

	_, err := svc.Enroll(context.Background(), schoolScope, enrollPayload("stu-1", "cp-1"), nil)
	require.NoError(t, err)

	store.addPeriod(models.CoursePeriod{ID: "cp-chem", CourseID: "course-chem", CourseTitle: "Chemistry", TeacherID: "t-3",
		PeriodID: strPtr("p-1"), PeriodTitle: strPtr("Period 1"), MarkingPeriodID: strPtr("sem-1")})
	_, err = svc.Enroll(context.Background(), schoolScope, dto.EnrollRequest{
		StudentID: "stu-1", CourseID: "course-chem", CoursePeriodID: "cp-chem", AcademicYearID: "ay-1",
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Contains(t, err.Error(), "Biology (Period 1)")
}

func TestEnrollmentServiceHookFailureRollsBack(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", intPtr(3)))

	hookErr := errors.New("request no longer pending")
	_, err := svc.Enroll(context.Background(), schoolScope, enrollPayload("stu-1", "cp-1"),
		func(ctx context.Context, exec sqlx.ExtContext, schedule *models.StudentSchedule) error { return hookErr })
	require.Error(t, err)
	assert.ErrorIs(t, err, hookErr)
	assert.True(t, appErrors.IsInfrastructure(err))
	assert.Empty(t, store.activeRows("stu-1"))
	assert.Equal(t, 0, store.period("cp-1").FilledSeats)
}

func TestEnrollmentServiceRejectsForeignCourse(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", nil))

	req := enrollPayload("stu-1", "cp-1")
	req.CourseID = "course-bio"
	_, err := svc.Enroll(context.Background(), schoolScope, req, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Enroll(context.Background(), schoolScope, enrollPayload("stu-1", "cp-missing"), nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEnrollmentServiceDrop(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", intPtr(2)))
	store.enrollDirect("stu-1", "cp-1")

	filled, err := svc.Drop(context.Background(), schoolScope, dto.DropRequest{StudentID: "stu-1", CoursePeriodID: "cp-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, filled)
	assert.Empty(t, store.activeRows("stu-1"))

	_, err = svc.Drop(context.Background(), schoolScope, dto.DropRequest{StudentID: "stu-1", CoursePeriodID: "cp-1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEnrollmentServiceDropRejectsEndBeforeStart(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", nil))
	store.enrollDirect("stu-1", "cp-1")

	early := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Drop(context.Background(), schoolScope, dto.DropRequest{StudentID: "stu-1", CoursePeriodID: "cp-1", EndDate: &early})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Len(t, store.activeRows("stu-1"), 1)
}

func TestEnrollmentServiceMassEnrollCollectsRejections(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", intPtr(2)))

	res, err := svc.MassEnroll(context.Background(), schoolScope, dto.MassEnrollRequest{
		StudentIDs: []string{"stu-1", "stu-2", "stu-3", "stu-1"}, CourseID: "course-alg", CoursePeriodID: "cp-1", AcademicYearID: "ay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.FilledSeats)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "stu-3", res.Errors[0].StudentID)
	assert.Equal(t, appErrors.ErrCapacity.Code, res.Errors[0].Code)
}

func TestEnrollmentServiceMassEnrollRecomputeFailures(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", nil))
	store.enrollDirect("stu-1", "cp-1")
	store.recomputeErr = errors.New("connection reset")

	_, err := svc.MassEnroll(context.Background(), schoolScope, dto.MassEnrollRequest{
		StudentIDs: []string{"stu-1"}, CourseID: "course-alg", CoursePeriodID: "cp-1", AcademicYearID: "ay-1",
	})
	assert.True(t, appErrors.IsInfrastructure(err))

	core, logs := observer.New(zap.WarnLevel)
	svc = NewEnrollmentService(memoryTx{store: store}, memorySchedules{store: store}, memoryCatalog{store: store}, nil, nil, zap.New(core))
	store.recomputeErr = nil

	res, err := svc.MassEnroll(context.Background(), schoolScope, dto.MassEnrollRequest{
		StudentIDs: []string{"stu-2"}, CourseID: "course-alg", CoursePeriodID: "cp-404", AcademicYearID: "ay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, appErrors.ErrNotFound.Code, res.Errors[0].Code)
	assert.Equal(t, 1, logs.FilterMessage("recompute after rejected mass enrollment failed").Len())
}

func TestEnrollmentServiceMassDropRecomputesOnce(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", nil))
	store.enrollDirect("stu-1", "cp-1")
	store.enrollDirect("stu-2", "cp-1")

	res, err := svc.MassDrop(context.Background(), schoolScope, dto.MassDropRequest{
		StudentIDs: []string{"stu-1", "stu-2", "stu-9"}, CoursePeriodID: "cp-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.FilledSeats)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, appErrors.ErrNotFound.Code, res.Errors[0].Code)
}

func TestEnrollmentServiceRecomputeSeatsRepairsCounter(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", intPtr(30)))
	store.enrollDirect("stu-1", "cp-1")

	store.mu.Lock()
	p := store.periods["cp-1"]
	p.FilledSeats = 12
	store.periods["cp-1"] = p
	store.mu.Unlock()

	filled, err := svc.RecomputeSeats(context.Background(), schoolScope, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, filled)
	assert.Equal(t, 1, store.period("cp-1").FilledSeats)
}

func TestEnrollmentServiceListStudentSchedulesRequiresStudent(t *testing.T) {
	store, svc := newEnrollmentFixture()
	store.addPeriod(algebraPeriod("cp-1", "t-1", nil))
	store.enrollDirect("stu-1", "cp-1")

	_, err := svc.ListStudentSchedules(context.Background(), schoolScope, dto.StudentScheduleQuery{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	rows, err := svc.ListStudentSchedules(context.Background(), schoolScope, dto.StudentScheduleQuery{StudentID: "stu-1", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
