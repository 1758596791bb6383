package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type enrollmentServiceMock struct {
	lastQuery dto.StudentScheduleQuery
	hookSeen  bool
	err       error
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, scope models.TenantScope, req dto.EnrollRequest, hook service.EnrollHook) (*dto.EnrollResponse, error) {
	m.hookSeen = hook != nil
	if m.err != nil {
		return nil, m.err
	}
	return &dto.EnrollResponse{Schedule: models.StudentSchedule{ID: "ss-1", StudentID: req.StudentID}, FilledSeats: 1}, nil
}

func (m *enrollmentServiceMock) Drop(ctx context.Context, scope models.TenantScope, req dto.DropRequest) (int, error) {
	return 0, m.err
}

func (m *enrollmentServiceMock) MassEnroll(ctx context.Context, scope models.TenantScope, req dto.MassEnrollRequest) (*dto.MassEnrollmentResponse, error) {
	return &dto.MassEnrollmentResponse{Processed: len(req.StudentIDs)}, m.err
}

func (m *enrollmentServiceMock) MassDrop(ctx context.Context, scope models.TenantScope, req dto.MassDropRequest) (*dto.MassEnrollmentResponse, error) {
	return &dto.MassEnrollmentResponse{Processed: len(req.StudentIDs)}, m.err
}

func (m *enrollmentServiceMock) ListStudentSchedules(ctx context.Context, scope models.TenantScope, query dto.StudentScheduleQuery) ([]models.StudentSchedule, error) {
	m.lastQuery = query
	return []models.StudentSchedule{}, m.err
}

func (m *enrollmentServiceMock) RecomputeSeats(ctx context.Context, scope models.TenantScope, coursePeriodID string) (int, error) {
	return 7, m.err
}

func TestStudentScheduleHandlerEnroll(t *testing.T) {
	mock := &enrollmentServiceMock{}
	handler := NewStudentScheduleHandler(mock)
	c, w := newScopedContext(http.MethodPost, "/student-schedules",
		`{"student_id":"stu-1","course_id":"course-alg","course_period_id":"cp-1","academic_year_id":"ay-1"}`, true)

	handler.Enroll(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, mock.hookSeen)
}

func TestStudentScheduleHandlerEnrollCapacity(t *testing.T) {
	handler := NewStudentScheduleHandler(&enrollmentServiceMock{err: appErrors.Clone(appErrors.ErrCapacity, "course period is full")})
	c, w := newScopedContext(http.MethodPost, "/student-schedules",
		`{"student_id":"stu-1","course_id":"course-alg","course_period_id":"cp-1","academic_year_id":"ay-1"}`, true)

	handler.Enroll(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrCapacity.Code, decodeEnvelope(t, w).Error.Code)
}

func TestStudentScheduleHandlerListBindsQuery(t *testing.T) {
	mock := &enrollmentServiceMock{}
	handler := NewStudentScheduleHandler(mock)
	c, w := newScopedContext(http.MethodGet, "/student-schedules?student_id=stu-1&academic_year_id=ay-1&active_only=true", "", true)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", mock.lastQuery.StudentID)
	assert.True(t, mock.lastQuery.ActiveOnly)
}

func TestStudentScheduleHandlerRecomputeSeats(t *testing.T) {
	handler := NewStudentScheduleHandler(&enrollmentServiceMock{})
	c, w := newScopedContext(http.MethodPost, "/course-periods/cp-1/recompute-seats", "", true)
	c.Params = gin.Params{{Key: "id", Value: "cp-1"}}

	handler.RecomputeSeats(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := string(decodeEnvelope(t, w).Data)
	assert.Contains(t, data, `"course_period_id":"cp-1"`)
	assert.Contains(t, data, `"filled_seats":7`)
}

func TestStudentScheduleHandlerMassEndpoints(t *testing.T) {
	handler := NewStudentScheduleHandler(&enrollmentServiceMock{})

	c, w := newScopedContext(http.MethodPost, "/student-schedules/mass",
		`{"student_ids":["a","b"],"course_id":"c","course_period_id":"cp-1","academic_year_id":"ay-1"}`, true)
	handler.MassEnroll(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newScopedContext(http.MethodPost, "/student-schedules/mass-drop", `{"student_ids":["a"],"course_period_id":"cp-1"}`, true)
	handler.MassDrop(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newScopedContext(http.MethodPost, "/student-schedules/drop", `{"student_id":"a","course_period_id":"cp-1"}`, true)
	handler.Drop(c)
	require.Equal(t, http.StatusOK, w.Code)
}
