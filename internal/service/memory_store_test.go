package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/repository"
	"github.com/noah-isme/sma-scheduler-api/pkg/database"
)

// memoryStore is an in-memory scheduling dataset shared by the fakes below. WithinTx snapshots
// the mutable state and restores it when the callback fails.
type memoryStore struct {
	mu           sync.Mutex
	periods      map[string]models.CoursePeriod
	slots        map[string][]models.TimetableSlot
	schedules    []models.StudentSchedule
	requests     map[string]models.ScheduleRequest
	students     map[string]models.StudentProfile
	availability map[string][]models.TeacherAvailability
	templates    map[string]models.TimetableTemplate

	seq            int
	pendingErr     error
	recomputeErr   error
	candidateErr   map[string]error
	cancelAfterOne context.CancelFunc
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		periods:      make(map[string]models.CoursePeriod),
		slots:        make(map[string][]models.TimetableSlot),
		requests:     make(map[string]models.ScheduleRequest),
		students:     make(map[string]models.StudentProfile),
		availability: make(map[string][]models.TeacherAvailability),
		templates:    make(map[string]models.TimetableTemplate),
		candidateErr: make(map[string]error),
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%03d", prefix, m.seq)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func (m *memoryStore) addPeriod(p models.CoursePeriod) {
	if p.SchoolID == "" {
		p.SchoolID = "school-1"
	}
	if p.AcademicYearID == "" {
		p.AcademicYearID = "ay-1"
	}
	if p.GenderRestriction == "" {
		p.GenderRestriction = models.GenderRestrictionNone
	}
	p.Active = true
	m.periods[p.ID] = p
}

func (m *memoryStore) addSlot(coursePeriodID string, day int, periodID string) {
	m.slots[coursePeriodID] = append(m.slots[coursePeriodID], models.TimetableSlot{
		ID: m.nextID("slot"), SchoolID: "school-1", CoursePeriodID: coursePeriodID, DayOfWeek: day, PeriodID: periodID,
	})
}

func (m *memoryStore) addStudent(id, gender string) {
	m.students[id] = models.StudentProfile{ID: id, SchoolID: "school-1", Gender: gender, Active: true}
}

func (m *memoryStore) addRequest(r models.ScheduleRequest) {
	if r.SchoolID == "" {
		r.SchoolID = "school-1"
	}
	if r.AcademicYearID == "" {
		r.AcademicYearID = "ay-1"
	}
	if r.Status == "" {
		r.Status = models.ScheduleRequestStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Date(2024, 1, 1, 0, 0, len(m.requests), 0, time.UTC)
	}
	m.requests[r.ID] = r
}

func (m *memoryStore) enrollDirect(studentID, coursePeriodID string) {
	p := m.periods[coursePeriodID]
	m.schedules = append(m.schedules, models.StudentSchedule{
		ID: m.nextID("ss"), SchoolID: p.SchoolID, StudentID: studentID, CourseID: p.CourseID, CoursePeriodID: p.ID,
		AcademicYearID: p.AcademicYearID, MarkingPeriodID: p.MarkingPeriodID, StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	p.FilledSeats = m.countActive(p)
	m.periods[p.ID] = p
}

func (m *memoryStore) request(id string) models.ScheduleRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

func (m *memoryStore) period(id string) models.CoursePeriod {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.periods[id]
}

func (m *memoryStore) activeRows(studentID string) []models.StudentSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.StudentSchedule
	for _, row := range m.schedules {
		if row.StudentID == studentID && row.Active() {
			rows = append(rows, row)
		}
	}
	return rows
}

func (m *memoryStore) countActive(p models.CoursePeriod) int {
	count := 0
	for _, row := range m.schedules {
		if row.CoursePeriodID != p.ID || !row.Active() {
			continue
		}
		if !sameOptional(row.MarkingPeriodID, p.MarkingPeriodID) {
			continue
		}
		count++
	}
	return count
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// memoryTx implements txRunner with snapshot rollback.
type memoryTx struct{ store *memoryStore }

func (t memoryTx) WithinTx(ctx context.Context, fn database.TxFunc) error {
	m := t.store
	m.mu.Lock()
	periods := make(map[string]models.CoursePeriod, len(m.periods))
	for k, v := range m.periods {
		periods[k] = v
	}
	requests := make(map[string]models.ScheduleRequest, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	schedules := append([]models.StudentSchedule(nil), m.schedules...)
	slots := make(map[string][]models.TimetableSlot, len(m.slots))
	for k, v := range m.slots {
		slots[k] = append([]models.TimetableSlot(nil), v...)
	}
	m.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		m.mu.Lock()
		m.periods, m.requests, m.schedules, m.slots = periods, requests, schedules, slots
		m.mu.Unlock()
		return err
	}
	return nil
}

// memoryCatalog implements the catalog readers and timetable writer.
type memoryCatalog struct{ store *memoryStore }

func (c memoryCatalog) ListCandidateCoursePeriods(ctx context.Context, scope models.TenantScope, courseID, academicYearID string, markingPeriodID *string) ([]models.CoursePeriod, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.candidateErr[courseID]; err != nil {
		return nil, err
	}
	var out []models.CoursePeriod
	for _, p := range m.periods {
		if p.SchoolID != scope.SchoolID || p.CourseID != courseID || p.AcademicYearID != academicYearID || !p.Active {
			continue
		}
		if scope.CampusID != nil && p.CampusID != nil && *p.CampusID != *scope.CampusID {
			continue
		}
		if markingPeriodID != nil && p.MarkingPeriodID != nil && *p.MarkingPeriodID != *markingPeriodID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c memoryCatalog) FindCoursePeriod(ctx context.Context, exec sqlx.ExtContext, scope models.TenantScope, id string, forUpdate bool) (*models.CoursePeriod, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok || p.SchoolID != scope.SchoolID {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (c memoryCatalog) FindCoursePeriodsByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (map[string]models.CoursePeriod, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.CoursePeriod, len(ids))
	for _, id := range ids {
		if p, ok := m.periods[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c memoryCatalog) ListSlotsByCoursePeriods(ctx context.Context, exec sqlx.ExtContext, ids []string) (map[string][]models.TimetableSlot, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]models.TimetableSlot, len(ids))
	for _, id := range ids {
		if slots, ok := m.slots[id]; ok {
			out[id] = append([]models.TimetableSlot(nil), slots...)
		}
	}
	return out, nil
}

func (c memoryCatalog) ListSlotsBySection(ctx context.Context, scope models.TenantScope, sectionID string) ([]models.TimetableSlot, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TimetableSlot
	for _, slots := range m.slots {
		for _, slot := range slots {
			if slot.SectionID != nil && *slot.SectionID == sectionID {
				out = append(out, slot)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].PeriodID < out[j].PeriodID
	})
	return out, nil
}

func (c memoryCatalog) InsertTimetableSlot(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) (bool, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.slots[slot.CoursePeriodID] {
		if existing.DayOfWeek == slot.DayOfWeek && existing.PeriodID == slot.PeriodID {
			return false, nil
		}
	}
	slot.ID = m.nextID("slot")
	m.slots[slot.CoursePeriodID] = append(m.slots[slot.CoursePeriodID], *slot)
	return true, nil
}

func (c memoryCatalog) FindStudent(ctx context.Context, scope models.TenantScope, studentID string) (*models.StudentProfile, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[studentID]
	if !ok || student.SchoolID != scope.SchoolID {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (c memoryCatalog) ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.availability[teacherID], nil
}

// memorySchedules implements studentScheduleRepository.
type memorySchedules struct{ store *memoryStore }

func (r memorySchedules) List(ctx context.Context, scope models.TenantScope, filter models.StudentScheduleFilter) ([]models.StudentSchedule, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudentSchedule
	for _, row := range m.schedules {
		if row.SchoolID != scope.SchoolID || (filter.StudentID != "" && row.StudentID != filter.StudentID) {
			continue
		}
		if filter.AcademicYearID != "" && row.AcademicYearID != filter.AcademicYearID {
			continue
		}
		if filter.ActiveOnly && !row.Active() {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r memorySchedules) ListActiveByStudent(ctx context.Context, exec sqlx.ExtContext, schoolID, studentID, academicYearID string) ([]models.StudentSchedule, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudentSchedule
	for _, row := range m.schedules {
		if row.SchoolID == schoolID && row.StudentID == studentID && row.AcademicYearID == academicYearID && row.Active() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r memorySchedules) FindActive(ctx context.Context, exec sqlx.ExtContext, studentID, coursePeriodID string) (*models.StudentSchedule, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.schedules {
		if row.StudentID == studentID && row.CoursePeriodID == coursePeriodID && row.Active() {
			found := row
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memorySchedules) Create(ctx context.Context, exec sqlx.ExtContext, row *models.StudentSchedule) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = m.nextID("ss")
	row.CreatedAt = time.Now().UTC()
	m.schedules = append(m.schedules, *row)
	return nil
}

func (r memorySchedules) SetEndDate(ctx context.Context, exec sqlx.ExtContext, id string, endDate time.Time) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.schedules {
		if m.schedules[i].ID == id && m.schedules[i].Active() {
			end := endDate
			m.schedules[i].EndDate = &end
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r memorySchedules) RecomputeFilledSeats(ctx context.Context, exec sqlx.ExtContext, coursePeriodID string) (int, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recomputeErr != nil {
		return 0, m.recomputeErr
	}
	p, ok := m.periods[coursePeriodID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	p.FilledSeats = m.countActive(p)
	m.periods[p.ID] = p
	return p.FilledSeats, nil
}

// memoryRequests implements the schedule request stores.
type memoryRequests struct{ store *memoryStore }

func (r memoryRequests) ListPending(ctx context.Context, scope models.TenantScope, q models.PendingRequestQuery) ([]models.ScheduleRequest, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingErr != nil {
		return nil, m.pendingErr
	}
	var out []models.ScheduleRequest
	for _, req := range m.requests {
		if req.SchoolID != scope.SchoolID || req.AcademicYearID != q.AcademicYearID || req.Status != models.ScheduleRequestStatusPending {
			continue
		}
		if q.CourseID != nil && req.CourseID != *q.CourseID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.ByPriority && out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memoryRequests) MarkFulfilled(ctx context.Context, exec sqlx.ExtContext, id, coursePeriodID string) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != models.ScheduleRequestStatusPending {
		return repository.ErrStaleStatus
	}
	req.Status = models.ScheduleRequestStatusFulfilled
	req.FulfilledCoursePeriodID = strPtr(coursePeriodID)
	req.UnfilledReason = nil
	m.requests[id] = req
	if m.cancelAfterOne != nil {
		m.cancelAfterOne()
	}
	return nil
}

func (r memoryRequests) MarkUnfilled(ctx context.Context, id, reason string) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != models.ScheduleRequestStatusPending {
		return repository.ErrStaleStatus
	}
	req.Status = models.ScheduleRequestStatusUnfilled
	req.FulfilledCoursePeriodID = nil
	req.UnfilledReason = strPtr(reason)
	m.requests[id] = req
	return nil
}

func (r memoryRequests) List(ctx context.Context, scope models.TenantScope, filter models.ScheduleRequestFilter) ([]models.ScheduleRequest, int, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleRequest
	for _, req := range m.requests {
		if req.SchoolID == scope.SchoolID && req.AcademicYearID == filter.AcademicYearID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r memoryRequests) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.ScheduleRequest, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.SchoolID != scope.SchoolID {
		return nil, sql.ErrNoRows
	}
	return &req, nil
}

func (r memoryRequests) ExistsPending(ctx context.Context, scope models.TenantScope, studentID, courseID, academicYearID, excludeID string) (bool, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.ID == excludeID || req.SchoolID != scope.SchoolID {
			continue
		}
		if req.StudentID == studentID && req.CourseID == courseID && req.AcademicYearID == academicYearID && req.Status == models.ScheduleRequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryRequests) Create(ctx context.Context, exec sqlx.ExtContext, request *models.ScheduleRequest) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if request.ID == "" {
		request.ID = m.nextID("req")
	}
	request.CreatedAt = time.Now().UTC()
	request.UpdatedAt = request.CreatedAt
	m.requests[request.ID] = *request
	return nil
}

func (r memoryRequests) Update(ctx context.Context, request *models.ScheduleRequest, expected models.ScheduleRequestStatus) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[request.ID]
	if !ok || current.SchoolID != request.SchoolID || current.Status != expected {
		return repository.ErrStaleStatus
	}
	m.requests[request.ID] = *request
	return nil
}

func (r memoryRequests) Delete(ctx context.Context, scope models.TenantScope, id string) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.SchoolID != scope.SchoolID {
		return sql.ErrNoRows
	}
	delete(m.requests, id)
	return nil
}

// memoryTemplates implements timetableTemplateRepository.
type memoryTemplates struct{ store *memoryStore }

func (r memoryTemplates) List(ctx context.Context, scope models.TenantScope) ([]models.TimetableTemplate, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TimetableTemplate
	for _, tpl := range m.templates {
		if tpl.SchoolID == scope.SchoolID {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (r memoryTemplates) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.TimetableTemplate, error) {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl, ok := m.templates[id]
	if !ok || tpl.SchoolID != scope.SchoolID {
		return nil, sql.ErrNoRows
	}
	return &tpl, nil
}

func (r memoryTemplates) Create(ctx context.Context, exec sqlx.ExtContext, template *models.TimetableTemplate) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	template.ID = m.nextID("tpl")
	for i := range template.Entries {
		template.Entries[i].ID = m.nextID("entry")
		template.Entries[i].TemplateID = template.ID
	}
	m.templates[template.ID] = *template
	return nil
}
