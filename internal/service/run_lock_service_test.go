package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type fakeLockStore struct {
	mu       sync.Mutex
	enabled  bool
	err      error
	held     map[string]string
	released []string
	extended int
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{enabled: true, held: make(map[string]string)}
}

func (f *fakeLockStore) Enabled() bool { return f.enabled }

func (f *fakeLockStore) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.held[key]; ok {
		return false, nil
	}
	f.held[key] = token
	return true, nil
}

func (f *fakeLockStore) ExtendLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] != token {
		return false, nil
	}
	f.extended++
	return true, nil
}

func (f *fakeLockStore) extensions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extended
}

func (f *fakeLockStore) ReleaseLock(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] == token {
		delete(f.held, key)
		f.released = append(f.released, key)
	}
	return nil
}

func TestRunLockKey(t *testing.T) {
	opts := dto.RunSchedulerRequest{AcademicYearID: "ay-1"}.Options()
	assert.Equal(t, "scheduler:lock:school-1:*:ay-1:*", RunLockKey(schoolScope, opts))

	opts.CourseID = strPtr("course-alg")
	scope := schoolScope.WithCampus(strPtr("north"))
	assert.Equal(t, "scheduler:lock:school-1:north:ay-1:course-alg", RunLockKey(scope, opts))
}

func TestRunLockServiceLocalMap(t *testing.T) {
	svc := NewRunLockService(nil, time.Minute, nil, nil)
	opts := dto.RunSchedulerRequest{AcademicYearID: "ay-1"}.Options()

	release, err := svc.Acquire(context.Background(), schoolScope, opts)
	require.NoError(t, err)

	_, err = svc.Acquire(context.Background(), schoolScope, opts)
	assert.ErrorIs(t, err, appErrors.ErrSchedulerBusy)

	other := models.TenantScope{SchoolID: "school-2"}
	releaseOther, err := svc.Acquire(context.Background(), other, opts)
	require.NoError(t, err)
	releaseOther()

	release()
	release, err = svc.Acquire(context.Background(), schoolScope, opts)
	require.NoError(t, err)
	release()
}

func TestRunLockServiceUsesStoreWhenEnabled(t *testing.T) {
	store := newFakeLockStore()
	svc := NewRunLockService(store, time.Minute, nil, nil)
	opts := dto.RunSchedulerRequest{AcademicYearID: "ay-1"}.Options()

	release, err := svc.Acquire(context.Background(), schoolScope, opts)
	require.NoError(t, err)
	assert.Len(t, store.held, 1)

	_, err = svc.Acquire(context.Background(), schoolScope, opts)
	assert.ErrorIs(t, err, appErrors.ErrSchedulerBusy)

	release()
	assert.Equal(t, []string{"scheduler:lock:school-1:*:ay-1:*"}, store.released)

	store.err = errors.New("redis down")
	_, err = svc.Acquire(context.Background(), schoolScope, opts)
	assert.True(t, appErrors.IsInfrastructure(err))
}

func TestRunLockServiceRenewsStoreLockUntilReleased(t *testing.T) {
	store := newFakeLockStore()
	svc := NewRunLockService(store, 30*time.Millisecond, nil, nil)
	opts := dto.RunSchedulerRequest{AcademicYearID: "ay-1"}.Options()

	release, err := svc.Acquire(context.Background(), schoolScope, opts)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.extensions() >= 2 }, time.Second, 5*time.Millisecond)

	release()
	release()
	after := store.extensions()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, store.extensions())
	assert.Len(t, store.released, 1)
}

func TestRunLockServiceFallsBackWhenStoreDisabled(t *testing.T) {
	store := newFakeLockStore()
	store.enabled = false
	svc := NewRunLockService(store, time.Minute, nil, nil)
	opts := dto.RunSchedulerRequest{AcademicYearID: "ay-1"}.Options()

	release, err := svc.Acquire(context.Background(), schoolScope, opts)
	require.NoError(t, err)
	defer release()
	assert.Empty(t, store.held)
}
