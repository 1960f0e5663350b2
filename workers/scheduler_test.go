package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) ReconcilePendingGatewayDeposits(ctx context.Context, olderThan time.Time) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) SweepStaleMatches(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

type recordedJob struct {
	name string
	err  error
}

type fakeRecorder struct {
	mu   sync.Mutex
	jobs []recordedJob
}

func (f *fakeRecorder) RecordJob(job string, duration time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, recordedJob{name: job, err: err})
}

func (f *fakeRecorder) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, j := range f.jobs {
		if j.name == name {
			n++
		}
	}
	return n
}

var testConfig = Config{
	ReconcileInterval:  time.Minute,
	ReconcileAfter:     5 * time.Minute,
	StaleMatchInterval: time.Minute,
	StaleMatchGrace:    2 * time.Hour,
}

func TestScheduler_JobCutoffs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	reconciler := new(mockReconciler)
	sweeper := new(mockSweeper)
	recorder := &fakeRecorder{}

	s, err := NewScheduler(testConfig, reconciler, sweeper, recorder)
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	reconciler.On("ReconcilePendingGatewayDeposits", ctx, now.Add(-5*time.Minute)).Return(2, nil)
	sweeper.On("SweepStaleMatches", ctx, now.Add(-2*time.Hour)).Return(0, errors.New("db down"))

	s.runJob(ctx, JobReconcileDeposits, s.reconcileDeposits)
	s.runJob(ctx, JobSweepStaleMatches, s.sweepStaleMatches)

	reconciler.AssertExpectations(t)
	sweeper.AssertExpectations(t)
	require.Len(t, recorder.jobs, 2)
	assert.NoError(t, recorder.jobs[0].err)
	assert.Error(t, recorder.jobs[1].err)
}

func TestScheduler_SkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reconciler := new(mockReconciler)
	s, err := NewScheduler(testConfig, reconciler, new(mockSweeper), nil)
	require.NoError(t, err)

	s.runJob(ctx, JobReconcileDeposits, s.reconcileDeposits)

	reconciler.AssertNotCalled(t, "ReconcilePendingGatewayDeposits", mock.Anything, mock.Anything)
}

func TestScheduler_StartRunsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := new(mockReconciler)
	sweeper := new(mockSweeper)
	recorder := &fakeRecorder{}
	reconciler.On("ReconcilePendingGatewayDeposits", mock.Anything, mock.Anything).Return(0, nil)
	sweeper.On("SweepStaleMatches", mock.Anything, mock.Anything).Return(0, nil)

	cfg := testConfig
	cfg.ReconcileInterval = 50 * time.Millisecond
	cfg.StaleMatchInterval = 0

	s, err := NewScheduler(cfg, reconciler, sweeper, recorder)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	defer func() { _ = s.Shutdown() }()

	assert.Eventually(t, func() bool { return recorder.count(JobReconcileDeposits) >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, recorder.count(JobSweepStaleMatches))
}
