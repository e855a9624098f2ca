package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printquote/internal/core"
	"printquote/internal/pricing"
)

func newTestStore(t *testing.T) *JobStore {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewJobStore(conn)
}

func newJob(status core.JobStatus) *core.Job {
	return &core.Job{
		ID:               uuid.NewString(),
		Filename:         "stored.stl",
		OriginalFilename: "benchy.stl",
		Status:           status,
		MaterialID:       "pla",
		ColorID:          "black",
		QualityID:        "standard",
		FillDensity:      0.15,
		EnableSupports:   true,
		CreatedAt:        time.Now().UTC(),
	}
}

func TestCreateGetRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newJob(core.JobStatusPending)
	require.NoError(t, store.Create(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "benchy.stl", got.OriginalFilename)
	assert.Equal(t, core.JobStatusPending, got.Status)
	assert.Equal(t, 0.15, got.FillDensity)
	assert.True(t, got.EnableSupports)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Error)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestClaimPendingOnlyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newJob(core.JobStatusPending)
	require.NoError(t, store.Create(ctx, job))

	claimed, err := store.ClaimPending(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	again, err := store.ClaimPending(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, again, "a processing job must not be claimable")

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusProcessing, got.Status)
	assert.NotNil(t, got.StartedAt)
}

func TestMarkCompletedStoresResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newJob(core.JobStatusPending)
	require.NoError(t, store.Create(ctx, job))
	_, err := store.ClaimPending(ctx, job.ID)
	require.NoError(t, err)

	result := &core.JobResult{
		FilamentUsedG: 4.11,
		EstimatedTime: "1h 32m 17s",
		HasSupports:   true,
		Size:          core.ModelSize{X: 60, Y: 31, Z: 48},
		VolumeCM3:     15.63,
		FillDensity:   0.15,
		PriceInfo:     pricing.PriceInfo{TotalPrice: 12.34, BasePrice: 9.0},
	}
	require.NoError(t, store.MarkCompleted(ctx, job.ID, result))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 4.11, got.Result.FilamentUsedG)
	assert.Equal(t, 12.34, got.Result.PriceInfo.TotalPrice)
	assert.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestMarkFailedClearsResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newJob(core.JobStatusPending)
	require.NoError(t, store.Create(ctx, job))
	require.NoError(t, store.MarkFailed(ctx, job.ID, "model is too large to print"))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusFailed, got.Status)
	assert.Equal(t, "model is too large to print", got.Error)
	assert.Nil(t, got.Result)
}

func TestApproveRequiresCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, status := range []core.JobStatus{
		core.JobStatusPending,
		core.JobStatusProcessing,
		core.JobStatusFailed,
		core.JobStatusApproved,
		core.JobStatusRejected,
	} {
		job := newJob(status)
		require.NoError(t, store.Create(ctx, job))
		_, err := store.Approve(ctx, job.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition, "approve from %s", status)
	}

	job := newJob(core.JobStatusCompleted)
	require.NoError(t, store.Create(ctx, job))
	got, err := store.Approve(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusApproved, got.Status)
	assert.NotNil(t, got.ApprovedAt)
	assert.Nil(t, got.RejectedAt)

	// Terminal: approving again fails.
	_, err = store.Approve(ctx, job.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectRequiresCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := newJob(core.JobStatusCompleted)
	require.NoError(t, store.Create(ctx, job))
	got, err := store.Reject(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusRejected, got.Status)
	assert.NotNil(t, got.RejectedAt)

	pending := newJob(core.JobStatusPending)
	require.NoError(t, store.Create(ctx, pending))
	_, err = store.Reject(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveMissingJob(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Approve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestPendingIDsFIFO(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	var want []string
	for i := 0; i < 3; i++ {
		job := newJob(core.JobStatusPending)
		job.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Create(ctx, job))
		want = append(want, job.ID)
	}
	done := newJob(core.JobStatusCompleted)
	require.NoError(t, store.Create(ctx, done))

	ids, err := store.PendingIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, want, ids)
}

func TestResetProcessing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stuck := newJob(core.JobStatusPending)
	require.NoError(t, store.Create(ctx, stuck))
	_, err := store.ClaimPending(ctx, stuck.ID)
	require.NoError(t, err)

	done := newJob(core.JobStatusCompleted)
	require.NoError(t, store.Create(ctx, done))

	require.NoError(t, store.ResetProcessing(ctx))

	got, err := store.Get(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusPending, got.Status)
	assert.Nil(t, got.StartedAt)

	untouched, err := store.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusCompleted, untouched.Status)
}

func TestPruneTerminalKeepsQueuedWork(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)

	oldPending := newJob(core.JobStatusPending)
	oldPending.CreatedAt = old
	oldFailed := newJob(core.JobStatusFailed)
	oldFailed.CreatedAt = old
	oldApproved := newJob(core.JobStatusApproved)
	oldApproved.CreatedAt = old
	freshFailed := newJob(core.JobStatusFailed)

	for _, j := range []*core.Job{oldPending, oldFailed, oldApproved, freshFailed} {
		require.NoError(t, store.Create(ctx, j))
	}

	n, err := store.PruneTerminal(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Get(ctx, oldPending.ID)
	assert.NoError(t, err, "pending jobs must never be pruned")
	_, err = store.Get(ctx, freshFailed.ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, oldFailed.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	first := newJob(core.JobStatusPending)
	first.CreatedAt = base.Add(-time.Minute)
	second := newJob(core.JobStatusPending)
	second.CreatedAt = base

	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}
