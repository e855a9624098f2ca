package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"printquote/internal/core"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// JobStore is the synchronized job record store shared by the HTTP handlers
// and the queue worker.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

const jobColumns = `id, filename, original_filename, status, material_id, color_id, quality_id,
	fill_density, enable_supports, error_message, result_json,
	created_at, started_at, completed_at, approved_at, rejected_at`

// Create inserts a new job row. The caller supplies ID and CreatedAt.
func (s *JobStore) Create(ctx context.Context, job *core.Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, filename, original_filename, status, material_id, color_id, quality_id,
			fill_density, enable_supports, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Filename, job.OriginalFilename, job.Status, job.MaterialID, job.ColorID,
		job.QualityID, job.FillDensity, job.EnableSupports, job.Error, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// Get returns the job with the given id, or ErrJobNotFound.
func (s *JobStore) Get(ctx context.Context, id string) (*core.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job: %w", err)
	}
	return job, nil
}

// List returns all jobs, newest first.
func (s *JobStore) List(ctx context.Context) ([]*core.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*core.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// PendingIDs returns queued job ids in FIFO order.
func (s *JobStore) PendingIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC, id LIMIT ?
	`, core.JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClaimPending moves a pending job to processing. It reports false when the
// job is not pending, which makes duplicate dispatch (channel + sweep) a
// harmless no-op.
func (s *JobStore) ClaimPending(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?
	`, core.JobStatusProcessing, time.Now().UTC(), id, core.JobStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// MarkCompleted stores the result and moves the job to completed.
func (s *JobStore) MarkCompleted(ctx context.Context, id string, result *core.JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, result_json = ?, error_message = '', completed_at = ? WHERE id = ?
	`, core.JobStatusCompleted, string(data), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// MarkFailed records the failure message and moves the job to failed.
func (s *JobStore) MarkFailed(ctx context.Context, id, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error_message = ?, result_json = NULL, completed_at = ? WHERE id = ?
	`, core.JobStatusFailed, message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// Approve moves a completed job to approved. Any other starting status is
// ErrInvalidTransition.
func (s *JobStore) Approve(ctx context.Context, id string) (*core.Job, error) {
	return s.finalize(ctx, id, core.JobStatusApproved, "approved_at")
}

// Reject moves a completed job to rejected.
func (s *JobStore) Reject(ctx context.Context, id string) (*core.Job, error) {
	return s.finalize(ctx, id, core.JobStatusRejected, "rejected_at")
}

func (s *JobStore) finalize(ctx context.Context, id string, status core.JobStatus, tsColumn string) (*core.Job, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, `+tsColumn+` = ? WHERE id = ? AND status = ?
	`, status, time.Now().UTC(), id, core.JobStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		// Distinguish missing jobs from ones in the wrong state.
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}
	return s.Get(ctx, id)
}

// ResetProcessing returns interrupted processing jobs to pending. Called once
// at startup, before the worker begins draining.
func (s *JobStore) ResetProcessing(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, started_at = NULL WHERE status = ?
	`, core.JobStatusPending, core.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to reset processing jobs: %w", err)
	}
	return nil
}

// PruneTerminal deletes failed/approved/rejected/completed jobs created before
// cutoff. Queued and in-flight work is never pruned.
func (s *JobStore) PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM jobs WHERE created_at < ? AND status IN (?, ?, ?, ?)
	`, cutoff, core.JobStatusCompleted, core.JobStatusFailed, core.JobStatusApproved, core.JobStatusRejected)
	if err != nil {
		return 0, fmt.Errorf("failed to prune jobs: %w", err)
	}
	return res.RowsAffected()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*core.Job, error) {
	var (
		job        core.Job
		resultJSON sql.NullString
		startedAt  sql.NullTime
		doneAt     sql.NullTime
		approvedAt sql.NullTime
		rejectedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.Filename, &job.OriginalFilename, &job.Status,
		&job.MaterialID, &job.ColorID, &job.QualityID,
		&job.FillDensity, &job.EnableSupports, &job.Error, &resultJSON,
		&job.CreatedAt, &startedAt, &doneAt, &approvedAt, &rejectedAt,
	)
	if err != nil {
		return nil, err
	}

	if resultJSON.Valid && resultJSON.String != "" {
		var result core.JobResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &result
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if doneAt.Valid {
		job.CompletedAt = &doneAt.Time
	}
	if approvedAt.Valid {
		job.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		job.RejectedAt = &rejectedAt.Time
	}
	return &job, nil
}
