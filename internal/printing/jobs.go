package printing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

// Jobs owns the print_jobs bookkeeping: one row per order tracking the
// delivery of its kitchen ticket.
type Jobs struct {
	db *sql.DB
}

func NewJobs(db *sql.DB) *Jobs {
	return &Jobs{db: db}
}

// Create queues a fresh job for the order. Creation is idempotent so a
// duplicate dispatch request cannot reset an existing job's counters.
func (j *Jobs) Create(ctx context.Context, orderID string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO print_jobs (order_id, status, message) VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID, model.PrintQueued, "waiting for dispatch")
	if err != nil {
		return fmt.Errorf("insert print job: %w", err)
	}
	return nil
}

func (j *Jobs) Get(ctx context.Context, orderID string) (*model.PrintJob, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT order_id, status, attempts, last_attempt, last_success, message
		FROM print_jobs WHERE order_id = $1
	`, orderID)

	var job model.PrintJob
	if err := scanJob(row, &job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get print job: %w", err)
	}
	return &job, nil
}

// UpdateStatus applies a status change with its attempt bookkeeping:
// entering printing or failed increments attempts and stamps
// last_attempt; entering success stamps last_success and overwrites the
// message with the success text.
func (j *Jobs) UpdateStatus(ctx context.Context, orderID string, status model.PrintStatus, message string) (*model.PrintJob, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT order_id, status, attempts, last_attempt, last_success, message
		FROM print_jobs WHERE order_id = $1 FOR UPDATE
	`, orderID)

	var job model.PrintJob
	if err := scanJob(row, &job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("lock print job: %w", err)
	}

	job.ApplyStatus(status, message, time.Now())

	_, err = tx.ExecContext(ctx, `
		UPDATE print_jobs
		SET status = $2, attempts = $3, last_attempt = $4, last_success = $5, message = $6
		WHERE order_id = $1
	`, job.OrderID, job.Status, job.Attempts, job.LastAttempt, job.LastSuccess, job.Message)
	if err != nil {
		return nil, fmt.Errorf("update print job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &job, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner, job *model.PrintJob) error {
	var lastAttempt, lastSuccess sql.NullTime
	if err := row.Scan(&job.OrderID, &job.Status, &job.Attempts, &lastAttempt, &lastSuccess, &job.Message); err != nil {
		return err
	}
	if lastAttempt.Valid {
		job.LastAttempt = &lastAttempt.Time
	}
	if lastSuccess.Valid {
		job.LastSuccess = &lastSuccess.Time
	}
	return nil
}
