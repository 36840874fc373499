package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ClipJob is one row of clip-extraction history.
type ClipJob struct {
	ID              string  `json:"id"`
	VideoID         string  `json:"videoId"`
	StartSeconds    float64 `json:"startSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
	Status          string  `json:"status"`
	Error           string  `json:"error,omitempty"`
	BytesSent       int64   `json:"bytesSent"`
	CreatedAt       int64   `json:"createdAt"`
	CompletedAt     int64   `json:"completedAt,omitempty"`
}

// JobStats summarizes the history table for health reporting.
type JobStats struct {
	TotalJobs     int `json:"totalJobs"`
	CompletedJobs int `json:"completedJobs"`
	FailedJobs    int `json:"failedJobs"`
}

// InsertJob records a newly started clip job.
func (d *Database) InsertJob(ctx context.Context, job ClipJob) error {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(opCtx,
		`INSERT INTO clip_jobs (id, video_id, start_seconds, duration_seconds, status, created_at)
		 VALUES (?, ?, ?, ?, ?, strftime('%s', 'now'))`,
		job.ID, job.VideoID, job.StartSeconds, job.DurationSeconds, job.Status,
	)
	observeQuery("insert_job", start, err)

	if err != nil {
		return fmt.Errorf("failed to insert clip job %s: %w", job.ID, err)
	}
	return nil
}

// FinishJob records the terminal outcome of a clip job.
func (d *Database) FinishJob(ctx context.Context, id, status, errMsg string, bytesSent int64) error {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(opCtx,
		`UPDATE clip_jobs
		 SET status = ?, error = ?, bytes_sent = ?, completed_at = strftime('%s', 'now')
		 WHERE id = ?`,
		status, errMsg, bytesSent, id,
	)
	observeQuery("finish_job", start, err)

	if err != nil {
		return fmt.Errorf("failed to finish clip job %s: %w", id, err)
	}
	return nil
}

// RecentJobs returns the most recent clip jobs, newest first.
func (d *Database) RecentJobs(ctx context.Context, limit int) ([]ClipJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(opCtx,
		`SELECT id, video_id, start_seconds, duration_seconds, status,
		        COALESCE(error, ''), bytes_sent, created_at, COALESCE(completed_at, 0)
		 FROM clip_jobs
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		limit,
	)
	observeQuery("recent_jobs", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ClipJob
	for rows.Next() {
		var j ClipJob
		if err := rows.Scan(&j.ID, &j.VideoID, &j.StartSeconds, &j.DurationSeconds,
			&j.Status, &j.Error, &j.BytesSent, &j.CreatedAt, &j.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan clip job: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// Stats returns summary counts over the job history.
func (d *Database) Stats(ctx context.Context) (JobStats, error) {
	start := time.Now()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats JobStats
	err := d.db.QueryRowContext(opCtx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN status = 'completed' THEN 1 END),
		        COUNT(CASE WHEN status LIKE '%_error' THEN 1 END)
		 FROM clip_jobs`,
	).Scan(&stats.TotalJobs, &stats.CompletedJobs, &stats.FailedJobs)
	observeQuery("job_stats", start, err)

	if err != nil && err != sql.ErrNoRows {
		return JobStats{}, fmt.Errorf("failed to query job stats: %w", err)
	}
	return stats, nil
}
