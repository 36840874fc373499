package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"yt-clipper/internal/logging"
	"yt-clipper/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database stores the clip-job history. Only job metadata is persisted;
// source videos and produced clips never touch the database.
type Database struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the job-history database at dbPath. The parent
// directory must already exist and be writable; startup.LoadConfig
// validates that before this is called.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// WAL keeps readers unblocked while jobs append history rows;
	// busy_timeout avoids "database is locked" under concurrent jobs.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS clip_jobs (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		start_seconds REAL NOT NULL,
		duration_seconds REAL NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		bytes_sent INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		completed_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_clip_jobs_video_id ON clip_jobs(video_id);
	CREATE INDEX IF NOT EXISTS idx_clip_jobs_created_at ON clip_jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_clip_jobs_status ON clip_jobs(status);
	`

	start := time.Now()
	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(initCtx, schema)
	observeQuery("initialize_schema", start, err)
	return err
}

// Close closes the underlying database handle.
func (d *Database) Close() error {
	return d.db.Close()
}

// observeQuery records query metrics for one operation.
func observeQuery(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(op, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
