package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
)

// ErrRunNotFound is returned when a run id is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// Run is one archived controller run.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Schema    string    `json:"-"`
	Records   int64     `json:"records"`
	Dropped   int64     `json:"dropped"`
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	RunID string
	Group uint32
	Entry uint32

	// Since keeps records with a timestamp at or after this time (µs).
	Since uint64

	// Limit caps the number of records; 0 means no limit.
	Limit int
}

// Runs returns all runs, oldest first.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.schema_json, r.dropped, COUNT(x.id)
		FROM runs r
		LEFT JOIN records x ON x.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.started_at, r.schema_json, r.dropped,
		       (SELECT COUNT(*) FROM records x WHERE x.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC, r.id COLLATE BINARY DESC
		LIMIT 1
	`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		started int64
	)
	if err := row.Scan(&run.ID, &started, &run.Schema, &run.Dropped, &run.Records); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.UnixMicro(started).UTC()
	return run, nil
}

// ReadRecords returns the records matching f in insertion order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadRecords(ctx context.Context, f Filter) ([]journal.Record, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Group != 0 {
		where = append(where, "group_id = ?")
		args = append(args, f.Group)
	}
	if f.Entry != 0 {
		where = append(where, "entry_id = ?")
		args = append(args, f.Entry)
	}
	if f.Since != 0 {
		where = append(where, "timestamp_us >= ?")
		args = append(args, int64(f.Since))
	}

	query := "SELECT timestamp_us, group_id, entry_id, data FROM records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []journal.Record{}
	for rows.Next() {
		var (
			r    journal.Record
			ts   int64
			data []byte
		)
		if err := rows.Scan(&ts, &r.Group, &r.Entry, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Timestamp = uint64(ts)
		copy(r.Data[:], data)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
