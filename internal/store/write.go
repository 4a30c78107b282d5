package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
)

// ErrRunExists is returned by BeginRun for a run id that is already stored.
var ErrRunExists = errors.New("run already exists")

// BeginRun registers a run with the journal schema it records against.
func (s *Store) BeginRun(ctx context.Context, runID string, startedAt time.Time, schema []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, schema_json)
		VALUES (?, ?, ?)
	`,
		runID,
		startedAt.UnixMicro(),
		string(schema),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("begin run %s: %w", runID, ErrRunExists)
	}
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

// WriteRecords appends change records to a run in one transaction.
//
// Note: The run must exist (foreign key constraint).
func (s *Store) WriteRecords(ctx context.Context, runID string, records []journal.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, timestamp_us, group_id, entry_id, data)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write records: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, runID, int64(r.Timestamp), r.Group, r.Entry, r.Data[:]); err != nil {
			return fmt.Errorf("write records: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write records: commit: %w", err)
	}
	return nil
}

// AddDropped adds n to the dropped-record counter of a run.
func (s *Store) AddDropped(ctx context.Context, runID string, n uint64) error {
	if n == 0 {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET dropped = dropped + ? WHERE id = ?`, int64(n), runID)
	if err != nil {
		return fmt.Errorf("add dropped: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("add dropped: %w", ErrRunNotFound)
	}
	return nil
}
