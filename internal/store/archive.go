package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
)

// Archiver defaults.
const (
	DefaultArchiveBuffer = 4096
	DefaultArchiveBatch  = 256
	DefaultFlushInterval = 250 * time.Millisecond
)

// Archiver moves journal change records from the tick into the store.
//
// Record is called from the tick and never blocks: records that do not fit
// into the buffer are counted as dropped. Run drains the buffer on its own
// goroutine and writes batches.
//
// Thread-safety: Record and Dropped are safe from any goroutine; Run must
// be called once.
type Archiver struct {
	store    *Store
	runID    string
	records  chan journal.Record
	batch    int
	interval time.Duration
	logger   *slog.Logger

	dropped atomic.Uint64
	written atomic.Uint64
}

// ArchiverOption configures an Archiver.
type ArchiverOption func(*Archiver)

// WithBuffer sets how many records may wait for the writer.
func WithBuffer(n int) ArchiverOption {
	return func(a *Archiver) {
		if n > 0 {
			a.records = make(chan journal.Record, n)
		}
	}
}

// WithBatchSize sets the maximum number of records per transaction.
func WithBatchSize(n int) ArchiverOption {
	return func(a *Archiver) {
		if n > 0 {
			a.batch = n
		}
	}
}

// WithFlushInterval sets how long a partial batch may wait.
func WithFlushInterval(d time.Duration) ArchiverOption {
	return func(a *Archiver) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithLogger sets the archiver logger.
func WithLogger(l *slog.Logger) ArchiverOption {
	return func(a *Archiver) {
		a.logger = l
	}
}

// NewArchiver creates an archiver writing into run runID, which must have
// been started with BeginRun.
func NewArchiver(s *Store, runID string, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		store:    s,
		runID:    runID,
		records:  make(chan journal.Record, DefaultArchiveBuffer),
		batch:    DefaultArchiveBatch,
		interval: DefaultFlushInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunID returns the run the archiver writes into.
func (a *Archiver) RunID() string { return a.runID }

// Record queues one change record without blocking.
func (a *Archiver) Record(r journal.Record) {
	select {
	case a.records <- r:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of records lost to a full buffer or a failed
// write.
func (a *Archiver) Dropped() uint64 { return a.dropped.Load() }

// Written returns the number of records committed to the store.
func (a *Archiver) Written() uint64 { return a.written.Load() }

// Run writes queued records until ctx is cancelled, then drains what is
// left, stores the drop count on the run and returns.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	pending := make([]journal.Record, 0, a.batch)
	flush := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		if err := a.store.WriteRecords(ctx, a.runID, pending); err != nil {
			a.logger.Error("archive write failed", "run", a.runID, "records", len(pending), "error", err)
			a.dropped.Add(uint64(len(pending)))
		} else {
			a.written.Add(uint64(len(pending)))
		}
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			final := context.WithoutCancel(ctx)
			for {
				select {
				case r := <-a.records:
					pending = append(pending, r)
					if len(pending) >= a.batch {
						flush(final)
					}
					continue
				default:
				}
				break
			}
			flush(final)
			if err := a.store.AddDropped(final, a.runID, a.dropped.Load()); err != nil {
				return err
			}
			a.logger.Info("archive closed", "run", a.runID, "written", a.Written(), "dropped", a.Dropped())
			return nil

		case r := <-a.records:
			pending = append(pending, r)
			if len(pending) >= a.batch {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)
		}
	}
}
