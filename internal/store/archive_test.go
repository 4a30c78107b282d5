package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiver_WritesBatchesAndDrainsOnStop(t *testing.T) {
	s := createTestStore(t)
	beginTestRun(t, s, "run-1", time.Unix(1, 0))
	a := NewArchiver(s, "run-1",
		WithBatchSize(3),
		WithFlushInterval(time.Hour),
		WithLogger(quietLogger()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	for i := 0; i < 7; i++ {
		a.Record(rec(uint64(i), 10, 3, byte(i)))
	}
	require.Eventually(t, func() bool { return a.Written() == 6 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	records, err := s.ReadRecords(context.Background(), Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, records, 7)
	for i, r := range records {
		assert.Equal(t, uint64(i), r.Timestamp)
	}
	assert.Equal(t, uint64(0), a.Dropped())
}

func TestArchiver_FlushesOnInterval(t *testing.T) {
	s := createTestStore(t)
	beginTestRun(t, s, "run-1", time.Unix(1, 0))
	a := NewArchiver(s, "run-1", WithFlushInterval(10*time.Millisecond), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	a.Record(rec(1, 1, 1, 1))
	assert.Eventually(t, func() bool { return a.Written() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestArchiver_CountsDrops(t *testing.T) {
	s := createTestStore(t)
	beginTestRun(t, s, "run-1", time.Unix(1, 0))
	a := NewArchiver(s, "run-1", WithBuffer(2), WithLogger(quietLogger()))

	// Nothing drains the buffer yet.
	a.Record(rec(1, 1, 1, 1))
	a.Record(rec(2, 1, 1, 2))
	a.Record(rec(3, 1, 1, 3))
	assert.Equal(t, uint64(1), a.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.Run(ctx))

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(2), runs[0].Records)
	assert.Equal(t, int64(1), runs[0].Dropped)
}
