package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// beginTestRun starts a run with a fixed schema.
func beginTestRun(t *testing.T, s *Store, id string, started time.Time) {
	t.Helper()
	require.NoError(t, s.BeginRun(testContext(t), id, started, []byte(`{"schema":"test"}`)))
}

// rec builds a change record whose first data byte is v.
func rec(ts uint64, group, entry uint16, v byte) journal.Record {
	return journal.Record{Timestamp: ts, Group: group, Entry: entry, Data: [8]byte{v}}
}

// verifyPragma checks that a pragma reads back as expected.
func verifyPragma(t *testing.T, s *Store, name, expected string) {
	t.Helper()
	var value string
	require.NoError(t, s.db.QueryRow("PRAGMA "+name).Scan(&value))
	assert.Equal(t, expected, value, "PRAGMA %s", name)
}
