package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Record(Entry{
		Tool:     "query_clinical_records",
		Query:    "DELETE FROM Patients",
		Verdict:  VerdictRejected,
		Reason:   "disallowed-statement",
		Duration: 2 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "query_clinical_records", e.Tool)
	assert.Equal(t, "DELETE FROM Patients", e.Query)
	assert.Equal(t, VerdictRejected, e.Verdict)
	assert.Equal(t, "disallowed-statement", e.Reason)
	assert.Equal(t, 2*time.Millisecond, e.Duration)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecent_NewestFirst(t *testing.T) {
	store := openTestStore(t)

	first, err := store.Record(Entry{Tool: "query_knowledge_graph", Query: "MATCH (n) RETURN n", Verdict: VerdictAccepted})
	require.NoError(t, err)
	second, err := store.Record(Entry{Tool: "query_knowledge_graph", Query: "MATCH (m) RETURN m", Verdict: VerdictAccepted})
	require.NoError(t, err)

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second, entries[0].ID)
	assert.Equal(t, first, entries[1].ID)
}

func TestRecent_Limit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := store.Record(Entry{Tool: "list_clinical_tables", Query: "", Verdict: VerdictAccepted})
		require.NoError(t, err)
	}

	entries, err := store.Recent(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// zero means the default page size
	entries, err = store.Recent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Record(Entry{Tool: "query_clinical_records", Query: "SELECT 1", Verdict: VerdictAccepted})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
