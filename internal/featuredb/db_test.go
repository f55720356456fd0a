package featuredb

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/canbus-data/treemem/internal/canfeat"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err, "failed to open test db")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "failed to close test db")
	})
	return db
}

func TestOpenAppliesMigrations(t *testing.T) {
	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	require.False(t, dirty, "schema is dirty after open")
	require.Equal(t, uint(2), version)
}

func TestRecordAndReadBack(t *testing.T) {
	db := openTestDB(t)

	session, err := db.BeginSession("capture.csv")
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	attack := 1
	vectors := []StoredVector{
		{Seq: 0, Vector: canfeat.Vector{ArbIDDec: 844, DataLength: 16, FirstByte: 242, LastByte: 160, ByteSum: 879}},
		{Seq: 1, Vector: canfeat.Vector{ArbIDDec: 199, DataLength: 8, ByteSum: 13, TimeDelta: 0.002}, Predicted: &attack},
	}
	for _, sv := range vectors {
		require.NoError(t, db.RecordVector(session.ID, sv.Seq, sv.Vector, sv.Predicted))
	}

	got, err := db.SessionVectors(session.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(vectors, got); diff != "" {
		t.Errorf("vectors mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	db := openTestDB(t)

	a, err := db.BeginSession("a.csv")
	require.NoError(t, err)
	b, err := db.BeginSession("b.csv")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID, "sessions share an id")

	require.NoError(t, db.RecordVector(a.ID, 0, canfeat.Vector{ArbIDDec: 1}, nil))

	got, err := db.SessionVectors(b.ID)
	require.NoError(t, err)
	require.Empty(t, got, "session b should have no vectors")

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
}

func TestDuplicateSeqRejected(t *testing.T) {
	db := openTestDB(t)
	session, err := db.BeginSession("dup.csv")
	require.NoError(t, err)
	require.NoError(t, db.RecordVector(session.ID, 0, canfeat.Vector{}, nil))
	require.Error(t, db.RecordVector(session.ID, 0, canfeat.Vector{}, nil),
		"duplicate (session, seq) accepted")
}
