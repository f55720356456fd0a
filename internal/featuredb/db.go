// Package featuredb persists extraction sessions and their feature vectors to
// sqlite. Recording is optional in the pipeline; when enabled it gives every
// frame sent to the hardware a replayable paper trail.
package featuredb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/canbus-data/treemem/internal/canfeat"
)

type DB struct {
	*sql.DB
}

// Open opens (or creates) the feature store at path and applies any pending
// schema migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature store: %w", err)
	}
	store := &DB{db}
	if err := store.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Session is one extraction run over a single record stream.
type Session struct {
	ID        string
	Source    string
	StartedAt time.Time
}

// BeginSession registers a new extraction session for the named source
// (typically the capture file path or serial device).
func (db *DB) BeginSession(source string) (Session, error) {
	s := Session{ID: uuid.New().String(), Source: source, StartedAt: time.Now().UTC()}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, source, started_at) VALUES (?, ?, ?)`,
		s.ID, s.Source, s.StartedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to begin session: %w", err)
	}
	return s, nil
}

// StoredVector is one recorded feature vector with its position in the stream
// and the label the software tree model assigned, if any.
type StoredVector struct {
	Seq       int64
	Vector    canfeat.Vector
	Predicted *int
}

// RecordVector stores one extracted vector under a session. seq is the
// zero-based record position in the stream; predicted may be nil when no
// classification ran.
func (db *DB) RecordVector(sessionID string, seq int64, v canfeat.Vector, predicted *int) error {
	_, err := db.Exec(
		`INSERT INTO feature_vectors (
			session_id, seq, arb_id_dec, data_length, first_byte, last_byte,
			byte_sum, time_delta, predicted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, seq, v.ArbIDDec, v.DataLength, v.FirstByte, v.LastByte,
		v.ByteSum, v.TimeDelta, predicted,
	)
	if err != nil {
		return fmt.Errorf("failed to record vector: %w", err)
	}
	return nil
}

// SessionVectors returns a session's vectors in stream order.
func (db *DB) SessionVectors(sessionID string) ([]StoredVector, error) {
	rows, err := db.Query(
		`SELECT seq, arb_id_dec, data_length, first_byte, last_byte, byte_sum,
			time_delta, predicted
		FROM feature_vectors WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var out []StoredVector
	for rows.Next() {
		var sv StoredVector
		var predicted sql.NullInt64
		err := rows.Scan(&sv.Seq, &sv.Vector.ArbIDDec, &sv.Vector.DataLength,
			&sv.Vector.FirstByte, &sv.Vector.LastByte, &sv.Vector.ByteSum,
			&sv.Vector.TimeDelta, &predicted)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vector: %w", err)
		}
		if predicted.Valid {
			p := int(predicted.Int64)
			sv.Predicted = &p
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// Sessions lists all sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`SELECT session_id, source, started_at FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Source, &s.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
