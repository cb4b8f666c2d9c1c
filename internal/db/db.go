// Package db persists analysis sessions and their gait rows to SQLite.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/gait"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the SQLite database at path and applies all
// pending migrations.
func NewDB(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqldb}
	if err := db.MigrateUp(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Session is one recorded analysis session. EndedAt and the summary fields
// are nil until the session finishes.
type Session struct {
	ID           string     `json:"session_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	BeltSpeedMPS float64    `json:"belt_speed_mps"`
	Facing       *string    `json:"facing,omitempty"`
	Quality      *string    `json:"quality,omitempty"`
	QualityRatio *float64   `json:"quality_ratio,omitempty"`
	Steps        int        `json:"steps"`
}

// CreateSession records the start of a session.
func (db *DB) CreateSession(id string, startedAt time.Time, beltSpeedMPS float64) error {
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, started_at, belt_speed_mps) VALUES (?, ?, ?)`,
		id, startedAt, beltSpeedMPS,
	)
	return err
}

// FinishSession stamps the session end and its summary fields.
func (db *DB) FinishSession(id string, endedAt time.Time, facing, quality string, qualityRatio float64, steps int) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_at = ?, facing = ?, quality = ?, quality_ratio = ?, steps = ?
		 WHERE session_id = ?`,
		endedAt, facing, quality, qualityRatio, steps, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %q not found", id)
	}
	return nil
}

// Sessions returns the most recent sessions, newest first.
func (db *DB) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT session_id, started_at, ended_at, belt_speed_mps, facing, quality, quality_ratio, steps
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var endedAt sql.NullTime
		var facing, quality sql.NullString
		var ratio sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.StartedAt, &endedAt, &s.BeltSpeedMPS, &facing, &quality, &ratio, &s.Steps); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			s.EndedAt = &endedAt.Time
		}
		if facing.Valid {
			s.Facing = &facing.String
		}
		if quality.Valid {
			s.Quality = &quality.String
		}
		if ratio.Valid {
			s.QualityRatio = &ratio.Float64
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RecordGaitRow appends one strike row to a session. Seq is the row's
// position within the session; strikeMs is the capture timestamp of the
// strike frame.
func (db *DB) RecordGaitRow(sessionID string, seq int, strikeMs float64, r gait.GaitRow) error {
	_, err := db.Exec(
		`INSERT INTO gait_rows (
			session_id, seq, side, strike_ms,
			step_time_ms, step_len_m, stride_time_ms, stride_len_m, stride_freq_hz
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, seq, r.Label, strikeMs,
		nullable(r.StepTimeMs), nullable(r.StepLenM),
		nullable(r.StrideTimeMs), nullable(r.StrideLenM), nullable(r.StrideFreqHz),
	)
	return err
}

// GaitRows returns a session's rows in strike order.
func (db *DB) GaitRows(sessionID string) ([]gait.GaitRow, error) {
	rows, err := db.Query(
		`SELECT side, step_time_ms, step_len_m, stride_time_ms, stride_len_m, stride_freq_hz
		 FROM gait_rows WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gait.GaitRow
	for rows.Next() {
		var r gait.GaitRow
		var stepTime, stepLen, strideTime, strideLen, strideFreq sql.NullFloat64
		if err := rows.Scan(&r.Label, &stepTime, &stepLen, &strideTime, &strideLen, &strideFreq); err != nil {
			return nil, err
		}
		r.StepTimeMs = fromNullable(stepTime)
		r.StepLenM = fromNullable(stepLen)
		r.StrideTimeMs = fromNullable(strideTime)
		r.StrideLenM = fromNullable(strideLen)
		r.StrideFreqHz = fromNullable(strideFreq)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
