package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

const sqliteSelectEventColumns = `SELECT id, user_id, action, recorded_at, latitude, longitude, accuracy_m, captured_at, sequence, token, created_at
          FROM attendance_events`

// SQLiteAttendanceStore is the single-node backend. The handle is opened
// with one connection, so appends serialize without table locks biting.
type SQLiteAttendanceStore struct {
	db *sql.DB
}

func NewSQLiteAttendanceStore(db *sql.DB) *SQLiteAttendanceStore {
	return &SQLiteAttendanceStore{db: db}
}

// Init creates the attendance tables when they do not exist yet.
func (s *SQLiteAttendanceStore) Init(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS attendance_events (
		     id TEXT PRIMARY KEY,
		     user_id TEXT NOT NULL,
		     action TEXT NOT NULL,
		     recorded_at TEXT NOT NULL,
		     latitude REAL,
		     longitude REAL,
		     accuracy_m REAL,
		     captured_at TEXT,
		     sequence INTEGER NOT NULL,
		     token TEXT NOT NULL,
		     created_at TEXT NOT NULL,
		     UNIQUE (user_id, sequence),
		     UNIQUE (token)
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_events_user_recorded
		     ON attendance_events (user_id, recorded_at)`,
		`CREATE TABLE IF NOT EXISTS shift_notes (
		     id TEXT PRIMARY KEY,
		     user_id TEXT NOT NULL,
		     noted_on TEXT NOT NULL,
		     text TEXT NOT NULL,
		     created_at TEXT NOT NULL
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_shift_notes_user_created
		     ON shift_notes (user_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classifySQLiteError("init attendance schema", err)
		}
	}
	return nil
}

func (s *SQLiteAttendanceStore) Append(ctx context.Context, event *models.AttendanceEvent) (*models.AttendanceEvent, error) {
	existing, err := s.getByToken(ctx, event.Token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var lat, lon, acc interface{}
	var capturedAt interface{}
	if event.Location != nil {
		lat = event.Location.Latitude
		lon = event.Location.Longitude
		if event.Location.AccuracyMeters != nil {
			acc = *event.Location.AccuracyMeters
		}
		capturedAt = sqliteTime(event.Location.CapturedAt)
	}

	stored := cloneEvent(event)
	stored.CreatedAt = time.Now().UTC()

	query := `INSERT INTO attendance_events
	          (id, user_id, action, recorded_at, latitude, longitude, accuracy_m, captured_at, sequence, token, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		string(event.Action),
		sqliteTime(event.RecordedAt),
		lat,
		lon,
		acc,
		capturedAt,
		event.Sequence,
		event.Token,
		sqliteTime(stored.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if strings.Contains(err.Error(), ".token") {
				return s.getByToken(ctx, event.Token)
			}
			return nil, fmt.Errorf("append event for user %s: sequence %d already taken: %w",
				event.UserID, event.Sequence, ErrMalformed)
		}
		return nil, classifySQLiteError("append event", err)
	}
	return stored, nil
}

func (s *SQLiteAttendanceStore) LastEvent(ctx context.Context, userID string) (*models.AttendanceEvent, error) {
	query := sqliteSelectEventColumns + `
	          WHERE user_id = ?
	          ORDER BY sequence DESC
	          LIMIT 1`

	return scanSQLiteEvent(s.db.QueryRowContext(ctx, query, userID))
}

func (s *SQLiteAttendanceStore) RecentEvents(ctx context.Context, userID string, limit int) ([]*models.AttendanceEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := sqliteSelectEventColumns + `
	          WHERE user_id = ?
	          ORDER BY sequence DESC
	          LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, classifySQLiteError("query recent events", err)
	}
	defer rows.Close()

	return collectSQLiteEvents(rows)
}

func (s *SQLiteAttendanceStore) EventsSince(ctx context.Context, userID string, since time.Time) ([]*models.AttendanceEvent, error) {
	query := sqliteSelectEventColumns + `
	          WHERE user_id = ? AND recorded_at >= ?
	          ORDER BY sequence ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, sqliteTime(since))
	if err != nil {
		return nil, classifySQLiteError("query events since", err)
	}
	defer rows.Close()

	return collectSQLiteEvents(rows)
}

func (s *SQLiteAttendanceStore) AppendNote(ctx context.Context, note *models.ShiftNote) error {
	createdAt := time.Now().UTC()
	query := `INSERT INTO shift_notes (id, user_id, noted_on, text, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, note.ID, note.UserID, note.NotedOn, note.Text, sqliteTime(createdAt))
	if err != nil {
		return classifySQLiteError("append note", err)
	}
	note.CreatedAt = createdAt
	return nil
}

func (s *SQLiteAttendanceStore) NotesSince(ctx context.Context, userID string, since time.Time) ([]*models.ShiftNote, error) {
	query := `SELECT id, user_id, noted_on, text, created_at
	          FROM shift_notes
	          WHERE user_id = ? AND created_at >= ?
	          ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, sqliteTime(since))
	if err != nil {
		return nil, classifySQLiteError("query notes", err)
	}
	defer rows.Close()

	var notes []*models.ShiftNote
	for rows.Next() {
		var note models.ShiftNote
		var createdAt string
		if err := rows.Scan(&note.ID, &note.UserID, &note.NotedOn, &note.Text, &createdAt); err != nil {
			return nil, classifySQLiteError("scan note", err)
		}
		t, err := parseSQLiteTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("note %s: bad created_at: %w", note.ID, ErrMalformed)
		}
		note.CreatedAt = t
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError("iterate notes", err)
	}
	return notes, nil
}

func (s *SQLiteAttendanceStore) getByToken(ctx context.Context, token string) (*models.AttendanceEvent, error) {
	query := sqliteSelectEventColumns + ` WHERE token = ?`
	return scanSQLiteEvent(s.db.QueryRowContext(ctx, query, token))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEvent(row rowScanner) (*models.AttendanceEvent, error) {
	var event models.AttendanceEvent
	var action, recordedAt, createdAt string
	var lat, lon, acc sql.NullFloat64
	var capturedAt sql.NullString

	err := row.Scan(
		&event.ID,
		&event.UserID,
		&action,
		&recordedAt,
		&lat,
		&lon,
		&acc,
		&capturedAt,
		&event.Sequence,
		&event.Token,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifySQLiteError("scan event", err)
	}

	event.Action = models.Action(action)
	if event.RecordedAt, err = parseSQLiteTime(recordedAt); err != nil {
		return nil, fmt.Errorf("event %s: bad recorded_at: %w", event.ID, ErrMalformed)
	}
	if event.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("event %s: bad created_at: %w", event.ID, ErrMalformed)
	}

	if lat.Valid && lon.Valid {
		event.Location = &models.LocationSample{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
		}
		if acc.Valid {
			event.Location.AccuracyMeters = &acc.Float64
		}
		if capturedAt.Valid {
			t, err := parseSQLiteTime(capturedAt.String)
			if err != nil {
				return nil, fmt.Errorf("event %s: bad captured_at: %w", event.ID, ErrMalformed)
			}
			event.Location.CapturedAt = t
		}
	}
	return &event, nil
}

func collectSQLiteEvents(rows *sql.Rows) ([]*models.AttendanceEvent, error) {
	var events []*models.AttendanceEvent
	for rows.Next() {
		event, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError("iterate events", err)
	}
	return events, nil
}

// sqliteTime renders timestamps in a fixed, lexically sortable form so
// range queries over TEXT columns compare correctly.
func sqliteTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func classifySQLiteError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "busy"):
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	case strings.Contains(msg, "readonly"), strings.Contains(msg, "permission"):
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	case strings.Contains(msg, "constraint"), strings.Contains(msg, "malformed"), strings.Contains(msg, "no such"):
		return fmt.Errorf("%s: %w: %v", op, ErrMalformed, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
}
