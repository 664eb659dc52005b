package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

const selectEventColumns = `SELECT id, user_id, action, recorded_at, latitude, longitude, accuracy_m, captured_at, sequence, token, created_at
          FROM attendance_events`

type PostgresAttendanceStore struct {
	pool *pgxpool.Pool
}

func NewPostgresAttendanceStore(pool *pgxpool.Pool) *PostgresAttendanceStore {
	return &PostgresAttendanceStore{pool: pool}
}

// Init creates the attendance tables when they do not exist yet.
func (r *PostgresAttendanceStore) Init(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS attendance_events (
		     id TEXT PRIMARY KEY,
		     user_id TEXT NOT NULL,
		     action TEXT NOT NULL,
		     recorded_at TIMESTAMPTZ NOT NULL,
		     latitude DOUBLE PRECISION,
		     longitude DOUBLE PRECISION,
		     accuracy_m DOUBLE PRECISION,
		     captured_at TIMESTAMPTZ,
		     sequence BIGINT NOT NULL,
		     token TEXT NOT NULL,
		     created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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
		     created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_shift_notes_user_created
		     ON shift_notes (user_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return classifyStoreError("init attendance schema", err)
		}
	}
	return nil
}

// Append commits an event. A token that was already committed returns the
// stored row unchanged, which makes retries safe.
func (r *PostgresAttendanceStore) Append(ctx context.Context, event *models.AttendanceEvent) (*models.AttendanceEvent, error) {
	existing, err := r.getByToken(ctx, event.Token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	query := `INSERT INTO attendance_events
	          (id, user_id, action, recorded_at, latitude, longitude, accuracy_m, captured_at, sequence, token)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at`

	var lat, lon, acc *float64
	var capturedAt *time.Time
	if event.Location != nil {
		lat = &event.Location.Latitude
		lon = &event.Location.Longitude
		acc = event.Location.AccuracyMeters
		capturedAt = &event.Location.CapturedAt
	}

	stored := *event
	err = r.pool.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		string(event.Action),
		event.RecordedAt,
		lat,
		lon,
		acc,
		capturedAt,
		event.Sequence,
		event.Token,
	).Scan(&stored.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "token") {
				// Lost a race against our own retry; the row is there now.
				return r.getByToken(ctx, event.Token)
			}
			return nil, fmt.Errorf("append event for user %s: sequence %d already taken: %w",
				event.UserID, event.Sequence, ErrMalformed)
		}
		return nil, classifyStoreError("append event", err)
	}
	return &stored, nil
}

func (r *PostgresAttendanceStore) LastEvent(ctx context.Context, userID string) (*models.AttendanceEvent, error) {
	query := selectEventColumns + `
	          WHERE user_id = $1
	          ORDER BY sequence DESC
	          LIMIT 1`

	return scanEvent(r.pool.QueryRow(ctx, query, userID))
}

func (r *PostgresAttendanceStore) RecentEvents(ctx context.Context, userID string, limit int) ([]*models.AttendanceEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := selectEventColumns + `
	          WHERE user_id = $1
	          ORDER BY sequence DESC
	          LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, classifyStoreError("query recent events", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *PostgresAttendanceStore) EventsSince(ctx context.Context, userID string, since time.Time) ([]*models.AttendanceEvent, error) {
	query := selectEventColumns + `
	          WHERE user_id = $1 AND recorded_at >= $2
	          ORDER BY sequence ASC`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, classifyStoreError("query events since", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *PostgresAttendanceStore) AppendNote(ctx context.Context, note *models.ShiftNote) error {
	query := `INSERT INTO shift_notes (id, user_id, noted_on, text)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, note.ID, note.UserID, note.NotedOn, note.Text).
		Scan(&note.CreatedAt)
	if err != nil {
		return classifyStoreError("append note", err)
	}
	return nil
}

func (r *PostgresAttendanceStore) NotesSince(ctx context.Context, userID string, since time.Time) ([]*models.ShiftNote, error) {
	query := `SELECT id, user_id, noted_on, text, created_at
	          FROM shift_notes
	          WHERE user_id = $1 AND created_at >= $2
	          ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, classifyStoreError("query notes", err)
	}
	defer rows.Close()

	var notes []*models.ShiftNote
	for rows.Next() {
		var note models.ShiftNote
		if err := rows.Scan(&note.ID, &note.UserID, &note.NotedOn, &note.Text, &note.CreatedAt); err != nil {
			return nil, classifyStoreError("scan note", err)
		}
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("iterate notes", err)
	}
	return notes, nil
}

func (r *PostgresAttendanceStore) getByToken(ctx context.Context, token string) (*models.AttendanceEvent, error) {
	query := selectEventColumns + ` WHERE token = $1`
	return scanEvent(r.pool.QueryRow(ctx, query, token))
}

func scanEvent(row pgx.Row) (*models.AttendanceEvent, error) {
	var event models.AttendanceEvent
	var action string
	var lat, lon, acc *float64
	var capturedAt *time.Time

	err := row.Scan(
		&event.ID,
		&event.UserID,
		&action,
		&event.RecordedAt,
		&lat,
		&lon,
		&acc,
		&capturedAt,
		&event.Sequence,
		&event.Token,
		&event.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifyStoreError("scan event", err)
	}

	event.Action = models.Action(action)
	if lat != nil && lon != nil {
		event.Location = &models.LocationSample{
			Latitude:       *lat,
			Longitude:      *lon,
			AccuracyMeters: acc,
		}
		if capturedAt != nil {
			event.Location.CapturedAt = *capturedAt
		}
	}
	return &event, nil
}

func collectEvents(rows pgx.Rows) ([]*models.AttendanceEvent, error) {
	var events []*models.AttendanceEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("iterate events", err)
	}
	return events, nil
}

// classifyStoreError folds driver errors into the store error taxonomy.
// Errors the server answered with are only retryable for known transient
// classes; errors that never reached the server count as unavailable.
func classifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501", strings.HasPrefix(pgErr.Code, "28"):
			return fmt.Errorf("%s: %w: %s", op, ErrPermissionDenied, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "53"),
			strings.HasPrefix(pgErr.Code, "57"),
			pgErr.Code == "40001",
			pgErr.Code == "40P01":
			return fmt.Errorf("%s: %w: %s", op, ErrUnavailable, pgErr.Message)
		default:
			return fmt.Errorf("%s: %w: %s", op, ErrMalformed, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
