package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

type SQLiteProfileStore struct {
	db *sql.DB
}

func NewSQLiteProfileStore(db *sql.DB) *SQLiteProfileStore {
	return &SQLiteProfileStore{db: db}
}

// Init creates the profiles table when it does not exist yet.
func (s *SQLiteProfileStore) Init(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS profiles (
	            user_id TEXT PRIMARY KEY,
	            display_name TEXT NOT NULL DEFAULT '',
	            project_name TEXT NOT NULL DEFAULT '',
	            project_site TEXT NOT NULL DEFAULT '',
	            contractor TEXT NOT NULL DEFAULT '',
	            lunch_break TEXT NOT NULL DEFAULT '',
	            updated_at TEXT NOT NULL
	        )`

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return classifySQLiteError("init profiles schema", err)
	}
	return nil
}

func (s *SQLiteProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	updatedAt := time.Now().UTC()
	query := `INSERT INTO profiles (user_id, display_name, project_name, project_site, contractor, lunch_break, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT (user_id) DO UPDATE SET
	              display_name = excluded.display_name,
	              project_name = excluded.project_name,
	              project_site = excluded.project_site,
	              contractor = excluded.contractor,
	              lunch_break = excluded.lunch_break,
	              updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		profile.UserID,
		profile.DisplayName,
		profile.ProjectName,
		profile.ProjectSite,
		profile.Contractor,
		profile.LunchBreak,
		sqliteTime(updatedAt),
	)
	if err != nil {
		return classifySQLiteError("upsert profile", err)
	}
	profile.UpdatedAt = updatedAt
	return nil
}

func (s *SQLiteProfileStore) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT user_id, display_name, project_name, project_site, contractor, lunch_break, updated_at
	          FROM profiles WHERE user_id = ?`

	var profile models.Profile
	var updatedAt string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.ProjectName,
		&profile.ProjectSite,
		&profile.Contractor,
		&profile.LunchBreak,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifySQLiteError("get profile", err)
	}

	t, err := parseSQLiteTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("profile %s: bad updated_at: %w", userID, ErrMalformed)
	}
	profile.UpdatedAt = t
	return &profile, nil
}
