package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

type PostgresProfileStore struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileStore(pool *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{pool: pool}
}

// Init creates the profiles table when it does not exist yet.
func (r *PostgresProfileStore) Init(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS profiles (
	            user_id TEXT PRIMARY KEY,
	            display_name TEXT NOT NULL DEFAULT '',
	            project_name TEXT NOT NULL DEFAULT '',
	            project_site TEXT NOT NULL DEFAULT '',
	            contractor TEXT NOT NULL DEFAULT '',
	            lunch_break TEXT NOT NULL DEFAULT '',
	            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	        )`

	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return classifyStoreError("init profiles schema", err)
	}
	return nil
}

func (r *PostgresProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	query := `INSERT INTO profiles (user_id, display_name, project_name, project_site, contractor, lunch_break)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (user_id) DO UPDATE SET
                  display_name = EXCLUDED.display_name,
                  project_name = EXCLUDED.project_name,
                  project_site = EXCLUDED.project_site,
                  contractor = EXCLUDED.contractor,
                  lunch_break = EXCLUDED.lunch_break,
                  updated_at = NOW()
              RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.DisplayName,
		profile.ProjectName,
		profile.ProjectSite,
		profile.Contractor,
		profile.LunchBreak,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return classifyStoreError("upsert profile", err)
	}
	return nil
}

func (r *PostgresProfileStore) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT user_id, display_name, project_name, project_site, contractor, lunch_break, updated_at
              FROM profiles WHERE user_id = $1`

	row := r.pool.QueryRow(ctx, query, userID)

	var profile models.Profile
	err := row.Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.ProjectName,
		&profile.ProjectSite,
		&profile.Contractor,
		&profile.LunchBreak,
		&profile.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, classifyStoreError("get profile", err)
	}
	return &profile, nil
}
