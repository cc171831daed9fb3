package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aidesk/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrProfileNotFound is returned when a profile lookup finds no row
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore handles customer/agent profile persistence
type ProfileStore struct {
	db *sqlx.DB
}

// NewProfileStore creates a new profile store
func NewProfileStore(db *sqlx.DB) (*ProfileStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required for profile store")
	}

	store := &ProfileStore{db: db}
	if err := store.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create profile tables: %w", err)
	}

	return store, nil
}

// CreateTables creates the profile tables in the database
func (s *ProfileStore) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			org_id UUID NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'customer',
			source VARCHAR(32) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (email, org_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_org_id ON profiles(org_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// GetOrCreate resolves a profile by (email, orgId), creating it when
// absent. The insert-or-get is a single atomic statement against the
// unique constraint, so concurrent duplicate inbound messages from the
// same new sender converge on one profile.
func (s *ProfileStore) GetOrCreate(ctx context.Context, profile *models.Profile) (string, error) {
	query := `
		INSERT INTO profiles (id, email, display_name, org_id, role, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email, org_id) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`

	var id string
	err := s.db.GetContext(ctx, &id, query,
		profile.ID,
		profile.Email,
		profile.DisplayName,
		profile.OrgID,
		profile.Role,
		profile.Source,
	)
	if err != nil {
		return "", fmt.Errorf("failed to get or create profile: %w", err)
	}

	return id, nil
}

// GetByEmail looks up a profile by (email, orgId)
func (s *ProfileStore) GetByEmail(ctx context.Context, orgID, email string) (*models.Profile, error) {
	var profile models.Profile
	query := `SELECT * FROM profiles WHERE org_id = $1 AND email = $2`

	if err := s.db.GetContext(ctx, &profile, query, orgID, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}
