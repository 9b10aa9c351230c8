package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Owner struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	SubscriptionTier string
	MaxWorkspaces    int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const ownerColumns = `id, email, password_hash, subscription_tier, max_workspaces, created_at, updated_at`

func scanOwner(row interface{ Scan(dest ...any) error }) (Owner, error) {
	var o Owner
	err := row.Scan(&o.ID, &o.Email, &o.PasswordHash, &o.SubscriptionTier,
		&o.MaxWorkspaces, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (s *Store) CreateOwner(ctx context.Context, email, passwordHash, tier string, maxWorkspaces int) (Owner, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO owners (email, password_hash, subscription_tier, max_workspaces)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ownerColumns,
		email, passwordHash, tier, maxWorkspaces)
	return scanOwner(row)
}

func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (Owner, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+ownerColumns+` FROM owners WHERE email = $1`, email)
	return scanOwner(row)
}

func (s *Store) GetOwnerByID(ctx context.Context, id uuid.UUID) (Owner, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id)
	return scanOwner(row)
}
