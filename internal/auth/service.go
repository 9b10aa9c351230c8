// Package auth manages owner accounts for the hub: registration, login and
// the bearer tokens owner-scoped endpoints require. The workspace core never
// authenticates by itself; it receives the already-verified owner identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adimlabs/workspace-hub/internal/db/store"
	"github.com/jackc/pgx/v5"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownTier        = errors.New("unknown subscription tier")
)

const DefaultTier = "free"

type Config struct {
	JWT JWTConfig `mapstructure:"jwt"`
	// TierQuotas maps a subscription tier to the number of workspaces an
	// owner on that tier may hold.
	TierQuotas map[string]int `mapstructure:"tier_quotas"`
}

type Owner struct {
	ID               string
	Email            string
	SubscriptionTier string
	MaxWorkspaces    int
}

type Service struct {
	store  *store.Store
	config Config
}

func NewService(st *store.Store, config Config) *Service {
	return &Service{store: st, config: config}
}

// Register creates an owner account. The tier fixes the workspace quota at
// registration time; an empty tier falls back to the free tier.
func (s *Service) Register(ctx context.Context, email, password, tier string) (Owner, error) {
	if tier == "" {
		tier = DefaultTier
	}
	quota, ok := s.config.TierQuotas[tier]
	if !ok {
		return Owner{}, ErrUnknownTier
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Owner{}, fmt.Errorf("hash password: %w", err)
	}

	owner, err := s.store.CreateOwner(ctx, email, hash, tier, quota)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Owner{}, ErrEmailExists
		}
		return Owner{}, fmt.Errorf("create owner: %w", err)
	}

	slog.Info("Owner registered", "owner_id", owner.ID, "tier", tier, "max_workspaces", quota)

	return ownerFromRow(owner), nil
}

// Login verifies credentials and mints a bearer token. Unknown email and bad
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	owner, err := s.store.GetOwnerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("query owner: %w", err)
	}

	if !CheckPassword(password, owner.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.config.JWT, owner.ID.String(), owner.Email, owner.SubscriptionTier)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

func ownerFromRow(o store.Owner) Owner {
	return Owner{
		ID:               o.ID.String(),
		Email:            o.Email,
		SubscriptionTier: o.SubscriptionTier,
		MaxWorkspaces:    o.MaxWorkspaces,
	}
}
