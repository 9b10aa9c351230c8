package store

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"
)

type OTP struct {
	ID          uuid.UUID
	WorkspaceID string
	Code        string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	MaxUses     int
	UseCount    int
	IsActive    bool
	UsedAt      *time.Time
	LastUsedIP  *netip.Addr
}

const otpColumns = `id, workspace_id, otp_code, created_at, expires_at, max_uses, use_count, is_active, used_at, last_used_ip`

func scanOTP(row interface{ Scan(dest ...any) error }) (OTP, error) {
	var o OTP
	err := row.Scan(&o.ID, &o.WorkspaceID, &o.Code, &o.CreatedAt, &o.ExpiresAt,
		&o.MaxUses, &o.UseCount, &o.IsActive, &o.UsedAt, &o.LastUsedIP)
	return o, err
}

func (s *Store) CreateOTP(ctx context.Context, workspaceID, code string, expiresAt time.Time, maxUses int) (OTP, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO workspace_otps (workspace_id, otp_code, expires_at, max_uses)
		VALUES ($1, $2, $3, $4)
		RETURNING `+otpColumns,
		workspaceID, code, expiresAt, maxUses)
	return scanOTP(row)
}

// RedeemOTP is the single atomic check-and-increment for OTP redemption. The
// WHERE clause re-states the full validity invariant, so of two concurrent
// redemptions of a max_uses=1 code exactly one matches a row; the other gets
// pgx.ErrNoRows. Expiry is evaluated here, lazily, against the database
// clock; there is no background sweep.
func (s *Store) RedeemOTP(ctx context.Context, code string, ip *netip.Addr) (OTP, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE workspace_otps
		SET use_count = use_count + 1,
		    used_at = now(),
		    last_used_ip = COALESCE($2, last_used_ip)
		WHERE otp_code = $1
		  AND is_active
		  AND expires_at > now()
		  AND (max_uses = 0 OR use_count < max_uses)
		RETURNING `+otpColumns,
		code, ip)
	return scanOTP(row)
}

func (s *Store) GetOTP(ctx context.Context, id uuid.UUID) (OTP, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+otpColumns+` FROM workspace_otps WHERE id = $1`, id)
	return scanOTP(row)
}

// RevokeOTP deactivates a code. Rows are never deleted; revoked codes stay
// behind for audit.
func (s *Store) RevokeOTP(ctx context.Context, id uuid.UUID) (OTP, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE workspace_otps SET is_active = false WHERE id = $1
		RETURNING `+otpColumns, id)
	return scanOTP(row)
}

func (s *Store) ListOTPsByWorkspace(ctx context.Context, workspaceID string) ([]OTP, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+otpColumns+` FROM workspace_otps
		WHERE workspace_id = $1
		ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OTP
	for rows.Next() {
		o, err := scanOTP(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
