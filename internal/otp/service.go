// Package otp implements the issuance and validation engine for workspace
// discovery codes: bounded-use, time-limited capability tokens that resolve
// to a workspace's current endpoints.
package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/netip"
	"time"

	"github.com/adimlabs/workspace-hub/internal/db/store"
	"github.com/adimlabs/workspace-hub/internal/metrics"
	"github.com/adimlabs/workspace-hub/internal/provlog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	// ErrInvalidOTP is the single error the validation boundary exposes.
	// Unknown, expired, exhausted and revoked codes are deliberately
	// indistinguishable so the endpoint leaks nothing about which codes
	// exist.
	ErrInvalidOTP = errors.New("OTP is invalid or has expired")

	ErrOTPNotFound          = errors.New("otp not found")
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrForbidden            = errors.New("caller does not own this workspace")
	ErrCodeGenerationFailed = errors.New("otp code generation failed")
)

type Config struct {
	// ValidityHours is the window between issuance and expiry.
	ValidityHours int `mapstructure:"validity_hours"`
	CodeLength    int `mapstructure:"code_length"`
	// MaxAttempts bounds collision retries during code generation. Codes
	// are unique among all stored rows, active or not, since redeemed rows
	// are retained forever for audit.
	MaxAttempts int `mapstructure:"max_attempts"`
}

type Service struct {
	store   *store.Store
	config  Config
	logs    *provlog.Service
	metrics *metrics.Metrics
}

func NewService(st *store.Store, config Config, logs *provlog.Service, m *metrics.Metrics) *Service {
	return &Service{store: st, config: config, logs: logs, metrics: m}
}

// Issue mints a code for the workspace. maxUses of 0 means unlimited
// redemptions within the validity window. Issuing does not touch the
// workspace itself; the code is a capability, not a mutation.
func (s *Service) Issue(ctx context.Context, workspaceID string, maxUses int) (OTP, error) {
	expiresAt := time.Now().Add(time.Duration(s.config.ValidityHours) * time.Hour)

	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		code, err := generateCode(s.config.CodeLength)
		if err != nil {
			return OTP{}, fmt.Errorf("generate otp code: %w", err)
		}

		row, err := s.store.CreateOTP(ctx, workspaceID, code, expiresAt, maxUses)
		if err != nil {
			if store.IsUniqueViolation(err) {
				slog.Debug("OTP code collision, retrying", "workspace_id", workspaceID)
				continue
			}
			if store.IsForeignKeyViolation(err) {
				return OTP{}, ErrWorkspaceNotFound
			}
			return OTP{}, fmt.Errorf("create otp: %w", err)
		}

		s.metrics.OTPIssuedTotal.Inc()
		slog.Info("OTP issued",
			"otp_id", row.ID.String(),
			"workspace_id", workspaceID,
			"max_uses", maxUses,
			"expires_at", row.ExpiresAt)
		return fromRow(row), nil
	}
	return OTP{}, ErrCodeGenerationFailed
}

// Validate redeems a code and returns the workspace's discovery payload.
// The check-and-increment is one conditional update in the store, so two
// concurrent redemptions of a single-use code cannot both succeed.
func (s *Service) Validate(ctx context.Context, code string, clientIP string) (DiscoveryPayload, error) {
	var ip *netip.Addr
	if parsed, err := netip.ParseAddr(clientIP); err == nil {
		ip = &parsed
	}

	row, err := s.store.RedeemOTP(ctx, code, ip)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			slog.Warn("OTP validation rejected", "remote_ip", clientIP)
			s.metrics.OTPValidationsTotal.WithLabelValues("invalid").Inc()
			return DiscoveryPayload{}, ErrInvalidOTP
		}
		return DiscoveryPayload{}, fmt.Errorf("redeem otp: %w", err)
	}

	// Snapshot the workspace as it is at redemption time.
	workspace, err := s.store.GetWorkspace(ctx, row.WorkspaceID)
	if err != nil {
		return DiscoveryPayload{}, fmt.Errorf("get workspace: %w", err)
	}
	owner, err := s.store.GetOwnerByID(ctx, workspace.OwnerID)
	if err != nil {
		return DiscoveryPayload{}, fmt.Errorf("get owner: %w", err)
	}

	if _, err := s.logs.Append(ctx, row.WorkspaceID, "otp_validate", provlog.StatusSucceeded,
		fmt.Sprintf("OTP validated from IP %s", orUnknown(clientIP))); err != nil {
		slog.Warn("Failed to append audit entry", "workspace_id", row.WorkspaceID, "error", err)
	}

	s.metrics.OTPValidationsTotal.WithLabelValues("ok").Inc()
	slog.Info("OTP validated",
		"otp_id", row.ID.String(),
		"workspace_id", row.WorkspaceID,
		"use_count", row.UseCount,
		"remote_ip", clientIP)

	payload := DiscoveryPayload{
		WorkspaceID:      workspace.WorkspaceID,
		Name:             workspace.Name,
		OTP:              row.Code,
		CloudURL:         workspace.CloudURL,
		TailscaleURL:     workspace.TailscaleURL,
		Status:           workspace.Status,
		SubscriptionTier: owner.SubscriptionTier,
		CreatedAt:        workspace.CreatedAt,
		Features:         featuresFromConfig(workspace.Config),
	}
	if workspace.IPAddress != nil {
		payload.IPAddress = workspace.IPAddress.String()
	}
	return payload, nil
}

// Revoke deactivates a code before its natural expiry. Owner-only; the row
// is kept for audit.
func (s *Service) Revoke(ctx context.Context, otpID uuid.UUID, callerID uuid.UUID) (OTP, error) {
	row, err := s.store.GetOTP(ctx, otpID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OTP{}, ErrOTPNotFound
		}
		return OTP{}, fmt.Errorf("get otp: %w", err)
	}

	workspace, err := s.store.GetWorkspace(ctx, row.WorkspaceID)
	if err != nil {
		return OTP{}, fmt.Errorf("get workspace: %w", err)
	}
	if workspace.OwnerID != callerID {
		return OTP{}, ErrForbidden
	}

	revoked, err := s.store.RevokeOTP(ctx, otpID)
	if err != nil {
		return OTP{}, fmt.Errorf("revoke otp: %w", err)
	}

	slog.Info("OTP revoked", "otp_id", otpID.String(), "workspace_id", row.WorkspaceID)
	return fromRow(revoked), nil
}

// ListForWorkspace returns all codes ever issued for the workspace, newest
// first. Owner-only.
func (s *Service) ListForWorkspace(ctx context.Context, workspaceID string, callerID uuid.UUID) ([]OTP, error) {
	workspace, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	if workspace.OwnerID != callerID {
		return nil, ErrForbidden
	}

	rows, err := s.store.ListOTPsByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list otps: %w", err)
	}

	result := make([]OTP, len(rows))
	for i, row := range rows {
		result[i] = fromRow(row)
	}
	return result, nil
}

func generateCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func fromRow(row store.OTP) OTP {
	o := OTP{
		ID:          row.ID.String(),
		WorkspaceID: row.WorkspaceID,
		Code:        row.Code,
		CreatedAt:   row.CreatedAt,
		ExpiresAt:   row.ExpiresAt,
		MaxUses:     row.MaxUses,
		UseCount:    row.UseCount,
		IsActive:    row.IsActive,
		UsedAt:      row.UsedAt,
	}
	if row.LastUsedIP != nil {
		o.LastUsedIP = row.LastUsedIP.String()
	}
	return o
}

func featuresFromConfig(config []byte) map[string]any {
	if len(config) == 0 {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(config, &parsed); err != nil {
		return nil
	}
	features, _ := parsed["features"].(map[string]any)
	return features
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
