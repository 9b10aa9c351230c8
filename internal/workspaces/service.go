// Package workspaces implements the workspace registry: record ownership,
// creation quotas, the lifecycle state machine and per-workspace service
// port allocation.
package workspaces

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/netip"

	"github.com/adimlabs/workspace-hub/internal/db/store"
	"github.com/adimlabs/workspace-hub/internal/metrics"
	"github.com/adimlabs/workspace-hub/internal/provlog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	workspaceIDPrefix = "ws"
	workspaceIDLength = 5
	idAlphabet        = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	ErrOwnerNotFound       = errors.New("owner not found")
	ErrWorkspaceNotFound   = errors.New("workspace not found")
	ErrQuotaExceeded       = errors.New("workspace quota exceeded for subscription tier")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrForbidden           = errors.New("caller does not own this workspace")
	ErrInvalidSpec         = errors.New("invalid workspace spec")
	ErrIDGenerationFailed  = errors.New("workspace id generation failed")
	ErrAllocationExhausted = errors.New("port allocation exhausted")
)

type Config struct {
	// IDMaxAttempts bounds collision retries for workspace id generation.
	IDMaxAttempts int        `mapstructure:"id_max_attempts"`
	MaxVCPU       int        `mapstructure:"max_vcpu"`
	MaxRAMGB      int        `mapstructure:"max_ram_gb"`
	MaxStorageGB  int        `mapstructure:"max_storage_gb"`
	Ports         PortConfig `mapstructure:"ports"`
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

// Create registers a workspace for the owner, enforcing the owner's quota,
// and reserves its service ports up front. Ports stay reserved even if the
// external provisioning later fails; only decommissioning releases them.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, spec CreateSpec) (Workspace, error) {
	if err := s.validateSpec(spec); err != nil {
		return Workspace{}, err
	}

	var row store.Workspace
	created := false
	for attempt := 0; attempt < s.config.IDMaxAttempts; attempt++ {
		workspaceID, err := generateWorkspaceID()
		if err != nil {
			return Workspace{}, fmt.Errorf("generate workspace id: %w", err)
		}

		row, err = s.store.CreateWorkspace(ctx, store.CreateWorkspaceParams{
			WorkspaceID:    workspaceID,
			OwnerID:        ownerID,
			Name:           spec.Name,
			DeploymentType: string(spec.DeploymentType),
			Region:         spec.Region,
			VCPU:           spec.VCPU,
			RAMGB:          spec.RAMGB,
			StorageGB:      spec.StorageGB,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				slog.Debug("Workspace id collision, retrying", "workspace_id", workspaceID)
				continue
			}
			if errors.Is(err, pgx.ErrNoRows) {
				// The conditional insert matched nothing: either the
				// owner is unknown or the quota is already full.
				if _, gerr := s.store.GetOwnerByID(ctx, ownerID); gerr != nil {
					if errors.Is(gerr, pgx.ErrNoRows) {
						return Workspace{}, ErrOwnerNotFound
					}
					return Workspace{}, fmt.Errorf("lookup owner: %w", gerr)
				}
				return Workspace{}, ErrQuotaExceeded
			}
			return Workspace{}, fmt.Errorf("create workspace: %w", err)
		}
		created = true
		break
	}
	if !created {
		return Workspace{}, ErrIDGenerationFailed
	}

	ports, err := s.allocatePorts(ctx, row.WorkspaceID)
	if err != nil {
		// Allocation is fatal for this request. Give back whatever was
		// grabbed and surface the workspace as failed rather than hiding it.
		if _, rerr := s.store.ReleasePorts(ctx, row.WorkspaceID); rerr != nil {
			slog.Error("Failed to release ports after allocation failure",
				"workspace_id", row.WorkspaceID, "error", rerr)
		}
		if _, terr := s.store.UpdateWorkspaceStatus(ctx, row.WorkspaceID,
			string(StatusFailed), []string{string(StatusProvisioning)}); terr != nil {
			slog.Error("Failed to mark workspace failed",
				"workspace_id", row.WorkspaceID, "error", terr)
		}
		if _, lerr := s.logs.Append(ctx, row.WorkspaceID, "create", provlog.StatusFailed, "port allocation exhausted"); lerr != nil {
			slog.Warn("Failed to append audit entry", "workspace_id", row.WorkspaceID, "error", lerr)
		}
		return Workspace{}, err
	}

	// A failed audit append does not undo the creation; the workspace stays
	// visible to the owner in provisioning.
	if _, err := s.logs.Append(ctx, row.WorkspaceID, "create", provlog.StatusStarted,
		fmt.Sprintf("workspace %s created", row.WorkspaceID)); err != nil {
		slog.Warn("Failed to append audit entry", "workspace_id", row.WorkspaceID, "error", err)
	}

	s.metrics.WorkspacesCreatedTotal.WithLabelValues(string(spec.DeploymentType)).Inc()

	slog.Info("Workspace created",
		"workspace_id", row.WorkspaceID,
		"owner_id", ownerID.String(),
		"deployment_type", spec.DeploymentType,
		"ports", len(ports))

	w := fromRow(row)
	w.PortAllocation = ports
	return w, nil
}

// Get returns one workspace; callers only ever see their own.
func (s *Service) Get(ctx context.Context, workspaceID string, callerID uuid.UUID) (Workspace, error) {
	row, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, ErrWorkspaceNotFound
		}
		return Workspace{}, fmt.Errorf("get workspace: %w", err)
	}
	if row.OwnerID != callerID {
		return Workspace{}, ErrForbidden
	}

	ports, err := s.store.GetWorkspacePorts(ctx, workspaceID)
	if err != nil {
		return Workspace{}, fmt.Errorf("get workspace ports: %w", err)
	}

	w := fromRow(row)
	w.PortAllocation = ports
	return w, nil
}

// ListForOwner returns the owner's workspaces in creation order. Scoping by
// owner happens in the query itself, never in the handler.
func (s *Service) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]Workspace, error) {
	rows, err := s.store.ListWorkspacesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	result := make([]Workspace, len(rows))
	for i, row := range rows {
		ports, err := s.store.GetWorkspacePorts(ctx, row.WorkspaceID)
		if err != nil {
			return nil, fmt.Errorf("get workspace ports: %w", err)
		}
		result[i] = fromRow(row)
		result[i].PortAllocation = ports
	}
	return result, nil
}

// Transition moves an owned workspace through the lifecycle state machine.
func (s *Service) Transition(ctx context.Context, workspaceID string, callerID uuid.UUID, to Status) (Workspace, error) {
	row, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, ErrWorkspaceNotFound
		}
		return Workspace{}, fmt.Errorf("get workspace: %w", err)
	}
	if row.OwnerID != callerID {
		return Workspace{}, ErrForbidden
	}
	return s.applyTransition(ctx, row, to)
}

// AdminTransition is the orchestrator's path: same state machine, no
// ownership check (the admin API key already gates the route).
func (s *Service) AdminTransition(ctx context.Context, workspaceID string, to Status) (Workspace, error) {
	row, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, ErrWorkspaceNotFound
		}
		return Workspace{}, fmt.Errorf("get workspace: %w", err)
	}
	return s.applyTransition(ctx, row, to)
}

func (s *Service) applyTransition(ctx context.Context, row store.Workspace, to Status) (Workspace, error) {
	from := Status(row.Status)
	if !CanTransition(from, to) {
		return Workspace{}, ErrInvalidTransition
	}

	updated, err := s.store.UpdateWorkspaceStatus(ctx, row.WorkspaceID, string(to), sourceStatuses(to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent transition won; the precondition no longer holds.
			return Workspace{}, ErrInvalidTransition
		}
		return Workspace{}, fmt.Errorf("update workspace status: %w", err)
	}

	if to == StatusDecommissioned {
		released, err := s.store.ReleasePorts(ctx, row.WorkspaceID)
		if err != nil {
			return Workspace{}, fmt.Errorf("release ports: %w", err)
		}
		slog.Info("Workspace decommissioned, ports released",
			"workspace_id", row.WorkspaceID, "ports_released", released)
	}

	if _, err := s.logs.Append(ctx, row.WorkspaceID, "transition", provlog.StatusSucceeded,
		fmt.Sprintf("%s -> %s", from, to)); err != nil {
		slog.Warn("Failed to append audit entry", "workspace_id", row.WorkspaceID, "error", err)
	}

	s.metrics.WorkspaceTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()

	ports, err := s.store.GetWorkspacePorts(ctx, row.WorkspaceID)
	if err != nil {
		return Workspace{}, fmt.Errorf("get workspace ports: %w", err)
	}

	w := fromRow(updated)
	w.PortAllocation = ports
	return w, nil
}

// UpdateEndpoints records the discovery endpoints the external orchestrator
// assigned while standing the workspace up. OTP redemption always reads the
// latest values, so endpoint changes need no code reissue.
func (s *Service) UpdateEndpoints(ctx context.Context, workspaceID string, endpoints Endpoints) (Workspace, error) {
	ip, err := parseOptionalAddr(endpoints.IPAddress)
	if err != nil {
		return Workspace{}, fmt.Errorf("%w: %s", ErrInvalidSpec, err)
	}

	row, err := s.store.UpdateWorkspaceEndpoints(ctx, workspaceID, endpoints.CloudURL, endpoints.TailscaleURL, ip)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, ErrWorkspaceNotFound
		}
		return Workspace{}, fmt.Errorf("update endpoints: %w", err)
	}

	ports, err := s.store.GetWorkspacePorts(ctx, workspaceID)
	if err != nil {
		return Workspace{}, fmt.Errorf("get workspace ports: %w", err)
	}

	w := fromRow(row)
	w.PortAllocation = ports
	return w, nil
}

func (s *Service) allocatePorts(ctx context.Context, workspaceID string) (map[string]int, error) {
	cfg := s.config.Ports
	ports := make(map[string]int, len(cfg.Services))
	for _, service := range cfg.serviceNames() {
		base := cfg.Services[service]
		reserved := false
		for attempt := 0; attempt < cfg.MaxOffsets; attempt++ {
			port := candidatePort(base, cfg.Step, attempt)
			ok, err := s.store.ReservePort(ctx, workspaceID, service, port)
			if err != nil {
				return nil, fmt.Errorf("reserve port %d for %s: %w", port, service, err)
			}
			if ok {
				ports[service] = port
				reserved = true
				break
			}
		}
		if !reserved {
			slog.Error("No free port within range",
				"workspace_id", workspaceID, "service", service,
				"base", base, "max_offsets", cfg.MaxOffsets)
			return nil, ErrAllocationExhausted
		}
	}
	return ports, nil
}

func (s *Service) validateSpec(spec CreateSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	switch spec.DeploymentType {
	case DeploymentCloud, DeploymentBareMetal:
	default:
		return fmt.Errorf("%w: unknown deployment type %q", ErrInvalidSpec, spec.DeploymentType)
	}
	if spec.VCPU < 1 || spec.VCPU > s.config.MaxVCPU {
		return fmt.Errorf("%w: vcpu must be between 1 and %d", ErrInvalidSpec, s.config.MaxVCPU)
	}
	if spec.RAMGB < 1 || spec.RAMGB > s.config.MaxRAMGB {
		return fmt.Errorf("%w: ram_gb must be between 1 and %d", ErrInvalidSpec, s.config.MaxRAMGB)
	}
	if spec.StorageGB < 1 || spec.StorageGB > s.config.MaxStorageGB {
		return fmt.Errorf("%w: storage_gb must be between 1 and %d", ErrInvalidSpec, s.config.MaxStorageGB)
	}
	return nil
}

// generateWorkspaceID mints a short token such as "ws7x2kq". Uniqueness is
// enforced by the database; callers retry on collision.
func generateWorkspaceID() (string, error) {
	suffix := make([]byte, workspaceIDLength)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			return "", err
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return workspaceIDPrefix + string(suffix), nil
}

func parseOptionalAddr(s string) (*netip.Addr, error) {
	if s == "" {
		return nil, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func fromRow(row store.Workspace) Workspace {
	w := Workspace{
		WorkspaceID:    row.WorkspaceID,
		OwnerID:        row.OwnerID.String(),
		Name:           row.Name,
		DeploymentType: DeploymentType(row.DeploymentType),
		Status:         Status(row.Status),
		Region:         row.Region,
		Endpoints: Endpoints{
			CloudURL:     row.CloudURL,
			TailscaleURL: row.TailscaleURL,
		},
		Resources: Resources{
			VCPU:      row.VCPU,
			RAMGB:     row.RAMGB,
			StorageGB: row.StorageGB,
		},
		Features:         featuresFromConfig(row.Config),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		ProvisionedAt:    row.ProvisionedAt,
		DecommissionedAt: row.DecommissionedAt,
	}
	if row.IPAddress != nil {
		w.Endpoints.IPAddress = row.IPAddress.String()
	}
	return w
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
