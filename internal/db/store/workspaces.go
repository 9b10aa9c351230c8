package store

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	ID               uuid.UUID
	WorkspaceID      string
	OwnerID          uuid.UUID
	Name             string
	DeploymentType   string
	Region           string
	Status           string
	CloudURL         string
	TailscaleURL     string
	IPAddress        *netip.Addr
	VCPU             int
	RAMGB            int
	StorageGB        int
	Config           []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProvisionedAt    *time.Time
	DecommissionedAt *time.Time
}

type CreateWorkspaceParams struct {
	WorkspaceID    string
	OwnerID        uuid.UUID
	Name           string
	DeploymentType string
	Region         string
	VCPU           int
	RAMGB          int
	StorageGB      int
}

const workspaceColumns = `id, workspace_id, owner_id, name, deployment_type, region, status,
	cloud_url, tailscale_url, ip_address, vcpu, ram_gb, storage_gb, config,
	created_at, updated_at, provisioned_at, decommissioned_at`

func scanWorkspace(row interface{ Scan(dest ...any) error }) (Workspace, error) {
	var w Workspace
	err := row.Scan(&w.ID, &w.WorkspaceID, &w.OwnerID, &w.Name, &w.DeploymentType,
		&w.Region, &w.Status, &w.CloudURL, &w.TailscaleURL, &w.IPAddress,
		&w.VCPU, &w.RAMGB, &w.StorageGB, &w.Config,
		&w.CreatedAt, &w.UpdatedAt, &w.ProvisionedAt, &w.DecommissionedAt)
	return w, err
}

// CreateWorkspace inserts a workspace only if the owner exists and still has
// quota headroom. The count subquery and the insert run as one statement, so
// concurrent creations cannot both slip under the limit. Returns
// pgx.ErrNoRows when the owner is unknown or the quota is exhausted; the
// caller disambiguates.
func (s *Store) CreateWorkspace(ctx context.Context, p CreateWorkspaceParams) (Workspace, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO workspaces (workspace_id, owner_id, name, deployment_type, region, vcpu, ram_gb, storage_gb)
		SELECT $1, o.id, $2, $3, $4, $5, $6, $7
		FROM owners o
		WHERE o.id = $8
		  AND (SELECT count(*) FROM workspaces w
		       WHERE w.owner_id = o.id
		         AND w.status IN ('provisioning', 'active', 'suspended')) < o.max_workspaces
		RETURNING `+workspaceColumns,
		p.WorkspaceID, p.Name, p.DeploymentType, p.Region, p.VCPU, p.RAMGB, p.StorageGB, p.OwnerID)
	return scanWorkspace(row)
}

func (s *Store) GetWorkspace(ctx context.Context, workspaceID string) (Workspace, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces WHERE workspace_id = $1`, workspaceID)
	return scanWorkspace(row)
}

func (s *Store) ListWorkspacesByOwner(ctx context.Context, ownerID uuid.UUID) ([]Workspace, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+workspaceColumns+` FROM workspaces
		WHERE owner_id = $1
		ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// UpdateWorkspaceStatus moves a workspace to newStatus only when its current
// status is one of fromStatuses. The conditional update makes concurrent
// transitions race-safe: the loser observes pgx.ErrNoRows.
func (s *Store) UpdateWorkspaceStatus(ctx context.Context, workspaceID, newStatus string, fromStatuses []string) (Workspace, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE workspaces
		SET status = $2,
		    updated_at = now(),
		    provisioned_at = CASE WHEN $2 = 'active' AND provisioned_at IS NULL THEN now() ELSE provisioned_at END,
		    decommissioned_at = CASE WHEN $2 = 'decommissioned' THEN now() ELSE decommissioned_at END
		WHERE workspace_id = $1 AND status = ANY($3)
		RETURNING `+workspaceColumns,
		workspaceID, newStatus, fromStatuses)
	return scanWorkspace(row)
}

func (s *Store) UpdateWorkspaceEndpoints(ctx context.Context, workspaceID, cloudURL, tailscaleURL string, ip *netip.Addr) (Workspace, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE workspaces
		SET cloud_url = $2, tailscale_url = $3, ip_address = $4, updated_at = now()
		WHERE workspace_id = $1
		RETURNING `+workspaceColumns,
		workspaceID, cloudURL, tailscaleURL, ip)
	return scanWorkspace(row)
}

// ReservePort attempts to reserve a concrete port for one of the workspace's
// services. The insert and the is-it-free check are the same atomic step: a
// port already held by any non-decommissioned workspace trips the unique
// constraint and the reservation reports false.
func (s *Store) ReservePort(ctx context.Context, workspaceID, service string, port int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO workspace_ports (workspace_id, service, port)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		workspaceID, service, port)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleasePorts returns every port held by the workspace to the pool.
func (s *Store) ReleasePorts(ctx context.Context, workspaceID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM workspace_ports WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GetWorkspacePorts(ctx context.Context, workspaceID string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT service, port FROM workspace_ports WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ports := make(map[string]int)
	for rows.Next() {
		var service string
		var port int
		if err := rows.Scan(&service, &port); err != nil {
			return nil, err
		}
		ports[service] = port
	}
	return ports, rows.Err()
}
