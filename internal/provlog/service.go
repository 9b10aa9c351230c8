// Package provlog stores the append-only provisioning audit trail. Entries
// are written by the registry and by the external orchestrator; nothing ever
// mutates or deletes them.
package provlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/adimlabs/workspace-hub/internal/db/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrForbidden         = errors.New("caller does not own this workspace")
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Append records one provisioning step. The only validation is workspace
// existence, enforced by the foreign key.
func (s *Service) Append(ctx context.Context, workspaceID, step, status, detail string) (Entry, error) {
	row, err := s.store.AppendLog(ctx, workspaceID, step, status, detail)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return Entry{}, ErrWorkspaceNotFound
		}
		return Entry{}, fmt.Errorf("append log: %w", err)
	}
	return fromRow(row), nil
}

// List returns a workspace's audit trail, oldest first. Owner-only.
func (s *Service) List(ctx context.Context, workspaceID string, callerID uuid.UUID) ([]Entry, error) {
	w, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	if w.OwnerID != callerID {
		return nil, ErrForbidden
	}

	rows, err := s.store.ListLogs(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	result := make([]Entry, len(rows))
	for i, row := range rows {
		result[i] = fromRow(row)
	}
	return result, nil
}

func fromRow(row store.LogEntry) Entry {
	return Entry{
		ID:          row.ID,
		WorkspaceID: row.WorkspaceID,
		Step:        row.Step,
		Status:      row.Status,
		Detail:      row.Detail,
		Timestamp:   row.CreatedAt,
	}
}
