package store

import (
	"context"
	"time"
)

type LogEntry struct {
	ID          int64
	WorkspaceID string
	Step        string
	Status      string
	Detail      string
	CreatedAt   time.Time
}

const logColumns = `id, workspace_id, step, status, detail, created_at`

func scanLogEntry(row interface{ Scan(dest ...any) error }) (LogEntry, error) {
	var e LogEntry
	err := row.Scan(&e.ID, &e.WorkspaceID, &e.Step, &e.Status, &e.Detail, &e.CreatedAt)
	return e, err
}

// AppendLog inserts an audit entry. Rows are append-only; nothing updates or
// deletes them. An unknown workspace surfaces as a foreign key violation.
func (s *Store) AppendLog(ctx context.Context, workspaceID, step, status, detail string) (LogEntry, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO provisioning_logs (workspace_id, step, status, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING `+logColumns,
		workspaceID, step, status, detail)
	return scanLogEntry(row)
}

func (s *Store) ListLogs(ctx context.Context, workspaceID string) ([]LogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+logColumns+` FROM provisioning_logs
		WHERE workspace_id = $1
		ORDER BY created_at ASC, id ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
