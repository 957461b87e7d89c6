package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

const groupColumns = "id, name, code, admin_id, encargado_id, current_fine_amount, created_at"

// CreateGroup persists a new group. The caller must add the encargado as a
// participant in the same transaction.
func (w writer) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate ID if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := w.q.ExecContext(ctx,
		"INSERT INTO groups ("+groupColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		group.ID, group.Name, group.Code, group.AdminID, group.EncargadoID,
		group.CurrentFineAmount, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", translateError(err))
	}

	return nil
}

// GetGroup retrieves a group by ID.
func (r reader) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(r.q.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", groupID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", translateError(err))
	}
	return group, nil
}

// GetGroupByCode retrieves a group by its invite code.
func (r reader) GetGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	group, err := scanGroup(r.q.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE code = ?", code,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: invite code %s", storage.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by code: %w", translateError(err))
	}
	return group, nil
}

// ListGroupsForUser retrieves every group the user participates in.
func (r reader) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT g.id, g.name, g.code, g.admin_id, g.encargado_id, g.current_fine_amount, g.created_at
		 FROM groups g
		 JOIN participants p ON p.group_id = g.id
		 WHERE p.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", translateError(err))
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, nil
}

// UpdateGroupFine sets the base fine applied to future defaulters.
func (w writer) UpdateGroupFine(ctx context.Context, groupID string, amount int64) error {
	res, err := w.q.ExecContext(ctx,
		"UPDATE groups SET current_fine_amount = ? WHERE id = ?", amount, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group fine: %w", translateError(err))
	}
	return expectOne(res, storage.ErrNotFound, "group "+groupID)
}

// SetEncargado hands the steward role to another participant.
func (w writer) SetEncargado(ctx context.Context, groupID, userID string) error {
	res, err := w.q.ExecContext(ctx,
		"UPDATE groups SET encargado_id = ? WHERE id = ?", userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to set encargado: %w", translateError(err))
	}
	return expectOne(res, storage.ErrNotFound, "group "+groupID)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	err := row.Scan(&group.ID, &group.Name, &group.Code, &group.AdminID,
		&group.EncargadoID, &group.CurrentFineAmount, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return group, nil
}
