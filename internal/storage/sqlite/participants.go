package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

const participantColumns = "group_id, user_id, username, accumulated_fine, current_objective, has_wildcard, joined_at"

// AddParticipant inserts a membership row. Returns storage.ErrConflict if the
// user already belongs to the group.
func (w writer) AddParticipant(ctx context.Context, p *models.Participant) error {
	if p.JoinedAt == 0 {
		p.JoinedAt = time.Now().Unix()
	}

	_, err := w.q.ExecContext(ctx,
		"INSERT INTO participants ("+participantColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.GroupID, p.UserID, p.Username, p.AccumulatedFine, p.CurrentObjective, p.HasWildcard, p.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", translateError(err))
	}
	return nil
}

// GetParticipant retrieves one membership row.
func (r reader) GetParticipant(ctx context.Context, groupID, userID string) (*models.Participant, error) {
	p, err := scanParticipant(r.q.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: participant %s in group %s", storage.ErrNotFound, userID, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", translateError(err))
	}
	return p, nil
}

// ListParticipants retrieves all participants of a group ordered by name.
func (r reader) ListParticipants(ctx context.Context, groupID string) ([]*models.Participant, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE group_id = ? ORDER BY username, user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", translateError(err))
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// AddFine increments the accumulated fine in a single statement so the
// balance is never read and written back outside the database. An increment
// that would overflow int64 is refused with models.ErrInvalidArgument; SQLite
// would otherwise store the sum as a REAL.
func (w writer) AddFine(ctx context.Context, groupID, userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: fine increment cannot be negative", models.ErrInvalidArgument)
	}

	res, err := w.q.ExecContext(ctx,
		"UPDATE participants SET accumulated_fine = accumulated_fine + ? WHERE group_id = ? AND user_id = ? AND accumulated_fine <= ?",
		amount, groupID, userID, math.MaxInt64-amount,
	)
	if err != nil {
		return fmt.Errorf("failed to add fine: %w", translateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	// No row matched: either the participant is missing or the sum overflows.
	if _, err := w.GetParticipant(ctx, groupID, userID); err != nil {
		return err
	}
	return fmt.Errorf("%w: fine of %s would overflow", models.ErrInvalidArgument, userID)
}

// SetFine overwrites the accumulated fine.
func (w writer) SetFine(ctx context.Context, groupID, userID string, amount int64) error {
	res, err := w.q.ExecContext(ctx,
		"UPDATE participants SET accumulated_fine = ? WHERE group_id = ? AND user_id = ?",
		amount, groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set fine: %w", translateError(err))
	}
	return expectOne(res, storage.ErrNotFound, "participant "+userID)
}

// SetObjective replaces the participant's current objective.
func (w writer) SetObjective(ctx context.Context, groupID, userID, objective string) error {
	res, err := w.q.ExecContext(ctx,
		"UPDATE participants SET current_objective = ? WHERE group_id = ? AND user_id = ?",
		objective, groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set objective: %w", translateError(err))
	}
	return expectOne(res, storage.ErrNotFound, "participant "+userID)
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	p := &models.Participant{}
	err := row.Scan(&p.GroupID, &p.UserID, &p.Username, &p.AccumulatedFine,
		&p.CurrentObjective, &p.HasWildcard, &p.JoinedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
