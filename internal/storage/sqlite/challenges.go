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

const challengeColumns = "id, group_id, challenger_id, challenger_name, challenged_id, challenged_name, description, fine_amount, status, created_at"

// CreateChallenge persists a new challenge.
func (w writer) CreateChallenge(ctx context.Context, c *models.Challenge) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	if c.Status == "" {
		c.Status = models.ChallengePending
	}

	_, err := w.q.ExecContext(ctx,
		"INSERT INTO challenges ("+challengeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.GroupID, c.ChallengerID, c.ChallengerName, c.ChallengedID, c.ChallengedName,
		c.Description, c.FineAmount, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert challenge: %w", translateError(err))
	}
	return nil
}

// GetChallenge retrieves a challenge by ID.
func (r reader) GetChallenge(ctx context.Context, challengeID string) (*models.Challenge, error) {
	c, err := scanChallenge(r.q.QueryRowContext(ctx,
		"SELECT "+challengeColumns+" FROM challenges WHERE id = ?", challengeID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: challenge %s", storage.ErrNotFound, challengeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", translateError(err))
	}
	return c, nil
}

// ListChallenges retrieves all challenges of a group, newest first.
func (r reader) ListChallenges(ctx context.Context, groupID string) ([]*models.Challenge, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+challengeColumns+" FROM challenges WHERE group_id = ? ORDER BY created_at DESC, rowid DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", translateError(err))
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate challenges: %w", err)
	}
	return challenges, nil
}

// TransitionChallenge changes the status only if the row is still in from.
func (w writer) TransitionChallenge(ctx context.Context, challengeID string, from, to models.ChallengeStatus) error {
	res, err := w.q.ExecContext(ctx,
		"UPDATE challenges SET status = ? WHERE id = ? AND status = ?", to, challengeID, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update challenge status: %w", translateError(err))
	}
	return expectOne(res, storage.ErrConflict, "challenge "+challengeID+" is not "+string(from))
}

func scanChallenge(row rowScanner) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := row.Scan(&c.ID, &c.GroupID, &c.ChallengerID, &c.ChallengerName,
		&c.ChallengedID, &c.ChallengedName, &c.Description, &c.FineAmount, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
