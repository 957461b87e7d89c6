package groups

import (
	"context"
	"fmt"

	"github.com/mmynk/multas/internal/calculator"
	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

// Summary is what a group's dashboard shows: the group, its participants and
// the pot with standings.
type Summary struct {
	Group        *models.Group
	Participants []*models.Participant
	Pot          *calculator.Summary
}

// ListParticipants returns the participants of a group the actor belongs to.
func (m *Manager) ListParticipants(ctx context.Context, actorID, groupID string) ([]*models.Participant, error) {
	if _, _, err := m.requireMember(ctx, m.store, groupID, actorID); err != nil {
		return nil, err
	}
	return m.store.ListParticipants(ctx, groupID)
}

// GetSummary computes the pot and standings of a group.
func (m *Manager) GetSummary(ctx context.Context, actorID, groupID string) (*Summary, error) {
	group, _, err := m.requireMember(ctx, m.store, groupID, actorID)
	if err != nil {
		return nil, err
	}
	participants, err := m.store.ListParticipants(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balances := make([]calculator.Balance, len(participants))
	for i, p := range participants {
		balances[i] = calculator.Balance{
			UserID:          p.UserID,
			Username:        p.Username,
			AccumulatedFine: p.AccumulatedFine,
		}
	}
	pot, err := calculator.Summarize(balances)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize group %s: %w", groupID, err)
	}

	return &Summary{Group: group, Participants: participants, Pot: pot}, nil
}

// UpdateObjective replaces a participant's weekly objective. Only the
// encargado may set objectives.
func (m *Manager) UpdateObjective(ctx context.Context, actorID, groupID, userID, objective string) (*models.Participant, error) {
	var participant *models.Participant
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := requireEncargado(ctx, tx, groupID, actorID); err != nil {
			return err
		}
		p, err := tx.GetParticipant(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if err := tx.SetObjective(ctx, groupID, userID, objective); err != nil {
			return err
		}
		p.CurrentObjective = objective
		participant = p
		return m.appendLog(ctx, tx, groupID, models.LogInfo, "Objetivo actualizado para %s", p.Username)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update objective: %w", err)
	}
	return participant, nil
}

// AdjustFine overwrites a participant's accumulated fine. This is the only
// path that may lower a balance and is reserved to the admin.
func (m *Manager) AdjustFine(ctx context.Context, actorID, groupID, userID string, amount int64) (*models.Participant, error) {
	if amount < 0 || amount > models.MaxFineAmount {
		return nil, fmt.Errorf("%w: fine must be between 0 and %d", models.ErrInvalidArgument, models.MaxFineAmount)
	}

	var participant *models.Participant
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := requireAdmin(ctx, tx, groupID, actorID); err != nil {
			return err
		}
		p, err := tx.GetParticipant(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if err := tx.SetFine(ctx, groupID, userID, amount); err != nil {
			return err
		}
		p.AccumulatedFine = amount
		participant = p
		return m.appendLog(ctx, tx, groupID, models.LogWarning, "Admin ajustó manualmente la multa de %s a $%d", p.Username, amount)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to adjust fine: %w", err)
	}

	m.logger.InfoContext(ctx, "Fine adjusted", "group_id", groupID, "user_id", userID, "amount", amount)
	return participant, nil
}

// ListChallenges returns a group's challenges, newest first.
func (m *Manager) ListChallenges(ctx context.Context, actorID, groupID string) ([]*models.Challenge, error) {
	if _, _, err := m.requireMember(ctx, m.store, groupID, actorID); err != nil {
		return nil, err
	}
	return m.store.ListChallenges(ctx, groupID)
}

// ListLogs returns a group's audit log, newest first.
func (m *Manager) ListLogs(ctx context.Context, actorID, groupID string) ([]*models.LogEntry, error) {
	if _, _, err := m.requireMember(ctx, m.store, groupID, actorID); err != nil {
		return nil, err
	}
	return m.store.ListLogs(ctx, groupID)
}

// RequireMember fails with models.ErrNotMember unless actorID participates in
// the group.
func (m *Manager) RequireMember(ctx context.Context, actorID, groupID string) error {
	_, _, err := m.requireMember(ctx, m.store, groupID, actorID)
	return err
}
