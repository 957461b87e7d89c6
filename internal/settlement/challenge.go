package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/multas/internal/metrics"
	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

// CreateChallenge records a PENDING wager from challengerID to challengedID.
// Both must be participants of the group; their names are copied onto the
// challenge as they are now.
func (e *Engine) CreateChallenge(ctx context.Context, groupID, challengerID, challengedID, description string, amount int64) (*models.Challenge, error) {
	if amount <= 0 || amount > models.MaxFineAmount {
		return nil, fmt.Errorf("%w: wager must be between 1 and %d", models.ErrInvalidArgument, models.MaxFineAmount)
	}
	if challengerID == challengedID {
		return nil, fmt.Errorf("%w: cannot challenge yourself", models.ErrInvalidArgument)
	}

	var challenge *models.Challenge
	err := e.store.WithTx(ctx, func(tx storage.Tx) error {
		challenger, err := tx.GetParticipant(ctx, groupID, challengerID)
		if err != nil {
			return err
		}
		challenged, err := tx.GetParticipant(ctx, groupID, challengedID)
		if err != nil {
			return err
		}

		challenge = &models.Challenge{
			GroupID:        groupID,
			ChallengerID:   challenger.UserID,
			ChallengerName: challenger.Username,
			ChallengedID:   challenged.UserID,
			ChallengedName: challenged.Username,
			Description:    description,
			FineAmount:     amount,
			Status:         models.ChallengePending,
			CreatedAt:      e.now().Unix(),
		}
		if err := tx.CreateChallenge(ctx, challenge); err != nil {
			return err
		}

		return tx.AppendLog(ctx, &models.LogEntry{
			GroupID:   groupID,
			Message:   fmt.Sprintf("%s retó a %s", challenger.Username, challenged.Username),
			Type:      models.LogWarning,
			Timestamp: challenge.CreatedAt,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	e.metrics.ChallengeTransition(string(models.ChallengePending))
	e.logger.InfoContext(ctx, "Challenge created",
		"challenge_id", challenge.ID,
		"group_id", groupID,
		"challenger_id", challengerID,
		"challenged_id", challengedID,
		"amount", amount,
	)
	return challenge, nil
}

// RespondToChallenge lets the challenged party accept or reject a PENDING
// challenge. Neither answer touches any fine.
func (e *Engine) RespondToChallenge(ctx context.Context, challengeID, actorID string, accept bool) (*models.Challenge, error) {
	next, verb, logType := models.ChallengeRejected, "rechazó", models.LogWarning
	if accept {
		next, verb, logType = models.ChallengeAccepted, "aceptó", models.LogInfo
	}

	var challenge *models.Challenge
	err := e.store.WithTx(ctx, func(tx storage.Tx) error {
		c, err := tx.GetChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if c.ChallengedID != actorID {
			return fmt.Errorf("%w: only the challenged participant may respond", models.ErrForbidden)
		}
		if !c.Status.CanTransition(next) {
			return invalidTransition(c.Status, next)
		}

		if err := tx.TransitionChallenge(ctx, c.ID, c.Status, next); err != nil {
			return asInvalidTransition(err)
		}
		c.Status = next

		challenge = c
		return tx.AppendLog(ctx, &models.LogEntry{
			GroupID:   c.GroupID,
			Message:   fmt.Sprintf("%s %s el reto de %s", c.ChallengedName, verb, c.ChallengerName),
			Type:      logType,
			Timestamp: e.now().Unix(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to respond to challenge: %w", err)
	}

	e.metrics.ChallengeTransition(string(next))
	e.logger.InfoContext(ctx, "Challenge answered", "challenge_id", challengeID, "status", next)
	return challenge, nil
}

// ResolveChallenge settles an ACCEPTED challenge. Only the group's encargado
// may resolve; the party that is not winnerID pays the wager. The status
// change, the fine and the log entry commit together, and a challenge can be
// resolved only once.
func (e *Engine) ResolveChallenge(ctx context.Context, challengeID, actorID, winnerID string) (*models.Challenge, error) {
	var (
		challenge *models.Challenge
		loserID   string
	)
	err := e.retry(ctx, "resolve_challenge", func() error {
		return e.store.WithTx(ctx, func(tx storage.Tx) error {
			c, err := tx.GetChallenge(ctx, challengeID)
			if err != nil {
				return err
			}
			group, err := tx.GetGroup(ctx, c.GroupID)
			if err != nil {
				return err
			}
			if group.EncargadoID != actorID {
				return fmt.Errorf("%w: only the encargado may resolve challenges", models.ErrForbidden)
			}

			next := c.CompletedStatus(winnerID)
			if !c.Status.CanTransition(next) {
				return invalidTransition(c.Status, next)
			}
			id, name, ok := c.Loser(winnerID)
			if !ok {
				return fmt.Errorf("%w: winner %s is not part of the challenge", models.ErrInvalidArgument, winnerID)
			}

			if err := tx.TransitionChallenge(ctx, c.ID, c.Status, next); err != nil {
				return asInvalidTransition(err)
			}
			if err := tx.AddFine(ctx, c.GroupID, id, c.FineAmount); err != nil {
				return err
			}
			err = tx.AppendLog(ctx, &models.LogEntry{
				GroupID:   c.GroupID,
				Message:   fmt.Sprintf("Reto finalizado. %s paga multa de $%d.", name, c.FineAmount),
				Type:      models.LogDanger,
				Timestamp: e.now().Unix(),
			})
			if err != nil {
				return err
			}

			c.Status = next
			challenge, loserID = c, id
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve challenge: %w", err)
	}

	e.metrics.ChallengeTransition(string(challenge.Status))
	e.metrics.FinesApplied(metrics.SourceChallenge, 1, challenge.FineAmount)
	e.logger.InfoContext(ctx, "Challenge resolved",
		"challenge_id", challengeID,
		"status", challenge.Status,
		"loser_id", loserID,
		"amount", challenge.FineAmount,
	)
	return challenge, nil
}

// invalidTransition describes why a challenge cannot move from one status to
// another.
func invalidTransition(from, to models.ChallengeStatus) error {
	if from.Terminal() {
		return fmt.Errorf("%w: challenge is already closed as %s", models.ErrInvalidTransition, from)
	}
	return fmt.Errorf("%w: challenge is %s, cannot become %s", models.ErrInvalidTransition, from, to)
}

// asInvalidTransition reports a conditional update that lost to a concurrent
// transition as an invalid transition.
func asInvalidTransition(err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("%w: %w", models.ErrInvalidTransition, err)
	}
	return err
}
