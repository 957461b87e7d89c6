package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/multas/internal/calendar"
	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

// SubmitEvidence records PENDING evidence from the actor for the current week.
func (m *Manager) SubmitEvidence(ctx context.Context, actorID, groupID, description, attachmentRef string) (*models.Evidence, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrInvalidArgument)
	}

	var evidence *models.Evidence
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		_, p, err := m.requireMember(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}

		now := m.now()
		evidence = &models.Evidence{
			GroupID:       groupID,
			UserID:        p.UserID,
			Username:      p.Username,
			WeekID:        calendar.WeekID(now),
			Description:   description,
			AttachmentRef: attachmentRef,
			Status:        models.EvidencePending,
			Timestamp:     now.Unix(),
		}
		if err := tx.CreateEvidence(ctx, evidence); err != nil {
			return err
		}
		return m.appendLog(ctx, tx, groupID, models.LogInfo, "%s subió nueva evidencia", p.Username)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit evidence: %w", err)
	}

	m.logger.InfoContext(ctx, "Evidence submitted", "evidence_id", evidence.ID, "group_id", groupID, "week_id", evidence.WeekID)
	return evidence, nil
}

// ListEvidence returns a group's evidence, newest first.
func (m *Manager) ListEvidence(ctx context.Context, actorID, groupID string) ([]*models.Evidence, error) {
	if _, _, err := m.requireMember(ctx, m.store, groupID, actorID); err != nil {
		return nil, err
	}
	return m.store.ListEvidence(ctx, groupID)
}

// ReviewEvidence approves or rejects PENDING evidence. Only the encargado may
// review, and each row is reviewed once.
func (m *Manager) ReviewEvidence(ctx context.Context, actorID, evidenceID string, approve bool) (*models.Evidence, error) {
	next, verb, logType := models.EvidenceRejected, "rechazó", models.LogWarning
	if approve {
		next, verb, logType = models.EvidenceApproved, "aprobó", models.LogSuccess
	}

	var evidence *models.Evidence
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		e, err := tx.GetEvidence(ctx, evidenceID)
		if err != nil {
			return err
		}
		if _, err := requireEncargado(ctx, tx, e.GroupID, actorID); err != nil {
			return err
		}
		if e.Status != models.EvidencePending {
			return fmt.Errorf("%w: evidence is %s", models.ErrInvalidTransition, e.Status)
		}
		reviewer, err := tx.GetParticipant(ctx, e.GroupID, actorID)
		if err != nil {
			return err
		}

		if err := tx.TransitionEvidence(ctx, e.ID, models.EvidencePending, next); err != nil {
			return err
		}
		e.Status = next
		evidence = e
		return m.appendLog(ctx, tx, e.GroupID, logType, "Encargado (%s) %s evidencia de %s", reviewer.Username, verb, e.Username)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to review evidence: %w", err)
	}

	m.logger.InfoContext(ctx, "Evidence reviewed", "evidence_id", evidenceID, "status", next)
	return evidence, nil
}
