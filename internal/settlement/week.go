package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/multas/internal/calendar"
	"github.com/mmynk/multas/internal/metrics"
	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

// errGroupTooNew aborts the closing transaction of a group created after the
// start of the week being closed.
var errGroupTooNew = errors.New("group created after week start")

// CloseWeekIfDue settles the previous ISO week for the group exactly once:
// every participant without an APPROVED evidence row for that week is charged
// the group's current fine, and the week is marked closed. Calls for a week
// already closed, or by a closer that lost the race to another one, return a
// settlement with Processed false and change nothing.
//
// Only the most recent previous week is ever considered; weeks nobody
// triggered while they were the previous week stay unsettled.
func (e *Engine) CloseWeekIfDue(ctx context.Context, groupID string) (*models.WeekSettlement, error) {
	now := e.now()
	weekID, weekStart := calendar.PreviousWeek(now)

	closed, err := e.guard.IsClosed(ctx, groupID, weekID)
	if err != nil {
		e.logger.WarnContext(ctx, "Week cache lookup failed", "group_id", groupID, "week_id", weekID, "error", err)
	}
	if closed {
		e.metrics.WeekClosing(metrics.OutcomeAlreadyClosed)
		return &models.WeekSettlement{}, nil
	}

	closed, err = e.store.IsWeekClosed(ctx, groupID, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to check closed week: %w", err)
	}
	if closed {
		e.rememberClosed(ctx, groupID, weekID)
		e.metrics.WeekClosing(metrics.OutcomeAlreadyClosed)
		return &models.WeekSettlement{}, nil
	}

	var result *models.WeekSettlement
	err = e.retry(ctx, "close_week", func() error {
		result = &models.WeekSettlement{}
		return e.store.WithTx(ctx, func(tx storage.Tx) error {
			group, err := tx.GetGroup(ctx, groupID)
			if err != nil {
				return err
			}
			if group.CreatedAt > weekStart.Unix() {
				return errGroupTooNew
			}

			participants, err := tx.ListParticipants(ctx, groupID)
			if err != nil {
				return err
			}
			approved, err := tx.ApprovedUserIDs(ctx, groupID, weekID)
			if err != nil {
				return err
			}

			var ids, names []string
			for _, p := range participants {
				if approved[p.UserID] {
					continue
				}
				if err := tx.AddFine(ctx, groupID, p.UserID, group.CurrentFineAmount); err != nil {
					return err
				}
				ids = append(ids, p.UserID)
				names = append(names, p.Username)
			}

			if len(ids) > 0 {
				err := tx.AppendLog(ctx, &models.LogEntry{
					GroupID:   groupID,
					Message:   fmt.Sprintf("Cierre de semana %s. Multa aplicada a: %s", weekID, strings.Join(names, ", ")),
					Type:      models.LogDanger,
					Timestamp: now.Unix(),
				})
				if err != nil {
					return err
				}
			}

			// Inserted even without defaulters so the week is never revisited.
			err = tx.MarkWeekClosed(ctx, &models.ClosedWeek{
				GroupID:  groupID,
				WeekID:   weekID,
				ClosedAt: now.Unix(),
			})
			if err != nil {
				return err
			}

			result = &models.WeekSettlement{
				Processed:  true,
				WeekID:     weekID,
				Defaulters: ids,
				FineAmount: group.CurrentFineAmount,
			}
			return nil
		})
	})

	switch {
	case errors.Is(err, errGroupTooNew):
		e.metrics.WeekClosing(metrics.OutcomeGroupTooNew)
		e.logger.DebugContext(ctx, "Group too new to close week", "group_id", groupID, "week_id", weekID)
		return &models.WeekSettlement{}, nil
	case errors.Is(err, storage.ErrConflict):
		e.rememberClosed(ctx, groupID, weekID)
		e.metrics.WeekClosing(metrics.OutcomeLostRace)
		e.logger.InfoContext(ctx, "Week closed concurrently", "group_id", groupID, "week_id", weekID)
		return &models.WeekSettlement{}, nil
	case err != nil:
		e.metrics.WeekClosing(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to close week %s: %w", weekID, err)
	}

	e.rememberClosed(ctx, groupID, weekID)
	e.metrics.WeekClosing(metrics.OutcomeProcessed)
	e.metrics.FinesApplied(metrics.SourceWeek, len(result.Defaulters), result.FineAmount)
	e.logger.InfoContext(ctx, "Week closed",
		"group_id", groupID,
		"week_id", weekID,
		"defaulters", len(result.Defaulters),
		"fine_amount", result.FineAmount,
	)
	return result, nil
}

func (e *Engine) rememberClosed(ctx context.Context, groupID, weekID string) {
	if err := e.guard.MarkClosed(ctx, groupID, weekID); err != nil {
		e.logger.WarnContext(ctx, "Week cache update failed", "group_id", groupID, "week_id", weekID, "error", err)
	}
}
