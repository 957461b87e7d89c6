package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/multas/internal/models"
)

// IsWeekClosed reports whether settlement already ran for the week.
func (r reader) IsWeekClosed(ctx context.Context, groupID, weekID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM closed_weeks WHERE group_id = ? AND week_id = ?)",
		groupID, weekID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check closed week: %w", translateError(err))
	}
	return exists, nil
}

// MarkWeekClosed inserts the closed-week marker. The primary key makes a
// second insert for the same week fail with storage.ErrConflict.
func (w writer) MarkWeekClosed(ctx context.Context, week *models.ClosedWeek) error {
	if week.ClosedAt == 0 {
		week.ClosedAt = time.Now().Unix()
	}

	_, err := w.q.ExecContext(ctx,
		"INSERT INTO closed_weeks (group_id, week_id, closed_at) VALUES (?, ?, ?)",
		week.GroupID, week.WeekID, week.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert closed week: %w", translateError(err))
	}
	return nil
}

// AppendLog writes one audit entry.
func (w writer) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().Unix()
	}

	_, err := w.q.ExecContext(ctx,
		"INSERT INTO logs (id, group_id, message, type, timestamp) VALUES (?, ?, ?, ?, ?)",
		entry.ID, entry.GroupID, entry.Message, entry.Type, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", translateError(err))
	}
	return nil
}

// ListLogs retrieves the group's log, newest first. Entries written in the
// same second keep their insertion order.
func (r reader) ListLogs(ctx context.Context, groupID string) ([]*models.LogEntry, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, group_id, message, type, timestamp FROM logs WHERE group_id = ? ORDER BY timestamp DESC, rowid DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", translateError(err))
	}
	defer rows.Close()

	var entries []*models.LogEntry
	for rows.Next() {
		e := &models.LogEntry{}
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Message, &e.Type, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}
	return entries, nil
}
