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

const evidenceColumns = "id, group_id, user_id, username, week_id, description, attachment_ref, status, timestamp"

// CreateEvidence persists a new evidence row.
func (w writer) CreateEvidence(ctx context.Context, e *models.Evidence) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	if e.Status == "" {
		e.Status = models.EvidencePending
	}

	var attachment interface{} = nil
	if e.AttachmentRef != "" {
		attachment = e.AttachmentRef
	}

	_, err := w.q.ExecContext(ctx,
		"INSERT INTO evidence ("+evidenceColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.GroupID, e.UserID, e.Username, e.WeekID, e.Description, attachment, e.Status, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evidence: %w", translateError(err))
	}
	return nil
}

// GetEvidence retrieves an evidence row by ID.
func (r reader) GetEvidence(ctx context.Context, evidenceID string) (*models.Evidence, error) {
	e, err := scanEvidence(r.q.QueryRowContext(ctx,
		"SELECT "+evidenceColumns+" FROM evidence WHERE id = ?", evidenceID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: evidence %s", storage.ErrNotFound, evidenceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evidence: %w", translateError(err))
	}
	return e, nil
}

// ListEvidence retrieves all evidence for a group, newest first.
func (r reader) ListEvidence(ctx context.Context, groupID string) ([]*models.Evidence, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+evidenceColumns+" FROM evidence WHERE group_id = ? ORDER BY timestamp DESC, rowid DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", translateError(err))
	}
	defer rows.Close()

	var list []*models.Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evidence: %w", err)
	}
	return list, nil
}

// ApprovedUserIDs returns the set of users holding at least one APPROVED
// evidence row for the week.
func (r reader) ApprovedUserIDs(ctx context.Context, groupID, weekID string) (map[string]bool, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM evidence WHERE group_id = ? AND week_id = ? AND status = ?",
		groupID, weekID, models.EvidenceApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved evidence: %w", translateError(err))
	}
	defer rows.Close()

	approved := make(map[string]bool)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan approved user: %w", err)
		}
		approved[userID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approved evidence: %w", err)
	}
	return approved, nil
}

// TransitionEvidence changes the status only if the row is still in from.
func (w writer) TransitionEvidence(ctx context.Context, evidenceID string, from, to models.EvidenceStatus) error {
	res, err := w.q.ExecContext(ctx,
		"UPDATE evidence SET status = ? WHERE id = ? AND status = ?", to, evidenceID, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update evidence status: %w", translateError(err))
	}
	return expectOne(res, storage.ErrConflict, "evidence "+evidenceID+" is not "+string(from))
}

func scanEvidence(row rowScanner) (*models.Evidence, error) {
	e := &models.Evidence{}
	var attachment sql.NullString
	err := row.Scan(&e.ID, &e.GroupID, &e.UserID, &e.Username, &e.WeekID,
		&e.Description, &attachment, &e.Status, &e.Timestamp)
	if err != nil {
		return nil, err
	}
	if attachment.Valid {
		e.AttachmentRef = attachment.String
	}
	return e, nil
}
