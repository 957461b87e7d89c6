// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/multas/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint or
	// a conditional update matched no row.
	ErrConflict = errors.New("conflict")

	// ErrTransient is returned when the database is busy or locked by a
	// concurrent writer. The whole operation may be retried.
	ErrTransient = errors.New("transient storage failure")
)

// Reader holds the read operations available both inside and outside a
// transaction.
type Reader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetGroupByCode(ctx context.Context, code string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	GetParticipant(ctx context.Context, groupID, userID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, groupID string) ([]*models.Participant, error)

	GetEvidence(ctx context.Context, evidenceID string) (*models.Evidence, error)
	ListEvidence(ctx context.Context, groupID string) ([]*models.Evidence, error)
	// ApprovedUserIDs returns the users with at least one APPROVED evidence
	// row for weekID in the group.
	ApprovedUserIDs(ctx context.Context, groupID, weekID string) (map[string]bool, error)

	GetChallenge(ctx context.Context, challengeID string) (*models.Challenge, error)
	ListChallenges(ctx context.Context, groupID string) ([]*models.Challenge, error)

	// ListLogs returns the group's log entries, newest first.
	ListLogs(ctx context.Context, groupID string) ([]*models.LogEntry, error)

	IsWeekClosed(ctx context.Context, groupID, weekID string) (bool, error)
}

// Tx is a unit of work. Every ledger mutation goes through a Tx so the
// change and its log entry commit together.
type Tx interface {
	Reader

	CreateGroup(ctx context.Context, group *models.Group) error
	UpdateGroupFine(ctx context.Context, groupID string, amount int64) error
	SetEncargado(ctx context.Context, groupID, userID string) error

	AddParticipant(ctx context.Context, p *models.Participant) error
	// AddFine increments a participant's accumulated fine in place.
	AddFine(ctx context.Context, groupID, userID string, amount int64) error
	// SetFine overwrites a participant's accumulated fine (admin correction).
	SetFine(ctx context.Context, groupID, userID string, amount int64) error
	SetObjective(ctx context.Context, groupID, userID, objective string) error

	CreateEvidence(ctx context.Context, e *models.Evidence) error
	// TransitionEvidence moves an evidence row from one status to another.
	// Returns ErrConflict if the row is no longer in status from.
	TransitionEvidence(ctx context.Context, evidenceID string, from, to models.EvidenceStatus) error

	CreateChallenge(ctx context.Context, c *models.Challenge) error
	// TransitionChallenge moves a challenge from one status to another.
	// Returns ErrConflict if the row is no longer in status from.
	TransitionChallenge(ctx context.Context, challengeID string, from, to models.ChallengeStatus) error

	// MarkWeekClosed inserts the ClosedWeek marker. Returns ErrConflict if
	// the week was already closed.
	MarkWeekClosed(ctx context.Context, week *models.ClosedWeek) error

	AppendLog(ctx context.Context, entry *models.LogEntry) error
}

// Store defines the ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the settlement engine.
type Store interface {
	Reader

	// CreateUser persists a new user. Returns ErrConflict if the username is
	// taken.
	CreateUser(ctx context.Context, user *models.User) error

	// WithTx runs fn inside a transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}
