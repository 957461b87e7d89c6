// Package groups manages group membership, evidence review and the other
// ledger changes that are not settlement. Every mutation writes its audit
// log entry in the same transaction.
package groups

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// codeAttempts bounds retries when a generated invite code is taken.
	codeAttempts = 5
)

// Manager implements group operations on top of a Store.
type Manager struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for timestamps and the week of
// submitted evidence.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager.
func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateGroup creates a group owned by actorID. The creator starts as admin,
// encargado and first participant.
func (m *Manager) CreateGroup(ctx context.Context, actorID, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", models.ErrInvalidArgument)
	}

	user, err := m.store.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}

	var group *models.Group
	for attempt := 1; ; attempt++ {
		code, err := inviteCode()
		if err != nil {
			return nil, err
		}

		group = &models.Group{
			Name:              name,
			Code:              code,
			AdminID:           user.ID,
			EncargadoID:       user.ID,
			CurrentFineAmount: models.DefaultFineAmount,
			CreatedAt:         m.now().Unix(),
		}
		err = m.store.WithTx(ctx, func(tx storage.Tx) error {
			if err := tx.CreateGroup(ctx, group); err != nil {
				return err
			}
			err := tx.AddParticipant(ctx, &models.Participant{
				GroupID:     group.ID,
				UserID:      user.ID,
				Username:    user.Username,
				HasWildcard: true,
				JoinedAt:    group.CreatedAt,
			})
			if err != nil {
				return err
			}
			return m.appendLog(ctx, tx, group.ID, models.LogSuccess, "Grupo \"%s\" creado por %s", name, user.Username)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrConflict) || attempt >= codeAttempts {
			return nil, fmt.Errorf("failed to create group: %w", err)
		}
		m.logger.WarnContext(ctx, "Invite code collision", "code", code, "attempt", attempt)
	}

	m.logger.InfoContext(ctx, "Group created", "group_id", group.ID, "admin_id", user.ID)
	return group, nil
}

// JoinGroup adds actorID to the group holding code. Joining twice fails with
// storage.ErrConflict.
func (m *Manager) JoinGroup(ctx context.Context, actorID, code string) (*models.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	group, err := m.store.GetGroupByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	user, err := m.store.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	err = m.store.WithTx(ctx, func(tx storage.Tx) error {
		err := tx.AddParticipant(ctx, &models.Participant{
			GroupID:     group.ID,
			UserID:      user.ID,
			Username:    user.Username,
			HasWildcard: true,
			JoinedAt:    m.now().Unix(),
		})
		if err != nil {
			return err
		}
		return m.appendLog(ctx, tx, group.ID, models.LogInfo, "%s se unió al grupo", user.Username)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	m.logger.InfoContext(ctx, "Group joined", "group_id", group.ID, "user_id", user.ID)
	return group, nil
}

// ListGroups returns the groups actorID belongs to.
func (m *Manager) ListGroups(ctx context.Context, actorID string) ([]*models.Group, error) {
	return m.store.ListGroupsForUser(ctx, actorID)
}

// GetGroup returns a group the actor belongs to.
func (m *Manager) GetGroup(ctx context.Context, actorID, groupID string) (*models.Group, error) {
	group, _, err := m.requireMember(ctx, m.store, groupID, actorID)
	return group, err
}

// UpdateFineAmount changes the base fine charged at the next week closing.
// Only the encargado may change it.
func (m *Manager) UpdateFineAmount(ctx context.Context, actorID, groupID string, amount int64) (*models.Group, error) {
	if amount < 0 || amount > models.MaxFineAmount {
		return nil, fmt.Errorf("%w: fine must be between 0 and %d", models.ErrInvalidArgument, models.MaxFineAmount)
	}

	var group *models.Group
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		g, err := requireEncargado(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		if err := tx.UpdateGroupFine(ctx, groupID, amount); err != nil {
			return err
		}
		g.CurrentFineAmount = amount
		group = g
		return m.appendLog(ctx, tx, groupID, models.LogWarning, "Multa actualizada a $%d", amount)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update fine: %w", err)
	}

	m.logger.InfoContext(ctx, "Group fine updated", "group_id", groupID, "amount", amount)
	return group, nil
}

// ChangeEncargado hands the steward role to another participant. Only the
// admin may do so.
func (m *Manager) ChangeEncargado(ctx context.Context, actorID, groupID, userID string) (*models.Group, error) {
	var group *models.Group
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		g, err := requireAdmin(ctx, tx, groupID, actorID)
		if err != nil {
			return err
		}
		target, err := tx.GetParticipant(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if err := tx.SetEncargado(ctx, groupID, target.UserID); err != nil {
			return err
		}
		g.EncargadoID = target.UserID
		group = g
		return m.appendLog(ctx, tx, groupID, models.LogInfo, "%s es el nuevo encargado", target.Username)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to change encargado: %w", err)
	}

	m.logger.InfoContext(ctx, "Encargado changed", "group_id", groupID, "encargado_id", userID)
	return group, nil
}

// requireMember loads the group and the actor's membership in it.
func (m *Manager) requireMember(ctx context.Context, r storage.Reader, groupID, actorID string) (*models.Group, *models.Participant, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	p, err := r.GetParticipant(ctx, groupID, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrNotMember, groupID)
	}
	if err != nil {
		return nil, nil, err
	}
	return group, p, nil
}

func requireEncargado(ctx context.Context, r storage.Reader, groupID, actorID string) (*models.Group, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.EncargadoID != actorID {
		return nil, fmt.Errorf("%w: only the encargado may do this", models.ErrForbidden)
	}
	return group, nil
}

func requireAdmin(ctx context.Context, r storage.Reader, groupID, actorID string) (*models.Group, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != actorID {
		return nil, fmt.Errorf("%w: only the admin may do this", models.ErrForbidden)
	}
	return group, nil
}

func (m *Manager) appendLog(ctx context.Context, tx storage.Tx, groupID string, typ models.LogType, format string, args ...any) error {
	return tx.AppendLog(ctx, &models.LogEntry{
		GroupID:   groupID,
		Message:   fmt.Sprintf(format, args...),
		Type:      typ,
		Timestamp: m.now().Unix(),
	})
}

func inviteCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
