package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/multas/internal/models"
	"github.com/mmynk/multas/internal/storage"
	"github.com/mmynk/multas/internal/storage/sqlite"
)

// Wednesday of 2025-W02; the week to close is 2025-W01, starting 2024-12-30.
var now = time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *sqlite.SQLiteStore
	group *models.Group
	users map[string]*models.User
}

// newFixture creates a group whose admin is the first name and whose
// encargado is the last one.
func newFixture(t *testing.T, createdAt time.Time, names ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "multas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, users: make(map[string]*models.User)}
	for _, name := range names {
		u := models.NewUser(name, name+"@example.com", "hash")
		require.NoError(t, store.CreateUser(ctx, u))
		f.users[name] = u
	}

	f.group = &models.Group{
		Name:              "Gym Bros",
		Code:              "GYM123",
		AdminID:           f.users[names[0]].ID,
		EncargadoID:       f.users[names[len(names)-1]].ID,
		CurrentFineAmount: 500,
		CreatedAt:         createdAt.Unix(),
	}
	err = store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateGroup(ctx, f.group); err != nil {
			return err
		}
		for _, name := range names {
			err := tx.AddParticipant(ctx, &models.Participant{
				GroupID:     f.group.ID,
				UserID:      f.users[name].ID,
				Username:    name,
				HasWildcard: true,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) engine(opts ...Option) *Engine {
	return New(f.store, append([]Option{WithClock(func() time.Time { return now })}, opts...)...)
}

func (f *fixture) evidence(t *testing.T, name, weekID string, status models.EvidenceStatus) {
	t.Helper()
	ctx := context.Background()
	err := f.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateEvidence(ctx, &models.Evidence{
			GroupID:     f.group.ID,
			UserID:      f.users[name].ID,
			Username:    name,
			WeekID:      weekID,
			Description: "10k",
			Status:      status,
		})
	})
	require.NoError(t, err)
}

func (f *fixture) fine(t *testing.T, name string) int64 {
	t.Helper()
	p, err := f.store.GetParticipant(context.Background(), f.group.ID, f.users[name].ID)
	require.NoError(t, err)
	return p.AccumulatedFine
}

func (f *fixture) logs(t *testing.T, typ models.LogType) []string {
	t.Helper()
	entries, err := f.store.ListLogs(context.Background(), f.group.ID)
	require.NoError(t, err)
	var messages []string
	for _, e := range entries {
		if e.Type == typ {
			messages = append(messages, e.Message)
		}
	}
	return messages
}

var longAgo = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

func TestCloseWeekIfDue(t *testing.T) {
	ctx := context.Background()

	t.Run("fines only the participant without approved evidence", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		f.evidence(t, "ana", "2025-W01", models.EvidenceApproved)
		f.evidence(t, "beto", "2025-W01", models.EvidenceApproved)
		f.evidence(t, "beto", "2025-W01", models.EvidenceRejected)
		f.evidence(t, "caro", "2025-W01", models.EvidenceRejected)
		f.evidence(t, "caro", "2025-W01", models.EvidencePending)
		f.evidence(t, "caro", "2025-W02", models.EvidenceApproved)

		res, err := f.engine().CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)

		assert.True(t, res.Processed)
		assert.Equal(t, "2025-W01", res.WeekID)
		assert.Equal(t, []string{f.users["caro"].ID}, res.Defaulters)
		assert.Equal(t, int64(500), res.FineAmount)

		assert.Equal(t, int64(0), f.fine(t, "ana"))
		assert.Equal(t, int64(0), f.fine(t, "beto"))
		assert.Equal(t, int64(500), f.fine(t, "caro"))
		assert.Equal(t, []string{"Cierre de semana 2025-W01. Multa aplicada a: caro"}, f.logs(t, models.LogDanger))

		closed, err := f.store.IsWeekClosed(ctx, f.group.ID, "2025-W01")
		require.NoError(t, err)
		assert.True(t, closed)
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto")
		engine := f.engine()

		first, err := engine.CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		require.True(t, first.Processed)

		second, err := engine.CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.False(t, second.Processed)

		// A fresh engine has an empty cache and must hit the closed-week row.
		third, err := f.engine().CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.False(t, third.Processed)

		assert.Equal(t, int64(500), f.fine(t, "ana"))
		assert.Equal(t, int64(500), f.fine(t, "beto"))
		assert.Len(t, f.logs(t, models.LogDanger), 1)
	})

	t.Run("group created after week start is not fined", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), "ana")

		res, err := f.engine().CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.False(t, res.Processed)
		assert.Equal(t, int64(0), f.fine(t, "ana"))
		assert.Empty(t, f.logs(t, models.LogDanger))

		closed, err := f.store.IsWeekClosed(ctx, f.group.ID, "2025-W01")
		require.NoError(t, err)
		assert.False(t, closed)
	})

	t.Run("group created exactly at week start is settled", func(t *testing.T) {
		f := newFixture(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "ana")

		res, err := f.engine().CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.True(t, res.Processed)
		assert.Equal(t, int64(500), f.fine(t, "ana"))
	})

	t.Run("week without defaulters is still marked closed", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto")
		f.evidence(t, "ana", "2025-W01", models.EvidenceApproved)
		f.evidence(t, "beto", "2025-W01", models.EvidenceApproved)

		res, err := f.engine().CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.True(t, res.Processed)
		assert.Empty(t, res.Defaulters)
		assert.Empty(t, f.logs(t, models.LogDanger))

		closed, err := f.store.IsWeekClosed(ctx, f.group.ID, "2025-W01")
		require.NoError(t, err)
		assert.True(t, closed)
	})

	t.Run("uses the fine in effect at settlement time", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana")
		err := f.store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.UpdateGroupFine(ctx, f.group.ID, 800)
		})
		require.NoError(t, err)

		res, err := f.engine().CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(800), res.FineAmount)
		assert.Equal(t, int64(800), f.fine(t, "ana"))
	})

	t.Run("unknown group", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana")

		_, err := f.engine().CloseWeekIfDue(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("concurrent closers fine once", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")

		const closers = 8
		var (
			wg        sync.WaitGroup
			processed atomic.Int32
			errs      = make(chan error, closers)
		)
		for i := 0; i < closers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Separate engines so no closer is answered from a shared cache.
				res, err := f.engine(WithRetry(5, 10*time.Millisecond)).CloseWeekIfDue(ctx, f.group.ID)
				if err != nil {
					errs <- err
					return
				}
				if res.Processed {
					processed.Add(1)
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), processed.Load())
		for _, name := range []string{"ana", "beto", "caro"} {
			assert.Equal(t, int64(500), f.fine(t, name), name)
		}
		assert.Len(t, f.logs(t, models.LogDanger), 1)
	})
}

func TestChallengeLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		engine := f.engine()

		c, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "5k under 25'", 300)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengePending, c.Status)
		assert.Equal(t, "ana", c.ChallengerName)
		assert.Equal(t, "beto", c.ChallengedName)
		assert.Equal(t, []string{"ana retó a beto"}, f.logs(t, models.LogWarning))

		stored, err := f.store.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c, stored)
	})

	t.Run("create rejects bad input", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto")
		engine := f.engine()

		_, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["ana"].ID, "x", 100)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)

		_, err = engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "x", 0)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)

		_, err = engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, "stranger", "x", 100)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		challenges, err := f.store.ListChallenges(ctx, f.group.ID)
		require.NoError(t, err)
		assert.Empty(t, challenges)
	})

	t.Run("reject changes no balance", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		engine := f.engine()
		c, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "plank", 200)
		require.NoError(t, err)

		_, err = engine.RespondToChallenge(ctx, c.ID, f.users["ana"].ID, false)
		assert.ErrorIs(t, err, models.ErrForbidden)

		c, err = engine.RespondToChallenge(ctx, c.ID, f.users["beto"].ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeRejected, c.Status)

		for _, name := range []string{"ana", "beto", "caro"} {
			assert.Equal(t, int64(0), f.fine(t, name), name)
		}
		assert.Contains(t, f.logs(t, models.LogWarning), "beto rechazó el reto de ana")

		_, err = engine.RespondToChallenge(ctx, c.ID, f.users["beto"].ID, true)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		_, err = engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["ana"].ID)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("challenger loses a 500 wager", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		engine := f.engine()
		c, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "pull-ups", 500)
		require.NoError(t, err)

		c, err = engine.RespondToChallenge(ctx, c.ID, f.users["beto"].ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeAccepted, c.Status)
		assert.Equal(t, []string{"beto aceptó el reto de ana"}, f.logs(t, models.LogInfo))

		c, err = engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["beto"].ID)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeCompletedChallengedWon, c.Status)
		assert.Equal(t, int64(500), f.fine(t, "ana"))
		assert.Equal(t, int64(0), f.fine(t, "beto"))
		assert.Equal(t, []string{"Reto finalizado. ana paga multa de $500."}, f.logs(t, models.LogDanger))

		// A retried resolution must not charge again.
		_, err = engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["beto"].ID)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		assert.ErrorContains(t, err, "already closed as COMPLETED_CHALLENGED_WON")
		_, err = engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["ana"].ID)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		assert.Equal(t, int64(500), f.fine(t, "ana"))
		assert.Equal(t, int64(0), f.fine(t, "beto"))
		assert.Len(t, f.logs(t, models.LogDanger), 1)
	})

	t.Run("resolve guards", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		engine := f.engine()
		c, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "burpees", 100)
		require.NoError(t, err)

		_, err = engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["ana"].ID)
		assert.ErrorIs(t, err, models.ErrInvalidTransition, "pending challenge")
		assert.ErrorContains(t, err, "challenge is PENDING, cannot become COMPLETED_CHALLENGER_WON")

		_, err = engine.RespondToChallenge(ctx, c.ID, f.users["beto"].ID, true)
		require.NoError(t, err)

		_, err = engine.ResolveChallenge(ctx, c.ID, f.users["ana"].ID, f.users["ana"].ID)
		assert.ErrorIs(t, err, models.ErrForbidden, "not the encargado")

		_, err = engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["caro"].ID)
		assert.ErrorIs(t, err, models.ErrInvalidArgument, "winner outside the challenge")

		_, err = engine.ResolveChallenge(ctx, "missing", f.users["caro"].ID, f.users["ana"].ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		got, err := f.store.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeAccepted, got.Status)
		assert.Equal(t, int64(0), f.fine(t, "ana"))
		assert.Equal(t, int64(0), f.fine(t, "beto"))
	})
}

// flakyStore fails the first failures transactions with a transient error.
type flakyStore struct {
	storage.Store
	failures atomic.Int32
	calls    atomic.Int32
}

func (s *flakyStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.calls.Add(1)
	if s.failures.Add(-1) >= 0 {
		return fmt.Errorf("failed to begin transaction: %w", storage.ErrTransient)
	}
	return s.Store.WithTx(ctx, fn)
}

func TestRetryOnTransientErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers within budget", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto")
		flaky := &flakyStore{Store: f.store}
		flaky.failures.Store(2)
		engine := New(flaky, WithClock(func() time.Time { return now }), WithRetry(3, 0))

		res, err := engine.CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.True(t, res.Processed)
		assert.Equal(t, int32(3), flaky.calls.Load())
		assert.Equal(t, int64(500), f.fine(t, "ana"))
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto")
		flaky := &flakyStore{Store: f.store}
		flaky.failures.Store(5)
		engine := New(flaky, WithClock(func() time.Time { return now }), WithRetry(2, 0))

		_, err := engine.CloseWeekIfDue(ctx, f.group.ID)
		assert.ErrorIs(t, err, storage.ErrTransient)
		assert.Equal(t, int32(2), flaky.calls.Load())
		assert.Equal(t, int64(0), f.fine(t, "ana"))
	})

	t.Run("non-transient errors are not retried", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		flaky := &flakyStore{Store: f.store}
		engine := New(flaky, WithRetry(3, 0))

		_, err := engine.ResolveChallenge(ctx, "missing", f.users["caro"].ID, f.users["ana"].ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Equal(t, int32(1), flaky.calls.Load())
	})
}

var errDiskFull = errors.New("disk full")

// faultyStore runs real transactions but makes selected writes fail.
type faultyStore struct {
	storage.Store
	// failFine is the 1-based AddFine call that fails within a transaction;
	// zero never fails.
	failFine int
	failLog  bool
}

func (s *faultyStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(&faultyTx{Tx: tx, store: s})
	})
}

type faultyTx struct {
	storage.Tx
	store *faultyStore
	fines int
}

func (tx *faultyTx) AddFine(ctx context.Context, groupID, userID string, amount int64) error {
	tx.fines++
	if tx.fines == tx.store.failFine {
		return errDiskFull
	}
	return tx.Tx.AddFine(ctx, groupID, userID, amount)
}

func (tx *faultyTx) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	if tx.store.failLog {
		return errDiskFull
	}
	return tx.Tx.AppendLog(ctx, entry)
}

func TestSettlementIsAllOrNothing(t *testing.T) {
	ctx := context.Background()

	// acceptedChallenge returns an ACCEPTED 500 wager of ana against beto.
	acceptedChallenge := func(t *testing.T, f *fixture) *models.Challenge {
		t.Helper()
		engine := f.engine()
		c, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "pull-ups", 500)
		require.NoError(t, err)
		c, err = engine.RespondToChallenge(ctx, c.ID, f.users["beto"].ID, true)
		require.NoError(t, err)
		return c
	}

	for name, faulty := range map[string]*faultyStore{
		"fine fails after the status change": {failFine: 1},
		"log fails after the fine":           {failLog: true},
	} {
		t.Run("resolve: "+name, func(t *testing.T) {
			f := newFixture(t, longAgo, "ana", "beto", "caro")
			c := acceptedChallenge(t, f)
			faulty.Store = f.store
			engine := New(faulty, WithClock(func() time.Time { return now }))

			_, err := engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["beto"].ID)
			require.ErrorIs(t, err, errDiskFull)

			got, err := f.store.GetChallenge(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ChallengeAccepted, got.Status)
			assert.Equal(t, int64(0), f.fine(t, "ana"))
			assert.Equal(t, int64(0), f.fine(t, "beto"))
			assert.Empty(t, f.logs(t, models.LogDanger))

			// The challenge can still be resolved once the store recovers.
			resolved, err := f.engine().ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["beto"].ID)
			require.NoError(t, err)
			assert.Equal(t, models.ChallengeCompletedChallengedWon, resolved.Status)
			assert.Equal(t, int64(500), f.fine(t, "ana"))
		})
	}

	for name, faulty := range map[string]*faultyStore{
		"second fine fails": {failFine: 2},
		"log fails":         {failLog: true},
	} {
		t.Run("close week: "+name, func(t *testing.T) {
			f := newFixture(t, longAgo, "ana", "beto", "caro")
			faulty.Store = f.store
			engine := New(faulty, WithClock(func() time.Time { return now }))

			_, err := engine.CloseWeekIfDue(ctx, f.group.ID)
			require.ErrorIs(t, err, errDiskFull)

			for _, name := range []string{"ana", "beto", "caro"} {
				assert.Equal(t, int64(0), f.fine(t, name), name)
			}
			assert.Empty(t, f.logs(t, models.LogDanger))
			closed, err := f.store.IsWeekClosed(ctx, f.group.ID, "2025-W01")
			require.NoError(t, err)
			assert.False(t, closed)

			res, err := f.engine().CloseWeekIfDue(ctx, f.group.ID)
			require.NoError(t, err)
			assert.True(t, res.Processed)
			assert.Len(t, res.Defaulters, 3)
		})
	}
}

func TestFineLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("wager above the maximum is rejected", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		engine := f.engine()

		for _, amount := range []int64{math.MaxInt64, models.MaxFineAmount + 1} {
			_, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "x", amount)
			assert.ErrorIs(t, err, models.ErrInvalidArgument, "amount %d", amount)
		}

		_, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "x", models.MaxFineAmount)
		assert.NoError(t, err)
	})

	t.Run("fine that would overflow the balance is refused", func(t *testing.T) {
		f := newFixture(t, longAgo, "ana", "beto", "caro")
		engine := f.engine()
		nearMax := int64(math.MaxInt64 - 100)
		require.NoError(t, f.store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.SetFine(ctx, f.group.ID, f.users["ana"].ID, nearMax)
		}))

		c, err := engine.CreateChallenge(ctx, f.group.ID, f.users["ana"].ID, f.users["beto"].ID, "pull-ups", 500)
		require.NoError(t, err)
		_, err = engine.RespondToChallenge(ctx, c.ID, f.users["beto"].ID, true)
		require.NoError(t, err)

		_, err = engine.ResolveChallenge(ctx, c.ID, f.users["caro"].ID, f.users["beto"].ID)
		require.ErrorIs(t, err, models.ErrInvalidArgument)

		got, err := f.store.GetChallenge(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeAccepted, got.Status)
		assert.Equal(t, nearMax, f.fine(t, "ana"))
		assert.Empty(t, f.logs(t, models.LogDanger))

		// Week closing would overflow ana as well and must leave the week open.
		_, err = engine.CloseWeekIfDue(ctx, f.group.ID)
		require.ErrorIs(t, err, models.ErrInvalidArgument)
		assert.Equal(t, nearMax, f.fine(t, "ana"))
		assert.Equal(t, int64(0), f.fine(t, "beto"))

		// After an admin correction the group settles normally.
		require.NoError(t, f.store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.SetFine(ctx, f.group.ID, f.users["ana"].ID, 0)
		}))
		res, err := engine.CloseWeekIfDue(ctx, f.group.ID)
		require.NoError(t, err)
		assert.True(t, res.Processed)
		assert.Equal(t, int64(500), f.fine(t, "ana"))
	})
}
