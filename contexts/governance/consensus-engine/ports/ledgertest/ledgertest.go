// Package ledgertest holds the behaviour every ports.Ledger implementation
// must share. Adapter tests call Run with a fresh, empty ledger.
package ledgertest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"

	"github.com/stretchr/testify/require"
)

var errAbort = errors.New("abort")

const (
	concurrentWorkers = 8
	concurrentRounds  = 5
	conflictRetries   = 200
)

// Run exercises ledger. newLedger must return an empty ledger per call.
func Run(t *testing.T, newLedger func(t *testing.T) ports.Ledger) {
	t.Helper()

	t.Run("get reports absence", func(t *testing.T) {
		ledger := newLedger(t)
		value, found, err := ledger.Get(context.Background(), ports.SubjectKey(1))
		require.NoError(t, err)
		require.False(t, found)
		require.Nil(t, value)

		has, err := ledger.Has(context.Background(), ports.AdminKey())
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("set get remove", func(t *testing.T) {
		ctx := context.Background()
		ledger := newLedger(t)
		key := ports.BallotKey(7, "0xabc")
		require.NoError(t, ledger.Set(ctx, key, []byte(`{"choice":"approve"}`)))

		value, found, err := ledger.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		require.JSONEq(t, `{"choice":"approve"}`, string(value))

		require.NoError(t, ledger.Set(ctx, key, []byte(`{"choice":"reject"}`)))
		value, _, err = ledger.Get(ctx, key)
		require.NoError(t, err)
		require.JSONEq(t, `{"choice":"reject"}`, string(value))

		require.NoError(t, ledger.Remove(ctx, key))
		has, err := ledger.Has(ctx, key)
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("scan is ordered and scoped to kind", func(t *testing.T) {
		ctx := context.Background()
		ledger := newLedger(t)
		for _, seq := range []uint64{10, 2, 1} {
			require.NoError(t, ledger.Set(ctx, ports.OutboxKey(seq), []byte(`{}`)))
		}
		require.NoError(t, ledger.Set(ctx, ports.OutboxSeqKey(), []byte(`10`)))
		require.NoError(t, ledger.Set(ctx, ports.SubjectKey(3), []byte(`{}`)))

		entries, err := ledger.Scan(ctx, ports.KeyOutbox)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, []uint64{1, 2, 10}, []uint64{entries[0].Key.ID, entries[1].Key.ID, entries[2].Key.ID})
		require.Equal(t, ports.KeyOutbox, entries[0].Key.Kind)

		entries, err = ledger.Scan(ctx, ports.KeyRelease)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("atomic commits on success", func(t *testing.T) {
		ctx := context.Background()
		ledger := newLedger(t)
		err := ledger.Atomic(ctx, func(storage ports.Storage) error {
			if err := storage.Set(ctx, ports.SubjectKey(1), []byte(`{"n":1}`)); err != nil {
				return err
			}
			value, found, err := storage.Get(ctx, ports.SubjectKey(1))
			require.NoError(t, err)
			require.True(t, found)
			require.JSONEq(t, `{"n":1}`, string(value))
			return storage.Set(ctx, ports.SubjectSeqKey(), []byte(`1`))
		})
		require.NoError(t, err)

		for _, key := range []ports.Key{ports.SubjectKey(1), ports.SubjectSeqKey()} {
			has, err := ledger.Has(ctx, key)
			require.NoError(t, err)
			require.True(t, has, key.String())
		}
	})

	t.Run("atomic discards everything on error", func(t *testing.T) {
		ctx := context.Background()
		ledger := newLedger(t)
		require.NoError(t, ledger.Set(ctx, ports.ConfigKey(), []byte(`{"v":1}`)))

		err := ledger.Atomic(ctx, func(storage ports.Storage) error {
			if err := storage.Set(ctx, ports.ConfigKey(), []byte(`{"v":2}`)); err != nil {
				return err
			}
			if err := storage.Set(ctx, ports.FeesKey(), []byte(`{}`)); err != nil {
				return err
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		value, found, err := ledger.Get(ctx, ports.ConfigKey())
		require.NoError(t, err)
		require.True(t, found)
		require.JSONEq(t, `{"v":1}`, string(value))

		has, err := ledger.Has(ctx, ports.FeesKey())
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("atomic remove hides entry inside the call", func(t *testing.T) {
		ctx := context.Background()
		ledger := newLedger(t)
		require.NoError(t, ledger.Set(ctx, ports.RoleKey("0xabc"), []byte(`["moderator"]`)))

		err := ledger.Atomic(ctx, func(storage ports.Storage) error {
			if err := storage.Remove(ctx, ports.RoleKey("0xabc")); err != nil {
				return err
			}
			has, err := storage.Has(ctx, ports.RoleKey("0xabc"))
			require.NoError(t, err)
			require.False(t, has)
			return nil
		})
		require.NoError(t, err)

		entries, err := ledger.Scan(ctx, ports.KeyRole)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("concurrent atomic increments are not lost", func(t *testing.T) {
		ctx := context.Background()
		ledger := newLedger(t)

		var wg sync.WaitGroup
		errs := make(chan error, concurrentWorkers)
		for worker := 0; worker < concurrentWorkers; worker++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for round := 0; round < concurrentRounds; round++ {
					if err := appendSequenced(ctx, ledger); err != nil {
						errs <- err
						return
					}
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		want := concurrentWorkers * concurrentRounds
		require.Equal(t, uint64(want), readCounter(t, ledger, ports.SubjectSeqKey()))
		entries, err := ledger.Scan(ctx, ports.KeyOutbox)
		require.NoError(t, err)
		require.Len(t, entries, want)
		for i, entry := range entries {
			require.Equal(t, uint64(i+1), entry.Key.ID)
		}
	})
}

// appendSequenced bumps the subject counter and writes one outbox entry under
// the new value, retrying when the ledger reports a write conflict.
func appendSequenced(ctx context.Context, ledger ports.Ledger) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = ledger.Atomic(ctx, func(storage ports.Storage) error {
			raw, _, err := storage.Get(ctx, ports.SubjectSeqKey())
			if err != nil {
				return err
			}
			var current uint64
			if len(raw) > 0 {
				current, err = strconv.ParseUint(string(raw), 10, 64)
				if err != nil {
					return err
				}
			}
			current++
			if err := storage.Set(ctx, ports.SubjectSeqKey(), []byte(strconv.FormatUint(current, 10))); err != nil {
				return err
			}
			return storage.Set(ctx, ports.OutboxKey(current), []byte(`{}`))
		})
		if !errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
	}
	return err
}

func readCounter(t *testing.T, ledger ports.Ledger, key ports.Key) uint64 {
	t.Helper()
	raw, found, err := ledger.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, found)
	value, err := strconv.ParseUint(string(raw), 10, 64)
	require.NoError(t, err)
	return value
}
