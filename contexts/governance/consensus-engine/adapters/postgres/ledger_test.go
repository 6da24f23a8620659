package postgresadapter

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"
	"tribunal/contexts/governance/consensus-engine/ports/ledgertest"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestRepositoryLedgerBehaviour(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ports.Ledger { return newSQLiteRepository(t) })
}

func TestRepositoryMigrateIsIdempotent(t *testing.T) {
	repo := newSQLiteRepository(t)
	require.NoError(t, repo.Migrate(context.Background()))
}

func TestRepositoryStoresKind(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepository(t)
	require.NoError(t, repo.Set(ctx, ports.ProfileKey("0xabc"), []byte(`{}`)))

	var row ledgerEntryModel
	require.NoError(t, repo.db.First(&row).Error)
	require.Equal(t, "profile", row.Kind)
	require.Equal(t, ports.ProfileKey("0xabc").String(), row.Key)
}

func TestIsConflict(t *testing.T) {
	require.True(t, isConflict(&pgconn.PgError{Code: "23505"}))
	require.True(t, isConflict(&pgconn.PgError{Code: "40001"}))
	require.False(t, isConflict(&pgconn.PgError{Code: "42P01"}))
	require.False(t, isConflict(errors.New("plain")))
	require.False(t, isConflict(nil))
}

func TestAtomicIsSerializableOnPostgres(t *testing.T) {
	db := &gorm.DB{Config: &gorm.Config{Dialector: postgres.New(postgres.Config{DSN: "host=localhost"})}}
	opts := NewRepository(db, nil).txOptions()
	require.Len(t, opts, 1)
	require.Equal(t, sql.LevelSerializable, opts[0].Isolation)

	require.Empty(t, newSQLiteRepository(t).txOptions())
}

func TestAtomicMapsSerializationFailure(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepository(t)
	err := repo.Atomic(ctx, func(storage ports.Storage) error {
		if err := storage.Set(ctx, ports.SubjectSeqKey(), []byte(`1`)); err != nil {
			return err
		}
		return &pgconn.PgError{Code: "40001"}
	})
	require.ErrorIs(t, err, domainerrors.ErrConflict)

	has, err := repo.Has(ctx, ports.SubjectSeqKey())
	require.NoError(t, err)
	require.False(t, has)
}
