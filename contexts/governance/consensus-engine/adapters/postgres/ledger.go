package postgresadapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository keeps the ledger in a single ledger_entries table keyed by the
// canonical key string. Atomic maps to a gorm transaction, serializable on
// postgres so concurrent read-modify-write calls fail with ErrConflict instead
// of overwriting each other.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the ledger table when it does not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&ledgerEntryModel{}); err != nil {
		return r.logError("consensus_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key ports.Key) ([]byte, bool, error) {
	return r.storage(r.db.WithContext(ctx)).Get(ctx, key)
}

func (r *Repository) Has(ctx context.Context, key ports.Key) (bool, error) {
	return r.storage(r.db.WithContext(ctx)).Has(ctx, key)
}

func (r *Repository) Set(ctx context.Context, key ports.Key, value []byte) error {
	return r.storage(r.db.WithContext(ctx)).Set(ctx, key, value)
}

func (r *Repository) Remove(ctx context.Context, key ports.Key) error {
	return r.storage(r.db.WithContext(ctx)).Remove(ctx, key)
}

func (r *Repository) Scan(ctx context.Context, kind ports.KeyKind) ([]ports.Entry, error) {
	return r.storage(r.db.WithContext(ctx)).Scan(ctx, kind)
}

func (r *Repository) Atomic(ctx context.Context, fn func(ports.Storage) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.storage(tx))
	}, r.txOptions()...)
	if isConflict(err) {
		return domainerrors.ErrConflict
	}
	return err
}

// txOptions raises isolation on postgres. The sqlite driver used in tests
// runs on a single connection and is already serial.
func (r *Repository) txOptions() []*sql.TxOptions {
	if r.db.Dialector == nil || r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
}

func (r *Repository) storage(db *gorm.DB) gormStorage {
	return gormStorage{db: db, repo: r}
}

type gormStorage struct {
	db   *gorm.DB
	repo *Repository
}

func (s gormStorage) Get(_ context.Context, key ports.Key) ([]byte, bool, error) {
	var row ledgerEntryModel
	err := s.db.Where("ledger_key = ?", key.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, s.repo.logError("consensus_repo_get_failed", err, "key", key.String())
	}
	return row.Value, true, nil
}

func (s gormStorage) Has(_ context.Context, key ports.Key) (bool, error) {
	var count int64
	if err := s.db.Model(&ledgerEntryModel{}).Where("ledger_key = ?", key.String()).Count(&count).Error; err != nil {
		return false, s.repo.logError("consensus_repo_has_failed", err, "key", key.String())
	}
	return count > 0, nil
}

func (s gormStorage) Set(_ context.Context, key ports.Key, value []byte) error {
	row := ledgerEntryModel{
		Key:       key.String(),
		Kind:      string(key.Kind),
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	create := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ledger_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row)
	if create.Error != nil {
		if isConflict(create.Error) {
			return domainerrors.ErrConflict
		}
		return s.repo.logError("consensus_repo_set_failed", create.Error, "key", row.Key)
	}
	return nil
}

func (s gormStorage) Remove(_ context.Context, key ports.Key) error {
	if err := s.db.Where("ledger_key = ?", key.String()).Delete(&ledgerEntryModel{}).Error; err != nil {
		return s.repo.logError("consensus_repo_remove_failed", err, "key", key.String())
	}
	return nil
}

func (s gormStorage) Scan(_ context.Context, kind ports.KeyKind) ([]ports.Entry, error) {
	var rows []ledgerEntryModel
	if err := s.db.Where("kind = ?", string(kind)).Order("ledger_key ASC").Find(&rows).Error; err != nil {
		return nil, s.repo.logError("consensus_repo_scan_failed", err, "kind", string(kind))
	}
	entries := make([]ports.Entry, 0, len(rows))
	for _, row := range rows {
		key, err := ports.ParseKey(row.Key)
		if err != nil {
			return nil, s.repo.logError("consensus_repo_scan_decode_failed", err, "key", row.Key)
		}
		entries = append(entries, ports.Entry{Key: key, Value: row.Value})
	}
	return entries, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/consensus-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("consensus repository operation failed", fields...)
	return err
}

type ledgerEntryModel struct {
	Key       string    `gorm:"column:ledger_key;primaryKey;size:512"`
	Kind      string    `gorm:"column:kind;index;size:64;not null"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ledgerEntryModel) TableName() string {
	return "ledger_entries"
}

// isConflict reports unique violations and serialization failures raised by
// concurrent writers.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" || pgErr.Code == "40001"
}

var _ ports.Ledger = (*Repository)(nil)
