package badgeradapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"

	badger "github.com/dgraph-io/badger/v4"
)

// Ledger stores every ledger key in one badger keyspace under its canonical
// string form. Atomic maps to a read-write badger transaction.
type Ledger struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens a badger ledger at dir. An empty dir selects in-memory mode.
func Open(dir string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir).
		WithLogger(newBadgerLogger(logger)).
		WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger ledger: %w", err)
	}
	return &Ledger{db: db, logger: logger}, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) Get(ctx context.Context, key ports.Key) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		value, found, err = txnStorage{txn: txn}.get(key)
		return err
	})
	if err != nil {
		return nil, false, l.logError("consensus_badger_get_failed", err, "key", key.String())
	}
	return value, found, nil
}

func (l *Ledger) Has(ctx context.Context, key ports.Key) (bool, error) {
	_, found, err := l.Get(ctx, key)
	return found, err
}

func (l *Ledger) Set(ctx context.Context, key ports.Key, value []byte) error {
	return l.Atomic(ctx, func(storage ports.Storage) error {
		return storage.Set(ctx, key, value)
	})
}

func (l *Ledger) Remove(ctx context.Context, key ports.Key) error {
	return l.Atomic(ctx, func(storage ports.Storage) error {
		return storage.Remove(ctx, key)
	})
}

func (l *Ledger) Scan(ctx context.Context, kind ports.KeyKind) ([]ports.Entry, error) {
	var entries []ports.Entry
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		entries, err = txnStorage{txn: txn}.Scan(ctx, kind)
		return err
	})
	if err != nil {
		return nil, l.logError("consensus_badger_scan_failed", err, "kind", string(kind))
	}
	return entries, nil
}

// Atomic runs fn inside db.Update. Badger's optimistic conflict detection
// surfaces as ErrConflict; the caller resubmits.
func (l *Ledger) Atomic(ctx context.Context, fn func(ports.Storage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := l.db.Update(func(txn *badger.Txn) error {
		return fn(txnStorage{txn: txn})
	})
	if errors.Is(err, badger.ErrConflict) {
		return domainerrors.ErrConflict
	}
	return err
}

type txnStorage struct {
	txn *badger.Txn
}

func (s txnStorage) get(key ports.Key) ([]byte, bool, error) {
	item, err := s.txn.Get([]byte(key.String()))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s txnStorage) Get(_ context.Context, key ports.Key) ([]byte, bool, error) {
	return s.get(key)
}

func (s txnStorage) Has(_ context.Context, key ports.Key) (bool, error) {
	_, err := s.txn.Get([]byte(key.String()))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s txnStorage) Set(_ context.Context, key ports.Key, value []byte) error {
	return s.txn.Set([]byte(key.String()), value)
}

func (s txnStorage) Remove(_ context.Context, key ports.Key) error {
	return s.txn.Delete([]byte(key.String()))
}

func (s txnStorage) Scan(_ context.Context, kind ports.KeyKind) ([]ports.Entry, error) {
	prefix := []byte(kind.Prefix())
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := s.txn.NewIterator(opts)
	defer it.Close()

	var entries []ports.Entry
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key, err := ports.ParseKey(string(item.KeyCopy(nil)))
		if err != nil {
			return nil, err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ports.Entry{Key: key, Value: value})
	}
	return entries, nil
}

func (l *Ledger) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/consensus-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	l.logger.Error("consensus badger ledger operation failed", fields...)
	return err
}

var _ ports.Ledger = (*Ledger)(nil)
