package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tribunal/contexts/governance/consensus-engine/ports"

	"github.com/google/uuid"
)

type entry struct {
	key   ports.Key
	value []byte
}

// Store is a mutex-guarded in-memory ledger. Atomic calls are serialized and
// write to a staged overlay that is merged only on success. Store also acts as
// a settable clock and a UUID generator for tests and local runs.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	clockMu sync.RWMutex
	now     time.Time
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) Get(_ context.Context, key ports.Key) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookup(s.entries, nil, key)
}

func (s *Store) Has(ctx context.Context, key ports.Key) (bool, error) {
	_, found, err := s.Get(ctx, key)
	return found, err
}

func (s *Store) Set(_ context.Context, key ports.Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.String()] = entry{key: key, value: bytes.Clone(value)}
	return nil
}

func (s *Store) Remove(_ context.Context, key ports.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.String())
	return nil
}

func (s *Store) Scan(_ context.Context, kind ports.KeyKind) ([]ports.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scan(s.entries, nil, kind), nil
}

// Atomic runs fn against a staged view. Nothing fn writes is visible to
// other callers until it returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(ports.Storage) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &stagedTx{base: s.entries, writes: make(map[string]*entry)}
	if err := fn(tx); err != nil {
		return err
	}
	for raw, staged := range tx.writes {
		if staged == nil {
			delete(s.entries, raw)
			continue
		}
		s.entries[raw] = *staged
	}
	return nil
}

// Len reports the number of committed entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) SetNow(now time.Time) {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	s.now = now.UTC()
}

func (s *Store) Advance(d time.Duration) {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	if s.now.IsZero() {
		s.now = time.Now().UTC()
	}
	s.now = s.now.Add(d)
}

func (s *Store) Now() time.Time {
	s.clockMu.RLock()
	defer s.clockMu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// stagedTx overlays pending writes on the committed map. A nil entry in
// writes marks a removal.
type stagedTx struct {
	base   map[string]entry
	writes map[string]*entry
}

func (t *stagedTx) Get(_ context.Context, key ports.Key) ([]byte, bool, error) {
	return lookup(t.base, t.writes, key)
}

func (t *stagedTx) Has(ctx context.Context, key ports.Key) (bool, error) {
	_, found, err := t.Get(ctx, key)
	return found, err
}

func (t *stagedTx) Set(_ context.Context, key ports.Key, value []byte) error {
	t.writes[key.String()] = &entry{key: key, value: bytes.Clone(value)}
	return nil
}

func (t *stagedTx) Remove(_ context.Context, key ports.Key) error {
	t.writes[key.String()] = nil
	return nil
}

func (t *stagedTx) Scan(_ context.Context, kind ports.KeyKind) ([]ports.Entry, error) {
	return scan(t.base, t.writes, kind), nil
}

func lookup(base map[string]entry, writes map[string]*entry, key ports.Key) ([]byte, bool, error) {
	raw := key.String()
	if staged, ok := writes[raw]; ok {
		if staged == nil {
			return nil, false, nil
		}
		return bytes.Clone(staged.value), true, nil
	}
	item, ok := base[raw]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(item.value), true, nil
}

func scan(base map[string]entry, writes map[string]*entry, kind ports.KeyKind) []ports.Entry {
	prefix := kind.Prefix()
	merged := make(map[string]entry)
	for raw, item := range base {
		if strings.HasPrefix(raw, prefix) {
			merged[raw] = item
		}
	}
	for raw, staged := range writes {
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		if staged == nil {
			delete(merged, raw)
			continue
		}
		merged[raw] = *staged
	}
	keys := make([]string, 0, len(merged))
	for raw := range merged {
		keys = append(keys, raw)
	}
	sort.Strings(keys)
	out := make([]ports.Entry, 0, len(keys))
	for _, raw := range keys {
		item := merged[raw]
		out = append(out, ports.Entry{Key: item.key, Value: bytes.Clone(item.value)})
	}
	return out
}

var _ ports.Ledger = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
