package ports

import (
	"context"
	"time"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
	contractsv1 "tribunal/contracts/gen/events/v1"
)

// Storage is the flat key-value view every entry point runs against. Values
// are JSON documents; Get reports presence instead of failing on a miss.
type Storage interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Has(ctx context.Context, key Key) (bool, error)
	Set(ctx context.Context, key Key, value []byte) error
	Remove(ctx context.Context, key Key) error
	Scan(ctx context.Context, kind KeyKind) ([]Entry, error)
}

// Ledger runs fn against a staged view. Writes become visible only when fn
// returns nil; any error discards them all.
type Ledger interface {
	Storage
	Atomic(ctx context.Context, fn func(Storage) error) error
}

type Entry struct {
	Key   Key
	Value []byte
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// Metrics receives counters after a mutation commits.
type Metrics interface {
	BallotCast(kind entities.SubjectKind, choice entities.Choice, weight uint64)
	SubjectResolved(kind entities.SubjectKind, status entities.SubjectStatus, by entities.ResolvedBy)
	ActionExecuted(action entities.ActionType, outcome entities.ActionOutcome)
}

// SystemAddressPrefix marks identities only in-process workers may use. The
// transport edge refuses it on incoming requests.
const SystemAddressPrefix = "system:"

// Caller is the identity the transport edge attached to a request. Verified
// is false unless a signature (or a trusted system path) vouched for Address.
type Caller struct {
	Address  string
	Verified bool
}
