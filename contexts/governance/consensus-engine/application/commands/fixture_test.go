package commands_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tribunal/contexts/governance/consensus-engine/adapters/memory"
	"tribunal/contexts/governance/consensus-engine/application/commands"
	"tribunal/contexts/governance/consensus-engine/application/queries"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	"tribunal/contexts/governance/consensus-engine/ports"
)

const (
	admin     = "0x00000000000000000000000000000000000000a1"
	moderator = "0x00000000000000000000000000000000000000a2"
	oracle    = "0x00000000000000000000000000000000000000a3"
	reporter  = "0x00000000000000000000000000000000000000b1"
	voterA    = "0x00000000000000000000000000000000000000c1"
	voterB    = "0x00000000000000000000000000000000000000c2"
	voterC    = "0x00000000000000000000000000000000000000c3"
)

var fixtureStart = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	commands commands.ConsensusUseCase
	queries  queries.QueryUseCase
}

func verified(address string) ports.Caller {
	return ports.Caller{Address: address, Verified: true}
}

// newFixture initializes a fresh ledger with admin as administrator. A nil
// cfg selects the default governance config.
func newFixture(t *testing.T, cfg *entities.GovernanceConfig) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(fixtureStart)
	f := &fixture{
		ctx:   context.Background(),
		store: store,
		commands: commands.ConsensusUseCase{
			Ledger: store,
			Clock:  store,
			IDGen:  store,
		},
		queries: queries.QueryUseCase{Ledger: store, Clock: store},
	}
	if err := f.commands.Initialize(f.ctx, commands.InitializeCommand{Caller: verified(admin), Config: cfg}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return f
}

func (f *fixture) setReputation(t *testing.T, address string, reputation uint64) {
	t.Helper()
	if _, err := f.commands.SetVoterProfile(f.ctx, commands.SetVoterProfileCommand{
		Caller:          verified(admin),
		Address:         address,
		ReputationScore: reputation,
	}); err != nil {
		t.Fatalf("set profile %s failed: %v", address, err)
	}
}

func (f *fixture) flag(t *testing.T, target string) entities.Subject {
	t.Helper()
	subject, err := f.commands.FlagReview(f.ctx, commands.FlagReviewCommand{
		Caller:    verified(reporter),
		TargetRef: target,
		Reason:    "spam",
	})
	if err != nil {
		t.Fatalf("flag %s failed: %v", target, err)
	}
	return subject
}

func (f *fixture) vote(t *testing.T, subjectID uint64, voter string, choice entities.Choice) commands.CastVoteResult {
	t.Helper()
	result, err := f.commands.CastVote(f.ctx, commands.CastVoteCommand{
		Caller:    verified(voter),
		SubjectID: subjectID,
		Choice:    choice,
	})
	if err != nil {
		t.Fatalf("vote %s on %d failed: %v", voter, subjectID, err)
	}
	return result
}

func (f *fixture) subject(t *testing.T, subjectID uint64) entities.Subject {
	t.Helper()
	subject, err := f.queries.GetSubject(f.ctx, subjectID)
	if err != nil {
		t.Fatalf("get subject %d failed: %v", subjectID, err)
	}
	return subject
}

func (f *fixture) outboxTypes(t *testing.T) []string {
	t.Helper()
	entries, err := f.store.Scan(f.ctx, ports.KeyOutbox)
	if err != nil {
		t.Fatalf("scan outbox failed: %v", err)
	}
	var envelope struct {
		EventType string `json:"event_type"`
	}
	types := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := json.Unmarshal(entry.Value, &envelope); err != nil {
			t.Fatalf("decode outbox entry failed: %v", err)
		}
		types = append(types, envelope.EventType)
	}
	return types
}

func queriesFilter(kind entities.SubjectKind) queries.SubjectFilter {
	return queries.SubjectFilter{Kind: kind}
}

// newBareFixture returns a fixture over an uninitialized ledger.
func newBareFixture() *fixture {
	store := memory.NewStore()
	store.SetNow(fixtureStart)
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		commands: commands.ConsensusUseCase{Ledger: store, Clock: store, IDGen: store},
		queries:  queries.QueryUseCase{Ledger: store, Clock: store},
	}
}
