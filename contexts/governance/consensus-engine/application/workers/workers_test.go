package workers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"tribunal/contexts/governance/consensus-engine/adapters/memory"
	"tribunal/contexts/governance/consensus-engine/application/commands"
	"tribunal/contexts/governance/consensus-engine/application/queries"
	"tribunal/contexts/governance/consensus-engine/application/workers"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	"tribunal/contexts/governance/consensus-engine/ports"
)

const (
	admin    = "0x00000000000000000000000000000000000000a1"
	proposer = "0x00000000000000000000000000000000000000b1"
	voterA   = "0x00000000000000000000000000000000000000c1"
	voterB   = "0x00000000000000000000000000000000000000c2"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu     sync.Mutex
	failOn int
	calls  int
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failOn > 0 && p.calls == p.failOn {
		return errors.New("broker unavailable")
	}
	if topic != event.EventType {
		return errors.New("topic does not match event type")
	}
	p.topics = append(p.topics, topic)
	return nil
}

func seededLedger(t *testing.T) (*memory.Store, commands.ConsensusUseCase) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	uc := commands.ConsensusUseCase{Ledger: store, Clock: store, IDGen: store}
	ctx := context.Background()
	caller := ports.Caller{Address: admin, Verified: true}
	if err := uc.Initialize(ctx, commands.InitializeCommand{Caller: caller}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	for _, address := range []string{proposer, voterA, voterB} {
		if _, err := uc.SetVoterProfile(ctx, commands.SetVoterProfileCommand{
			Caller:          caller,
			Address:         address,
			ReputationScore: 100,
		}); err != nil {
			t.Fatalf("set profile failed: %v", err)
		}
	}
	if err := uc.GrantRole(ctx, commands.RoleCommand{Caller: caller, Address: voterA, Role: entities.RoleModerator}); err != nil {
		t.Fatalf("grant moderator failed: %v", err)
	}
	return store, uc
}

func outboxLen(t *testing.T, store *memory.Store) int {
	t.Helper()
	entries, err := store.Scan(context.Background(), ports.KeyOutbox)
	if err != nil {
		t.Fatalf("scan outbox failed: %v", err)
	}
	return len(entries)
}

func TestOutboxRelayPublishesAndDrains(t *testing.T) {
	store, uc := seededLedger(t)
	if _, err := uc.FlagReview(context.Background(), commands.FlagReviewCommand{
		Caller:    ports.Caller{Address: proposer, Verified: true},
		TargetRef: "review-7",
		Reason:    "spam",
	}); err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	pending := outboxLen(t, store)
	if pending == 0 {
		t.Fatalf("expected queued outbox entries")
	}

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{Ledger: store, Publisher: publisher, BatchSize: 100}
	published, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if published != pending || len(publisher.topics) != pending {
		t.Fatalf("expected %d published, got %d (%v)", pending, published, publisher.topics)
	}
	if got := outboxLen(t, store); got != 0 {
		t.Fatalf("expected drained outbox, got %d entries", got)
	}
	if last := publisher.topics[len(publisher.topics)-1]; last != "subject.opened" {
		t.Fatalf("expected subject.opened last, got %s", last)
	}

	published, err = relay.RunOnce(context.Background())
	if err != nil || published != 0 {
		t.Fatalf("expected empty cycle, got %d %v", published, err)
	}
}

func TestOutboxRelayStopsOnFailureAndRetries(t *testing.T) {
	store, _ := seededLedger(t)
	pending := outboxLen(t, store)
	if pending < 2 {
		t.Fatalf("expected at least two outbox entries, got %d", pending)
	}

	publisher := &recordingPublisher{failOn: 2}
	relay := workers.OutboxRelay{Ledger: store, Publisher: publisher}
	published, err := relay.RunOnce(context.Background())
	if err == nil || published != 1 {
		t.Fatalf("expected failure after one publish, got %d %v", published, err)
	}
	if got := outboxLen(t, store); got != pending-1 {
		t.Fatalf("expected %d entries left, got %d", pending-1, got)
	}

	published, err = relay.RunOnce(context.Background())
	if err != nil || published != pending-1 {
		t.Fatalf("expected retry to publish %d, got %d %v", pending-1, published, err)
	}
}

func TestOutboxRelayHonoursBatchSize(t *testing.T) {
	store, _ := seededLedger(t)
	pending := outboxLen(t, store)

	relay := workers.OutboxRelay{Ledger: store, Publisher: &recordingPublisher{}, BatchSize: 1}
	published, err := relay.RunOnce(context.Background())
	if err != nil || published != 1 {
		t.Fatalf("expected one publish, got %d %v", published, err)
	}
	if got := outboxLen(t, store); got != pending-1 {
		t.Fatalf("expected %d entries left, got %d", pending-1, got)
	}
}

func TestDeadlineSweeperResolvesExpiredSubjects(t *testing.T) {
	store, uc := seededLedger(t)
	ctx := context.Background()
	proposal, err := uc.CreateProposal(ctx, commands.CreateProposalCommand{
		Caller: ports.Caller{Address: proposer, Verified: true},
		Title:  "Lower the base fee",
		Action: entities.Action{Type: entities.ActionFeeAdjustment, BaseFeeBps: 300},
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	flag, err := uc.FlagReview(ctx, commands.FlagReviewCommand{
		Caller:    ports.Caller{Address: proposer, Verified: true},
		TargetRef: "review-9",
		Reason:    "abuse",
	})
	if err != nil {
		t.Fatalf("flag failed: %v", err)
	}
	for _, voter := range []string{voterA, voterB} {
		if _, err := uc.CastVote(ctx, commands.CastVoteCommand{
			Caller:    ports.Caller{Address: voter, Verified: true},
			SubjectID: proposal.SubjectID,
			Choice:    entities.ChoiceApprove,
		}); err != nil {
			t.Fatalf("vote failed: %v", err)
		}
	}

	sweeper := workers.DeadlineSweeper{Ledger: store, Resolver: uc, Clock: store, BatchSize: 10}
	resolved, err := sweeper.RunOnce(ctx)
	if err != nil || resolved != 0 {
		t.Fatalf("nothing is due yet, got %d %v", resolved, err)
	}

	store.Advance(8 * 24 * time.Hour)
	resolved, err = sweeper.RunOnce(ctx)
	if err != nil || resolved != 1 {
		t.Fatalf("expected one resolution, got %d %v", resolved, err)
	}

	reader := queries.QueryUseCase{Ledger: store, Clock: store}
	got, err := reader.GetSubject(ctx, proposal.SubjectID)
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if got.Status != entities.SubjectStatusApproved || got.ResolvedBy != entities.ResolvedByDeadline {
		t.Fatalf("expected approved by deadline, got %s/%s", got.Status, got.ResolvedBy)
	}
	fees, err := reader.GetFeeConfig(ctx)
	if err != nil {
		t.Fatalf("get fees failed: %v", err)
	}
	if fees.BaseFeeBps != 300 {
		t.Fatalf("expected fee adjustment to apply, got %d", fees.BaseFeeBps)
	}
	open, err := reader.GetSubject(ctx, flag.SubjectID)
	if err != nil || open.Status != entities.SubjectStatusOpen {
		t.Fatalf("flag without deadline must stay open, got %s %v", open.Status, err)
	}

	resolved, err = sweeper.RunOnce(ctx)
	if err != nil || resolved != 0 {
		t.Fatalf("second sweep must be a no-op, got %d %v", resolved, err)
	}
}
