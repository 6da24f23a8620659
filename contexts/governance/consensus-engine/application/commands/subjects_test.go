package commands_test

import (
	"context"
	"errors"
	"testing"

	"tribunal/contexts/governance/consensus-engine/adapters/memory"
	"tribunal/contexts/governance/consensus-engine/application/commands"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
)

func TestFlagReviewTargetOnlyOnce(t *testing.T) {
	f := newFixture(t, nil)
	first := f.flag(t, "post-dup")
	if first.SubjectID != 1 || first.Creator != reporter || first.Action.Type != entities.ActionContentRemoval {
		t.Fatalf("unexpected flag %+v", first)
	}
	if first.Policy.Mode != entities.ResolutionModeAutoThreshold || first.Deadline != nil {
		t.Fatalf("expected auto-threshold flag without deadline, got %+v", first.Policy)
	}

	_, err := f.commands.FlagReview(f.ctx, commands.FlagReviewCommand{Caller: verified(voterA), TargetRef: " post-dup ", Reason: "again"})
	if !errors.Is(err, domainerrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	_, err = f.commands.FlagReview(f.ctx, commands.FlagReviewCommand{Caller: verified(voterA), TargetRef: "post-x"})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without reason, got %v", err)
	}
}

func TestSubjectIDsAreSequentialAcrossKinds(t *testing.T) {
	f := newFixture(t, nil)
	f.setReputation(t, reporter, 100)
	flag := f.flag(t, "post-seq")
	proposal, err := f.commands.CreateProposal(f.ctx, commands.CreateProposalCommand{Caller: verified(reporter), Title: "Second"})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	dispute, err := f.commands.OpenDispute(f.ctx, commands.OpenDisputeCommand{Caller: verified(reporter), TargetRef: "order-1", Evidence: "receipt"})
	if err != nil {
		t.Fatalf("open dispute failed: %v", err)
	}
	if flag.SubjectID != 1 || proposal.SubjectID != 2 || dispute.SubjectID != 3 {
		t.Fatalf("unexpected ids %d %d %d", flag.SubjectID, proposal.SubjectID, dispute.SubjectID)
	}
	if _, err := f.queries.GetFlag(f.ctx, proposal.SubjectID); !errors.Is(err, domainerrors.ErrSubjectNotFound) {
		t.Fatalf("expected kind mismatch to be not found, got %v", err)
	}

	disputes, err := f.queries.ListSubjects(f.ctx, queriesFilter(entities.SubjectKindDispute))
	if err != nil {
		t.Fatalf("list subjects failed: %v", err)
	}
	if len(disputes) != 1 || disputes[0].SubjectID != dispute.SubjectID {
		t.Fatalf("unexpected disputes %+v", disputes)
	}
}

func TestCreateProposalRequiresMinimumWeight(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.commands.CreateProposal(f.ctx, commands.CreateProposalCommand{Caller: verified(voterC), Title: "Underweight"})
	if !errors.Is(err, domainerrors.ErrInsufficientWeight) {
		t.Fatalf("expected ErrInsufficientWeight, got %v", err)
	}
	_, err = f.commands.CreateProposal(f.ctx, commands.CreateProposalCommand{Caller: verified(voterC)})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without title, got %v", err)
	}
}

func TestFeeAdjustmentProposal(t *testing.T) {
	f := newFixture(t, nil)
	f.setReputation(t, reporter, 100)

	_, err := f.commands.CreateProposal(f.ctx, commands.CreateProposalCommand{
		Caller: verified(reporter),
		Title:  "Double the fee",
		Action: entities.Action{Type: entities.ActionFeeAdjustment, BaseFeeBps: 500},
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for out-of-limit fee, got %v", err)
	}

	raise, err := f.commands.CreateProposal(f.ctx, commands.CreateProposalCommand{
		Caller: verified(reporter),
		Title:  "Raise the fee",
		Action: entities.Action{Type: entities.ActionFeeAdjustment, BaseFeeBps: 300},
	})
	if err != nil {
		t.Fatalf("create fee proposal failed: %v", err)
	}
	large, err := f.commands.CreateProposal(f.ctx, commands.CreateProposalCommand{
		Caller: verified(reporter),
		Title:  "Raise the fee more",
		Action: entities.Action{Type: entities.ActionFeeAdjustment, BaseFeeBps: 370},
	})
	if err != nil {
		t.Fatalf("create second fee proposal failed: %v", err)
	}

	resolved, err := f.commands.AdminResolve(f.ctx, commands.AdminResolveCommand{Caller: verified(admin), SubjectID: raise.SubjectID, Approve: true})
	if err != nil {
		t.Fatalf("admin resolve failed: %v", err)
	}
	if resolved.ActionState.Outcome != entities.ActionOutcomeExecuted {
		t.Fatalf("expected executed fee change, got %+v", resolved.ActionState)
	}
	fees, err := f.queries.GetFeeConfig(f.ctx)
	if err != nil || fees.BaseFeeBps != 300 {
		t.Fatalf("expected base fee 300, got %+v err=%v", fees, err)
	}

	cfg, err := f.queries.GetConfig(f.ctx)
	if err != nil {
		t.Fatalf("get config failed: %v", err)
	}
	cfg.FeeAdjustmentLimitBps = 1000
	if _, err := f.commands.UpdateConfig(f.ctx, commands.UpdateConfigCommand{Caller: verified(admin), Config: cfg}); err != nil {
		t.Fatalf("update config failed: %v", err)
	}

	skipped, err := f.commands.AdminResolve(f.ctx, commands.AdminResolveCommand{Caller: verified(admin), SubjectID: large.SubjectID, Approve: true})
	if err != nil {
		t.Fatalf("admin resolve failed: %v", err)
	}
	if skipped.Status != entities.SubjectStatusApproved || skipped.ActionState.Outcome != entities.ActionOutcomeSkipped {
		t.Fatalf("expected approved with skipped action, got %s %+v", skipped.Status, skipped.ActionState)
	}
	fees, _ = f.queries.GetFeeConfig(f.ctx)
	if fees.BaseFeeBps != 300 {
		t.Fatalf("skipped fee change must not touch fees, got %d", fees.BaseFeeBps)
	}
}

func TestStatusFlipProposal(t *testing.T) {
	f := newFixture(t, nil)
	f.setReputation(t, reporter, 100)
	proposal, err := f.commands.CreateProposal(f.ctx, commands.CreateProposalCommand{
		Caller: verified(reporter),
		Title:  "Feature the post",
		Action: entities.Action{Type: entities.ActionStatusFlip, TargetRef: "post-7", NewStatus: "featured"},
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	if _, err := f.commands.AdminResolve(f.ctx, commands.AdminResolveCommand{Caller: verified(admin), SubjectID: proposal.SubjectID, Approve: true}); err != nil {
		t.Fatalf("admin resolve failed: %v", err)
	}
	status, _ := f.queries.GetContentStatus(f.ctx, "post-7")
	if status != "featured" {
		t.Fatalf("expected featured, got %q", status)
	}
}

func TestOpenDisputeOnePerTarget(t *testing.T) {
	f := newFixture(t, nil)
	first, err := f.commands.OpenDispute(f.ctx, commands.OpenDisputeCommand{Caller: verified(reporter), TargetRef: "order-2", Evidence: "late"})
	if err != nil {
		t.Fatalf("open dispute failed: %v", err)
	}
	if first.Action.Type != entities.ActionNone {
		t.Fatalf("expected no action without amount, got %s", first.Action.Type)
	}
	_, err = f.commands.OpenDispute(f.ctx, commands.OpenDisputeCommand{Caller: verified(voterA), TargetRef: "order-2", Evidence: "also late"})
	if !errors.Is(err, domainerrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	_, err = f.commands.OpenDispute(f.ctx, commands.OpenDisputeCommand{Caller: verified(voterA), TargetRef: "order-3", Evidence: "x", Amount: 10})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for release without beneficiary, got %v", err)
	}

	if _, err := f.commands.AdminResolve(f.ctx, commands.AdminResolveCommand{Caller: verified(admin), SubjectID: first.SubjectID}); err != nil {
		t.Fatalf("admin resolve failed: %v", err)
	}
	if _, err := f.commands.OpenDispute(f.ctx, commands.OpenDisputeCommand{Caller: verified(voterA), TargetRef: "order-2", Evidence: "reopened"}); err != nil {
		t.Fatalf("expected a resolved dispute to free the target, got %v", err)
	}
}

func TestResetSubjectRemovesEverything(t *testing.T) {
	f := newFixture(t, nil)
	flag := f.flag(t, "post-reset")
	f.vote(t, flag.SubjectID, voterA, entities.ChoiceApprove)

	err := f.commands.ResetSubject(f.ctx, commands.ResetSubjectCommand{Caller: verified(reporter), SubjectID: flag.SubjectID})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := f.commands.ResetSubject(f.ctx, commands.ResetSubjectCommand{Caller: verified(admin), SubjectID: flag.SubjectID}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if _, err := f.queries.GetSubject(f.ctx, flag.SubjectID); !errors.Is(err, domainerrors.ErrSubjectNotFound) {
		t.Fatalf("expected subject gone, got %v", err)
	}
	if _, err := f.queries.GetBallot(f.ctx, flag.SubjectID, voterA); !errors.Is(err, domainerrors.ErrBallotNotFound) {
		t.Fatalf("expected ballot gone, got %v", err)
	}
	history, err := f.queries.VoterHistory(f.ctx, voterA)
	if err != nil || len(history) != 0 {
		t.Fatalf("expected empty history, got %+v err=%v", history, err)
	}
	again := f.flag(t, "post-reset")
	if again.SubjectID != 2 {
		t.Fatalf("expected a fresh id after reset, got %d", again.SubjectID)
	}
}

func TestCommandsRequireInitialization(t *testing.T) {
	store := memory.NewStore()
	uc := commands.ConsensusUseCase{Ledger: store, Clock: store, IDGen: store}
	_, err := uc.FlagReview(context.Background(), commands.FlagReviewCommand{Caller: verified(reporter), TargetRef: "post", Reason: "spam"})
	if !errors.Is(err, domainerrors.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no writes, got %d entries", store.Len())
	}
}
