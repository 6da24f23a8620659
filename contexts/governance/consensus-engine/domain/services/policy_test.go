package services

import (
	"testing"
	"time"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
)

func TestFeeAdjustmentWithinLimit(t *testing.T) {
	cases := []struct {
		name     string
		current  uint64
		proposed uint64
		limit    uint64
		want     bool
	}{
		{name: "inside", current: 250, proposed: 300, limit: 5000, want: true},
		{name: "edge", current: 250, proposed: 375, limit: 5000, want: true},
		{name: "outside", current: 250, proposed: 376, limit: 5000, want: false},
		{name: "decrease", current: 250, proposed: 125, limit: 5000, want: true},
		{name: "zero current", current: 0, proposed: 1, limit: 5000, want: false},
		{name: "zero to zero", current: 0, proposed: 0, limit: 5000, want: true},
		{name: "above basis points", current: 9000, proposed: 10001, limit: 5000, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FeeAdjustmentWithinLimit(tc.current, tc.proposed, tc.limit); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestValidatePolicy(t *testing.T) {
	defaults := entities.DefaultGovernanceConfig()
	if err := ValidateGovernanceConfig(defaults); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	broken := []entities.KindPolicy{
		{ResolutionPolicy: entities.ResolutionPolicy{Mode: "vibes", Quorum: 1, TieBreak: entities.TieBreakReject}},
		{ResolutionPolicy: entities.ResolutionPolicy{Mode: entities.ResolutionModeAutoThreshold, TieBreak: entities.TieBreakReject}},
		{ResolutionPolicy: entities.ResolutionPolicy{Mode: entities.ResolutionModeAutoThreshold, Quorum: 1, ApprovalThresholdBps: 10001, TieBreak: entities.TieBreakReject}},
		{ResolutionPolicy: entities.ResolutionPolicy{Mode: entities.ResolutionModeDeadline, Quorum: 1, TieBreak: entities.TieBreakReject}},
		{ResolutionPolicy: entities.ResolutionPolicy{Mode: entities.ResolutionModeAutoThreshold, Quorum: 1, TieBreak: "coin"}},
		{ResolutionPolicy: entities.ResolutionPolicy{Mode: entities.ResolutionModeAutoThreshold, Quorum: 1, TieBreak: entities.TieBreakReject}, VotingPeriod: -time.Hour},
	}
	for i, policy := range broken {
		if err := ValidatePolicy(policy); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestValidateAction(t *testing.T) {
	valid := []entities.Action{
		{Type: entities.ActionNone},
		{Type: entities.ActionContentRemoval, TargetRef: "post-1"},
		{Type: entities.ActionStatusFlip, TargetRef: "post-1", NewStatus: "hidden"},
		{Type: entities.ActionFeeAdjustment, BaseFeeBps: 300},
		{Type: entities.ActionFundRelease, Beneficiary: "0xabc", Amount: 1},
	}
	for _, action := range valid {
		if err := ValidateAction(action); err != nil {
			t.Fatalf("expected %s to validate: %v", action.Type, err)
		}
	}
	invalid := []entities.Action{
		{Type: "mint"},
		{Type: entities.ActionContentRemoval},
		{Type: entities.ActionStatusFlip, TargetRef: "post-1"},
		{Type: entities.ActionFeeAdjustment, BaseFeeBps: 20000},
		{Type: entities.ActionFundRelease, Beneficiary: "0xabc"},
	}
	for _, action := range invalid {
		if err := ValidateAction(action); err == nil {
			t.Fatalf("expected %+v to fail validation", action)
		}
	}
}
