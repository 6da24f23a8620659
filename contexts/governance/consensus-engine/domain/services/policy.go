package services

import (
	"strings"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
)

// MaxFeeAdjustmentLimitBps bounds how far a single fee proposal may move the
// base fee, relative to the current value.
const MaxFeeAdjustmentLimitBps = 5000

func ValidatePolicy(policy entities.KindPolicy) error {
	if !policy.Mode.Valid() || !policy.TieBreak.Valid() {
		return domainerrors.ErrInvalidInput
	}
	if policy.Quorum == 0 || policy.ApprovalThresholdBps > entities.BasisPoints {
		return domainerrors.ErrInvalidInput
	}
	if policy.Mode == entities.ResolutionModeDeadline && policy.VotingPeriod <= 0 {
		return domainerrors.ErrInvalidInput
	}
	if policy.VotingPeriod < 0 {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

// ValidateGovernanceConfig checks a full configuration before it is stored.
func ValidateGovernanceConfig(cfg entities.GovernanceConfig) error {
	if err := ValidateWeightConfig(cfg.Weight); err != nil {
		return err
	}
	for _, policy := range []entities.KindPolicy{cfg.Flag, cfg.Proposal, cfg.Dispute} {
		if err := ValidatePolicy(policy); err != nil {
			return err
		}
	}
	if cfg.FeeAdjustmentLimitBps > MaxFeeAdjustmentLimitBps {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

// FeeAdjustmentWithinLimit reports whether moving the base fee from current
// to proposed stays inside limitBps of the current value. A zero current fee
// only accepts zero.
func FeeAdjustmentWithinLimit(current, proposed, limitBps uint64) bool {
	if proposed > entities.BasisPoints {
		return false
	}
	var delta uint64
	if proposed > current {
		delta = proposed - current
	} else {
		delta = current - proposed
	}
	if current == 0 {
		return delta == 0
	}
	return delta*entities.BasisPoints <= current*limitBps
}

// ValidateAction checks the payload an action type needs.
func ValidateAction(action entities.Action) error {
	if !action.Type.Valid() {
		return domainerrors.ErrInvalidInput
	}
	switch action.Type {
	case entities.ActionContentRemoval:
		if strings.TrimSpace(action.TargetRef) == "" {
			return domainerrors.ErrInvalidInput
		}
	case entities.ActionStatusFlip:
		if strings.TrimSpace(action.TargetRef) == "" || strings.TrimSpace(action.NewStatus) == "" {
			return domainerrors.ErrInvalidInput
		}
	case entities.ActionFeeAdjustment:
		if action.BaseFeeBps > entities.BasisPoints {
			return domainerrors.ErrInvalidInput
		}
	case entities.ActionFundRelease:
		if strings.TrimSpace(action.Beneficiary) == "" || action.Amount == 0 {
			return domainerrors.ErrInvalidInput
		}
	}
	return nil
}
