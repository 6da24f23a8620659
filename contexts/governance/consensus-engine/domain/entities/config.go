package entities

import "time"

type ResolutionMode string

const (
	// ResolutionModeAutoThreshold decides as soon as the tally reaches quorum.
	ResolutionModeAutoThreshold ResolutionMode = "auto_threshold"
	// ResolutionModeDeadline decides only after the deadline has passed.
	ResolutionModeDeadline ResolutionMode = "deadline"
)

func (m ResolutionMode) Valid() bool {
	return m == ResolutionModeAutoThreshold || m == ResolutionModeDeadline
}

// TieBreak decides equal approve/reject weight.
type TieBreak string

const (
	TieBreakReject  TieBreak = "reject"
	TieBreakApprove TieBreak = "approve"
	TieBreakHold    TieBreak = "hold"
)

func (t TieBreak) Valid() bool {
	switch t {
	case TieBreakReject, TieBreakApprove, TieBreakHold:
		return true
	default:
		return false
	}
}

// ResolutionPolicy is copied onto every subject when it is opened.
type ResolutionPolicy struct {
	Mode                 ResolutionMode
	Quorum               uint64
	ApprovalThresholdBps uint64
	TieBreak             TieBreak
}

type KindPolicy struct {
	ResolutionPolicy
	VotingPeriod time.Duration
}

type WeightFormulaKind string

const (
	WeightFormulaReputation WeightFormulaKind = "reputation"
	WeightFormulaActivity   WeightFormulaKind = "activity"
	WeightFormulaHolding    WeightFormulaKind = "holding"
)

func (k WeightFormulaKind) Valid() bool {
	switch k {
	case WeightFormulaReputation, WeightFormulaActivity, WeightFormulaHolding:
		return true
	default:
		return false
	}
}

// WeightConfig parameterizes the eligibility calculator. Zero divisors are
// rejected by validation; MaxWeight zero means uncapped.
type WeightConfig struct {
	Formula            WeightFormulaKind
	BaseWeight         uint64
	FloorWeight        uint64
	MaxWeight          uint64
	ReputationDivisor  uint64
	StakePerPower      uint64
	TipsPerPower       uint64
	RecentPerPower     uint64
	RecentWindow       time.Duration
	ReputationPerMille uint64
}

type GovernanceConfig struct {
	Weight                WeightConfig
	Flag                  KindPolicy
	Proposal              KindPolicy
	Dispute               KindPolicy
	MinProposerWeight     uint64
	FeeAdjustmentLimitBps uint64
	UpdatedAt             time.Time
}

// PolicyFor returns the configured policy for a subject kind.
func (c GovernanceConfig) PolicyFor(kind SubjectKind) KindPolicy {
	switch kind {
	case SubjectKindProposal:
		return c.Proposal
	case SubjectKindDispute:
		return c.Dispute
	default:
		return c.Flag
	}
}

type FeeConfig struct {
	BaseFeeBps    uint64
	PremiumFeeBps uint64
	WithdrawalFee uint64
	UpdatedAt     time.Time
}

const BasisPoints = 10000

// DefaultGovernanceConfig mirrors the parameters the moderation and
// governance deployments started with.
func DefaultGovernanceConfig() GovernanceConfig {
	return GovernanceConfig{
		Weight: WeightConfig{
			Formula:            WeightFormulaReputation,
			BaseWeight:         1,
			FloorWeight:        1,
			MaxWeight:          0,
			ReputationDivisor:  20,
			StakePerPower:      1000,
			TipsPerPower:       10,
			RecentPerPower:     5,
			RecentWindow:       30 * 24 * time.Hour,
			ReputationPerMille: 100,
		},
		Flag: KindPolicy{
			ResolutionPolicy: ResolutionPolicy{
				Mode:                 ResolutionModeAutoThreshold,
				Quorum:               10,
				ApprovalThresholdBps: 5000,
				TieBreak:             TieBreakReject,
			},
		},
		Proposal: KindPolicy{
			ResolutionPolicy: ResolutionPolicy{
				Mode:                 ResolutionModeDeadline,
				Quorum:               10,
				ApprovalThresholdBps: 5000,
				TieBreak:             TieBreakReject,
			},
			VotingPeriod: 7 * 24 * time.Hour,
		},
		Dispute: KindPolicy{
			ResolutionPolicy: ResolutionPolicy{
				Mode:                 ResolutionModeDeadline,
				Quorum:               6,
				ApprovalThresholdBps: 5000,
				TieBreak:             TieBreakReject,
			},
			VotingPeriod: 3 * 24 * time.Hour,
		},
		MinProposerWeight:     5,
		FeeAdjustmentLimitBps: 5000,
	}
}

func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		BaseFeeBps:    250,
		PremiumFeeBps: 500,
		WithdrawalFee: 100000,
	}
}
