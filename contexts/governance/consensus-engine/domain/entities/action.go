package entities

import "time"

// ActionType is the closed set of side effects an approved subject triggers.
type ActionType string

const (
	ActionNone           ActionType = "none"
	ActionContentRemoval ActionType = "content_removal"
	ActionStatusFlip     ActionType = "status_flip"
	ActionFeeAdjustment  ActionType = "fee_adjustment"
	ActionFundRelease    ActionType = "fund_release"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionNone, ActionContentRemoval, ActionStatusFlip, ActionFeeAdjustment, ActionFundRelease:
		return true
	default:
		return false
	}
}

type Action struct {
	Type        ActionType
	TargetRef   string
	NewStatus   string
	BaseFeeBps  uint64
	Beneficiary string
	Amount      uint64
}

type ActionOutcome string

const (
	ActionOutcomePending  ActionOutcome = ""
	ActionOutcomeExecuted ActionOutcome = "executed"
	ActionOutcomeSkipped  ActionOutcome = "skipped"
)

type ActionResult struct {
	Outcome    ActionOutcome
	Note       string
	ExecutedAt *time.Time
}

const ContentStatusRemoved = "removed"

// FundRelease records an approved release instruction for an escrowed amount.
type FundRelease struct {
	SubjectID   uint64
	Beneficiary string
	Amount      uint64
	ReleasedAt  time.Time
}
