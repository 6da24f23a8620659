package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InitializeRequest struct {
	Config *ConfigDTO `json:"config,omitempty"`
	Fees   *FeesDTO   `json:"fees,omitempty"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

type VoterProfileRequest struct {
	ReputationScore uint64 `json:"reputation_score"`
	Stake           uint64 `json:"stake"`
	TipCount        uint64 `json:"tip_count"`
	TokenCount      uint64 `json:"token_count"`
}

type ActivityRequest struct {
	StakeDelta uint64 `json:"stake_delta"`
	TipDelta   uint64 `json:"tip_delta"`
}

type VoterProfileResponse struct {
	Address         string    `json:"address"`
	ReputationScore uint64    `json:"reputation_score"`
	Stake           uint64    `json:"stake"`
	TipCount        uint64    `json:"tip_count"`
	TokenCount      uint64    `json:"token_count"`
	ActivityCount   int       `json:"activity_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type WeightResponse struct {
	Address string `json:"address"`
	Weight  uint64 `json:"weight"`
	Formula string `json:"formula"`
}

type FlagReviewRequest struct {
	TargetRef string `json:"target_ref"`
	Reason    string `json:"reason"`
}

type ActionDTO struct {
	Type        string `json:"type"`
	TargetRef   string `json:"target_ref,omitempty"`
	NewStatus   string `json:"new_status,omitempty"`
	BaseFeeBps  uint64 `json:"base_fee_bps,omitempty"`
	Beneficiary string `json:"beneficiary,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
}

type CreateProposalRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Action      ActionDTO `json:"action"`
}

type OpenDisputeRequest struct {
	TargetRef   string `json:"target_ref"`
	Evidence    string `json:"evidence"`
	Beneficiary string `json:"beneficiary,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
}

type CastVoteRequest struct {
	Choice string `json:"choice"`
}

type AdminResolveRequest struct {
	Approve bool `json:"approve"`
}

type TallyDTO struct {
	ApproveWeight uint64 `json:"approve_weight"`
	RejectWeight  uint64 `json:"reject_weight"`
	Ballots       uint64 `json:"ballots"`
}

type PolicyDTO struct {
	Mode                 string `json:"mode"`
	Quorum               uint64 `json:"quorum"`
	ApprovalThresholdBps uint64 `json:"approval_threshold_bps"`
	TieBreak             string `json:"tie_break"`
}

type ActionResultDTO struct {
	Outcome    string     `json:"outcome,omitempty"`
	Note       string     `json:"note,omitempty"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
}

type SubjectResponse struct {
	SubjectID   uint64          `json:"subject_id"`
	Kind        string          `json:"kind"`
	TargetRef   string          `json:"target_ref,omitempty"`
	Creator     string          `json:"creator"`
	Title       string          `json:"title,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Action      ActionDTO       `json:"action"`
	Policy      PolicyDTO       `json:"policy"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	Status      string          `json:"status"`
	Tally       TallyDTO        `json:"tally"`
	ResolvedBy  string          `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	ActionState ActionResultDTO `json:"action_state"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ListSubjectsResponse struct {
	Items []SubjectResponse `json:"items"`
}

type BallotResponse struct {
	SubjectID uint64    `json:"subject_id"`
	Voter     string    `json:"voter"`
	Choice    string    `json:"choice"`
	Weight    uint64    `json:"weight"`
	CastAt    time.Time `json:"cast_at"`
}

type ListBallotsResponse struct {
	Items []BallotResponse `json:"items"`
}

type CastVoteResponse struct {
	Ballot  BallotResponse  `json:"ballot"`
	Subject SubjectResponse `json:"subject"`
}

type FeesDTO struct {
	BaseFeeBps    uint64     `json:"base_fee_bps"`
	PremiumFeeBps uint64     `json:"premium_fee_bps"`
	WithdrawalFee uint64     `json:"withdrawal_fee"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type KindPolicyDTO struct {
	PolicyDTO
	VotingPeriodSeconds int64 `json:"voting_period_seconds"`
}

type WeightConfigDTO struct {
	Formula             string `json:"formula"`
	BaseWeight          uint64 `json:"base_weight"`
	FloorWeight         uint64 `json:"floor_weight"`
	MaxWeight           uint64 `json:"max_weight"`
	ReputationDivisor   uint64 `json:"reputation_divisor"`
	StakePerPower       uint64 `json:"stake_per_power"`
	TipsPerPower        uint64 `json:"tips_per_power"`
	RecentPerPower      uint64 `json:"recent_per_power"`
	RecentWindowSeconds int64  `json:"recent_window_seconds"`
	ReputationPerMille  uint64 `json:"reputation_per_mille"`
}

type ConfigDTO struct {
	Weight                WeightConfigDTO `json:"weight"`
	Flag                  KindPolicyDTO   `json:"flag"`
	Proposal              KindPolicyDTO   `json:"proposal"`
	Dispute               KindPolicyDTO   `json:"dispute"`
	MinProposerWeight     uint64          `json:"min_proposer_weight"`
	FeeAdjustmentLimitBps uint64          `json:"fee_adjustment_limit_bps"`
	UpdatedAt             *time.Time      `json:"updated_at,omitempty"`
}

type ContentStatusResponse struct {
	TargetRef string `json:"target_ref"`
	Status    string `json:"status"`
}

type FundReleaseResponse struct {
	SubjectID   uint64    `json:"subject_id"`
	Beneficiary string    `json:"beneficiary"`
	Amount      uint64    `json:"amount"`
	ReleasedAt  time.Time `json:"released_at"`
}
