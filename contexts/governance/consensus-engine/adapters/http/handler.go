package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tribunal/contexts/governance/consensus-engine/application/commands"
	"tribunal/contexts/governance/consensus-engine/application/queries"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"
	httptransport "tribunal/contexts/governance/consensus-engine/transport/http"
)

// Handler maps transport DTOs onto consensus use cases. Callers arrive
// already authenticated by the platform server.
type Handler struct {
	Commands commands.ConsensusUseCase
	Queries  queries.QueryUseCase
	Logger   *slog.Logger
}

func (h Handler) InitializeHandler(ctx context.Context, caller ports.Caller, req httptransport.InitializeRequest) error {
	cmd := commands.InitializeCommand{Caller: caller}
	if req.Config != nil {
		cfg := ConfigFromDTO(*req.Config)
		cmd.Config = &cfg
	}
	if req.Fees != nil {
		fees := entities.FeeConfig{
			BaseFeeBps:    req.Fees.BaseFeeBps,
			PremiumFeeBps: req.Fees.PremiumFeeBps,
			WithdrawalFee: req.Fees.WithdrawalFee,
		}
		cmd.Fees = &fees
	}
	return h.Commands.Initialize(ctx, cmd)
}

func (h Handler) GrantRoleHandler(ctx context.Context, caller ports.Caller, address string, req httptransport.RoleRequest) error {
	return h.Commands.GrantRole(ctx, commands.RoleCommand{Caller: caller, Address: address, Role: entities.Role(req.Role)})
}

func (h Handler) RevokeRoleHandler(ctx context.Context, caller ports.Caller, address string, role string) error {
	return h.Commands.RevokeRole(ctx, commands.RoleCommand{Caller: caller, Address: address, Role: entities.Role(role)})
}

func (h Handler) UpdateConfigHandler(ctx context.Context, caller ports.Caller, req httptransport.ConfigDTO) (httptransport.ConfigDTO, error) {
	cfg, err := h.Commands.UpdateConfig(ctx, commands.UpdateConfigCommand{Caller: caller, Config: ConfigFromDTO(req)})
	if err != nil {
		return httptransport.ConfigDTO{}, err
	}
	return ConfigToDTO(cfg), nil
}

func (h Handler) GetConfigHandler(ctx context.Context) (httptransport.ConfigDTO, error) {
	cfg, err := h.Queries.GetConfig(ctx)
	if err != nil {
		return httptransport.ConfigDTO{}, err
	}
	return ConfigToDTO(cfg), nil
}

func (h Handler) GetFeesHandler(ctx context.Context) (httptransport.FeesDTO, error) {
	fees, err := h.Queries.GetFeeConfig(ctx)
	if err != nil {
		return httptransport.FeesDTO{}, err
	}
	updatedAt := fees.UpdatedAt
	return httptransport.FeesDTO{
		BaseFeeBps:    fees.BaseFeeBps,
		PremiumFeeBps: fees.PremiumFeeBps,
		WithdrawalFee: fees.WithdrawalFee,
		UpdatedAt:     &updatedAt,
	}, nil
}

func (h Handler) SetVoterProfileHandler(
	ctx context.Context,
	caller ports.Caller,
	address string,
	req httptransport.VoterProfileRequest,
) (httptransport.VoterProfileResponse, error) {
	profile, err := h.Commands.SetVoterProfile(ctx, commands.SetVoterProfileCommand{
		Caller:          caller,
		Address:         address,
		ReputationScore: req.ReputationScore,
		Stake:           req.Stake,
		TipCount:        req.TipCount,
		TokenCount:      req.TokenCount,
	})
	if err != nil {
		return httptransport.VoterProfileResponse{}, err
	}
	return mapProfile(profile), nil
}

func (h Handler) RecordActivityHandler(
	ctx context.Context,
	caller ports.Caller,
	address string,
	req httptransport.ActivityRequest,
) (httptransport.VoterProfileResponse, error) {
	profile, err := h.Commands.RecordActivity(ctx, commands.RecordActivityCommand{
		Caller:     caller,
		Address:    address,
		StakeDelta: req.StakeDelta,
		TipDelta:   req.TipDelta,
	})
	if err != nil {
		return httptransport.VoterProfileResponse{}, err
	}
	return mapProfile(profile), nil
}

func (h Handler) GetVoterProfileHandler(ctx context.Context, address string) (httptransport.VoterProfileResponse, error) {
	profile, err := h.Queries.GetVoterProfile(ctx, address)
	if err != nil {
		return httptransport.VoterProfileResponse{}, err
	}
	return mapProfile(profile), nil
}

func (h Handler) ComputeWeightHandler(ctx context.Context, address string) (httptransport.WeightResponse, error) {
	view, err := h.Queries.ComputeWeight(ctx, address)
	if err != nil {
		return httptransport.WeightResponse{}, err
	}
	return httptransport.WeightResponse{
		Address: view.Address,
		Weight:  view.Weight,
		Formula: string(view.Formula),
	}, nil
}

func (h Handler) VoterHistoryHandler(ctx context.Context, address string) (httptransport.ListBallotsResponse, error) {
	ballots, err := h.Queries.VoterHistory(ctx, address)
	if err != nil {
		return httptransport.ListBallotsResponse{}, err
	}
	return httptransport.ListBallotsResponse{Items: mapBallots(ballots)}, nil
}

func (h Handler) FlagReviewHandler(ctx context.Context, caller ports.Caller, req httptransport.FlagReviewRequest) (httptransport.SubjectResponse, error) {
	subject, err := h.Commands.FlagReview(ctx, commands.FlagReviewCommand{
		Caller:    caller,
		TargetRef: req.TargetRef,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return MapSubject(subject), nil
}

func (h Handler) CreateProposalHandler(ctx context.Context, caller ports.Caller, req httptransport.CreateProposalRequest) (httptransport.SubjectResponse, error) {
	subject, err := h.Commands.CreateProposal(ctx, commands.CreateProposalCommand{
		Caller:      caller,
		Title:       req.Title,
		Description: req.Description,
		Action:      actionFromDTO(req.Action),
	})
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return MapSubject(subject), nil
}

func (h Handler) OpenDisputeHandler(ctx context.Context, caller ports.Caller, req httptransport.OpenDisputeRequest) (httptransport.SubjectResponse, error) {
	subject, err := h.Commands.OpenDispute(ctx, commands.OpenDisputeCommand{
		Caller:      caller,
		TargetRef:   req.TargetRef,
		Evidence:    req.Evidence,
		Beneficiary: req.Beneficiary,
		Amount:      req.Amount,
	})
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return MapSubject(subject), nil
}

// GetSubjectHandler serves get_flag/get_proposal/get_dispute. An empty kind
// accepts any subject.
func (h Handler) GetSubjectHandler(ctx context.Context, kind entities.SubjectKind, subjectID uint64) (httptransport.SubjectResponse, error) {
	var (
		subject entities.Subject
		err     error
	)
	switch kind {
	case entities.SubjectKindFlag:
		subject, err = h.Queries.GetFlag(ctx, subjectID)
	case entities.SubjectKindProposal:
		subject, err = h.Queries.GetProposal(ctx, subjectID)
	case entities.SubjectKindDispute:
		subject, err = h.Queries.GetDispute(ctx, subjectID)
	default:
		subject, err = h.Queries.GetSubject(ctx, subjectID)
	}
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return MapSubject(subject), nil
}

func (h Handler) ListSubjectsHandler(ctx context.Context, kind string, status string, limit int, offset int) (httptransport.ListSubjectsResponse, error) {
	subjects, err := h.Queries.ListSubjects(ctx, queries.SubjectFilter{
		Kind:   entities.SubjectKind(kind),
		Status: entities.SubjectStatus(status),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return httptransport.ListSubjectsResponse{}, err
	}
	items := make([]httptransport.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		items = append(items, MapSubject(subject))
	}
	return httptransport.ListSubjectsResponse{Items: items}, nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	caller ports.Caller,
	subjectID uint64,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Commands.CastVote(ctx, commands.CastVoteCommand{
		Caller:    caller,
		SubjectID: subjectID,
		Choice:    entities.Choice(req.Choice),
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		Ballot:  mapBallot(result.Ballot),
		Subject: MapSubject(result.Subject),
	}, nil
}

func (h Handler) ListBallotsHandler(ctx context.Context, subjectID uint64) (httptransport.ListBallotsResponse, error) {
	ballots, err := h.Queries.ListBallots(ctx, subjectID)
	if err != nil {
		return httptransport.ListBallotsResponse{}, err
	}
	return httptransport.ListBallotsResponse{Items: mapBallots(ballots)}, nil
}

func (h Handler) GetBallotHandler(ctx context.Context, subjectID uint64, voter string) (httptransport.BallotResponse, error) {
	ballot, err := h.Queries.GetBallot(ctx, subjectID, voter)
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return mapBallot(ballot), nil
}

func (h Handler) TryResolveHandler(ctx context.Context, caller ports.Caller, subjectID uint64) (httptransport.SubjectResponse, error) {
	subject, err := h.Commands.TryResolve(ctx, commands.TryResolveCommand{Caller: caller, SubjectID: subjectID})
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return MapSubject(subject), nil
}

func (h Handler) AdminResolveHandler(
	ctx context.Context,
	caller ports.Caller,
	subjectID uint64,
	req httptransport.AdminResolveRequest,
) (httptransport.SubjectResponse, error) {
	subject, err := h.Commands.AdminResolve(ctx, commands.AdminResolveCommand{
		Caller:    caller,
		SubjectID: subjectID,
		Approve:   req.Approve,
	})
	if err != nil {
		return httptransport.SubjectResponse{}, err
	}
	return MapSubject(subject), nil
}

func (h Handler) ResetSubjectHandler(ctx context.Context, caller ports.Caller, subjectID uint64) error {
	return h.Commands.ResetSubject(ctx, commands.ResetSubjectCommand{Caller: caller, SubjectID: subjectID})
}

func (h Handler) ContentStatusHandler(ctx context.Context, target string) (httptransport.ContentStatusResponse, error) {
	status, err := h.Queries.GetContentStatus(ctx, target)
	if err != nil {
		return httptransport.ContentStatusResponse{}, err
	}
	return httptransport.ContentStatusResponse{TargetRef: target, Status: status}, nil
}

func (h Handler) FundReleaseHandler(ctx context.Context, subjectID uint64) (httptransport.FundReleaseResponse, error) {
	release, found, err := h.Queries.GetFundRelease(ctx, subjectID)
	if err != nil {
		return httptransport.FundReleaseResponse{}, err
	}
	if !found {
		return httptransport.FundReleaseResponse{}, domainerrors.ErrReleaseNotFound
	}
	return httptransport.FundReleaseResponse{
		SubjectID:   release.SubjectID,
		Beneficiary: release.Beneficiary,
		Amount:      release.Amount,
		ReleasedAt:  release.ReleasedAt,
	}, nil
}

func MapSubject(subject entities.Subject) httptransport.SubjectResponse {
	return httptransport.SubjectResponse{
		SubjectID: subject.SubjectID,
		Kind:      string(subject.Kind),
		TargetRef: subject.TargetRef,
		Creator:   subject.Creator,
		Title:     subject.Title,
		Reason:    subject.Reason,
		Action:    actionToDTO(subject.Action),
		Policy:    policyToDTO(subject.Policy),
		Deadline:  subject.Deadline,
		Status:    string(subject.Status),
		Tally: httptransport.TallyDTO{
			ApproveWeight: subject.Tally.ApproveWeight,
			RejectWeight:  subject.Tally.RejectWeight,
			Ballots:       subject.Tally.Ballots,
		},
		ResolvedBy: string(subject.ResolvedBy),
		ResolvedAt: subject.ResolvedAt,
		ActionState: httptransport.ActionResultDTO{
			Outcome:    string(subject.ActionState.Outcome),
			Note:       subject.ActionState.Note,
			ExecutedAt: subject.ActionState.ExecutedAt,
		},
		CreatedAt: subject.CreatedAt,
		UpdatedAt: subject.UpdatedAt,
	}
}

func mapBallot(ballot entities.Ballot) httptransport.BallotResponse {
	return httptransport.BallotResponse{
		SubjectID: ballot.SubjectID,
		Voter:     ballot.Voter,
		Choice:    string(ballot.Choice),
		Weight:    ballot.Weight,
		CastAt:    ballot.CastAt,
	}
}

func mapBallots(ballots []entities.Ballot) []httptransport.BallotResponse {
	items := make([]httptransport.BallotResponse, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, mapBallot(ballot))
	}
	return items
}

func mapProfile(profile entities.VoterProfile) httptransport.VoterProfileResponse {
	return httptransport.VoterProfileResponse{
		Address:         profile.Address,
		ReputationScore: profile.ReputationScore,
		Stake:           profile.Stake,
		TipCount:        profile.TipCount,
		TokenCount:      profile.TokenCount,
		ActivityCount:   len(profile.ActivityAt),
		UpdatedAt:       profile.UpdatedAt,
	}
}

func actionFromDTO(dto httptransport.ActionDTO) entities.Action {
	return entities.Action{
		Type:        entities.ActionType(dto.Type),
		TargetRef:   dto.TargetRef,
		NewStatus:   dto.NewStatus,
		BaseFeeBps:  dto.BaseFeeBps,
		Beneficiary: dto.Beneficiary,
		Amount:      dto.Amount,
	}
}

func actionToDTO(action entities.Action) httptransport.ActionDTO {
	return httptransport.ActionDTO{
		Type:        string(action.Type),
		TargetRef:   action.TargetRef,
		NewStatus:   action.NewStatus,
		BaseFeeBps:  action.BaseFeeBps,
		Beneficiary: action.Beneficiary,
		Amount:      action.Amount,
	}
}

func policyToDTO(policy entities.ResolutionPolicy) httptransport.PolicyDTO {
	return httptransport.PolicyDTO{
		Mode:                 string(policy.Mode),
		Quorum:               policy.Quorum,
		ApprovalThresholdBps: policy.ApprovalThresholdBps,
		TieBreak:             string(policy.TieBreak),
	}
}

func kindPolicyToDTO(policy entities.KindPolicy) httptransport.KindPolicyDTO {
	return httptransport.KindPolicyDTO{
		PolicyDTO:           policyToDTO(policy.ResolutionPolicy),
		VotingPeriodSeconds: int64(policy.VotingPeriod / time.Second),
	}
}

func kindPolicyFromDTO(dto httptransport.KindPolicyDTO) entities.KindPolicy {
	return entities.KindPolicy{
		ResolutionPolicy: entities.ResolutionPolicy{
			Mode:                 entities.ResolutionMode(dto.Mode),
			Quorum:               dto.Quorum,
			ApprovalThresholdBps: dto.ApprovalThresholdBps,
			TieBreak:             entities.TieBreak(dto.TieBreak),
		},
		VotingPeriod: time.Duration(dto.VotingPeriodSeconds) * time.Second,
	}
}

func ConfigToDTO(cfg entities.GovernanceConfig) httptransport.ConfigDTO {
	dto := httptransport.ConfigDTO{
		Weight: httptransport.WeightConfigDTO{
			Formula:             string(cfg.Weight.Formula),
			BaseWeight:          cfg.Weight.BaseWeight,
			FloorWeight:         cfg.Weight.FloorWeight,
			MaxWeight:           cfg.Weight.MaxWeight,
			ReputationDivisor:   cfg.Weight.ReputationDivisor,
			StakePerPower:       cfg.Weight.StakePerPower,
			TipsPerPower:        cfg.Weight.TipsPerPower,
			RecentPerPower:      cfg.Weight.RecentPerPower,
			RecentWindowSeconds: int64(cfg.Weight.RecentWindow / time.Second),
			ReputationPerMille:  cfg.Weight.ReputationPerMille,
		},
		Flag:                  kindPolicyToDTO(cfg.Flag),
		Proposal:              kindPolicyToDTO(cfg.Proposal),
		Dispute:               kindPolicyToDTO(cfg.Dispute),
		MinProposerWeight:     cfg.MinProposerWeight,
		FeeAdjustmentLimitBps: cfg.FeeAdjustmentLimitBps,
	}
	if !cfg.UpdatedAt.IsZero() {
		updatedAt := cfg.UpdatedAt
		dto.UpdatedAt = &updatedAt
	}
	return dto
}

func ConfigFromDTO(dto httptransport.ConfigDTO) entities.GovernanceConfig {
	return entities.GovernanceConfig{
		Weight: entities.WeightConfig{
			Formula:            entities.WeightFormulaKind(dto.Weight.Formula),
			BaseWeight:         dto.Weight.BaseWeight,
			FloorWeight:        dto.Weight.FloorWeight,
			MaxWeight:          dto.Weight.MaxWeight,
			ReputationDivisor:  dto.Weight.ReputationDivisor,
			StakePerPower:      dto.Weight.StakePerPower,
			TipsPerPower:       dto.Weight.TipsPerPower,
			RecentPerPower:     dto.Weight.RecentPerPower,
			RecentWindow:       time.Duration(dto.Weight.RecentWindowSeconds) * time.Second,
			ReputationPerMille: dto.Weight.ReputationPerMille,
		},
		Flag:                  kindPolicyFromDTO(dto.Flag),
		Proposal:              kindPolicyFromDTO(dto.Proposal),
		Dispute:               kindPolicyFromDTO(dto.Dispute),
		MinProposerWeight:     dto.MinProposerWeight,
		FeeAdjustmentLimitBps: dto.FeeAdjustmentLimitBps,
	}
}
