package commands

import (
	"context"
	"time"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/domain/services"
	"tribunal/contexts/governance/consensus-engine/ports"
	contractsv1 "tribunal/contracts/gen/events/v1"
)

type TryResolveCommand struct {
	Caller    ports.Caller
	SubjectID uint64
}

type AdminResolveCommand struct {
	Caller    ports.Caller
	SubjectID uint64
	Approve   bool
}

// resolutionOutcome carries what a committed resolution did, for metrics and
// logs emitted after the ledger call returns.
type resolutionOutcome struct {
	resolved bool
	action   bool
}

// TryResolve evaluates a subject's policy. Any verified caller may trigger
// it. Deadline subjects fail with ErrVotingNotEnded until the deadline has
// passed; an undecided auto-threshold subject is returned unchanged.
func (uc ConsensusUseCase) TryResolve(ctx context.Context, cmd TryResolveCommand) (entities.Subject, error) {
	var (
		subject entities.Subject
		outcome resolutionOutcome
	)
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		cfg, err := application.LoadConfig(ctx, storage)
		if err != nil {
			return err
		}
		if _, err := application.Authorize(ctx, storage, cmd.Caller); err != nil {
			return err
		}
		subject, err = application.LoadSubject(ctx, storage, cmd.SubjectID)
		if err != nil {
			return err
		}
		if subject.Status.Terminal() {
			return domainerrors.ErrAlreadyResolved
		}
		now := uc.now()
		if subject.Policy.Mode == entities.ResolutionModeDeadline && !subject.DeadlinePassed(now) {
			return domainerrors.ErrVotingNotEnded
		}
		decision := services.Evaluate(subject, now)
		if !decision.Decided {
			return nil
		}
		outcome, err = uc.applyDecision(ctx, storage, cfg, &subject, decision, now)
		if err != nil {
			return err
		}
		return application.SaveSubject(ctx, storage, subject)
	})
	if err != nil {
		uc.logRejected("try_resolve", err, "caller", cmd.Caller.Address, "subject_id", cmd.SubjectID)
		return entities.Subject{}, err
	}
	uc.recordOutcome(subject, outcome)
	return subject, nil
}

// AdminResolve lets an admin or moderator decide an open subject immediately,
// regardless of its tally. Approval dispatches the subject's action.
func (uc ConsensusUseCase) AdminResolve(ctx context.Context, cmd AdminResolveCommand) (entities.Subject, error) {
	var (
		subject entities.Subject
		outcome resolutionOutcome
	)
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		cfg, err := application.LoadConfig(ctx, storage)
		if err != nil {
			return err
		}
		if _, err := application.Authorize(ctx, storage, cmd.Caller, entities.RoleAdmin, entities.RoleModerator); err != nil {
			return err
		}
		subject, err = application.LoadSubject(ctx, storage, cmd.SubjectID)
		if err != nil {
			return err
		}
		if subject.Status.Terminal() {
			return domainerrors.ErrAlreadyResolved
		}
		decision := services.Decision{Decided: true, Status: entities.SubjectStatusRejected, By: entities.ResolvedByAdmin}
		if cmd.Approve {
			decision.Status = entities.SubjectStatusApproved
		}
		outcome, err = uc.applyDecision(ctx, storage, cfg, &subject, decision, uc.now())
		if err != nil {
			return err
		}
		return application.SaveSubject(ctx, storage, subject)
	})
	if err != nil {
		uc.logRejected("admin_resolve", err,
			"caller", cmd.Caller.Address,
			"subject_id", cmd.SubjectID,
			"approve", cmd.Approve,
		)
		return entities.Subject{}, err
	}
	uc.recordOutcome(subject, outcome)
	return subject, nil
}

// applyDecision moves an open subject into its terminal state, queues the
// matching event and runs the action when the subject was approved. The
// caller persists the subject.
func (uc ConsensusUseCase) applyDecision(
	ctx context.Context,
	storage ports.Storage,
	cfg entities.GovernanceConfig,
	subject *entities.Subject,
	decision services.Decision,
	now time.Time,
) (resolutionOutcome, error) {
	subject.Status = decision.Status
	subject.ResolvedBy = decision.By
	subject.ResolvedAt = timePtr(now)
	subject.UpdatedAt = now

	eventType := contractsv1.EventSubjectResolved
	if decision.Status == entities.SubjectStatusExpired {
		eventType = contractsv1.EventSubjectExpired
	}
	if err := uc.queueSubjectEvent(ctx, storage, eventType, subject.SubjectID, now, resolutionData(*subject)); err != nil {
		return resolutionOutcome{}, err
	}
	outcome := resolutionOutcome{resolved: true}
	if decision.Status != entities.SubjectStatusApproved {
		return outcome, nil
	}
	executed, err := uc.dispatchAction(ctx, storage, cfg, subject, now)
	if err != nil {
		return resolutionOutcome{}, err
	}
	outcome.action = executed
	return outcome, nil
}

// dispatchAction runs the approved subject's side effect. The action set is
// closed; fee changes beyond the configured limit are recorded as skipped.
func (uc ConsensusUseCase) dispatchAction(
	ctx context.Context,
	storage ports.Storage,
	cfg entities.GovernanceConfig,
	subject *entities.Subject,
	now time.Time,
) (bool, error) {
	action := subject.Action
	result := entities.ActionResult{Outcome: entities.ActionOutcomeExecuted, ExecutedAt: timePtr(now)}
	switch action.Type {
	case entities.ActionNone, "":
		return false, nil
	case entities.ActionContentRemoval:
		if err := application.WriteJSON(ctx, storage, ports.ContentStatusKey(action.TargetRef), entities.ContentStatusRemoved); err != nil {
			return false, err
		}
		result.Note = action.TargetRef
	case entities.ActionStatusFlip:
		if err := application.WriteJSON(ctx, storage, ports.ContentStatusKey(action.TargetRef), action.NewStatus); err != nil {
			return false, err
		}
		result.Note = action.TargetRef + "=" + action.NewStatus
	case entities.ActionFeeAdjustment:
		fees, err := application.LoadFees(ctx, storage)
		if err != nil {
			return false, err
		}
		if !services.FeeAdjustmentWithinLimit(fees.BaseFeeBps, action.BaseFeeBps, cfg.FeeAdjustmentLimitBps) {
			result = entities.ActionResult{Outcome: entities.ActionOutcomeSkipped, Note: "fee_adjustment_limit_exceeded"}
			break
		}
		fees.BaseFeeBps = action.BaseFeeBps
		fees.UpdatedAt = now
		if err := application.WriteJSON(ctx, storage, ports.FeesKey(), fees); err != nil {
			return false, err
		}
	case entities.ActionFundRelease:
		release := entities.FundRelease{
			SubjectID:   subject.SubjectID,
			Beneficiary: action.Beneficiary,
			Amount:      action.Amount,
			ReleasedAt:  now,
		}
		if err := application.WriteJSON(ctx, storage, ports.ReleaseKey(subject.SubjectID), release); err != nil {
			return false, err
		}
	default:
		return false, domainerrors.ErrInvalidInput
	}
	subject.ActionState = result
	if err := uc.queueSubjectEvent(ctx, storage, contractsv1.EventActionExecuted, subject.SubjectID, now, map[string]any{
		"action_type": string(action.Type),
		"outcome":     string(result.Outcome),
		"note":        result.Note,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (uc ConsensusUseCase) recordOutcome(subject entities.Subject, outcome resolutionOutcome) {
	if !outcome.resolved {
		return
	}
	metrics := application.ResolveMetrics(uc.Metrics)
	metrics.SubjectResolved(subject.Kind, subject.Status, subject.ResolvedBy)
	if outcome.action {
		metrics.ActionExecuted(subject.Action.Type, subject.ActionState.Outcome)
	}
	uc.logger().Info("consensus subject resolved",
		"event", "consensus_subject_resolved",
		"module", application.ModuleName,
		"layer", "application",
		"subject_id", subject.SubjectID,
		"kind", string(subject.Kind),
		"status", string(subject.Status),
		"resolved_by", string(subject.ResolvedBy),
		"action_outcome", string(subject.ActionState.Outcome),
	)
}
