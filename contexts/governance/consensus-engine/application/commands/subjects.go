package commands

import (
	"context"
	"errors"
	"slices"
	"time"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/domain/services"
	"tribunal/contexts/governance/consensus-engine/ports"
	contractsv1 "tribunal/contracts/gen/events/v1"
)

type FlagReviewCommand struct {
	Caller    ports.Caller
	TargetRef string
	Reason    string
}

// CreateProposalCommand opens a governance proposal. An empty action type
// means the proposal is a signal vote with no side effect.
type CreateProposalCommand struct {
	Caller      ports.Caller
	Title       string
	Description string
	Action      entities.Action
}

// OpenDisputeCommand opens a dispute over a target. A non-zero Amount makes
// approval release that amount to Beneficiary.
type OpenDisputeCommand struct {
	Caller      ports.Caller
	TargetRef   string
	Evidence    string
	Beneficiary string
	Amount      uint64
}

type ResetSubjectCommand struct {
	Caller    ports.Caller
	SubjectID uint64
}

// FlagReview opens a moderation flag. A target can be flagged only once.
func (uc ConsensusUseCase) FlagReview(ctx context.Context, cmd FlagReviewCommand) (entities.Subject, error) {
	target := trimmed(cmd.TargetRef)
	subject, err := uc.openSubject(ctx, cmd.Caller, func(storage ports.Storage, cfg entities.GovernanceConfig, creator string) (entities.Subject, error) {
		if target == "" || trimmed(cmd.Reason) == "" {
			return entities.Subject{}, domainerrors.ErrInvalidInput
		}
		indexed, err := storage.Has(ctx, ports.TargetIndexKey(string(entities.SubjectKindFlag), target))
		if err != nil {
			return entities.Subject{}, err
		}
		if indexed {
			return entities.Subject{}, domainerrors.ErrAlreadyExists
		}
		return entities.Subject{
			Kind:      entities.SubjectKindFlag,
			TargetRef: target,
			Reason:    trimmed(cmd.Reason),
			Action:    entities.Action{Type: entities.ActionContentRemoval, TargetRef: target},
		}, nil
	})
	if err != nil {
		uc.logRejected("flag_review", err, "caller", cmd.Caller.Address, "target_ref", target)
		return entities.Subject{}, err
	}
	return subject, nil
}

// CreateProposal opens a governance proposal. The proposer's current weight
// must reach the configured minimum.
func (uc ConsensusUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (entities.Subject, error) {
	action := cmd.Action
	if action.Type == "" {
		action.Type = entities.ActionNone
	}
	action.TargetRef = trimmed(action.TargetRef)
	action.Beneficiary = application.NormalizeAddress(action.Beneficiary)
	subject, err := uc.openSubject(ctx, cmd.Caller, func(storage ports.Storage, cfg entities.GovernanceConfig, creator string) (entities.Subject, error) {
		if trimmed(cmd.Title) == "" {
			return entities.Subject{}, domainerrors.ErrInvalidInput
		}
		if err := services.ValidateAction(action); err != nil {
			return entities.Subject{}, err
		}
		if action.Type == entities.ActionFeeAdjustment {
			fees, err := application.LoadFees(ctx, storage)
			if err != nil {
				return entities.Subject{}, err
			}
			if !services.FeeAdjustmentWithinLimit(fees.BaseFeeBps, action.BaseFeeBps, cfg.FeeAdjustmentLimitBps) {
				return entities.Subject{}, domainerrors.ErrInvalidInput
			}
		}
		profile, err := application.LoadProfile(ctx, storage, creator)
		if err != nil {
			return entities.Subject{}, err
		}
		if services.ComputeWeight(cfg.Weight, profile, uc.now()) < cfg.MinProposerWeight {
			return entities.Subject{}, domainerrors.ErrInsufficientWeight
		}
		return entities.Subject{
			Kind:      entities.SubjectKindProposal,
			TargetRef: action.TargetRef,
			Title:     trimmed(cmd.Title),
			Reason:    trimmed(cmd.Description),
			Action:    action,
		}, nil
	})
	if err != nil {
		uc.logRejected("create_proposal", err, "caller", cmd.Caller.Address, "action_type", string(action.Type))
		return entities.Subject{}, err
	}
	return subject, nil
}

// OpenDispute opens a dispute. Only one dispute per target may be open at a
// time; a resolved dispute frees the target again.
func (uc ConsensusUseCase) OpenDispute(ctx context.Context, cmd OpenDisputeCommand) (entities.Subject, error) {
	target := trimmed(cmd.TargetRef)
	beneficiary := application.NormalizeAddress(cmd.Beneficiary)
	subject, err := uc.openSubject(ctx, cmd.Caller, func(storage ports.Storage, cfg entities.GovernanceConfig, creator string) (entities.Subject, error) {
		if target == "" || trimmed(cmd.Evidence) == "" {
			return entities.Subject{}, domainerrors.ErrInvalidInput
		}
		action := entities.Action{Type: entities.ActionNone}
		if cmd.Amount > 0 {
			action = entities.Action{
				Type:        entities.ActionFundRelease,
				TargetRef:   target,
				Beneficiary: beneficiary,
				Amount:      cmd.Amount,
			}
			if err := services.ValidateAction(action); err != nil {
				return entities.Subject{}, err
			}
		}
		var existingID uint64
		found, err := application.ReadJSON(ctx, storage, ports.TargetIndexKey(string(entities.SubjectKindDispute), target), &existingID)
		if err != nil {
			return entities.Subject{}, err
		}
		if found {
			existing, err := application.LoadSubject(ctx, storage, existingID)
			if err == nil && !existing.Status.Terminal() {
				return entities.Subject{}, domainerrors.ErrAlreadyExists
			}
			if err != nil && !errors.Is(err, domainerrors.ErrSubjectNotFound) {
				return entities.Subject{}, err
			}
		}
		return entities.Subject{
			Kind:      entities.SubjectKindDispute,
			TargetRef: target,
			Reason:    trimmed(cmd.Evidence),
			Action:    action,
		}, nil
	})
	if err != nil {
		uc.logRejected("open_dispute", err, "caller", cmd.Caller.Address, "target_ref", target)
		return entities.Subject{}, err
	}
	return subject, nil
}

type subjectBuilder func(storage ports.Storage, cfg entities.GovernanceConfig, creator string) (entities.Subject, error)

// openSubject runs the shared half of every subject entry point: guard,
// kind-specific validation, id allocation, policy snapshot, indexing and the
// subject.opened event.
func (uc ConsensusUseCase) openSubject(ctx context.Context, caller ports.Caller, build subjectBuilder) (entities.Subject, error) {
	var subject entities.Subject
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		cfg, err := application.LoadConfig(ctx, storage)
		if err != nil {
			return err
		}
		creator, err := application.Authorize(ctx, storage, caller)
		if err != nil {
			return err
		}
		subject, err = build(storage, cfg, creator)
		if err != nil {
			return err
		}
		id, err := application.NextSequence(ctx, storage, ports.SubjectSeqKey())
		if err != nil {
			return err
		}
		now := uc.now()
		policy := cfg.PolicyFor(subject.Kind)
		subject.SubjectID = id
		subject.Creator = creator
		subject.Policy = policy.ResolutionPolicy
		subject.Status = entities.SubjectStatusOpen
		subject.CreatedAt = now
		subject.UpdatedAt = now
		if policy.VotingPeriod > 0 {
			deadline := now.Add(policy.VotingPeriod)
			subject.Deadline = &deadline
		}
		if err := application.SaveSubject(ctx, storage, subject); err != nil {
			return err
		}
		if subject.Kind != entities.SubjectKindProposal {
			if err := application.WriteJSON(ctx, storage, ports.TargetIndexKey(string(subject.Kind), subject.TargetRef), subject.SubjectID); err != nil {
				return err
			}
		}
		return uc.queueSubjectEvent(ctx, storage, contractsv1.EventSubjectOpened, subject.SubjectID, now, subjectOpenedData(subject))
	})
	if err != nil {
		return entities.Subject{}, err
	}
	uc.logger().Info("consensus subject opened",
		"event", "consensus_subject_opened",
		"module", application.ModuleName,
		"layer", "application",
		"subject_id", subject.SubjectID,
		"kind", string(subject.Kind),
		"target_ref", subject.TargetRef,
		"creator", subject.Creator,
	)
	return subject, nil
}

// ResetSubject deletes a subject together with its ballots, voter list,
// target index entry and voter history references.
func (uc ConsensusUseCase) ResetSubject(ctx context.Context, cmd ResetSubjectCommand) error {
	var removedBallots int
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		if _, err := application.LoadConfig(ctx, storage); err != nil {
			return err
		}
		actor, err := application.Authorize(ctx, storage, cmd.Caller, entities.RoleAdmin)
		if err != nil {
			return err
		}
		subject, err := application.LoadSubject(ctx, storage, cmd.SubjectID)
		if err != nil {
			return err
		}
		voters, err := application.LoadVoters(ctx, storage, subject.SubjectID)
		if err != nil {
			return err
		}
		for _, voter := range voters {
			if err := storage.Remove(ctx, ports.BallotKey(subject.SubjectID, voter)); err != nil {
				return err
			}
			if err := removeHistoryRef(ctx, storage, voter, subject.SubjectID); err != nil {
				return err
			}
		}
		removedBallots = len(voters)
		if err := storage.Remove(ctx, ports.SubjectVotersKey(subject.SubjectID)); err != nil {
			return err
		}
		if subject.Kind != entities.SubjectKindProposal {
			indexKey := ports.TargetIndexKey(string(subject.Kind), subject.TargetRef)
			var indexedID uint64
			found, err := application.ReadJSON(ctx, storage, indexKey, &indexedID)
			if err != nil {
				return err
			}
			if found && indexedID == subject.SubjectID {
				if err := storage.Remove(ctx, indexKey); err != nil {
					return err
				}
			}
		}
		if err := storage.Remove(ctx, ports.SubjectKey(subject.SubjectID)); err != nil {
			return err
		}
		return uc.queueSubjectEvent(ctx, storage, contractsv1.EventSubjectReset, subject.SubjectID, uc.now(), map[string]any{
			"kind":            string(subject.Kind),
			"actor":           actor,
			"removed_ballots": len(voters),
		})
	})
	if err != nil {
		uc.logRejected("reset_subject", err, "caller", cmd.Caller.Address, "subject_id", cmd.SubjectID)
		return err
	}
	uc.logger().Info("consensus subject reset",
		"event", "consensus_subject_reset",
		"module", application.ModuleName,
		"layer", "application",
		"subject_id", cmd.SubjectID,
		"removed_ballots", removedBallots,
	)
	return nil
}

func removeHistoryRef(ctx context.Context, storage ports.Storage, voter string, subjectID uint64) error {
	history, err := application.LoadHistory(ctx, storage, voter)
	if err != nil {
		return err
	}
	history = slices.DeleteFunc(history, func(id uint64) bool { return id == subjectID })
	if len(history) == 0 {
		return storage.Remove(ctx, ports.VoterHistoryKey(voter))
	}
	return application.WriteJSON(ctx, storage, ports.VoterHistoryKey(voter), history)
}

func timePtr(value time.Time) *time.Time {
	return &value
}
