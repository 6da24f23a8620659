package commands

import (
	"context"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/domain/services"
	"tribunal/contexts/governance/consensus-engine/ports"
	contractsv1 "tribunal/contracts/gen/events/v1"
)

// CastVoteCommand records the caller's ballot. The voter is always the
// verified caller.
type CastVoteCommand struct {
	Caller    ports.Caller
	SubjectID uint64
	Choice    entities.Choice
}

type CastVoteResult struct {
	Subject entities.Subject
	Ballot  entities.Ballot
}

// CastVote freezes the voter's current weight into a ballot, folds it into
// the tally and, for auto-threshold subjects, resolves as soon as quorum is
// reached.
func (uc ConsensusUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	var (
		result  CastVoteResult
		outcome resolutionOutcome
	)
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		cfg, err := application.LoadConfig(ctx, storage)
		if err != nil {
			return err
		}
		voter, err := application.Authorize(ctx, storage, cmd.Caller)
		if err != nil {
			return err
		}
		if !cmd.Choice.Valid() {
			return domainerrors.ErrInvalidInput
		}
		subject, err := application.LoadSubject(ctx, storage, cmd.SubjectID)
		if err != nil {
			return err
		}
		switch subject.Status {
		case entities.SubjectStatusOpen:
		case entities.SubjectStatusExpired:
			return domainerrors.ErrSubjectClosed
		default:
			return domainerrors.ErrAlreadyResolved
		}
		now := uc.now()
		if subject.DeadlinePassed(now) {
			return domainerrors.ErrVotingExpired
		}
		ballotKey := ports.BallotKey(subject.SubjectID, voter)
		voted, err := storage.Has(ctx, ballotKey)
		if err != nil {
			return err
		}
		if voted {
			return domainerrors.ErrAlreadyVoted
		}

		profile, err := application.LoadProfile(ctx, storage, voter)
		if err != nil {
			return err
		}
		ballot := entities.Ballot{
			SubjectID: subject.SubjectID,
			Voter:     voter,
			Choice:    cmd.Choice,
			Weight:    services.ComputeWeight(cfg.Weight, profile, now),
			CastAt:    now,
		}
		if !subject.Tally.Fits(ballot.Weight) {
			return domainerrors.ErrTallyOverflow
		}
		if err := application.WriteJSON(ctx, storage, ballotKey, ballot); err != nil {
			return err
		}
		subject.Tally = subject.Tally.Add(ballot.Choice, ballot.Weight)
		subject.UpdatedAt = now

		voters, err := application.LoadVoters(ctx, storage, subject.SubjectID)
		if err != nil {
			return err
		}
		if err := application.WriteJSON(ctx, storage, ports.SubjectVotersKey(subject.SubjectID), append(voters, voter)); err != nil {
			return err
		}
		history, err := application.LoadHistory(ctx, storage, voter)
		if err != nil {
			return err
		}
		if err := application.WriteJSON(ctx, storage, ports.VoterHistoryKey(voter), append(history, subject.SubjectID)); err != nil {
			return err
		}
		if err := uc.queueSubjectEvent(ctx, storage, contractsv1.EventBallotCast, subject.SubjectID, now, map[string]any{
			"voter":  voter,
			"choice": string(ballot.Choice),
			"weight": ballot.Weight,
		}); err != nil {
			return err
		}

		if subject.Policy.Mode == entities.ResolutionModeAutoThreshold {
			decision := services.EvaluateThreshold(subject.Policy, subject.Tally)
			if decision.Decided {
				outcome, err = uc.applyDecision(ctx, storage, cfg, &subject, decision, now)
				if err != nil {
					return err
				}
			}
		}
		if err := application.SaveSubject(ctx, storage, subject); err != nil {
			return err
		}
		result = CastVoteResult{Subject: subject, Ballot: ballot}
		return nil
	})
	if err != nil {
		uc.logRejected("cast_vote", err,
			"caller", cmd.Caller.Address,
			"subject_id", cmd.SubjectID,
			"choice", string(cmd.Choice),
		)
		return CastVoteResult{}, err
	}

	metrics := application.ResolveMetrics(uc.Metrics)
	metrics.BallotCast(result.Subject.Kind, result.Ballot.Choice, result.Ballot.Weight)
	uc.logger().Info("consensus ballot cast",
		"event", "consensus_ballot_cast",
		"module", application.ModuleName,
		"layer", "application",
		"subject_id", result.Subject.SubjectID,
		"voter", result.Ballot.Voter,
		"choice", string(result.Ballot.Choice),
		"weight", result.Ballot.Weight,
		"approve_weight", result.Subject.Tally.ApproveWeight,
		"reject_weight", result.Subject.Tally.RejectWeight,
	)
	uc.recordOutcome(result.Subject, outcome)
	return result, nil
}
