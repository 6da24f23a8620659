package commands

import (
	"context"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"
)

// SetVoterProfileCommand overwrites the scalar inputs of a voter's weight.
// Recorded activity timestamps are kept.
type SetVoterProfileCommand struct {
	Caller          ports.Caller
	Address         string
	ReputationScore uint64
	Stake           uint64
	TipCount        uint64
	TokenCount      uint64
}

// RecordActivityCommand registers one activity event for a voter and adds
// the given deltas to the stake and tip counters. Counters never exceed
// entities.MaxProfileValue.
type RecordActivityCommand struct {
	Caller     ports.Caller
	Address    string
	StakeDelta uint64
	TipDelta   uint64
}

func (uc ConsensusUseCase) SetVoterProfile(ctx context.Context, cmd SetVoterProfileCommand) (entities.VoterProfile, error) {
	address := application.NormalizeAddress(cmd.Address)
	var profile entities.VoterProfile
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		if _, err := application.LoadConfig(ctx, storage); err != nil {
			return err
		}
		if _, err := application.Authorize(ctx, storage, cmd.Caller, entities.RoleAdmin, entities.RoleOracle); err != nil {
			return err
		}
		if address == "" {
			return domainerrors.ErrInvalidInput
		}
		current, err := application.LoadProfile(ctx, storage, address)
		if err != nil {
			return err
		}
		profile = current
		profile.ReputationScore = cmd.ReputationScore
		profile.Stake = cmd.Stake
		profile.TipCount = cmd.TipCount
		profile.TokenCount = cmd.TokenCount
		if !profile.Bounded() {
			return domainerrors.ErrInvalidInput
		}
		profile.UpdatedAt = uc.now()
		return application.WriteJSON(ctx, storage, ports.ProfileKey(address), profile)
	})
	if err != nil {
		uc.logRejected("set_voter_profile", err, "caller", cmd.Caller.Address, "address", address)
		return entities.VoterProfile{}, err
	}
	uc.logger().Info("voter profile updated",
		"event", "consensus_voter_profile_updated",
		"module", application.ModuleName,
		"layer", "application",
		"address", address,
		"reputation_score", profile.ReputationScore,
	)
	return profile, nil
}

func (uc ConsensusUseCase) RecordActivity(ctx context.Context, cmd RecordActivityCommand) (entities.VoterProfile, error) {
	address := application.NormalizeAddress(cmd.Address)
	var profile entities.VoterProfile
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		cfg, err := application.LoadConfig(ctx, storage)
		if err != nil {
			return err
		}
		if _, err := application.Authorize(ctx, storage, cmd.Caller, entities.RoleAdmin, entities.RoleOracle); err != nil {
			return err
		}
		if address == "" {
			return domainerrors.ErrInvalidInput
		}
		profile, err = application.LoadProfile(ctx, storage, address)
		if err != nil {
			return err
		}
		if cmd.StakeDelta > entities.MaxProfileValue-min(profile.Stake, entities.MaxProfileValue) ||
			cmd.TipDelta > entities.MaxProfileValue-min(profile.TipCount, entities.MaxProfileValue) {
			return domainerrors.ErrInvalidInput
		}
		now := uc.now()
		profile.Stake += cmd.StakeDelta
		profile.TipCount += cmd.TipDelta
		profile.ActivityAt = append(pruneActivity(profile.ActivityAt, now, cfg.Weight.RecentWindow), now)
		profile.UpdatedAt = now
		return application.WriteJSON(ctx, storage, ports.ProfileKey(address), profile)
	})
	if err != nil {
		uc.logRejected("record_activity", err, "caller", cmd.Caller.Address, "address", address)
		return entities.VoterProfile{}, err
	}
	uc.logger().Debug("voter activity recorded",
		"event", "consensus_voter_activity_recorded",
		"module", application.ModuleName,
		"layer", "application",
		"address", address,
		"activity_count", len(profile.ActivityAt),
	)
	return profile, nil
}
