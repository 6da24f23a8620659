package commands

import (
	"context"
	"slices"
	"strings"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/domain/services"
	"tribunal/contexts/governance/consensus-engine/ports"
)

// InitializeCommand bootstraps the ledger. Nil Config/Fees fall back to the
// defaults.
type InitializeCommand struct {
	Caller ports.Caller
	Config *entities.GovernanceConfig
	Fees   *entities.FeeConfig
}

type RoleCommand struct {
	Caller  ports.Caller
	Address string
	Role    entities.Role
}

type UpdateConfigCommand struct {
	Caller ports.Caller
	Config entities.GovernanceConfig
}

// Initialize stores the admin, configuration and fee schedule exactly once.
func (uc ConsensusUseCase) Initialize(ctx context.Context, cmd InitializeCommand) error {
	cfg := entities.DefaultGovernanceConfig()
	if cmd.Config != nil {
		cfg = *cmd.Config
	}
	fees := entities.DefaultFeeConfig()
	if cmd.Fees != nil {
		fees = *cmd.Fees
	}
	var admin string
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		initialized, err := storage.Has(ctx, ports.ConfigKey())
		if err != nil {
			return err
		}
		if initialized {
			return domainerrors.ErrAlreadyInitialized
		}
		admin, err = application.Authorize(ctx, storage, cmd.Caller)
		if err != nil {
			return err
		}
		if err := services.ValidateGovernanceConfig(cfg); err != nil {
			return err
		}
		if fees.BaseFeeBps > entities.BasisPoints || fees.PremiumFeeBps > entities.BasisPoints {
			return domainerrors.ErrInvalidInput
		}
		now := uc.now()
		cfg.UpdatedAt = now
		fees.UpdatedAt = now
		if err := application.WriteJSON(ctx, storage, ports.AdminKey(), admin); err != nil {
			return err
		}
		if err := application.WriteJSON(ctx, storage, ports.ConfigKey(), cfg); err != nil {
			return err
		}
		if err := application.WriteJSON(ctx, storage, ports.FeesKey(), fees); err != nil {
			return err
		}
		if err := application.WriteJSON(ctx, storage, ports.RoleKey(admin), []entities.Role{entities.RoleAdmin}); err != nil {
			return err
		}
		return uc.queueRoleEvent(ctx, storage, admin, entities.RoleAdmin, true, admin, now)
	})
	if err != nil {
		uc.logRejected("initialize", err, "caller", cmd.Caller.Address)
		return err
	}
	uc.logger().Info("consensus engine initialized",
		"event", "consensus_initialized",
		"module", application.ModuleName,
		"layer", "application",
		"admin", admin,
		"weight_formula", string(cfg.Weight.Formula),
	)
	return nil
}

func (uc ConsensusUseCase) GrantRole(ctx context.Context, cmd RoleCommand) error {
	return uc.changeRole(ctx, cmd, true)
}

func (uc ConsensusUseCase) RevokeRole(ctx context.Context, cmd RoleCommand) error {
	return uc.changeRole(ctx, cmd, false)
}

func (uc ConsensusUseCase) changeRole(ctx context.Context, cmd RoleCommand, grant bool) error {
	address := application.NormalizeAddress(cmd.Address)
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		if _, err := application.LoadConfig(ctx, storage); err != nil {
			return err
		}
		actor, err := application.Authorize(ctx, storage, cmd.Caller, entities.RoleAdmin)
		if err != nil {
			return err
		}
		if address == "" || !cmd.Role.Valid() {
			return domainerrors.ErrInvalidInput
		}
		if !grant && cmd.Role == entities.RoleAdmin {
			admin, err := application.LoadAdmin(ctx, storage)
			if err != nil {
				return err
			}
			if admin == address {
				return domainerrors.ErrAdminRoleLocked
			}
		}
		roles, err := application.LoadRoles(ctx, storage, address)
		if err != nil {
			return err
		}
		held := slices.Contains(roles, cmd.Role)
		switch {
		case grant && held, !grant && !held:
			return nil
		case grant:
			roles = append(roles, cmd.Role)
		default:
			roles = slices.DeleteFunc(roles, func(role entities.Role) bool { return role == cmd.Role })
		}
		if len(roles) == 0 {
			if err := storage.Remove(ctx, ports.RoleKey(address)); err != nil {
				return err
			}
		} else if err := application.WriteJSON(ctx, storage, ports.RoleKey(address), roles); err != nil {
			return err
		}
		return uc.queueRoleEvent(ctx, storage, address, cmd.Role, grant, actor, uc.now())
	})
	if err != nil {
		uc.logRejected("role_change", err,
			"caller", cmd.Caller.Address,
			"address", address,
			"role", string(cmd.Role),
			"grant", grant,
		)
		return err
	}
	uc.logger().Info("consensus role changed",
		"event", "consensus_role_changed",
		"module", application.ModuleName,
		"layer", "application",
		"address", address,
		"role", string(cmd.Role),
		"grant", grant,
	)
	return nil
}

// UpdateConfig replaces the governance configuration. Open subjects keep the
// policy they were opened with.
func (uc ConsensusUseCase) UpdateConfig(ctx context.Context, cmd UpdateConfigCommand) (entities.GovernanceConfig, error) {
	cfg := cmd.Config
	err := uc.Ledger.Atomic(ctx, func(storage ports.Storage) error {
		if _, err := application.LoadConfig(ctx, storage); err != nil {
			return err
		}
		if _, err := application.Authorize(ctx, storage, cmd.Caller, entities.RoleAdmin); err != nil {
			return err
		}
		if err := services.ValidateGovernanceConfig(cfg); err != nil {
			return err
		}
		cfg.UpdatedAt = uc.now()
		return application.WriteJSON(ctx, storage, ports.ConfigKey(), cfg)
	})
	if err != nil {
		uc.logRejected("update_config", err, "caller", cmd.Caller.Address)
		return entities.GovernanceConfig{}, err
	}
	uc.logger().Info("consensus config updated",
		"event", "consensus_config_updated",
		"module", application.ModuleName,
		"layer", "application",
		"weight_formula", string(cfg.Weight.Formula),
		"min_proposer_weight", cfg.MinProposerWeight,
	)
	return cfg, nil
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}
