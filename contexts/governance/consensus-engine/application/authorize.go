package application

import (
	"context"
	"slices"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"
)

// SystemCaller is the verified identity background workers act as.
var SystemCaller = ports.Caller{Address: ports.SystemAddressPrefix + "deadline-sweeper", Verified: true}

// Authorize is the single guard every command runs before touching state.
// Without roles it only requires a verified caller. With roles the caller
// must be the stored admin or hold one of them. It returns the normalized
// caller address.
func Authorize(ctx context.Context, storage ports.Storage, caller ports.Caller, roles ...entities.Role) (string, error) {
	address := NormalizeAddress(caller.Address)
	if !caller.Verified || address == "" {
		return "", domainerrors.ErrUnauthorized
	}
	if len(roles) == 0 {
		return address, nil
	}
	admin, err := LoadAdmin(ctx, storage)
	if err != nil {
		return "", err
	}
	if admin == address {
		return address, nil
	}
	held, err := LoadRoles(ctx, storage, address)
	if err != nil {
		return "", err
	}
	for _, role := range roles {
		if slices.Contains(held, role) {
			return address, nil
		}
	}
	return "", domainerrors.ErrUnauthorized
}
