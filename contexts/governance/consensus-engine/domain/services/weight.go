package services

import (
	"math"
	"math/bits"
	"time"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
)

// ComputeWeight derives a voter's weight from a profile snapshot. The result
// depends only on the profile, the config and now. Sums saturate at
// math.MaxUint64 rather than wrap.
func ComputeWeight(cfg entities.WeightConfig, profile entities.VoterProfile, now time.Time) uint64 {
	var raw uint64
	switch cfg.Formula {
	case entities.WeightFormulaActivity:
		raw = saturatingAdd(
			cfg.BaseWeight,
			safeDiv(profile.Stake, cfg.StakePerPower),
			safeDiv(profile.TipCount, cfg.TipsPerPower),
			safeDiv(profile.RecentActivity(now, cfg.RecentWindow), cfg.RecentPerPower),
		)
	case entities.WeightFormulaHolding:
		raw = saturatingAdd(profile.TokenCount, perMille(profile.ReputationScore, cfg.ReputationPerMille))
	default:
		raw = saturatingAdd(cfg.BaseWeight, safeDiv(profile.ReputationScore, cfg.ReputationDivisor))
	}
	return clampWeight(raw, cfg.FloorWeight, cfg.MaxWeight)
}

func clampWeight(raw, floor, max uint64) uint64 {
	if raw < floor {
		raw = floor
	}
	if max > 0 && raw > max {
		raw = max
	}
	return raw
}

func saturatingAdd(values ...uint64) uint64 {
	var sum uint64
	for _, value := range values {
		next, carry := bits.Add64(sum, value, 0)
		if carry != 0 {
			return math.MaxUint64
		}
		sum = next
	}
	return sum
}

// perMille returns value*rate/1000 without an intermediate overflow.
func perMille(value, rate uint64) uint64 {
	hi, lo := bits.Mul64(value, rate)
	if hi >= 1000 {
		return math.MaxUint64
	}
	quotient, _ := bits.Div64(hi, lo, 1000)
	return quotient
}

func safeDiv(value, divisor uint64) uint64 {
	if divisor == 0 {
		return 0
	}
	return value / divisor
}

// ValidateWeightConfig rejects formulas whose divisors would be zero.
func ValidateWeightConfig(cfg entities.WeightConfig) error {
	if !cfg.Formula.Valid() {
		return domainerrors.ErrInvalidInput
	}
	if cfg.MaxWeight > 0 && cfg.MaxWeight < cfg.FloorWeight {
		return domainerrors.ErrInvalidInput
	}
	switch cfg.Formula {
	case entities.WeightFormulaReputation:
		if cfg.ReputationDivisor == 0 {
			return domainerrors.ErrInvalidInput
		}
	case entities.WeightFormulaActivity:
		if cfg.StakePerPower == 0 || cfg.TipsPerPower == 0 || cfg.RecentPerPower == 0 || cfg.RecentWindow <= 0 {
			return domainerrors.ErrInvalidInput
		}
	}
	return nil
}
