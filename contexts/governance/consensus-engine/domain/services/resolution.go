package services

import (
	"math/bits"
	"time"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
)

// Decision is the outcome of evaluating a subject's tally. Decided is false
// when the subject must stay open.
type Decision struct {
	Decided bool
	Status  entities.SubjectStatus
	By      entities.ResolvedBy
}

var undecided = Decision{}

// EvaluateThreshold applies the auto-threshold rule: nothing is decided until
// the tally reaches quorum, then the heavier side wins.
func EvaluateThreshold(policy entities.ResolutionPolicy, tally entities.Tally) Decision {
	if policy.Quorum == 0 || tally.Total() < policy.Quorum {
		return undecided
	}
	switch {
	case tally.ApproveWeight > tally.RejectWeight:
		return Decision{Decided: true, Status: entities.SubjectStatusApproved, By: entities.ResolvedByVotes}
	case tally.RejectWeight > tally.ApproveWeight:
		return Decision{Decided: true, Status: entities.SubjectStatusRejected, By: entities.ResolvedByVotes}
	}
	switch policy.TieBreak {
	case entities.TieBreakApprove:
		return Decision{Decided: true, Status: entities.SubjectStatusApproved, By: entities.ResolvedByVotes}
	case entities.TieBreakHold:
		return undecided
	default:
		return Decision{Decided: true, Status: entities.SubjectStatusRejected, By: entities.ResolvedByVotes}
	}
}

// EvaluateDeadline applies the deadline rule to a subject whose voting period
// has ended. It always decides.
func EvaluateDeadline(policy entities.ResolutionPolicy, tally entities.Tally) Decision {
	total := tally.Total()
	if total == 0 || total < policy.Quorum {
		return Decision{Decided: true, Status: entities.SubjectStatusExpired, By: entities.ResolvedByDeadline}
	}
	if tally.ApproveWeight == tally.RejectWeight {
		switch policy.TieBreak {
		case entities.TieBreakApprove:
			return Decision{Decided: true, Status: entities.SubjectStatusApproved, By: entities.ResolvedByDeadline}
		case entities.TieBreakHold:
			return Decision{Decided: true, Status: entities.SubjectStatusExpired, By: entities.ResolvedByDeadline}
		default:
			return Decision{Decided: true, Status: entities.SubjectStatusRejected, By: entities.ResolvedByDeadline}
		}
	}
	if ApprovalBps(tally) >= policy.ApprovalThresholdBps {
		return Decision{Decided: true, Status: entities.SubjectStatusApproved, By: entities.ResolvedByDeadline}
	}
	return Decision{Decided: true, Status: entities.SubjectStatusRejected, By: entities.ResolvedByDeadline}
}

// ApprovalBps is the approve share of the total weight in basis points. The
// product is taken in 128 bits so large tallies cannot wrap.
func ApprovalBps(tally entities.Tally) uint64 {
	total := tally.Total()
	if total == 0 {
		return 0
	}
	hi, lo := bits.Mul64(tally.ApproveWeight, entities.BasisPoints)
	quotient, _ := bits.Div64(hi, lo, total)
	return quotient
}

// Evaluate picks the rule for the subject's mode. Auto subjects whose
// deadline has passed without a decision expire.
func Evaluate(subject entities.Subject, now time.Time) Decision {
	if subject.Policy.Mode == entities.ResolutionModeDeadline {
		if !subject.DeadlinePassed(now) {
			return undecided
		}
		return EvaluateDeadline(subject.Policy, subject.Tally)
	}
	decision := EvaluateThreshold(subject.Policy, subject.Tally)
	if !decision.Decided && subject.DeadlinePassed(now) {
		return Decision{Decided: true, Status: entities.SubjectStatusExpired, By: entities.ResolvedByDeadline}
	}
	return decision
}
