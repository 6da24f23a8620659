package entities

import (
	"math"
	"time"
)

type SubjectKind string

const (
	SubjectKindFlag     SubjectKind = "flag"
	SubjectKindProposal SubjectKind = "proposal"
	SubjectKindDispute  SubjectKind = "dispute"
)

func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectKindFlag, SubjectKindProposal, SubjectKindDispute:
		return true
	default:
		return false
	}
}

type SubjectStatus string

const (
	SubjectStatusOpen     SubjectStatus = "open"
	SubjectStatusApproved SubjectStatus = "approved"
	SubjectStatusRejected SubjectStatus = "rejected"
	SubjectStatusExpired  SubjectStatus = "expired"
)

func (s SubjectStatus) Valid() bool {
	switch s {
	case SubjectStatusOpen, SubjectStatusApproved, SubjectStatusRejected, SubjectStatusExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further ballots or resolutions are accepted.
func (s SubjectStatus) Terminal() bool {
	return s != SubjectStatusOpen
}

type ResolvedBy string

const (
	ResolvedByVotes    ResolvedBy = "votes"
	ResolvedByDeadline ResolvedBy = "deadline"
	ResolvedByAdmin    ResolvedBy = "admin"
)

// Tally is the append-only aggregate of ballot weights for one subject.
type Tally struct {
	ApproveWeight uint64
	RejectWeight  uint64
	Ballots       uint64
}

func (t Tally) Total() uint64 {
	return t.ApproveWeight + t.RejectWeight
}

// Fits reports whether a ballot of weight can be added without the total
// wrapping around.
func (t Tally) Fits(weight uint64) bool {
	return weight <= math.MaxUint64-t.Total()
}

// Add folds one ballot into the tally. Tallies are never decremented and the
// caller checks Fits first.
func (t Tally) Add(choice Choice, weight uint64) Tally {
	if choice == ChoiceApprove {
		t.ApproveWeight += weight
	} else {
		t.RejectWeight += weight
	}
	t.Ballots++
	return t
}

// Subject is the thing being voted on: a flagged review, a governance
// proposal, or a dispute. The resolution policy is snapshotted at creation so
// later configuration changes never alter an open subject's rules.
type Subject struct {
	SubjectID   uint64
	Kind        SubjectKind
	TargetRef   string
	Creator     string
	Title       string
	Reason      string
	Action      Action
	Policy      ResolutionPolicy
	Deadline    *time.Time
	Status      SubjectStatus
	Tally       Tally
	ResolvedBy  ResolvedBy
	ResolvedAt  *time.Time
	ActionState ActionResult
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeadlinePassed reports whether now is strictly after the stored deadline.
func (s Subject) DeadlinePassed(now time.Time) bool {
	return s.Deadline != nil && now.After(*s.Deadline)
}
