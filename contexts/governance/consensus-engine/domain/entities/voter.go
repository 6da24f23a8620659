package entities

import "time"

// MaxProfileValue bounds every scalar profile input. It is the largest
// integer a float64 JSON client can carry without loss.
const MaxProfileValue uint64 = 1<<53 - 1

// VoterProfile is the stored reputation/stake/holding record the eligibility
// calculator reads. An absent profile behaves like the zero value.
type VoterProfile struct {
	Address         string
	ReputationScore uint64
	Stake           uint64
	TipCount        uint64
	TokenCount      uint64
	ActivityAt      []time.Time
	UpdatedAt       time.Time
}

// Bounded reports whether every scalar input is within MaxProfileValue.
func (p VoterProfile) Bounded() bool {
	return p.ReputationScore <= MaxProfileValue &&
		p.Stake <= MaxProfileValue &&
		p.TipCount <= MaxProfileValue &&
		p.TokenCount <= MaxProfileValue
}

// RecentActivity counts activity timestamps inside (now-window, now].
func (p VoterProfile) RecentActivity(now time.Time, window time.Duration) uint64 {
	if window <= 0 {
		return 0
	}
	cutoff := now.Add(-window)
	var count uint64
	for _, at := range p.ActivityAt {
		if at.After(cutoff) && !at.After(now) {
			count++
		}
	}
	return count
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleOracle    Role = "oracle"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleOracle:
		return true
	default:
		return false
	}
}
