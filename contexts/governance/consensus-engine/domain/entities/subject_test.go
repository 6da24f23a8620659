package entities

import (
	"math"
	"testing"
)

func TestTallyFits(t *testing.T) {
	cases := []struct {
		name   string
		tally  Tally
		weight uint64
		want   bool
	}{
		{name: "empty tally", tally: Tally{}, weight: math.MaxUint64, want: true},
		{name: "exactly full", tally: Tally{ApproveWeight: math.MaxUint64 - 10, RejectWeight: 4}, weight: 6, want: true},
		{name: "one past full", tally: Tally{ApproveWeight: math.MaxUint64 - 10, RejectWeight: 4}, weight: 7, want: false},
		{name: "reject side counts", tally: Tally{RejectWeight: math.MaxUint64}, weight: 1, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tally.Fits(tc.weight); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTallyAddNeverDecreases(t *testing.T) {
	tally := Tally{}
	for i, weight := range []uint64{6, 1, 0, 2000000000000001} {
		before := tally
		tally = tally.Add(ChoiceApprove, weight)
		if tally.Total() < before.Total() || tally.Ballots != uint64(i+1) {
			t.Fatalf("tally went from %+v to %+v", before, tally)
		}
	}
}

func TestVoterProfileBounded(t *testing.T) {
	if !(VoterProfile{ReputationScore: MaxProfileValue, Stake: MaxProfileValue}).Bounded() {
		t.Fatalf("values at the bound must be accepted")
	}
	for _, profile := range []VoterProfile{
		{ReputationScore: MaxProfileValue + 1},
		{Stake: MaxProfileValue + 1},
		{TipCount: math.MaxUint64},
		{TokenCount: MaxProfileValue + 1},
	} {
		if profile.Bounded() {
			t.Fatalf("expected %+v to be out of bounds", profile)
		}
	}
}
