package entities

import "time"

type Choice string

const (
	ChoiceApprove Choice = "approve"
	ChoiceReject  Choice = "reject"
)

func (c Choice) Valid() bool {
	return c == ChoiceApprove || c == ChoiceReject
}

// Ballot is one voter's recorded choice with the weight frozen at cast time.
type Ballot struct {
	SubjectID uint64
	Voter     string
	Choice    Choice
	Weight    uint64
	CastAt    time.Time
}
