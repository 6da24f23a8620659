package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("consensus engine is not initialized")
	ErrAlreadyInitialized = errors.New("consensus engine is already initialized")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrBallotNotFound     = errors.New("ballot not found")
	ErrReleaseNotFound    = errors.New("fund release not found")
	ErrAlreadyExists      = errors.New("subject already exists for target")
	ErrAlreadyVoted       = errors.New("voter has already voted")
	ErrAlreadyResolved    = errors.New("subject is already resolved")
	ErrVotingExpired      = errors.New("voting period has expired")
	ErrVotingNotEnded     = errors.New("voting period has not ended")
	ErrUnauthorized       = errors.New("caller is not authorized")
	ErrInsufficientWeight = errors.New("caller weight is below the required minimum")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("ledger write conflict")
)

// ErrTallyOverflow rejects a ballot whose weight would wrap the tally.
var ErrTallyOverflow = fmt.Errorf("ballot weight overflows tally: %w", ErrInvalidInput)

// ErrAdminRoleLocked rejects revoking the admin role from the stored admin.
var ErrAdminRoleLocked = fmt.Errorf("stored admin keeps the admin role: %w", ErrInvalidInput)

// ErrSubjectClosed marks a vote on an expired subject. It matches
// ErrAlreadyResolved so callers can treat every terminal status alike.
var ErrSubjectClosed = fmt.Errorf("subject is closed: %w", ErrAlreadyResolved)
