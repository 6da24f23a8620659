package queries

import (
	"context"
	"strings"
	"time"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/domain/services"
	"tribunal/contexts/governance/consensus-engine/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// QueryUseCase serves read-only views straight from the ledger.
type QueryUseCase struct {
	Ledger ports.Storage
	Clock  ports.Clock
}

type SubjectFilter struct {
	Kind   entities.SubjectKind
	Status entities.SubjectStatus
	Limit  int
	Offset int
}

type WeightView struct {
	Address string
	Weight  uint64
	Formula entities.WeightFormulaKind
}

func (uc QueryUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc QueryUseCase) GetSubject(ctx context.Context, subjectID uint64) (entities.Subject, error) {
	return application.LoadSubject(ctx, uc.Ledger, subjectID)
}

func (uc QueryUseCase) GetFlag(ctx context.Context, subjectID uint64) (entities.Subject, error) {
	return uc.getKind(ctx, subjectID, entities.SubjectKindFlag)
}

func (uc QueryUseCase) GetProposal(ctx context.Context, subjectID uint64) (entities.Subject, error) {
	return uc.getKind(ctx, subjectID, entities.SubjectKindProposal)
}

func (uc QueryUseCase) GetDispute(ctx context.Context, subjectID uint64) (entities.Subject, error) {
	return uc.getKind(ctx, subjectID, entities.SubjectKindDispute)
}

func (uc QueryUseCase) getKind(ctx context.Context, subjectID uint64, kind entities.SubjectKind) (entities.Subject, error) {
	subject, err := application.LoadSubject(ctx, uc.Ledger, subjectID)
	if err != nil {
		return entities.Subject{}, err
	}
	if subject.Kind != kind {
		return entities.Subject{}, domainerrors.ErrSubjectNotFound
	}
	return subject, nil
}

// ListSubjects returns subjects in id order after applying the optional kind
// and status filters.
func (uc QueryUseCase) ListSubjects(ctx context.Context, filter SubjectFilter) ([]entities.Subject, error) {
	if (filter.Kind != "" && !filter.Kind.Valid()) || (filter.Status != "" && !filter.Status.Valid()) || filter.Offset < 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	subjects, err := application.LoadSubjects(ctx, uc.Ledger)
	if err != nil {
		return nil, err
	}
	items := make([]entities.Subject, 0, limit)
	skipped := 0
	for _, subject := range subjects {
		if filter.Kind != "" && subject.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && subject.Status != filter.Status {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		items = append(items, subject)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (uc QueryUseCase) GetBallot(ctx context.Context, subjectID uint64, voter string) (entities.Ballot, error) {
	if _, err := application.LoadSubject(ctx, uc.Ledger, subjectID); err != nil {
		return entities.Ballot{}, err
	}
	return application.LoadBallot(ctx, uc.Ledger, subjectID, voter)
}

// ListBallots returns a subject's ballots in cast order.
func (uc QueryUseCase) ListBallots(ctx context.Context, subjectID uint64) ([]entities.Ballot, error) {
	if _, err := application.LoadSubject(ctx, uc.Ledger, subjectID); err != nil {
		return nil, err
	}
	voters, err := application.LoadVoters(ctx, uc.Ledger, subjectID)
	if err != nil {
		return nil, err
	}
	ballots := make([]entities.Ballot, 0, len(voters))
	for _, voter := range voters {
		ballot, err := application.LoadBallot(ctx, uc.Ledger, subjectID, voter)
		if err != nil {
			return nil, err
		}
		ballots = append(ballots, ballot)
	}
	return ballots, nil
}

// VoterHistory returns every ballot a voter has cast, oldest first.
func (uc QueryUseCase) VoterHistory(ctx context.Context, voter string) ([]entities.Ballot, error) {
	address := application.NormalizeAddress(voter)
	if address == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	history, err := application.LoadHistory(ctx, uc.Ledger, address)
	if err != nil {
		return nil, err
	}
	ballots := make([]entities.Ballot, 0, len(history))
	for _, subjectID := range history {
		ballot, err := application.LoadBallot(ctx, uc.Ledger, subjectID, address)
		if err != nil {
			return nil, err
		}
		ballots = append(ballots, ballot)
	}
	return ballots, nil
}

// ComputeWeight reports the weight a ballot cast now would carry. It never
// writes.
func (uc QueryUseCase) ComputeWeight(ctx context.Context, voter string) (WeightView, error) {
	address := application.NormalizeAddress(voter)
	if address == "" {
		return WeightView{}, domainerrors.ErrInvalidInput
	}
	cfg, err := application.LoadConfig(ctx, uc.Ledger)
	if err != nil {
		return WeightView{}, err
	}
	profile, err := application.LoadProfile(ctx, uc.Ledger, address)
	if err != nil {
		return WeightView{}, err
	}
	return WeightView{
		Address: address,
		Weight:  services.ComputeWeight(cfg.Weight, profile, uc.now()),
		Formula: cfg.Weight.Formula,
	}, nil
}

func (uc QueryUseCase) GetVoterProfile(ctx context.Context, voter string) (entities.VoterProfile, error) {
	address := application.NormalizeAddress(voter)
	if address == "" {
		return entities.VoterProfile{}, domainerrors.ErrInvalidInput
	}
	return application.LoadProfile(ctx, uc.Ledger, address)
}

func (uc QueryUseCase) GetConfig(ctx context.Context) (entities.GovernanceConfig, error) {
	return application.LoadConfig(ctx, uc.Ledger)
}

func (uc QueryUseCase) GetFeeConfig(ctx context.Context) (entities.FeeConfig, error) {
	return application.LoadFees(ctx, uc.Ledger)
}

// GetContentStatus returns the status an approved action wrote for target,
// or "" when none was written.
func (uc QueryUseCase) GetContentStatus(ctx context.Context, target string) (string, error) {
	var status string
	if _, err := application.ReadJSON(ctx, uc.Ledger, ports.ContentStatusKey(strings.TrimSpace(target)), &status); err != nil {
		return "", err
	}
	return status, nil
}

func (uc QueryUseCase) GetFundRelease(ctx context.Context, subjectID uint64) (entities.FundRelease, bool, error) {
	var release entities.FundRelease
	found, err := application.ReadJSON(ctx, uc.Ledger, ports.ReleaseKey(subjectID), &release)
	if err != nil {
		return entities.FundRelease{}, false, err
	}
	return release, found, nil
}
