package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
	domainerrors "tribunal/contexts/governance/consensus-engine/domain/errors"
	"tribunal/contexts/governance/consensus-engine/ports"
)

// NormalizeAddress is the canonical form used for every address-bearing key.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func ReadJSON(ctx context.Context, storage ports.Storage, key ports.Key, out any) (bool, error) {
	raw, found, err := storage.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func WriteJSON(ctx context.Context, storage ports.Storage, key ports.Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return storage.Set(ctx, key, raw)
}

func LoadConfig(ctx context.Context, storage ports.Storage) (entities.GovernanceConfig, error) {
	var cfg entities.GovernanceConfig
	found, err := ReadJSON(ctx, storage, ports.ConfigKey(), &cfg)
	if err != nil {
		return entities.GovernanceConfig{}, err
	}
	if !found {
		return entities.GovernanceConfig{}, domainerrors.ErrNotInitialized
	}
	return cfg, nil
}

func LoadFees(ctx context.Context, storage ports.Storage) (entities.FeeConfig, error) {
	var fees entities.FeeConfig
	found, err := ReadJSON(ctx, storage, ports.FeesKey(), &fees)
	if err != nil {
		return entities.FeeConfig{}, err
	}
	if !found {
		return entities.FeeConfig{}, domainerrors.ErrNotInitialized
	}
	return fees, nil
}

func LoadAdmin(ctx context.Context, storage ports.Storage) (string, error) {
	var admin string
	found, err := ReadJSON(ctx, storage, ports.AdminKey(), &admin)
	if err != nil {
		return "", err
	}
	if !found {
		return "", domainerrors.ErrNotInitialized
	}
	return admin, nil
}

func LoadRoles(ctx context.Context, storage ports.Storage, address string) ([]entities.Role, error) {
	var roles []entities.Role
	if _, err := ReadJSON(ctx, storage, ports.RoleKey(NormalizeAddress(address)), &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func LoadSubject(ctx context.Context, storage ports.Storage, subjectID uint64) (entities.Subject, error) {
	var subject entities.Subject
	found, err := ReadJSON(ctx, storage, ports.SubjectKey(subjectID), &subject)
	if err != nil {
		return entities.Subject{}, err
	}
	if !found {
		return entities.Subject{}, domainerrors.ErrSubjectNotFound
	}
	return subject, nil
}

func SaveSubject(ctx context.Context, storage ports.Storage, subject entities.Subject) error {
	return WriteJSON(ctx, storage, ports.SubjectKey(subject.SubjectID), subject)
}

// LoadProfile returns the stored profile or a zero record for unknown voters.
func LoadProfile(ctx context.Context, storage ports.Storage, address string) (entities.VoterProfile, error) {
	address = NormalizeAddress(address)
	profile := entities.VoterProfile{Address: address}
	if _, err := ReadJSON(ctx, storage, ports.ProfileKey(address), &profile); err != nil {
		return entities.VoterProfile{}, err
	}
	return profile, nil
}

func LoadBallot(ctx context.Context, storage ports.Storage, subjectID uint64, voter string) (entities.Ballot, error) {
	var ballot entities.Ballot
	found, err := ReadJSON(ctx, storage, ports.BallotKey(subjectID, NormalizeAddress(voter)), &ballot)
	if err != nil {
		return entities.Ballot{}, err
	}
	if !found {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func LoadVoters(ctx context.Context, storage ports.Storage, subjectID uint64) ([]string, error) {
	var voters []string
	if _, err := ReadJSON(ctx, storage, ports.SubjectVotersKey(subjectID), &voters); err != nil {
		return nil, err
	}
	return voters, nil
}

func LoadHistory(ctx context.Context, storage ports.Storage, voter string) ([]uint64, error) {
	var history []uint64
	if _, err := ReadJSON(ctx, storage, ports.VoterHistoryKey(NormalizeAddress(voter)), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// LoadSubjects decodes every stored subject in id order.
func LoadSubjects(ctx context.Context, storage ports.Storage) ([]entities.Subject, error) {
	entries, err := storage.Scan(ctx, ports.KeySubject)
	if err != nil {
		return nil, err
	}
	subjects := make([]entities.Subject, 0, len(entries))
	for _, entry := range entries {
		var subject entities.Subject
		if err := json.Unmarshal(entry.Value, &subject); err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Key, err)
		}
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool {
		return subjects[i].SubjectID < subjects[j].SubjectID
	})
	return subjects, nil
}

// NextSequence increments and returns the counter stored at key.
func NextSequence(ctx context.Context, storage ports.Storage, key ports.Key) (uint64, error) {
	var current uint64
	if _, err := ReadJSON(ctx, storage, key, &current); err != nil {
		return 0, err
	}
	current++
	if err := WriteJSON(ctx, storage, key, current); err != nil {
		return 0, err
	}
	return current, nil
}

// AppendOutbox queues an envelope in the same atomic call as the state change
// it describes.
func AppendOutbox(ctx context.Context, storage ports.Storage, envelope ports.EventEnvelope) error {
	seq, err := NextSequence(ctx, storage, ports.OutboxSeqKey())
	if err != nil {
		return err
	}
	return WriteJSON(ctx, storage, ports.OutboxKey(seq), envelope)
}
