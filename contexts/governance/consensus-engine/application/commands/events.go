package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	"tribunal/contexts/governance/consensus-engine/ports"
	contractsv1 "tribunal/contracts/gen/events/v1"
)

func newConsensusEnvelope(
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "consensus-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

// queueSubjectEvent appends a subject-scoped event to the ledger outbox.
// Subject events share one partition so consumers see them in order.
func (uc ConsensusUseCase) queueSubjectEvent(
	ctx context.Context,
	storage ports.Storage,
	eventType string,
	subjectID uint64,
	occurredAt time.Time,
	data map[string]any,
) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	data["subject_id"] = subjectID
	envelope, err := newConsensusEnvelope(eventID, eventType, "subject_id", strconv.FormatUint(subjectID, 10), occurredAt, data)
	if err != nil {
		return err
	}
	return application.AppendOutbox(ctx, storage, envelope)
}

func (uc ConsensusUseCase) queueRoleEvent(
	ctx context.Context,
	storage ports.Storage,
	address string,
	role entities.Role,
	granted bool,
	actor string,
	occurredAt time.Time,
) error {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newConsensusEnvelope(eventID, contractsv1.EventRoleChanged, "address", address, occurredAt, map[string]any{
		"address": address,
		"role":    string(role),
		"granted": granted,
		"actor":   actor,
	})
	if err != nil {
		return err
	}
	return application.AppendOutbox(ctx, storage, envelope)
}

func subjectOpenedData(subject entities.Subject) map[string]any {
	data := map[string]any{
		"kind":                   string(subject.Kind),
		"target_ref":             subject.TargetRef,
		"creator":                subject.Creator,
		"action_type":            string(subject.Action.Type),
		"mode":                   string(subject.Policy.Mode),
		"quorum":                 subject.Policy.Quorum,
		"approval_threshold_bps": subject.Policy.ApprovalThresholdBps,
		"tie_break":              string(subject.Policy.TieBreak),
	}
	if subject.Deadline != nil {
		data["deadline"] = subject.Deadline.UTC()
	}
	return data
}

func resolutionData(subject entities.Subject) map[string]any {
	return map[string]any{
		"kind":           string(subject.Kind),
		"status":         string(subject.Status),
		"resolved_by":    string(subject.ResolvedBy),
		"approve_weight": subject.Tally.ApproveWeight,
		"reject_weight":  subject.Tally.RejectWeight,
		"ballots":        subject.Tally.Ballots,
	}
}
