package application

import (
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	"tribunal/contexts/governance/consensus-engine/ports"
)

type noopMetrics struct{}

func (noopMetrics) BallotCast(entities.SubjectKind, entities.Choice, uint64) {}
func (noopMetrics) SubjectResolved(entities.SubjectKind, entities.SubjectStatus, entities.ResolvedBy) {}
func (noopMetrics) ActionExecuted(entities.ActionType, entities.ActionOutcome) {}

func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}
