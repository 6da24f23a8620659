package commands

import (
	"log/slog"
	"time"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/ports"
)

// ConsensusUseCase owns every state-changing entry point of the consensus
// engine. Each method validates inside one Ledger.Atomic call and only then
// writes, so a failed call leaves the ledger untouched.
type ConsensusUseCase struct {
	Ledger  ports.Ledger
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc ConsensusUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc ConsensusUseCase) logger() *slog.Logger {
	return application.ResolveLogger(uc.Logger)
}

func (uc ConsensusUseCase) logRejected(operation string, err error, attrs ...any) {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", "consensus_"+operation+"_rejected",
		"module", application.ModuleName,
		"layer", "application",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	uc.logger().Warn("consensus command rejected", fields...)
}
