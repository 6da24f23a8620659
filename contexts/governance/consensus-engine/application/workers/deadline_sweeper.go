package workers

import (
	"context"
	"log/slog"
	"time"

	application "tribunal/contexts/governance/consensus-engine/application"
	"tribunal/contexts/governance/consensus-engine/application/commands"
	"tribunal/contexts/governance/consensus-engine/domain/entities"
	"tribunal/contexts/governance/consensus-engine/ports"
)

type Resolver interface {
	TryResolve(ctx context.Context, cmd commands.TryResolveCommand) (entities.Subject, error)
}

// DeadlineSweeper resolves open subjects whose deadline has passed, acting as
// the system caller.
type DeadlineSweeper struct {
	Ledger    ports.Storage
	Resolver  Resolver
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce returns the number of subjects it moved to a terminal state.
// Per-subject failures are logged and skipped.
func (s DeadlineSweeper) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(s.Logger)
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	subjects, err := application.LoadSubjects(ctx, s.Ledger)
	if err != nil {
		logger.Error("consensus deadline scan failed",
			"event", "consensus_deadline_scan_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	resolved := 0
	attempted := 0
	for _, subject := range subjects {
		if attempted == limit {
			break
		}
		if subject.Status != entities.SubjectStatusOpen || !subject.DeadlinePassed(now) {
			continue
		}
		attempted++
		updated, err := s.Resolver.TryResolve(ctx, commands.TryResolveCommand{
			Caller:    application.SystemCaller,
			SubjectID: subject.SubjectID,
		})
		if err != nil {
			logger.Warn("consensus deadline resolution skipped",
				"event", "consensus_deadline_resolution_skipped",
				"module", application.ModuleName,
				"layer", "worker",
				"subject_id", subject.SubjectID,
				"error", err.Error(),
			)
			continue
		}
		if updated.Status.Terminal() {
			resolved++
		}
	}

	if attempted > 0 {
		logger.Info("consensus deadline sweep completed",
			"event", "consensus_deadline_sweep_completed",
			"module", application.ModuleName,
			"layer", "worker",
			"attempted", attempted,
			"resolved", resolved,
		)
	}
	return resolved, nil
}
