package consensusengine

import (
	"log/slog"

	httpadapter "tribunal/contexts/governance/consensus-engine/adapters/http"
	"tribunal/contexts/governance/consensus-engine/adapters/memory"
	"tribunal/contexts/governance/consensus-engine/application/commands"
	"tribunal/contexts/governance/consensus-engine/application/queries"
	"tribunal/contexts/governance/consensus-engine/application/workers"
	"tribunal/contexts/governance/consensus-engine/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Commands commands.ConsensusUseCase
	Queries  queries.QueryUseCase
	Relay    workers.OutboxRelay
	Sweeper  workers.DeadlineSweeper
	Store    *memory.Store
}

type Dependencies struct {
	Ledger    ports.Ledger
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Publisher ports.EventPublisher
	Metrics   ports.Metrics
	BatchSize int
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commandUseCase := commands.ConsensusUseCase{
		Ledger:  deps.Ledger,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Ledger: deps.Ledger,
		Clock:  deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
		Commands: commandUseCase,
		Queries:  queryUseCase,
		Relay: workers.OutboxRelay{
			Ledger:    deps.Ledger,
			Publisher: deps.Publisher,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		Sweeper: workers.DeadlineSweeper{
			Ledger:    deps.Ledger,
			Resolver:  commandUseCase,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module over a fresh memory store that also
// serves as clock and id generator.
func NewInMemoryModule(publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:    store,
		Clock:     store,
		IDGen:     store,
		Publisher: publisher,
		Logger:    logger,
	})
	module.Store = store
	return module
}
