package mutualledger

import (
	"log/slog"

	httpadapter "mutua/contexts/insurance-core/mutual-ledger/adapters/http"
	"mutua/contexts/insurance-core/mutual-ledger/adapters/memory"
	"mutua/contexts/insurance-core/mutual-ledger/application"
	"mutua/contexts/insurance-core/mutual-ledger/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Registry application.ProductRegistry
	Policies application.PolicyLedger
	Claims   application.ClaimService
	Voting   application.VotingEngine
	Payouts  *application.PayoutEngine

	// Populated by NewInMemoryModule only.
	Store    *memory.Store
	Treasury *memory.Treasury
}

type Dependencies struct {
	Products  ports.ProductRepository
	Policies  ports.PolicyRepository
	Claims    ports.ClaimRepository
	Votes     ports.VoteRepository
	Sequences ports.Sequences
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	Transfer  ports.ValueTransfer
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	payouts := application.NewPayoutEngine(deps.Transfer, deps.Logger)
	registry := application.ProductRegistry{
		Products: deps.Products,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	policies := application.PolicyLedger{
		Policies:  deps.Policies,
		Registry:  registry,
		Sequences: deps.Sequences,
		Payouts:   payouts,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	claims := application.ClaimService{
		Claims:    deps.Claims,
		Policies:  deps.Policies,
		Registry:  registry,
		Sequences: deps.Sequences,
		Payouts:   payouts,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	voting := application.VotingEngine{
		Claims:   deps.Claims,
		Policies: deps.Policies,
		Votes:    deps.Votes,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Registry: registry,
			Policies: policies,
			Claims:   claims,
			Voting:   voting,
			Logger:   deps.Logger,
		},
		Registry: registry,
		Policies: policies,
		Claims:   claims,
		Voting:   voting,
		Payouts:  payouts,
	}
}

// NewInMemoryModule wires the ledger against the memory store and treasury,
// the default for tests and self-contained runs.
func NewInMemoryModule(clock ports.Clock, logger *slog.Logger) Module {
	store := memory.NewStore()
	treasury := memory.NewTreasury()
	module := NewModule(Dependencies{
		Products:  store,
		Policies:  store,
		Claims:    store,
		Votes:     store,
		Sequences: store,
		Outbox:    store,
		Clock:     clock,
		Transfer:  treasury,
		Logger:    logger,
	})
	module.Store = store
	module.Treasury = treasury
	return module
}
