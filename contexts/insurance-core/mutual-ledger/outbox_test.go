package mutualledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	mutualledger "mutua/contexts/insurance-core/mutual-ledger"
	"mutua/contexts/insurance-core/mutual-ledger/adapters/memory"
	"mutua/contexts/insurance-core/mutual-ledger/application"
	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	"mutua/contexts/insurance-core/mutual-ledger/ports"
	"mutua/internal/platform/clock"
)

func TestLedgerOperationsAppendOutboxEvents(t *testing.T) {
	f, claim := votingFixture(t)

	if _, err := f.module.Voting.CastVote(f.ctx, claim.ClaimID, entities.VoteApprove, "holder-b"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	f.clock.Advance(entities.VotingWindow + time.Second)
	if _, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a"); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	pending, err := f.module.Store.ListPendingOutbox(f.ctx, 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}

	counts := make(map[string]int)
	for _, row := range pending {
		counts[row.EventType]++
	}
	// Three premiums, one declaration, one vote, one settlement.
	if counts["premium.received"] != 3 {
		t.Fatalf("premium events: got %d, want 3", counts["premium.received"])
	}
	if counts["claim.declared"] != 1 || counts["vote.cast"] != 1 || counts["claim.settled"] != 1 {
		t.Fatalf("unexpected event counts: %v", counts)
	}
}

type failingOutbox struct{}

func (failingOutbox) AppendOutbox(context.Context, ports.EventEnvelope) error {
	return errors.New("outbox unavailable")
}

func TestOutboxFailureDoesNotFailCommittedCustodyMoves(t *testing.T) {
	manual := clock.NewManual(testStart)
	store := memory.NewStore()
	treasury := memory.NewTreasury()
	module := mutualledger.NewModule(mutualledger.Dependencies{
		Products:  store,
		Policies:  store,
		Claims:    store,
		Votes:     store,
		Sequences: store,
		Outbox:    failingOutbox{},
		Clock:     manual,
		Transfer:  treasury,
	})
	ctx := context.Background()

	if _, err := module.Registry.AddProduct(ctx, "autos", 2, 10*entities.VotingWindow); err != nil {
		t.Fatalf("add product: %v", err)
	}

	// The refund here already left custody; the dead outbox must not turn
	// the committed receipt into an error.
	receipt, err := module.Policies.ReceivePremium(ctx, "autos", "holder-a", 9)
	if err != nil {
		t.Fatalf("premium with dead outbox: %v", err)
	}
	if treasury.Balance("holder-a") != 1 {
		t.Fatalf("refund balance: got %d, want 1", treasury.Balance("holder-a"))
	}

	claim, err := module.Claims.DeclareClaim(ctx, application.DeclareClaimInput{
		PolicyID:    receipt.Policy.PolicyID,
		Description: "incident report",
		Amount:      4,
	}, "holder-a")
	if err != nil {
		t.Fatalf("declare with dead outbox: %v", err)
	}

	manual.Advance(entities.VotingWindow + time.Second)
	settled, err := module.Claims.SettleClaim(ctx, claim.ClaimID, "holder-a")
	if err != nil {
		t.Fatalf("settle with dead outbox: %v", err)
	}
	if !settled.Settled || !settled.Approved {
		t.Fatalf("settlement state: %+v", settled)
	}
	if treasury.Balance("holder-a") != 5 {
		t.Fatalf("post-settlement balance: got %d, want 5", treasury.Balance("holder-a"))
	}
}
