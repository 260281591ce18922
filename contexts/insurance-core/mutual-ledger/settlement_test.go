package mutualledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	domainerrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
)

func TestSettleBeforeDeadline(t *testing.T) {
	f, claim := votingFixture(t)

	_, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a")
	if !errors.Is(err, domainerrors.ErrVotingStillOpen) {
		t.Fatalf("expected ErrVotingStillOpen, got %v", err)
	}

	// Exactly at the deadline is still open; settlement needs strictly after.
	f.clock.Set(claim.VotingDeadline)
	_, err = f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a")
	if !errors.Is(err, domainerrors.ErrVotingStillOpen) {
		t.Fatalf("expected ErrVotingStillOpen at the deadline, got %v", err)
	}
}

func TestSettleDefaultApprovesZeroTally(t *testing.T) {
	f, claim := votingFixture(t)
	refunds := f.module.Treasury.Balance("holder-a")

	f.clock.Advance(entities.VotingWindow + time.Second)
	settled, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if !settled.Settled || !settled.Approved {
		t.Fatalf("a zero tally defaults to approval: %+v", settled)
	}
	if settled.SettledAt == nil {
		t.Fatalf("settled claim must carry its settlement time")
	}

	product := f.product(t, "autos")
	if product.Reserved != 0 || product.PaidOut != claim.Amount {
		t.Fatalf("payout accounting: reserved=%d paid_out=%d, want 0/%d",
			product.Reserved, product.PaidOut, claim.Amount)
	}
	assertConservation(t, product)

	if got := f.module.Treasury.Balance("holder-a") - refunds; got != claim.Amount {
		t.Fatalf("holder received %d, want %d", got, claim.Amount)
	}
}

func TestSettleMajorityRejectReleasesReserve(t *testing.T) {
	f, claim := votingFixture(t)
	if _, err := f.module.Voting.CastVote(f.ctx, claim.ClaimID, entities.VoteReject, "holder-b"); err != nil {
		t.Fatalf("reject vote failed: %v", err)
	}
	refunds := f.module.Treasury.Balance("holder-a")
	transfers := len(f.module.Treasury.Disbursements())

	f.clock.Advance(entities.VotingWindow + time.Second)
	settled, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if !settled.Settled || settled.Approved {
		t.Fatalf("a negative tally must reject: %+v", settled)
	}

	product := f.product(t, "autos")
	if product.Reserved != 0 || product.PaidOut != 0 {
		t.Fatalf("rejected claim must release the reserve: reserved=%d paid_out=%d",
			product.Reserved, product.PaidOut)
	}
	assertConservation(t, product)

	if got := f.module.Treasury.Balance("holder-a"); got != refunds {
		t.Fatalf("rejected claim paid out value: balance moved %d -> %d", refunds, got)
	}
	if got := len(f.module.Treasury.Disbursements()); got != transfers {
		t.Fatalf("rejected claim issued a transfer: %d rows -> %d", transfers, got)
	}
}

func TestSettleTwice(t *testing.T) {
	f, claim := votingFixture(t)
	f.clock.Advance(entities.VotingWindow + time.Second)
	if _, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a"); err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	_, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a")
	if !errors.Is(err, domainerrors.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
}

func TestSettleByNonOwner(t *testing.T) {
	f, claim := votingFixture(t)
	f.clock.Advance(entities.VotingWindow + time.Second)
	_, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-b")
	if !errors.Is(err, domainerrors.ErrNotPolicyOwner) {
		t.Fatalf("expected ErrNotPolicyOwner, got %v", err)
	}
}

func TestSettleUnknownClaim(t *testing.T) {
	f, _ := votingFixture(t)
	_, err := f.module.Claims.SettleClaim(f.ctx, 999, "holder-a")
	if !errors.Is(err, domainerrors.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestSettleTransferFailureLeavesClaimRetryable(t *testing.T) {
	f, claim := votingFixture(t)
	f.clock.Advance(entities.VotingWindow + time.Second)

	fail := true
	f.module.Treasury.SetReceiveHook("holder-a", func(context.Context, int64) error {
		if fail {
			return errors.New("recipient offline")
		}
		return nil
	})

	_, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a")
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	after := f.claim(t, claim.ClaimID)
	if after.Settled {
		t.Fatalf("failed transfer must roll the claim back to open")
	}
	product := f.product(t, "autos")
	if product.Reserved != claim.Amount || product.PaidOut != 0 {
		t.Fatalf("failed transfer must keep funds reserved: reserved=%d paid_out=%d",
			product.Reserved, product.PaidOut)
	}
	assertConservation(t, product)

	// Once the recipient recovers, the same claim settles cleanly.
	fail = false
	settled, err := f.module.Claims.SettleClaim(f.ctx, claim.ClaimID, "holder-a")
	if err != nil {
		t.Fatalf("retry settle failed: %v", err)
	}
	if !settled.Settled || !settled.Approved {
		t.Fatalf("retried settlement should approve: %+v", settled)
	}
}
