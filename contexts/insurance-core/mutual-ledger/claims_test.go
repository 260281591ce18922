package mutualledger_test

import (
	"errors"
	"testing"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/application"
	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	domainerrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
)

func TestDeclareClaimReservesProductFunds(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 1000*time.Second)
	receipt := f.payPremium(t, "autos", "holder-a", 8)

	claim := f.declareClaim(t, receipt.Policy.PolicyID, "holder-a", 5)

	if claim.Tally != 0 || claim.Settled {
		t.Fatalf("fresh claim must be open with a zero tally: %+v", claim)
	}
	if want := testStart.Add(entities.VotingWindow); !claim.VotingDeadline.Equal(want) {
		t.Fatalf("voting deadline: got %v, want %v", claim.VotingDeadline, want)
	}

	product := f.product(t, "autos")
	if product.Pooled != 3 || product.Reserved != 5 {
		t.Fatalf("reservation: pooled=%d reserved=%d, want 3/5", product.Pooled, product.Reserved)
	}
	assertConservation(t, product)
}

func TestDeclareClaimOverdrawingPool(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 1000*time.Second)
	receipt := f.payPremium(t, "autos", "holder-a", 8)

	_, err := f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID:    receipt.Policy.PolicyID,
		Description: "total loss",
		Amount:      9,
	}, "holder-a")
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	product := f.product(t, "autos")
	if product.Pooled != 8 || product.Reserved != 0 {
		t.Fatalf("rejected claim must not move funds: pooled=%d reserved=%d", product.Pooled, product.Reserved)
	}
}

func TestDeclareSecondClaimWhileFirstOpen(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 1000*time.Second)
	receipt := f.payPremium(t, "autos", "holder-a", 8)
	f.declareClaim(t, receipt.Policy.PolicyID, "holder-a", 3)

	_, err := f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID:    receipt.Policy.PolicyID,
		Description: "second incident",
		Amount:      2,
	}, "holder-a")
	if !errors.Is(err, domainerrors.ErrActiveClaimExists) {
		t.Fatalf("expected ErrActiveClaimExists, got %v", err)
	}
}

func TestDeclareClaimByNonOwner(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 1000*time.Second)
	receipt := f.payPremium(t, "autos", "holder-a", 8)

	_, err := f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID:    receipt.Policy.PolicyID,
		Description: "not my policy",
		Amount:      1,
	}, "holder-b")
	if !errors.Is(err, domainerrors.ErrNotPolicyOwner) {
		t.Fatalf("expected ErrNotPolicyOwner, got %v", err)
	}
}

func TestDeclareClaimWithinGraceAfterCoverageEnd(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 100*time.Second)
	receipt := f.payPremium(t, "autos", "holder-a", 8)

	// Coverage ends at +400s; the one-day grace window still admits claims.
	f.clock.Advance(400*time.Second + 12*time.Hour)
	claim := f.declareClaim(t, receipt.Policy.PolicyID, "holder-a", 2)
	if claim.ClaimID == 0 {
		t.Fatalf("expected a claim id")
	}
}

func TestDeclareClaimAfterGraceWindow(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 100*time.Second)
	receipt := f.payPremium(t, "autos", "holder-a", 8)

	f.clock.Advance(400*time.Second + entities.ClaimGracePeriod + time.Second)
	_, err := f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID:    receipt.Policy.PolicyID,
		Description: "too late",
		Amount:      2,
	}, "holder-a")
	if !errors.Is(err, domainerrors.ErrOutOfCoverageWindow) {
		t.Fatalf("expected ErrOutOfCoverageWindow, got %v", err)
	}
}

func TestDeclareClaimValidation(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 1000*time.Second)
	receipt := f.payPremium(t, "autos", "holder-a", 8)

	_, err := f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID:    receipt.Policy.PolicyID,
		Description: "zero amount",
		Amount:      0,
	}, "holder-a")
	if !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	_, err = f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID: receipt.Policy.PolicyID,
		Amount:   1,
	}, "holder-a")
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing description, got %v", err)
	}

	_, err = f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID:    999,
		Description: "no such policy",
		Amount:      1,
	}, "holder-a")
	if !errors.Is(err, domainerrors.ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
}

func TestOpenClaimsByProductFiltersClosedVoting(t *testing.T) {
	f := newLedgerFixture(t)
	f.addProduct(t, "autos", 2, 10*entities.VotingWindow)
	receiptA := f.payPremium(t, "autos", "holder-a", 8)
	receiptB := f.payPremium(t, "autos", "holder-b", 8)

	f.declareClaim(t, receiptA.Policy.PolicyID, "holder-a", 2)
	f.clock.Advance(entities.VotingWindow + time.Second)
	second := f.declareClaim(t, receiptB.Policy.PolicyID, "holder-b", 2)

	open, err := f.module.Claims.OpenClaimsByProduct(f.ctx, "autos")
	if err != nil {
		t.Fatalf("open claims: %v", err)
	}
	if len(open) != 1 || open[0].ClaimID != second.ClaimID {
		t.Fatalf("expected only the second claim open, got %+v", open)
	}

	all, err := f.module.Claims.ClaimsByProduct(f.ctx, "autos")
	if err != nil {
		t.Fatalf("all claims: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 claims total, got %d", len(all))
	}
}
