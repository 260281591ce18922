package mutualledger_test

import (
	"context"
	"testing"
	"time"

	mutualledger "mutua/contexts/insurance-core/mutual-ledger"
	"mutua/contexts/insurance-core/mutual-ledger/application"
	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	"mutua/internal/platform/clock"
)

var testStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	module mutualledger.Module
	clock  *clock.Manual
	ctx    context.Context
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	manual := clock.NewManual(testStart)
	return &ledgerFixture{
		module: mutualledger.NewInMemoryModule(manual, nil),
		clock:  manual,
		ctx:    context.Background(),
	}
}

func (f *ledgerFixture) addProduct(t *testing.T, alias string, price int64, period time.Duration) entities.Product {
	t.Helper()
	product, err := f.module.Registry.AddProduct(f.ctx, alias, price, period)
	if err != nil {
		t.Fatalf("add product %s failed: %v", alias, err)
	}
	return product
}

func (f *ledgerFixture) payPremium(t *testing.T, alias, holder string, amount int64) application.PremiumReceipt {
	t.Helper()
	receipt, err := f.module.Policies.ReceivePremium(f.ctx, alias, holder, amount)
	if err != nil {
		t.Fatalf("premium of %d for %s/%s failed: %v", amount, alias, holder, err)
	}
	return receipt
}

func (f *ledgerFixture) declareClaim(t *testing.T, policyID uint64, holder string, amount int64) entities.Claim {
	t.Helper()
	claim, err := f.module.Claims.DeclareClaim(f.ctx, application.DeclareClaimInput{
		PolicyID:    policyID,
		Description: "incident report",
		Amount:      amount,
	}, holder)
	if err != nil {
		t.Fatalf("declare claim of %d on policy %d failed: %v", amount, policyID, err)
	}
	return claim
}

func (f *ledgerFixture) product(t *testing.T, alias string) entities.Product {
	t.Helper()
	product, found, err := f.module.Registry.Lookup(f.ctx, alias)
	if err != nil || !found {
		t.Fatalf("product %s not found (err=%v)", alias, err)
	}
	return product
}

func (f *ledgerFixture) claim(t *testing.T, claimID uint64) entities.Claim {
	t.Helper()
	claim, found, err := f.module.Claims.GetClaim(f.ctx, claimID)
	if err != nil || !found {
		t.Fatalf("claim %d not found (err=%v)", claimID, err)
	}
	return claim
}

// assertConservation checks that every unit credited to the product is
// accounted for across the pooled, reserved and paid-out buckets.
func assertConservation(t *testing.T, product entities.Product) {
	t.Helper()
	if product.Pooled+product.Reserved+product.PaidOut != product.Credited {
		t.Fatalf("fund conservation broken for %s: pooled=%d reserved=%d paid_out=%d credited=%d",
			product.Alias, product.Pooled, product.Reserved, product.PaidOut, product.Credited)
	}
}
