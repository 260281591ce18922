package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	domainerrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
	"mutua/contexts/insurance-core/mutual-ledger/ports"
)

// PolicyLedger owns one policy per (product, holder) pair and turns premium
// receipts into coverage windows.
type PolicyLedger struct {
	Policies  ports.PolicyRepository
	Registry  ProductRegistry
	Sequences ports.Sequences
	Payouts   *PayoutEngine
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	Logger    *slog.Logger
}

// PremiumReceipt reports the outcome of one premium payment.
type PremiumReceipt struct {
	Policy   entities.Policy
	Periods  int64
	Credited int64
	Refund   int64
	Renewed  bool
}

// ReceivePremium converts a payment into whole coverage periods for
// (alias, holder). A lapsed or missing policy is created/reset starting now
// (renewal); a policy still in force is extended in place. The remainder of
// the payment is refunded unconditionally, and the refund transfer is issued
// only after every ledger mutation is committed. A failed refund rolls the
// whole receipt back and surfaces ErrTransferFailed.
func (l PolicyLedger) ReceivePremium(
	ctx context.Context,
	alias string,
	holder string,
	paid int64,
) (PremiumReceipt, error) {
	alias = strings.TrimSpace(alias)
	holder = strings.TrimSpace(holder)
	if alias == "" || holder == "" {
		return PremiumReceipt{}, domainerrors.ErrInvalidInput
	}
	if paid < 0 {
		return PremiumReceipt{}, domainerrors.ErrInvalidAmount
	}

	product, found, err := l.Registry.Lookup(ctx, alias)
	if err != nil {
		return PremiumReceipt{}, err
	}
	if !found {
		return PremiumReceipt{}, domainerrors.ErrProductNotFound
	}

	periods := paid / product.Price
	if periods < 1 {
		ResolveLogger(l.Logger).Warn("premium below one period",
			"event", "policy_premium_insufficient",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"alias", alias,
			"holder", holder,
			"paid", paid,
			"price", product.Price,
		)
		return PremiumReceipt{}, domainerrors.ErrInsufficientPremium
	}

	guardKey := PremiumGuardKey(alias, holder)
	if err := l.Payouts.TryBegin(guardKey); err != nil {
		return PremiumReceipt{}, err
	}
	defer l.Payouts.End(guardKey)

	now := l.now()
	extension := time.Duration(periods) * product.PeriodLength
	credited := periods * product.Price
	refund := paid - credited

	prev, existed, err := l.Policies.GetPolicyByPair(ctx, alias, holder)
	if err != nil {
		return PremiumReceipt{}, err
	}

	policy := prev
	renewed := false
	switch {
	case !existed:
		policyID, err := l.Sequences.NextPolicyID(ctx)
		if err != nil {
			return PremiumReceipt{}, err
		}
		policy = entities.Policy{
			PolicyID:      policyID,
			ProductAlias:  alias,
			Holder:        holder,
			CoverageStart: now,
			CoverageEnd:   now.Add(extension),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		renewed = true
	case prev.CoverageEnd.Before(now):
		policy.CoverageStart = now
		policy.CoverageEnd = now.Add(extension)
		policy.UpdatedAt = now
		renewed = true
	default:
		policy.CoverageEnd = policy.CoverageEnd.Add(extension)
		policy.UpdatedAt = now
	}

	if err := l.Registry.Credit(ctx, alias, credited); err != nil {
		return PremiumReceipt{}, err
	}
	if err := l.Policies.SavePolicy(ctx, policy); err != nil {
		_ = l.Registry.RevertCredit(ctx, alias, credited)
		return PremiumReceipt{}, err
	}
	// Commit is complete; only now does control leave the ledger. The
	// original contract refunds even a zero remainder, so the transfer is
	// unconditional.
	if err := l.Payouts.Disburse(ctx, holder, refund); err != nil {
		_ = l.Registry.RevertCredit(ctx, alias, credited)
		if existed {
			_ = l.Policies.SavePolicy(ctx, prev)
		} else {
			_ = l.Policies.DeletePolicy(ctx, policy.PolicyID)
		}
		return PremiumReceipt{}, err
	}

	// Value has already left custody, so a lost event must not turn a
	// committed receipt into a reported failure.
	if err := AppendLedgerEvent(ctx, l.Outbox, EventPremiumReceived, "policy",
		formatID(policy.PolicyID), now, map[string]any{
			"product":        alias,
			"holder":         holder,
			"paid":           paid,
			"credited":       credited,
			"refund":         refund,
			"periods":        periods,
			"renewed":        renewed,
			"coverage_start": policy.CoverageStart.UTC().Format(time.RFC3339),
			"coverage_end":   policy.CoverageEnd.UTC().Format(time.RFC3339),
		}); err != nil {
		ResolveLogger(l.Logger).Error("premium event append failed",
			"event", "policy_premium_event_lost",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"alias", alias,
			"holder", holder,
			"policy_id", policy.PolicyID,
			"error", err.Error(),
		)
	}

	ResolveLogger(l.Logger).Info("premium received",
		"event", "policy_premium_received",
		"module", "insurance-core/mutual-ledger",
		"layer", "application",
		"alias", alias,
		"holder", holder,
		"policy_id", policy.PolicyID,
		"paid", paid,
		"refund", refund,
		"periods", periods,
		"renewed", renewed,
	)
	return PremiumReceipt{
		Policy:   policy,
		Periods:  periods,
		Credited: credited,
		Refund:   refund,
		Renewed:  renewed,
	}, nil
}

func (l PolicyLedger) GetPolicy(ctx context.Context, policyID uint64) (entities.Policy, bool, error) {
	return l.Policies.GetPolicy(ctx, policyID)
}

func (l PolicyLedger) GetPolicyByPair(ctx context.Context, alias string, holder string) (entities.Policy, bool, error) {
	return l.Policies.GetPolicyByPair(ctx, strings.TrimSpace(alias), strings.TrimSpace(holder))
}

func (l PolicyLedger) ListPoliciesByHolder(ctx context.Context, holder string) ([]entities.Policy, error) {
	return l.Policies.ListPoliciesByHolder(ctx, strings.TrimSpace(holder))
}

func (l PolicyLedger) ListPoliciesByProduct(ctx context.Context, alias string) ([]entities.Policy, error) {
	return l.Policies.ListPoliciesByProduct(ctx, strings.TrimSpace(alias))
}

func (l PolicyLedger) now() time.Time {
	if l.Clock != nil {
		return l.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
