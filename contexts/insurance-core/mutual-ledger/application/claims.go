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

// ClaimService owns the claim (sinister) lifecycle: declaration reserves
// product funds, settlement reads the vote tally and either pays the holder
// or releases the reservation back to the pool.
type ClaimService struct {
	Claims    ports.ClaimRepository
	Policies  ports.PolicyRepository
	Registry  ProductRegistry
	Sequences ports.Sequences
	Payouts   *PayoutEngine
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	Logger    *slog.Logger
}

// DeclareClaimInput is the write-model input for claim declaration.
// IncidentRef/IncidentAt are opaque evidentiary metadata.
type DeclareClaimInput struct {
	PolicyID    uint64
	Description string
	IncidentRef string
	IncidentAt  time.Time
	Amount      int64
	EvidenceURI string
}

// DeclareClaim opens a claim against the caller's policy and moves the
// requested amount from the product pool into reserve. One unsettled claim
// per policy, declarable during coverage plus the one-day grace period.
func (s ClaimService) DeclareClaim(
	ctx context.Context,
	input DeclareClaimInput,
	caller string,
) (entities.Claim, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" || strings.TrimSpace(input.Description) == "" {
		return entities.Claim{}, domainerrors.ErrInvalidInput
	}
	if input.Amount <= 0 {
		return entities.Claim{}, domainerrors.ErrInvalidAmount
	}

	policy, found, err := s.Policies.GetPolicy(ctx, input.PolicyID)
	if err != nil {
		return entities.Claim{}, err
	}
	if !found {
		return entities.Claim{}, domainerrors.ErrPolicyNotFound
	}
	if policy.Holder != caller {
		return entities.Claim{}, domainerrors.ErrNotPolicyOwner
	}

	now := s.now()
	if !policy.InClaimWindowAt(now) {
		ResolveLogger(s.Logger).Warn("claim declared outside coverage window",
			"event", "claim_out_of_window",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"policy_id", policy.PolicyID,
			"holder", caller,
			"coverage_end", policy.CoverageEnd.UTC().Format(time.RFC3339),
		)
		return entities.Claim{}, domainerrors.ErrOutOfCoverageWindow
	}
	if _, open, err := s.Claims.GetUnsettledClaimByPolicy(ctx, policy.PolicyID); err != nil {
		return entities.Claim{}, err
	} else if open {
		return entities.Claim{}, domainerrors.ErrActiveClaimExists
	}

	if err := s.Registry.Reserve(ctx, policy.ProductAlias, input.Amount); err != nil {
		return entities.Claim{}, err
	}

	claimID, err := s.Sequences.NextClaimID(ctx)
	if err != nil {
		_ = s.Registry.Release(ctx, policy.ProductAlias, input.Amount)
		return entities.Claim{}, err
	}
	claim := entities.Claim{
		ClaimID:        claimID,
		PolicyID:       policy.PolicyID,
		ProductAlias:   policy.ProductAlias,
		Holder:         policy.Holder,
		Description:    strings.TrimSpace(input.Description),
		IncidentRef:    strings.TrimSpace(input.IncidentRef),
		IncidentAt:     input.IncidentAt.UTC(),
		Amount:         input.Amount,
		EvidenceURI:    strings.TrimSpace(input.EvidenceURI),
		DeclaredAt:     now,
		VotingDeadline: now.Add(entities.VotingWindow),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Claims.SaveClaim(ctx, claim); err != nil {
		_ = s.Registry.Release(ctx, policy.ProductAlias, input.Amount)
		return entities.Claim{}, err
	}
	// Reserve and claim row are committed; the declaration stands even if
	// the event is lost.
	if err := AppendLedgerEvent(ctx, s.Outbox, EventClaimDeclared, "claim",
		formatID(claim.ClaimID), now, map[string]any{
			"policy_id":       claim.PolicyID,
			"product":         claim.ProductAlias,
			"holder":          claim.Holder,
			"amount":          claim.Amount,
			"voting_deadline": claim.VotingDeadline.UTC().Format(time.RFC3339),
		}); err != nil {
		ResolveLogger(s.Logger).Error("declaration event append failed",
			"event", "claim_declared_event_lost",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"claim_id", claim.ClaimID,
			"error", err.Error(),
		)
	}

	ResolveLogger(s.Logger).Info("claim declared",
		"event", "claim_declared",
		"module", "insurance-core/mutual-ledger",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"policy_id", claim.PolicyID,
		"product", claim.ProductAlias,
		"holder", claim.Holder,
		"amount", claim.Amount,
	)
	return claim, nil
}

// SettleClaim closes a claim after its voting window. The settled flag and
// fund movement are committed before any value leaves custody; the per-claim
// guard covers the transfer plus the rollback window, so a recipient
// callback that re-enters observes ErrAlreadySettled or
// ErrReentrancyBlocked, never a replayable open claim.
func (s ClaimService) SettleClaim(
	ctx context.Context,
	claimID uint64,
	caller string,
) (entities.Claim, error) {
	caller = strings.TrimSpace(caller)
	claim, found, err := s.Claims.GetClaim(ctx, claimID)
	if err != nil {
		return entities.Claim{}, err
	}
	if !found {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	if claim.Holder != caller {
		return entities.Claim{}, domainerrors.ErrNotPolicyOwner
	}

	now := s.now()
	if !now.After(claim.VotingDeadline) {
		return entities.Claim{}, domainerrors.ErrVotingStillOpen
	}
	if claim.Settled {
		return entities.Claim{}, domainerrors.ErrAlreadySettled
	}

	guardKey := SettleGuardKey(claim.ClaimID)
	if err := s.Payouts.TryBegin(guardKey); err != nil {
		return entities.Claim{}, err
	}
	defer s.Payouts.End(guardKey)

	// Re-read under the guard: the pre-guard checks ran unguarded.
	claim, found, err = s.Claims.GetClaim(ctx, claimID)
	if err != nil {
		return entities.Claim{}, err
	}
	if !found {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	if claim.Settled {
		return entities.Claim{}, domainerrors.ErrAlreadySettled
	}

	approved := claim.Tally >= 0
	settled := claim
	settled.Settled = true
	settled.Approved = approved
	settled.SettledAt = &now
	settled.UpdatedAt = now
	if err := s.Claims.SaveClaim(ctx, settled); err != nil {
		return entities.Claim{}, err
	}

	if approved {
		if err := s.Registry.PayOut(ctx, settled.ProductAlias, settled.Amount); err != nil {
			_ = s.Claims.SaveClaim(ctx, claim)
			return entities.Claim{}, err
		}
		if err := s.Payouts.Disburse(ctx, settled.Holder, settled.Amount); err != nil {
			// Roll this claim back to retryable before the guard releases.
			_ = s.Registry.RevertPayOut(ctx, settled.ProductAlias, settled.Amount)
			_ = s.Claims.SaveClaim(ctx, claim)
			return entities.Claim{}, err
		}
	} else {
		if err := s.Registry.Release(ctx, settled.ProductAlias, settled.Amount); err != nil {
			_ = s.Claims.SaveClaim(ctx, claim)
			return entities.Claim{}, err
		}
	}

	// Settlement is committed and, when approved, paid out; a lost event is
	// logged, never reported as a failed settlement.
	if err := AppendLedgerEvent(ctx, s.Outbox, EventClaimSettled, "claim",
		formatID(settled.ClaimID), now, map[string]any{
			"product":  settled.ProductAlias,
			"holder":   settled.Holder,
			"amount":   settled.Amount,
			"tally":    settled.Tally,
			"approved": approved,
		}); err != nil {
		ResolveLogger(s.Logger).Error("settlement event append failed",
			"event", "claim_settled_event_lost",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"claim_id", settled.ClaimID,
			"error", err.Error(),
		)
	}

	ResolveLogger(s.Logger).Info("claim settled",
		"event", "claim_settled",
		"module", "insurance-core/mutual-ledger",
		"layer", "application",
		"claim_id", settled.ClaimID,
		"product", settled.ProductAlias,
		"holder", settled.Holder,
		"amount", settled.Amount,
		"tally", settled.Tally,
		"approved", approved,
	)
	return settled, nil
}

func (s ClaimService) GetClaim(ctx context.Context, claimID uint64) (entities.Claim, bool, error) {
	return s.Claims.GetClaim(ctx, claimID)
}

func (s ClaimService) ClaimsByProduct(ctx context.Context, alias string) ([]entities.Claim, error) {
	return s.Claims.ListClaimsByProduct(ctx, strings.TrimSpace(alias))
}

// OpenClaimsByProduct lists claims still accepting votes: voting deadline in
// the future and a positive amount. Vote discovery reads this.
func (s ClaimService) OpenClaimsByProduct(ctx context.Context, alias string) ([]entities.Claim, error) {
	claims, err := s.Claims.ListClaimsByProduct(ctx, strings.TrimSpace(alias))
	if err != nil {
		return nil, err
	}
	now := s.now()
	open := make([]entities.Claim, 0, len(claims))
	for _, claim := range claims {
		if claim.OpenAt(now) {
			open = append(open, claim)
		}
	}
	return open, nil
}

func (s ClaimService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
