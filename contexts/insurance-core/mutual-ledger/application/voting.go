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

// VotingEngine records one vote per (claim, voter) during the claim's voting
// window and keeps the tally on the claim row so settlement reads it O(1).
type VotingEngine struct {
	Claims   ports.ClaimRepository
	Policies ports.PolicyRepository
	Votes    ports.VoteRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	Logger   *slog.Logger
}

// CastVote validates eligibility and records the verdict. Eligibility
// requires a currently-in-force policy (no grace) for the claim's product;
// one vote per address regardless of how many qualifying policies it holds.
func (e VotingEngine) CastVote(
	ctx context.Context,
	claimID uint64,
	value int,
	voter string,
) (entities.Vote, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return entities.Vote{}, domainerrors.ErrInvalidInput
	}
	if !entities.ValidVoteValue(value) {
		return entities.Vote{}, domainerrors.ErrInvalidVote
	}

	claim, found, err := e.Claims.GetClaim(ctx, claimID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrClaimNotFound
	}
	if claim.Holder == voter {
		return entities.Vote{}, domainerrors.ErrSelfVoteForbidden
	}

	now := e.now()
	if now.After(claim.VotingDeadline) {
		return entities.Vote{}, domainerrors.ErrVotingClosed
	}

	policy, found, err := e.Policies.GetPolicyByPair(ctx, claim.ProductAlias, voter)
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrNoQualifyingPolicy
	}
	if !policy.CoveredAt(now) {
		return entities.Vote{}, domainerrors.ErrPolicyExpired
	}

	if _, voted, err := e.Votes.GetVote(ctx, claim.ClaimID, voter); err != nil {
		return entities.Vote{}, err
	} else if voted {
		return entities.Vote{}, domainerrors.ErrDuplicateVote
	}

	vote := entities.Vote{
		ClaimID: claim.ClaimID,
		Voter:   voter,
		Value:   value,
		CastAt:  now,
	}
	if err := e.Votes.SaveVote(ctx, vote); err != nil {
		return entities.Vote{}, err
	}
	claim.Tally += int64(value)
	claim.UpdatedAt = now
	if err := e.Claims.SaveClaim(ctx, claim); err != nil {
		return entities.Vote{}, err
	}
	// Vote and tally are committed; a lost event never unwinds them.
	if err := AppendLedgerEvent(ctx, e.Outbox, EventVoteCast, "claim",
		formatID(claim.ClaimID), now, map[string]any{
			"voter": voter,
			"value": value,
			"tally": claim.Tally,
		}); err != nil {
		ResolveLogger(e.Logger).Error("vote event append failed",
			"event", "voting_vote_event_lost",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"claim_id", claim.ClaimID,
			"voter", voter,
			"error", err.Error(),
		)
	}

	ResolveLogger(e.Logger).Info("vote cast",
		"event", "voting_vote_cast",
		"module", "insurance-core/mutual-ledger",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"voter", voter,
		"value", value,
		"tally", claim.Tally,
	)
	return vote, nil
}

func (e VotingEngine) VotesByClaim(ctx context.Context, claimID uint64) ([]entities.Vote, error) {
	return e.Votes.ListVotesByClaim(ctx, claimID)
}

func (e VotingEngine) now() time.Time {
	if e.Clock != nil {
		return e.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
