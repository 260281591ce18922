package ports

import (
	"context"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	"mutua/internal/shared/events"
)

type ProductRepository interface {
	SaveProduct(ctx context.Context, product entities.Product) error
	GetProduct(ctx context.Context, alias string) (entities.Product, bool, error)
	ListProducts(ctx context.Context) ([]entities.Product, error)
}

type PolicyRepository interface {
	SavePolicy(ctx context.Context, policy entities.Policy) error
	GetPolicy(ctx context.Context, policyID uint64) (entities.Policy, bool, error)
	// GetPolicyByPair resolves the composite (product, holder) key. Missing
	// pairs report found=false, never a zero-valued record.
	GetPolicyByPair(ctx context.Context, alias string, holder string) (entities.Policy, bool, error)
	// DeletePolicy exists only for the premium-receipt rollback path;
	// policies are never deleted by normal ledger transitions.
	DeletePolicy(ctx context.Context, policyID uint64) error
	ListPoliciesByHolder(ctx context.Context, holder string) ([]entities.Policy, error)
	ListPoliciesByProduct(ctx context.Context, alias string) ([]entities.Policy, error)
}

type ClaimRepository interface {
	SaveClaim(ctx context.Context, claim entities.Claim) error
	GetClaim(ctx context.Context, claimID uint64) (entities.Claim, bool, error)
	// GetUnsettledClaimByPolicy enforces the single-active-claim rule.
	GetUnsettledClaimByPolicy(ctx context.Context, policyID uint64) (entities.Claim, bool, error)
	ListClaimsByProduct(ctx context.Context, alias string) ([]entities.Claim, error)
}

type VoteRepository interface {
	SaveVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, claimID uint64, voter string) (entities.Vote, bool, error)
	ListVotesByClaim(ctx context.Context, claimID uint64) ([]entities.Vote, error)
}

// Sequences allocates the ledger's numeric entity identifiers.
type Sequences interface {
	NextPolicyID(ctx context.Context) (uint64, error)
	NextClaimID(ctx context.Context) (uint64, error)
}

type Clock interface {
	Now() time.Time
}

// ValueTransfer moves native value out of ledger custody. A transfer hands
// control to code the recipient controls, so implementations are the
// ledger's only reentrancy surface.
type ValueTransfer interface {
	Disburse(ctx context.Context, recipient string, amount int64) error
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
