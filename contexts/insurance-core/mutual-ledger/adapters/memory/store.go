package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	domainerrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
	"mutua/contexts/insurance-core/mutual-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory ledger used by tests and self-contained wiring. It
// implements every repository port plus sequences and the outbox.
type Store struct {
	mu sync.RWMutex

	products map[string]entities.Product
	policies map[uint64]entities.Policy
	// policyPairs indexes the composite (product, holder) uniqueness key.
	policyPairs map[string]uint64
	claims      map[uint64]entities.Claim
	votes       map[uint64]map[string]entities.Vote
	outbox      map[string]outboxRecord

	nextPolicyID uint64
	nextClaimID  uint64
}

func NewStore() *Store {
	return &Store{
		products:    make(map[string]entities.Product),
		policies:    make(map[uint64]entities.Policy),
		policyPairs: make(map[string]uint64),
		claims:      make(map[uint64]entities.Claim),
		votes:       make(map[uint64]map[string]entities.Vote),
		outbox:      make(map[string]outboxRecord),
	}
}

func pairKey(alias string, holder string) string {
	return strings.TrimSpace(alias) + "\x00" + strings.TrimSpace(holder)
}

func (s *Store) SaveProduct(_ context.Context, product entities.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[strings.TrimSpace(product.Alias)] = product
	return nil
}

func (s *Store) GetProduct(_ context.Context, alias string) (entities.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[strings.TrimSpace(alias)]
	return product, ok, nil
}

func (s *Store) ListProducts(_ context.Context) ([]entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Product, 0, len(s.products))
	for _, product := range s.products {
		items = append(items, product)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Alias < items[j].Alias
	})
	return items, nil
}

func (s *Store) SavePolicy(_ context.Context, policy entities.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.PolicyID] = policy
	s.policyPairs[pairKey(policy.ProductAlias, policy.Holder)] = policy.PolicyID
	return nil
}

func (s *Store) GetPolicy(_ context.Context, policyID uint64) (entities.Policy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[policyID]
	return policy, ok, nil
}

func (s *Store) GetPolicyByPair(_ context.Context, alias string, holder string) (entities.Policy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policyID, ok := s.policyPairs[pairKey(alias, holder)]
	if !ok {
		return entities.Policy{}, false, nil
	}
	policy, ok := s.policies[policyID]
	return policy, ok, nil
}

func (s *Store) DeletePolicy(_ context.Context, policyID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[policyID]
	if !ok {
		return domainerrors.ErrPolicyNotFound
	}
	delete(s.policies, policyID)
	delete(s.policyPairs, pairKey(policy.ProductAlias, policy.Holder))
	return nil
}

func (s *Store) ListPoliciesByHolder(_ context.Context, holder string) ([]entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	holder = strings.TrimSpace(holder)
	items := make([]entities.Policy, 0)
	for _, policy := range s.policies {
		if policy.Holder == holder {
			items = append(items, policy)
		}
	}
	sortPoliciesByID(items)
	return items, nil
}

func (s *Store) ListPoliciesByProduct(_ context.Context, alias string) ([]entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alias = strings.TrimSpace(alias)
	items := make([]entities.Policy, 0)
	for _, policy := range s.policies {
		if policy.ProductAlias == alias {
			items = append(items, policy)
		}
	}
	sortPoliciesByID(items)
	return items, nil
}

func (s *Store) SaveClaim(_ context.Context, claim entities.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[claim.ClaimID] = claim
	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID uint64) (entities.Claim, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[claimID]
	return claim, ok, nil
}

func (s *Store) GetUnsettledClaimByPolicy(_ context.Context, policyID uint64) (entities.Claim, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, claim := range s.claims {
		if claim.PolicyID == policyID && !claim.Settled {
			return claim, true, nil
		}
	}
	return entities.Claim{}, false, nil
}

func (s *Store) ListClaimsByProduct(_ context.Context, alias string) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alias = strings.TrimSpace(alias)
	items := make([]entities.Claim, 0)
	for _, claim := range s.claims {
		if claim.ProductAlias == alias {
			items = append(items, claim)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ClaimID < items[j].ClaimID
	})
	return items, nil
}

func (s *Store) SaveVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byVoter, ok := s.votes[vote.ClaimID]
	if !ok {
		byVoter = make(map[string]entities.Vote)
		s.votes[vote.ClaimID] = byVoter
	}
	if _, exists := byVoter[vote.Voter]; exists {
		return domainerrors.ErrDuplicateVote
	}
	byVoter[vote.Voter] = vote
	return nil
}

func (s *Store) GetVote(_ context.Context, claimID uint64, voter string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[claimID][strings.TrimSpace(voter)]
	return vote, ok, nil
}

func (s *Store) ListVotesByClaim(_ context.Context, claimID uint64) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0, len(s.votes[claimID]))
	for _, vote := range s.votes[claimID] {
		items = append(items, vote)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) NextPolicyID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPolicyID++
	return s.nextPolicyID, nil
}

func (s *Store) NextClaimID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextClaimID++
	return s.nextClaimID, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrInvalidInput
		}
		return nil
	}
	createdAt := envelope.OccurredAtUTC.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.EntityID),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func sortPoliciesByID(items []entities.Policy) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].PolicyID < items[j].PolicyID
	})
}
