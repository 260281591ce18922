package postgresadapter

import (
	"encoding/json"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	"mutua/contexts/insurance-core/mutual-ledger/ports"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type productModel struct {
	Alias               string    `gorm:"column:alias;primaryKey"`
	Price               int64     `gorm:"column:price"`
	PeriodLengthSeconds int64     `gorm:"column:period_length_seconds"`
	Pooled              int64     `gorm:"column:pooled"`
	Reserved            int64     `gorm:"column:reserved"`
	Credited            int64     `gorm:"column:credited"`
	PaidOut             int64     `gorm:"column:paid_out"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "ledger_products" }

func toProductModel(product entities.Product) productModel {
	return productModel{
		Alias:               product.Alias,
		Price:               product.Price,
		PeriodLengthSeconds: int64(product.PeriodLength / time.Second),
		Pooled:              product.Pooled,
		Reserved:            product.Reserved,
		Credited:            product.Credited,
		PaidOut:             product.PaidOut,
		CreatedAt:           product.CreatedAt.UTC(),
		UpdatedAt:           product.UpdatedAt.UTC(),
	}
}

func (m productModel) toEntity() entities.Product {
	return entities.Product{
		Alias:        m.Alias,
		Price:        m.Price,
		PeriodLength: time.Duration(m.PeriodLengthSeconds) * time.Second,
		Pooled:       m.Pooled,
		Reserved:     m.Reserved,
		Credited:     m.Credited,
		PaidOut:      m.PaidOut,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type policyModel struct {
	PolicyID      uint64    `gorm:"column:policy_id;primaryKey"`
	ProductAlias  string    `gorm:"column:product_alias;uniqueIndex:ux_ledger_policies_pair"`
	Holder        string    `gorm:"column:holder;uniqueIndex:ux_ledger_policies_pair"`
	CoverageStart time.Time `gorm:"column:coverage_start"`
	CoverageEnd   time.Time `gorm:"column:coverage_end"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (policyModel) TableName() string { return "ledger_policies" }

func toPolicyModel(policy entities.Policy) policyModel {
	return policyModel{
		PolicyID:      policy.PolicyID,
		ProductAlias:  policy.ProductAlias,
		Holder:        policy.Holder,
		CoverageStart: policy.CoverageStart.UTC(),
		CoverageEnd:   policy.CoverageEnd.UTC(),
		CreatedAt:     policy.CreatedAt.UTC(),
		UpdatedAt:     policy.UpdatedAt.UTC(),
	}
}

func (m policyModel) toEntity() entities.Policy {
	return entities.Policy{
		PolicyID:      m.PolicyID,
		ProductAlias:  m.ProductAlias,
		Holder:        m.Holder,
		CoverageStart: m.CoverageStart,
		CoverageEnd:   m.CoverageEnd,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toPolicyEntities(rows []policyModel) []entities.Policy {
	items := make([]entities.Policy, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type claimModel struct {
	ClaimID        uint64     `gorm:"column:claim_id;primaryKey"`
	PolicyID       uint64     `gorm:"column:policy_id;index"`
	ProductAlias   string     `gorm:"column:product_alias;index"`
	Holder         string     `gorm:"column:holder"`
	Description    string     `gorm:"column:description"`
	IncidentRef    string     `gorm:"column:incident_ref"`
	IncidentAt     time.Time  `gorm:"column:incident_at"`
	Amount         int64      `gorm:"column:amount"`
	EvidenceURI    string     `gorm:"column:evidence_uri"`
	DeclaredAt     time.Time  `gorm:"column:declared_at"`
	VotingDeadline time.Time  `gorm:"column:voting_deadline"`
	Tally          int64      `gorm:"column:tally"`
	Settled        bool       `gorm:"column:settled"`
	Approved       bool       `gorm:"column:approved"`
	SettledAt      *time.Time `gorm:"column:settled_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (claimModel) TableName() string { return "ledger_claims" }

func toClaimModel(claim entities.Claim) claimModel {
	row := claimModel{
		ClaimID:        claim.ClaimID,
		PolicyID:       claim.PolicyID,
		ProductAlias:   claim.ProductAlias,
		Holder:         claim.Holder,
		Description:    claim.Description,
		IncidentRef:    claim.IncidentRef,
		IncidentAt:     claim.IncidentAt.UTC(),
		Amount:         claim.Amount,
		EvidenceURI:    claim.EvidenceURI,
		DeclaredAt:     claim.DeclaredAt.UTC(),
		VotingDeadline: claim.VotingDeadline.UTC(),
		Tally:          claim.Tally,
		Settled:        claim.Settled,
		Approved:       claim.Approved,
		CreatedAt:      claim.CreatedAt.UTC(),
		UpdatedAt:      claim.UpdatedAt.UTC(),
	}
	if claim.SettledAt != nil {
		settledAt := claim.SettledAt.UTC()
		row.SettledAt = &settledAt
	}
	return row
}

func (m claimModel) toEntity() entities.Claim {
	return entities.Claim{
		ClaimID:        m.ClaimID,
		PolicyID:       m.PolicyID,
		ProductAlias:   m.ProductAlias,
		Holder:         m.Holder,
		Description:    m.Description,
		IncidentRef:    m.IncidentRef,
		IncidentAt:     m.IncidentAt,
		Amount:         m.Amount,
		EvidenceURI:    m.EvidenceURI,
		DeclaredAt:     m.DeclaredAt,
		VotingDeadline: m.VotingDeadline,
		Tally:          m.Tally,
		Settled:        m.Settled,
		Approved:       m.Approved,
		SettledAt:      m.SettledAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type voteModel struct {
	ClaimID uint64    `gorm:"column:claim_id;primaryKey;autoIncrement:false"`
	Voter   string    `gorm:"column:voter;primaryKey"`
	Value   int       `gorm:"column:value"`
	CastAt  time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string { return "ledger_votes" }

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		ClaimID: m.ClaimID,
		Voter:   m.Voter,
		Value:   m.Value,
		CastAt:  m.CastAt,
	}
}

type sequenceModel struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value uint64 `gorm:"column:value"`
}

func (sequenceModel) TableName() string { return "ledger_sequences" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "ledger_outbox" }

func marshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}
