package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	domainerrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
	"mutua/contexts/insurance-core/mutual-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	sequencePolicies = "policies"
	sequenceClaims   = "claims"

	uniqueViolation = "23505"
)

// Repository persists the ledger in Postgres. It implements the same ports
// as the memory store so modules wire either interchangeably.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// Migrate creates or updates the ledger schema.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&productModel{},
		&policyModel{},
		&claimModel{},
		&voteModel{},
		&sequenceModel{},
		&outboxModel{},
	)
}

func (r *Repository) SaveProduct(ctx context.Context, product entities.Product) error {
	row := toProductModel(product)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *Repository) GetProduct(ctx context.Context, alias string) (entities.Product, bool, error) {
	var row productModel
	err := r.db.WithContext(ctx).Where("alias = ?", strings.TrimSpace(alias)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Product{}, false, nil
		}
		return entities.Product{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]entities.Product, error) {
	var rows []productModel
	if err := r.db.WithContext(ctx).Order("alias ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SavePolicy(ctx context.Context, policy entities.Policy) error {
	row := toPolicyModel(policy)
	err := r.db.WithContext(ctx).Save(&row).Error
	if isUniqueViolation(err) {
		// The (product, holder) composite key already maps to another row.
		return domainerrors.ErrInvalidInput
	}
	return err
}

func (r *Repository) GetPolicy(ctx context.Context, policyID uint64) (entities.Policy, bool, error) {
	var row policyModel
	err := r.db.WithContext(ctx).Where("policy_id = ?", policyID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, false, nil
		}
		return entities.Policy{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetPolicyByPair(ctx context.Context, alias string, holder string) (entities.Policy, bool, error) {
	var row policyModel
	err := r.db.WithContext(ctx).
		Where("product_alias = ? AND holder = ?", strings.TrimSpace(alias), strings.TrimSpace(holder)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Policy{}, false, nil
		}
		return entities.Policy{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) DeletePolicy(ctx context.Context, policyID uint64) error {
	result := r.db.WithContext(ctx).Where("policy_id = ?", policyID).Delete(&policyModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPolicyNotFound
	}
	return nil
}

func (r *Repository) ListPoliciesByHolder(ctx context.Context, holder string) ([]entities.Policy, error) {
	var rows []policyModel
	if err := r.db.WithContext(ctx).
		Where("holder = ?", strings.TrimSpace(holder)).
		Order("policy_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toPolicyEntities(rows), nil
}

func (r *Repository) ListPoliciesByProduct(ctx context.Context, alias string) ([]entities.Policy, error) {
	var rows []policyModel
	if err := r.db.WithContext(ctx).
		Where("product_alias = ?", strings.TrimSpace(alias)).
		Order("policy_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return toPolicyEntities(rows), nil
}

func (r *Repository) SaveClaim(ctx context.Context, claim entities.Claim) error {
	row := toClaimModel(claim)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *Repository) GetClaim(ctx context.Context, claimID uint64) (entities.Claim, bool, error) {
	var row claimModel
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claim{}, false, nil
		}
		return entities.Claim{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetUnsettledClaimByPolicy(ctx context.Context, policyID uint64) (entities.Claim, bool, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("policy_id = ? AND settled = ?", policyID, false).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claim{}, false, nil
		}
		return entities.Claim{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListClaimsByProduct(ctx context.Context, alias string) ([]entities.Claim, error) {
	var rows []claimModel
	if err := r.db.WithContext(ctx).
		Where("product_alias = ?", strings.TrimSpace(alias)).
		Order("claim_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveVote(ctx context.Context, vote entities.Vote) error {
	row := voteModel{
		ClaimID: vote.ClaimID,
		Voter:   vote.Voter,
		Value:   vote.Value,
		CastAt:  vote.CastAt.UTC(),
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if isUniqueViolation(err) {
		return domainerrors.ErrDuplicateVote
	}
	return err
}

func (r *Repository) GetVote(ctx context.Context, claimID uint64, voter string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ? AND voter = ?", claimID, strings.TrimSpace(voter)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesByClaim(ctx context.Context, claimID uint64) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("cast_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) NextPolicyID(ctx context.Context) (uint64, error) {
	return r.nextSequence(ctx, sequencePolicies)
}

func (r *Repository) NextClaimID(ctx context.Context) (uint64, error) {
	return r.nextSequence(ctx, sequenceClaims)
}

func (r *Repository) nextSequence(ctx context.Context, name string) (uint64, error) {
	var next uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sequenceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).
			First(&row).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = sequenceModel{Name: name}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		row.Value++
		next = row.Value
		return tx.Save(&row).Error
	})
	return next, err
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.EntityID,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAtUTC.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "outbox_id"}}, DoNothing: true}).
		Create(&row).
		Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusSent,
			"published_at": publishedAt.UTC(),
		}).
		Error
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
