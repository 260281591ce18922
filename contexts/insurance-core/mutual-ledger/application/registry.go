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

// ProductRegistry owns product records and their pooled/reserved fund
// buckets. Every value transition moves an amount between exactly two
// buckets (or into the paid-out counter), so
// pooled + reserved + paid_out == credited holds at all times.
type ProductRegistry struct {
	Products ports.ProductRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

// AddProduct registers a product once at configuration time.
func (r ProductRegistry) AddProduct(
	ctx context.Context,
	alias string,
	price int64,
	periodLength time.Duration,
) (entities.Product, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" || price <= 0 || periodLength <= 0 {
		return entities.Product{}, domainerrors.ErrInvalidInput
	}
	if _, found, err := r.Products.GetProduct(ctx, alias); err != nil {
		return entities.Product{}, err
	} else if found {
		return entities.Product{}, domainerrors.ErrProductExists
	}

	now := r.now()
	product := entities.Product{
		Alias:        alias,
		Price:        price,
		PeriodLength: periodLength,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.Products.SaveProduct(ctx, product); err != nil {
		return entities.Product{}, err
	}
	ResolveLogger(r.Logger).Info("product registered",
		"event", "registry_product_added",
		"module", "insurance-core/mutual-ledger",
		"layer", "application",
		"alias", alias,
		"price", price,
		"period_length", periodLength.String(),
	)
	return product, nil
}

// Lookup resolves a product by alias with an explicit found result.
func (r ProductRegistry) Lookup(ctx context.Context, alias string) (entities.Product, bool, error) {
	return r.Products.GetProduct(ctx, strings.TrimSpace(alias))
}

func (r ProductRegistry) List(ctx context.Context) ([]entities.Product, error) {
	return r.Products.ListProducts(ctx)
}

// Credit adds premium income to the pooled bucket.
func (r ProductRegistry) Credit(ctx context.Context, alias string, amount int64) error {
	return r.mutate(ctx, alias, amount, "registry_funds_credited", func(p *entities.Product) error {
		p.Pooled += amount
		p.Credited += amount
		return nil
	})
}

// RevertCredit undoes a Credit. Used only by the premium-receipt rollback
// when the refund transfer fails.
func (r ProductRegistry) RevertCredit(ctx context.Context, alias string, amount int64) error {
	return r.mutate(ctx, alias, amount, "registry_credit_reverted", func(p *entities.Product) error {
		p.Pooled -= amount
		p.Credited -= amount
		return nil
	})
}

// Reserve earmarks pooled funds for a newly declared claim.
func (r ProductRegistry) Reserve(ctx context.Context, alias string, amount int64) error {
	return r.mutate(ctx, alias, amount, "registry_funds_reserved", func(p *entities.Product) error {
		if amount > p.Pooled {
			return domainerrors.ErrInsufficientFunds
		}
		p.Pooled -= amount
		p.Reserved += amount
		return nil
	})
}

// Release returns reserved funds to the pool when a claim is rejected.
func (r ProductRegistry) Release(ctx context.Context, alias string, amount int64) error {
	return r.mutate(ctx, alias, amount, "registry_funds_released", func(p *entities.Product) error {
		p.Reserved -= amount
		p.Pooled += amount
		return nil
	})
}

// PayOut removes reserved funds from custody for an approved claim.
func (r ProductRegistry) PayOut(ctx context.Context, alias string, amount int64) error {
	return r.mutate(ctx, alias, amount, "registry_funds_paid_out", func(p *entities.Product) error {
		p.Reserved -= amount
		p.PaidOut += amount
		return nil
	})
}

// RevertPayOut undoes a PayOut. Used only by the settlement rollback when
// the payout transfer fails.
func (r ProductRegistry) RevertPayOut(ctx context.Context, alias string, amount int64) error {
	return r.mutate(ctx, alias, amount, "registry_pay_out_reverted", func(p *entities.Product) error {
		p.Reserved += amount
		p.PaidOut -= amount
		return nil
	})
}

func (r ProductRegistry) mutate(
	ctx context.Context,
	alias string,
	amount int64,
	logEvent string,
	apply func(*entities.Product) error,
) error {
	if amount < 0 {
		return domainerrors.ErrInvalidAmount
	}
	alias = strings.TrimSpace(alias)
	product, found, err := r.Products.GetProduct(ctx, alias)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrProductNotFound
	}
	if err := apply(&product); err != nil {
		return err
	}
	product.UpdatedAt = r.now()
	if err := r.Products.SaveProduct(ctx, product); err != nil {
		return err
	}
	ResolveLogger(r.Logger).Info("product funds moved",
		"event", logEvent,
		"module", "insurance-core/mutual-ledger",
		"layer", "application",
		"alias", alias,
		"amount", amount,
		"pooled", product.Pooled,
		"reserved", product.Reserved,
	)
	return nil
}

func (r ProductRegistry) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
