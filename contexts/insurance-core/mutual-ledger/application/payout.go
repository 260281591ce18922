package application

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	domainerrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
	"mutua/contexts/insurance-core/mutual-ledger/ports"
)

// PayoutEngine is the ledger's only component that moves value out of
// custody. Every state-changing operation that ends in a transfer commits
// its ledger mutations first, then issues the transfer while the engine
// holds a per-operation guard key.
//
// The guard is a try-acquire keyed set rather than a mutex: an adversarial
// recipient re-enters the ledger on the same goroutine from inside the
// transfer callback, and a blocking lock would deadlock there instead of
// rejecting the nested call.
type PayoutEngine struct {
	Transfer ports.ValueTransfer
	Logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewPayoutEngine(transfer ports.ValueTransfer, logger *slog.Logger) *PayoutEngine {
	return &PayoutEngine{
		Transfer: transfer,
		Logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// SettleGuardKey scopes the guard to one claim's settlement path.
func SettleGuardKey(claimID uint64) string {
	return "settle/" + strconv.FormatUint(claimID, 10)
}

// PremiumGuardKey scopes the guard to one (product, holder) premium receipt.
func PremiumGuardKey(alias string, holder string) string {
	return "premium/" + alias + "/" + holder
}

// TryBegin admits one in-flight custody operation per key. A nested call on
// the same key is rejected with ErrReentrancyBlocked, never queued.
func (e *PayoutEngine) TryBegin(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, held := e.inflight[key]; held {
		ResolveLogger(e.Logger).Warn("nested custody entry rejected",
			"event", "payout_reentrancy_blocked",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"guard_key", key,
		)
		return domainerrors.ErrReentrancyBlocked
	}
	e.inflight[key] = struct{}{}
	return nil
}

// End releases a guard key acquired by TryBegin. Callers release only after
// any transfer-failure rollback has been applied, so a nested caller can
// never observe the half-open state.
func (e *PayoutEngine) End(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, key)
}

// Disburse transfers amount to recipient. Transfer errors are surfaced as
// ErrTransferFailed; the cause stays in the log, not in ledger state.
func (e *PayoutEngine) Disburse(ctx context.Context, recipient string, amount int64) error {
	if amount < 0 {
		return domainerrors.ErrInvalidAmount
	}
	if err := e.Transfer.Disburse(ctx, recipient, amount); err != nil {
		ResolveLogger(e.Logger).Error("value transfer rejected by recipient",
			"event", "payout_transfer_failed",
			"module", "insurance-core/mutual-ledger",
			"layer", "application",
			"recipient", recipient,
			"amount", amount,
			"error", err.Error(),
		)
		return domainerrors.ErrTransferFailed
	}
	return nil
}
