package application

import (
	"context"
	"errors"
	"testing"

	domainerrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
)

type recordingTransfer struct {
	calls []int64
	err   error
}

func (r *recordingTransfer) Disburse(_ context.Context, _ string, amount int64) error {
	r.calls = append(r.calls, amount)
	return r.err
}

func TestPayoutGuardIsPerKey(t *testing.T) {
	engine := NewPayoutEngine(&recordingTransfer{}, nil)

	key := SettleGuardKey(7)
	if err := engine.TryBegin(key); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := engine.TryBegin(key); !errors.Is(err, domainerrors.ErrReentrancyBlocked) {
		t.Fatalf("expected ErrReentrancyBlocked on nested acquire, got %v", err)
	}
	if err := engine.TryBegin(SettleGuardKey(8)); err != nil {
		t.Fatalf("a different claim's key must stay available: %v", err)
	}

	engine.End(key)
	if err := engine.TryBegin(key); err != nil {
		t.Fatalf("released key must be reusable: %v", err)
	}
}

func TestPayoutDisburseMapsTransferFailure(t *testing.T) {
	transfer := &recordingTransfer{err: errors.New("downstream down")}
	engine := NewPayoutEngine(transfer, nil)

	err := engine.Disburse(context.Background(), "holder-a", 5)
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if len(transfer.calls) != 1 || transfer.calls[0] != 5 {
		t.Fatalf("unexpected transfer calls: %v", transfer.calls)
	}
}

func TestPayoutDisburseRejectsNegativeAmount(t *testing.T) {
	transfer := &recordingTransfer{}
	engine := NewPayoutEngine(transfer, nil)

	if err := engine.Disburse(context.Background(), "holder-a", -1); !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(transfer.calls) != 0 {
		t.Fatalf("negative amount must not reach the transfer port")
	}
}
