package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReceiveHook runs recipient-controlled code when a disbursement lands. The
// attack tests register hooks that call back into the ledger; production
// wiring leaves recipients hookless.
type ReceiveHook func(ctx context.Context, amount int64) error

// Disbursement is one audit row for value that left custody.
type Disbursement struct {
	TransferID string
	Recipient  string
	Amount     int64
	At         time.Time
}

// Treasury is the in-process ValueTransfer adapter: it credits recipient
// balances and then hands control to the recipient's hook, which is exactly
// the control-transfer hazard the payout engine defends against. A hook
// error fails the transfer and reverses the credit.
type Treasury struct {
	mu            sync.Mutex
	balances      map[string]int64
	hooks         map[string]ReceiveHook
	disbursements []Disbursement
}

func NewTreasury() *Treasury {
	return &Treasury{
		balances: make(map[string]int64),
		hooks:    make(map[string]ReceiveHook),
	}
}

// SetReceiveHook installs recipient-controlled code for one address.
func (t *Treasury) SetReceiveHook(recipient string, hook ReceiveHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks[strings.TrimSpace(recipient)] = hook
}

func (t *Treasury) Disburse(ctx context.Context, recipient string, amount int64) error {
	recipient = strings.TrimSpace(recipient)

	t.mu.Lock()
	t.balances[recipient] += amount
	row := Disbursement{
		TransferID: uuid.NewString(),
		Recipient:  recipient,
		Amount:     amount,
		At:         time.Now().UTC(),
	}
	t.disbursements = append(t.disbursements, row)
	hook := t.hooks[recipient]
	t.mu.Unlock()

	// Control leaves the treasury here; the hook may re-enter the ledger on
	// this same goroutine.
	if hook != nil {
		if err := hook(ctx, amount); err != nil {
			t.mu.Lock()
			t.balances[recipient] -= amount
			// The hook may have landed further disbursements before failing,
			// so remove the failed row by id, never positionally.
			t.removeDisbursementLocked(row.TransferID)
			t.mu.Unlock()
			return err
		}
	}
	return nil
}

func (t *Treasury) removeDisbursementLocked(transferID string) {
	for i := range t.disbursements {
		if t.disbursements[i].TransferID == transferID {
			t.disbursements = append(t.disbursements[:i], t.disbursements[i+1:]...)
			return
		}
	}
}

// Balance reports the total value disbursed to recipient.
func (t *Treasury) Balance(recipient string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[strings.TrimSpace(recipient)]
}

// Disbursements returns a copy of the audit trail.
func (t *Treasury) Disbursements() []Disbursement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Disbursement(nil), t.disbursements...)
}
