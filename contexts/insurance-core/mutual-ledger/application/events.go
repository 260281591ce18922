package application

import (
	"context"
	"strconv"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/ports"

	"github.com/google/uuid"
)

// Event types appended to the ledger outbox.
const (
	EventPremiumReceived = "premium.received"
	EventClaimDeclared   = "claim.declared"
	EventVoteCast        = "vote.cast"
	EventClaimSettled    = "claim.settled"
)

// AppendLedgerEvent writes one envelope to the outbox. A nil outbox is a
// no-op so pure read/test wiring can skip event plumbing.
func AppendLedgerEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	eventType string,
	entityType string,
	entityID string,
	occurredAt time.Time,
	payload map[string]any,
) error {
	if outbox == nil {
		return nil
	}
	return outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		SourceService:  "insurance-core/mutual-ledger",
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     entityType,
		EntityID:       entityID,
		PayloadVersion: 1,
		Payload:        payload,
	})
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
