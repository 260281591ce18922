package entities

import "time"

// Vote values accepted by the ledger.
const (
	VoteReject  = -1
	VoteAbstain = 0
	VoteApprove = 1
)

// Vote is one voter's immutable verdict on one claim, keyed by
// (claim, voter).
type Vote struct {
	ClaimID uint64
	Voter   string
	Value   int
	CastAt  time.Time
}

// ValidVoteValue reports whether value is one of {-1, 0, +1}.
func ValidVoteValue(value int) bool {
	return value >= VoteReject && value <= VoteApprove
}
