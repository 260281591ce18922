package entities

import "time"

// VotingWindow is the fixed period after declaration during which eligible
// policyholders may vote on a claim.
const VotingWindow = 7 * 24 * time.Hour

// Claim is a holder's request to draw reserved funds against an incident,
// subject to peer vote. IncidentRef and IncidentAt are operator-supplied
// audit metadata: stored verbatim, never validated against other state.
type Claim struct {
	ClaimID      uint64
	PolicyID     uint64
	ProductAlias string
	Holder       string

	Description string
	IncidentRef string
	IncidentAt  time.Time
	Amount      int64
	EvidenceURI string

	DeclaredAt     time.Time
	VotingDeadline time.Time

	// Tally is the running sum of cast vote values, kept on the row so reads
	// never rescan votes.
	Tally int64

	Settled   bool
	Approved  bool
	SettledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OpenAt reports whether the claim still accepts votes. Zero-amount claims
// are treated as degenerate and never open.
func (c Claim) OpenAt(now time.Time) bool {
	return c.VotingDeadline.After(now) && c.Amount > 0
}
