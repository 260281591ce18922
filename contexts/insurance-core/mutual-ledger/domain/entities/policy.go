package entities

import "time"

// ClaimGracePeriod extends a policy's claim-declaration window past its
// coverage end. It never extends voting eligibility.
const ClaimGracePeriod = 24 * time.Hour

// Policy is a holder's paid-up coverage record for one product. At most one
// policy exists per (product, holder) pair; renewals reset the window in
// place instead of creating a new row.
type Policy struct {
	PolicyID     uint64
	ProductAlias string
	Holder       string

	CoverageStart time.Time
	CoverageEnd   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoveredAt reports whether the policy is currently in force. Strict bounds,
// no grace; this is the voting-eligibility predicate.
func (p Policy) CoveredAt(now time.Time) bool {
	return !now.Before(p.CoverageStart) && !now.After(p.CoverageEnd)
}

// InClaimWindowAt reports whether a claim may still be declared against the
// policy: coverage window plus the one-day grace period.
func (p Policy) InClaimWindowAt(now time.Time) bool {
	return !now.Before(p.CoverageStart) && !now.After(p.CoverageEnd.Add(ClaimGracePeriod))
}
