package entities

import (
	"testing"
	"time"
)

func TestPolicyCoverageWindowIsInclusive(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Second)
	policy := Policy{CoverageStart: start, CoverageEnd: end}

	if !policy.CoveredAt(start) {
		t.Fatalf("coverage must include its start instant")
	}
	if !policy.CoveredAt(end) {
		t.Fatalf("coverage must include its end instant")
	}
	if policy.CoveredAt(start.Add(-time.Second)) {
		t.Fatalf("coverage must exclude instants before start")
	}
	if policy.CoveredAt(end.Add(time.Second)) {
		t.Fatalf("coverage must exclude instants after end")
	}
}

func TestPolicyClaimWindowAddsGrace(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Second)
	policy := Policy{CoverageStart: start, CoverageEnd: end}

	if !policy.InClaimWindowAt(end.Add(ClaimGracePeriod)) {
		t.Fatalf("claim window must extend through the grace period")
	}
	if policy.InClaimWindowAt(end.Add(ClaimGracePeriod + time.Second)) {
		t.Fatalf("claim window must close after the grace period")
	}
}

func TestClaimOpenAt(t *testing.T) {
	deadline := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
	claim := Claim{Amount: 5, VotingDeadline: deadline}

	if !claim.OpenAt(deadline.Add(-time.Second)) {
		t.Fatalf("claim must be open before its deadline")
	}
	if claim.OpenAt(deadline) {
		t.Fatalf("claim must close at its deadline")
	}
	if (Claim{VotingDeadline: deadline}).OpenAt(deadline.Add(-time.Second)) {
		t.Fatalf("zero-amount claims are never open")
	}
}

func TestValidVoteValue(t *testing.T) {
	for _, value := range []int{VoteReject, VoteAbstain, VoteApprove} {
		if !ValidVoteValue(value) {
			t.Fatalf("value %d should be valid", value)
		}
	}
	for _, value := range []int{-2, 2, 10} {
		if ValidVoteValue(value) {
			t.Fatalf("value %d should be invalid", value)
		}
	}
}
