package errors

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrPolicyNotFound  = errors.New("policy not found")
	ErrClaimNotFound   = errors.New("claim not found")

	ErrNotPolicyOwner    = errors.New("caller is not the policy holder")
	ErrSelfVoteForbidden = errors.New("claimants may not vote on their own claim")

	ErrOutOfCoverageWindow = errors.New("policy is outside its claim window")
	ErrVotingStillOpen     = errors.New("voting window is still open")
	ErrVotingClosed        = errors.New("voting window is closed")
	ErrPolicyExpired       = errors.New("voter policy is not currently in force")
	ErrNoQualifyingPolicy  = errors.New("voter holds no policy for the claim's product")

	ErrActiveClaimExists = errors.New("policy already has an unsettled claim")
	ErrAlreadySettled    = errors.New("claim is already settled")
	ErrDuplicateVote     = errors.New("voter already voted on this claim")
	ErrProductExists     = errors.New("product alias already registered")

	ErrInsufficientPremium = errors.New("payment does not cover one coverage period")
	ErrInsufficientFunds   = errors.New("product pool cannot cover the requested amount")
	ErrTransferFailed      = errors.New("value transfer failed")

	ErrReentrancyBlocked = errors.New("nested entry into an in-flight custody operation")
	ErrInvalidVote       = errors.New("vote value must be -1, 0 or 1")
	ErrInvalidAmount     = errors.New("amount is out of range for the operation")
	ErrInvalidInput      = errors.New("ledger input is invalid")
)
