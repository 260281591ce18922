package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"mutua/contexts/insurance-core/mutual-ledger/application"
	"mutua/contexts/insurance-core/mutual-ledger/domain/entities"
	httptransport "mutua/contexts/insurance-core/mutual-ledger/transport/http"
)

// Handler maps transport DTOs onto the ledger's application services.
type Handler struct {
	Registry application.ProductRegistry
	Policies application.PolicyLedger
	Claims   application.ClaimService
	Voting   application.VotingEngine
	Logger   *slog.Logger
}

func (h Handler) GetProductHandler(ctx context.Context, alias string) (httptransport.GetProductResponse, error) {
	product, found, err := h.Registry.Lookup(ctx, alias)
	if err != nil {
		return httptransport.GetProductResponse{}, err
	}
	resp := httptransport.GetProductResponse{Status: "success", Found: found}
	if found {
		resp.Data = toProductDTO(product)
	}
	return resp, nil
}

func (h Handler) ReceivePremiumHandler(
	ctx context.Context,
	alias string,
	holder string,
	req httptransport.PremiumRequest,
) (httptransport.PremiumResponse, error) {
	receipt, err := h.Policies.ReceivePremium(ctx, alias, holder, req.Amount)
	if err != nil {
		return httptransport.PremiumResponse{}, err
	}
	return httptransport.PremiumResponse{
		Status:  "success",
		Renewed: receipt.Renewed,
		Periods: receipt.Periods,
		Refund:  receipt.Refund,
		Data:    toPolicyDTO(receipt.Policy),
	}, nil
}

func (h Handler) AddProductHandler(
	ctx context.Context,
	req httptransport.CreateProductRequest,
) (httptransport.CreateProductResponse, error) {
	product, err := h.Registry.AddProduct(ctx, req.Alias, req.Price, time.Duration(req.PeriodSeconds)*time.Second)
	if err != nil {
		return httptransport.CreateProductResponse{}, err
	}
	return httptransport.CreateProductResponse{Status: "success", Data: toProductDTO(product)}, nil
}

func (h Handler) ListProductsHandler(ctx context.Context) (httptransport.ProductsResponse, error) {
	products, err := h.Registry.List(ctx)
	if err != nil {
		return httptransport.ProductsResponse{}, err
	}
	resp := httptransport.ProductsResponse{
		Status: "success",
		Data:   make([]httptransport.ProductDTO, 0, len(products)),
	}
	for _, product := range products {
		resp.Data = append(resp.Data, toProductDTO(product))
	}
	return resp, nil
}

func (h Handler) GetPolicyHandler(ctx context.Context, policyID uint64) (httptransport.GetPolicyResponse, error) {
	policy, found, err := h.Policies.GetPolicy(ctx, policyID)
	if err != nil {
		return httptransport.GetPolicyResponse{}, err
	}
	resp := httptransport.GetPolicyResponse{Status: "success", Found: found}
	if found {
		resp.Data = toPolicyDTO(policy)
	}
	return resp, nil
}

func (h Handler) GetPolicyByPairHandler(
	ctx context.Context,
	alias string,
	holder string,
) (httptransport.GetPolicyResponse, error) {
	policy, found, err := h.Policies.GetPolicyByPair(ctx, alias, holder)
	if err != nil {
		return httptransport.GetPolicyResponse{}, err
	}
	resp := httptransport.GetPolicyResponse{Status: "success", Found: found}
	if found {
		resp.Data = toPolicyDTO(policy)
	}
	return resp, nil
}

func (h Handler) ListPoliciesByHolderHandler(ctx context.Context, holder string) (httptransport.PoliciesResponse, error) {
	policies, err := h.Policies.ListPoliciesByHolder(ctx, holder)
	if err != nil {
		return httptransport.PoliciesResponse{}, err
	}
	return toPoliciesResponse(policies), nil
}

func (h Handler) ListPoliciesByProductHandler(ctx context.Context, alias string) (httptransport.PoliciesResponse, error) {
	policies, err := h.Policies.ListPoliciesByProduct(ctx, alias)
	if err != nil {
		return httptransport.PoliciesResponse{}, err
	}
	return toPoliciesResponse(policies), nil
}

func (h Handler) DeclareClaimHandler(
	ctx context.Context,
	policyID uint64,
	caller string,
	req httptransport.DeclareClaimRequest,
) (httptransport.ClaimResponse, error) {
	claim, err := h.Claims.DeclareClaim(ctx, application.DeclareClaimInput{
		PolicyID:    policyID,
		Description: req.Description,
		IncidentRef: req.IncidentRef,
		IncidentAt:  time.Unix(req.IncidentAtUnix, 0).UTC(),
		Amount:      req.Amount,
		EvidenceURI: req.EvidenceURI,
	}, caller)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{Status: "success", Data: toClaimDTO(claim)}, nil
}

func (h Handler) GetClaimHandler(ctx context.Context, claimID uint64) (httptransport.GetClaimResponse, error) {
	claim, found, err := h.Claims.GetClaim(ctx, claimID)
	if err != nil {
		return httptransport.GetClaimResponse{}, err
	}
	resp := httptransport.GetClaimResponse{Status: "success", Found: found}
	if found {
		resp.Data = toClaimDTO(claim)
	}
	return resp, nil
}

func (h Handler) ListClaimsByProductHandler(
	ctx context.Context,
	alias string,
	openOnly bool,
) (httptransport.ClaimsResponse, error) {
	var (
		claims []entities.Claim
		err    error
	)
	if openOnly {
		claims, err = h.Claims.OpenClaimsByProduct(ctx, alias)
	} else {
		claims, err = h.Claims.ClaimsByProduct(ctx, alias)
	}
	if err != nil {
		return httptransport.ClaimsResponse{}, err
	}
	resp := httptransport.ClaimsResponse{
		Status: "success",
		Data:   make([]httptransport.ClaimDTO, 0, len(claims)),
	}
	for _, claim := range claims {
		resp.Data = append(resp.Data, toClaimDTO(claim))
	}
	return resp, nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	claimID uint64,
	voter string,
	req httptransport.VoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Voting.CastVote(ctx, claimID, req.Value, voter)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		Status: "success",
		Data: httptransport.VoteDTO{
			ClaimID: vote.ClaimID,
			Voter:   vote.Voter,
			Value:   vote.Value,
			CastAt:  vote.CastAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

func (h Handler) ListVotesByClaimHandler(ctx context.Context, claimID uint64) (httptransport.VotesResponse, error) {
	votes, err := h.Voting.VotesByClaim(ctx, claimID)
	if err != nil {
		return httptransport.VotesResponse{}, err
	}
	resp := httptransport.VotesResponse{
		Status: "success",
		Data:   make([]httptransport.VoteDTO, 0, len(votes)),
	}
	for _, vote := range votes {
		resp.Data = append(resp.Data, httptransport.VoteDTO{
			ClaimID: vote.ClaimID,
			Voter:   vote.Voter,
			Value:   vote.Value,
			CastAt:  vote.CastAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) SettleClaimHandler(
	ctx context.Context,
	claimID uint64,
	caller string,
) (httptransport.ClaimResponse, error) {
	claim, err := h.Claims.SettleClaim(ctx, claimID, caller)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{Status: "success", Data: toClaimDTO(claim)}, nil
}

func toProductDTO(product entities.Product) httptransport.ProductDTO {
	return httptransport.ProductDTO{
		Alias:               product.Alias,
		Price:               product.Price,
		PeriodLengthSeconds: int64(product.PeriodLength / time.Second),
		Pooled:              product.Pooled,
		Reserved:            product.Reserved,
		Credited:            product.Credited,
		PaidOut:             product.PaidOut,
	}
}

func toPolicyDTO(policy entities.Policy) httptransport.PolicyDTO {
	return httptransport.PolicyDTO{
		PolicyID:      policy.PolicyID,
		Product:       policy.ProductAlias,
		Holder:        policy.Holder,
		CoverageStart: policy.CoverageStart.UTC().Format(time.RFC3339),
		CoverageEnd:   policy.CoverageEnd.UTC().Format(time.RFC3339),
	}
}

func toPoliciesResponse(policies []entities.Policy) httptransport.PoliciesResponse {
	resp := httptransport.PoliciesResponse{
		Status: "success",
		Data:   make([]httptransport.PolicyDTO, 0, len(policies)),
	}
	for _, policy := range policies {
		resp.Data = append(resp.Data, toPolicyDTO(policy))
	}
	return resp
}

func toClaimDTO(claim entities.Claim) httptransport.ClaimDTO {
	dto := httptransport.ClaimDTO{
		ClaimID:        claim.ClaimID,
		PolicyID:       claim.PolicyID,
		Product:        claim.ProductAlias,
		Holder:         claim.Holder,
		Description:    claim.Description,
		IncidentRef:    claim.IncidentRef,
		Amount:         claim.Amount,
		EvidenceURI:    claim.EvidenceURI,
		DeclaredAt:     claim.DeclaredAt.UTC().Format(time.RFC3339),
		VotingDeadline: claim.VotingDeadline.UTC().Format(time.RFC3339),
		Tally:          claim.Tally,
		Settled:        claim.Settled,
		Approved:       claim.Approved,
	}
	if !claim.IncidentAt.IsZero() {
		dto.IncidentAt = claim.IncidentAt.UTC().Format(time.RFC3339)
	}
	if claim.SettledAt != nil {
		dto.SettledAt = claim.SettledAt.UTC().Format(time.RFC3339)
	}
	return dto
}
