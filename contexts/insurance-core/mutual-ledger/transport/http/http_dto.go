package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProductDTO struct {
	Alias               string `json:"alias"`
	Price               int64  `json:"price"`
	PeriodLengthSeconds int64  `json:"period_length_seconds"`
	Pooled              int64  `json:"pooled"`
	Reserved            int64  `json:"reserved"`
	Credited            int64  `json:"credited"`
	PaidOut             int64  `json:"paid_out"`
}

type CreateProductRequest struct {
	Alias         string `json:"alias"`
	Price         int64  `json:"price"`
	PeriodSeconds int64  `json:"period_seconds"`
}

type CreateProductResponse struct {
	Status string     `json:"status"`
	Data   ProductDTO `json:"data"`
}

type GetProductResponse struct {
	Status string     `json:"status"`
	Found  bool       `json:"found"`
	Data   ProductDTO `json:"data,omitempty"`
}

type ProductsResponse struct {
	Status string       `json:"status"`
	Data   []ProductDTO `json:"data"`
}

type PolicyDTO struct {
	PolicyID      uint64 `json:"policy_id"`
	Product       string `json:"product"`
	Holder        string `json:"holder"`
	CoverageStart string `json:"coverage_start"`
	CoverageEnd   string `json:"coverage_end"`
}

type GetPolicyResponse struct {
	Status string    `json:"status"`
	Found  bool      `json:"found"`
	Data   PolicyDTO `json:"data,omitempty"`
}

type PoliciesResponse struct {
	Status string      `json:"status"`
	Data   []PolicyDTO `json:"data"`
}

type PremiumRequest struct {
	Amount int64 `json:"amount"`
}

type PremiumResponse struct {
	Status  string    `json:"status"`
	Renewed bool      `json:"renewed"`
	Periods int64     `json:"periods"`
	Refund  int64     `json:"refund"`
	Data    PolicyDTO `json:"data"`
}

type DeclareClaimRequest struct {
	Description    string `json:"description"`
	IncidentRef    string `json:"incident_ref"`
	IncidentAtUnix int64  `json:"incident_at_unix"`
	Amount         int64  `json:"amount"`
	EvidenceURI    string `json:"evidence_uri"`
}

type ClaimDTO struct {
	ClaimID        uint64 `json:"claim_id"`
	PolicyID       uint64 `json:"policy_id"`
	Product        string `json:"product"`
	Holder         string `json:"holder"`
	Description    string `json:"description"`
	IncidentRef    string `json:"incident_ref,omitempty"`
	IncidentAt     string `json:"incident_at,omitempty"`
	Amount         int64  `json:"amount"`
	EvidenceURI    string `json:"evidence_uri,omitempty"`
	DeclaredAt     string `json:"declared_at"`
	VotingDeadline string `json:"voting_deadline"`
	Tally          int64  `json:"tally"`
	Settled        bool   `json:"settled"`
	Approved       bool   `json:"approved"`
	SettledAt      string `json:"settled_at,omitempty"`
}

type GetClaimResponse struct {
	Status string   `json:"status"`
	Found  bool     `json:"found"`
	Data   ClaimDTO `json:"data,omitempty"`
}

type ClaimResponse struct {
	Status string   `json:"status"`
	Data   ClaimDTO `json:"data"`
}

type ClaimsResponse struct {
	Status string     `json:"status"`
	Data   []ClaimDTO `json:"data"`
}

type VoteRequest struct {
	Value int `json:"value"`
}

type VoteDTO struct {
	ClaimID uint64 `json:"claim_id"`
	Voter   string `json:"voter"`
	Value   int    `json:"value"`
	CastAt  string `json:"cast_at"`
}

type VoteResponse struct {
	Status string  `json:"status"`
	Data   VoteDTO `json:"data"`
}

type VotesResponse struct {
	Status string    `json:"status"`
	Data   []VoteDTO `json:"data"`
}

type SetClockRequest struct {
	NowUnix int64 `json:"now_unix"`
}

type SetClockResponse struct {
	Status string `json:"status"`
	Now    string `json:"now"`
}
