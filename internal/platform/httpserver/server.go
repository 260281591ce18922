package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	mutualledger "mutua/contexts/insurance-core/mutual-ledger"
	ledgererrors "mutua/contexts/insurance-core/mutual-ledger/domain/errors"
	ledgerhttp "mutua/contexts/insurance-core/mutual-ledger/transport/http"
	"mutua/internal/platform/clock"
	"mutua/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "mutua/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
	ledger     mutualledger.Module
	metrics    *metrics.Metrics

	// manualClock is non-nil only when the process runs with CLOCK_MODE=manual;
	// the admin clock endpoint returns 404 otherwise.
	manualClock *clock.Manual
	ownerID     string
}

func New(
	ledger mutualledger.Module,
	m *metrics.Metrics,
	manualClock *clock.Manual,
	ownerID string,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		ledger:      ledger,
		metrics:     m,
		manualClock: manualClock,
		ownerID:     ownerID,
	}
	s.registerRoutes()
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.HandleFunc("GET /v1/insurance/products", s.handleListProducts)
	s.mux.HandleFunc("GET /v1/insurance/products/{alias}", s.handleGetProduct)
	s.mux.HandleFunc("POST /v1/insurance/products/{alias}/premium", s.handleReceivePremium)
	s.mux.HandleFunc("GET /v1/insurance/products/{alias}/policies", s.handleListPoliciesByProduct)
	s.mux.HandleFunc("GET /v1/insurance/products/{alias}/policies/{holder}", s.handleGetPolicyByPair)
	s.mux.HandleFunc("GET /v1/insurance/products/{alias}/claims", s.handleListClaimsByProduct)

	s.mux.HandleFunc("GET /v1/insurance/holders/{holder}/policies", s.handleListPoliciesByHolder)
	s.mux.HandleFunc("GET /v1/insurance/policies/{policy_id}", s.handleGetPolicy)
	s.mux.HandleFunc("POST /v1/insurance/policies/{policy_id}/claims", s.handleDeclareClaim)

	s.mux.HandleFunc("GET /v1/insurance/claims/{claim_id}", s.handleGetClaim)
	s.mux.HandleFunc("POST /v1/insurance/claims/{claim_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/insurance/claims/{claim_id}/votes", s.handleListVotes)
	s.mux.HandleFunc("POST /v1/insurance/claims/{claim_id}/settle", s.handleSettleClaim)

	s.mux.HandleFunc("POST /v1/insurance/admin/products", s.handleAddProduct)
	s.mux.HandleFunc("POST /v1/insurance/admin/clock", s.handleSetClock)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListProductsHandler(r.Context())
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetProductHandler(r.Context(), r.PathValue("alias"))
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReceivePremium(w http.ResponseWriter, r *http.Request) {
	holder := resolveHolderID(r)
	if holder == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_holder", "X-Holder-Id header is required")
		return
	}

	var req ledgerhttp.PremiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.ReceivePremiumHandler(r.Context(), r.PathValue("alias"), holder, req)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	s.metrics.PremiumsReceived.Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPoliciesByProduct(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListPoliciesByProductHandler(r.Context(), r.PathValue("alias"))
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPolicyByPair(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetPolicyByPairHandler(r.Context(), r.PathValue("alias"), r.PathValue("holder"))
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListClaimsByProduct(w http.ResponseWriter, r *http.Request) {
	openOnly := strings.EqualFold(r.URL.Query().Get("open"), "true")
	resp, err := s.ledger.Handler.ListClaimsByProductHandler(r.Context(), r.PathValue("alias"), openOnly)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPoliciesByHolder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListPoliciesByHolderHandler(r.Context(), r.PathValue("holder"))
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policyID, ok := parseID(w, r.PathValue("policy_id"), "policy_id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetPolicyHandler(r.Context(), policyID)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeclareClaim(w http.ResponseWriter, r *http.Request) {
	holder := resolveHolderID(r)
	if holder == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_holder", "X-Holder-Id header is required")
		return
	}
	policyID, ok := parseID(w, r.PathValue("policy_id"), "policy_id")
	if !ok {
		return
	}

	var req ledgerhttp.DeclareClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.DeclareClaimHandler(r.Context(), policyID, holder, req)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	s.metrics.ClaimsDeclared.Inc()
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claimID, ok := parseID(w, r.PathValue("claim_id"), "claim_id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetClaimHandler(r.Context(), claimID)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voter := resolveHolderID(r)
	if voter == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_holder", "X-Holder-Id header is required")
		return
	}
	claimID, ok := parseID(w, r.PathValue("claim_id"), "claim_id")
	if !ok {
		return
	}

	var req ledgerhttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), claimID, voter, req)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	s.metrics.VotesCast.Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	claimID, ok := parseID(w, r.PathValue("claim_id"), "claim_id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.ListVotesByClaimHandler(r.Context(), claimID)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettleClaim(w http.ResponseWriter, r *http.Request) {
	caller := resolveHolderID(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_holder", "X-Holder-Id header is required")
		return
	}
	claimID, ok := parseID(w, r.PathValue("claim_id"), "claim_id")
	if !ok {
		return
	}

	resp, err := s.ledger.Handler.SettleClaimHandler(r.Context(), claimID, caller)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	s.metrics.ClaimsSettled.Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeOwner(w, r) {
		return
	}

	var req ledgerhttp.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.AddProductHandler(r.Context(), req)
	if err != nil {
		s.writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSetClock(w http.ResponseWriter, r *http.Request) {
	if s.manualClock == nil {
		writeLedgerError(w, http.StatusNotFound, "manual_clock_disabled", "process is running on the system clock")
		return
	}
	if !s.authorizeOwner(w, r) {
		return
	}

	var req ledgerhttp.SetClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if req.NowUnix <= 0 {
		writeLedgerError(w, http.StatusBadRequest, "invalid_clock", "now_unix must be a positive unix timestamp")
		return
	}

	now := time.Unix(req.NowUnix, 0).UTC()
	s.manualClock.Set(now)
	s.logger.Info("manual clock set",
		"event", "http_manual_clock_set",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"now", now.Format(time.RFC3339),
	)
	writeJSON(w, http.StatusOK, ledgerhttp.SetClockResponse{
		Status: "success",
		Now:    now.Format(time.RFC3339),
	})
}

func (s *Server) authorizeOwner(w http.ResponseWriter, r *http.Request) bool {
	caller := resolveHolderID(r)
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_holder", "X-Holder-Id header is required")
		return false
	}
	if s.ownerID == "" || caller != s.ownerID {
		writeLedgerError(w, http.StatusForbidden, "owner_required", "caller is not the configured owner")
		return false
	}
	return true
}

func (s *Server) writeLedgerDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledgererrors.ErrTransferFailed) {
		s.metrics.TransfersFailed.Inc()
	}

	switch {
	case errors.Is(err, ledgererrors.ErrProductNotFound):
		writeLedgerError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrPolicyNotFound):
		writeLedgerError(w, http.StatusNotFound, "policy_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrClaimNotFound):
		writeLedgerError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrNotPolicyOwner):
		writeLedgerError(w, http.StatusForbidden, "not_policy_owner", err.Error())
	case errors.Is(err, ledgererrors.ErrSelfVoteForbidden):
		writeLedgerError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, ledgererrors.ErrProductExists):
		writeLedgerError(w, http.StatusConflict, "product_exists", err.Error())
	case errors.Is(err, ledgererrors.ErrActiveClaimExists):
		writeLedgerError(w, http.StatusConflict, "active_claim_exists", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateVote):
		writeLedgerError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, ledgererrors.ErrAlreadySettled):
		writeLedgerError(w, http.StatusConflict, "already_settled", err.Error())
	case errors.Is(err, ledgererrors.ErrReentrancyBlocked):
		writeLedgerError(w, http.StatusConflict, "operation_in_progress", err.Error())
	case errors.Is(err, ledgererrors.ErrOutOfCoverageWindow):
		writeLedgerError(w, http.StatusUnprocessableEntity, "out_of_coverage_window", err.Error())
	case errors.Is(err, ledgererrors.ErrVotingStillOpen):
		writeLedgerError(w, http.StatusUnprocessableEntity, "voting_still_open", err.Error())
	case errors.Is(err, ledgererrors.ErrVotingClosed):
		writeLedgerError(w, http.StatusUnprocessableEntity, "voting_closed", err.Error())
	case errors.Is(err, ledgererrors.ErrPolicyExpired):
		writeLedgerError(w, http.StatusUnprocessableEntity, "policy_expired", err.Error())
	case errors.Is(err, ledgererrors.ErrNoQualifyingPolicy):
		writeLedgerError(w, http.StatusUnprocessableEntity, "no_qualifying_policy", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientPremium):
		writeLedgerError(w, http.StatusUnprocessableEntity, "insufficient_premium", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientFunds):
		writeLedgerError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidVote):
		writeLedgerError(w, http.StatusBadRequest, "invalid_vote", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidAmount):
		writeLedgerError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, ledgererrors.ErrTransferFailed):
		writeLedgerError(w, http.StatusBadGateway, "transfer_failed", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseID(w http.ResponseWriter, raw, field string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeLedgerError(w, http.StatusBadRequest, "invalid_"+field, field+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func resolveHolderID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Holder-Id"))
}
