package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mutualledger "mutua/contexts/insurance-core/mutual-ledger"
	ledgerhttp "mutua/contexts/insurance-core/mutual-ledger/transport/http"
	"mutua/internal/platform/clock"
	"mutua/internal/platform/metrics"
)

var serverStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *clock.Manual, mutualledger.Module) {
	t.Helper()
	manual := clock.NewManual(serverStart)
	module := mutualledger.NewInMemoryModule(manual, nil)
	if _, err := module.Registry.AddProduct(context.Background(), "autos", 2, 100*time.Second); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	server := New(module, metrics.New(), manual, "owner-1", nil, ":0")
	return server, manual, module
}

func doJSON(t *testing.T, server *Server, method, path, holder, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if holder != "" {
		req.Header.Set("X-Holder-Id", holder)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPremiumEndpointCreatesPolicy(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/insurance/products/autos/premium", "holder-a", `{"amount":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("premium status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp ledgerhttp.PremiumResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode premium response: %v", err)
	}
	if !resp.Renewed || resp.Periods != 1 || resp.Refund != 1 {
		t.Fatalf("unexpected premium response: %+v", resp)
	}
	if resp.Data.Holder != "holder-a" || resp.Data.Product != "autos" {
		t.Fatalf("unexpected policy payload: %+v", resp.Data)
	}

	rec = doJSON(t, server, http.MethodGet, "/v1/insurance/holders/holder-a/policies", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("holder policies status: %d", rec.Code)
	}
	var listed ledgerhttp.PoliciesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode policies: %v", err)
	}
	if len(listed.Data) != 1 || listed.Data[0].PolicyID != resp.Data.PolicyID {
		t.Fatalf("holder listing mismatch: %+v", listed.Data)
	}
}

func TestPremiumEndpointRequiresHolderHeader(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doJSON(t, server, http.MethodPost, "/v1/insurance/products/autos/premium", "", `{"amount":3}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-Holder-Id, got %d", rec.Code)
	}
}

func TestDomainErrorsMapToStatusCodes(t *testing.T) {
	server, _, _ := newTestServer(t)

	// Below one period maps onto 422.
	rec := doJSON(t, server, http.MethodPost, "/v1/insurance/products/autos/premium", "holder-a", `{"amount":1}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("insufficient premium: got %d, want 422", rec.Code)
	}
	var errResp ledgerhttp.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != "insufficient_premium" {
		t.Fatalf("error code: got %q", errResp.Code)
	}

	// Unknown product maps onto 404.
	rec = doJSON(t, server, http.MethodPost, "/v1/insurance/products/ghost/premium", "holder-a", `{"amount":3}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product: got %d, want 404", rec.Code)
	}

	// Declaring on someone else's policy maps onto 403.
	if rec = doJSON(t, server, http.MethodPost, "/v1/insurance/products/autos/premium", "holder-a", `{"amount":8}`); rec.Code != http.StatusOK {
		t.Fatalf("seed premium failed: %d", rec.Code)
	}
	rec = doJSON(t, server, http.MethodPost, "/v1/insurance/policies/1/claims", "holder-b",
		`{"description":"not mine","amount":1}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign declare: got %d, want 403", rec.Code)
	}
}

func TestClaimLifecycleOverHTTP(t *testing.T) {
	server, manual, _ := newTestServer(t)

	if rec := doJSON(t, server, http.MethodPost, "/v1/insurance/products/autos/premium", "holder-a", `{"amount":8}`); rec.Code != http.StatusOK {
		t.Fatalf("premium failed: %d", rec.Code)
	}

	rec := doJSON(t, server, http.MethodPost, "/v1/insurance/policies/1/claims", "holder-a",
		`{"description":"engine fire","amount":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("declare status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var declared ledgerhttp.ClaimResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &declared); err != nil {
		t.Fatalf("decode claim: %v", err)
	}

	// Settling during the voting window is rejected.
	path := "/v1/insurance/claims/1/settle"
	if rec = doJSON(t, server, http.MethodPost, path, "holder-a", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("early settle: got %d, want 422", rec.Code)
	}

	manual.Advance(7*24*time.Hour + time.Second)
	rec = doJSON(t, server, http.MethodPost, path, "holder-a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("settle status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var settled ledgerhttp.ClaimResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &settled); err != nil {
		t.Fatalf("decode settled claim: %v", err)
	}
	if !settled.Data.Settled || !settled.Data.Approved {
		t.Fatalf("expected default approval, got %+v", settled.Data)
	}

	rec = doJSON(t, server, http.MethodGet, "/v1/insurance/products/autos", "", "")
	var product ledgerhttp.GetProductResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &product); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if product.Data.PaidOut != 5 || product.Data.Reserved != 0 {
		t.Fatalf("product after payout: %+v", product.Data)
	}
}

func TestAdminClockIsOwnerGated(t *testing.T) {
	server, manual, _ := newTestServer(t)
	body := `{"now_unix":1714780800}`

	rec := doJSON(t, server, http.MethodPost, "/v1/insurance/admin/clock", "holder-a", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner clock set: got %d, want 403", rec.Code)
	}

	rec = doJSON(t, server, http.MethodPost, "/v1/insurance/admin/clock", "owner-1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner clock set: got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := manual.Now().Unix(); got != 1714780800 {
		t.Fatalf("clock not applied: now_unix=%d", got)
	}
}

func TestAdminClockDisabledOnSystemClock(t *testing.T) {
	module := mutualledger.NewInMemoryModule(clock.System{}, nil)
	server := New(module, metrics.New(), nil, "owner-1", nil, ":0")

	rec := doJSON(t, server, http.MethodPost, "/v1/insurance/admin/clock", "owner-1", `{"now_unix":1714780800}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("system-clock process must not expose the clock endpoint, got %d", rec.Code)
	}
}

func TestMetricsEndpointCountsOperations(t *testing.T) {
	server, _, _ := newTestServer(t)
	if rec := doJSON(t, server, http.MethodPost, "/v1/insurance/products/autos/premium", "holder-a", `{"amount":3}`); rec.Code != http.StatusOK {
		t.Fatalf("premium failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mutua_premiums_received_total 1") {
		t.Fatalf("premium counter missing from metrics output:\n%s", rec.Body.String())
	}
}
