package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/earnlift/ledger/internal/ledger/auth"
	"github.com/earnlift/ledger/internal/ledger/controller"
	"github.com/earnlift/ledger/internal/ledger/db"
	"github.com/earnlift/ledger/internal/ledger/events"
	"github.com/earnlift/ledger/internal/ledger/payout"
	"github.com/earnlift/ledger/internal/ledger/receipts"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

type nopProducer struct{}

func (nopProducer) Produce(events.EventType, *events.Notification) {}

type nopGateway struct{}

func (nopGateway) Pay(context.Context, payout.Request) error { return nil }

// setupRouter wires the full HTTP stack over an in-memory database with
// "root" bootstrapped as admin.
func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	repo, err := db.NewSQLiteRepository(":memory:")
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	access := auth.NewService(repo, logger)
	require.NoError(t, access.Bootstrap(context.Background(), "root"))

	service := controller.NewService(repo, nopProducer{}, access, nopGateway{}, receipts.NewLedger(), logger)
	handler := NewLedgerHandler(service, access, logger)

	engine := gin.New()
	registerRoutes(engine, testSecret, handler)
	return engine
}

func doRequest(t *testing.T, router *gin.Engine, caller, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != "" {
		token, err := auth.GenerateToken(caller, testSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRequireToken(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "", http.MethodGet, "/v1/pool", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterCompanyEndpoint(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "root", http.MethodPost, "/v1/companies",
		gin.H{"id": "acme", "name": "Acme Corp"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, "root", http.MethodGet, "/v1/companies/acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var company struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &company))
	assert.Equal(t, "acme", company.ID)
	assert.Equal(t, "Acme Corp", company.Name)
}

func TestRegisterCompanyForbiddenForNonAdmin(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "mallory", http.MethodPost, "/v1/companies",
		gin.H{"id": "acme", "name": "Acme"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterCompanyBadPayload(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "root", http.MethodPost, "/v1/companies", gin.H{"name": "no id"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCompanyNotFound(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "root", http.MethodGet, "/v1/companies/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithdrawSalaryEndpoint(t *testing.T) {
	router := setupRouter(t)

	for _, step := range []struct {
		path string
		body gin.H
	}{
		{"/v1/companies", gin.H{"id": "acme", "name": "Acme"}},
		{"/v1/employees", gin.H{"id": "alice", "company_id": "acme", "name": "Alice", "monthly_salary": 3000}},
		{"/v1/employees/alice/days-worked", gin.H{"days": 15}},
		{"/v1/companies/acme/liquidity", gin.H{"amount": 100000}},
		{"/v1/fees", gin.H{"fee_bps": 100, "platform_share": 8000, "company_share": 2000}},
	} {
		rec := doRequest(t, router, "root", http.MethodPost, step.path, step.body)
		require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rec.Code, step.path)
	}

	rec := doRequest(t, router, "root", http.MethodGet, "/v1/employees/alice/eligible", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eligible": 900}`, rec.Body.String())

	rec = doRequest(t, router, "alice", http.MethodPost, "/v1/employees/alice/withdraw",
		gin.H{"external_ref": "tx-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eligible": 900, "fee": 9, "net": 891}`, rec.Body.String())

	// Withdrawn advances by the net amount, so the fee leaves a residual
	// 9 units of eligibility; drawing it exhausts the cap.
	rec = doRequest(t, router, "alice", http.MethodPost, "/v1/employees/alice/withdraw", gin.H{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"eligible": 9, "fee": 0, "net": 9}`, rec.Body.String())

	rec = doRequest(t, router, "alice", http.MethodPost, "/v1/employees/alice/withdraw", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRewardWithdrawBalanceErrors(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "root", http.MethodPost, "/v1/companies",
		gin.H{"id": "acme", "name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, "acme", http.MethodPost, "/v1/companies/acme/rewards/withdraw", gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, router, "root", http.MethodPost, "/v1/platform/withdraw",
		gin.H{"to": "treasury"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInvestorEndpoints(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "ivy", http.MethodPost, "/v1/investors/ivy/deposits",
		gin.H{"amount": 500})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "ivy", http.MethodGet, "/v1/investors/ivy/rewards/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pending": 0}`, rec.Body.String())

	rec = doRequest(t, router, "ivy", http.MethodPost, "/v1/investors/ivy/withdrawals",
		gin.H{"amount": 600})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, router, "ivy", http.MethodPost, "/v1/investors/ivy/withdrawals",
		gin.H{"amount": 200})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, "root", http.MethodPost, "/v1/admins", gin.H{"identity": "ops"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The new admin can now register companies.
	rec = doRequest(t, router, "ops", http.MethodPost, "/v1/companies",
		gin.H{"id": "acme", "name": "Acme"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, "root", http.MethodDelete, "/v1/admins/ops", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, "ops", http.MethodPost, "/v1/companies",
		gin.H{"id": "other", "name": "Other"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
