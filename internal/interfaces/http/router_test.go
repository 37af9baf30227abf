package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	allocationUsecases "github.com/RobertLogos32/bto-prova/internal/application/allocation/usecases"
	lifecycleUsecases "github.com/RobertLogos32/bto-prova/internal/application/lifecycle/usecases"
	"github.com/RobertLogos32/bto-prova/internal/application/testutil"
	"github.com/RobertLogos32/bto-prova/internal/domain/numberrequest"
	vo "github.com/RobertLogos32/bto-prova/internal/domain/shared/valueobjects"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/http/handlers"
	"github.com/RobertLogos32/bto-prova/internal/interfaces/http/middleware"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

const (
	testToken    = "admin-token"
	testOperator = "900"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, withAdmin bool, dbErr error) (*Router, *testutil.MockClientRepository) {
	t.Helper()
	log := logger.NewNopLogger()
	clients := testutil.NewMockClientRepository()
	requests := testutil.NewMockNumberRequestRepository()
	allocations := testutil.NewMockAllocationRepository(requests, clients, testutil.NewMockDeliveredCodeRepository())
	provider := &testutil.MockProvider{}
	roster := lifecycleUsecases.NewOperatorRoster([]int64{900})
	catalog := numberrequest.DefaultCatalog()

	deps := RouterDeps{
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error { return dbErr },
		}, log),
		Logger: log,
	}
	if withAdmin {
		decideRequest := lifecycleUsecases.NewDecideRequestUseCase(requests, clients, roster, log)
		allocate := allocationUsecases.NewAllocateUseCase(requests, allocations, provider, catalog, 86, log)
		deps.Admin = handlers.NewAdminHandler(handlers.AdminUseCases{
			ListPending:        lifecycleUsecases.NewListPendingUseCase(clients, requests, roster, log),
			DecideClient:       lifecycleUsecases.NewDecideClientUseCase(clients, roster, log),
			ClientOverview:     lifecycleUsecases.NewClientOverviewUseCase(clients, allocations, log),
			DenyRequest:        decideRequest,
			ApproveAndAllocate: allocationUsecases.NewApproveAndAllocateUseCase(decideRequest, allocate, log),
			RetryAllocation:    allocationUsecases.NewRetryAllocationUseCase(allocate, requests, clients, roster, log),
			ListUnallocated:    allocationUsecases.NewListUnallocatedUseCase(requests, clients, roster, log),
			GetBalance:         allocationUsecases.NewGetBalanceUseCase(provider, roster, log),
		}, nil, log)
		deps.AdminAuth = middleware.NewAdminAuthMiddleware(testToken, roster, log)
		deps.AllowedOrigins = []string{"https://ops.example"}
	}

	r := NewRouter(deps)
	r.SetupRoutes()
	return r, clients
}

func serve(r *Router, method, path, body string, admin bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if admin {
		req.Header.Set(middleware.AdminTokenHeader, testToken)
		req.Header.Set(middleware.OperatorIDHeader, testOperator)
	}
	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, false, nil)
	w := serve(r, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","components":{"database":"up"}}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	r, _ = newTestRouter(t, false, errors.New("dial tcp: refused"))
	w = serve(r, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t, false, nil)
	w := serve(r, http.MethodGet, "/metrics", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_AdminDisabled(t *testing.T) {
	r, _ := newTestRouter(t, false, nil)
	w := serve(r, http.MethodGet, "/api/admin/clients/pending", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AdminRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)
	w := serve(r, http.MethodGet, "/api/admin/clients/pending", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AdminClientFlow(t *testing.T) {
	r, clients := newTestRouter(t, true, nil)
	clients.Add(42, "mario", vo.DecisionPending)

	w := serve(r, http.MethodGet, "/api/admin/clients/pending", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"platform_id":42`)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = serve(r, http.MethodPost, "/api/admin/clients/42/decision", `{"decision":"approve"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	w = serve(r, http.MethodGet, "/api/admin/clients/42", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"allocations"`)

	w = serve(r, http.MethodGet, "/api/admin/requests/unallocated", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminCORS(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/clients/pending", nil)
	req.Header.Set("Origin", "https://ops.example")
	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ops.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.AdminTokenHeader)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/clients/pending", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set(middleware.AdminTokenHeader, testToken)
	req.Header.Set(middleware.OperatorIDHeader, testOperator)
	w = httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
