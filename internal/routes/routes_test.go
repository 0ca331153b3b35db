package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crewpay/internal/handlers"
	"crewpay/internal/middleware"
	"crewpay/internal/models"
	"crewpay/internal/repositories/cache"
	"crewpay/internal/repositories/memory"
	"crewpay/internal/services/audit"
	"crewpay/internal/services/dispute"
	"crewpay/internal/services/payment"
	"crewpay/internal/services/payout"
	"crewpay/internal/services/pmrequest"
	"crewpay/internal/services/refund"
	"crewpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "routes-secret"

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (cache.RateDecision, error) {
	return cache.RateDecision{Allowed: false, Count: 99, ResetIn: time.Second}, nil
}
func (denyAll) Limit() int64 { return 1 }

func newApp(t *testing.T, limiter middleware.Limiter) (*fiber.App, *models.Job) {
	t.Helper()
	store := memory.NewStore()
	ref := "pi_routes"
	job := &models.Job{
		PosterID: 10, ContractorID: 20,
		Status:        models.JobStatusInProgress,
		PayoutStatus:  models.PayoutStatusPending,
		PaymentStatus: models.PaymentStatusEscrowed,
		EscrowStatus:  models.EscrowStatusHeld,
		AmountCents:   30000,
		Currency:      "USD",
		PaymentRef:    &ref,
	}
	require.NoError(t, store.Jobs().Create(context.Background(), job))

	processor := payment.NewSandboxProcessor()
	fees := models.FeeSchedule{PlatformFeeBps: 1000}
	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Auth:        middleware.NewAuthMiddleware(secret),
		RateLimiter: limiter,
		PMRequests:  handlers.NewPMRequestHandler(pmrequest.NewService(store, processor, nil)),
		Disputes:    handlers.NewDisputeHandler(dispute.NewService(store, nil)),
		Jobs: handlers.NewJobHandler(
			refund.NewService(store, processor, nil),
			payout.NewService(store, processor, fees, nil),
		),
		Audit: handlers.NewAuditHandler(audit.NewAuditor(store, fees, nil)),
	})
	return app, job
}

func tokenFor(t *testing.T, userID uint, role string) string {
	t.Helper()
	s, err := utils.IssueToken(secret, models.UserClaims{
		UserID:      userID,
		Role:        role,
		Permissions: models.GetDefaultPermissions(role),
	}, time.Hour)
	require.NoError(t, err)
	return s
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestPMRequestRoutes(t *testing.T) {
	app, job := newApp(t, nil)
	contractor := tokenFor(t, 20, models.RoleContractor)
	poster := tokenFor(t, 10, models.RolePoster)
	stranger := tokenFor(t, 99, models.RoleContractor)

	status, _ := call(t, app, http.MethodPost, "/api/pm-requests", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := call(t, app, http.MethodPost, "/api/pm-requests", contractor, pmrequest.CreateInput{
		JobID: job.ID, Currency: "usd",
		LineItems: []pmrequest.LineItemInput{{Description: "lumber", Quantity: 2, UnitPriceCents: 2500}},
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	id := uint(body["data"].(map[string]interface{})["id"].(float64))
	base := fmt.Sprintf("/api/pm-requests/%d", id)

	status, body = call(t, app, http.MethodPost, base+"/approve", poster, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "DRAFT", body["from"])

	status, _ = call(t, app, http.MethodPost, base+"/submit", contractor, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, base, stranger, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/pm-requests/abc", poster, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodGet, "/api/pm-requests/4040", poster, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestJobRoutes(t *testing.T) {
	app, job := newApp(t, nil)
	poster := tokenFor(t, 10, models.RolePoster)
	admin := tokenFor(t, 1, models.RoleAdmin)
	path := fmt.Sprintf("/api/jobs/%d", job.ID)

	status, _ := call(t, app, http.MethodPost, path+"/refund", poster, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := call(t, app, http.MethodPost, path+"/payout", poster, nil)
	require.Equal(t, fiber.StatusOK, status, body)

	status, body = call(t, app, http.MethodPost, path+"/refund", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "already_released", body["kind"])
}

func TestAuditRoute(t *testing.T) {
	app, _ := newApp(t, nil)

	status, _ := call(t, app, http.MethodGet, "/api/admin/audit/payout-integrity", tokenFor(t, 10, models.RolePoster), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := call(t, app, http.MethodGet, "/api/admin/audit/payout-integrity?take=5", tokenFor(t, 1, models.RoleAdmin), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "summary")
}

func TestMoneyMovingRoutesAreRateLimited(t *testing.T) {
	app, job := newApp(t, denyAll{})
	poster := tokenFor(t, 10, models.RolePoster)

	status, _ := call(t, app, http.MethodPost, fmt.Sprintf("/api/jobs/%d/payout", job.ID), poster, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	// reads are not limited
	status, _ = call(t, app, http.MethodGet, "/api/pm-requests/4040", poster, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
