package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillarena/models"
	"skillarena/service"
)

const testGatewayToken = "gw-token"

type testEnv struct {
	app     *fiber.App
	uow     *service.MockUnitOfWork
	gateway *service.MockPaymentGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	uow := service.NewMockUnitOfWork()
	factory := new(service.MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback").Return(nil)
	uow.On("Commit").Return(nil).Maybe()

	gw := new(service.MockPaymentGateway)

	h := NewHandler(Services{
		Accounts:     service.NewAccountService(factory),
		Wallet:       service.NewWalletService(factory),
		Payments:     service.NewPaymentService(factory, gw),
		Verification: service.NewVerificationService(factory, nil),
		Matches:      service.NewMatchService(factory, 10),
		Support:      service.NewSupportService(factory),
		Admin:        service.NewAdminService(factory),
		Games:        service.NewGameService(factory),
	})

	app := NewApp(h, AppConfig{GatewayToken: testGatewayToken, AllowedOrigins: []string{"*"}})
	return &testEnv{app: app, uow: uow, gateway: gw}
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	caller      string
	noAuth      bool
	headers     map[string]string
}

func (e *testEnv) do(t *testing.T, r request) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(r.method, r.path, bytes.NewReader(r.body))
	if r.body != nil {
		ct := r.contentType
		if ct == "" {
			ct = fiber.MIMEApplicationJSON
		}
		req.Header.Set(fiber.HeaderContentType, ct)
	}
	if !r.noAuth {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+testGatewayToken)
	}
	if r.caller != "" {
		req.Header.Set("X-User-ID", r.caller)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func account(id models.AccountID, level models.VerificationLevel, balance int64) *models.Account {
	return &models.Account{
		ID:                id,
		Email:             "user@example.com",
		Username:          "user" + id.String(),
		Role:              models.RoleUser,
		VerificationLevel: level,
		WalletBalance:     balance,
	}
}

func TestGatewayTokenRequired(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, request{method: "GET", path: "/games", noAuth: true})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.NotEmpty(t, body["error"])
}

func TestCallerRequired(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, request{method: "GET", path: "/wallet"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGetWallet(t *testing.T) {
	env := newTestEnv(t)
	env.uow.Accounts.On("GetByID", mock.Anything, models.AccountID(5)).
		Return(account(5, models.VerificationLevelPlayer, 750), nil)
	env.uow.Transactions.On("List", mock.Anything, mock.Anything).
		Return([]*models.Transaction{}, nil)

	status, body := env.do(t, request{method: "GET", path: "/wallet", caller: "5"})

	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 750, body["balance"])
}

func TestValidationErrorsAre400(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  request
	}{
		{"withdrawal without destination", request{method: "POST", path: "/wallet/withdrawals", caller: "5", body: jsonBody(t, map[string]any{"amount": 100})}},
		{"malformed body", request{method: "POST", path: "/wallet/deposits", caller: "5", body: []byte("{not json")}},
		{"bad match id", request{method: "POST", path: "/matches/abc/join", caller: "5"}},
		{"bad date of birth", request{method: "POST", path: "/verification/player", caller: "5", body: jsonBody(t, map[string]any{"fullName": "A B", "dateOfBirth": "01/02/2000"})}},
		{"guest ticket with bad email", request{method: "POST", path: "/support/tickets", body: jsonBody(t, map[string]any{"email": "nope", "subject": "s", "message": "m"})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.req)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAdminRoutesForbidNonAdmins(t *testing.T) {
	env := newTestEnv(t)
	env.uow.Accounts.On("GetByID", mock.Anything, models.AccountID(5)).
		Return(account(5, models.VerificationLevelPlayer, 0), nil)

	status, body := env.do(t, request{method: "GET", path: "/admin/dashboard", caller: "5"})

	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "admin access required", body["error"])
}

func TestNotFoundAndConflict(t *testing.T) {
	env := newTestEnv(t)
	env.uow.Accounts.On("GetByID", mock.Anything, models.AccountID(5)).
		Return(account(5, models.VerificationLevelPlayer, 500), nil)
	env.uow.Matches.On("GetByIDForUpdate", mock.Anything, models.MatchID(99)).
		Return(nil, nil)
	env.uow.Accounts.On("GetByEmail", mock.Anything, "taken@example.com").
		Return(account(1, models.VerificationLevelUnverified, 0), nil)

	status, _ := env.do(t, request{method: "POST", path: "/matches/99/join", caller: "5"})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = env.do(t, request{
		method: "POST",
		path:   "/accounts",
		body:   jsonBody(t, map[string]any{"email": "taken@example.com", "username": "newuser"}),
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestInfrastructureErrorsAreHidden(t *testing.T) {
	env := newTestEnv(t)
	env.uow.Accounts.On("GetByID", mock.Anything, models.AccountID(5)).
		Return(nil, errors.New("connection reset"))

	status, body := env.do(t, request{method: "GET", path: "/me", caller: "5"})

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["error"])
}

func TestWrappedKindWithoutDomainErrorIsHidden(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error {
		return fmt.Errorf("cache lookup: %w", service.ErrNotFound)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(raw))
}

func TestPaymentWebhook(t *testing.T) {
	t.Run("bad signature is rejected without a gateway token", func(t *testing.T) {
		env := newTestEnv(t)
		env.gateway.On("ParseWebhook", "bad", "123", mock.Anything).
			Return(nil, errors.New("invalid signature"))

		status, _ := env.do(t, request{
			method:  "POST",
			path:    "/webhooks/payments",
			body:    []byte(`{"data":{}}`),
			noAuth:  true,
			headers: map[string]string{HeaderWebhookSignature: "bad", HeaderWebhookTimestamp: "123"},
		})
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("paid order settles the deposit", func(t *testing.T) {
		env := newTestEnv(t)
		orderID := "order_1"
		pending := &models.Transaction{
			ID:     3,
			UserID: 5,
			Type:   models.TransactionTypeDeposit,
			Amount: 500,
			Status: models.StatusPending,
			Method: models.TransactionMethodGateway,
			UTRID:  &orderID,
		}
		settled := *pending
		settled.Status = models.StatusApproved

		env.gateway.On("ParseWebhook", "sig", "123", mock.Anything).
			Return(&models.GatewayWebhook{OrderID: orderID, Status: models.GatewayOrderPaid, Amount: 500}, nil)
		env.uow.Transactions.On("GetByUTRID", mock.Anything, orderID).Return(pending, nil)
		env.uow.Accounts.On("GetByID", mock.Anything, models.AccountID(5)).
			Return(account(5, models.VerificationLevelPlayer, 0), nil)
		env.uow.Transactions.On("Settle", mock.Anything, mock.Anything).Return(&settled, nil)
		env.uow.Accounts.On("AddBalance", mock.Anything, models.AccountID(5), int64(500)).Return(int64(500), nil)
		env.uow.BalanceHistory.On("Record", mock.Anything, mock.Anything).Return(nil)

		status, body := env.do(t, request{
			method:  "POST",
			path:    "/webhooks/payments",
			body:    []byte(`{"data":{}}`),
			noAuth:  true,
			headers: map[string]string{HeaderWebhookSignature: "sig", HeaderWebhookTimestamp: "123"},
		})

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "approved", body["status"])
		assert.Equal(t, false, body["alreadySettled"])
	})
}

func TestHostVerificationMultipartWithoutStore(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("document", "id.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, body := env.do(t, request{
		method:      "POST",
		path:        "/verification/host",
		caller:      "5",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "document uploads are not available", body["error"])
	env.uow.Verifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
