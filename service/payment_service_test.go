package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillarena/models"
)

func gatewayDeposit(id models.TransactionID, userID models.AccountID, orderID string, status models.RequestStatus) *models.Transaction {
	return &models.Transaction{
		ID:     id,
		UserID: userID,
		Type:   models.TransactionTypeDeposit,
		Method: models.TransactionMethodGateway,
		Amount: 500,
		Status: status,
		UTRID:  &orderID,
	}
}

func TestPaymentService_CreateGatewayDeposit(t *testing.T) {
	ctx := context.Background()
	factory, uow := setupUoW(ctx)
	gateway := new(MockPaymentGateway)
	svc := NewPaymentService(factory, gateway)

	uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)
	gateway.On("CreateOrder", ctx, mock.MatchedBy(func(req models.GatewayOrderRequest) bool {
		return strings.HasPrefix(req.OrderID, "order_") && req.Amount == 500 && req.CustomerID == 1
	})).Return(&models.GatewayOrder{OrderID: "order_abc", SessionToken: "sess_123"}, nil)
	uow.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Method == models.TransactionMethodGateway && tx.Status == models.StatusPending && *tx.UTRID == "order_abc"
	})).Return(nil)
	uow.On("Commit").Return(nil)

	deposit, err := svc.CreateGatewayDeposit(ctx, 1, 500)

	require.NoError(t, err)
	assert.Equal(t, "order_abc", deposit.OrderID)
	assert.Equal(t, "sess_123", deposit.SessionToken)
	uow.Accounts.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	gateway.AssertExpectations(t)
}

func TestPaymentService_CreateGatewayDeposit_GatewayDown(t *testing.T) {
	ctx := context.Background()
	factory, uow := setupUoW(ctx)
	gateway := new(MockPaymentGateway)
	svc := NewPaymentService(factory, gateway)

	uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)
	gateway.On("CreateOrder", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := svc.CreateGatewayDeposit(ctx, 1, 500)

	assert.Error(t, err)
	assert.False(t, IsDomainError(err))
	uow.Transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_Paid(t *testing.T) {
	ctx := context.Background()
	factory, uow := setupUoW(ctx)
	gateway := new(MockPaymentGateway)
	svc := NewPaymentService(factory, gateway)

	body := []byte(`{"order_id":"order_abc"}`)
	pending := gatewayDeposit(5, 1, "order_abc", models.StatusPending)
	approved := *pending
	approved.Status = models.StatusApproved

	gateway.On("ParseWebhook", "sig", "ts", body).Return(&models.GatewayWebhook{
		OrderID: "order_abc", Status: models.GatewayOrderPaid, Amount: 500,
	}, nil)
	uow.Transactions.On("GetByUTRID", ctx, "order_abc").Return(pending, nil)
	uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)
	uow.Transactions.On("Settle", ctx, mock.MatchedBy(func(s models.Settlement) bool {
		return s.Status == models.StatusApproved && s.ProcessedBy == nil
	})).Return(&approved, nil)
	uow.Accounts.On("AddBalance", ctx, models.AccountID(1), int64(500)).Return(int64(500), nil)
	uow.BalanceHistory.On("Record", ctx, mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)

	result, err := svc.HandleWebhook(ctx, "sig", "ts", body)

	require.NoError(t, err)
	assert.False(t, result.AlreadySettled)
	assert.Equal(t, int64(500), result.NewBalance)
	uow.AssertRepositories(t)
}

func TestPaymentService_HandleWebhook_Redelivery(t *testing.T) {
	ctx := context.Background()
	factory, uow := setupUoW(ctx)
	gateway := new(MockPaymentGateway)
	svc := NewPaymentService(factory, gateway)

	body := []byte(`{}`)
	gateway.On("ParseWebhook", "sig", "ts", body).Return(&models.GatewayWebhook{
		OrderID: "order_abc", Status: models.GatewayOrderPaid, Amount: 500,
	}, nil)
	uow.Transactions.On("GetByUTRID", ctx, "order_abc").Return(gatewayDeposit(5, 1, "order_abc", models.StatusApproved), nil)
	uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 500), nil)

	result, err := svc.HandleWebhook(ctx, "sig", "ts", body)

	require.NoError(t, err)
	assert.True(t, result.AlreadySettled)
	assert.Equal(t, int64(500), result.NewBalance)
	uow.Transactions.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
	uow.Accounts.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("bad signature", func(t *testing.T) {
		factory := new(MockUnitOfWorkFactory)
		gateway := new(MockPaymentGateway)
		svc := NewPaymentService(factory, gateway)
		gateway.On("ParseWebhook", "bad", "ts", []byte("{}")).Return(nil, errors.New("signature mismatch"))

		_, err := svc.HandleWebhook(ctx, "bad", "ts", []byte("{}"))

		assert.ErrorIs(t, err, ErrAuthorization)
		factory.AssertNotCalled(t, "Create")
	})

	t.Run("unknown order", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		gateway := new(MockPaymentGateway)
		svc := NewPaymentService(factory, gateway)
		gateway.On("ParseWebhook", "sig", "ts", []byte("{}")).Return(&models.GatewayWebhook{
			OrderID: "order_missing", Status: models.GatewayOrderPaid,
		}, nil)
		uow.Transactions.On("GetByUTRID", ctx, "order_missing").Return(nil, nil)

		_, err := svc.HandleWebhook(ctx, "sig", "ts", []byte("{}"))

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		gateway := new(MockPaymentGateway)
		svc := NewPaymentService(factory, gateway)
		gateway.On("ParseWebhook", "sig", "ts", []byte("{}")).Return(&models.GatewayWebhook{
			OrderID: "order_abc", Status: models.GatewayOrderPaid, Amount: 5,
		}, nil)
		uow.Transactions.On("GetByUTRID", ctx, "order_abc").Return(gatewayDeposit(5, 1, "order_abc", models.StatusPending), nil)
		uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)

		_, err := svc.HandleWebhook(ctx, "sig", "ts", []byte("{}"))

		assert.ErrorIs(t, err, ErrValidation)
		uow.Transactions.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_VerifyGatewayDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("other user's order", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		gateway := new(MockPaymentGateway)
		svc := NewPaymentService(factory, gateway)
		uow.Transactions.On("GetByUTRID", ctx, "order_abc").Return(gatewayDeposit(5, 2, "order_abc", models.StatusPending), nil)

		_, err := svc.VerifyGatewayDeposit(ctx, 1, "order_abc")

		assert.ErrorIs(t, err, ErrAuthorization)
		gateway.AssertNotCalled(t, "FetchOrderStatus", mock.Anything, mock.Anything)
	})

	t.Run("still pending leaves deposit untouched", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		gateway := new(MockPaymentGateway)
		svc := NewPaymentService(factory, gateway)
		uow.Transactions.On("GetByUTRID", ctx, "order_abc").Return(gatewayDeposit(5, 1, "order_abc", models.StatusPending), nil)
		uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)
		gateway.On("FetchOrderStatus", ctx, "order_abc").Return(models.GatewayOrderPending, nil)

		result, err := svc.VerifyGatewayDeposit(ctx, 1, "order_abc")

		require.NoError(t, err)
		assert.True(t, result.Transaction.IsPending())
		uow.Transactions.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
	})

	t.Run("failed payment rejects deposit", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		gateway := new(MockPaymentGateway)
		svc := NewPaymentService(factory, gateway)
		pending := gatewayDeposit(5, 1, "order_abc", models.StatusPending)
		rejected := *pending
		rejected.Status = models.StatusRejected

		uow.Transactions.On("GetByUTRID", ctx, "order_abc").Return(pending, nil)
		uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)
		gateway.On("FetchOrderStatus", ctx, "order_abc").Return(models.GatewayOrderFailed, nil)
		uow.Transactions.On("Settle", ctx, mock.MatchedBy(func(s models.Settlement) bool {
			return s.Status == models.StatusRejected
		})).Return(&rejected, nil)
		uow.On("Commit").Return(nil)

		result, err := svc.VerifyGatewayDeposit(ctx, 1, "order_abc")

		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, result.Transaction.Status)
		uow.Accounts.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPaymentService_ReconcilePendingGatewayDeposits(t *testing.T) {
	ctx := context.Background()
	factory, uow := setupUoW(ctx)
	gateway := new(MockPaymentGateway)
	svc := NewPaymentService(factory, gateway)

	cutoff := time.Now().Add(-15 * time.Minute)
	paid := gatewayDeposit(1, 1, "order_paid", models.StatusPending)
	broken := gatewayDeposit(2, 1, "order_broken", models.StatusPending)
	approved := *paid
	approved.Status = models.StatusApproved

	uow.Transactions.On("List", ctx, mock.MatchedBy(func(f models.TransactionFilter) bool {
		return *f.Method == models.TransactionMethodGateway && *f.Status == models.StatusPending && f.CreatedBefore.Equal(cutoff)
	})).Return([]*models.Transaction{paid, broken}, nil)
	gateway.On("FetchOrderStatus", ctx, "order_paid").Return(models.GatewayOrderPaid, nil)
	gateway.On("FetchOrderStatus", ctx, "order_broken").Return(models.GatewayOrderStatus(""), errors.New("timeout"))
	uow.Transactions.On("GetByUTRID", ctx, "order_paid").Return(paid, nil)
	uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)
	uow.Transactions.On("Settle", ctx, mock.Anything).Return(&approved, nil)
	uow.Accounts.On("AddBalance", ctx, models.AccountID(1), int64(500)).Return(int64(500), nil)
	uow.BalanceHistory.On("Record", ctx, mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)

	settled, err := svc.ReconcilePendingGatewayDeposits(ctx, cutoff)

	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	gateway.AssertExpectations(t)
}
