package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"skillarena/events"
	"skillarena/models"
)

const reconcileBatchSize = 100

type paymentService struct {
	uowFactory UnitOfWorkFactory
	gateway    PaymentGateway
}

// NewPaymentService creates a new payment service backed by a hosted checkout gateway
func NewPaymentService(uowFactory UnitOfWorkFactory, gateway PaymentGateway) PaymentService {
	return &paymentService{
		uowFactory: uowFactory,
		gateway:    gateway,
	}
}

func (s *paymentService) CreateGatewayDeposit(ctx context.Context, userID models.AccountID, amount int64) (*models.GatewayDeposit, error) {
	if err := validateDepositAmount(amount); err != nil {
		return nil, err
	}

	account, err := s.lookupAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	orderID := "order_" + uuid.NewString()
	order, err := s.gateway.CreateOrder(ctx, models.GatewayOrderRequest{
		OrderID:       orderID,
		Amount:        amount,
		CustomerID:    account.ID,
		CustomerEmail: account.Email,
		CustomerName:  account.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tx := &models.Transaction{
		UserID: userID,
		Type:   models.TransactionTypeDeposit,
		Method: models.TransactionMethodGateway,
		Amount: amount,
		Status: models.StatusPending,
		UTRID:  &order.OrderID,
	}
	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.TransactionRequestedEvent{
		TransactionID: tx.ID,
		UserID:        userID,
		Username:      account.Username,
		TxType:        tx.Type,
		Method:        tx.Method,
		Amount:        amount,
		UTRID:         order.OrderID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":  userID,
		"orderId": order.OrderID,
		"amount":  amount,
	}).Info("Gateway deposit created")

	return &models.GatewayDeposit{
		Transaction:  tx,
		OrderID:      order.OrderID,
		SessionToken: order.SessionToken,
	}, nil
}

func (s *paymentService) VerifyGatewayDeposit(ctx context.Context, userID models.AccountID, orderID string) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx, err := uow.TransactionRepository().GetByUTRID(ctx, orderID)
	uow.Rollback()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway deposit: %w", err)
	}
	if tx == nil || tx.Method != models.TransactionMethodGateway {
		return nil, NewNotFoundError("order %s not found", orderID)
	}
	if tx.UserID != userID {
		return nil, NewAuthorizationError("order %s belongs to another account", orderID)
	}

	status, err := s.gateway.FetchOrderStatus(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order status: %w", err)
	}

	return s.settleOrder(ctx, orderID, status, 0)
}

func (s *paymentService) HandleWebhook(ctx context.Context, signature, timestamp string, body []byte) (*models.SettlementResult, error) {
	hook, err := s.gateway.ParseWebhook(signature, timestamp, body)
	if err != nil {
		log.WithError(err).Warn("Rejected payment webhook")
		return nil, NewAuthorizationError("invalid webhook signature")
	}

	return s.settleOrder(ctx, hook.OrderID, hook.Status, hook.Amount)
}

func (s *paymentService) ReconcilePendingGatewayDeposits(ctx context.Context, olderThan time.Time) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	deposit := models.TransactionTypeDeposit
	pending := models.StatusPending
	method := models.TransactionMethodGateway
	stale, err := uow.TransactionRepository().List(ctx, models.TransactionFilter{
		Type:          &deposit,
		Status:        &pending,
		Method:        &method,
		CreatedBefore: &olderThan,
		Limit:         reconcileBatchSize,
	})
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to list stale gateway deposits: %w", err)
	}

	settled := 0
	for _, tx := range stale {
		if tx.UTRID == nil {
			continue
		}
		orderID := *tx.UTRID

		status, err := s.gateway.FetchOrderStatus(ctx, orderID)
		if err != nil {
			log.WithFields(log.Fields{
				"orderId": orderID,
				"error":   err,
			}).Warn("Failed to fetch order status during reconciliation")
			continue
		}

		result, err := s.settleOrder(ctx, orderID, status, 0)
		if err != nil {
			log.WithFields(log.Fields{
				"orderId": orderID,
				"error":   err,
			}).Error("Failed to settle order during reconciliation")
			continue
		}
		if !result.AlreadySettled && !result.Transaction.IsPending() {
			settled++
		}
	}

	if len(stale) > 0 {
		log.WithFields(log.Fields{
			"checked": len(stale),
			"settled": settled,
		}).Info("Reconciled pending gateway deposits")
	}

	return settled, nil
}

// settleOrder applies a gateway status to the pending deposit for orderID.
// A pending status leaves the deposit untouched. A deposit that is already
// terminal is reported with AlreadySettled and no balance change.
// paidAmount is checked against the deposit when non-zero.
func (s *paymentService) settleOrder(ctx context.Context, orderID string, status models.GatewayOrderStatus, paidAmount int64) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tx, err := uow.TransactionRepository().GetByUTRID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway deposit: %w", err)
	}
	if tx == nil || tx.Method != models.TransactionMethodGateway {
		return nil, NewNotFoundError("order %s not found", orderID)
	}

	account, err := getAccount(ctx, uow, tx.UserID)
	if err != nil {
		return nil, err
	}

	if !tx.IsPending() {
		return &models.SettlementResult{Transaction: tx, NewBalance: account.WalletBalance, AlreadySettled: true}, nil
	}

	var target models.RequestStatus
	notes := fmt.Sprintf("gateway order %s", status)
	switch status {
	case models.GatewayOrderPaid:
		if paidAmount != 0 && paidAmount != tx.Amount {
			log.WithFields(log.Fields{
				"orderId":  orderID,
				"expected": tx.Amount,
				"paid":     paidAmount,
			}).Error("Gateway reported a paid amount that does not match the deposit")
			return nil, NewValidationError("paid amount %d does not match deposit amount %d", paidAmount, tx.Amount)
		}
		target = models.StatusApproved
	case models.GatewayOrderFailed:
		target = models.StatusRejected
	default:
		return &models.SettlementResult{Transaction: tx, NewBalance: account.WalletBalance}, nil
	}

	result, err := settleTransaction(ctx, uow, tx, target, &notes, nil)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

func (s *paymentService) lookupAccount(ctx context.Context, userID models.AccountID) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return getAccount(ctx, uow, userID)
}
