package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"skillarena/events"
	"skillarena/models"
)

// settleTransaction moves a pending deposit or withdrawal to a terminal status and
// applies its wallet effect. When another caller already settled the row the result
// has AlreadySettled set and nothing else changes.
//
//	deposit    approved -> credit amount
//	deposit    rejected -> no change
//	withdrawal approved -> no change (funds were reserved on request)
//	withdrawal rejected -> refund amount
func settleTransaction(ctx context.Context, uow UnitOfWork, tx *models.Transaction, status models.RequestStatus, notes *string, processedBy *models.AccountID) (*models.SettlementResult, error) {
	if tx.Type != models.TransactionTypeDeposit && tx.Type != models.TransactionTypeWithdrawal {
		return nil, NewValidationError("%s transactions are not reviewable", tx.Type)
	}

	settled, err := uow.TransactionRepository().Settle(ctx, models.Settlement{
		TransactionID: tx.ID,
		Status:        status,
		Notes:         notes,
		ProcessedBy:   processedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle transaction: %w", err)
	}

	if settled == nil {
		current, err := uow.TransactionRepository().GetByID(ctx, tx.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload transaction: %w", err)
		}
		if current == nil {
			current = tx
		}
		account, err := getAccount(ctx, uow, tx.UserID)
		if err != nil {
			return nil, err
		}
		return &models.SettlementResult{Transaction: current, NewBalance: account.WalletBalance, AlreadySettled: true}, nil
	}

	var newBalance int64
	change := walletChange{
		UserID:        settled.UserID,
		Amount:        settled.Amount,
		TransactionID: &settled.ID,
		Metadata: map[string]any{
			"transaction_id": settled.ID,
			"method":         settled.Method,
			"status":         status,
		},
	}

	switch {
	case settled.Type == models.TransactionTypeDeposit && status == models.StatusApproved:
		change.Type = models.TransactionTypeDeposit
		newBalance, err = creditWallet(ctx, uow, change)
	case settled.Type == models.TransactionTypeWithdrawal && status == models.StatusRejected:
		change.Type = models.TransactionTypeRefund
		newBalance, err = creditWallet(ctx, uow, change)
	default:
		var account *models.Account
		account, err = getAccount(ctx, uow, settled.UserID)
		if account != nil {
			newBalance = account.WalletBalance
		}
	}
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.TransactionSettledEvent{
		TransactionID: settled.ID,
		UserID:        settled.UserID,
		TxType:        settled.Type,
		Amount:        settled.Amount,
		Status:        status,
		ProcessedBy:   processedBy,
	})

	log.WithFields(log.Fields{
		"transactionId": settled.ID,
		"userId":        settled.UserID,
		"type":          settled.Type,
		"status":        status,
		"amount":        settled.Amount,
	}).Info("Transaction settled")

	return &models.SettlementResult{Transaction: settled, NewBalance: newBalance}, nil
}
