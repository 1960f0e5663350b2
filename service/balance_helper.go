package service

import (
	"context"
	"errors"
	"fmt"

	"skillarena/events"
	"skillarena/models"
)

// RecordBalanceChange records a balance history entry and emits a balance change event.
// Every wallet mutation goes through here.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

// walletChange describes one credit or debit against a wallet
type walletChange struct {
	UserID        models.AccountID
	Amount        int64
	Type          models.TransactionType
	TransactionID *models.TransactionID
	Metadata      map[string]any
}

// creditWallet adds to a wallet and records the change. Returns the new balance.
func creditWallet(ctx context.Context, uow UnitOfWork, c walletChange) (int64, error) {
	newBalance, err := uow.AccountRepository().AddBalance(ctx, c.UserID, c.Amount)
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:              c.UserID,
		BalanceBefore:       newBalance - c.Amount,
		BalanceAfter:        newBalance,
		ChangeAmount:        c.Amount,
		TransactionType:     c.Type,
		TransactionMetadata: c.Metadata,
		TransactionID:       c.TransactionID,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// debitWallet removes from a wallet only if it holds enough funds. Returns the new balance.
func debitWallet(ctx context.Context, uow UnitOfWork, c walletChange) (int64, error) {
	newBalance, err := uow.AccountRepository().DeductBalance(ctx, c.UserID, c.Amount)
	if errors.Is(err, ErrInsufficientBalance) {
		return 0, NewValidationError("insufficient balance")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit wallet: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:              c.UserID,
		BalanceBefore:       newBalance + c.Amount,
		BalanceAfter:        newBalance,
		ChangeAmount:        -c.Amount,
		TransactionType:     c.Type,
		TransactionMetadata: c.Metadata,
		TransactionID:       c.TransactionID,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// requireAdmin loads the caller and fails unless they hold the admin role
func requireAdmin(ctx context.Context, uow UnitOfWork, callerID models.AccountID) (*models.Account, error) {
	caller, err := uow.AccountRepository().GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get caller: %w", err)
	}
	if caller == nil || !caller.IsAdmin() {
		return nil, NewAuthorizationError("admin access required")
	}
	return caller, nil
}

// getAccount loads an account or returns a not-found error
func getAccount(ctx context.Context, uow UnitOfWork, id models.AccountID) (*models.Account, error) {
	account, err := uow.AccountRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, NewNotFoundError("account %d not found", id)
	}
	return account, nil
}
