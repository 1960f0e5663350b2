package service

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"skillarena/events"
	"skillarena/models"
)

const (
	MinDepositAmount    int64 = 10
	MaxDepositAmount    int64 = 100000
	MinWithdrawalAmount int64 = 100
	MaxWithdrawalAmount int64 = 50000
	MinUTRLength              = 6
	MaxUTRLength              = 20

	walletRecentTransactions = 20
	maxTransactionPageSize   = 200
)

type walletService struct {
	uowFactory UnitOfWorkFactory
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory) WalletService {
	return &walletService{
		uowFactory: uowFactory,
	}
}

// validateDepositAmount checks the bounds shared by manual and gateway deposits
func validateDepositAmount(amount int64) error {
	if amount < MinDepositAmount || amount > MaxDepositAmount {
		return NewValidationError("deposit amount must be between %d and %d", MinDepositAmount, MaxDepositAmount)
	}
	return nil
}

func (s *walletService) RequestDeposit(ctx context.Context, userID models.AccountID, amount int64, utrID string, uniqueAmount *int64) (*models.Transaction, error) {
	if err := validateDepositAmount(amount); err != nil {
		return nil, err
	}
	utrID = strings.TrimSpace(utrID)
	if len(utrID) < MinUTRLength || len(utrID) > MaxUTRLength {
		return nil, NewValidationError("UTR must be between %d and %d characters", MinUTRLength, MaxUTRLength)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	existing, err := uow.TransactionRepository().GetByUTRID(ctx, utrID)
	if err != nil {
		return nil, fmt.Errorf("failed to check utr: %w", err)
	}
	if existing != nil {
		return nil, NewConflictError("this UTR has already been submitted")
	}

	tx := &models.Transaction{
		UserID:       userID,
		Type:         models.TransactionTypeDeposit,
		Method:       models.TransactionMethodManual,
		Amount:       amount,
		Status:       models.StatusPending,
		UTRID:        &utrID,
		UniqueAmount: uniqueAmount,
	}
	// Concurrent duplicates are caught by the unique index on utr_id
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
		UTRID:         utrID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":        userID,
		"transactionId": tx.ID,
		"amount":        amount,
	}).Info("Deposit requested")

	return tx, nil
}

func (s *walletService) RequestWithdrawal(ctx context.Context, userID models.AccountID, amount int64, destination string) (*models.Transaction, error) {
	if amount < MinWithdrawalAmount || amount > MaxWithdrawalAmount {
		return nil, NewValidationError("withdrawal amount must be between %d and %d", MinWithdrawalAmount, MaxWithdrawalAmount)
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, NewValidationError("a payout destination is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	pending, err := uow.TransactionRepository().HasPendingWithdrawal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending withdrawals: %w", err)
	}
	if pending {
		return nil, NewConflictError("a withdrawal is already pending review")
	}

	if account.WalletBalance < amount {
		return nil, NewValidationError("insufficient balance: have %d, need %d", account.WalletBalance, amount)
	}

	tx := &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeWithdrawal,
		Method:      models.TransactionMethodManual,
		Amount:      amount,
		Status:      models.StatusPending,
		Destination: &destination,
	}
	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return nil, err
	}

	// Funds stay reserved until the withdrawal is reviewed
	if _, err := debitWallet(ctx, uow, walletChange{
		UserID:        userID,
		Amount:        amount,
		Type:          models.TransactionTypeWithdrawal,
		TransactionID: &tx.ID,
		Metadata:      map[string]any{"transaction_id": tx.ID, "destination": destination},
	}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.TransactionRequestedEvent{
		TransactionID: tx.ID,
		UserID:        userID,
		Username:      account.Username,
		TxType:        tx.Type,
		Method:        tx.Method,
		Amount:        amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":        userID,
		"transactionId": tx.ID,
		"amount":        amount,
	}).Info("Withdrawal requested")

	return tx, nil
}

func (s *walletService) ApproveTransaction(ctx context.Context, adminID models.AccountID, txID models.TransactionID, notes *string) (*models.SettlementResult, error) {
	return s.review(ctx, adminID, txID, models.StatusApproved, notes)
}

func (s *walletService) RejectTransaction(ctx context.Context, adminID models.AccountID, txID models.TransactionID, notes *string) (*models.SettlementResult, error) {
	return s.review(ctx, adminID, txID, models.StatusRejected, notes)
}

func (s *walletService) review(ctx context.Context, adminID models.AccountID, txID models.TransactionID, status models.RequestStatus, notes *string) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	tx, err := uow.TransactionRepository().GetByID(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil {
		return nil, NewNotFoundError("transaction %d not found", txID)
	}
	if !tx.IsPending() {
		return nil, NewConflictError("transaction %d is already %s", txID, tx.Status)
	}

	result, err := settleTransaction(ctx, uow, tx, status, notes, &adminID)
	if err != nil {
		return nil, err
	}
	if result.AlreadySettled {
		return nil, NewConflictError("transaction %d is already %s", txID, result.Transaction.Status)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

func (s *walletService) GetWallet(ctx context.Context, userID models.AccountID) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	txs, err := uow.TransactionRepository().List(ctx, models.TransactionFilter{UserID: &userID, Limit: walletRecentTransactions})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &models.Wallet{Balance: account.WalletBalance, Transactions: txs}, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID models.AccountID, limit int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > maxTransactionPageSize {
		limit = maxTransactionPageSize
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txs, err := uow.TransactionRepository().List(ctx, models.TransactionFilter{UserID: &userID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *walletService) ListPendingTransactions(ctx context.Context, adminID models.AccountID, txType *models.TransactionType) ([]*models.Transaction, error) {
	if txType != nil && !txType.IsValid() {
		return nil, NewValidationError("unknown transaction type %q", *txType)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	pending := models.StatusPending
	txs, err := uow.TransactionRepository().List(ctx, models.TransactionFilter{
		Type:   txType,
		Status: &pending,
		Limit:  maxTransactionPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	return txs, nil
}
