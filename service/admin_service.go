package service

import (
	"context"
	"fmt"

	"skillarena/models"
)

type adminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates a new admin console service
func NewAdminService(uowFactory UnitOfWorkFactory) AdminService {
	return &adminService{
		uowFactory: uowFactory,
	}
}

func (s *adminService) Dashboard(ctx context.Context, adminID models.AccountID) (*models.DashboardStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{}
	var err error

	if stats.PendingDeposits, err = uow.TransactionRepository().CountPending(ctx, models.TransactionTypeDeposit); err != nil {
		return nil, fmt.Errorf("failed to count pending deposits: %w", err)
	}
	if stats.PendingWithdrawals, err = uow.TransactionRepository().CountPending(ctx, models.TransactionTypeWithdrawal); err != nil {
		return nil, fmt.Errorf("failed to count pending withdrawals: %w", err)
	}

	pending, err := uow.VerificationRepository().ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending verifications: %w", err)
	}
	stats.PendingVerifications = len(pending)

	if stats.OpenTickets, err = uow.TicketRepository().CountByStatus(ctx, models.TicketStatusOpen); err != nil {
		return nil, fmt.Errorf("failed to count open tickets: %w", err)
	}
	if stats.LiveMatches, err = uow.MatchRepository().CountByStatus(ctx, models.MatchStatusLive); err != nil {
		return nil, fmt.Errorf("failed to count live matches: %w", err)
	}
	if stats.DisputedMatches, err = uow.MatchRepository().CountByStatus(ctx, models.MatchStatusDisputed); err != nil {
		return nil, fmt.Errorf("failed to count disputed matches: %w", err)
	}
	if stats.TotalAccounts, stats.WalletLiability, err = uow.AccountRepository().GetLiability(ctx); err != nil {
		return nil, fmt.Errorf("failed to get wallet liability: %w", err)
	}

	return stats, nil
}
