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
	minUsernameLength = 3
	maxUsernameLength = 32
)

type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

func (s *accountService) RegisterAccount(ctx context.Context, email, username string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if !validEmail(email) {
		return nil, NewValidationError("a valid email address is required")
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, NewValidationError("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.AccountRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, NewConflictError("an account with that email already exists")
	}

	existing, err = uow.AccountRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, NewConflictError("username %q is taken", username)
	}

	account := &models.Account{
		Email:             email,
		Username:          username,
		Role:              models.RoleUser,
		VerificationLevel: models.VerificationLevelPendingEmail,
	}
	if err := uow.AccountRepository().Create(ctx, account); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		UserID:   account.ID,
		Email:    account.Email,
		Username: account.Username,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":   account.ID,
		"username": account.Username,
	}).Info("Account registered")

	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, id models.AccountID) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return getAccount(ctx, uow, id)
}

func (s *accountService) SetRole(ctx context.Context, adminID, userID models.AccountID, role models.Role) (*models.Account, error) {
	if !role.IsValid() {
		return nil, NewValidationError("unknown role %q", role)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}
	if adminID == userID && role != models.RoleAdmin {
		return nil, NewValidationError("admins cannot demote themselves")
	}

	account, err := getAccount(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	if err := uow.AccountRepository().UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	account.Role = role

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":  userID,
		"role":    role,
		"adminId": adminID,
	}).Info("Account role changed")

	return account, nil
}

func (s *accountService) PromoteToAdmin(ctx context.Context, email string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, NewNotFoundError("no account with email %s", email)
	}

	if err := uow.AccountRepository().UpdateRole(ctx, account.ID, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	account.Role = models.RoleAdmin

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("userId", account.ID).Info("Account promoted to admin")

	return account, nil
}
