package service

import (
	"context"

	"skillarena/models"
)

// setupUoW returns a factory that always hands out the same mock unit of work
func setupUoW(ctx context.Context) (*MockUnitOfWorkFactory, *MockUnitOfWork) {
	uow := NewMockUnitOfWork()
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	return factory, uow
}

func testAccount(id models.AccountID, level models.VerificationLevel, balance int64) *models.Account {
	return &models.Account{
		ID:                id,
		Email:             "user@example.com",
		Username:          "user" + id.String(),
		Role:              models.RoleUser,
		VerificationLevel: level,
		WalletBalance:     balance,
	}
}

func testAdmin(id models.AccountID) *models.Account {
	admin := testAccount(id, models.VerificationLevelHost, 0)
	admin.Role = models.RoleAdmin
	return admin
}

func strPtr(s string) *string { return &s }
