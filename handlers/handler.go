package handlers

import (
	"skillarena/service"
)

// Services bundles everything the HTTP layer dispatches to
type Services struct {
	Accounts     service.AccountService
	Wallet       service.WalletService
	Payments     service.PaymentService
	Verification service.VerificationService
	Matches      service.MatchService
	Support      service.SupportService
	Admin        service.AdminService
	Games        service.GameService
}

// Handler serves the marketplace API on top of the service layer
type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}
