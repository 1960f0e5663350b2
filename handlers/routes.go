package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"skillarena/middleware"
	"skillarena/storage"
)

// AppConfig controls how NewApp builds the fiber application
type AppConfig struct {
	GatewayToken   string
	AllowedOrigins []string
}

// NewApp builds the HTTP API with all routes registered
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "skillarena",
		ErrorHandler: ErrorHandler,
		// room for a verification document plus form fields
		BodyLimit: storage.MaxDocumentSize + 1<<20,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Authenticated by HMAC signature, not by the gateway token
	app.Post("/webhooks/payments", h.PaymentWebhook)

	SetupRoutes(app, h, cfg.GatewayToken)
	return app
}

// SetupRoutes registers every gateway-authenticated route
func SetupRoutes(app *fiber.App, h *Handler, gatewayToken string) {
	api := app.Group("/", middleware.GatewayAuth(gatewayToken))

	api.Get("/games", h.ListGames)
	api.Get("/matches", h.ListOpenMatches)
	api.Post("/support/tickets", middleware.OptionalCaller(), h.CreateTicket)

	// Accounts are registered by the gateway after sign-up, before a caller id exists
	api.Post("/accounts", h.RegisterAccount)

	secured := api.Group("/", middleware.RequireCaller())

	secured.Get("/me", h.GetMe)
	secured.Post("/me/confirm-email", h.ConfirmEmail)

	secured.Get("/wallet", h.GetWallet)
	secured.Get("/wallet/transactions", h.ListMyTransactions)
	secured.Post("/wallet/deposits", h.RequestDeposit)
	secured.Post("/wallet/deposits/gateway", h.CreateGatewayDeposit)
	secured.Post("/wallet/deposits/gateway/:orderId/verify", h.VerifyGatewayDeposit)
	secured.Post("/wallet/withdrawals", h.RequestWithdrawal)

	secured.Get("/matches/mine", h.ListMyMatches)
	secured.Get("/matches/:id", h.GetMatch)
	secured.Post("/matches", h.CreateMatch)
	secured.Post("/matches/:id/join", h.JoinMatch)
	secured.Post("/matches/:id/winner", h.DeclareWinner)
	secured.Post("/matches/:id/cancel", h.CancelMatch)
	secured.Post("/matches/:id/dispute", h.FlagDispute)

	secured.Get("/verification", h.GetMyVerification)
	secured.Post("/verification/player", h.RequestPlayerVerification)
	secured.Post("/verification/host", h.RequestHostVerification)

	secured.Get("/support/tickets/mine", h.ListMyTickets)

	// Admin checks happen in the service layer against the caller's role
	admin := secured.Group("/admin")
	admin.Get("/dashboard", h.Dashboard)
	admin.Get("/transactions", h.ListPendingTransactions)
	admin.Post("/transactions/:id/approve", h.ApproveTransaction)
	admin.Post("/transactions/:id/reject", h.RejectTransaction)
	admin.Get("/verifications", h.ListPendingVerifications)
	admin.Post("/verifications/:id/approve", h.ApproveVerification)
	admin.Post("/verifications/:id/reject", h.RejectVerification)
	admin.Get("/tickets", h.ListTickets)
	admin.Post("/tickets/:id/status", h.UpdateTicketStatus)
	admin.Post("/matches/:id/resolve", h.ResolveDispute)
	admin.Post("/users/:id/role", h.SetRole)
}
