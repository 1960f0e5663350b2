package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillarena/models"
)

type depositRequest struct {
	Amount       int64  `json:"amount"`
	UTRID        string `json:"utrId" validate:"required"`
	UniqueAmount *int64 `json:"uniqueAmount"`
}

type withdrawalRequest struct {
	Amount      int64  `json:"amount"`
	Destination string `json:"destination" validate:"required"`
}

type gatewayDepositRequest struct {
	Amount int64 `json:"amount"`
}

type settleRequest struct {
	Notes *string `json:"notes"`
}

func (h *Handler) GetWallet(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	wallet, err := h.svc.Wallet.GetWallet(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(wallet)
}

func (h *Handler) ListMyTransactions(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	txs, err := h.svc.Wallet.ListTransactions(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(txs)
}

// RequestDeposit records a manual bank-transfer deposit awaiting admin review
func (h *Handler) RequestDeposit(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tx, err := h.svc.Wallet.RequestDeposit(c.UserContext(), userID, req.Amount, req.UTRID, req.UniqueAmount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

func (h *Handler) RequestWithdrawal(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	var req withdrawalRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tx, err := h.svc.Wallet.RequestWithdrawal(c.UserContext(), userID, req.Amount, req.Destination)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

func (h *Handler) CreateGatewayDeposit(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	var req gatewayDepositRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	deposit, err := h.svc.Payments.CreateGatewayDeposit(c.UserContext(), userID, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(deposit)
}

func (h *Handler) VerifyGatewayDeposit(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	result, err := h.svc.Payments.VerifyGatewayDeposit(c.UserContext(), userID, c.Params("orderId"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) ListPendingTransactions(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}

	var txType *models.TransactionType
	if raw := c.Query("type"); raw != "" {
		t := models.TransactionType(raw)
		txType = &t
	}

	txs, err := h.svc.Wallet.ListPendingTransactions(c.UserContext(), adminID, txType)
	if err != nil {
		return err
	}
	return c.JSON(txs)
}

func (h *Handler) ApproveTransaction(c *fiber.Ctx) error {
	return h.settle(c, true)
}

func (h *Handler) RejectTransaction(c *fiber.Ctx) error {
	return h.settle(c, false)
}

func (h *Handler) settle(c *fiber.Ctx, approve bool) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}
	txID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req settleRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	var result *models.SettlementResult
	if approve {
		result, err = h.svc.Wallet.ApproveTransaction(c.UserContext(), adminID, models.TransactionID(txID), optionalString(req.Notes))
	} else {
		result, err = h.svc.Wallet.RejectTransaction(c.UserContext(), adminID, models.TransactionID(txID), optionalString(req.Notes))
	}
	if err != nil {
		return err
	}
	return c.JSON(result)
}
