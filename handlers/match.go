package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"skillarena/models"
)

type createMatchRequest struct {
	GameID    int64     `json:"gameId" validate:"required,gt=0"`
	Title     string    `json:"title" validate:"required"`
	EntryFee  int64     `json:"entryFee"`
	StartTime time.Time `json:"startTime" validate:"required"`
	StreamURL *string   `json:"streamUrl" validate:"omitempty,url"`
}

type declareWinnerRequest struct {
	WinnerID int64 `json:"winnerId" validate:"required,gt=0"`
}

type disputeRequest struct {
	Reason string `json:"reason"`
}

type resolveDisputeRequest struct {
	// WinnerID nil refunds both players
	WinnerID *int64 `json:"winnerId" validate:"omitempty,gt=0"`
}

func (h *Handler) ListOpenMatches(c *fiber.Ctx) error {
	raw, err := queryID(c, "gameId")
	if err != nil {
		return err
	}
	var gameID *models.GameID
	if raw != nil {
		id := models.GameID(*raw)
		gameID = &id
	}

	matches, err := h.svc.Matches.ListOpenMatches(c.UserContext(), gameID)
	if err != nil {
		return err
	}
	return c.JSON(matches)
}

func (h *Handler) ListMyMatches(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	matches, err := h.svc.Matches.ListMyMatches(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(matches)
}

func (h *Handler) GetMatch(c *fiber.Ctx) error {
	matchID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	match, err := h.svc.Matches.GetMatch(c.UserContext(), models.MatchID(matchID))
	if err != nil {
		return err
	}
	return c.JSON(match)
}

func (h *Handler) CreateMatch(c *fiber.Ctx) error {
	hostID, err := caller(c)
	if err != nil {
		return err
	}
	var req createMatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	match, err := h.svc.Matches.CreateMatch(c.UserContext(), hostID, models.CreateMatchParams{
		GameID:    models.GameID(req.GameID),
		Title:     req.Title,
		EntryFee:  req.EntryFee,
		StartTime: req.StartTime,
		StreamURL: optionalString(req.StreamURL),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

func (h *Handler) JoinMatch(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	matchID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	match, err := h.svc.Matches.JoinMatch(c.UserContext(), userID, models.MatchID(matchID))
	if err != nil {
		return err
	}
	return c.JSON(match)
}

func (h *Handler) DeclareWinner(c *fiber.Ctx) error {
	hostID, err := caller(c)
	if err != nil {
		return err
	}
	matchID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req declareWinnerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.svc.Matches.DeclareWinner(c.UserContext(), hostID, models.MatchID(matchID), models.AccountID(req.WinnerID))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) CancelMatch(c *fiber.Ctx) error {
	callerID, err := caller(c)
	if err != nil {
		return err
	}
	matchID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	match, err := h.svc.Matches.CancelMatch(c.UserContext(), callerID, models.MatchID(matchID))
	if err != nil {
		return err
	}
	return c.JSON(match)
}

func (h *Handler) FlagDispute(c *fiber.Ctx) error {
	callerID, err := caller(c)
	if err != nil {
		return err
	}
	matchID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req disputeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	match, err := h.svc.Matches.FlagDispute(c.UserContext(), callerID, models.MatchID(matchID), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(match)
}

func (h *Handler) ResolveDispute(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}
	matchID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req resolveDisputeRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	var winnerID *models.AccountID
	if req.WinnerID != nil {
		id := models.AccountID(*req.WinnerID)
		winnerID = &id
	}

	result, err := h.svc.Matches.ResolveDispute(c.UserContext(), adminID, models.MatchID(matchID), winnerID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
