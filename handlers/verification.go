package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"skillarena/models"
	"skillarena/service"
	"skillarena/storage"
)

const dateOfBirthLayout = "2006-01-02"

type playerVerificationRequest struct {
	FullName    string `json:"fullName" form:"fullName" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" form:"dateOfBirth" validate:"required"`
}

type rejectVerificationRequest struct {
	Reason string `json:"reason"`
}

// RequestPlayerVerification accepts JSON or a multipart form with an optional
// "document" file attached as proof of identity
func (h *Handler) RequestPlayerVerification(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	var req playerVerificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	dob, err := time.Parse(dateOfBirthLayout, strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return service.NewValidationError("dateOfBirth must be YYYY-MM-DD")
	}
	doc, err := readDocument(c)
	if err != nil {
		return err
	}

	vr, err := h.svc.Verification.RequestPlayerVerification(c.UserContext(), userID, req.FullName, dob, doc)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(vr)
}

func (h *Handler) RequestHostVerification(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	doc, err := readDocument(c)
	if err != nil {
		return err
	}

	vr, err := h.svc.Verification.RequestHostVerification(c.UserContext(), userID, doc)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(vr)
}

func (h *Handler) GetMyVerification(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	status, err := h.svc.Verification.GetMyVerification(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *Handler) ListPendingVerifications(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}

	reqs, err := h.svc.Verification.ListPendingVerifications(c.UserContext(), adminID)
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

func (h *Handler) ApproveVerification(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	vr, err := h.svc.Verification.ApproveVerification(c.UserContext(), adminID, models.VerificationRequestID(requestID))
	if err != nil {
		return err
	}
	return c.JSON(vr)
}

func (h *Handler) RejectVerification(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req rejectVerificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	vr, err := h.svc.Verification.RejectVerification(c.UserContext(), adminID, models.VerificationRequestID(requestID), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(vr)
}

// readDocument returns the uploaded "document" file, or nil when the request has none
func readDocument(c *fiber.Ctx) (*models.Document, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}

	fh, err := c.FormFile("document")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, service.NewValidationError("invalid document upload")
	}
	if fh.Size > storage.MaxDocumentSize {
		return nil, service.NewValidationError("document exceeds %d bytes", storage.MaxDocumentSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, service.NewValidationError("invalid document upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, service.NewValidationError("invalid document upload")
	}

	return &models.Document{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}
