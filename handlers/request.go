package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"skillarena/middleware"
	"skillarena/models"
	"skillarena/service"
)

var validate = validator.New()

// bind decodes the JSON body into req and runs its validate tags
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return service.NewValidationError("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return service.NewValidationError("%s", describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// caller returns the authenticated account or a 401
func caller(c *fiber.Ctx) (models.AccountID, error) {
	id, ok := middleware.CallerID(c)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, service.NewValidationError("invalid %s", name)
	}
	return n, nil
}

func queryID(c *fiber.Ctx, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return nil, service.NewValidationError("invalid %s", name)
	}
	return &n, nil
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
