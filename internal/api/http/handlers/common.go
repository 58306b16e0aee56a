package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kconnect-service/internal/api/dto"
	"github.com/spec-kit/kconnect-service/internal/auth"
	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

// principal returns the caller attached by the authentication gate.
func principal(c *fiber.Ctx) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.UserContext())
	if !ok {
		return auth.Principal{}, apperrors.NewUnauthorizedFor(auth.ErrUnauthenticated)
	}
	return p, nil
}

// optionalPrincipal is for public routes that behave differently for a signed
// in caller.
func optionalPrincipal(c *fiber.Ctx) *auth.Principal {
	if p, ok := auth.PrincipalFromContext(c.UserContext()); ok {
		return &p
	}
	return nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, *value)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": field, "layout": dto.DateLayout})
	}
	return &t, nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}

func noContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}
