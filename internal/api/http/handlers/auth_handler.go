package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kconnect-service/internal/api/dto"
	"github.com/spec-kit/kconnect-service/internal/service"
)

// AuthHandler exposes the credential endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	emp, issued, err := h.auth.Register(c.UserContext(), optionalPrincipal(c), service.RegisterInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}

	return data(c, http.StatusCreated, fiber.Map{
		"employee": dto.NewEmployeeResponse(emp),
		"auth":     dto.AuthResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	emp, issued, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return data(c, http.StatusOK, fiber.Map{
		"employee": dto.NewEmployeeResponse(emp),
		"auth":     dto.AuthResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt},
	})
}
