package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kconnect-service/internal/api/dto"
	"github.com/spec-kit/kconnect-service/internal/service"
)

// DepartmentsHandler exposes department endpoints.
type DepartmentsHandler struct {
	departments *service.DepartmentService
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departments *service.DepartmentService) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments}
}

// List handles GET /departments.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	list, err := h.departments.List(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewDepartmentList(list))
}

// Stats handles GET /departments/stats.
func (h *DepartmentsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.departments.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewDepartmentStatsList(stats))
}

// Create handles POST /departments.
func (h *DepartmentsHandler) Create(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.departments.Create(c.UserContext(), actor, req.Name, req.Description)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewDepartmentResponse(dept))
}

// Update handles PUT /departments/:id.
func (h *DepartmentsHandler) Update(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.departments.Update(c.UserContext(), actor, c.Params("id"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewDepartmentResponse(dept))
}

// Delete handles DELETE /departments/:id.
func (h *DepartmentsHandler) Delete(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.departments.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return noContent(c)
}
