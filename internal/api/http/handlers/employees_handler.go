package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kconnect-service/internal/api/dto"
	"github.com/spec-kit/kconnect-service/internal/service"
)

// EmployeesHandler exposes employee CRUD.
type EmployeesHandler struct {
	employees *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employees *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{employees: employees}
}

// Create handles POST /employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	hireDate, err := parseDate("hireDate", req.HireDate)
	if err != nil {
		return err
	}

	emp, err := h.employees.Create(c.UserContext(), actor, service.CreateEmployeeInput{
		FullName:     req.FullName,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		HireDate:     hireDate,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewEmployeeResponse(emp))
}

// List handles GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.employees.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEmployeeList(list))
}

// Get handles GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	emp, err := h.employees.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEmployeeResponse(emp))
}

// Update handles PUT /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateEmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	hireDate, err := parseDate("hireDate", req.HireDate)
	if err != nil {
		return err
	}

	emp, err := h.employees.Update(c.UserContext(), actor, c.Params("id"), service.UpdateEmployeeInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Role:            req.Role,
		HireDate:        hireDate,
		DepartmentID:    req.DepartmentID.Value,
		ClearDepartment: req.DepartmentID.Null(),
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEmployeeResponse(emp))
}

// Delete handles DELETE /employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.employees.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return noContent(c)
}
