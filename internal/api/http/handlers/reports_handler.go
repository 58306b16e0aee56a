package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kconnect-service/internal/api/dto"
	"github.com/spec-kit/kconnect-service/internal/service"
)

// ReportsHandler exposes performance report endpoints.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Create handles POST /reports.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	report, err := h.reports.Create(c.UserContext(), actor, reportInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewReportResponse(report))
}

// Mine handles GET /reports.
func (h *ReportsHandler) Mine(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.reports.Mine(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewReportList(list))
}

// ByDepartment handles GET /reports/department/:departmentId.
func (h *ReportsHandler) ByDepartment(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.reports.ByDepartment(c.UserContext(), actor, c.Params("departmentId"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewReportList(list))
}

// Update handles PUT /reports/:id.
func (h *ReportsHandler) Update(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ReportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	report, err := h.reports.Update(c.UserContext(), actor, c.Params("id"), reportInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewReportResponse(report))
}

// Delete handles DELETE /reports/:id.
func (h *ReportsHandler) Delete(c *fiber.Ctx) error {
	actor, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.reports.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return noContent(c)
}

func reportInput(req dto.ReportRequest) service.ReportInput {
	return service.ReportInput{Title: req.Title, Description: req.Description, Score: req.Score}
}
