package dto

import (
	"time"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// ReportRequest payload for report create and update. On update absent
// fields are left unchanged.
type ReportRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Score       *int    `json:"score"`
}

// ReportResponse is the public view of a performance report.
type ReportResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Score          int       `json:"score"`
	EmployeeID     string    `json:"employeeId"`
	EmployeeName   string    `json:"employeeName"`
	DepartmentID   *string   `json:"departmentId"`
	DepartmentName *string   `json:"departmentName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewReportResponse converts a domain report.
func NewReportResponse(r *domain.PerformanceReport) ReportResponse {
	return ReportResponse{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Score:          r.Score,
		EmployeeID:     r.EmployeeID,
		EmployeeName:   r.EmployeeName,
		DepartmentID:   r.DepartmentID,
		DepartmentName: r.DepartmentName,
		CreatedAt:      r.CreatedAt,
	}
}

// NewReportList converts a slice of reports.
func NewReportList(list []domain.PerformanceReport) []ReportResponse {
	out := make([]ReportResponse, 0, len(list))
	for i := range list {
		out = append(out, NewReportResponse(&list[i]))
	}
	return out
}
