package dto

import (
	"time"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// DepartmentRequest payload for department create and update.
type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DepartmentResponse is the public view of a department.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DepartmentStatsResponse carries a department head count.
type DepartmentStatsResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	EmployeeCount int    `json:"employeeCount"`
}

// NewDepartmentResponse converts a domain department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Description: d.Description, CreatedAt: d.CreatedAt}
}

// NewDepartmentList converts a slice of departments.
func NewDepartmentList(list []domain.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(list))
	for i := range list {
		out = append(out, NewDepartmentResponse(&list[i]))
	}
	return out
}

// NewDepartmentStatsList converts department statistics.
func NewDepartmentStatsList(list []domain.DepartmentStats) []DepartmentStatsResponse {
	out := make([]DepartmentStatsResponse, 0, len(list))
	for _, s := range list {
		out = append(out, DepartmentStatsResponse{ID: s.ID, Name: s.Name, EmployeeCount: s.EmployeeCount})
	}
	return out
}
