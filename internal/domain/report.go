package domain

import "time"

const (
	MinReportScore = 1
	MaxReportScore = 100
)

// PerformanceReport is an evaluation written for a single employee.
// DepartmentID is captured from the employee when the report is created.
type PerformanceReport struct {
	ID             string
	Title          string
	Description    string
	Score          int
	EmployeeID     string
	EmployeeName   string
	EmployeeEmail  string
	DepartmentID   *string
	DepartmentName *string
	CreatedAt      time.Time
}
