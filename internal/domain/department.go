package domain

import "time"

// Department represents a high-level organizational unit.
type Department struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// DepartmentStats carries the head count of a department.
type DepartmentStats struct {
	ID            string
	Name          string
	EmployeeCount int
}
