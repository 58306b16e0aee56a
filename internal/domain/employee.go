package domain

import "time"

// Employee is both the HR record and the login account.
type Employee struct {
	ID             string
	FullName       string
	Email          string
	PasswordHash   string
	Role           Role
	HireDate       *time.Time
	DepartmentID   *string
	DepartmentName *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
