package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// DateLayout is the wire format of calendar dates such as hireDate.
const DateLayout = "2006-01-02"

// CreateEmployeeRequest payload for POST /employees.
type CreateEmployeeRequest struct {
	FullName     string  `json:"fullName"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Role         string  `json:"role"`
	HireDate     *string `json:"hireDate"`
	DepartmentID *string `json:"departmentId"`
}

// UpdateEmployeeRequest payload for PUT /employees/{id}. Absent fields are
// left unchanged; an explicit null departmentId removes the department.
type UpdateEmployeeRequest struct {
	FullName     *string        `json:"fullName"`
	Email        *string        `json:"email"`
	Role         *string        `json:"role"`
	HireDate     *string        `json:"hireDate"`
	DepartmentID OptionalString `json:"departmentId"`
}

// OptionalString tells an absent field (Set false) from an explicit null
// (Set true, Value nil).
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only called when the key is present, null included.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Null reports an explicit null.
func (o OptionalString) Null() bool {
	return o.Set && o.Value == nil
}

// EmployeeResponse is the public view of an employee. The password hash is
// never serialized.
type EmployeeResponse struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	HireDate       *string   `json:"hireDate"`
	DepartmentID   *string   `json:"departmentId"`
	DepartmentName *string   `json:"departmentName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewEmployeeResponse converts a domain employee.
func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:             e.ID,
		FullName:       e.FullName,
		Email:          e.Email,
		Role:           string(e.Role),
		DepartmentID:   e.DepartmentID,
		DepartmentName: e.DepartmentName,
		CreatedAt:      e.CreatedAt,
	}
	if e.HireDate != nil {
		d := e.HireDate.Format(DateLayout)
		resp.HireDate = &d
	}
	return resp
}

// NewEmployeeList converts a slice of employees.
func NewEmployeeList(list []domain.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(list))
	for i := range list {
		out = append(out, NewEmployeeResponse(&list[i]))
	}
	return out
}
