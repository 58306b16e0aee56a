package events

import (
	"time"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeCreated EventType = "employee_created"
	EventEmployeeUpdated EventType = "employee_updated"
	EventEmployeeDeleted EventType = "employee_deleted"
	EventReportCreated   EventType = "report_created"
	EventReportUpdated   EventType = "report_updated"
	EventReportDeleted   EventType = "report_deleted"
)

// AllEventTypes lists every type the services emit.
var AllEventTypes = []EventType{
	EventEmployeeCreated,
	EventEmployeeUpdated,
	EventEmployeeDeleted,
	EventReportCreated,
	EventReportUpdated,
	EventReportDeleted,
}

// Actor identifies who caused an event.
type Actor struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ResourceID string      `json:"resource_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// EmployeeChangedPayload describes an employee after the change.
type EmployeeChangedPayload struct {
	Email         string      `json:"email"`
	Role          domain.Role `json:"role"`
	DepartmentID  *string     `json:"department_id,omitempty"`
	ChangedFields []string    `json:"changed_fields,omitempty"`
}

// ReportChangedPayload describes a performance report after the change.
type ReportChangedPayload struct {
	EmployeeID   string  `json:"employee_id"`
	DepartmentID *string `json:"department_id,omitempty"`
	Score        int     `json:"score"`
}
