package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/config"
	"github.com/spec-kit/kconnect-service/internal/domain"
	"github.com/spec-kit/kconnect-service/internal/events"
	"github.com/spec-kit/kconnect-service/internal/repository"
	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

// EmployeeService manages employee records.
type EmployeeService struct {
	employees   repository.EmployeeRepository
	departments repository.DepartmentRepository
	bcryptCost  int
	emitter
}

// OrgDependencies encapsulates repositories required for org management.
type OrgDependencies struct {
	EmployeeRepo   repository.EmployeeRepository
	DepartmentRepo repository.DepartmentRepository
	ReportRepo     repository.ReportRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// CreateEmployeeInput describes an admin-created account.
type CreateEmployeeInput struct {
	FullName     string
	Email        string
	Password     string
	Role         string
	HireDate     *time.Time
	DepartmentID *string
}

// UpdateEmployeeInput carries a partial update. Nil fields are left unchanged.
// Email is accepted only so an attempt to change it can be rejected.
// ClearDepartment removes the department and wins over DepartmentID.
type UpdateEmployeeInput struct {
	FullName        *string
	Email           *string
	Role            *string
	HireDate        *time.Time
	DepartmentID    *string
	ClearDepartment bool
}

// NewEmployeeService constructs the service.
func NewEmployeeService(cfg config.Config, deps OrgDependencies) *EmployeeService {
	return &EmployeeService{
		employees:   deps.EmployeeRepo,
		departments: deps.DepartmentRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
		emitter:     emitter{dispatcher: deps.Dispatcher, logger: deps.Logger},
	}
}

// Create adds an employee. Admin only.
func (s *EmployeeService) Create(ctx context.Context, actor auth.Principal, in CreateEmployeeInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	fullName, err := requireText("fullName", in.FullName, maxNameLength)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := domain.RoleEmployee
	if in.Role != "" {
		if role, err = domain.ParseRole(in.Role); err != nil {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
		}
	}
	if err := s.ensureDepartment(ctx, in.DepartmentID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	emp := &domain.Employee{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		HireDate:     in.HireDate,
		DepartmentID: in.DepartmentID,
	}
	if err := s.employees.Create(ctx, emp); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}

	s.emit(ctx, events.EventEmployeeCreated, emp.ID, actor, events.EmployeeChangedPayload{
		Email: emp.Email, Role: emp.Role, DepartmentID: emp.DepartmentID,
	})
	return s.reload(ctx, emp.ID)
}

// List returns every employee. Admin only.
func (s *EmployeeService) List(ctx context.Context, actor auth.Principal) ([]domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.employees.List(ctx)
}

// Get returns one employee to an admin or to the employee themselves.
func (s *EmployeeService) Get(ctx context.Context, actor auth.Principal, id string) (*domain.Employee, error) {
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	if err := requireOwnerOrAdmin(actor, emp.Email); err != nil {
		return nil, err
	}
	return emp, nil
}

// Update applies a partial update. The record's owner may change only the
// display name; department, role and hire date changes need an admin.
func (s *EmployeeService) Update(ctx context.Context, actor auth.Principal, id string, in UpdateEmployeeInput) (*domain.Employee, error) {
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	if err := requireOwnerOrAdmin(actor, emp.Email); err != nil {
		return nil, err
	}

	var changed []string
	var relational bool

	if in.Email != nil && normalizeEmail(*in.Email) != emp.Email {
		return nil, apperrors.NewValidationError("email cannot be changed", map[string]any{"field": "email"})
	}

	var role domain.Role
	if in.Role != nil {
		if role, err = domain.ParseRole(*in.Role); err != nil {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
		}
		if role != emp.Role {
			relational = true
			changed = append(changed, "role")
		}
	}
	if in.ClearDepartment {
		if emp.DepartmentID != nil {
			relational = true
			changed = append(changed, "departmentId")
		}
	} else if in.DepartmentID != nil && !sameString(in.DepartmentID, emp.DepartmentID) {
		relational = true
		changed = append(changed, "departmentId")
	}
	if in.HireDate != nil && !sameDate(in.HireDate, emp.HireDate) {
		relational = true
		changed = append(changed, "hireDate")
	}
	if err := auth.RequireAdminForRelations(actor, relational); err != nil {
		return nil, auth.AsDomainError(err)
	}

	if in.FullName != nil {
		fullName, err := requireText("fullName", *in.FullName, maxNameLength)
		if err != nil {
			return nil, err
		}
		if fullName != emp.FullName {
			emp.FullName = fullName
			changed = append(changed, "fullName")
		}
	}
	if in.Role != nil {
		emp.Role = role
	}
	if in.ClearDepartment {
		emp.DepartmentID = nil
		emp.DepartmentName = nil
	} else if in.DepartmentID != nil {
		if err := s.ensureDepartment(ctx, in.DepartmentID); err != nil {
			return nil, err
		}
		emp.DepartmentID = in.DepartmentID
	}
	if in.HireDate != nil {
		emp.HireDate = in.HireDate
	}

	if err := s.employees.Update(ctx, emp); err != nil {
		return nil, mapRepoError(err, "employee")
	}

	s.emit(ctx, events.EventEmployeeUpdated, emp.ID, actor, events.EmployeeChangedPayload{
		Email: emp.Email, Role: emp.Role, DepartmentID: emp.DepartmentID, ChangedFields: changed,
	})
	return s.reload(ctx, emp.ID)
}

// Delete removes an employee and their reports. Admin only.
func (s *EmployeeService) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "employee")
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		return mapRepoError(err, "employee")
	}
	s.emit(ctx, events.EventEmployeeDeleted, id, actor, events.EmployeeChangedPayload{
		Email: emp.Email, Role: emp.Role, DepartmentID: emp.DepartmentID,
	})
	return nil
}

func (s *EmployeeService) ensureDepartment(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.departments.GetByID(ctx, *id); err != nil {
		return mapRepoError(err, "department")
	}
	return nil
}

func (s *EmployeeService) reload(ctx context.Context, id string) (*domain.Employee, error) {
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	return emp, nil
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
