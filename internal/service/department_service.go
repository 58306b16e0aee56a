package service

import (
	"context"
	"errors"

	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/domain"
	"github.com/spec-kit/kconnect-service/internal/repository"
	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

// DepartmentService manages departments.
type DepartmentService struct {
	departments repository.DepartmentRepository
}

// NewDepartmentService constructs the service.
func NewDepartmentService(deps OrgDependencies) *DepartmentService {
	return &DepartmentService{departments: deps.DepartmentRepo}
}

// List returns all departments ordered by name.
func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	return s.departments.List(ctx)
}

// Stats returns the employee count of every department.
func (s *DepartmentService) Stats(ctx context.Context) ([]domain.DepartmentStats, error) {
	return s.departments.Stats(ctx)
}

// Create adds a department with a unique name.
func (s *DepartmentService) Create(ctx context.Context, actor auth.Principal, name, description string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept, err := buildDepartment(name, description)
	if err != nil {
		return nil, err
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, departmentError(err)
	}
	return dept, nil
}

// Update renames or re-describes a department.
func (s *DepartmentService) Update(ctx context.Context, actor auth.Principal, id, name, description string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept, err := buildDepartment(name, description)
	if err != nil {
		return nil, err
	}
	dept.ID = id
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, departmentError(err)
	}
	updated, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "department")
	}
	return updated, nil
}

// Delete removes a department. Its employees and reports are kept without one.
func (s *DepartmentService) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapRepoError(s.departments.Delete(ctx, id), "department")
}

func buildDepartment(name, description string) (*domain.Department, error) {
	name, err := requireText("name", name, maxNameLength)
	if err != nil {
		return nil, err
	}
	if len(description) > maxDescriptionLength {
		return nil, apperrors.NewValidationError("description too long", map[string]any{"field": "description"})
	}
	return &domain.Department{Name: name, Description: description}, nil
}

func departmentError(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.NewConflict("department name already in use", nil)
	}
	return mapRepoError(err, "department")
}
