package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/config"
	"github.com/spec-kit/kconnect-service/internal/domain"
	"github.com/spec-kit/kconnect-service/internal/repository"
)

// Seeder creates the bootstrap department and admin account.
type Seeder struct {
	cfg         config.SeedConfig
	bcryptCost  int
	employees   repository.EmployeeRepository
	departments repository.DepartmentRepository
	logger      *zap.Logger
}

// NewSeeder constructs the seeder.
func NewSeeder(cfg config.Config, deps OrgDependencies) *Seeder {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		cfg:         cfg.Seed,
		bcryptCost:  cfg.Auth.BcryptCost,
		employees:   deps.EmployeeRepo,
		departments: deps.DepartmentRepo,
		logger:      logger,
	}
}

// Seed is idempotent: a department is created only when none exist and the
// admin only when its email is unused.
func (s *Seeder) Seed(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	deptID, err := s.defaultDepartment(ctx)
	if err != nil {
		return err
	}

	email := normalizeEmail(s.cfg.AdminEmail)
	if _, err := s.employees.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(s.cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.Employee{
		FullName:     s.cfg.AdminName,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		DepartmentID: deptID,
	}
	if err := s.employees.Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}
	s.logger.Info("seeded admin account", zap.String("email", email))
	return nil
}

func (s *Seeder) defaultDepartment(ctx context.Context) (*string, error) {
	count, err := s.departments.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		dept := &domain.Department{Name: s.cfg.DepartmentName, Description: "Initial department"}
		if err := s.departments.Create(ctx, dept); err != nil {
			return nil, err
		}
		s.logger.Info("seeded department", zap.String("name", dept.Name))
		return &dept.ID, nil
	}
	depts, err := s.departments.List(ctx)
	if err != nil || len(depts) == 0 {
		return nil, err
	}
	return &depts[0].ID, nil
}
