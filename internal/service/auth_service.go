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

// IssuedToken is the result of a successful login or registration.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterInput carries a self-service registration.
type RegisterInput struct {
	FullName     string
	Email        string
	Password     string
	Role         string
	DepartmentID *string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	employees   repository.EmployeeRepository
	departments repository.DepartmentRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	dummyHash   string
	now         func() time.Time
	logger      *zap.Logger
	emitter
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	EmployeeRepo   repository.EmployeeRepository
	DepartmentRepo repository.DepartmentRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAuthService builds the service. It fails when no signing secret is
// configured, so the process never starts unable to issue tokens.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	tokenMgr, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	if err != nil {
		return nil, err
	}
	dummy, err := auth.HashPassword("kconnect-unknown-account", cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		employees:   deps.EmployeeRepo,
		departments: deps.DepartmentRepo,
		tokenMgr:    tokenMgr,
		bcryptCost:  cfg.Auth.BcryptCost,
		dummyHash:   dummy,
		now:         time.Now,
		logger:      logger,
		emitter:     emitter{dispatcher: deps.Dispatcher, logger: logger},
	}, nil
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid credentials")
}

// Register creates an account and signs the new employee in. Requesting the
// ADMIN role requires caller to already be an admin.
func (s *AuthService) Register(ctx context.Context, caller *auth.Principal, in RegisterInput) (*domain.Employee, IssuedToken, error) {
	fullName, err := requireText("fullName", in.FullName, maxNameLength)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, IssuedToken{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, IssuedToken{}, err
	}

	role := domain.RoleEmployee
	if in.Role != "" {
		if role, err = domain.ParseRole(in.Role); err != nil {
			return nil, IssuedToken{}, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
		}
	}
	if role == domain.RoleAdmin && (caller == nil || !caller.IsAdmin()) {
		return nil, IssuedToken{}, auth.AsDomainError(auth.ErrInsufficientRole)
	}

	if _, err := s.employees.GetByEmail(ctx, email); err == nil {
		return nil, IssuedToken{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, IssuedToken{}, err
	}

	if in.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *in.DepartmentID); err != nil {
			return nil, IssuedToken{}, mapRepoError(err, "department")
		}
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, IssuedToken{}, err
	}

	emp := &domain.Employee{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: in.DepartmentID,
	}
	if err := s.employees.Create(ctx, emp); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, IssuedToken{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, IssuedToken{}, err
	}

	principal := auth.PrincipalFromEmployee(emp)
	issued, err := s.issue(principal)
	if err != nil {
		return nil, IssuedToken{}, err
	}

	actor := principal
	if caller != nil {
		actor = *caller
	}
	s.emit(ctx, events.EventEmployeeCreated, emp.ID, actor, events.EmployeeChangedPayload{
		Email: emp.Email, Role: emp.Role, DepartmentID: emp.DepartmentID,
	})
	return emp, issued, nil
}

// Login verifies credentials against the principal store. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Employee, IssuedToken, error) {
	emp, err := s.employees.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.VerifyPassword(s.dummyHash, password)
			return nil, IssuedToken{}, invalidCredentials()
		}
		return nil, IssuedToken{}, err
	}
	if !auth.VerifyPassword(emp.PasswordHash, password) {
		return nil, IssuedToken{}, invalidCredentials()
	}

	issued, err := s.issue(auth.PrincipalFromEmployee(emp))
	if err != nil {
		return nil, IssuedToken{}, err
	}
	return emp, issued, nil
}

func (s *AuthService) issue(p auth.Principal) (IssuedToken, error) {
	token, exp, err := s.tokenMgr.Issue(p, s.now())
	if err != nil {
		s.logger.Error("token issue failed", zap.Error(err))
		return IssuedToken{}, apperrors.NewInternalError(err)
	}
	return IssuedToken{Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
